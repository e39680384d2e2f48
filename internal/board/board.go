// Package board owns the event cache and the live render loop: it loads the
// event source, re-renders every host page on each tick, and publishes the
// result as an immutable Snapshot.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "eventboard/internal/log"
	"eventboard/internal/model"
	"eventboard/internal/render"
	"eventboard/internal/source"
)

// Loader is the data source a Board loads from.
type Loader interface {
	Load(ctx context.Context) source.Result
}

// Options configures a Board.
type Options struct {
	Loader   Loader
	Renderer *render.Renderer
	// Pages are host documents keyed by name. The board owns them after New.
	Pages map[string]*render.Document
	// Period is the tick cadence; zero means DefaultPeriod.
	Period time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Snapshot is the published result of one render pass. It must be treated
// as read-only.
type Snapshot struct {
	RenderedAt time.Time
	LoadedAt   time.Time
	Origin     string
	Pass       render.Pass
	// Pages holds each serialized host page.
	Pages map[string][]byte
	// Regions holds the serialized content of each mount point.
	Regions map[string]string
}

// Board is the single owner of the event cache and render state.
type Board struct {
	loader   Loader
	renderer *render.Renderer
	now      func() time.Time
	sched    *Scheduler

	// Event cache. Written by Load, read by Tick and HTTP handlers.
	mu       sync.RWMutex
	events   []model.Event
	origin   string
	loadedAt time.Time
	loaded   bool

	// Render state. Pages are only touched under renderMu.
	renderMu sync.Mutex
	pages    map[string]*render.Document

	snapMu   sync.RWMutex
	snapshot *Snapshot

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Snapshot
}

// New creates a Board. Nothing is loaded or scheduled until Load.
func New(opts Options) *Board {
	b := &Board{
		loader:   opts.Loader,
		renderer: opts.Renderer,
		now:      opts.Now,
		pages:    opts.Pages,
		subs:     make(map[int]chan Snapshot),
	}
	if b.renderer == nil {
		b.renderer = &render.Renderer{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.pages == nil {
		b.pages = map[string]*render.Document{}
	}
	b.sched = NewScheduler(opts.Period, b.Tick)
	return b
}

// Renderer returns the renderer used for every pass.
func (b *Board) Renderer() *render.Renderer {
	return b.renderer
}

// Now returns the board's clock reading.
func (b *Board) Now() time.Time {
	return b.now()
}

// Load fetches events (or the fallback dataset), replaces the cache,
// renders once and re-arms the refresh loop.
func (b *Board) Load(ctx context.Context) source.Result {
	res := b.loader.Load(ctx)

	b.mu.Lock()
	b.events = res.Events
	b.origin = res.Origin()
	b.loadedAt = b.now()
	b.loaded = true
	b.mu.Unlock()

	b.Tick()
	b.sched.Arm(ctx)

	appLog.Info("events loaded; refresh loop armed", "origin", res.Origin(), "event_count", len(res.Events))
	return res
}

// Events returns the cached events and whether a load has completed.
func (b *Board) Events() ([]model.Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.events, b.loaded
}

// Tick renders every host page against the cached events at a single
// instant and publishes the snapshot.
func (b *Board) Tick() {
	b.mu.RLock()
	events, origin, loadedAt, loaded := b.events, b.origin, b.loadedAt, b.loaded
	b.mu.RUnlock()
	if !loaded {
		return
	}

	b.renderMu.Lock()
	defer b.renderMu.Unlock()

	now := b.now()
	pass := b.renderer.Prepare(events, now)

	snap := Snapshot{
		RenderedAt: now,
		LoadedAt:   loadedAt,
		Origin:     origin,
		Pass:       pass,
		Pages:      make(map[string][]byte, len(b.pages)),
		Regions: map[string]string{
			render.UpcomingRegionID: render.NodeHTML(b.renderer.UpcomingView(pass)),
			render.PastRegionID:     render.NodeHTML(b.renderer.PastView(pass)),
		},
	}
	for name, doc := range b.pages {
		b.renderer.Mount(doc, pass)
		doc.MarkReady()
		out, err := doc.Bytes()
		if err != nil {
			appLog.Error("page serialize failed", err, "page", name)
			continue
		}
		snap.Pages[name] = out
	}

	b.snapMu.Lock()
	b.snapshot = &snap
	b.snapMu.Unlock()

	b.publish(snap)
}

// Snapshot returns the latest snapshot, if any pass has run.
func (b *Board) Snapshot() (Snapshot, bool) {
	b.snapMu.RLock()
	defer b.snapMu.RUnlock()
	if b.snapshot == nil {
		return Snapshot{}, false
	}
	return *b.snapshot, true
}

// Subscribe returns a channel that receives each new snapshot. Slow
// readers only see the latest one. The returned func unsubscribes.
func (b *Board) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	b.subMu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, id)
			b.subMu.Unlock()
		})
	}
}

func (b *Board) publish(snap Snapshot) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, ch := range b.subs {
		// Replace a pending snapshot nobody has read yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// ScheduleReload re-runs Load on a cron schedule. Each completed load
// re-arms the refresh loop. The returned func stops the schedule.
func (b *Board) ScheduleReload(ctx context.Context, spec string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		appLog.Info("scheduled reload", "spec", spec)
		b.Load(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

// Close stops the refresh loop.
func (b *Board) Close() {
	b.sched.Stop()
}

// Scheduler exposes the refresh loop, mainly for inspection.
func (b *Board) Scheduler() *Scheduler {
	return b.sched
}

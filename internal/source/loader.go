// Package source loads the event document and substitutes the built-in
// dataset when it cannot.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	appLog "eventboard/internal/log"
	"eventboard/internal/model"
)

const defaultTimeout = 15 * time.Second

// ErrInvalidDocument is returned by Decode when the body is not an object
// with an "events" array.
var ErrInvalidDocument = errors.New("invalid events document")

// Options configures a Loader.
type Options struct {
	// Source is an http(s) URL, a file:// URL, or a filesystem path.
	Source string
	// Timeout bounds a single HTTP fetch. Zero means 15s.
	Timeout time.Duration
}

// Result is the outcome of one Load.
type Result struct {
	Events []model.Event
	// Fallback is true when Events is the built-in dataset.
	Fallback bool
	// Err is the failure that caused the fallback, if any.
	Err error
}

// Origin names where the events came from.
func (r Result) Origin() string {
	if r.Fallback {
		return "fallback"
	}
	return "source"
}

// Loader fetches the event document. It never retries; a failed load is
// answered with the fallback dataset.
type Loader struct {
	source string
	client *resty.Client
}

// NewLoader creates a Loader for opts.Source.
func NewLoader(opts Options) *Loader {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Loader{
		source: strings.TrimSpace(opts.Source),
		client: resty.New().SetTimeout(timeout),
	}
}

// Source returns the configured source.
func (l *Loader) Source() string {
	return l.source
}

// Load fetches and decodes the source. Any failure (transport, status,
// read, shape) yields the fallback dataset with Err set.
func (l *Loader) Load(ctx context.Context) Result {
	events, err := l.fetch(ctx)
	if err != nil {
		appLog.Error("event source unavailable; using fallback dataset", err, "source", redactURL(l.source))
		return Result{Events: Fallback(), Fallback: true, Err: err}
	}
	appLog.Info("event source loaded", "source", redactURL(l.source), "event_count", len(events))
	return Result{Events: events}
}

func (l *Loader) fetch(ctx context.Context) ([]model.Event, error) {
	if l.source == "" {
		return nil, errors.New("event source is empty")
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	if isHTTP(l.source) {
		body, contentType, err = l.fetchHTTP(ctx)
	} else {
		body, err = os.ReadFile(strings.TrimPrefix(l.source, "file://"))
	}
	if err != nil {
		return nil, err
	}
	if isICS(l.source, contentType) {
		return DecodeICS(body)
	}
	return Decode(body)
}

func (l *Loader) fetchHTTP(ctx context.Context) ([]byte, string, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"Accept":        "application/json, text/calendar;q=0.9",
			"Cache-Control": "no-cache, no-store",
			"Pragma":        "no-cache",
		}).
		Get(l.source)
	if err != nil {
		return nil, "", fmt.Errorf("fetch events: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, "", fmt.Errorf("fetch events: unexpected status %s", resp.Status())
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// Decode validates and decodes an event document. The body must be a JSON
// object whose "events" member is an array. Array elements that do not
// decode as events are dropped.
func Decode(body []byte) ([]model.Event, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: document is null", ErrInvalidDocument)
	}
	raw, ok := top["events"]
	if !ok {
		return nil, fmt.Errorf("%w: missing events", ErrInvalidDocument)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: events is not an array", ErrInvalidDocument)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	events := make([]model.Event, 0, len(items))
	for i, item := range items {
		var ev model.Event
		if err := json.Unmarshal(item, &ev); err != nil {
			appLog.Debug("event entry skipped", "index", i, "err", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// redactURL hides the path and query of a URL source for logging. File
// paths are returned unchanged.
func redactURL(u string) string {
	if !isHTTP(u) {
		return u
	}
	i := strings.Index(u, "://") + 3
	j := strings.IndexByte(u[i:], '/')
	if j == -1 {
		return u
	}
	return u[:i+j] + "/...(redacted)"
}

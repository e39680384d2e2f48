package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventboard/internal/board"
	"eventboard/internal/config"
	"eventboard/internal/lifecycle"
	"eventboard/internal/model"
	"eventboard/internal/render"
	"eventboard/internal/source"
)

var fixedNow = time.Date(2025, time.November, 15, 12, 0, 0, 0, time.UTC)

type staticLoader struct {
	events []model.Event
}

func (l staticLoader) Load(context.Context) source.Result {
	return source.Result{Events: l.events}
}

func newTestServer(t *testing.T, events []model.Event) (*Server, *board.Board, *httptest.Server) {
	t.Helper()

	pages, err := Pages()
	require.NoError(t, err)

	b := board.New(board.Options{
		Loader:   staticLoader{events: events},
		Renderer: &render.Renderer{Normalizer: lifecycle.Normalizer{Location: time.UTC}},
		Pages:    pages,
		Period:   time.Hour,
		Now:      func() time.Time { return fixedNow },
	})
	t.Cleanup(b.Close)

	srv := NewServer(config.DefaultConfig(), b)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return srv, b, ts
}

func get(t *testing.T, url string) (int, http.Header, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, string(body)
}

func TestPages_ParseEmbeddedTemplates(t *testing.T) {
	pages, err := Pages()
	require.NoError(t, err)
	require.Len(t, pages, 4)

	assert.NotNil(t, pages[PageIndex].Region(render.UpcomingRegionID))
	assert.NotNil(t, pages[PageIndex].Region(render.PastRegionID))
	assert.NotNil(t, pages[PageUpcoming].Region(render.UpcomingRegionID))
	assert.Nil(t, pages[PageUpcoming].Region(render.PastRegionID))
	assert.Nil(t, pages[PagePast].Region(render.UpcomingRegionID))
	assert.NotNil(t, pages[PagePast].Region(render.PastRegionID))
	assert.Nil(t, pages[PageAbout].Region(render.UpcomingRegionID))
	assert.Nil(t, pages[PageAbout].Region(render.PastRegionID))
}

func TestServer_BeforeLoad(t *testing.T) {
	_, _, ts := newTestServer(t, source.Fallback())

	status, _, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	for _, path := range []string{"/", "/upcoming", "/past", "/about", "/api/events", "/events.ics"} {
		status, _, _ := get(t, ts.URL+path)
		assert.Equal(t, http.StatusServiceUnavailable, status, path)
	}
}

func TestServer_Pages(t *testing.T) {
	_, b, ts := newTestServer(t, source.Fallback())
	b.Load(context.Background())

	status, hdr, body := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "no-store", hdr.Get("Cache-Control"))
	assert.Contains(t, hdr.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `data-ready="true"`)
	// 12:00 on Nov 15: Health Camp is live, the expo is upcoming.
	assert.Contains(t, body, "Health Camp")
	assert.Contains(t, body, "Event is live!")
	assert.Contains(t, body, "Agricultural Expo")
	assert.Contains(t, body, render.EmptyPastMessage)

	_, _, body = get(t, ts.URL+"/upcoming")
	assert.Contains(t, body, "Agricultural Expo")
	assert.NotContains(t, body, render.EmptyPastMessage)

	_, _, body = get(t, ts.URL+"/past")
	assert.Contains(t, body, render.EmptyPastMessage)
	assert.NotContains(t, body, "Agricultural Expo")

	status, _, body = get(t, ts.URL+"/about")
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "Health Camp")

	status, _, _ = get(t, ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_StaticAssets(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	status, _, body := get(t, ts.URL+"/static/app.js")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "WebSocket")

	status, _, _ = get(t, ts.URL+"/static/style.css")
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = get(t, ts.URL+"/static/missing.css")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_APIEvents(t *testing.T) {
	_, b, ts := newTestServer(t, []model.Event{
		{Name: "Finished", Start: "2025-11-14T09:00:00", End: "2025-11-14T10:00:00"},
		{Name: "Later", Start: "2025-11-16T09:00:00", Location: "Hall"},
		{Name: "Now", Start: "2025-11-15T11:00:00"},
		{Name: "Broken", Start: "soon"},
	})
	b.Load(context.Background())

	status, hdr, body := get(t, ts.URL+"/api/events")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, hdr.Get("Content-Type"), "application/json")

	var resp eventsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	assert.Equal(t, "source", resp.Origin)
	assert.True(t, resp.RenderedAt.Equal(fixedNow))
	require.Len(t, resp.Live, 1)
	require.Len(t, resp.Upcoming, 1)
	require.Len(t, resp.Past, 1)

	assert.Equal(t, "Now", resp.Live[0].Title)
	assert.Equal(t, "Live Now", resp.Live[0].Badge)
	assert.Equal(t, "Later", resp.Upcoming[0].Title)
	assert.Equal(t, "Hall", resp.Upcoming[0].Where)
	assert.Equal(t, "Starts in: 0d 21h 0m 0s", resp.Upcoming[0].StatusLine)
	assert.Equal(t, "Finished", resp.Past[0].Title)
	assert.Equal(t, "This event has passed.", resp.Past[0].StatusLine)
}

func TestServer_APIEventsEmptyBucketsAreArrays(t *testing.T) {
	_, b, ts := newTestServer(t, []model.Event{})
	b.Load(context.Background())

	_, _, body := get(t, ts.URL+"/api/events")
	assert.Contains(t, body, `"live":[]`)
	assert.Contains(t, body, `"upcoming":[]`)
	assert.Contains(t, body, `"past":[]`)
}

func TestServer_ICSExport(t *testing.T) {
	_, b, ts := newTestServer(t, source.Fallback())
	b.Load(context.Background())

	status, hdr, body := get(t, ts.URL+"/events.ics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, hdr.Get("Content-Type"), "text/calendar")

	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "SUMMARY:Health Camp")
	assert.Contains(t, body, "LOCATION:Seme Sub-County Hospital")
	assert.Contains(t, body, "DTSTART:20251115T090000Z")
	assert.Contains(t, body, "DTEND:20251115T170000Z")

	_, _, again := get(t, ts.URL+"/events.ics")
	assert.Equal(t, body, again)
}

func TestEventUID_Stable(t *testing.T) {
	start := time.Date(2025, time.November, 15, 9, 0, 0, 0, time.UTC)
	a := model.NormalizedEvent{Source: model.Event{Name: "Health Camp"}, Start: start}
	b := model.NormalizedEvent{Source: model.Event{Name: "Health Camp", Location: "elsewhere"}, Start: start}
	c := model.NormalizedEvent{Source: model.Event{Name: "Health Camp"}, Start: start.Add(time.Hour)}

	assert.Equal(t, EventUID(a), EventUID(b))
	assert.NotEqual(t, EventUID(a), EventUID(c))
	assert.True(t, strings.HasSuffix(EventUID(a), "@eventboard"))
}

func TestServer_WebsocketStream(t *testing.T) {
	srv, b, ts := newTestServer(t, source.Fallback())
	b.Load(context.Background())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first renderMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "render", first.Type)
	assert.Equal(t, "source", first.Origin)
	assert.Contains(t, first.Regions[render.UpcomingRegionID], "Health Camp")
	assert.Contains(t, first.Regions[render.PastRegionID], render.EmptyPastMessage)

	require.Eventually(t, func() bool { return srv.StreamCount() == 1 }, time.Second, 5*time.Millisecond)

	b.Tick()

	var next renderMessage
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, "render", next.Type)
	assert.Equal(t, first.Regions, next.Regions)

	srv.Close()
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)

	require.Eventually(t, func() bool { return srv.StreamCount() == 0 }, time.Second, 5*time.Millisecond)
}

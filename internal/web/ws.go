package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"eventboard/internal/board"
	appLog "eventboard/internal/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// renderMessage is pushed to browsers after every render pass. Regions maps
// a mount point id to its new innerHTML.
type renderMessage struct {
	Type       string            `json:"type"`
	RenderedAt time.Time         `json:"rendered_at"`
	Origin     string            `json:"origin"`
	Regions    map[string]string `json:"regions"`
}

func newRenderMessage(snap board.Snapshot) renderMessage {
	return renderMessage{
		Type:       "render",
		RenderedAt: snap.RenderedAt,
		Origin:     snap.Origin,
		Regions:    snap.Regions,
	}
}

// handleWS streams rendered regions to one browser. The current snapshot is
// sent right away, then one message per tick until the client goes away or
// the server closes.
//
// GET /ws
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		appLog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err.Error())
		return
	}
	defer conn.Close()

	id := uuid.New()
	s.streamsMu.Lock()
	s.streams[id] = r.RemoteAddr
	count := len(s.streams)
	s.streamsMu.Unlock()
	appLog.Debug("websocket client connected", "client", id.String(), "clients", count)

	defer func() {
		s.streamsMu.Lock()
		delete(s.streams, id)
		s.streamsMu.Unlock()
		appLog.Debug("websocket client disconnected", "client", id.String())
	}()

	// Subscribe before reading the current snapshot so no tick slips
	// between the two. A duplicate first message is harmless.
	snaps, unsubscribe := s.board.Subscribe()
	defer unsubscribe()

	if snap, ok := s.board.Snapshot(); ok {
		if err := writeMessage(conn, newRenderMessage(snap)); err != nil {
			return
		}
	}

	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case <-closed:
			return
		case snap := <-snaps:
			if err := writeMessage(conn, newRenderMessage(snap)); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, msg renderMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readUntilClosed drains client frames (browsers send none) so control
// frames are processed, and closes done when the connection ends.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

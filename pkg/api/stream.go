package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/hnsearch/pkg/session"
	"github.com/rubiojr/hnsearch/pkg/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// HandleSessionStream upgrades to a websocket and pushes the session state:
// an "init" frame first, then a "state" frame after every change. The sort
// order is fixed by the sort and reverse query parameters of the handshake.
func (s *Server) HandleSessionStream(w http.ResponseWriter, r *http.Request) {
	sorter, ok := s.sorter(w, r)
	if !ok {
		return
	}

	var (
		sess   *session.Session
		header http.Header
	)
	if c, err := r.Cookie(CookieName); err == nil {
		sess, _ = s.sessions.Get(c.Value)
	}
	if sess == nil {
		sess = s.sessions.Create()
		header = http.Header{}
		header.Add("Set-Cookie", sessionCookie(sess.ID()).String())
	}

	conn, err := upgrader.Upgrade(w, r, header)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	snap, err := sess.Snapshot()
	if err != nil {
		return
	}
	if err := s.writeFrame(conn, "init", snap, sorter); err != nil {
		return
	}
	last := snap.Version

	// The read loop only services control frames and notices disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if snap.Version <= last {
				continue
			}
			last = snap.Version
			if err := s.writeFrame(conn, "state", snap, sorter); err != nil {
				s.log.Debugf("websocket write: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, kind string, snap session.Snapshot, sorter view.Sorter) error {
	resp := buildResponse(snap, sorter)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(StreamMessage{Type: kind, Session: &resp})
}

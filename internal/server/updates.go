package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	updateBuffer = 64
	writeWait    = 10 * time.Second
)

// pingInterval is also how often a stream checks that its session still
// exists. Servers copy it when they are created.
var pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// streamUpdates upgrades the request to a WebSocket and sends every update
// of the session as an UpdateResponse text message. The stream ends when the
// client disconnects or the session is deleted. While a client is
// connected the session is kept from expiring.
func (s *Server) streamUpdates(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	// Subscribe before the handshake completes so that no update made after
	// the client connected is missed.
	updates, unsubscribe := sess.Subscribe(updateBuffer)
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "session", sess.ID, "err", err)
		return
	}
	defer conn.Close()

	// Clients only send control frames; reading is needed to process them
	// and to notice a closed connection.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.pingEvery)
	defer ping.Stop()
	s.logger.Debug("update stream opened", "session", sess.ID)
	defer s.logger.Debug("update stream closed", "session", sess.ID)

	for {
		select {
		case <-gone:
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(UpdateResponse{Update: upd, Info: sess.Info()}); err != nil {
				return
			}
		case <-ping.C:
			if _, err := s.reg.Get(sess.ID); err != nil {
				s.closeStream(conn, websocket.CloseGoingAway, "session deleted")
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) closeStream(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		s.logger.Debug("close frame not sent", "err", err)
	}
}

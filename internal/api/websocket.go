package api

import (
	"net/http"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/bryanchriswhite/VRPlayer/internal/player"
	"github.com/gorilla/websocket"
)

// wsMessage is the envelope for both directions on /ws.
type wsMessage struct {
	Type       string         `json:"type"`
	Key        string         `json:"key,omitempty"`
	Text       string         `json:"text,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	Status     *player.Status `json:"status,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// handleWebSocket pushes announcements to the client and feeds its key
// presses to the player.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	id, announcements := s.player.Overlay().Subscribe()
	defer s.player.Overlay().Unsubscribe(id)

	// Only this goroutine writes; the reader hands replies over.
	replies := make(chan wsMessage, 8)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Msg("WebSocket read error")
				}
				return
			}
			if reply, ok := s.handleMessage(msg); ok {
				select {
				case replies <- reply:
				default:
				}
			}
		}
	}()

	status := s.player.Status()
	if err := writeMessage(conn, wsMessage{Type: "status", Status: &status}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case reply := <-replies:
			if err := writeMessage(conn, reply); err != nil {
				return
			}
		case a, ok := <-announcements:
			if !ok {
				return
			}
			msg := wsMessage{
				Type:       "announcement",
				Text:       a.Text,
				DurationMS: a.Duration.Milliseconds(),
			}
			if err := writeMessage(conn, msg); err != nil {
				log.Debug().Err(err).Msg("WebSocket write error")
				return
			}
		}
	}
}

func (s *Server) handleMessage(msg wsMessage) (wsMessage, bool) {
	switch msg.Type {
	case "key":
		if err := s.player.HandleKey(msg.Key); err != nil {
			return wsMessage{Type: "error", Key: msg.Key, Error: err.Error()}, true
		}
		return wsMessage{}, false
	case "status":
		status := s.player.Status()
		return wsMessage{Type: "status", Status: &status}, true
	default:
		return wsMessage{Type: "error", Error: "unknown message type " + msg.Type}, true
	}
}

func writeMessage(conn *websocket.Conn, msg wsMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

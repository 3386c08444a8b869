package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/logger"
)

// upgrader performs the WebSocket handshake. Origins are not restricted
// because authentication happens per-connection via token.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsError is sent when a turn fails without closing the session.
type wsError struct {
	Error string `json:"error"`
}

// handleWebSocket runs a live chat session. The client authenticates
// with a token query parameter; failures close the socket with policy
// violation (1008) after the handshake. Each received text frame is one
// user utterance, answered with one {role, content, timestamp} frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chatID")
	token := r.URL.Query().Get("token")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	user, err := s.users.Authenticate(r.Context(), token)
	if err != nil {
		closePolicyViolation(conn, "invalid token")
		return
	}

	// Ownership check before any turn is accepted.
	if _, err := s.chats.GetChat(r.Context(), user.ID, chatID); err != nil {
		closePolicyViolation(conn, "unknown chat")
		return
	}

	logger.Debug("websocket session open: user=%s chat=%s", user.ID, chatID)

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		utterance := strings.TrimSpace(string(payload))
		reply, err := s.chats.SendMessage(r.Context(), user.ID, chatID, utterance)
		if err != nil {
			if writeErr := conn.WriteJSON(wsError{Error: turnErrorMessage(err)}); writeErr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(toMessageResponse(*reply)); err != nil {
			return
		}
	}
}

// closePolicyViolation sends close code 1008 and drops the connection.
func closePolicyViolation(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		logger.Debug("websocket close: %v", err)
	}
}

// turnErrorMessage maps a turn failure to a client-safe string.
func turnErrorMessage(err error) string {
	var pipelineErr *domain.PipelineError
	if errors.As(err, &pipelineErr) {
		return "pipeline failed at stage " + string(pipelineErr.Stage)
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return "message must not be empty"
	}
	logger.Warn("websocket turn failed: %v", err)
	return "internal error"
}

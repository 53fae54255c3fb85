package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/paydesk/internal/models"
)

const (
	wsReadLimit    = 64 << 10
	wsIdleTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// handleWS serves a chat session over one websocket. Each text frame is a
// MessageRequest; each answer is a MessageResponse or an ErrorResponse.
// The first reply fixes the conversation id for frames that omit it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conversation := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	s.logger.Debug("websocket connected", "conversation_id", conversation)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		var req models.MessageRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if !s.writeWS(conn, models.ErrorResponse{Error: err.Error(), Code: "invalid_request"}) {
				return
			}
			continue
		}
		if id := strings.TrimSpace(req.ConversationID); id != "" {
			conversation = id
		}
		if strings.TrimSpace(req.Message) == "" {
			if !s.writeWS(conn, models.ErrorResponse{Error: "message is required", Code: "invalid_request"}) {
				return
			}
			continue
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		reply, err := s.chat.HandleMessage(ctx, conversation, req.Message)
		cancel()

		var out any
		if err != nil {
			status, code := classify(err)
			if status >= http.StatusInternalServerError {
				s.logger.Error("websocket message failed", "conversation_id", conversation, "error", err)
			}
			out = models.ErrorResponse{Error: err.Error(), Code: code}
		} else {
			conversation = reply.ConversationID
			out = models.MessageResponse{
				ConversationID:   reply.ConversationID,
				Response:         reply.Response,
				PaymentReference: reply.PaymentReference,
			}
		}
		if !s.writeWS(conn, out) {
			return
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, v any) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		s.logger.Warn("websocket write failed", "error", err)
		return false
	}
	return true
}

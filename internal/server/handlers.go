package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/raphaelgruber/paydesk/internal/memory"
	"github.com/raphaelgruber/paydesk/internal/models"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
	maxBodyBytes       = 1 << 20
)

var errEmptyBody = errors.New("empty body")

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"memory_backend": s.backend,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondError(w, http.StatusNotFound, "stats_disabled", "metrics collection is disabled")
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req models.MessageRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	reply, err := s.chat.HandleMessage(r.Context(), strings.TrimSpace(req.ConversationID), req.Message)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.MessageResponse{
		ConversationID:   reply.ConversationID,
		Response:         reply.Response,
		PaymentReference: reply.PaymentReference,
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	history, err := s.chat.History(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.ConversationResponse{ConversationID: id, Messages: history})
}

// handleResetConversation succeeds for unknown conversations: clearing is
// idempotent and there is no registry of known ids.
func (s *Server) handleResetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	if err := s.chat.Reset(r.Context(), id); err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.ResetResponse{
		Status:  "success",
		Message: fmt.Sprintf("Conversation %s reset", id),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "query parameter q is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}

	results, err := s.chat.Search(r.Context(), id, query, limit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.SearchResponse{ConversationID: id, Query: query, Results: results})
}

func conversationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_conversation_id", "missing conversation id")
		return "", false
	}
	return id, true
}

// respondServiceError maps service errors to status codes.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error", "code", code, "error", err)
	}
	respondJSON(w, status, models.ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, memory.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, memory.ErrSearchUnsupported):
		return http.StatusNotImplemented, "search_unsupported"
	case errors.Is(err, memory.ErrStoreRead), errors.Is(err, memory.ErrStoreWrite):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message, Code: code})
}

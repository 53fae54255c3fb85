package server

import (
	_ "embed"
	"net/http"
)

// chatPage is a single-file browser client for the /ws endpoint.
//
//go:embed static/index.html
var chatPage []byte

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(chatPage); err != nil {
		s.logger.Debug("failed to write chat page", "error", err)
	}
}

// Package client provides an HTTP and websocket client for the paydesk server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/paydesk/internal/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// Client talks to the paydesk HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses PAYDESK_SERVER_URL env var or defaults to localhost:8484.
// Timeout can be configured via PAYDESK_CLIENT_TIMEOUT env var (default 2m, generation is slow).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("PAYDESK_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8484"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("PAYDESK_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request and decodes a JSON answer into result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var errBody models.ErrorResponse
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			apiErr.Code = errBody.Code
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// SendMessage posts a customer message. An empty conversationID starts a
// new conversation; its id is in the response.
func (c *Client) SendMessage(ctx context.Context, conversationID, message string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.do(ctx, http.MethodPost, "/message", models.MessageRequest{
		Message:        message,
		ConversationID: conversationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns the recent messages of a conversation, oldest first.
func (c *Client) History(ctx context.Context, conversationID string) ([]models.HistoryEntry, error) {
	var out models.ConversationResponse
	if err := c.do(ctx, http.MethodGet, "/conversation/"+url.PathEscape(conversationID), nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Reset deletes every message of a conversation.
func (c *Client) Reset(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/conversation/"+url.PathEscape(conversationID), nil, nil)
}

// Search returns the conversation messages most similar to query.
func (c *Client) Search(ctx context.Context, conversationID, query string, limit int) ([]models.ScoredMessage, error) {
	params := url.Values{"q": {query}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out models.SearchResponse
	path := "/conversation/" + url.PathEscape(conversationID) + "/search?" + params.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Health checks the server is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// =============================================================================
// WEBSOCKET CHAT
// =============================================================================

// ChatSession is a websocket chat bound to one conversation.
// Send must not be called concurrently.
type ChatSession struct {
	conn           *websocket.Conn
	conversationID string

	mu     sync.Mutex
	closed bool
}

// DialChat opens a websocket chat. An empty conversationID starts a new
// conversation on the first message.
func (c *Client) DialChat(ctx context.Context, conversationID string) (*ChatSession, error) {
	wsEndpoint := c.baseURL
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/ws")
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if conversationID != "" {
		u.RawQuery = url.Values{"conversation_id": {conversationID}}.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}
	return &ChatSession{conn: conn, conversationID: conversationID}, nil
}

// ConversationID returns the conversation the session is bound to, empty
// until the first reply of a new conversation.
func (s *ChatSession) ConversationID() string {
	return s.conversationID
}

// Send delivers one message and waits for the reply.
func (s *ChatSession) Send(ctx context.Context, message string) (*models.MessageResponse, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-done:
		}
	}()

	if err := s.conn.WriteJSON(models.MessageRequest{Message: message, ConversationID: s.conversationID}); err != nil {
		return nil, s.ctxErr(ctx, fmt.Errorf("send message: %w", err))
	}

	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, s.ctxErr(ctx, fmt.Errorf("read reply: %w", err))
	}

	var errBody models.ErrorResponse
	if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
		return nil, &APIError{Code: errBody.Code, Message: errBody.Error}
	}

	var reply models.MessageResponse
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}
	s.conversationID = reply.ConversationID
	return &reply, nil
}

// Close sends a close frame and closes the connection.
func (s *ChatSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *ChatSession) ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.Join(ctx.Err(), err)
	}
	return err
}

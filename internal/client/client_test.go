package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raphaelgruber/paydesk/internal/agent"
	"github.com/raphaelgruber/paydesk/internal/memory"
	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/raphaelgruber/paydesk/internal/payments"
	"github.com/raphaelgruber/paydesk/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedGenerator struct{ reply string }

func (g cannedGenerator) GenerateWithSystem(context.Context, string, string) (string, error) {
	return g.reply, nil
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	samples, err := payments.SamplePayments()
	require.NoError(t, err)

	chat := agent.NewService(agent.ServiceConfig{
		Store:     memory.NewInMemoryStore(),
		Payments:  payments.NewService(payments.NewMemorySource(samples...), nil, logger),
		Generator: cannedGenerator{reply: "Thanks for reaching out."},
		Logger:    logger,
	})
	ts := httptest.NewServer(server.New(server.Options{Chat: chat, Logger: logger}).Router())
	t.Cleanup(ts.Close)
	return New(ts.URL + "/")
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("PAYDESK_SERVER_URL", "")
	assert.Equal(t, "http://localhost:8484", New("").BaseURL())

	t.Setenv("PAYDESK_SERVER_URL", "http://support.internal:9000/")
	assert.Equal(t, "http://support.internal:9000", New("").BaseURL())
}

func TestConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	require.NoError(t, c.Health(ctx))

	reply, err := c.SendMessage(ctx, "", "My payment ID is PAY123456")
	require.NoError(t, err)
	require.NotEmpty(t, reply.ConversationID)
	assert.Equal(t, "Thanks for reaching out.", reply.Response)
	assert.Equal(t, "PAY123456", reply.PaymentReference)

	history, err := c.History(ctx, reply.ConversationID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)

	results, err := c.Search(ctx, reply.ConversationID, "payment", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	require.NoError(t, c.Reset(ctx, reply.ConversationID))
	history, err = c.History(ctx, reply.ConversationID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t)

	_, err := c.SendMessage(context.Background(), "", "  ")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_request", apiErr.Code)
}

func TestChatSession(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	session, err := c.DialChat(ctx, "")
	require.NoError(t, err)
	defer session.Close()
	assert.Empty(t, session.ConversationID())

	reply, err := session.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, reply.ConversationID, session.ConversationID())

	_, err = session.Send(ctx, "and again")
	require.NoError(t, err)

	history, err := c.History(ctx, session.ConversationID())
	require.NoError(t, err)
	assert.Len(t, history, 4)

	_, err = session.Send(ctx, "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid_request", apiErr.Code)

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raphaelgruber/paydesk/internal/agent"
	"github.com/raphaelgruber/paydesk/internal/memory"
	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/raphaelgruber/paydesk/internal/payments"
	"github.com/raphaelgruber/paydesk/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend answers every message with an echo and records calls.
type scriptedBackend struct {
	conversationID string
	sent           []string
	resets         int
	sendErr        error
}

func (b *scriptedBackend) Send(_ context.Context, message string) (*models.MessageResponse, error) {
	if b.sendErr != nil {
		return nil, b.sendErr
	}
	b.sent = append(b.sent, message)
	if b.conversationID == "" {
		b.conversationID = "conv-1"
	}
	return &models.MessageResponse{ConversationID: b.conversationID, Response: "echo: " + message}, nil
}

func (b *scriptedBackend) ConversationID() string { return b.conversationID }

func (b *scriptedBackend) Reset(context.Context) error {
	b.resets++
	b.conversationID = ""
	return nil
}

func TestChatLoop(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantSent   []string
		wantResets int
		wantOut    []string
	}{
		{
			name:     "messages until exit",
			input:    "hello\nwhere is PAY123456\nexit\nnever sent\n",
			wantSent: []string{"hello", "where is PAY123456"},
			wantOut:  []string{"echo: hello", "echo: where is PAY123456", "Goodbye!"},
		},
		{
			name:     "blank lines are skipped",
			input:    "\n   \nhi\n",
			wantSent: []string{"hi"},
			wantOut:  []string{"echo: hi"},
		},
		{
			name:    "reset without conversation",
			input:   "reset\nexit\n",
			wantOut: []string{"No active conversation to reset."},
		},
		{
			name:       "reset after a message",
			input:      "hi\nRESET\nexit\n",
			wantSent:   []string{"hi"},
			wantResets: 1,
			wantOut:    []string{"Conversation reset."},
		},
		{
			name:     "end of input stops the loop",
			input:    "one",
			wantSent: []string{"one"},
			wantOut:  []string{"echo: one"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &scriptedBackend{}
			var out bytes.Buffer

			err := chatLoop(context.Background(), strings.NewReader(tt.input), &out, backend, false)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSent, backend.sent)
			assert.Equal(t, tt.wantResets, backend.resets)
			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
			assert.NotContains(t, out.String(), "You: ", "no prompt without a terminal")
		})
	}
}

func TestChatLoopKeepsGoingAfterErrors(t *testing.T) {
	backend := &scriptedBackend{sendErr: errors.New("server unavailable")}
	var out bytes.Buffer

	err := chatLoop(context.Background(), strings.NewReader("hi\nexit\n"), &out, backend, false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "server unavailable")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestChatLoopInteractivePrompt(t *testing.T) {
	var out bytes.Buffer
	err := chatLoop(context.Background(), strings.NewReader("exit\n"), &out, &scriptedBackend{}, true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "You: ")
	assert.Contains(t, out.String(), "Type 'reset'")
}

type cannedGenerator struct{}

func (cannedGenerator) GenerateWithSystem(_ context.Context, _, prompt string) (string, error) {
	if strings.Contains(prompt, "Payment Information:") {
		return "I found your payment.", nil
	}
	return "How can I help?", nil
}

func startServer(t *testing.T) (string, *agent.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	samples, err := payments.SamplePayments()
	require.NoError(t, err)

	chat := agent.NewService(agent.ServiceConfig{
		Store:     memory.NewInMemoryStore(),
		Payments:  payments.NewService(payments.NewMemorySource(samples...), nil, logger),
		Generator: cannedGenerator{},
		Logger:    logger,
	})
	ts := httptest.NewServer(server.New(server.Options{Chat: chat, Backend: "memory", Logger: logger}).Router())
	t.Cleanup(ts.Close)
	return ts.URL, chat
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	chatConversation, chatWebSocket = "", false
	historyJSON, searchLimit, verbose, serverURL = false, 5, false, ""

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestChatCommand(t *testing.T) {
	for _, mode := range []string{"rest", "ws"} {
		t.Run(mode, func(t *testing.T) {
			url, chat := startServer(t)
			args := []string{"chat", "--server", url, "--conversation", "conv-cli"}
			if mode == "ws" {
				args = append(args, "--ws")
			}

			out, err := execute(t, "My payment ID is PAY123456\nthanks\nexit\n", args...)
			require.NoError(t, err)
			assert.Contains(t, out, "I found your payment.")
			assert.Contains(t, out, "How can I help?")

			history, err := chat.History(context.Background(), "conv-cli")
			require.NoError(t, err)
			require.Len(t, history, 4)
			assert.Equal(t, "My payment ID is PAY123456", history[0].Content)
		})
	}
}

func TestChatCommandResetStartsOver(t *testing.T) {
	url, chat := startServer(t)

	_, err := execute(t, "hello\nreset\nexit\n", "chat", "--server", url, "--conversation", "conv-reset", "--ws")
	require.NoError(t, err)

	history, err := chat.History(context.Background(), "conv-reset")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatCommandUnreachableServer(t *testing.T) {
	_, err := execute(t, "", "chat", "--server", "http://127.0.0.1:1")
	assert.ErrorContains(t, err, "not reachable")
}

func TestHistoryAndResetCommands(t *testing.T) {
	url, chat := startServer(t)
	ctx := context.Background()

	_, err := chat.HandleMessage(ctx, "conv-h", "Where is PAY789012?")
	require.NoError(t, err)

	out, err := execute(t, "", "history", "conv-h", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Customer: Where is PAY789012?")
	assert.Contains(t, out, "Support Agent: I found your payment.")

	out, err = execute(t, "", "history", "conv-h", "--json", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, `"role": "user"`)

	out, err = execute(t, "", "reset", "conv-h", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation conv-h reset.")

	out, err = execute(t, "", "history", "conv-h", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "No messages in this conversation.")

	_, err = execute(t, "", "reset", "never-existed", "--server", url)
	assert.NoError(t, err)
}

func TestSearchCommand(t *testing.T) {
	url, chat := startServer(t)
	_, err := chat.HandleMessage(context.Background(), "conv-s", "refund for PAY345678")
	require.NoError(t, err)

	out, err := execute(t, "", "search", "conv-s", "refund", "--limit", "1", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, "1. [")
	assert.NotContains(t, out, "2. [")
}

func TestSeedCommandMemoryBackend(t *testing.T) {
	t.Setenv("PAYDESK_MEMORY_BACKEND", "memory")
	out, err := execute(t, "", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 3 sample payments into memory.")
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/paydesk/internal/client"
	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	chatConversation string
	chatWebSocket    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive support chat",
	Long: `Start an interactive support chat with the paydesk server.

Mention a payment reference such as PAY123456 and the agent answers with
the payment's details in mind. Type 'reset' to forget the conversation and
'exit' to quit.

Examples:
  paydesk chat
  paydesk chat --conversation 7c9e6679-7425-40de-944b-e07fc1f90ae7
  paydesk chat --ws`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatConversation, "conversation", "c", "", "resume an existing conversation")
	chatCmd.Flags().BoolVar(&chatWebSocket, "ws", false, "chat over a websocket instead of one request per message")
}

// chatBackend sends one customer message and remembers the conversation it
// belongs to.
type chatBackend interface {
	Send(ctx context.Context, message string) (*models.MessageResponse, error)
	ConversationID() string
	Reset(ctx context.Context) error
}

// restChat posts each message separately and carries the conversation id
// between calls.
type restChat struct {
	api            *client.Client
	conversationID string
}

func (r *restChat) Send(ctx context.Context, message string) (*models.MessageResponse, error) {
	reply, err := r.api.SendMessage(ctx, r.conversationID, message)
	if err != nil {
		return nil, err
	}
	r.conversationID = reply.ConversationID
	return reply, nil
}

func (r *restChat) ConversationID() string { return r.conversationID }

func (r *restChat) Reset(ctx context.Context) error {
	if err := r.api.Reset(ctx, r.conversationID); err != nil {
		return err
	}
	r.conversationID = ""
	return nil
}

// wsChat sends messages over a websocket session. Reset goes through the
// REST endpoint and the next message starts a fresh session.
type wsChat struct {
	api     *client.Client
	session *client.ChatSession
	resetID string
}

func (w *wsChat) Send(ctx context.Context, message string) (*models.MessageResponse, error) {
	if w.session == nil {
		s, err := w.api.DialChat(ctx, w.resetID)
		if err != nil {
			return nil, err
		}
		w.session = s
	}
	return w.session.Send(ctx, message)
}

func (w *wsChat) ConversationID() string {
	if w.session == nil {
		return w.resetID
	}
	return w.session.ConversationID()
}

func (w *wsChat) Reset(ctx context.Context) error {
	if err := w.api.Reset(ctx, w.ConversationID()); err != nil {
		return err
	}
	w.close()
	w.resetID = ""
	return nil
}

func (w *wsChat) close() {
	if w.session != nil {
		_ = w.session.Close()
		w.session = nil
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := apiClient.Health(ctx); err != nil {
		return fmt.Errorf("server %s is not reachable: %w", apiClient.BaseURL(), err)
	}

	var backend chatBackend
	if chatWebSocket {
		ws := &wsChat{api: apiClient, resetID: chatConversation}
		defer ws.close()
		backend = ws
	} else {
		backend = &restChat{api: apiClient, conversationID: chatConversation}
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), backend, interactive)
}

// chatLoop reads one message per line until 'exit' or end of input. Server
// errors are printed and the loop keeps going.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, backend chatBackend, interactive bool) error {
	theme := defaultTheme
	if interactive {
		fmt.Fprintln(out, theme.hintStyle().Render("Customer support chat. Type 'reset' to start over, 'exit' to quit."))
		fmt.Fprintln(out)
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, theme.customerStyle().Render("You: "))
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "reset":
			if backend.ConversationID() == "" {
				fmt.Fprintln(out, theme.hintStyle().Render("No active conversation to reset."))
				continue
			}
			if err := backend.Reset(ctx); err != nil {
				fmt.Fprintln(out, theme.errorStyle().Render("Error: "+err.Error()))
				continue
			}
			fmt.Fprintln(out, theme.successStyle().Render("Conversation reset."))
			continue
		}

		reply, err := backend.Send(ctx, line)
		if err != nil {
			fmt.Fprintln(out, theme.errorStyle().Render("Error: "+err.Error()))
			continue
		}
		fmt.Fprintf(out, "%s %s\n", theme.agentStyle().Render("Agent:"), reply.Response)
		if verbose && reply.PaymentReference != "" {
			fmt.Fprintln(out, theme.hintStyle().Render("payment "+reply.PaymentReference))
		}
		if interactive {
			fmt.Fprintln(out)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

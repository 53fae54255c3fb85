// Package agent answers customer messages: it resolves payment references,
// recalls the conversation, asks the language model for a reply and
// records the exchange.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/paydesk/internal/memory"
	"github.com/raphaelgruber/paydesk/internal/models"
	"github.com/raphaelgruber/paydesk/internal/payments"
)

// FallbackReply is sent, and stored, when the language model fails.
const FallbackReply = "I'm having trouble processing your request right now. Could you try again?"

var errEmptyReply = errors.New("model returned an empty reply")

// PaymentLookup resolves a payment reference. nil, nil means unknown.
type PaymentLookup interface {
	Lookup(ctx context.Context, reference string) (*models.Payment, error)
}

// Generator produces the reply text.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Reply is the outcome of one handled message.
type Reply struct {
	ConversationID   string
	Response         string
	PaymentReference string
	PaymentFound     bool
	Fallback         bool
}

// Agent handles the messages of a single conversation. It is cheap to
// build and holds nothing beyond its collaborators.
type Agent struct {
	conv         *memory.Conversation
	payments     PaymentLookup
	generator    Generator
	systemPrompt string
	logger       *slog.Logger
}

// New creates an agent for conv.
func New(conv *memory.Conversation, lookup PaymentLookup, gen Generator, systemPrompt string, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		conv:         conv,
		payments:     lookup,
		generator:    gen,
		systemPrompt: systemPrompt,
		logger:       logger.With("conversation_id", conv.ID()),
	}
}

// HandleMessage answers message and appends the user message and the reply
// to the conversation, in that order. Store failures are returned; lookup
// and generation failures are not.
func (a *Agent) HandleMessage(ctx context.Context, message string) (Reply, error) {
	start := time.Now()
	reply := Reply{ConversationID: a.conv.ID()}

	if strings.TrimSpace(message) == "" {
		return reply, fmt.Errorf("%w: message is required", memory.ErrInvalidArgument)
	}

	var payment *models.Payment
	if ref, ok := payments.ExtractReference(message); ok {
		reply.PaymentReference = ref
		p, err := a.payments.Lookup(ctx, ref)
		if err != nil {
			a.logger.Warn("payment lookup failed, continuing without it", "reference", ref, "error", err)
		} else {
			payment = p
		}
		reply.PaymentFound = payment != nil
	}

	history, err := a.conv.FormatForPrompt(ctx)
	if err != nil {
		return reply, err
	}

	prompt := BuildPrompt(history, payment, message)
	response, err := a.generator.GenerateWithSystem(ctx, a.systemPrompt, prompt)
	if err == nil && strings.TrimSpace(response) == "" {
		err = errEmptyReply
	}
	if err != nil {
		a.logger.Error("generation failed, sending fallback reply", "error", err)
		response = FallbackReply
		reply.Fallback = true
	}
	reply.Response = response

	if _, err := a.conv.AddMessage(ctx, models.RoleUser, message); err != nil {
		return reply, err
	}
	if _, err := a.conv.AddMessage(ctx, models.RoleAssistant, response); err != nil {
		return reply, err
	}

	a.logger.Info("message handled",
		"payment_reference", reply.PaymentReference,
		"payment_found", reply.PaymentFound,
		"fallback", reply.Fallback,
		"duration_ms", time.Since(start).Milliseconds())
	return reply, nil
}

// Reset clears the conversation.
func (a *Agent) Reset(ctx context.Context) error {
	return a.conv.Clear(ctx)
}

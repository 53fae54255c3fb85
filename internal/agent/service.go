package agent

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/paydesk/internal/memory"
	"github.com/raphaelgruber/paydesk/internal/models"
)

// Service builds an Agent per request from shared collaborators. No
// per-conversation state survives the request.
type Service struct {
	store        memory.Store
	payments     PaymentLookup
	generator    Generator
	systemPrompt string
	maxItems     int
	logger       *slog.Logger
}

// ServiceConfig carries the collaborators of a Service.
type ServiceConfig struct {
	Store        memory.Store
	Payments     PaymentLookup
	Generator    Generator
	SystemPrompt string
	MaxItems     int
	Logger       *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = memory.DefaultMaxItems
	}
	return &Service{
		store:        cfg.Store,
		payments:     cfg.Payments,
		generator:    cfg.Generator,
		systemPrompt: cfg.SystemPrompt,
		maxItems:     maxItems,
		logger:       logger,
	}
}

// Conversation opens conversation id. An empty id starts a new one.
func (s *Service) Conversation(id string) *memory.Conversation {
	return memory.NewConversation(s.store, id,
		memory.WithMaxItems(s.maxItems),
		memory.WithLogger(s.logger),
	)
}

// Agent returns an agent bound to conversation id.
func (s *Service) Agent(id string) *Agent {
	return New(s.Conversation(id), s.payments, s.generator, s.systemPrompt, s.logger)
}

// HandleMessage answers message within conversation id, starting a new
// conversation when id is empty.
func (s *Service) HandleMessage(ctx context.Context, id, message string) (Reply, error) {
	return s.Agent(id).HandleMessage(ctx, message)
}

// History returns the recent messages of conversation id, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]models.HistoryEntry, error) {
	return s.Conversation(id).History(ctx)
}

// Reset deletes every message of conversation id.
func (s *Service) Reset(ctx context.Context, id string) error {
	return s.Conversation(id).Clear(ctx)
}

// Search returns the messages of conversation id closest to query.
func (s *Service) Search(ctx context.Context, id, query string, limit int) ([]models.ScoredMessage, error) {
	return s.Conversation(id).Search(ctx, query, limit)
}

package history

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"supportpilot/internal/model"
)

type windowCache interface {
	GetWindow(ctx context.Context, conversationID uint) ([]model.Message, bool, error)
	SetWindow(ctx context.Context, conversationID uint, messages []model.Message) error
	DeleteWindow(ctx context.Context, conversationID uint) error
	MarkDirty(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
}

type messageReader interface {
	ListRecentByConversationID(conversationID uint, limit int) ([]model.Message, error)
}

// Manager serves the trimmed conversation window for generation. Cache
// faults and a set dirty marker both fall through to the database, so a
// cache outage degrades latency only.
type Manager struct {
	cache      windowCache
	messages   messageReader
	maxTurns   int
	charBudget int
	logger     *zap.Logger
}

func NewManager(cache windowCache, messages messageReader, maxTurns, charBudget int, logger *zap.Logger) *Manager {
	return &Manager{
		cache:      cache,
		messages:   messages,
		maxTurns:   maxTurns,
		charBudget: charBudget,
		logger:     logger,
	}
}

// Window returns the recent messages of a conversation, oldest first,
// trimmed to the turn and character budgets.
func (m *Manager) Window(ctx context.Context, conversationID uint) ([]model.Message, error) {
	dirty, err := m.cache.IsDirty(ctx, conversationID)
	if err != nil {
		m.logger.Warn("history dirty check failed, falling back to database",
			zap.Uint("conversation_id", conversationID), zap.Error(err))
		dirty = true
	}

	if !dirty {
		cached, ok, err := m.cache.GetWindow(ctx, conversationID)
		if err != nil {
			m.logger.Warn("history cache read failed, falling back to database",
				zap.Uint("conversation_id", conversationID), zap.Error(err))
		} else if ok {
			return Trim(cached, m.maxTurns, m.charBudget), nil
		}
	}

	// Fetch roughly two rows per turn plus slack for the budget trim.
	limit := m.maxTurns*2 + 4
	recent, err := m.messages.ListRecentByConversationID(conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("load conversation history failed: %w", err)
	}
	window := Trim(recent, m.maxTurns, m.charBudget)

	if err := m.cache.SetWindow(ctx, conversationID, window); err != nil {
		m.logger.Warn("history cache write failed",
			zap.Uint("conversation_id", conversationID), zap.Error(err))
	}
	return window, nil
}

// Invalidate drops a conversation's cached window after a write. The
// dirty marker covers the gap between the delete and an in-flight read
// repopulating the cache with pre-write rows.
func (m *Manager) Invalidate(ctx context.Context, conversationID uint) {
	if err := m.cache.MarkDirty(ctx, conversationID); err != nil {
		m.logger.Warn("history dirty marker write failed",
			zap.Uint("conversation_id", conversationID), zap.Error(err))
	}
	if err := m.cache.DeleteWindow(ctx, conversationID); err != nil {
		m.logger.Warn("history cache delete failed",
			zap.Uint("conversation_id", conversationID), zap.Error(err))
	}
}

package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"supportpilot/internal/engine"
	"supportpilot/internal/model"
	"supportpilot/internal/repository"
	"supportpilot/internal/worker"
)

type HistoryProvider interface {
	Window(ctx context.Context, conversationID uint) ([]model.Message, error)
	Invalidate(ctx context.Context, conversationID uint)
}

type AnswerEngine interface {
	Answer(ctx context.Context, tenantID uint, question string, window []model.Message) (*engine.Result, error)
}

type ConversationService struct {
	convRepo    *repository.ConversationRepository
	messageRepo *repository.MessageRepository
	history     HistoryProvider
	engine      AnswerEngine
	classifyQ   EventPublisher
	logger      *zap.Logger
}

func NewConversationService(
	convRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	history HistoryProvider,
	answerEngine AnswerEngine,
	classifyQ EventPublisher,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		history:     history,
		engine:      answerEngine,
		classifyQ:   classifyQ,
		logger:      logger,
	}
}

type ProcessMessageInput struct {
	TenantID     uint
	CustomerKey  string
	CustomerName string
	Content      string
}

type ProcessMessageResult struct {
	ConversationID uint   `json:"conversation_id"`
	Answer         string `json:"answer"`
	LowConfidence  bool   `json:"low_confidence"`
	FallbackUsed   bool   `json:"fallback_used"`
}

// ProcessMessage runs the full inbound flow: persist the customer
// message, generate a grounded reply from the tenant's knowledge base
// and recent history, enqueue classification, and persist the reply.
// Classification runs async so it never delays the answer.
func (s *ConversationService) ProcessMessage(ctx context.Context, input ProcessMessageInput) (*ProcessMessageResult, error) {
	if input.TenantID == 0 || strings.TrimSpace(input.CustomerKey) == "" {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	conv, err := s.convRepo.FindOrCreate(input.TenantID, strings.TrimSpace(input.CustomerKey), strings.TrimSpace(input.CustomerName))
	if err != nil {
		return nil, err
	}

	window, err := s.history.Window(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	customerMsg := &model.Message{
		ConversationID: conv.ID,
		TenantID:       input.TenantID,
		Role:           model.RoleCustomer,
		Content:        content,
	}
	if err := s.messageRepo.Create(customerMsg); err != nil {
		return nil, err
	}

	var result *engine.Result
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var answerErr error
		result, answerErr = s.engine.Answer(groupCtx, input.TenantID, content, window)
		return answerErr
	})
	group.Go(func() error {
		// Enqueue failure leaves the message uncategorized; the gap
		// runner and recategorization sweep will pick it up later.
		task := worker.ClassifyTask{
			MessageID: customerMsg.ID,
			TenantID:  input.TenantID,
			Content:   content,
		}
		if err := s.classifyQ.Publish(groupCtx, task); err != nil {
			s.logger.Warn("enqueue classify task failed",
				zap.Uint("message_id", customerMsg.ID), zap.Error(err))
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	agentMsg := &model.Message{
		ConversationID: conv.ID,
		TenantID:       input.TenantID,
		Role:           model.RoleAgent,
		Content:        result.Answer,
		LowConfidence:  result.LowConfidence,
	}
	if err := s.messageRepo.Create(agentMsg); err != nil {
		return nil, err
	}

	if err := s.convRepo.TouchLastInteraction(conv.ID, time.Now()); err != nil {
		s.logger.Warn("touch conversation failed",
			zap.Uint("conversation_id", conv.ID), zap.Error(err))
	}
	s.history.Invalidate(ctx, conv.ID)

	return &ProcessMessageResult{
		ConversationID: conv.ID,
		Answer:         result.Answer,
		LowConfidence:  result.LowConfidence,
		FallbackUsed:   result.FallbackUsed,
	}, nil
}

func (s *ConversationService) List(tenantID uint) ([]model.Conversation, error) {
	if tenantID == 0 {
		return nil, ErrInvalidInput
	}
	return s.convRepo.ListByTenantID(tenantID)
}

// GetMessages returns the full transcript of one conversation.
func (s *ConversationService) GetMessages(tenantID, conversationID uint) ([]model.Message, error) {
	if tenantID == 0 || conversationID == 0 {
		return nil, ErrInvalidInput
	}
	conv, err := s.convRepo.GetByIDAndTenantID(conversationID, tenantID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return s.messageRepo.ListByConversationID(conversationID)
}

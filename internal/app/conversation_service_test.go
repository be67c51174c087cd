package app

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"supportpilot/internal/engine"
	"supportpilot/internal/model"
	"supportpilot/internal/repository"
	"supportpilot/internal/worker"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Tenant{}, &model.Category{}, &model.Conversation{}, &model.Message{},
	))
	return db
}

type fakeHistory struct {
	window      []model.Message
	invalidated []uint
}

func (f *fakeHistory) Window(ctx context.Context, conversationID uint) ([]model.Message, error) {
	return f.window, nil
}

func (f *fakeHistory) Invalidate(ctx context.Context, conversationID uint) {
	f.invalidated = append(f.invalidated, conversationID)
}

type fakeEngine struct {
	result engine.Result
	window []model.Message
}

func (f *fakeEngine) Answer(ctx context.Context, tenantID uint, question string, window []model.Message) (*engine.Result, error) {
	f.window = window
	result := f.result
	return &result, nil
}

type fakePublisher struct {
	payloads []any
	fail     bool
}

func (f *fakePublisher) Publish(ctx context.Context, payload any) error {
	if f.fail {
		return assert.AnError
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func newConversationService(t *testing.T, db *gorm.DB, eng *fakeEngine, pub *fakePublisher, hist *fakeHistory) *ConversationService {
	t.Helper()
	return NewConversationService(
		repository.NewConversationRepository(db),
		repository.NewMessageRepository(db),
		hist, eng, pub, zap.NewNop(),
	)
}

func TestProcessMessagePersistsTurnAndEnqueuesClassification(t *testing.T) {
	db := newTestDB(t)
	eng := &fakeEngine{result: engine.Result{Answer: "We are open 9am-5pm."}}
	pub := &fakePublisher{}
	hist := &fakeHistory{}
	svc := newConversationService(t, db, eng, pub, hist)

	result, err := svc.ProcessMessage(context.Background(), ProcessMessageInput{
		TenantID:     1,
		CustomerKey:  "cust-42",
		CustomerName: "Jamie",
		Content:      "What are your hours?",
	})
	require.NoError(t, err)
	assert.Equal(t, "We are open 9am-5pm.", result.Answer)
	assert.False(t, result.LowConfidence)

	messages, err := svc.GetMessages(1, result.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleCustomer, messages[0].Role)
	assert.Equal(t, "What are your hours?", messages[0].Content)
	assert.Nil(t, messages[0].Category)
	assert.Equal(t, model.RoleAgent, messages[1].Role)

	require.Len(t, pub.payloads, 1)
	task, ok := pub.payloads[0].(worker.ClassifyTask)
	require.True(t, ok)
	assert.Equal(t, messages[0].ID, task.MessageID)
	assert.Equal(t, uint(1), task.TenantID)

	assert.Equal(t, []uint{result.ConversationID}, hist.invalidated)
}

func TestProcessMessageReusesConversationPerCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := newConversationService(t, db, &fakeEngine{result: engine.Result{Answer: "ok"}}, &fakePublisher{}, &fakeHistory{})

	first, err := svc.ProcessMessage(context.Background(), ProcessMessageInput{
		TenantID: 1, CustomerKey: "cust-42", Content: "first question",
	})
	require.NoError(t, err)
	second, err := svc.ProcessMessage(context.Background(), ProcessMessageInput{
		TenantID: 1, CustomerKey: "cust-42", Content: "second question",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)

	other, err := svc.ProcessMessage(context.Background(), ProcessMessageInput{
		TenantID: 1, CustomerKey: "cust-7", Content: "different customer",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ConversationID, other.ConversationID)
}

func TestProcessMessageFallbackMarksAgentTurn(t *testing.T) {
	db := newTestDB(t)
	eng := &fakeEngine{result: engine.Result{
		Answer:        "I could not find that in our documentation.",
		LowConfidence: true,
		FallbackUsed:  true,
	}}
	svc := newConversationService(t, db, eng, &fakePublisher{}, &fakeHistory{})

	result, err := svc.ProcessMessage(context.Background(), ProcessMessageInput{
		TenantID: 1, CustomerKey: "cust-42", Content: "Do you sell blue widgets?",
	})
	require.NoError(t, err)
	assert.True(t, result.LowConfidence)
	assert.True(t, result.FallbackUsed)

	messages, err := svc.GetMessages(1, result.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[1].LowConfidence)
}

func TestProcessMessageSurvivesEnqueueFailure(t *testing.T) {
	db := newTestDB(t)
	svc := newConversationService(t, db, &fakeEngine{result: engine.Result{Answer: "ok"}},
		&fakePublisher{fail: true}, &fakeHistory{})

	result, err := svc.ProcessMessage(context.Background(), ProcessMessageInput{
		TenantID: 1, CustomerKey: "cust-42", Content: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Answer)
}

func TestProcessMessageValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newConversationService(t, db, &fakeEngine{}, &fakePublisher{}, &fakeHistory{})

	_, err := svc.ProcessMessage(context.Background(), ProcessMessageInput{
		TenantID: 1, CustomerKey: "cust-42", Content: "   ",
	})
	assert.ErrorIs(t, err, ErrMessageEmpty)

	_, err = svc.ProcessMessage(context.Background(), ProcessMessageInput{
		TenantID: 0, CustomerKey: "cust-42", Content: "hi",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetMessagesIsTenantScoped(t *testing.T) {
	db := newTestDB(t)
	svc := newConversationService(t, db, &fakeEngine{result: engine.Result{Answer: "ok"}}, &fakePublisher{}, &fakeHistory{})

	result, err := svc.ProcessMessage(context.Background(), ProcessMessageInput{
		TenantID: 1, CustomerKey: "cust-42", Content: "hi",
	})
	require.NoError(t, err)

	_, err = svc.GetMessages(2, result.ConversationID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"supportpilot/internal/classifier"
	"supportpilot/internal/model"
)

// ClassifyTask asks the worker to tag one customer message. Content is
// carried in the payload so the worker avoids a read in the common case
// but the message row is still loaded for its current version.
type ClassifyTask struct {
	MessageID uint   `json:"message_id"`
	TenantID  uint   `json:"tenant_id"`
	Content   string `json:"content"`
}

type classifyMessageStore interface {
	GetByID(id uint) (*model.Message, error)
	UpdateClassification(id, expectedVersion uint, category *string, sentiment *float64, lowConfidence bool) (bool, error)
}

// ClassifyWorker consumes classification tasks so tagging never adds
// latency to the customer-facing reply.
type ClassifyWorker struct {
	conn       *amqp.Connection
	messages   classifyMessageStore
	classifier *classifier.Classifier
	queueName  string
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewClassifyWorker(conn *amqp.Connection, messages classifyMessageStore, c *classifier.Classifier, queueName string, logger *zap.Logger) *ClassifyWorker {
	return &ClassifyWorker{
		conn:       conn,
		messages:   messages,
		classifier: c,
		queueName:  queueName,
		logger:     logger,
	}
}

func (w *ClassifyWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(w.queueName, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *ClassifyWorker) handle(ctx context.Context, d amqp.Delivery) {
	var task ClassifyTask
	if err := json.Unmarshal(d.Body, &task); err != nil {
		w.logger.Error("decode classify task failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	msg, err := w.messages.GetByID(task.MessageID)
	if err != nil {
		w.logger.Error("load message for classification failed",
			zap.Uint("message_id", task.MessageID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	if msg == nil {
		// Conversation was deleted before the task ran.
		_ = d.Ack(false)
		return
	}

	tag, err := w.classifier.Classify(ctx, task.TenantID, task.Content)
	if err != nil {
		w.logger.Error("classification failed",
			zap.Uint("message_id", task.MessageID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}

	updated, err := w.messages.UpdateClassification(msg.ID, msg.Version, tag.Category, tag.Sentiment, tag.LowConfidence)
	if err != nil {
		w.logger.Error("write classification failed",
			zap.Uint("message_id", task.MessageID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	if !updated {
		// A recategorization run got there first; its tag is newer.
		w.logger.Debug("classification write skipped, version moved",
			zap.Uint("message_id", task.MessageID))
	}
	_ = d.Ack(false)
}

func (w *ClassifyWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"supportpilot/internal/recat"
)

// CategoryChangeEvent is published when a tenant's active category set
// changes. It triggers a full recategorization run for that tenant.
type CategoryChangeEvent struct {
	TenantID   uint   `json:"tenant_id"`
	CategoryID uint   `json:"category_id"`
	Change     string `json:"change"`
}

// RecatWorker consumes category change events and runs the
// recategorization job. Events are acked even when a run fails part
// way: the job's database filter makes the next event resume the
// remainder, so redelivery would only duplicate work.
type RecatWorker struct {
	conn      *amqp.Connection
	job       *recat.Job
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRecatWorker(conn *amqp.Connection, job *recat.Job, queueName string, logger *zap.Logger) *RecatWorker {
	return &RecatWorker{
		conn:      conn,
		job:       job,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *RecatWorker) Start(ctx context.Context) error {
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

func (w *RecatWorker) handle(ctx context.Context, d amqp.Delivery) {
	var event CategoryChangeEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.logger.Error("decode category change event failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	report, err := w.job.Run(ctx, event.TenantID)
	switch {
	case errors.Is(err, recat.ErrJobInterrupted):
		w.logger.Warn("recategorization run interrupted",
			zap.Uint("tenant_id", event.TenantID),
			zap.String("run_id", report.RunID),
			zap.Int("updated", report.Updated))
	case err != nil:
		w.logger.Error("recategorization run failed",
			zap.Uint("tenant_id", event.TenantID), zap.Error(err))
	default:
		w.logger.Info("recategorization run complete",
			zap.Uint("tenant_id", event.TenantID),
			zap.String("run_id", report.RunID),
			zap.Int("scanned", report.Scanned),
			zap.Int("updated", report.Updated),
			zap.Int("conflicts", report.Conflicts))
	}
	_ = d.Ack(false)
}

func (w *RecatWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

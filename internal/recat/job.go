// Package recat rewrites stale message categories after the active
// category set changes. A run snapshots the set and the tenant's
// category version at start; messages are retagged against that
// snapshot with optimistic writes, so a run racing live classification
// never clobbers a newer tag.
package recat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"supportpilot/internal/classifier"
	"supportpilot/internal/model"
)

// ErrJobInterrupted reports a run stopped by context cancellation. The
// accompanying report covers the batches that completed; the next run
// picks up the remainder via the database filter.
var ErrJobInterrupted = errors.New("recategorization run interrupted")

type messageSource interface {
	ListNeedingRecategorization(tenantID uint, activeNames []string, afterID uint, limit int) ([]model.Message, error)
	UpdateClassification(id, expectedVersion uint, category *string, sentiment *float64, lowConfidence bool) (bool, error)
}

type categorySource interface {
	ListActiveByTenantID(tenantID uint) ([]model.Category, error)
}

type tenantSource interface {
	GetByID(id uint) (*model.Tenant, error)
}

type tagSource interface {
	ClassifyAgainst(ctx context.Context, tenantID uint, text string, active []model.Category) (classifier.Tag, error)
}

// Report summarizes one run. Conflicts counts optimistic writes lost to
// a concurrent tagger; those messages keep the newer tag.
type Report struct {
	RunID      string `json:"run_id"`
	TenantID   uint   `json:"tenant_id"`
	SetVersion uint   `json:"set_version"`
	Scanned    int    `json:"scanned"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	Conflicts  int    `json:"conflicts"`
}

type Job struct {
	tenants     tenantSource
	categories  categorySource
	messages    messageSource
	tagger      tagSource
	batchSize   int
	parallelism int
	logger      *zap.Logger
}

func NewJob(tenants tenantSource, categories categorySource, messages messageSource, tagger tagSource, batchSize, parallelism int, logger *zap.Logger) *Job {
	if batchSize <= 0 {
		batchSize = 100
	}
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Job{
		tenants:     tenants,
		categories:  categories,
		messages:    messages,
		tagger:      tagger,
		batchSize:   batchSize,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Run retags every customer message of a tenant whose category is
// missing or no longer active. Safe to rerun: already consistent
// messages are filtered out at the database.
func (j *Job) Run(ctx context.Context, tenantID uint) (*Report, error) {
	tenant, err := j.tenants.GetByID(tenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant failed: %w", err)
	}
	if tenant == nil {
		return nil, fmt.Errorf("tenant %d not found", tenantID)
	}

	active, err := j.categories.ListActiveByTenantID(tenantID)
	if err != nil {
		return nil, fmt.Errorf("snapshot active categories failed: %w", err)
	}
	activeNames := make([]string, len(active))
	for i, cat := range active {
		activeNames[i] = cat.Name
	}

	report := &Report{
		RunID:      uuid.NewString(),
		TenantID:   tenantID,
		SetVersion: tenant.CategoryVersion,
	}
	j.logger.Info("recategorization run started",
		zap.String("run_id", report.RunID),
		zap.Uint("tenant_id", tenantID),
		zap.Uint("set_version", report.SetVersion),
		zap.Int("active_categories", len(active)))

	var afterID uint
	for {
		if ctx.Err() != nil {
			return report, ErrJobInterrupted
		}

		batch, err := j.messages.ListNeedingRecategorization(tenantID, activeNames, afterID, j.batchSize)
		if err != nil {
			return report, fmt.Errorf("list stale messages failed: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].ID

		var mu sync.Mutex
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(j.parallelism)
		for _, msg := range batch {
			msg := msg
			group.Go(func() error {
				tag, err := j.tagger.ClassifyAgainst(groupCtx, tenantID, msg.Content, active)
				if err != nil {
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				report.Scanned++

				if unchangedByTag(msg, tag) {
					report.Skipped++
					return nil
				}

				sentiment := tag.Sentiment
				if sentiment == nil {
					sentiment = msg.Sentiment
				}
				ok, err := j.messages.UpdateClassification(msg.ID, msg.Version, tag.Category, sentiment, tag.LowConfidence)
				if err != nil {
					return err
				}
				if ok {
					report.Updated++
				} else {
					report.Conflicts++
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			if ctx.Err() != nil {
				return report, ErrJobInterrupted
			}
			return report, fmt.Errorf("recategorize batch failed: %w", err)
		}
	}

	j.logger.Info("recategorization run finished",
		zap.String("run_id", report.RunID),
		zap.Uint("tenant_id", tenantID),
		zap.Int("scanned", report.Scanned),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("conflicts", report.Conflicts))
	return report, nil
}

func unchangedByTag(msg model.Message, tag classifier.Tag) bool {
	sameCategory := (msg.Category == nil && tag.Category == nil) ||
		(msg.Category != nil && tag.Category != nil && *msg.Category == *tag.Category)
	return sameCategory && msg.LowConfidence == tag.LowConfidence && tag.Sentiment == nil
}

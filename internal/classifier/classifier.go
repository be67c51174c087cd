// Package classifier applies the tenant's active category set and the
// confidence threshold policy to raw model output. Anything the model
// cannot place confidently lands in Uncategorized with the low
// confidence flag set, which feeds the gap analyzer.
package classifier

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"supportpilot/internal/ai"
	"supportpilot/internal/model"
)

type CategorySource interface {
	ListActiveByTenantID(tenantID uint) ([]model.Category, error)
}

type TaggingModel interface {
	Classify(ctx context.Context, text string, categories []ai.CategoryOption) (ai.Classification, error)
}

// Tag is the policy-checked classification of one message. A nil
// Category means Uncategorized. Sentiment is nil when the model could
// not be reached at all.
type Tag struct {
	Category      *string
	Sentiment     *float64
	LowConfidence bool
}

type Classifier struct {
	categories CategorySource
	tagger     TaggingModel
	threshold  float64
	retry      ai.RetryPolicy
	logger     *zap.Logger
}

func New(categories CategorySource, tagger TaggingModel, threshold float64, retry ai.RetryPolicy, logger *zap.Logger) *Classifier {
	return &Classifier{
		categories: categories,
		tagger:     tagger,
		threshold:  threshold,
		retry:      retry,
		logger:     logger,
	}
}

// Classify tags a customer message against the tenant's active
// categories. Provider failures degrade to an uncategorized, flagged
// tag rather than an error; only repository failures propagate.
func (c *Classifier) Classify(ctx context.Context, tenantID uint, text string) (Tag, error) {
	active, err := c.categories.ListActiveByTenantID(tenantID)
	if err != nil {
		return Tag{}, err
	}
	return c.ClassifyAgainst(ctx, tenantID, text, active)
}

// ClassifyAgainst tags a message against an explicit category set.
// Recategorization runs use it with a snapshot taken at run start.
func (c *Classifier) ClassifyAgainst(ctx context.Context, tenantID uint, text string, active []model.Category) (Tag, error) {
	options := make([]ai.CategoryOption, len(active))
	for i, cat := range active {
		options[i] = ai.CategoryOption{Name: cat.Name, Description: cat.Description}
	}

	var raw ai.Classification
	err := ai.Retry(ctx, c.retry, func(ctx context.Context) error {
		var classifyErr error
		raw, classifyErr = c.tagger.Classify(ctx, text, options)
		return classifyErr
	})
	if err != nil {
		c.logger.Warn("classification provider failed, tagging uncategorized",
			zap.Uint("tenant_id", tenantID), zap.Error(err))
		return Tag{LowConfidence: true}, nil
	}

	sentiment := raw.Sentiment
	tag := Tag{Sentiment: &sentiment}

	if len(active) == 0 || raw.Confidence < c.threshold {
		tag.LowConfidence = true
		return tag, nil
	}

	name := matchActiveName(raw.Category, active)
	if name == "" {
		tag.LowConfidence = true
		return tag, nil
	}
	tag.Category = &name
	return tag, nil
}

// matchActiveName resolves the model's category string to the canonical
// active name, tolerating case drift. Empty when nothing matches.
func matchActiveName(candidate string, active []model.Category) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	for _, cat := range active {
		if strings.EqualFold(cat.Name, candidate) {
			return cat.Name
		}
	}
	return ""
}

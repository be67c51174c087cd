// Package gap mines unresolved customer messages for knowledge gaps.
// Messages that ended up uncategorized or low confidence are grouped by
// their dominant keyword; groups that neither match an active category
// nor hit existing documentation become category suggestions.
package gap

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"supportpilot/internal/model"
	"supportpilot/internal/vectorstore"
)

// Suggestion IDs are derived from tenant and candidate name, so
// repeated runs over the same data produce the same IDs.
var suggestionNamespace = uuid.MustParse("8d4f9a2e-1c3b-4e5d-9f6a-7b8c9d0e1f2a")

const (
	minGroupSize = 2
	maxEvidence  = 3
)

var stopWords = map[string]struct{}{
	"what": {}, "how": {}, "when": {}, "where": {}, "why": {},
	"the": {}, "is": {}, "can": {}, "does": {}, "please": {},
	"this": {}, "that": {}, "with": {}, "your": {}, "have": {},
}

type messageSource interface {
	ListUnresolved(tenantID uint, since time.Time, limit int) ([]model.Message, error)
}

type categorySource interface {
	ListActiveByTenantID(tenantID uint) ([]model.Category, error)
}

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Suggestion is one proposed category covering a cluster of unresolved
// messages.
type Suggestion struct {
	ID               uuid.UUID `json:"id"`
	TenantID         uint      `json:"tenant_id"`
	CandidateName    string    `json:"candidate_name"`
	RecommendedTopic string    `json:"recommended_topic"`
	MessageIDs       []uint    `json:"message_ids"`
	Evidence         []string  `json:"evidence"`
}

type Analyzer struct {
	messages    messageSource
	categories  categorySource
	embedder    embedder
	store       vectorstore.Store
	threshold   float32
	topK        int
	lookback    time.Duration
	batchSize   int
	maxKeywords int
	logger      *zap.Logger
}

func NewAnalyzer(messages messageSource, categories categorySource, emb embedder, store vectorstore.Store, threshold float32, topK int, lookback time.Duration, batchSize, maxKeywords int, logger *zap.Logger) *Analyzer {
	if maxKeywords <= 0 {
		maxKeywords = 5
	}
	return &Analyzer{
		messages:    messages,
		categories:  categories,
		embedder:    emb,
		store:       store,
		threshold:   threshold,
		topK:        topK,
		lookback:    lookback,
		batchSize:   batchSize,
		maxKeywords: maxKeywords,
		logger:      logger,
	}
}

// Analyze returns category suggestions for a tenant's recent unresolved
// messages. Output order and suggestion IDs are deterministic, so a
// rerun over the same data yields a superset of the previous run.
func (a *Analyzer) Analyze(ctx context.Context, tenantID uint) ([]Suggestion, error) {
	since := time.Now().Add(-a.lookback)
	unresolved, err := a.messages.ListUnresolved(tenantID, since, a.batchSize)
	if err != nil {
		return nil, fmt.Errorf("load unresolved messages failed: %w", err)
	}
	if len(unresolved) == 0 {
		return nil, nil
	}

	active, err := a.categories.ListActiveByTenantID(tenantID)
	if err != nil {
		return nil, fmt.Errorf("load active categories failed: %w", err)
	}
	activeNames := make(map[string]struct{}, len(active))
	for _, cat := range active {
		activeNames[strings.ToLower(cat.Name)] = struct{}{}
	}

	groups := groupByDominantKeyword(unresolved, a.maxKeywords)

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var suggestions []Suggestion
	for _, name := range names {
		group := groups[name]
		if len(group) < minGroupSize {
			continue
		}
		if _, exists := activeNames[name]; exists {
			continue
		}
		covered, err := a.isCovered(ctx, tenantID, group[0].Content)
		if err != nil {
			a.logger.Warn("coverage check failed, keeping suggestion",
				zap.Uint("tenant_id", tenantID), zap.String("candidate", name), zap.Error(err))
		} else if covered {
			continue
		}

		ids := make([]uint, len(group))
		evidence := make([]string, 0, maxEvidence)
		for i, m := range group {
			ids[i] = m.ID
			if len(evidence) < maxEvidence {
				evidence = append(evidence, excerpt(m.Content))
			}
		}
		candidate := titleCase(name)
		suggestions = append(suggestions, Suggestion{
			ID:               uuid.NewSHA1(suggestionNamespace, []byte(fmt.Sprintf("%d:%s", tenantID, name))),
			TenantID:         tenantID,
			CandidateName:    candidate,
			RecommendedTopic: fmt.Sprintf("Document answers for %q questions", name),
			MessageIDs:       ids,
			Evidence:         evidence,
		})
	}
	return suggestions, nil
}

// isCovered reports whether the knowledge base already answers a
// representative message of the group.
func (a *Analyzer) isCovered(ctx context.Context, tenantID uint, sample string) (bool, error) {
	vec, err := a.embedder.Embed(ctx, sample)
	if err != nil {
		return false, err
	}
	scored, err := a.store.Search(ctx, tenantID, vec, a.topK)
	if err != nil {
		return false, err
	}
	return len(scored) > 0 && scored[0].Score >= a.threshold, nil
}

// groupByDominantKeyword assigns each message to its most frequent
// keyword across the whole batch, ties broken lexicographically.
func groupByDominantKeyword(messages []model.Message, maxKeywords int) map[string][]model.Message {
	freq := map[string]int{}
	perMessage := make([][]string, len(messages))
	for i, m := range messages {
		kws := extractKeywords(m.Content, maxKeywords)
		perMessage[i] = kws
		for _, kw := range kws {
			freq[kw]++
		}
	}

	groups := map[string][]model.Message{}
	for i, m := range messages {
		best := ""
		for _, kw := range perMessage[i] {
			if best == "" || freq[kw] > freq[best] || (freq[kw] == freq[best] && kw < best) {
				best = kw
			}
		}
		if best == "" {
			continue
		}
		groups[best] = append(groups[best], m)
	}
	return groups
}

// extractKeywords lowercases, strips punctuation and drops stop words
// and short tokens, preserving first-seen order.
func extractKeywords(text string, max int) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := map[string]struct{}{}
	var keywords []string
	for _, f := range fields {
		if len(f) <= 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
		if len(keywords) >= max {
			break
		}
	}
	return keywords
}

func excerpt(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= 120 {
		return string(runes)
	}
	return string(runes[:120]) + "..."
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(word)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

package gap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supportpilot/internal/model"
	"supportpilot/internal/vectorstore"
)

type stubMessages struct {
	unresolved []model.Message
}

func (s *stubMessages) ListUnresolved(tenantID uint, since time.Time, limit int) ([]model.Message, error) {
	return s.unresolved, nil
}

type stubCategories struct {
	active []model.Category
}

func (s *stubCategories) ListActiveByTenantID(tenantID uint) ([]model.Category, error) {
	return s.active, nil
}

type stubEmbedder struct{}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type stubStore struct {
	topScore float32
	hasDocs  bool
}

func (s *stubStore) Upsert(ctx context.Context, tenantID uint, chunks []model.Chunk) error {
	return nil
}

func (s *stubStore) Search(ctx context.Context, tenantID uint, vector []float32, k int) ([]vectorstore.ScoredChunk, error) {
	if !s.hasDocs {
		return nil, nil
	}
	return []vectorstore.ScoredChunk{{Score: s.topScore}}, nil
}

func (s *stubStore) DeleteByDocument(ctx context.Context, tenantID, documentID uint) error {
	return nil
}

func newAnalyzer(messages *stubMessages, categories *stubCategories, store *stubStore) *Analyzer {
	return NewAnalyzer(messages, categories, &stubEmbedder{}, store,
		0.35, 5, 24*time.Hour, 500, 5, zap.NewNop())
}

func unresolvedMessage(id uint, content string) model.Message {
	return model.Message{ID: id, Role: model.RoleCustomer, Content: content, LowConfidence: true}
}

func TestAnalyzeGroupsByKeyword(t *testing.T) {
	messages := &stubMessages{unresolved: []model.Message{
		unresolvedMessage(1, "how do warranty claims work"),
		unresolvedMessage(2, "is my warranty still valid"),
		unresolvedMessage(3, "something else entirely"),
	}}
	a := newAnalyzer(messages, &stubCategories{}, &stubStore{})

	suggestions, err := a.Analyze(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	assert.Equal(t, "Warranty", s.CandidateName)
	assert.ElementsMatch(t, []uint{1, 2}, s.MessageIDs)
	assert.Len(t, s.Evidence, 2)
}

func TestAnalyzeSkipsActiveCategoryNames(t *testing.T) {
	messages := &stubMessages{unresolved: []model.Message{
		unresolvedMessage(1, "question about billing cycle"),
		unresolvedMessage(2, "billing amount is wrong"),
	}}
	categories := &stubCategories{active: []model.Category{{Name: "Billing", Status: model.CategoryStatusActive}}}
	a := newAnalyzer(messages, categories, &stubStore{})

	suggestions, err := a.Analyze(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestAnalyzeSkipsCoveredTopics(t *testing.T) {
	messages := &stubMessages{unresolved: []model.Message{
		unresolvedMessage(1, "warranty claim question"),
		unresolvedMessage(2, "warranty expiration question"),
	}}
	a := newAnalyzer(messages, &stubCategories{}, &stubStore{hasDocs: true, topScore: 0.8})

	suggestions, err := a.Analyze(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestAnalyzeIgnoresSingletons(t *testing.T) {
	messages := &stubMessages{unresolved: []model.Message{
		unresolvedMessage(1, "unique question about telescopes"),
	}}
	a := newAnalyzer(messages, &stubCategories{}, &stubStore{})

	suggestions, err := a.Analyze(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestAnalyzeIsDeterministicAndMonotonic(t *testing.T) {
	base := []model.Message{
		unresolvedMessage(1, "warranty claim one"),
		unresolvedMessage(2, "warranty claim two"),
	}
	messages := &stubMessages{unresolved: base}
	a := newAnalyzer(messages, &stubCategories{}, &stubStore{})

	first, err := a.Analyze(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// More data in a later run keeps the earlier suggestion id.
	messages.unresolved = append(base,
		unresolvedMessage(3, "warranty transfer question"),
		unresolvedMessage(4, "pricing tier question"),
		unresolvedMessage(5, "pricing upgrade question"),
	)
	second, err := a.Analyze(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, second, 2)

	ids := map[string]bool{}
	for _, s := range second {
		ids[s.ID.String()] = true
	}
	assert.True(t, ids[first[0].ID.String()])
}

func TestExtractKeywordsFiltersStopWordsAndShortTokens(t *testing.T) {
	kws := extractKeywords("How does the refund policy work for you?", 5)
	assert.Equal(t, []string{"refund", "policy", "work"}, kws)
}

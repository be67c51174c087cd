package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supportpilot/internal/model"
)

type fakeCache struct {
	windows map[uint][]model.Message
	dirty   map[uint]bool
	failGet bool
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{windows: map[uint][]model.Message{}, dirty: map[uint]bool{}}
}

func (f *fakeCache) GetWindow(ctx context.Context, id uint) ([]model.Message, bool, error) {
	if f.failGet {
		return nil, false, errors.New("redis down")
	}
	w, ok := f.windows[id]
	return w, ok, nil
}

func (f *fakeCache) SetWindow(ctx context.Context, id uint, messages []model.Message) error {
	f.windows[id] = messages
	f.sets++
	return nil
}

func (f *fakeCache) DeleteWindow(ctx context.Context, id uint) error {
	delete(f.windows, id)
	return nil
}

func (f *fakeCache) MarkDirty(ctx context.Context, id uint) error {
	f.dirty[id] = true
	return nil
}

func (f *fakeCache) IsDirty(ctx context.Context, id uint) (bool, error) {
	return f.dirty[id], nil
}

type fakeMessageReader struct {
	messages []model.Message
	calls    int
}

func (f *fakeMessageReader) ListRecentByConversationID(conversationID uint, limit int) ([]model.Message, error) {
	f.calls++
	return f.messages, nil
}

func TestManagerServesFromCacheWhenClean(t *testing.T) {
	cache := newFakeCache()
	cache.windows[7] = []model.Message{{Role: model.RoleCustomer, Content: "cached"}}
	reader := &fakeMessageReader{}
	mgr := NewManager(cache, reader, 10, 4000, zap.NewNop())

	window, err := mgr.Window(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "cached", window[0].Content)
	assert.Zero(t, reader.calls)
}

func TestManagerRebuildsWhenDirty(t *testing.T) {
	cache := newFakeCache()
	cache.windows[7] = []model.Message{{Role: model.RoleCustomer, Content: "stale"}}
	cache.dirty[7] = true
	reader := &fakeMessageReader{messages: []model.Message{{Role: model.RoleCustomer, Content: "fresh"}}}
	mgr := NewManager(cache, reader, 10, 4000, zap.NewNop())

	window, err := mgr.Window(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "fresh", window[0].Content)
	assert.Equal(t, 1, reader.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestManagerFallsBackWhenCacheFails(t *testing.T) {
	cache := newFakeCache()
	cache.failGet = true
	reader := &fakeMessageReader{messages: []model.Message{{Role: model.RoleCustomer, Content: "from db"}}}
	mgr := NewManager(cache, reader, 10, 4000, zap.NewNop())

	window, err := mgr.Window(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "from db", window[0].Content)
}

func TestManagerInvalidateDropsCachedWindow(t *testing.T) {
	cache := newFakeCache()
	cache.windows[9] = []model.Message{{Role: model.RoleCustomer, Content: "old"}}
	mgr := NewManager(cache, &fakeMessageReader{}, 10, 4000, zap.NewNop())

	mgr.Invalidate(context.Background(), 9)
	assert.True(t, cache.dirty[9])
	_, ok := cache.windows[9]
	assert.False(t, ok)
}

func TestManagerRebuildsAfterInvalidateOutlivesDirtyMarker(t *testing.T) {
	// A dirty marker that expires before the cached window would serve a
	// window missing the latest turn; Invalidate must remove the window
	// itself so the next read rebuilds from the database.
	cache := newFakeCache()
	cache.windows[9] = []model.Message{{Role: model.RoleCustomer, Content: "before write"}}
	reader := &fakeMessageReader{messages: []model.Message{
		{Role: model.RoleCustomer, Content: "before write"},
		{Role: model.RoleAgent, Content: "latest answer"},
	}}
	mgr := NewManager(cache, reader, 10, 4000, zap.NewNop())

	mgr.Invalidate(context.Background(), 9)
	cache.dirty[9] = false // marker TTL elapsed

	window, err := mgr.Window(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "latest answer", window[1].Content)
	assert.Equal(t, 1, reader.calls)
}

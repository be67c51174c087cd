package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextSinglePiece(t *testing.T) {
	pieces := ChunkText("short text", 100, 20)
	require.Len(t, pieces, 1)
	assert.Equal(t, "short text", pieces[0].Content)
	assert.Equal(t, 0, pieces[0].Offset)
}

func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("a", 8) + strings.Repeat("b", 8)
	pieces := ChunkText(text, 10, 4)

	require.Len(t, pieces, 2)
	assert.Equal(t, 0, pieces[0].Offset)
	assert.Equal(t, 6, pieces[1].Offset)
	// Overlapping region appears at the tail of one piece and the head
	// of the next.
	assert.Equal(t, pieces[0].Content[6:], pieces[1].Content[:4])
}

func TestChunkTextStopsAtTextEnd(t *testing.T) {
	// A piece that already reaches the end of the text must be the last
	// one; no tail piece contained in its predecessor.
	pieces := ChunkText(strings.Repeat("x", 10), 10, 4)
	require.Len(t, pieces, 1)

	pieces = ChunkText(strings.Repeat("y", 16), 10, 4)
	require.Len(t, pieces, 2)
	assert.Equal(t, 6, pieces[1].Offset)
	assert.Len(t, pieces[1].Content, 10)
}

func TestChunkTextRuneBoundaries(t *testing.T) {
	text := strings.Repeat("中文", 6) // 12 runes
	pieces := ChunkText(text, 5, 1)

	require.NotEmpty(t, pieces)
	total := ""
	for i, p := range pieces {
		assert.True(t, len([]rune(p.Content)) <= 5)
		if i == 0 {
			total = p.Content
		}
	}
	assert.Equal(t, "中文中文中", total)
}

func TestChunkTextEmptyInput(t *testing.T) {
	assert.Empty(t, ChunkText("", 100, 10))
	assert.Empty(t, ChunkText("anything", 0, 0))
}

func TestChunkTextOverlapClampedBelowSize(t *testing.T) {
	pieces := ChunkText(strings.Repeat("x", 30), 10, 15)
	require.NotEmpty(t, pieces)
	for i := 1; i < len(pieces); i++ {
		assert.Greater(t, pieces[i].Offset, pieces[i-1].Offset)
	}
}

package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSinglePiece(t *testing.T) {
	pieces := Chunk("short text", 6000)

	require.Len(t, pieces, 1)
	assert.Equal(t, "short text", pieces[0])
}

func TestChunkHardCutSizes(t *testing.T) {
	text := strings.Repeat("a", 15000)

	pieces := Chunk(text, 6000)

	require.Len(t, pieces, 3)
	assert.Len(t, pieces[0], 6000)
	assert.Len(t, pieces[1], 6000)
	assert.Len(t, pieces[2], 3000)
}

func TestChunkConcatenationEqualsInput(t *testing.T) {
	text := strings.Repeat("abcdefghij", 1301)

	pieces := Chunk(text, 6000)

	assert.Equal(t, text, strings.Join(pieces, ""))
}

func TestChunkExactBoundary(t *testing.T) {
	text := strings.Repeat("a", 6000)

	pieces := Chunk(text, 6000)

	require.Len(t, pieces, 1)
}

func TestChunkCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("é", 10)

	pieces := Chunk(text, 4)

	require.Len(t, pieces, 3)
	assert.Equal(t, text, strings.Join(pieces, ""))
	for _, p := range pieces[:2] {
		assert.Equal(t, 4, len([]rune(p)))
	}
}

func TestChunkZeroMaxUsesDefault(t *testing.T) {
	text := strings.Repeat("a", DefaultMaxChunkSize+1)

	pieces := Chunk(text, 0)

	require.Len(t, pieces, 2)
	assert.Len(t, pieces[0], DefaultMaxChunkSize)
}

func TestChunkEntrySinglePieceKeepsTitle(t *testing.T) {
	entries := ChunkEntry(Entry{Title: "Summary", Content: "short"}, 6000)

	require.Len(t, entries, 1)
	assert.Equal(t, "Summary", entries[0].Title)
}

func TestChunkEntryMultiPieceTitles(t *testing.T) {
	entries := ChunkEntry(Entry{Title: "Experience", Content: strings.Repeat("a", 15000)}, 6000)

	require.Len(t, entries, 3)
	assert.Equal(t, "Experience - Part 1", entries[0].Title)
	assert.Equal(t, "Experience - Part 2", entries[1].Title)
	assert.Equal(t, "Experience - Part 3", entries[2].Title)
}

func TestChunkEntriesPreservesOrder(t *testing.T) {
	entries := ChunkEntries([]Entry{
		{Title: "A", Content: strings.Repeat("x", 7000)},
		{Title: "B", Content: "small"},
	}, 6000)

	require.Len(t, entries, 3)
	assert.Equal(t, "A - Part 1", entries[0].Title)
	assert.Equal(t, "A - Part 2", entries[1].Title)
	assert.Equal(t, "B", entries[2].Title)
}

package segment

import "fmt"

// DefaultMaxChunkSize is the embedding-model input budget in characters.
const DefaultMaxChunkSize = 6000

// Chunk slices text at hard maxSize-character boundaries. The pieces are
// contiguous and non-overlapping, and their concatenation equals the input
// exactly. Sizes are counted in runes so multi-byte text never splits inside
// a character.
func Chunk(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	runes := []rune(text)
	if len(runes) <= maxSize {
		return []string{text}
	}
	pieces := make([]string, 0, (len(runes)+maxSize-1)/maxSize)
	for start := 0; start < len(runes); start += maxSize {
		end := start + maxSize
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

// ChunkEntry bounds an entry's content to maxSize. A single-piece result
// keeps the original title; multi-piece results get 1-indexed " - Part N"
// suffixes so each piece stays distinguishable.
func ChunkEntry(entry Entry, maxSize int) []Entry {
	pieces := Chunk(entry.Content, maxSize)
	if len(pieces) == 1 {
		return []Entry{{Title: entry.Title, Content: pieces[0]}}
	}
	out := make([]Entry, len(pieces))
	for i, p := range pieces {
		out[i] = Entry{
			Title:   fmt.Sprintf("%s - Part %d", entry.Title, i+1),
			Content: p,
		}
	}
	return out
}

// ChunkEntries applies ChunkEntry across a section's entries in order.
func ChunkEntries(entries []Entry, maxSize int) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ChunkEntry(e, maxSize)...)
	}
	return out
}

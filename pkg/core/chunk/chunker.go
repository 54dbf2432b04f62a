// Package chunk splits a risk section into bounded-size, context-preserving
// chunks for token-limited analysis calls. Splitting prefers paragraph
// boundaries, then sentence boundaries, and each chunk after the first
// repeats a suffix of the previous chunk so themes spanning a cut are never
// lost.
package chunk

import (
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"risk_analyzer/pkg/models"
)

// DefaultMaxSize keeps a chunk near 8000 estimated tokens, the comfortable
// ceiling for a single analysis call (~4 characters per token).
const DefaultMaxSize = 32000

// Chunker produces ordered chunks no longer than MaxSize characters with
// Overlap characters of context carried across each split.
type Chunker struct {
	MaxSize   int
	Overlap   int
	Tolerance int // window below the size limit searched for a boundary
}

// New validates the configuration. Overlap must leave at least one full
// rune of room for unique content, or a multibyte cut could push a chunk
// past the size limit.
func New(maxSize, overlap int) (*Chunker, error) {
	if maxSize < utf8.UTFMax {
		return nil, fmt.Errorf("chunk max size must be at least %d, got %d", utf8.UTFMax, maxSize)
	}
	if overlap < 0 || overlap > maxSize-utf8.UTFMax {
		return nil, fmt.Errorf("overlap %d must be in [0, max size - %d]", overlap, utf8.UTFMax)
	}
	return &Chunker{
		MaxSize:   maxSize,
		Overlap:   overlap,
		Tolerance: maxSize / 5,
	}, nil
}

// Split materializes all chunks of sec. An empty section yields no chunks;
// a section shorter than MaxSize yields exactly one.
func (c *Chunker) Split(sec *models.RiskSection) []models.Chunk {
	var chunks []models.Chunk
	for ch := range c.Seq(sec) {
		chunks = append(chunks, ch)
	}
	return chunks
}

// Seq returns a lazy, restartable chunk sequence. Consumers may stop early
// without paying for later chunks; ranging again restarts from the first.
//
// Invariant: concatenating Chunk.Unique() over the full sequence
// reconstructs sec.Text exactly.
func (c *Chunker) Seq(sec *models.RiskSection) iter.Seq[models.Chunk] {
	return func(yield func(models.Chunk) bool) {
		text := sec.Text
		pos := 0   // start of unsplit content
		index := 0 // next chunk index
		overlapStart := 0

		for pos < len(text) {
			overlap := text[overlapStart:pos]
			budget := c.MaxSize - len(overlap)

			var unique string
			if len(text)-pos <= budget {
				unique = text[pos:]
			} else {
				cut := c.cutPoint(text[pos:], budget)
				unique = text[pos : pos+cut]
			}

			ch := models.Chunk{
				Index:   index,
				Text:    overlap + unique,
				Overlap: len(overlap),
			}
			if !yield(ch) {
				return
			}

			pos += len(unique)
			overlapStart = pos - c.Overlap
			if overlapStart < pos-len(unique) {
				// Overlap never reaches back past this chunk's own content.
				overlapStart = pos - len(unique)
			}
			index++
		}
	}
}

// cutPoint picks where to end the unique content of a chunk, scanning the
// tolerance window below budget for a paragraph break, then a sentence
// break, before falling back to a hard cut on a rune boundary.
func (c *Chunker) cutPoint(rest string, budget int) int {
	windowStart := budget - c.Tolerance
	if windowStart < 1 {
		windowStart = 1
	}
	window := rest[windowStart:budget]

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return windowStart + i + len("\n\n")
	}
	if i := lastSentenceEnd(window); i >= 0 {
		return windowStart + i
	}

	// Hard cut on a rune boundary. New guarantees budget covers at least
	// one full rune, so this always lands above zero.
	cut := budget
	for !utf8.RuneStart(rest[cut]) {
		cut--
	}
	return cut
}

// lastSentenceEnd finds the end of the last sentence in s, returning the
// index just past its trailing space, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		if (s[i] == '.' || s[i] == '!' || s[i] == '?') && (s[i+1] == ' ' || s[i+1] == '\n') {
			return i + 2
		}
	}
	return -1
}

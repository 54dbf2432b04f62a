package score

import (
	"strings"

	"risk_analyzer/pkg/models"
)

// pairing joins a prior-year chunk with a current-year chunk. Either index
// may be -1: sections grow and shrink between years, so alignment is
// best-effort rather than one-to-one.
type pairing struct {
	priorIdx   int
	currentIdx int
}

// alignChunks matches current-year chunks to prior-year chunks by
// proportional position refined with word-overlap similarity, then emits
// removal-only pairings for prior chunks nothing claimed. The result is
// ordered by current index, with removal-only pairings appended in prior
// order.
func alignChunks(prior, current []models.Chunk) []pairing {
	pairs := make([]pairing, 0, len(current)+len(prior))
	claimed := make([]bool, len(prior))

	for i := range current {
		best := -1
		bestScore := 0.0

		// Candidates sit near the proportional position; a section that
		// merely grew keeps its ordering, so a window of one is enough.
		center := 0
		if len(current) > 0 && len(prior) > 0 {
			center = i * len(prior) / len(current)
		}
		for j := center - 1; j <= center+1; j++ {
			if j < 0 || j >= len(prior) || claimed[j] {
				continue
			}
			score := jaccard(prior[j].Text, current[i].Text)
			if score > bestScore {
				best, bestScore = j, score
			}
		}

		if best >= 0 {
			claimed[best] = true
			pairs = append(pairs, pairing{priorIdx: best, currentIdx: i})
		} else {
			pairs = append(pairs, pairing{priorIdx: -1, currentIdx: i})
		}
	}

	for j := range prior {
		if !claimed[j] {
			pairs = append(pairs, pairing{priorIdx: j, currentIdx: -1})
		}
	}

	return pairs
}

// jaccard computes word-set overlap between two texts, the same similarity
// measure the report exposes for whole sections.
func jaccard(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = true
	}
	return set
}

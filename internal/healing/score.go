// File: internal/healing/score.go
package healing

import (
	"strings"

	"github.com/xkilldash9x/locfix/api/schemas"
)

// MaxSimilarity is the highest score Similarity can produce: every
// attribute weight plus every parent weight.
const MaxSimilarity = 48

// FeatureCount is the width of the vectors ExtractFeatures produces.
// Training and inference depend on this layout staying fixed.
const FeatureCount = 10

// Similarity computes the weighted attribute overlap between a golden
// snapshot and a live candidate. A differing tag disqualifies the
// candidate outright. Attribute comparisons are exact, including two
// empty values matching: an element that lacks an id the same way the
// golden did is evidence, not noise.
func Similarity(golden, candidate *schemas.ElementSnapshot) int {
	if !strings.EqualFold(candidate.Tag, golden.Tag) {
		return 0
	}

	score := 0
	if candidate.ID == golden.ID {
		score += 10
	}
	if candidate.Name == golden.Name {
		score += 10
	}
	if candidate.DataTestID == golden.DataTestID {
		score += 8
	}
	if candidate.Class == golden.Class {
		score += 5
	}
	if candidate.Text != "" && golden.Text != "" && strings.Contains(candidate.Text, golden.Text) {
		score += 3
	}
	if golden.InnerHTML != "" && candidate.InnerHTML != "" && strings.Contains(candidate.InnerHTML, golden.InnerHTML) {
		score += 2
	}
	if golden.Parent != nil && candidate.Parent != nil {
		if strings.EqualFold(candidate.Parent.Tag, golden.Parent.Tag) {
			score += 2
		}
		if candidate.Parent.ID == golden.Parent.ID {
			score += 5
		}
		if candidate.Parent.Class == golden.Parent.Class {
			score += 3
		}
	}
	return score
}

// ExtractFeatures turns a golden/candidate pair into the fixed-width
// vector the ranker consumes:
//
//	f0 id match              f5 innerHTML containment
//	f1 name match            f6 similarity / MaxSimilarity
//	f2 data-testid match     f7 parent tag match
//	f3 class match           f8 parent id match
//	f4 text containment      f9 parent class match
func ExtractFeatures(golden, candidate *schemas.ElementSnapshot) []float64 {
	f := make([]float64, FeatureCount)

	if candidate.ID == golden.ID {
		f[0] = 1
	}
	if candidate.Name == golden.Name {
		f[1] = 1
	}
	if candidate.DataTestID == golden.DataTestID {
		f[2] = 1
	}
	if candidate.Class == golden.Class {
		f[3] = 1
	}
	if candidate.Text != "" && golden.Text != "" && strings.Contains(candidate.Text, golden.Text) {
		f[4] = 1
	}
	if golden.InnerHTML != "" && candidate.InnerHTML != "" && strings.Contains(candidate.InnerHTML, golden.InnerHTML) {
		f[5] = 1
	}
	f[6] = float64(Similarity(golden, candidate)) / float64(MaxSimilarity)
	if golden.Parent != nil && candidate.Parent != nil {
		if strings.EqualFold(candidate.Parent.Tag, golden.Parent.Tag) {
			f[7] = 1
		}
		if candidate.Parent.ID == golden.Parent.ID {
			f[8] = 1
		}
		if candidate.Parent.Class == golden.Parent.Class {
			f[9] = 1
		}
	}
	return f
}

// ArgMax returns the index of the first maximum in scores, or -1 for an
// empty slice. Ties resolve to the earliest candidate, which keeps
// labeling deterministic across rounds.
func ArgMax[T int | float64](scores []T) int {
	if len(scores) == 0 {
		return -1
	}
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}

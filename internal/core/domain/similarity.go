package domain

import (
	"math"
	"sort"
)

// CosineSimilarity returns dot(a, b) / (|a| * |b|).
// It is 0 when either vector has zero norm or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp rounding drift so results stay within [-1, 1].
	return math.Max(-1, math.Min(1, sim))
}

// RankMatches orders matches by similarity descending, breaking ties by id
// ascending, and keeps at most topK. topK <= 0 keeps none.
func RankMatches(matches []QueryMatch, topK int) []QueryMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
	if topK < 0 {
		topK = 0
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

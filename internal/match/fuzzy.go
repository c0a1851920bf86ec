// Package match provides the edit-distance similarity primitives used by
// customer resolution.
package match

import "sort"

// levenshtein computes the edit distance between two rune slices using a
// rolling single-row matrix.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur := row[j]
			row[j] = minInt(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return row[len(b)]
}

// Ratio returns a normalized similarity in [0,1]: 1 minus the edit distance
// over the longer rune length. Identical strings score 1, disjoint strings
// approach 0.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// BestMatch returns the candidate with the highest ratio against word and its
// score. Ties keep the earlier candidate, so the result is deterministic for
// a fixed candidate order.
func BestMatch(word string, candidates []string) (string, float64) {
	best := ""
	bestScore := -1.0
	for _, c := range candidates {
		if score := Ratio(word, c); score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}

// ClosestMatches returns up to n candidates whose ratio against word is at
// least cutoff, ordered best-first. Equal scores preserve candidate order.
func ClosestMatches(word string, candidates []string, n int, cutoff float64) []string {
	type scored struct {
		value string
		score float64
	}

	var hits []scored
	for _, c := range candidates {
		if score := Ratio(word, c); score >= cutoff {
			hits = append(hits, scored{value: c, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.value
	}
	return out
}

func minInt(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

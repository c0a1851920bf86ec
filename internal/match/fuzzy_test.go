package match

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRatio(t *testing.T) {
	cases := []struct {
		a, b     string
		expected float64
	}{
		{"მაგსი", "მაგსი", 1.0},
		{"მავსი", "მაგსი", 0.8}, // one substitution over five runes
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"kitten", "sitting", 1.0 - 3.0/7.0},
	}

	for _, tc := range cases {
		if got := Ratio(tc.a, tc.b); !almostEqual(got, tc.expected) {
			t.Fatalf("Ratio(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.expected)
		}
	}
}

func TestBestMatchDeterministicTieBreak(t *testing.T) {
	// Both candidates are one edit away; the earlier one must win.
	best, score := BestMatch("abcd", []string{"abcx", "abcy"})
	if best != "abcx" {
		t.Fatalf("BestMatch tie = %q, want first candidate", best)
	}
	if !almostEqual(score, 0.75) {
		t.Fatalf("score = %v, want 0.75", score)
	}
}

func TestBestMatchEmptyCandidates(t *testing.T) {
	best, score := BestMatch("abc", nil)
	if best != "" || score != 0 {
		t.Fatalf("BestMatch on no candidates = %q, %v", best, score)
	}
}

func TestClosestMatchesOrdersBestFirst(t *testing.T) {
	got := ClosestMatches("მაგსი", []string{"სხვა რამ", "მავსი", "მაგსი"}, 5, 0.4)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(got), got)
	}
	if got[0] != "მაგსი" || got[1] != "მავსი" {
		t.Fatalf("order = %v, want exact first", got)
	}
}

func TestClosestMatchesHonorsLimitAndCutoff(t *testing.T) {
	candidates := []string{"aaaa", "aaab", "aabb", "zzzz"}

	got := ClosestMatches("aaaa", candidates, 2, 0.5)
	if len(got) != 2 {
		t.Fatalf("len = %d, want limit of 2", len(got))
	}
	if got[0] != "aaaa" {
		t.Fatalf("best = %q, want aaaa", got[0])
	}

	if got := ClosestMatches("aaaa", []string{"zzzz"}, 5, 0.5); len(got) != 0 {
		t.Fatalf("cutoff not honored: %v", got)
	}
}

// Package fuzzy matches free text against a fixed list of candidates.
package fuzzy

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"
)

// Closest returns the candidate with the smallest edit distance to s. Ties keep the
// earlier candidate. An empty candidate list returns "".
func Closest(s string, candidates []string) string {
	best := ""
	bestDistance := -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(s, c)
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}

var dice = &metrics.SorensenDice{NgramSize: 2}

// Dice returns the Sørensen-Dice coefficient of the character bigrams of a and b, ignoring
// case. Runs of whitespace count as one space. Strings shorter than a bigram score 0.
func Dice(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if utf8.RuneCountInString(a) < 2 || utf8.RuneCountInString(b) < 2 {
		return 0
	}
	return strutil.Similarity(a, b, dice)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// SimSort returns the candidates sharing any bigram with s, most similar first.
func SimSort(s string, candidates []string) []string {
	type scored struct {
		value string
		score float64
	}
	var matches []scored
	for _, c := range candidates {
		if score := Dice(s, c); score > 0 {
			matches = append(matches, scored{c, score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.value
	}
	return out
}

package cmd

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// maxSuggestDistance is the largest edit distance that still yields a
// suggestion.
const maxSuggestDistance = 3

// suggest returns the candidate closest to unknown: a fuzzy subsequence
// match ("del" -> "delete") when there is one, otherwise the nearest name
// by edit distance ("gte" -> "get"). Returns "" when nothing is close.
func suggest(unknown string, candidates []string) string {
	unknown = strings.ToLower(unknown)
	if unknown == "" {
		return ""
	}
	if matches := fuzzy.Find(unknown, candidates); len(matches) > 0 {
		return matches[0].Str
	}

	best, bestDist := "", maxSuggestDistance+1
	for _, c := range candidates {
		if d := levenshtein(unknown, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// suggestFlag is suggest for flag names; dashes are ignored when comparing
// but kept in the result.
func suggestFlag(unknown string, flagNames []string) string {
	stripped := strings.TrimLeft(unknown, "-")
	if stripped == "" {
		return ""
	}
	bare := make([]string, len(flagNames))
	for i, f := range flagNames {
		bare[i] = strings.TrimLeft(f, "-")
	}
	match := suggest(stripped, bare)
	for i, b := range bare {
		if b == match && match != "" {
			return flagNames[i]
		}
	}
	return ""
}

// levenshtein computes the edit distance between a and b.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Single row plus a prev value.
	row := make([]int, lb+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= la; i++ {
		prev := i - 1
		row[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			val := min(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = val
		}
	}
	return row[lb]
}

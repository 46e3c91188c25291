// Package fuzzy ranks arbitrary strings against a short query, the way a
// quick-open palette does. It does not use the index.
//
// A contiguous, case-insensitive occurrence of the needle scores
// 1000 minus the character position of the first occurrence, so earlier hits
// rank higher. Haystacks longer than 1000 characters can therefore produce
// negative substring scores; no floor is applied.
//
// Otherwise the needle must appear as an in-order subsequence. Each matched
// character is worth 10 plus the length of the run of consecutive matches
// preceding it, and a complete match earns a bonus of 20 per character of
// its longest run.
package fuzzy

import (
	"sort"
	"strings"
)

const (
	substringBase = 1000
	charScore     = 10
	runBonus      = 20
)

// Score rates how well needle matches haystack. ok is false for an empty
// needle or when the needle is not a subsequence of the haystack.
func Score(needle, haystack string) (score int, ok bool) {
	if needle == "" {
		return 0, false
	}
	n := []rune(strings.ToLower(needle))
	h := []rune(strings.ToLower(haystack))

	if pos := runeIndex(h, n); pos >= 0 {
		return substringBase - pos, true
	}

	ni, run, maxRun := 0, 0, 0
	for _, r := range h {
		if ni == len(n) {
			break
		}
		if r != n[ni] {
			run = 0
			continue
		}
		score += charScore + run
		run++
		if run > maxRun {
			maxRun = run
		}
		ni++
	}
	if ni < len(n) {
		return 0, false
	}
	return score + maxRun*runBonus, true
}

// Match pairs an item with its score.
type Match[T any] struct {
	Item  T
	Score int
}

// Search scores every item's key text against query and returns the matches
// best first. Items that do not match are dropped; equal scores keep their
// input order.
func Search[T any](query string, items []T, key func(T) string) []Match[T] {
	matches := make([]Match[T], 0, len(items))
	for _, it := range items {
		if score, ok := Score(query, key(it)); ok {
			matches = append(matches, Match[T]{Item: it, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func runeIndex(haystack, needle []rune) int {
	last := len(haystack) - len(needle)
outer:
	for i := 0; i <= last; i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

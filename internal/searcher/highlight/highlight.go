// Package highlight finds occurrences of a query phrase inside item content
// and cuts a context window around each one.
package highlight

import "unicode"

// DefaultWindow is the number of characters kept on each side of a match.
const DefaultWindow = 100

// Match is one occurrence of the phrase. Start and End are character (rune)
// offsets into the content, End exclusive. Line is 1-based and nil unless
// line resolution was requested.
type Match struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Context string `json:"context"`
	Line    *int   `json:"line,omitempty"`
}

type Options struct {
	Window       int
	ResolveLines bool
}

// Extract returns every non-overlapping, case-insensitive occurrence of query
// in content, in order of appearance.
func Extract(content, query string, opts Options) []Match {
	if content == "" || query == "" {
		return nil
	}
	window := opts.Window
	if window < 0 {
		window = 0
	}

	text := []rune(content)
	folded := fold(text)
	needle := fold([]rune(query))

	var matches []Match
	line := 1
	lineScanned := 0
	for pos := 0; pos+len(needle) <= len(folded); {
		at := indexFrom(folded, needle, pos)
		if at < 0 {
			break
		}
		end := at + len(needle)
		m := Match{
			Start:   at,
			End:     end,
			Context: string(text[max(0, at-window):min(len(text), end+window)]),
		}
		if opts.ResolveLines {
			for ; lineScanned < at; lineScanned++ {
				if text[lineScanned] == '\n' {
					line++
				}
			}
			n := line
			m.Line = &n
		}
		matches = append(matches, m)
		pos = end
	}
	return matches
}

// fold lowercases rune by rune so offsets in the result line up with offsets
// in the input.
func fold(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func indexFrom(haystack, needle []rune, from int) int {
	last := len(haystack) - len(needle)
outer:
	for i := from; i <= last; i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

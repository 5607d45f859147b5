package analyzer

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultMaxEntities = 20
	DefaultMaxActions  = 20
)

// ExtractEntities finds capitalized spans that look like proper nouns. It will
// also pick up sentence-initial words; the output is a suggestion list.
func ExtractEntities(text string, maxN int) []string {
	if maxN <= 0 {
		maxN = DefaultMaxEntities
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, m := range entitySpans(text) {
		e := strings.TrimSpace(m)
		if EntityDenylist[strings.ToUpper(e)] || len(e) < MinEntityLength {
			continue
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
		if len(out) == maxN {
			break
		}
	}
	return out
}

// entitySpans finds greedy runs of Capitalized words separated by single
// spaces. Word boundaries are Unicode-aware, so an ASCII run that continues
// into an accented letter ("Café") is not a match.
func entitySpans(text string) []string {
	var spans []string
	for i := 0; i < len(text); {
		if isUpperASCII(text[i]) && !wordRuneBefore(text, i) {
			if end := entitySpanEnd(text, i); end > 0 {
				spans = append(spans, text[i:end])
				i = end
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return spans
}

// entitySpanEnd returns the end of the longest run starting at i that ends on
// a word boundary, or -1.
func entitySpanEnd(text string, i int) int {
	best := -1
	for end := capitalizedWordEnd(text, i); end != -1; end = capitalizedWordEnd(text, end+1) {
		if !wordRuneAt(text, end) {
			best = end
		}
		if end >= len(text) || text[end] != ' ' {
			break
		}
	}
	return best
}

// capitalizedWordEnd matches [A-Z][a-z]+ at i.
func capitalizedWordEnd(text string, i int) int {
	if i >= len(text) || !isUpperASCII(text[i]) {
		return -1
	}
	j := i + 1
	for j < len(text) && text[j] >= 'a' && text[j] <= 'z' {
		j++
	}
	if j == i+1 {
		return -1
	}
	return j
}

func isUpperASCII(b byte) bool { return b >= 'A' && b <= 'Z' }

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func wordRuneAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return isWordRune(r)
}

func wordRuneBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isWordRune(r)
}

// ExtractActions counts vocabulary verbs and -ing forms and returns the most
// frequent ones. Ties keep first-seen order.
func ExtractActions(text string, maxN int) []string {
	if maxN <= 0 {
		maxN = DefaultMaxActions
	}

	counts := make(map[string]int)
	order := []string{}
	for _, w := range Tokenize(text) {
		if !ActionVerbs[w] && !strings.HasSuffix(w, ParticipleSuffix) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxN {
		order = order[:maxN]
	}
	return order
}

// ExtractEmotions reports every label whose trigger occurs in the text, in
// EmotionOrder.
func ExtractEmotions(text string) []string {
	t := strings.ToLower(text)
	out := []string{}
	for _, label := range EmotionOrder {
		for _, trigger := range EmotionLexicon[label] {
			if strings.Contains(t, trigger) {
				out = append(out, label)
				break
			}
		}
	}
	return out
}

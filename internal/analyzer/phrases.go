package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

// DefaultTopK is the number of keywords kept by ExtractKeywords.
const DefaultTopK = 25

// Separators include Unicode spaces (NBSP, thin space, ...), not only ASCII.
var tokenSplit = regexp.MustCompile(`[\s\v\x1c-\x1f\x{85}\p{Z},;:()\[\].!?\-/]+`)

// Tokenize lowercases text and splits it on whitespace and punctuation.
func Tokenize(text string) []string {
	parts := tokenSplit.Split(text, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		tokens = append(tokens, strings.ToLower(p))
	}
	return tokens
}

// CandidatePhrases returns the maximal runs of non-stopword tokens.
func CandidatePhrases(text string) [][]string {
	var phrases [][]string
	var phrase []string
	for _, w := range Tokenize(text) {
		if Stopwords[w] {
			if len(phrase) > 0 {
				phrases = append(phrases, phrase)
				phrase = nil
			}
			continue
		}
		phrase = append(phrase, w)
	}
	if len(phrase) > 0 {
		phrases = append(phrases, phrase)
	}
	return phrases
}

// WordScores computes the degree/frequency ratio for every word. Both counts
// are accumulated per occurrence, so a word repeated inside one phrase counts
// twice.
func WordScores(phrases [][]string) map[string]float64 {
	freq := make(map[string]int)
	degree := make(map[string]int)
	for _, ph := range phrases {
		for _, w := range ph {
			freq[w]++
			degree[w] += len(ph) - 1
		}
	}

	scores := make(map[string]float64, len(freq))
	for w, f := range freq {
		div := f
		if div == 0 {
			div = 1
		}
		scores[w] = float64(degree[w]+f) / float64(div)
	}
	return scores
}

// ScorePhrases scores each distinct phrase and ranks them by descending score.
// Ties keep first-seen order.
func ScorePhrases(phrases [][]string) []models.Keyword {
	scores := WordScores(phrases)

	index := make(map[string]int)
	ranked := make([]models.Keyword, 0, len(phrases))
	for _, ph := range phrases {
		var s float64
		for _, w := range ph {
			s += scores[w]
		}
		text := strings.Join(ph, " ")
		if i, ok := index[text]; ok {
			ranked[i].Score = s
			continue
		}
		index[text] = len(ranked)
		ranked = append(ranked, models.Keyword{Phrase: text, Score: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// ExtractKeywords returns the topK highest scoring candidate phrases.
// topK <= 0 selects DefaultTopK.
func ExtractKeywords(text string, topK int) []models.Keyword {
	if topK <= 0 {
		topK = DefaultTopK
	}
	ranked := ScorePhrases(CandidatePhrases(text))
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

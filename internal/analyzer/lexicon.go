package analyzer

import "strings"

// Stopwords close the running candidate phrase.
var Stopwords = wordSet(`a an and the of on in by to with from or for at as is are was were be been being it this that those these
you your yours we our ours they their theirs he she his her its i me my mine not no nor but if then than so such too very just`)

// ActionVerbs is the closed vocabulary of filmable verbs. Base forms plus the
// third-person forms that show up in screenplay action lines.
var ActionVerbs = wordSet(`cut run walk talk look see watch drive type scroll shoot cook eat drink dance sing cry laugh argue fight
open close enter exit hold push pull lift throw catch point think wait sit stand write wipe pour steam rise bloom glow drift click
wipes pours walks looks enters exits sits stands types holds opens closes`)

// ParticipleSuffix marks a token as an action regardless of the vocabulary.
const ParticipleSuffix = "ing"

// Emotion labels.
const (
	EmotionHappy    = "happy"
	EmotionSad      = "sad"
	EmotionAngry    = "angry"
	EmotionFear     = "fear"
	EmotionSurprise = "surprise"
	EmotionCalm     = "calm"
	EmotionRomance  = "romance"
	EmotionHope     = "hope"
)

// EmotionLexicon maps a label to its trigger substrings. Matching is plain
// substring containment on the lowercased text, so "hope" also fires inside
// "hopeless".
var EmotionLexicon = map[string][]string{
	EmotionHappy:    {"joy", "happy", "cheer", "delight", "optimistic", "hopeful"},
	EmotionSad:      {"sad", "melancholy", "bittersweet", "lonely", "regret"},
	EmotionAngry:    {"angry", "rage", "furious", "irritated", "frustrated"},
	EmotionFear:     {"fear", "anxious", "afraid", "tense", "worried"},
	EmotionSurprise: {"surprise", "shocked", "unexpected"},
	EmotionCalm:     {"calm", "peaceful", "serene", "relaxed"},
	EmotionRomance:  {"love", "romantic", "tender"},
	EmotionHope:     {"hope", "hopeful", "aspire"},
}

// EmotionOrder is the canonical output order of emotion labels.
var EmotionOrder = []string{
	EmotionHappy, EmotionCalm, EmotionHope, EmotionRomance,
	EmotionSurprise, EmotionFear, EmotionSad, EmotionAngry,
}

// EntityDenylist holds screenplay scene-heading tokens, compared uppercased.
var EntityDenylist = map[string]bool{
	"INT":   true,
	"EXT":   true,
	"DAY":   true,
	"NIGHT": true,
}

// MinEntityLength drops very short capitalized matches such as "A" or "Mr".
const MinEntityLength = 3

func wordSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

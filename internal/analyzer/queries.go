package analyzer

import (
	"strings"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

const (
	DefaultQueryLimit = 12

	// QueryKeywordWindow is how many leading keywords are query candidates.
	QueryKeywordWindow = 15
	// QueryEntityLimit caps entities appended as-is.
	QueryEntityLimit = 4
	// Action x keyword combination inputs.
	comboActions       = 3
	comboKeywords      = 3
	shortKeywordWindow = 6
	shortKeywordWords  = 2

	minQueryWords = 1
	maxQueryWords = 6
)

type queryList struct {
	limit int
	items []string
	seen  map[string]bool
}

func (q *queryList) full() bool {
	return len(q.items) >= q.limit
}

func (q *queryList) add(s string) {
	if q.full() || s == "" || q.seen[s] {
		return
	}
	n := len(strings.Fields(s))
	if n < minQueryWords || n > maxQueryWords {
		return
	}
	q.seen[s] = true
	q.items = append(q.items, s)
}

// BuildQueries derives at most limit distinct search phrases from an analysis.
// Keywords come first, then entities; action+keyword combinations are only
// synthesized when the direct signal leaves room under the cap. For limits
// N1 < N2 the N1 result is a prefix of the N2 result.
func BuildQueries(a models.Analysis, limit int) []string {
	if limit <= 0 {
		return []string{}
	}

	q := &queryList{limit: limit, items: make([]string, 0, limit), seen: make(map[string]bool)}

	window := a.KeywordPhrases()
	if len(window) > QueryKeywordWindow {
		window = window[:QueryKeywordWindow]
	}

	for _, k := range window {
		q.add(k)
	}

	entities := a.Entities
	if len(entities) > QueryEntityLimit {
		entities = entities[:QueryEntityLimit]
	}
	for _, e := range entities {
		q.add(e)
	}

	if q.full() {
		return q.items
	}

	lead := window
	if len(lead) > shortKeywordWindow {
		lead = lead[:shortKeywordWindow]
	}
	var short []string
	for _, k := range lead {
		if len(strings.Fields(k)) <= shortKeywordWords {
			short = append(short, k)
		}
	}
	if len(short) > comboKeywords {
		short = short[:comboKeywords]
	}

	actions := a.Actions
	if len(actions) > comboActions {
		actions = actions[:comboActions]
	}
	for _, act := range actions {
		for _, k := range short {
			if q.full() {
				return q.items
			}
			q.add(act + " " + k)
		}
	}
	return q.items
}

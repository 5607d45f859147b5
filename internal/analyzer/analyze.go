// Package analyzer turns free-form script text into ranked keywords,
// entities, actions and emotions, and synthesizes search queries from them.
//
// Every function here is pure: no I/O, no shared state. Callers may run
// analyses concurrently without coordination.
package analyzer

import "github.com/Corphon/VisualMediaTool/internal/models"

// Options tunes the per-extractor caps. Zero values select the defaults.
type Options struct {
	TopK        int
	MaxEntities int
	MaxActions  int
}

// AnalyzeText runs all extractors with default caps.
func AnalyzeText(text string) models.Analysis {
	return AnalyzeTextWithOptions(text, Options{})
}

// AnalyzeTextWithOptions runs all extractors over one text block.
func AnalyzeTextWithOptions(text string, opts Options) models.Analysis {
	a := models.NewAnalysis()
	a.Keywords = append(a.Keywords, ExtractKeywords(text, opts.TopK)...)
	a.Entities = ExtractEntities(text, opts.MaxEntities)
	a.Actions = ExtractActions(text, opts.MaxActions)
	a.Emotions = ExtractEmotions(text)
	return a
}

// internal/models/analyzer.go
package models

// Keyword 一个候选短语及其得分
type Keyword struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score"`
}

// Analysis 单次提取的结果，创建后不再修改
type Analysis struct {
	Keywords []Keyword `json:"keywords"` // 按得分降序
	Entities []string  `json:"entities"` // 首次出现顺序
	Actions  []string  `json:"actions"`  // 按出现次数降序
	Emotions []string  `json:"emotions"` // 固定的规范顺序
}

// NewAnalysis 返回四个序列均为非nil的空结果
func NewAnalysis() Analysis {
	return Analysis{
		Keywords: []Keyword{},
		Entities: []string{},
		Actions:  []string{},
		Emotions: []string{},
	}
}

// KeywordPhrases 返回关键词短语（不含得分）
func (a Analysis) KeywordPhrases() []string {
	phrases := make([]string, 0, len(a.Keywords))
	for _, k := range a.Keywords {
		phrases = append(phrases, k.Phrase)
	}
	return phrases
}

// IsEmpty 四个序列是否全部为空
func (a Analysis) IsEmpty() bool {
	return len(a.Keywords) == 0 && len(a.Entities) == 0 &&
		len(a.Actions) == 0 && len(a.Emotions) == 0
}

// 分析来源
const (
	SourceAI   = "ai"
	SourceRAKE = "rake"
)

// AnalysisOutcome 分析入口的返回值：结果、查询以及实际使用的分析器
type AnalysisOutcome struct {
	Block          string   `json:"block,omitempty"`
	Analysis       Analysis `json:"analysis"`
	Queries        []string `json:"queries"`
	Source         string   `json:"source"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
}

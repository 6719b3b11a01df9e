package extract

import "context"

// Result is the tagged outcome of a text extraction attempt. A failed
// extraction is an expected, non-fatal condition: callers branch on OK
// rather than on an error value.
type Result struct {
	OK     bool
	Text   string
	Reason string
}

// Degraded builds a failed result carrying the reason extraction could
// not produce text.
func Degraded(reason string) Result {
	return Result{OK: false, Reason: reason}
}

// Extractor pulls plain text out of an uploaded document.
type Extractor interface {
	Extract(ctx context.Context, content []byte) Result
}

// ContentAnalysis describes the detected characteristics of a reference
// document.
type ContentAnalysis struct {
	ContentType       string   `json:"contentType"`
	HasFormulas       bool     `json:"hasFormulas"`
	HasDiagrams       bool     `json:"hasDiagrams"`
	HasCode           bool     `json:"hasCode"`
	HasReferences     bool     `json:"hasReferences"`
	Complexity        string   `json:"complexity"`
	SuggestedMaxScore float64  `json:"suggestedMaxScore"`
	KeyTopics         []string `json:"keyTopics"`
}

// AcademicSections is the structured breakdown of an academic document.
type AcademicSections struct {
	Title        string `json:"title"`
	Introduction string `json:"introduction"`
	Methodology  string `json:"methodology"`
	Solution     string `json:"solution"`
	Conclusion   string `json:"conclusion"`
	References   string `json:"references"`
	FullText     string `json:"fullText"`
}

// Content types recognised by the analyzer.
const (
	ContentTypeGeneral     = "general"
	ContentTypeProgramming = "programming"
	ContentTypeMath        = "mathematical"
	ContentTypeAnalytical  = "analytical"
	ContentTypeUnknown     = "unknown"
)

// Complexity levels.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

package extract

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	diagramRe  = regexp.MustCompile(`(?i)diagram|chart|figure|graph|illustration`)
	citationRe = regexp.MustCompile(`(?i)references|bibliography|citations`)
	topicRe    = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
)

// AnalyzeContent inspects extracted text and classifies its content
// type, complexity, and notable elements. It is a pure function apart
// from the injected score suggestion.
func AnalyzeContent(text string, suggest ScoreSuggester) ContentAnalysis {
	analysis := ContentAnalysis{
		ContentType:       ContentTypeGeneral,
		Complexity:        ComplexityMedium,
		SuggestedMaxScore: 100,
		KeyTopics:         []string{},
	}

	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "algorithm") || strings.Contains(lower, "programming") || strings.Contains(lower, "code"):
		analysis.ContentType = ContentTypeProgramming
		analysis.HasCode = true
	case strings.Contains(lower, "equation") || strings.Contains(lower, "formula") || strings.Contains(lower, "calculation"):
		analysis.ContentType = ContentTypeMath
		analysis.HasFormulas = true
	case strings.Contains(lower, "analysis") || strings.Contains(lower, "research") || strings.Contains(lower, "study"):
		analysis.ContentType = ContentTypeAnalytical
	}

	analysis.HasDiagrams = diagramRe.MatchString(text)
	analysis.HasReferences = citationRe.MatchString(text)

	switch {
	case len(text) > 2000 && (analysis.HasFormulas || analysis.HasCode || analysis.HasDiagrams):
		analysis.Complexity = ComplexityHigh
	case len(text) > 1000:
		analysis.Complexity = ComplexityMedium
	default:
		analysis.Complexity = ComplexityLow
	}

	if suggest != nil {
		analysis.SuggestedMaxScore = suggest(analysis.Complexity)
	}

	analysis.KeyTopics = extractKeyTopics(text, 10)

	return analysis
}

// PlaceholderAnalysis is used when text extraction fails: an unknown
// content type with medium complexity and a fallback score suggestion.
func PlaceholderAnalysis(suggest ScoreSuggester) ContentAnalysis {
	score := 50.0
	if suggest != nil {
		score = suggest("")
	}
	return ContentAnalysis{
		ContentType:       ContentTypeUnknown,
		Complexity:        ComplexityMedium,
		SuggestedMaxScore: score,
		KeyTopics:         []string{},
	}
}

// PlaceholderSections builds empty sections titled after the uploaded
// file, used when no text could be extracted.
func PlaceholderSections(fileName string) AcademicSections {
	title := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return AcademicSections{Title: title}
}

func extractKeyTopics(text string, limit int) []string {
	matches := topicRe.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	topics := make([]string, 0, limit)
	for _, topic := range matches {
		if len(topic) <= 3 || len(topic) >= 30 {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
		if len(topics) == limit {
			break
		}
	}
	return topics
}

package extract

import "strings"

// GenericGradingCriteria is used when no criteria were supplied and no
// text is available to derive them from.
const GenericGradingCriteria = "Standard grading criteria: correctness, completeness, clarity, methodology, and presentation."

// GenerateGradingCriteria derives a bullet list of grading criteria
// from the reference text's detected sections and keywords.
func GenerateGradingCriteria(text string) string {
	sections := ExtractAcademicSections(text)

	criteria := []string{
		"Correctness and accuracy of the solution",
		"Completeness of the response",
		"Clear explanation and reasoning",
	}

	if sections.Methodology != "" {
		criteria = append(criteria, "Appropriate methodology and approach")
	}

	if sections.Solution != "" {
		criteria = append(criteria,
			"Quality of problem-solving steps",
			"Logical flow and organization",
		)
	}

	if containsAny(text, "calculation", "formula", "equation") {
		criteria = append(criteria, "Mathematical accuracy and proper formulas")
	}

	if containsAny(text, "diagram", "chart", "figure") {
		criteria = append(criteria, "Use of appropriate diagrams or visual aids")
	}

	if containsAny(text, "analysis", "interpretation") {
		criteria = append(criteria, "Quality of analysis and interpretation")
	}

	criteria = append(criteria, "Professional presentation and formatting")

	return strings.Join(criteria, "\n• ")
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

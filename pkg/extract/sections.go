package extract

import (
	"regexp"
	"strings"
)

var (
	titleRe        = regexp.MustCompile(`^(.{1,100}?)(?:\n|\r)`)
	introductionRe = regexp.MustCompile(`(?i)(?:introduction|overview|background)[\s\S]*?(?:(?:methodology|method|solution|approach|conclusion)|$)`)
	methodologyRe  = regexp.MustCompile(`(?i)(?:methodology|method|approach|procedure)[\s\S]*?(?:(?:solution|results|conclusion)|$)`)
	solutionRe     = regexp.MustCompile(`(?i)(?:solution|answer|result|analysis)[\s\S]*?(?:(?:conclusion|references|bibliography)|$)`)
	conclusionRe   = regexp.MustCompile(`(?i)(?:conclusion|summary|final)[\s\S]*?(?:(?:references|bibliography)|$)`)
	referencesRe   = regexp.MustCompile(`(?i)(?:references|bibliography|citations)[\s\S]*$`)
)

// ExtractAcademicSections splits extracted text into the common
// structural sections of an academic document. Sections that cannot be
// located stay empty; FullText always carries the input.
func ExtractAcademicSections(text string) AcademicSections {
	sections := AcademicSections{FullText: text}

	if match := titleRe.FindStringSubmatch(text); match != nil {
		sections.Title = strings.TrimSpace(match[1])
	} else if len(text) > 0 {
		end := len(text)
		if end > 100 {
			end = 100
		}
		sections.Title = strings.TrimSpace(text[:end])
	}

	sections.Introduction = firstMatch(introductionRe, text)
	sections.Methodology = firstMatch(methodologyRe, text)
	sections.Solution = firstMatch(solutionRe, text)
	sections.Conclusion = firstMatch(conclusionRe, text)
	sections.References = firstMatch(referencesRe, text)

	return sections
}

func firstMatch(re *regexp.Regexp, text string) string {
	if match := re.FindString(text); match != "" {
		return strings.TrimSpace(match)
	}
	return ""
}

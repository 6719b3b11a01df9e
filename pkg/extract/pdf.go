package extract

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	extractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assess",
		Subsystem: "extract",
		Name:      "duration_seconds",
		Help:      "Duration of PDF text extraction",
	})

	extractFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "assess",
		Subsystem: "extract",
		Name:      "failures_total",
		Help:      "Number of degraded PDF text extractions",
	})
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	pageNumberRe  = regexp.MustCompile(`(?i)Page \d+`)
	bareNumberRe  = regexp.MustCompile(`(?m)^\d+\s*$`)
	camelBreakRe  = regexp.MustCompile(`([a-z])([A-Z])`)
	punctSpaceRe  = regexp.MustCompile(`\s+([.,;:!?])`)
	punctGlueRe   = regexp.MustCompile(`([.,;:!?])([A-Za-z])`)
	doubleBreakRe = regexp.MustCompile(`\n\s*\n`)
)

// PDFExtractor extracts plain text from PDF documents.
type PDFExtractor struct {
	logger zerolog.Logger
}

// NewPDFExtractor builds a PDF extractor.
func NewPDFExtractor(logger zerolog.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger.With().Str("component", "pdf_extractor").Logger()}
}

// Extract reads the PDF and returns its cleaned plain text. Extraction
// problems produce a degraded Result, never an error: the ingest
// pipeline treats missing text as an expected condition.
func (e *PDFExtractor) Extract(_ context.Context, content []byte) Result {
	start := time.Now()
	defer func() {
		extractDuration.Observe(time.Since(start).Seconds())
	}()

	result := e.extract(content)
	if !result.OK {
		extractFailures.Inc()
		e.logger.Warn().Str("reason", result.Reason).Msg("pdf text extraction degraded")
	}
	return result
}

func (e *PDFExtractor) extract(content []byte) (result Result) {
	// The pdf package panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			result = Degraded("pdf reader panicked")
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Degraded("unreadable pdf: " + err.Error())
	}

	var builder strings.Builder
	for page := 1; page <= reader.NumPage(); page++ {
		p := reader.Page(page)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	cleaned := CleanText(builder.String())
	if cleaned == "" {
		return Degraded("no extractable text")
	}

	return Result{OK: true, Text: cleaned}
}

// CleanText normalises raw extracted text: collapses whitespace, strips
// page numbers, and repairs spacing around punctuation and glued words.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	cleaned := pageNumberRe.ReplaceAllString(text, "")
	cleaned = bareNumberRe.ReplaceAllString(cleaned, "")
	cleaned = doubleBreakRe.ReplaceAllString(cleaned, "\n")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = camelBreakRe.ReplaceAllString(cleaned, "$1 $2")
	cleaned = punctSpaceRe.ReplaceAllString(cleaned, "$1")
	cleaned = punctGlueRe.ReplaceAllString(cleaned, "$1 $2")

	return strings.TrimSpace(cleaned)
}

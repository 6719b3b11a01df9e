package dto

import (
	"time"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/pkg/extract"
)

// referenceTextPreviewLimit bounds how much extracted text is echoed
// back in upload responses.
const referenceTextPreviewLimit = 200

// ReferenceUploadInput carries the multipart form fields accompanying
// a reference solution upload.
type ReferenceUploadInput struct {
	AssignmentID    string   `validate:"required"`
	ModuleID        *string  `validate:"omitempty"`
	GradingCriteria string   `validate:"omitempty"`
	MaxScore        *float64 `validate:"omitempty,gt=0"`
}

// ReferencePreview is the lightweight projection of a processed
// reference solution returned alongside upload responses.
type ReferencePreview struct {
	Title                    string   `json:"title"`
	ContentType              string   `json:"content_type"`
	Complexity               string   `json:"complexity"`
	KeyTopics                []string `json:"key_topics"`
	HasFormulas              bool     `json:"has_formulas"`
	HasCode                  bool     `json:"has_code"`
	TextExtractionSuccessful bool     `json:"text_extraction_successful"`
}

// ReferenceResponse serializes a stored reference solution. The
// reference text is truncated for response economy.
type ReferenceResponse struct {
	ID                       string           `json:"id"`
	AssignmentID             string           `json:"assignment_id"`
	ModuleID                 *string          `json:"module_id"`
	EducatorID               string           `json:"educator_id"`
	ReferenceText            string           `json:"reference_text"`
	FileName                 string           `json:"file_name"`
	FileSize                 int64            `json:"file_size"`
	FileType                 string           `json:"file_type"`
	FileURL                  string           `json:"file_url"`
	GradingCriteria          string           `json:"grading_criteria"`
	MaxScore                 float64          `json:"max_score"`
	ProcessingCompleted      bool             `json:"processing_completed"`
	ExtractedLength          int              `json:"extracted_length"`
	TextExtractionSuccessful bool             `json:"text_extraction_successful"`
	ExtractionMethod         string           `json:"extraction_method"`
	CreatedAt                time.Time        `json:"created_at"`
	Preview                  ReferencePreview `json:"preview"`
}

// ReferenceUploadResponse is the payload of a successful upload.
type ReferenceUploadResponse struct {
	Message            string            `json:"message"`
	ReferenceID        string            `json:"reference_id"`
	SubmissionsUpdated int64             `json:"submissions_updated"`
	Reference          ReferenceResponse `json:"reference"`
}

// NewReferenceResponse maps a stored reference plus its analysis into
// the response shape.
func NewReferenceResponse(reference models.ReferenceSolution, analysis extract.ContentAnalysis, sections extract.AcademicSections) ReferenceResponse {
	topics := analysis.KeyTopics
	if len(topics) > 5 {
		topics = topics[:5]
	}

	title := sections.Title
	if title == "" {
		title = reference.FileName
	}

	return ReferenceResponse{
		ID:                       reference.ID,
		AssignmentID:             reference.AssignmentID,
		ModuleID:                 reference.ModuleID,
		EducatorID:               reference.EducatorID,
		ReferenceText:            TruncateText(reference.ReferenceText, referenceTextPreviewLimit),
		FileName:                 reference.FileName,
		FileSize:                 reference.FileSize,
		FileType:                 reference.FileType,
		FileURL:                  reference.FileURL,
		GradingCriteria:          reference.GradingCriteria,
		MaxScore:                 reference.MaxScore,
		ProcessingCompleted:      reference.ProcessingCompleted,
		ExtractedLength:          reference.ExtractedLength,
		TextExtractionSuccessful: reference.TextExtractionSuccessful,
		ExtractionMethod:         reference.ExtractionMethod,
		CreatedAt:                reference.CreatedAt,
		Preview: ReferencePreview{
			Title:                    title,
			ContentType:              analysis.ContentType,
			Complexity:               analysis.Complexity,
			KeyTopics:                topics,
			HasFormulas:              analysis.HasFormulas,
			HasCode:                  analysis.HasCode,
			TextExtractionSuccessful: reference.TextExtractionSuccessful,
		},
	}
}

// TruncateText shortens text to the limit, appending an ellipsis when
// content was cut.
func TruncateText(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

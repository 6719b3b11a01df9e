package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/dto"
	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/internal/observability"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
	"github.com/hexlabs-dev/assess-go-api/pkg/extract"
)

// referenceMaxFileSize is the upload ceiling, enforced before any
// extraction attempt. A file of exactly this size is accepted.
const referenceMaxFileSize = 10 * 1024 * 1024

const referencePDFMimeType = "application/pdf"

var (
	// ErrReferenceFileRequired indicates no file accompanied the upload.
	ErrReferenceFileRequired = errors.New("reference file is required")
	// ErrReferenceFileTooLarge indicates the upload exceeds the size ceiling.
	ErrReferenceFileTooLarge = errors.New("reference file exceeds maximum allowed size")
	// ErrReferenceFileType indicates the upload is not a PDF document.
	ErrReferenceFileType = errors.New("reference file must be a PDF document")
	// ErrAssignmentNotFound indicates the assignment exists in neither location.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrNotAssignmentOwner indicates the assignment belongs to a different educator.
	ErrNotAssignmentOwner = errors.New("assignment belongs to a different educator")
	// ErrReferenceNotFound indicates no reference solution exists for the assignment.
	ErrReferenceNotFound = errors.New("reference solution not found")
)

// FileStorage abstracts the destination for uploaded reference files.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// ReferenceIngestService runs the reference solution pipeline:
// validation, extraction, analysis, criteria synthesis, persistence,
// assignment linking, and fan-out to pending submissions.
type ReferenceIngestService interface {
	Ingest(ctx context.Context, input dto.ReferenceUploadInput, file *multipart.FileHeader, actor Actor) (dto.ReferenceUploadResponse, error)
	GetCurrent(ctx context.Context, assignmentID string, moduleID *string, actor Actor) (dto.ReferenceResponse, error)
}

type referenceIngestService struct {
	references  repository.ReferenceSolutionRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	extractor   extract.Extractor
	storage     FileStorage
	suggest     extract.ScoreSuggester
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewReferenceIngestService constructs the ingest pipeline.
func NewReferenceIngestService(
	references repository.ReferenceSolutionRepository,
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	extractor extract.Extractor,
	storage FileStorage,
	suggest extract.ScoreSuggester,
	validate *validator.Validate,
	logger zerolog.Logger,
) ReferenceIngestService {
	return &referenceIngestService{
		references:  references,
		assignments: assignments,
		submissions: submissions,
		extractor:   extractor,
		storage:     storage,
		suggest:     suggest,
		validator:   validate,
		logger:      logger.With().Str("component", "reference_ingest_service").Logger(),
		tracer:      otel.Tracer("github.com/hexlabs-dev/assess-go-api/internal/service/reference_ingest"),
		now:         time.Now,
	}
}

func (s *referenceIngestService) Ingest(ctx context.Context, input dto.ReferenceUploadInput, file *multipart.FileHeader, actor Actor) (dto.ReferenceUploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reference.ingest")
	span.SetAttributes(
		attribute.String("reference.assignment_id", input.AssignmentID),
		attribute.String("reference.actor_role", actor.Role),
	)
	defer span.End()

	if err := s.validator.Struct(input); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReferenceUploadResponse{}, err
	}

	content, err := s.validateFile(file)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "file_rejected")
		return dto.ReferenceUploadResponse{}, err
	}

	assignment, err := s.assignments.Resolve(ctx, input.AssignmentID, input.ModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assignment_not_found")
			return dto.ReferenceUploadResponse{}, ErrAssignmentNotFound
		}
		span.RecordError(err)
		return dto.ReferenceUploadResponse{}, err
	}

	// Assignments without an owning educator are shared templates any
	// educator or admin may attach a reference to.
	if actor.IsEducator() && assignment.EducatorID != nil && !assignment.OwnedBy(actor.ID) {
		span.SetStatus(codes.Error, "ownership_mismatch")
		return dto.ReferenceUploadResponse{}, ErrNotAssignmentOwner
	}

	result := s.extractor.Extract(ctx, content)
	span.SetAttributes(attribute.Bool("reference.extraction_ok", result.OK))

	var analysis extract.ContentAnalysis
	var sections extract.AcademicSections

	if result.OK {
		analysis = extract.AnalyzeContent(result.Text, s.suggest)
		sections = extract.ExtractAcademicSections(result.Text)
	} else {
		analysis = extract.PlaceholderAnalysis(s.suggest)
		sections = extract.PlaceholderSections(file.Filename)
	}

	criteria := input.GradingCriteria
	if criteria == "" {
		if result.OK {
			criteria = extract.GenerateGradingCriteria(result.Text)
		} else {
			criteria = extract.GenericGradingCriteria
		}
	}

	maxScore := assignment.MaxScore
	if analysis.SuggestedMaxScore > 0 {
		maxScore = analysis.SuggestedMaxScore
	}
	if input.MaxScore != nil && *input.MaxScore > 0 {
		maxScore = *input.MaxScore
	}

	fileURL := s.storeFile(ctx, file, content)

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return dto.ReferenceUploadResponse{}, fmt.Errorf("marshal content analysis: %w", err)
	}
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return dto.ReferenceUploadResponse{}, fmt.Errorf("marshal academic sections: %w", err)
	}

	extractionMethod := models.ExtractionMethodAutomatic
	if !result.OK {
		extractionMethod = models.ExtractionMethodManualRequired
	}

	reference := models.ReferenceSolution{
		AssignmentID:             assignment.ID,
		ModuleID:                 input.ModuleID,
		EducatorID:               actor.ID,
		ReferenceText:            result.Text,
		AcademicSections:         datatypes.JSON(sectionsJSON),
		ContentAnalysis:          datatypes.JSON(analysisJSON),
		FileName:                 file.Filename,
		FileSize:                 file.Size,
		FileType:                 referencePDFMimeType,
		FileURL:                  fileURL,
		GradingCriteria:          criteria,
		MaxScore:                 maxScore,
		AssignmentTitle:          assignment.Title,
		AssignmentDescription:    assignment.Description,
		ProcessingCompleted:      true,
		ExtractedLength:          len(result.Text),
		TextExtractionSuccessful: result.OK,
		ExtractionMethod:         extractionMethod,
		CreatedAt:                s.now(),
	}

	if err := s.references.Create(ctx, &reference); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reference_persist_failed")
		return dto.ReferenceUploadResponse{}, err
	}

	if err := s.assignments.LinkReferenceSolution(ctx, assignment.ID, reference.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_link_failed")
		return dto.ReferenceUploadResponse{}, err
	}

	// Fan-out is best-effort: the reference is already durable, so a
	// failure here is logged and the upload still succeeds.
	submissionsUpdated, err := s.submissions.MarkReferenceAvailable(ctx, assignment.ID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("assignment_id", assignment.ID).
			Msg("failed to fan out reference availability to submissions")
		span.RecordError(err)
		submissionsUpdated = 0
	}
	observability.ReferenceFanout().Observe(float64(submissionsUpdated))

	span.SetAttributes(
		attribute.String("reference.id", reference.ID),
		attribute.Int64("reference.submissions_updated", submissionsUpdated),
	)

	s.logger.Info().
		Str("reference_id", reference.ID).
		Str("assignment_id", assignment.ID).
		Bool("extraction_ok", result.OK).
		Int64("submissions_updated", submissionsUpdated).
		Msg("reference solution ingested")

	return dto.ReferenceUploadResponse{
		Message:            ingestMessage(result.OK, submissionsUpdated),
		ReferenceID:        reference.ID,
		SubmissionsUpdated: submissionsUpdated,
		Reference:          dto.NewReferenceResponse(reference, analysis, sections),
	}, nil
}

func (s *referenceIngestService) GetCurrent(ctx context.Context, assignmentID string, moduleID *string, actor Actor) (dto.ReferenceResponse, error) {
	assignment, err := s.assignments.Resolve(ctx, assignmentID, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReferenceResponse{}, ErrAssignmentNotFound
		}
		return dto.ReferenceResponse{}, err
	}

	if actor.IsEducator() && assignment.EducatorID != nil && !assignment.OwnedBy(actor.ID) {
		return dto.ReferenceResponse{}, ErrNotAssignmentOwner
	}

	reference, err := s.references.Latest(ctx, assignment.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReferenceResponse{}, ErrReferenceNotFound
		}
		return dto.ReferenceResponse{}, err
	}

	var analysis extract.ContentAnalysis
	if len(reference.ContentAnalysis) > 0 {
		if err := json.Unmarshal(reference.ContentAnalysis, &analysis); err != nil {
			s.logger.Warn().Err(err).Str("reference_id", reference.ID).Msg("failed to decode stored content analysis")
		}
	}

	var sections extract.AcademicSections
	if len(reference.AcademicSections) > 0 {
		if err := json.Unmarshal(reference.AcademicSections, &sections); err != nil {
			s.logger.Warn().Err(err).Str("reference_id", reference.ID).Msg("failed to decode stored academic sections")
		}
	}

	return dto.NewReferenceResponse(reference, analysis, sections), nil
}

// validateFile checks presence, size, and MIME type before any
// extraction attempt, and returns the file content on success.
func (s *referenceIngestService) validateFile(file *multipart.FileHeader) ([]byte, error) {
	if file == nil {
		return nil, ErrReferenceFileRequired
	}

	if file.Size > referenceMaxFileSize {
		return nil, ErrReferenceFileTooLarge
	}

	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open reference file: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}

	if !mimetype.Detect(content).Is(referencePDFMimeType) {
		return nil, ErrReferenceFileType
	}

	return content, nil
}

// storeFile uploads the raw document so graders can link back to it.
// Storage transport failures are logged, not fatal.
func (s *referenceIngestService) storeFile(ctx context.Context, file *multipart.FileHeader, content []byte) string {
	if s.storage == nil {
		return ""
	}

	url, err := s.storage.Upload(ctx, file.Filename, bytes.NewReader(content))
	if err != nil {
		s.logger.Warn().Err(err).Str("file_name", file.Filename).Msg("failed to store reference file")
		return ""
	}
	return url
}

func ingestMessage(extractionOK bool, submissionsUpdated int64) string {
	message := "Reference solution uploaded and processed successfully"
	if !extractionOK {
		message = "Reference solution uploaded successfully (text extraction not available - manual grading criteria will be used)"
	}
	if submissionsUpdated > 0 {
		message += fmt.Sprintf(". Updated AI progress for %d submissions.", submissionsUpdated)
	}
	return message
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/dto"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
	"github.com/hexlabs-dev/assess-go-api/pkg/ai"
)

var (
	// ErrSubmissionNotFound indicates the submission could not be located.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrNotAuthorized indicates the actor may not act on this submission.
	ErrNotAuthorized = errors.New("not authorized for this submission")
	// ErrGradingFailed indicates the external grading service failed.
	// No submission state is mutated when this is returned.
	ErrGradingFailed = errors.New("ai grading failed")
)

// AIGradingService invokes the external grading service for a
// submission and reconciles the result across submission state.
type AIGradingService interface {
	Grade(ctx context.Context, submissionID string, actor Actor) (dto.GradeSubmissionResponse, PropagationOutcome, error)
	GetGrading(ctx context.Context, submissionID string, actor Actor) (dto.AIGradingDetailResponse, error)
}

type aiGradingService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	references  repository.ReferenceSolutionRepository
	grader      ai.Grader
	reconciler  SubmissionReconciler
	timeout     time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewAIGradingService constructs the grading invoker.
func NewAIGradingService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	references repository.ReferenceSolutionRepository,
	grader ai.Grader,
	reconciler SubmissionReconciler,
	timeout time.Duration,
	logger zerolog.Logger,
) AIGradingService {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &aiGradingService{
		submissions: submissions,
		assignments: assignments,
		references:  references,
		grader:      grader,
		reconciler:  reconciler,
		timeout:     timeout,
		logger:      logger.With().Str("component", "ai_grading_service").Logger(),
		tracer:      otel.Tracer("github.com/hexlabs-dev/assess-go-api/internal/service/ai_grading"),
	}
}

func (s *aiGradingService) Grade(ctx context.Context, submissionID string, actor Actor) (dto.GradeSubmissionResponse, PropagationOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "grading.invoke")
	span.SetAttributes(
		attribute.String("grading.submission_id", submissionID),
		attribute.String("grading.actor_role", actor.Role),
	)
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.GradeSubmissionResponse{}, PropagationOutcome{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.GradeSubmissionResponse{}, PropagationOutcome{}, err
	}

	if actor.IsEducator() && submission.EducatorID != actor.ID {
		span.SetStatus(codes.Error, "ownership_mismatch")
		return dto.GradeSubmissionResponse{}, PropagationOutcome{}, ErrNotAuthorized
	}

	assignment, err := s.assignments.Resolve(ctx, submission.AssignmentID, submission.ModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "assignment_not_found")
			return dto.GradeSubmissionResponse{}, PropagationOutcome{}, ErrAssignmentNotFound
		}
		span.RecordError(err)
		return dto.GradeSubmissionResponse{}, PropagationOutcome{}, err
	}

	// Grading without any reference must still be attemptable: fall
	// back to the assignment description as criteria.
	input := ai.GradingInput{
		StudentSubmission:     submission.SubmissionText,
		AssignmentTitle:       assignment.Title,
		AssignmentDescription: assignment.Description,
		GradingCriteria:       assignment.Description,
		MaxScore:              assignment.MaxScore,
		StudentFileURL:        submission.FileURL,
	}

	hasReference := false
	reference, err := s.references.Latest(ctx, submission.AssignmentID)
	switch {
	case err == nil:
		hasReference = reference.ReferenceText != ""
		input.ReferenceSolution = reference.ReferenceText
		input.ReferenceFileURL = reference.FileURL
		if reference.GradingCriteria != "" {
			input.GradingCriteria = reference.GradingCriteria
		}
		if reference.MaxScore > 0 {
			input.MaxScore = reference.MaxScore
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Debug().Str("assignment_id", submission.AssignmentID).Msg("no reference solution, grading from assignment description")
	default:
		span.RecordError(err)
		return dto.GradeSubmissionResponse{}, PropagationOutcome{}, err
	}

	span.SetAttributes(attribute.Bool("grading.has_reference", hasReference))

	gradeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome, err := s.grader.Grade(gradeCtx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading_service_failed")
		return dto.GradeSubmissionResponse{}, PropagationOutcome{}, fmt.Errorf("%w: %v", ErrGradingFailed, err)
	}

	updated, propagation, err := s.reconciler.Reconcile(ctx, submission, outcome, hasReference, actor.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile_failed")
		return dto.GradeSubmissionResponse{}, propagation, err
	}

	span.SetAttributes(
		attribute.Float64("grading.score", outcome.Score),
		attribute.Float64("grading.confidence", outcome.Confidence),
	)

	s.logger.Info().
		Str("submission_id", submission.ID).
		Float64("score", outcome.Score).
		Float64("confidence", outcome.Confidence).
		Bool("has_reference", hasReference).
		Msg("submission graded")

	return dto.GradeSubmissionResponse{
		Message:      "Submission graded successfully with AI",
		SubmissionID: submission.ID,
		Grading:      dto.NewGradingSummary(outcome, hasReference),
		Submission:   dto.NewSubmissionResponse(updated),
	}, propagation, nil
}

func (s *aiGradingService) GetGrading(ctx context.Context, submissionID string, actor Actor) (dto.AIGradingDetailResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AIGradingDetailResponse{}, ErrSubmissionNotFound
		}
		return dto.AIGradingDetailResponse{}, err
	}

	if actor.IsEducator() && submission.EducatorID != actor.ID {
		return dto.AIGradingDetailResponse{}, ErrNotAuthorized
	}
	if actor.IsStudent() && submission.StudentID != actor.ID {
		return dto.AIGradingDetailResponse{}, ErrNotAuthorized
	}

	return dto.AIGradingDetailResponse{
		SubmissionID: submission.ID,
		AIGrading:    dto.NewAIGradingView(submission),
		HasAIGrading: submission.HasAIGrade(),
	}, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
	"github.com/hexlabs-dev/assess-go-api/pkg/ai"
)

// PropagationOutcome reports which copies of submission state a
// reconciliation run managed to update. The canonical write is
// mandatory; mirror writes are best-effort and may lag behind until a
// later read-repair.
type PropagationOutcome struct {
	CanonicalUpdated     bool `json:"canonical_updated"`
	MirrorUpdated        bool `json:"mirror_updated"`
	ProjectRecordUpdated bool `json:"project_record_updated"`
}

// SubmissionReconciler writes a grading outcome to the canonical
// submission and then mirrors it into the student's denormalized
// copies.
type SubmissionReconciler interface {
	Reconcile(ctx context.Context, submission models.Submission, outcome ai.GradingOutcome, hasReference bool, gradedBy string) (models.Submission, PropagationOutcome, error)
}

type submissionReconciler struct {
	submissions repository.SubmissionRepository
	mirrors     repository.MirrorRepository
	events      GradingEventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionReconciler constructs the reconciler.
func NewSubmissionReconciler(
	submissions repository.SubmissionRepository,
	mirrors repository.MirrorRepository,
	events GradingEventPublisher,
	logger zerolog.Logger,
) SubmissionReconciler {
	return &submissionReconciler{
		submissions: submissions,
		mirrors:     mirrors,
		events:      events,
		logger:      logger.With().Str("component", "submission_reconciler").Logger(),
		tracer:      otel.Tracer("github.com/hexlabs-dev/assess-go-api/internal/service/reconciler"),
		now:         time.Now,
	}
}

func (r *submissionReconciler) Reconcile(ctx context.Context, submission models.Submission, outcome ai.GradingOutcome, hasReference bool, gradedBy string) (models.Submission, PropagationOutcome, error) {
	ctx, span := r.tracer.Start(ctx, "reconciler.apply")
	span.SetAttributes(
		attribute.String("submission.id", submission.ID),
		attribute.String("submission.type", submission.SubmissionType),
	)
	defer span.End()

	propagation := PropagationOutcome{}

	snapshot, err := newGradeSnapshot(outcome, gradedBy, r.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot_build_failed")
		return models.Submission{}, propagation, err
	}

	// Step 1, mandatory: the canonical record is the source of truth
	// and its failure fails the whole grading operation.
	if err := r.submissions.ApplyAIGrade(ctx, submission.ID, snapshot, hasReference); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "canonical_write_failed")
		return models.Submission{}, propagation, err
	}
	propagation.CanonicalUpdated = true

	if r.events != nil {
		event := GradingEvent{
			SubmissionID: submission.ID,
			StudentID:    submission.StudentID,
			AssignmentID: submission.AssignmentID,
			Score:        outcome.Score,
			Percentage:   outcome.Percentage,
			Confidence:   outcome.Confidence,
			GradedBy:     gradedBy,
			GradedAt:     *snapshot.AIGradedAt,
		}
		if err := r.events.Publish(ctx, event); err != nil {
			r.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to publish grading event")
		}
	}

	// Step 2, best-effort: the student's personal submission copy.
	if err := r.mirrors.ApplyAIGradeToMirror(ctx, submission.ID, snapshot, hasReference); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn().Err(err).
				Str("submission_id", submission.ID).
				Str("student_id", submission.StudentID).
				Msg("failed to update student submission mirror")
			span.RecordError(err)
		}
	} else {
		propagation.MirrorUpdated = true
	}

	// Step 3, best-effort: project assignments adopt the AI score as
	// their final grade by policy.
	if submission.IsProjectAssignment() {
		if err := r.mirrors.ApplyAIGradeToProjectRecord(ctx, *submission.ProjectAssignmentID, snapshot, outcome.Score, gradedBy); err != nil {
			r.logger.Warn().Err(err).
				Str("submission_id", submission.ID).
				Str("project_assignment_id", *submission.ProjectAssignmentID).
				Msg("failed to update project assignment record")
			span.RecordError(err)
		} else {
			propagation.ProjectRecordUpdated = true
		}
	}

	span.SetAttributes(
		attribute.Bool("reconcile.mirror_updated", propagation.MirrorUpdated),
		attribute.Bool("reconcile.project_updated", propagation.ProjectRecordUpdated),
	)

	updated, err := r.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		// The canonical write already succeeded; reading it back is a
		// convenience for the response payload.
		r.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to reload submission after grading")
		updated = submission
		updated.AIGradeSnapshot = snapshot
		updated.Status = models.SubmissionStatusAIGraded
		updated.HasReferenceSolution = hasReference
	}

	return updated, propagation, nil
}

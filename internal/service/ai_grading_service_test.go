package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
	"github.com/hexlabs-dev/assess-go-api/internal/service"
	"github.com/hexlabs-dev/assess-go-api/pkg/ai"
)

// fakeGrader records its input and returns a canned outcome.
type fakeGrader struct {
	input   ai.GradingInput
	outcome ai.GradingOutcome
	err     error
}

func (f *fakeGrader) Grade(_ context.Context, input ai.GradingInput) (ai.GradingOutcome, error) {
	f.input = input
	if f.err != nil {
		return ai.GradingOutcome{}, f.err
	}
	return f.outcome, nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []service.GradingEvent
	err    error
}

func (c *capturedEvents) Publish(_ context.Context, event service.GradingEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func passingOutcome() ai.GradingOutcome {
	return ai.GradingOutcome{
		Score:           85,
		Percentage:      85,
		Grade:           "B",
		OverallFeedback: "Well structured answer.",
		Confidence:      0.9,
		GradingMethod:   ai.GradingMethodComparison,
	}
}

func newGradingService(t *testing.T, db *gorm.DB, grader ai.Grader, events service.GradingEventPublisher) service.AIGradingService {
	t.Helper()

	submissions := repository.NewSubmissionRepository(db)
	mirrors := repository.NewMirrorRepository(db)
	reconciler := service.NewSubmissionReconciler(submissions, mirrors, events, zerolog.Nop())

	return service.NewAIGradingService(
		submissions,
		repository.NewAssignmentRepository(db),
		repository.NewReferenceSolutionRepository(db),
		grader,
		reconciler,
		time.Minute,
		zerolog.Nop(),
	)
}

func TestGradeWithReferencePropagatesEverywhere(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID, MaxScore: 100})

	reference := models.ReferenceSolution{
		ID:              "ref-1",
		AssignmentID:    "a-1",
		EducatorID:      educatorID,
		ReferenceText:   "model answer",
		GradingCriteria: "Correctness above all.",
		MaxScore:        90,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, db.Create(&reference).Error)

	submission := models.Submission{
		AssignmentID:   "a-1",
		StudentID:      "s-1",
		EducatorID:     educatorID,
		SubmissionText: "student answer",
		Status:         models.SubmissionStatusSubmitted,
	}
	require.NoError(t, db.Create(&submission).Error)
	require.NoError(t, db.Create(&models.StudentSubmissionMirror{
		SubmissionID: submission.ID, StudentID: "s-1", AssignmentID: "a-1", AssignmentTitle: "Essay", MaxPoints: 100,
		Status: models.SubmissionStatusSubmitted,
	}).Error)

	grader := &fakeGrader{outcome: passingOutcome()}
	events := &capturedEvents{}
	svc := newGradingService(t, db, grader, events)

	resp, propagation, err := svc.Grade(context.Background(), submission.ID, educatorActor(educatorID))
	require.NoError(t, err)
	require.True(t, propagation.CanonicalUpdated)
	require.True(t, propagation.MirrorUpdated)
	require.False(t, propagation.ProjectRecordUpdated)

	require.Equal(t, 85.0, resp.Grading.Score)
	require.True(t, resp.Grading.HasReferenceSolution)
	require.Equal(t, models.SubmissionStatusAIGraded, resp.Submission.Status)

	// Reference data reached the grader with the reference's criteria
	// and max score taking precedence over the assignment's.
	require.Equal(t, "model answer", grader.input.ReferenceSolution)
	require.Equal(t, "Correctness above all.", grader.input.GradingCriteria)
	require.Equal(t, 90.0, grader.input.MaxScore)

	var mirror models.StudentSubmissionMirror
	require.NoError(t, db.First(&mirror, "submission_id = ?", submission.ID).Error)
	require.Equal(t, models.SubmissionStatusAIGraded, mirror.Status)
	require.NotNil(t, mirror.AIGrade)
	require.Equal(t, 85.0, *mirror.AIGrade)

	require.Len(t, events.events, 1)
	require.Equal(t, submission.ID, events.events[0].SubmissionID)
	require.Equal(t, 85.0, events.events[0].Score)
}

func TestGradeWithoutReferenceUsesAssignmentDescription(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", Description: "Discuss entropy.", EducatorID: &educatorID, MaxScore: 50})

	submission := models.Submission{AssignmentID: "a-1", StudentID: "s-1", EducatorID: educatorID, SubmissionText: "answer", Status: models.SubmissionStatusSubmitted}
	require.NoError(t, db.Create(&submission).Error)

	grader := &fakeGrader{outcome: passingOutcome()}
	svc := newGradingService(t, db, grader, &capturedEvents{})

	resp, propagation, err := svc.Grade(context.Background(), submission.ID, educatorActor(educatorID))
	require.NoError(t, err)
	require.True(t, propagation.CanonicalUpdated)
	// No mirror exists for this submission; its absence is tolerated.
	require.False(t, propagation.MirrorUpdated)
	require.False(t, resp.Grading.HasReferenceSolution)

	require.Empty(t, grader.input.ReferenceSolution)
	require.Equal(t, "Discuss entropy.", grader.input.GradingCriteria)
	require.Equal(t, 50.0, grader.input.MaxScore)
}

func TestGradeProjectAssignmentAdoptsFinalGrade(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Project", EducatorID: &educatorID, MaxScore: 100})

	projectID := "pa-1"
	submission := models.Submission{
		AssignmentID:        "a-1",
		StudentID:           "s-1",
		EducatorID:          educatorID,
		SubmissionText:      "project report",
		Status:              models.SubmissionStatusSubmitted,
		SubmissionType:      models.SubmissionTypeProjectAssignment,
		ProjectAssignmentID: &projectID,
	}
	require.NoError(t, db.Create(&submission).Error)
	require.NoError(t, db.Create(&models.ProjectAssignmentRecord{
		ID: projectID, StudentID: "s-1", AssignmentID: "a-1", SubmissionID: submission.ID,
		Status: models.SubmissionStatusSubmitted,
	}).Error)

	svc := newGradingService(t, db, &fakeGrader{outcome: passingOutcome()}, &capturedEvents{})

	_, propagation, err := svc.Grade(context.Background(), submission.ID, educatorActor(educatorID))
	require.NoError(t, err)
	require.True(t, propagation.ProjectRecordUpdated)

	var record models.ProjectAssignmentRecord
	require.NoError(t, db.First(&record, "id = ?", projectID).Error)
	require.True(t, record.IsGraded)
	require.NotNil(t, record.FinalGrade)
	require.Equal(t, 85.0, *record.FinalGrade)
	require.Equal(t, educatorID, record.GradedBy)
}

func TestGradeFailureLeavesSubmissionUntouched(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	submission := models.Submission{AssignmentID: "a-1", StudentID: "s-1", EducatorID: educatorID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, db.Create(&submission).Error)

	grader := &fakeGrader{err: fmt.Errorf("model overloaded")}
	svc := newGradingService(t, db, grader, &capturedEvents{})

	_, _, err := svc.Grade(context.Background(), submission.ID, educatorActor(educatorID))
	require.ErrorIs(t, err, service.ErrGradingFailed)

	var got models.Submission
	require.NoError(t, db.First(&got, "id = ?", submission.ID).Error)
	require.Equal(t, models.SubmissionStatusSubmitted, got.Status)
	require.Nil(t, got.AIGrade)
}

func TestGradeOwnershipEnforced(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	submission := models.Submission{AssignmentID: "a-1", StudentID: "s-1", EducatorID: educatorID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, db.Create(&submission).Error)

	svc := newGradingService(t, db, &fakeGrader{outcome: passingOutcome()}, &capturedEvents{})

	_, _, err := svc.Grade(context.Background(), submission.ID, educatorActor("e-2"))
	require.ErrorIs(t, err, service.ErrNotAuthorized)

	// Admins may grade any submission.
	_, _, err = svc.Grade(context.Background(), submission.ID, service.Actor{ID: "admin-1", Role: service.RoleAdmin})
	require.NoError(t, err)
}

func TestGradeUnknownSubmission(t *testing.T) {
	db := testDB(t)
	svc := newGradingService(t, db, &fakeGrader{outcome: passingOutcome()}, &capturedEvents{})

	_, _, err := svc.Grade(context.Background(), "missing", educatorActor("e-1"))
	require.ErrorIs(t, err, service.ErrSubmissionNotFound)
}

func TestGradeEventFailureIsNotFatal(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	submission := models.Submission{AssignmentID: "a-1", StudentID: "s-1", EducatorID: educatorID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, db.Create(&submission).Error)

	events := &capturedEvents{err: fmt.Errorf("nats down")}
	svc := newGradingService(t, db, &fakeGrader{outcome: passingOutcome()}, events)

	_, propagation, err := svc.Grade(context.Background(), submission.ID, educatorActor(educatorID))
	require.NoError(t, err)
	require.True(t, propagation.CanonicalUpdated)
}

func TestGetGradingAuthorization(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	grade := 91.0
	confidence := 0.95
	gradedAt := time.Now().UTC()
	submission := models.Submission{
		AssignmentID: "a-1",
		StudentID:    "s-1",
		EducatorID:   educatorID,
		Status:       models.SubmissionStatusAIGraded,
		AIGradeSnapshot: models.AIGradeSnapshot{
			AIGrade:      &grade,
			AIConfidence: &confidence,
			AIGradedAt:   &gradedAt,
		},
	}
	require.NoError(t, db.Create(&submission).Error)

	svc := newGradingService(t, db, &fakeGrader{}, &capturedEvents{})

	got, err := svc.GetGrading(context.Background(), submission.ID, educatorActor(educatorID))
	require.NoError(t, err)
	require.True(t, got.HasAIGrading)
	require.Equal(t, 91.0, *got.AIGrading.Score)

	// The owning student may read it too.
	_, err = svc.GetGrading(context.Background(), submission.ID, service.Actor{ID: "s-1", Role: service.RoleStudent})
	require.NoError(t, err)

	// Other students and other educators may not.
	_, err = svc.GetGrading(context.Background(), submission.ID, service.Actor{ID: "s-2", Role: service.RoleStudent})
	require.ErrorIs(t, err, service.ErrNotAuthorized)
	_, err = svc.GetGrading(context.Background(), submission.ID, educatorActor("e-2"))
	require.ErrorIs(t, err, service.ErrNotAuthorized)
}

package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Module{},
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
		&models.ReferenceSolution{},
		&models.StudentSubmissionMirror{},
		&models.ProjectAssignmentRecord{},
	))

	return db
}

func TestMarkReferenceAvailableFlipsPendingOnly(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	pending := models.Submission{AssignmentID: "a-1", StudentID: "s-1", EducatorID: "e-1", Status: models.SubmissionStatusSubmitted, AIProgress: models.AIProgressPending}
	unset := models.Submission{AssignmentID: "a-1", StudentID: "s-2", EducatorID: "e-1", Status: models.SubmissionStatusSubmitted}
	processing := models.Submission{AssignmentID: "a-1", StudentID: "s-3", EducatorID: "e-1", Status: models.SubmissionStatusSubmitted, AIProgress: models.AIProgressProcessing}
	otherAssignment := models.Submission{AssignmentID: "a-2", StudentID: "s-4", EducatorID: "e-1", Status: models.SubmissionStatusSubmitted, AIProgress: models.AIProgressPending}
	for _, s := range []*models.Submission{&pending, &unset, &processing, &otherAssignment} {
		require.NoError(t, repo.Create(ctx, s))
	}

	updated, err := repo.MarkReferenceAvailable(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	var got models.Submission
	require.NoError(t, db.First(&got, "id = ?", pending.ID).Error)
	require.Equal(t, models.AIProgressCompleted, got.AIProgress)
	require.True(t, got.HasReferenceSolution)
	require.True(t, got.ReferenceSolutionAvailable)

	got = models.Submission{}
	require.NoError(t, db.First(&got, "id = ?", processing.ID).Error)
	require.Equal(t, models.AIProgressProcessing, got.AIProgress)
	require.False(t, got.HasReferenceSolution)

	got = models.Submission{}
	require.NoError(t, db.First(&got, "id = ?", otherAssignment.ID).Error)
	require.Equal(t, models.AIProgressPending, got.AIProgress)
}

func TestMarkReferenceAvailableIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	sub := models.Submission{AssignmentID: "a-1", StudentID: "s-1", EducatorID: "e-1", Status: models.SubmissionStatusSubmitted}
	require.NoError(t, repo.Create(ctx, &sub))

	first, err := repo.MarkReferenceAvailable(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), first)

	second, err := repo.MarkReferenceAvailable(ctx, "a-1")
	require.NoError(t, err)
	require.Zero(t, second)
}

func TestApplyAIGradeWritesZeroValues(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	sub := models.Submission{AssignmentID: "a-1", StudentID: "s-1", EducatorID: "e-1", Status: models.SubmissionStatusSubmitted}
	require.NoError(t, repo.Create(ctx, &sub))

	grade := 0.0
	confidence := 0.95
	gradedAt := time.Now().UTC()
	snapshot := models.AIGradeSnapshot{
		AIGrade:           &grade,
		AIPercentage:      &grade,
		AILetterGrade:     "F",
		AIOverallFeedback: "Submission does not address the question.",
		AIConfidence:      &confidence,
		AIGradedAt:        &gradedAt,
		AIGradedBy:        "e-1",
		AIGradingMethod:   "ai_reference_comparison",
	}

	require.NoError(t, repo.ApplyAIGrade(ctx, sub.ID, snapshot, true))

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusAIGraded, got.Status)
	require.NotNil(t, got.AIGrade)
	require.Equal(t, 0.0, *got.AIGrade)
	require.Equal(t, "F", got.AILetterGrade)
	require.True(t, got.HasReferenceSolution)
	require.Equal(t, "e-1", got.AIGradedBy)
}

func TestApplyAIGradeMissingSubmission(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewSubmissionRepository(db)

	err := repo.ApplyAIGrade(context.Background(), "missing", models.AIGradeSnapshot{}, false)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListPageCapsLimit(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		sub := models.Submission{
			AssignmentID: "a-1",
			StudentID:    fmt.Sprintf("s-%d", i),
			EducatorID:   "e-1",
			Status:       models.SubmissionStatusSubmitted,
			SubmittedAt:  time.Now().Add(-time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, &sub))
	}

	page, err := repo.ListPage(ctx, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	// Newest first.
	require.Equal(t, "s-0", page[0].StudentID)

	all, err := repo.ListPage(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestListProjectAssignments(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	projectID := "pa-1"
	regular := models.Submission{AssignmentID: "a-1", StudentID: "s-1", EducatorID: "e-1", Status: models.SubmissionStatusSubmitted}
	project := models.Submission{
		AssignmentID:        "a-2",
		StudentID:           "s-2",
		EducatorID:          "e-1",
		Status:              models.SubmissionStatusSubmitted,
		SubmissionType:      models.SubmissionTypeProjectAssignment,
		ProjectAssignmentID: &projectID,
	}
	require.NoError(t, repo.Create(ctx, &regular))
	require.NoError(t, repo.Create(ctx, &project))

	got, err := repo.ListProjectAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, project.ID, got[0].ID)
}

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
)

func TestLatestPicksMostRecent(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewReferenceSolutionRepository(db)
	ctx := context.Background()

	older := models.ReferenceSolution{ID: "ref-b", AssignmentID: "a-1", EducatorID: "e-1", CreatedAt: time.Now().Add(-2 * time.Hour)}
	newer := models.ReferenceSolution{ID: "ref-a", AssignmentID: "a-1", EducatorID: "e-1", CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, &older))
	require.NoError(t, repo.Create(ctx, &newer))

	got, err := repo.Latest(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, "ref-a", got.ID)
}

func TestLatestTieBreaksOnID(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewReferenceSolutionRepository(db)
	ctx := context.Background()

	sameInstant := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	first := models.ReferenceSolution{ID: "ref-1", AssignmentID: "a-1", EducatorID: "e-1", CreatedAt: sameInstant}
	second := models.ReferenceSolution{ID: "ref-2", AssignmentID: "a-1", EducatorID: "e-1", CreatedAt: sameInstant}
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))

	got, err := repo.Latest(ctx, "a-1")
	require.NoError(t, err)
	require.Equal(t, "ref-2", got.ID)
}

func TestLatestScopedToAssignment(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewReferenceSolutionRepository(db)
	ctx := context.Background()

	other := models.ReferenceSolution{ID: "ref-x", AssignmentID: "a-2", EducatorID: "e-1", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, &other))

	_, err := repo.Latest(ctx, "a-1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListByAssignmentOrdered(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewReferenceSolutionRepository(db)
	ctx := context.Background()

	for i, id := range []string{"ref-1", "ref-2", "ref-3"} {
		ref := models.ReferenceSolution{
			ID:           id,
			AssignmentID: "a-1",
			EducatorID:   "e-1",
			CreatedAt:    time.Now().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, &ref))
	}

	got, err := repo.ListByAssignment(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "ref-3", got[0].ID)
	require.Equal(t, "ref-1", got[2].ID)
}

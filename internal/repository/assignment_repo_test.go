package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
)

func TestResolvePrefersModuleScope(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewAssignmentRepository(db)
	ctx := context.Background()

	moduleID := "m-1"
	scoped := models.Assignment{ID: "as-1", ModuleID: &moduleID, Title: "Scoped", MaxScore: 50}
	require.NoError(t, repo.Create(ctx, &scoped))

	got, err := repo.Resolve(ctx, "as-1", &moduleID)
	require.NoError(t, err)
	require.Equal(t, "Scoped", got.Title)
	require.Equal(t, 50.0, got.MaxScore)
}

func TestResolveFallsBackToRoot(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewAssignmentRepository(db)
	ctx := context.Background()

	root := models.Assignment{ID: "as-1", Title: "Root"}
	require.NoError(t, repo.Create(ctx, &root))

	moduleID := "m-1"
	got, err := repo.Resolve(ctx, "as-1", &moduleID)
	require.NoError(t, err)
	require.Equal(t, "Root", got.Title)

	got, err = repo.Resolve(ctx, "as-1", nil)
	require.NoError(t, err)
	require.Equal(t, "Root", got.Title)
}

func TestResolveNormalizesMaxScore(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewAssignmentRepository(db)
	ctx := context.Background()

	legacy := models.Assignment{ID: "as-1", Title: "Legacy", MaxPoints: 40}
	defaulted := models.Assignment{ID: "as-2", Title: "Defaulted"}
	require.NoError(t, repo.Create(ctx, &legacy))
	require.NoError(t, repo.Create(ctx, &defaulted))

	got, err := repo.Resolve(ctx, "as-1", nil)
	require.NoError(t, err)
	require.Equal(t, 40.0, got.MaxScore)

	got, err = repo.Resolve(ctx, "as-2", nil)
	require.NoError(t, err)
	require.Equal(t, 100.0, got.MaxScore)
}

func TestResolveNotFound(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewAssignmentRepository(db)

	_, err := repo.Resolve(context.Background(), "missing", nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLinkReferenceSolution(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewAssignmentRepository(db)
	ctx := context.Background()

	assignment := models.Assignment{ID: "as-1", Title: "Essay"}
	require.NoError(t, repo.Create(ctx, &assignment))

	require.NoError(t, repo.LinkReferenceSolution(ctx, "as-1", "ref-9"))

	got, err := repo.Resolve(ctx, "as-1", nil)
	require.NoError(t, err)
	require.True(t, got.HasReferenceSolution)
	require.NotNil(t, got.ReferenceSolutionID)
	require.Equal(t, "ref-9", *got.ReferenceSolutionID)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/dto"
	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
	"github.com/hexlabs-dev/assess-go-api/pkg/extract"
)

// defaultListCacheTTL is used when no TTL is configured.
const defaultListCacheTTL = 30 * time.Second

// SubmissionListService assembles the educator-facing submission list:
// regular and project-assignment submissions, joined with student,
// assignment, module, and reference data, plus aggregate statistics.
type SubmissionListService interface {
	List(ctx context.Context, actor Actor, filter dto.SubmissionListFilter) (dto.SubmissionListResponse, error)
}

type submissionListService struct {
	submissions repository.SubmissionRepository
	students    repository.StudentRepository
	assignments repository.AssignmentRepository
	modules     repository.ModuleRepository
	references  repository.ReferenceSolutionRepository
	mirrors     repository.MirrorRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewSubmissionListService constructs the aggregator. cache may be nil;
// caching is then skipped entirely.
func NewSubmissionListService(
	submissions repository.SubmissionRepository,
	students repository.StudentRepository,
	assignments repository.AssignmentRepository,
	modules repository.ModuleRepository,
	references repository.ReferenceSolutionRepository,
	mirrors repository.MirrorRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) SubmissionListService {
	if cacheTTL <= 0 {
		cacheTTL = defaultListCacheTTL
	}
	return &submissionListService{
		submissions: submissions,
		students:    students,
		assignments: assignments,
		modules:     modules,
		references:  references,
		mirrors:     mirrors,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "submission_list_service").Logger(),
		tracer:      otel.Tracer("github.com/hexlabs-dev/assess-go-api/internal/service/submission_list"),
	}
}

func (s *submissionListService) List(ctx context.Context, actor Actor, filter dto.SubmissionListFilter) (dto.SubmissionListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submissions.list")
	defer span.End()

	// Educators only ever see their own submissions regardless of the
	// requested filter; admins may filter by any educator.
	if actor.IsEducator() {
		filter.EducatorID = actor.ID
	}

	cacheKey := s.cacheKey(actor, filter)
	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	regular, err := s.submissions.ListPage(ctx, repository.DefaultSubmissionPageSize)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionListResponse{}, fmt.Errorf("list submissions: %w", err)
	}

	projects, err := s.submissions.ListProjectAssignments(ctx)
	if err != nil {
		// Project assignments are a secondary source; a failure there
		// must not take down the whole list.
		s.logger.Warn().Err(err).Msg("listing project assignment submissions failed, continuing with regular only")
		projects = nil
	}

	merged := make([]models.Submission, 0, len(regular)+len(projects))
	seen := make(map[string]struct{}, len(regular))
	for _, sub := range regular {
		if sub.IsProjectAssignment() {
			// Project-type rows are collected by the dedicated pass.
			continue
		}
		merged = append(merged, sub)
		seen[sub.ID] = struct{}{}
	}
	for _, sub := range projects {
		if _, dup := seen[sub.ID]; dup {
			continue
		}
		merged = append(merged, sub)
	}

	joins := newJoinCache()
	enriched := make([]dto.EnrichedSubmission, 0, len(merged))
	for _, sub := range merged {
		if !matchesFilter(sub, filter) {
			continue
		}
		enriched = append(enriched, s.enrich(ctx, sub, joins))
	}

	sort.SliceStable(enriched, func(i, j int) bool {
		return enriched[i].SubmittedAt.After(enriched[j].SubmittedAt)
	})

	response := dto.SubmissionListResponse{
		Submissions: enriched,
		Stats:       buildStats(enriched),
		Total:       len(enriched),
	}

	s.toCache(ctx, cacheKey, response)
	span.SetAttributes(attribute.Int("submissions.count", len(enriched)))
	return response, nil
}

func matchesFilter(sub models.Submission, filter dto.SubmissionListFilter) bool {
	if filter.EducatorID != "" && sub.EducatorID != filter.EducatorID {
		return false
	}
	if filter.ModuleID != "" && (sub.ModuleID == nil || *sub.ModuleID != filter.ModuleID) {
		return false
	}
	if filter.AssignmentID != "" && sub.AssignmentID != filter.AssignmentID {
		return false
	}
	if filter.Status != "" && sub.Status != filter.Status {
		return false
	}
	return true
}

// joinCache memoizes per-request lookups so N submissions against the
// same assignment hit the repository once.
type joinCache struct {
	students    map[string]*dto.StudentLite
	assignments map[string]*dto.AssignmentLite
	modules     map[string]*dto.ModuleLite
	references  map[string]*dto.ReferenceSummary
}

func newJoinCache() *joinCache {
	return &joinCache{
		students:    make(map[string]*dto.StudentLite),
		assignments: make(map[string]*dto.AssignmentLite),
		modules:     make(map[string]*dto.ModuleLite),
		references:  make(map[string]*dto.ReferenceSummary),
	}
}

// enrich joins a submission with its related records. Every join is
// fail-soft: a missing or errored lookup leaves the field nil and the
// row is still returned.
func (s *submissionListService) enrich(ctx context.Context, sub models.Submission, joins *joinCache) dto.EnrichedSubmission {
	row := dto.EnrichedSubmission{SubmissionResponse: dto.NewSubmissionResponse(sub)}

	row.Student = s.joinStudent(ctx, sub.StudentID, joins)
	row.Assignment = s.joinAssignment(ctx, sub.AssignmentID, sub.ModuleID, joins)
	if sub.ModuleID != nil {
		row.Module = s.joinModule(ctx, *sub.ModuleID, joins)
	}
	row.Reference = s.joinReference(ctx, sub.AssignmentID, joins)

	if row.Assignment != nil {
		row.AssignmentTitle = row.Assignment.Title
		row.MaxPoints = row.Assignment.MaxScore
	}
	if row.Module != nil {
		row.ModuleTitle = row.Module.Title
	}

	// The mirror carries denormalized titles written at submission
	// time; prefer them when the live join came up empty.
	if row.AssignmentTitle == "" || row.ModuleTitle == "" || row.MaxPoints == 0 {
		if mirror, err := s.mirrors.GetMirror(ctx, sub.ID); err == nil {
			if row.AssignmentTitle == "" {
				row.AssignmentTitle = mirror.AssignmentTitle
			}
			if row.ModuleTitle == "" {
				row.ModuleTitle = mirror.ModuleTitle
			}
			if row.MaxPoints == 0 {
				row.MaxPoints = mirror.MaxPoints
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug().Err(err).Str("submission_id", sub.ID).Msg("mirror lookup failed")
		}
	}
	if row.MaxPoints == 0 {
		row.MaxPoints = 100
	}

	return row
}

func (s *submissionListService) joinStudent(ctx context.Context, studentID string, joins *joinCache) *dto.StudentLite {
	if lite, ok := joins.students[studentID]; ok {
		return lite
	}
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug().Err(err).Str("student_id", studentID).Msg("student join failed")
		}
		joins.students[studentID] = nil
		return nil
	}
	lite := &dto.StudentLite{
		ID:            student.ID,
		FirstName:     student.FirstName,
		LastName:      student.LastName,
		Email:         student.Email,
		StudentNumber: student.StudentNumber,
	}
	joins.students[studentID] = lite
	return lite
}

func (s *submissionListService) joinAssignment(ctx context.Context, assignmentID string, moduleID *string, joins *joinCache) *dto.AssignmentLite {
	if lite, ok := joins.assignments[assignmentID]; ok {
		return lite
	}
	assignment, err := s.assignments.Resolve(ctx, assignmentID, moduleID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug().Err(err).Str("assignment_id", assignmentID).Msg("assignment join failed")
		}
		joins.assignments[assignmentID] = nil
		return nil
	}
	lite := &dto.AssignmentLite{
		ID:          assignment.ID,
		Title:       assignment.Title,
		Description: assignment.Description,
		MaxScore:    assignment.MaxScore,
	}
	joins.assignments[assignmentID] = lite
	return lite
}

func (s *submissionListService) joinModule(ctx context.Context, moduleID string, joins *joinCache) *dto.ModuleLite {
	if lite, ok := joins.modules[moduleID]; ok {
		return lite
	}
	module, err := s.modules.GetByID(ctx, moduleID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug().Err(err).Str("module_id", moduleID).Msg("module join failed")
		}
		joins.modules[moduleID] = nil
		return nil
	}
	lite := &dto.ModuleLite{ID: module.ID, Title: module.DisplayTitle(), Name: module.Name}
	joins.modules[moduleID] = lite
	return lite
}

func (s *submissionListService) joinReference(ctx context.Context, assignmentID string, joins *joinCache) *dto.ReferenceSummary {
	if summary, ok := joins.references[assignmentID]; ok {
		return summary
	}
	reference, err := s.references.Latest(ctx, assignmentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug().Err(err).Str("assignment_id", assignmentID).Msg("reference join failed")
		}
		joins.references[assignmentID] = nil
		return nil
	}
	summary := &dto.ReferenceSummary{
		ID:                       reference.ID,
		FileName:                 reference.FileName,
		TextExtractionSuccessful: reference.TextExtractionSuccessful,
		ExtractionMethod:         reference.ExtractionMethod,
		CreatedAt:                reference.CreatedAt,
	}
	if len(reference.ContentAnalysis) > 0 {
		var analysis extract.ContentAnalysis
		if err := json.Unmarshal(reference.ContentAnalysis, &analysis); err == nil {
			summary.ContentType = analysis.ContentType
			summary.Complexity = analysis.Complexity
			summary.SuggestedScore = analysis.SuggestedMaxScore
			summary.KeyTopics = analysis.KeyTopics
		}
	}
	joins.references[assignmentID] = summary
	return summary
}

func buildStats(rows []dto.EnrichedSubmission) dto.SubmissionStats {
	stats := dto.SubmissionStats{Total: len(rows)}
	for _, row := range rows {
		switch row.Status {
		case models.SubmissionStatusSubmitted:
			stats.Pending++
		}
		if row.Status == models.SubmissionStatusAIGraded || row.AIGrade != nil {
			stats.AIGraded++
		}
		if row.Status == models.SubmissionStatusGraded || row.FinalGrade != nil {
			stats.Graded++
		}
		if row.AIGrade != nil && (row.AIConfidence == nil || *row.AIConfidence < models.ReviewConfidenceThreshold) {
			stats.NeedsReview++
		}
		switch row.AIProgress {
		case models.AIProgressProcessing:
			stats.AIProcessing++
		case models.AIProgressCompleted:
			stats.AICompleted++
		case models.AIProgressFailed:
			stats.AIFailed++
		}
		if row.SubmissionType == models.SubmissionTypeProjectAssignment {
			stats.ProjectAssignments++
		} else {
			stats.Regular++
		}
	}
	return stats
}

func (s *submissionListService) cacheKey(actor Actor, filter dto.SubmissionListFilter) string {
	return fmt.Sprintf("submissions:list:%s:%s:%s:%s:%s:%s",
		actor.Role, actor.ID, filter.EducatorID, filter.ModuleID, filter.AssignmentID, filter.Status)
}

func (s *submissionListService) fromCache(ctx context.Context, key string) (dto.SubmissionListResponse, bool) {
	if s.cache == nil {
		return dto.SubmissionListResponse{}, false
	}
	payload, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug().Err(err).Msg("submission list cache read failed")
		}
		return dto.SubmissionListResponse{}, false
	}
	var response dto.SubmissionListResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return dto.SubmissionListResponse{}, false
	}
	return response, true
}

func (s *submissionListService) toCache(ctx context.Context, key string, response dto.SubmissionListResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Debug().Err(err).Msg("submission list cache write failed")
	}
}

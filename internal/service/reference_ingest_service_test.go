package service_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hexlabs-dev/assess-go-api/internal/dto"
	"github.com/hexlabs-dev/assess-go-api/internal/models"
	"github.com/hexlabs-dev/assess-go-api/internal/repository"
	"github.com/hexlabs-dev/assess-go-api/internal/service"
	"github.com/hexlabs-dev/assess-go-api/pkg/extract"
)

// fakeExtractor returns a canned extraction result regardless of input.
type fakeExtractor struct {
	result extract.Result
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte) extract.Result {
	return f.result
}

type fakeStorage struct {
	uploads int
	fail    bool
}

func (f *fakeStorage) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	f.uploads++
	if f.fail {
		return "", fmt.Errorf("storage unavailable")
	}
	return "https://cdn.example.com/" + name, nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
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

func newIngestService(t *testing.T, db *gorm.DB, extractor extract.Extractor, storage service.FileStorage) service.ReferenceIngestService {
	t.Helper()

	validate := validator.New(validator.WithRequiredStructEnabled())
	return service.NewReferenceIngestService(
		repository.NewReferenceSolutionRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		extractor,
		storage,
		extract.FixedScoreSuggester(80),
		validate,
		zerolog.Nop(),
	)
}

func fileHeaderFromBytes(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	_, fileHeader, err := req.FormFile("file")
	require.NoError(t, err)

	return fileHeader
}

func pdfBytes(extra int) []byte {
	content := []byte("%PDF-1.4\n%test document\n")
	if extra > 0 {
		content = append(content, bytes.Repeat([]byte{'x'}, extra)...)
	}
	return content
}

func seedAssignment(t *testing.T, db *gorm.DB, assignment models.Assignment) models.Assignment {
	t.Helper()
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func educatorActor(id string) service.Actor {
	return service.Actor{ID: id, Role: service.RoleEducator}
}

func TestIngestSuccessFansOutToPendingSubmissions(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	assignment := seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Heat Transfer", EducatorID: &educatorID, MaxScore: 100})

	pending := models.Submission{AssignmentID: assignment.ID, StudentID: "s-1", EducatorID: educatorID, Status: models.SubmissionStatusSubmitted, AIProgress: models.AIProgressPending}
	unset := models.Submission{AssignmentID: assignment.ID, StudentID: "s-2", EducatorID: educatorID, Status: models.SubmissionStatusSubmitted}
	processing := models.Submission{AssignmentID: assignment.ID, StudentID: "s-3", EducatorID: educatorID, Status: models.SubmissionStatusSubmitted, AIProgress: models.AIProgressProcessing}
	require.NoError(t, db.Create(&pending).Error)
	require.NoError(t, db.Create(&unset).Error)
	require.NoError(t, db.Create(&processing).Error)

	extractor := &fakeExtractor{result: extract.Result{OK: true, Text: "Conduction analysis with the heat equation formula and a full solution section."}}
	storage := &fakeStorage{}
	svc := newIngestService(t, db, extractor, storage)

	file := fileHeaderFromBytes(t, "reference.pdf", pdfBytes(0))
	resp, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: assignment.ID}, file, educatorActor(educatorID))
	require.NoError(t, err)
	require.NotEmpty(t, resp.ReferenceID)
	require.Equal(t, int64(2), resp.SubmissionsUpdated)
	require.True(t, resp.Reference.TextExtractionSuccessful)
	require.Equal(t, models.ExtractionMethodAutomatic, resp.Reference.ExtractionMethod)
	require.Equal(t, 1, storage.uploads)

	var gotAssignment models.Assignment
	require.NoError(t, db.First(&gotAssignment, "id = ?", assignment.ID).Error)
	require.True(t, gotAssignment.HasReferenceSolution)
	require.Equal(t, resp.ReferenceID, *gotAssignment.ReferenceSolutionID)

	var gotSub models.Submission
	require.NoError(t, db.First(&gotSub, "id = ?", pending.ID).Error)
	require.Equal(t, models.AIProgressCompleted, gotSub.AIProgress)
	gotSub = models.Submission{}
	require.NoError(t, db.First(&gotSub, "id = ?", processing.ID).Error)
	require.Equal(t, models.AIProgressProcessing, gotSub.AIProgress)
}

func TestIngestDegradedExtractionStillSucceeds(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	assignment := seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Scanned Homework", EducatorID: &educatorID, MaxScore: 100})

	extractor := &fakeExtractor{result: extract.Degraded("no extractable text")}
	svc := newIngestService(t, db, extractor, &fakeStorage{})

	file := fileHeaderFromBytes(t, "scanned.pdf", pdfBytes(0))
	resp, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: assignment.ID}, file, educatorActor(educatorID))
	require.NoError(t, err)
	require.False(t, resp.Reference.TextExtractionSuccessful)
	require.Equal(t, models.ExtractionMethodManualRequired, resp.Reference.ExtractionMethod)
	require.Equal(t, extract.GenericGradingCriteria, resp.Reference.GradingCriteria)
	require.Contains(t, resp.Message, "manual grading criteria")
	// Placeholder preview carries the file name as title.
	require.Equal(t, "scanned", resp.Reference.Preview.Title)
}

func TestIngestRejectsOversizedFile(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	svc := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "text"}}, &fakeStorage{})

	file := fileHeaderFromBytes(t, "huge.pdf", pdfBytes(10*1024*1024))
	_, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1"}, file, educatorActor(educatorID))
	require.ErrorIs(t, err, service.ErrReferenceFileTooLarge)

	var count int64
	require.NoError(t, db.Model(&models.ReferenceSolution{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestIngestRejectsNonPDF(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	svc := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "text"}}, &fakeStorage{})

	file := fileHeaderFromBytes(t, "notes.txt", []byte("plain text, not a pdf"))
	_, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1"}, file, educatorActor(educatorID))
	require.ErrorIs(t, err, service.ErrReferenceFileType)
}

func TestIngestUnknownAssignment(t *testing.T) {
	db := testDB(t)
	svc := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "text"}}, &fakeStorage{})

	file := fileHeaderFromBytes(t, "reference.pdf", pdfBytes(0))
	_, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "missing"}, file, educatorActor("e-1"))
	require.ErrorIs(t, err, service.ErrAssignmentNotFound)
}

func TestIngestOwnershipEnforced(t *testing.T) {
	db := testDB(t)
	owner := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &owner})

	svc := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "text"}}, &fakeStorage{})

	file := fileHeaderFromBytes(t, "reference.pdf", pdfBytes(0))
	_, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1"}, file, educatorActor("e-2"))
	require.ErrorIs(t, err, service.ErrNotAssignmentOwner)

	// Admins bypass the ownership check.
	_, err = svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1"}, file, service.Actor{ID: "admin-1", Role: service.RoleAdmin})
	require.NoError(t, err)
}

func TestIngestCriteriaPrecedence(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	svc := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "A reference solution with analysis."}}, &fakeStorage{})

	file := fileHeaderFromBytes(t, "reference.pdf", pdfBytes(0))
	resp, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{
		AssignmentID:    "a-1",
		GradingCriteria: "Grade only the conclusion.",
	}, file, educatorActor(educatorID))
	require.NoError(t, err)
	require.Equal(t, "Grade only the conclusion.", resp.Reference.GradingCriteria)

	// Without caller criteria, criteria are derived from the text.
	resp, err = svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1"}, file, educatorActor(educatorID))
	require.NoError(t, err)
	require.Contains(t, resp.Reference.GradingCriteria, "Correctness and accuracy")
}

func TestIngestMaxScorePrecedence(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID, MaxScore: 60})

	svc := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "reference text"}}, &fakeStorage{})
	file := fileHeaderFromBytes(t, "reference.pdf", pdfBytes(0))

	// Caller-supplied max score wins over the analysis suggestion.
	callerMax := 45.0
	resp, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1", MaxScore: &callerMax}, file, educatorActor(educatorID))
	require.NoError(t, err)
	require.Equal(t, 45.0, resp.Reference.MaxScore)

	// Otherwise the analysis suggestion (fixed at 80 here) applies.
	resp, err = svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1"}, file, educatorActor(educatorID))
	require.NoError(t, err)
	require.Equal(t, 80.0, resp.Reference.MaxScore)
}

func TestIngestStorageFailureIsNotFatal(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	svc := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "reference text"}}, &fakeStorage{fail: true})

	file := fileHeaderFromBytes(t, "reference.pdf", pdfBytes(0))
	resp, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1"}, file, educatorActor(educatorID))
	require.NoError(t, err)
	require.Empty(t, resp.Reference.FileURL)
}

func TestGetCurrentReturnsLatest(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	svc := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "first version"}}, &fakeStorage{})
	file := fileHeaderFromBytes(t, "reference.pdf", pdfBytes(0))

	_, err := svc.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1"}, file, educatorActor(educatorID))
	require.NoError(t, err)

	svc2 := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "second version of the reference"}}, &fakeStorage{})
	second, err := svc2.Ingest(context.Background(), dto.ReferenceUploadInput{AssignmentID: "a-1"}, file, educatorActor(educatorID))
	require.NoError(t, err)

	got, err := svc.GetCurrent(context.Background(), "a-1", nil, educatorActor(educatorID))
	require.NoError(t, err)
	require.Equal(t, second.ReferenceID, got.ID)
	require.Contains(t, got.ReferenceText, "second version")
}

func TestGetCurrentNoReference(t *testing.T) {
	db := testDB(t)
	educatorID := "e-1"
	seedAssignment(t, db, models.Assignment{ID: "a-1", Title: "Essay", EducatorID: &educatorID})

	svc := newIngestService(t, db, &fakeExtractor{result: extract.Result{OK: true, Text: "text"}}, &fakeStorage{})

	_, err := svc.GetCurrent(context.Background(), "a-1", nil, educatorActor(educatorID))
	require.ErrorIs(t, err, service.ErrReferenceNotFound)
}

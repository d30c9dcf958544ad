package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"recruitflow_backend/internal/applicants/domain"
	"recruitflow_backend/internal/applicants/ports"
	"recruitflow_backend/internal/applicants/repository"
	"recruitflow_backend/internal/events"
	"recruitflow_backend/platform/apperr"
	"recruitflow_backend/platform/logger"
)

type fakeRepo struct {
	applicants map[uuid.UUID]repository.Applicant
	// memberships holds the bucket name per (applicant, job) pipeline.
	memberships map[uuid.UUID]map[uuid.UUID]string
	moveErr     error
	moved       []uuid.UUID
	resumeKeys  map[uuid.UUID]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		applicants:  make(map[uuid.UUID]repository.Applicant),
		memberships: make(map[uuid.UUID]map[uuid.UUID]string),
		resumeKeys:  make(map[uuid.UUID]string),
	}
}

func (f *fakeRepo) GetByID(_ context.Context, _, id uuid.UUID) (repository.Applicant, error) {
	ap, ok := f.applicants[id]
	if !ok {
		return repository.Applicant{}, apperr.NotFound("applicant not found")
	}
	return ap, nil
}

func (f *fakeRepo) GetInJob(_ context.Context, _, jobID, id uuid.UUID) (repository.Applicant, error) {
	ap, ok := f.applicants[id]
	if !ok {
		return repository.Applicant{}, apperr.NotFound("applicant not found")
	}
	bucketName, ok := f.memberships[id][jobID]
	if !ok {
		return repository.Applicant{}, apperr.NotFound("applicant not found")
	}
	ap.BucketName = bucketName
	return ap, nil
}

func (f *fakeRepo) ListByJob(_ context.Context, _, _ uuid.UUID) ([]repository.Applicant, error) {
	var out []repository.Applicant
	for _, ap := range f.applicants {
		out = append(out, ap)
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Applicant, error) {
	ap := repository.Applicant{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Email:          params.Email,
		Phone:          params.Phone,
		BucketID:       params.BucketID,
	}
	f.applicants[ap.ID] = ap
	return ap, nil
}

func (f *fakeRepo) MoveMembership(_ context.Context, _, _, applicantID, bucketID uuid.UUID) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	ap, ok := f.applicants[applicantID]
	if !ok {
		return apperr.NotFound("applicant not found")
	}
	ap.BucketID = bucketID
	f.applicants[applicantID] = ap
	f.moved = append(f.moved, applicantID)
	return nil
}

func (f *fakeRepo) SetResumeKey(_ context.Context, _, applicantID uuid.UUID, resumeKey string) error {
	if _, ok := f.applicants[applicantID]; !ok {
		return apperr.NotFound("applicant not found")
	}
	f.resumeKeys[applicantID] = resumeKey
	return nil
}

type fakeBucketReader struct {
	buckets []domain.Bucket
	err     error
}

func (f *fakeBucketReader) ListBuckets(_ context.Context, _, _ uuid.UUID) ([]domain.Bucket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.buckets, nil
}

type fakeStorage struct {
	stored map[string][]byte
}

func (f *fakeStorage) Store(_ context.Context, objectKey string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if f.stored == nil {
		f.stored = make(map[string][]byte)
	}
	f.stored[objectKey] = data
	return nil
}

func (f *fakeStorage) PresignedURL(_ context.Context, objectKey string) (string, error) {
	return "https://storage.test/" + objectKey, nil
}

type capturedBus struct {
	mu        sync.Mutex
	published []events.Event
}

func newCapturedBus() *capturedBus {
	return &capturedBus{}
}

func (b *capturedBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *capturedBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *capturedBus) Subscribe(string, events.Handler) {}

func (b *capturedBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

func testService(repo *fakeRepo, buckets ports.BucketReader) (*Service, *capturedBus) {
	bus := newCapturedBus()
	svc := New(repo, buckets, &fakeStorage{}, bus, logger.New("development"))
	return svc, bus
}

func defaultBuckets() *fakeBucketReader {
	return &fakeBucketReader{buckets: []domain.Bucket{
		{ID: uuid.NewString(), Name: "Applied"},
		{ID: uuid.NewString(), Name: "Interview"},
		{ID: uuid.NewString(), Name: "Rejected"},
	}}
}

func seedApplicant(repo *fakeRepo, orgID, jobID uuid.UUID, bucketName string) repository.Applicant {
	ap := repository.Applicant{
		ID:             uuid.New(),
		OrganizationID: orgID,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		BucketName:     bucketName,
	}
	repo.applicants[ap.ID] = ap
	repo.memberships[ap.ID] = map[uuid.UUID]string{jobID: bucketName}
	return ap
}

func TestMoveStageCommits(t *testing.T) {
	orgID := uuid.New()
	jobID := uuid.New()
	repo := newFakeRepo()
	ap := seedApplicant(repo, orgID, jobID, "Applied")
	buckets := defaultBuckets()
	svc, bus := testService(repo, buckets)

	result, err := svc.MoveStage(context.Background(), orgID, jobID, ap.ID, "qualified")
	if err != nil {
		t.Fatalf("MoveStage() error = %v", err)
	}
	if result.BucketName != "Interview" {
		t.Errorf("moved to bucket %q, want Interview", result.BucketName)
	}
	if result.Stage != domain.StageQualified {
		t.Errorf("stage = %q, want qualified", result.Stage)
	}
	if len(repo.moved) != 1 {
		t.Errorf("MoveMembership called %d times, want 1", len(repo.moved))
	}
	if svc.MovePending(ap.ID) {
		t.Error("transition still pending after commit")
	}
	if got := bus.names(); len(got) != 1 || got[0] != "applicant.stage_changed" {
		t.Errorf("published events = %v, want [applicant.stage_changed]", got)
	}
}

func TestMoveStageUnknownTargetRollsBack(t *testing.T) {
	orgID := uuid.New()
	jobID := uuid.New()
	repo := newFakeRepo()
	ap := seedApplicant(repo, orgID, jobID, "Applied")
	svc, bus := testService(repo, defaultBuckets())

	_, err := svc.MoveStage(context.Background(), orgID, jobID, ap.ID, "nonexistent-stage")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("MoveStage() error kind = %v, want not found", apperr.GetKind(err))
	}
	if len(repo.moved) != 0 {
		t.Error("membership was moved despite unresolved target")
	}
	if svc.MovePending(ap.ID) {
		t.Error("transition still pending after revert")
	}
	if len(bus.names()) != 0 {
		t.Errorf("events published on failed move: %v", bus.names())
	}
}

func TestMoveStageRevertsOnPersistenceError(t *testing.T) {
	orgID := uuid.New()
	jobID := uuid.New()
	repo := newFakeRepo()
	repo.moveErr = errors.New("connection reset")
	ap := seedApplicant(repo, orgID, jobID, "Applied")
	svc, bus := testService(repo, defaultBuckets())

	_, err := svc.MoveStage(context.Background(), orgID, jobID, ap.ID, "qualified")
	if err == nil {
		t.Fatal("MoveStage() expected error, got nil")
	}
	if svc.MovePending(ap.ID) {
		t.Error("transition still pending after persistence failure")
	}
	if len(bus.names()) != 0 {
		t.Errorf("events published on failed move: %v", bus.names())
	}

	// The slot is released, so a retry can go through.
	repo.moveErr = nil
	if _, err := svc.MoveStage(context.Background(), orgID, jobID, ap.ID, "qualified"); err != nil {
		t.Fatalf("retry after revert failed: %v", err)
	}
}

func TestMoveStageRejectsConcurrentMove(t *testing.T) {
	orgID := uuid.New()
	jobID := uuid.New()
	repo := newFakeRepo()
	ap := seedApplicant(repo, orgID, jobID, "Applied")
	other := seedApplicant(repo, orgID, jobID, "Applied")

	release := make(chan struct{})
	started := make(chan struct{})
	buckets := &blockingBucketReader{
		inner:   defaultBuckets(),
		started: started,
		release: release,
	}
	svc, _ := testService(repo, buckets)

	errs := make(chan error, 1)
	go func() {
		_, err := svc.MoveStage(context.Background(), orgID, jobID, ap.ID, "qualified")
		errs <- err
	}()
	<-started

	// Second move for the same applicant while the first is pending.
	_, err := svc.MoveStage(context.Background(), orgID, jobID, ap.ID, "rejected")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("concurrent move error kind = %v, want conflict", apperr.GetKind(err))
	}

	// A different applicant is not blocked.
	buckets.passthrough = true
	if _, err := svc.MoveStage(context.Background(), orgID, jobID, other.ID, "qualified"); err != nil {
		t.Errorf("move for unrelated applicant failed: %v", err)
	}

	close(release)
	if err := <-errs; err != nil {
		t.Fatalf("first move failed: %v", err)
	}
}

func TestMoveStageUsesJobPipelineMembership(t *testing.T) {
	orgID := uuid.New()
	jobA := uuid.New()
	jobB := uuid.New()
	repo := newFakeRepo()
	ap := seedApplicant(repo, orgID, jobA, "Applied")
	repo.memberships[ap.ID][jobB] = "Rejected"
	svc, _ := testService(repo, defaultBuckets())

	// A move in a pipeline the applicant never entered resolves nothing.
	_, err := svc.MoveStage(context.Background(), orgID, uuid.New(), ap.ID, "qualified")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("move in unrelated pipeline error kind = %v, want not found", apperr.GetKind(err))
	}
	if len(repo.moved) != 0 {
		t.Error("membership was moved in a pipeline without a membership")
	}

	// Moves in either held pipeline resolve through that pipeline's own
	// membership.
	if _, err := svc.MoveStage(context.Background(), orgID, jobB, ap.ID, "qualified"); err != nil {
		t.Fatalf("move in second pipeline failed: %v", err)
	}
	if _, err := svc.MoveStage(context.Background(), orgID, jobA, ap.ID, "rejected"); err != nil {
		t.Fatalf("move in first pipeline failed: %v", err)
	}
}

type blockingBucketReader struct {
	inner       *fakeBucketReader
	started     chan struct{}
	release     chan struct{}
	passthrough bool
}

func (b *blockingBucketReader) ListBuckets(ctx context.Context, orgID, jobID uuid.UUID) ([]domain.Bucket, error) {
	if !b.passthrough {
		close(b.started)
		<-b.release
		b.passthrough = true
	}
	return b.inner.ListBuckets(ctx, orgID, jobID)
}

func TestCreatePlacesIntoAppliedBucket(t *testing.T) {
	orgID := uuid.New()
	jobID := uuid.New()
	repo := newFakeRepo()
	appliedID := uuid.NewString()
	buckets := &fakeBucketReader{buckets: []domain.Bucket{
		{ID: uuid.NewString(), Name: "Interview"},
		{ID: appliedID, Name: "New Applicants"},
	}}
	svc, _ := testService(repo, buckets)

	ap, err := svc.Create(context.Background(), CreateParams{
		OrganizationID: orgID,
		JobID:          jobID,
		FirstName:      "Grace",
		Phone:          "(555) 555-1234",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ap.BucketID.String() != appliedID {
		t.Errorf("placed into bucket %s, want the applied bucket %s", ap.BucketID, appliedID)
	}
}

func TestCreateRejectsEmptyPipeline(t *testing.T) {
	svc, _ := testService(newFakeRepo(), &fakeBucketReader{})

	_, err := svc.Create(context.Background(), CreateParams{
		OrganizationID: uuid.New(),
		JobID:          uuid.New(),
		FirstName:      "Grace",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("error kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestUploadResumeRecordsKey(t *testing.T) {
	orgID := uuid.New()
	repo := newFakeRepo()
	ap := seedApplicant(repo, orgID, uuid.New(), "Applied")
	storage := &fakeStorage{}
	svc := New(repo, defaultBuckets(), storage, newCapturedBus(), logger.New("development"))

	key, err := svc.UploadResume(context.Background(), orgID, ap.ID, "cv.pdf",
		strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	if err != nil {
		t.Fatalf("UploadResume() error = %v", err)
	}
	if repo.resumeKeys[ap.ID] != key {
		t.Errorf("resume key not recorded, got %q want %q", repo.resumeKeys[ap.ID], key)
	}
	if _, ok := storage.stored[key]; !ok {
		t.Errorf("object %q not stored", key)
	}
}

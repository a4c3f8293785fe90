package grants

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
	"github.com/jonathan/grant-portal/internal/db/memdb"
	"github.com/jonathan/grant-portal/internal/notify"
	"github.com/jonathan/grant-portal/internal/storage"
	"github.com/jonathan/grant-portal/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.StatusNotification
}

func (r *recordingDispatcher) Dispatch(_ context.Context, n notify.StatusNotification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

type memFiles struct {
	saved []storage.Object
	err   error
}

func (m *memFiles) Save(_ context.Context, obj storage.Object) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, obj)
	return "/uploads/" + obj.FileName, nil
}

type fixture struct {
	svc      *Service
	store    *memdb.Store
	clock    *fakeClock
	notified *recordingDispatcher
	files    *memFiles
	owner    uuid.UUID
	reviewer uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: DefaultDeadline.Add(-30 * 24 * time.Hour)}
	store := memdb.New(memdb.WithClock(clock.Now))
	f := &fixture{
		store:    store,
		clock:    clock,
		notified: &recordingDispatcher{},
		files:    &memFiles{},
	}
	f.svc = NewService(store, f.files, f.notified,
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)

	ctx := context.Background()
	var err error
	f.owner, err = store.CreateUser(ctx, "Ayesha Khan", "ayesha@example.com", "hash", db.RoleUser)
	require.NoError(t, err)
	f.reviewer, err = store.CreateUser(ctx, "Reviewer", "reviewer@example.com", "hash", db.RoleReviewer)
	require.NoError(t, err)
	return f
}

func createRequest() *types.CreateApplicationRequest {
	duration := 12
	budget := decimal.NewFromInt(500000)
	return &types.CreateApplicationRequest{
		ResearchTitle:    "Groundwater modelling in the Indus basin",
		ResearchArea:     "environmental",
		Duration:         &duration,
		BudgetRequested:  &budget,
		ResearchAbstract: "We model aquifer depletion under irrigation demand.",
	}
}

func (f *fixture) draft(t *testing.T) *View {
	t.Helper()
	v, err := f.svc.Create(context.Background(), f.owner, createRequest())
	require.NoError(t, err)
	return v
}

func (f *fixture) submitted(t *testing.T) *View {
	t.Helper()
	v := f.draft(t)
	v, err := f.svc.Submit(context.Background(), f.owner, v.ID)
	require.NoError(t, err)
	return v
}

func TestCreate_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.draft(t)
	assert.Equal(t, db.StatusDraft, created.Status)
	assert.True(t, DefaultDeadline.Equal(created.Deadline), created.Deadline.String())
	assert.Equal(t, "Environmental Sciences", created.ResearchAreaDisplay)
	assert.Equal(t, 30, created.DaysUntilDeadline)
	assert.False(t, created.IsOverdue)

	got, err := f.svc.Get(ctx, f.owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Duration)
	assert.True(t, decimal.NewFromInt(500000).Equal(got.BudgetRequested))
	assert.Equal(t, created.ResearchTitle, got.ResearchTitle)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	req := createRequest()
	req.Duration = new(int)

	_, err := f.svc.Create(context.Background(), f.owner, req)
	var verr *types.ErrValidation
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "duration", verr.Field)
}

func TestGet_ForeignApplicationIsNotFound(t *testing.T) {
	f := newFixture(t)
	v := f.draft(t)

	_, err := f.svc.Get(context.Background(), uuid.New(), v.ID)
	var nf *types.ErrNotFound
	assert.True(t, errors.As(err, &nf))
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.draft(t)

	submitted, err := f.svc.Submit(ctx, f.owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	assert.True(t, f.clock.Now().Equal(*submitted.SubmittedAt))

	_, err = f.svc.Submit(ctx, f.owner, v.ID)
	var it *types.ErrInvalidTransition
	require.True(t, errors.As(err, &it))
	assert.Equal(t, "submitted", it.From)
}

func TestSubmit_PastDeadlineStaysDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.draft(t)

	f.clock.Set(DefaultDeadline.Add(time.Minute))
	_, err := f.svc.Submit(ctx, f.owner, v.ID)
	var it *types.ErrInvalidTransition
	require.True(t, errors.As(err, &it))
	assert.Equal(t, "Application deadline has passed", it.Error())

	got, err := f.svc.Get(ctx, f.owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusDraft, got.Status)
	assert.Nil(t, got.SubmittedAt)
}

func TestNonDraftMutationsAreRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.submitted(t)
	title := "A different title"

	_, err := f.svc.Update(ctx, f.owner, v.ID, &types.UpdateApplicationRequest{ResearchTitle: &title})
	var sc *types.ErrStateConflict
	require.True(t, errors.As(err, &sc))

	_, err = f.svc.AddAttachments(ctx, f.owner, v.ID, []storage.Object{{FileName: "a.pdf", Data: []byte("%PDF-1.4")}})
	require.True(t, errors.As(err, &sc))
	assert.Empty(t, f.files.saved, "nothing stored for a rejected upload")

	err = f.svc.Delete(ctx, f.owner, v.ID)
	require.True(t, errors.As(err, &sc))

	got, err := f.svc.Get(ctx, f.owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ResearchTitle, got.ResearchTitle)
	assert.Empty(t, got.Attachments)
	assert.Equal(t, db.StatusSubmitted, got.Status)
}

func TestUpdate_Draft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.draft(t)
	duration := 24

	got, err := f.svc.Update(ctx, f.owner, v.ID, &types.UpdateApplicationRequest{Duration: &duration})
	require.NoError(t, err)
	assert.Equal(t, 24, got.Duration)
	assert.Equal(t, v.ResearchTitle, got.ResearchTitle, "absent fields keep their values")
}

func TestDelete_Draft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.draft(t)

	require.NoError(t, f.svc.Delete(ctx, f.owner, v.ID))

	_, err := f.svc.Get(ctx, f.owner, v.ID)
	var nf *types.ErrNotFound
	assert.True(t, errors.As(err, &nf))
}

func TestAddAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.draft(t)

	got, err := f.svc.AddAttachments(ctx, f.owner, v.ID, []storage.Object{
		{FileName: "proposal.pdf", Data: []byte("%PDF-1.4 body")},
		{FileName: "budget.pdf", Data: []byte("%PDF-1.4 body")},
	})
	require.NoError(t, err)
	require.Len(t, got.Attachments, 2)
	assert.Equal(t, "proposal.pdf", got.Attachments[0].FileName)
	assert.Equal(t, "/uploads/proposal.pdf", got.Attachments[0].FilePath)
	assert.Equal(t, "application/pdf", got.Attachments[0].FileType)

	_, err = f.svc.AddAttachments(ctx, f.owner, v.ID, []storage.Object{{FileName: "notes.txt", ContentType: "text/plain", Data: []byte("x")}})
	var verr *types.ErrValidation
	assert.True(t, errors.As(err, &verr))
}

func TestAddProgressReport_Policy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	report := &types.ProgressReportRequest{Progress: "Collected baseline data", NextSteps: "Calibrate"}

	draft := f.draft(t)
	_, err := f.svc.AddProgressReport(ctx, f.owner, draft.ID, report)
	var sc *types.ErrStateConflict
	require.True(t, errors.As(err, &sc), "drafts do not take progress reports")

	submitted := f.submitted(t)
	got, err := f.svc.AddProgressReport(ctx, f.owner, submitted.ID, report)
	require.NoError(t, err)
	require.Len(t, got.ProgressReports, 1)
	assert.Equal(t, "Collected baseline data", got.ProgressReports[0].Progress)
	assert.True(t, f.clock.Now().Equal(got.ProgressReports[0].ReportDate))

	_, err = f.svc.AddProgressReport(ctx, f.owner, submitted.ID, &types.ProgressReportRequest{Progress: "  "})
	var verr *types.ErrValidation
	assert.True(t, errors.As(err, &verr))
}

func approval(budget int64, start, end time.Time) *types.ReviewRequest {
	b := decimal.NewFromInt(budget)
	s, e := types.NewDate(start), types.NewDate(end)
	return &types.ReviewRequest{
		Status:           "approved",
		ReviewComments:   "Strong proposal",
		ApprovedBudget:   &b,
		FundingStartDate: &s,
		FundingEndDate:   &e,
	}
}

func TestReview_Approve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.submitted(t)
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	got, err := f.svc.Review(ctx, f.reviewer, v.ID, approval(300000, start, end))
	require.NoError(t, err)
	assert.Equal(t, db.StatusApproved, got.Status)
	require.NotNil(t, got.ApprovedBudget)
	assert.True(t, decimal.NewFromInt(300000).Equal(*got.ApprovedBudget))
	require.NotNil(t, got.FundingStartDate)
	require.NotNil(t, got.FundingEndDate)
	assert.True(t, start.Equal(*got.FundingStartDate))
	assert.True(t, end.Equal(*got.FundingEndDate))
	require.NotNil(t, got.ReviewerID)
	assert.Equal(t, f.reviewer, *got.ReviewerID)
	require.NotNil(t, got.ReviewDate)
	assert.Equal(t, "Strong proposal", got.ReviewComments)

	require.Len(t, f.notified.sent, 1)
	n := f.notified.sent[0]
	assert.Equal(t, "approved", n.Status)
	assert.Equal(t, "ayesha@example.com", n.Email)
	assert.Equal(t, v.ResearchTitle, n.ResearchTitle)
	assert.Equal(t, "Strong proposal", n.Comments)
}

func TestReview_ApprovalNeedsAllFundingFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.submitted(t)
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		req   *types.ReviewRequest
		field string
	}{
		{name: "no budget", req: func() *types.ReviewRequest { r := approval(1, start, end); r.ApprovedBudget = nil; return r }(), field: "approved_budget"},
		{name: "no start", req: func() *types.ReviewRequest { r := approval(1, start, end); r.FundingStartDate = nil; return r }(), field: "funding_start_date"},
		{name: "no end", req: func() *types.ReviewRequest { r := approval(1, start, end); r.FundingEndDate = nil; return r }(), field: "funding_end_date"},
		{name: "end before start", req: approval(1, end, start), field: "funding_end_date"},
		{name: "fractional cents", req: func() *types.ReviewRequest {
			r := approval(1, start, end)
			b := decimal.RequireFromString("100.555")
			r.ApprovedBudget = &b
			return r
		}(), field: "approved_budget"},
		{name: "budget beyond column range", req: func() *types.ReviewRequest {
			r := approval(1, start, end)
			b := decimal.New(1, 12)
			r.ApprovedBudget = &b
			return r
		}(), field: "approved_budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Review(ctx, f.reviewer, v.ID, tt.req)
			var verr *types.ErrValidation
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	got, err := f.svc.Get(ctx, f.owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusSubmitted, got.Status)
	assert.Nil(t, got.ApprovedBudget)
	assert.Nil(t, got.FundingStartDate)
	assert.Empty(t, f.notified.sent)
}

func TestReview_RejectLeavesFundingUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.submitted(t)

	got, err := f.svc.Review(ctx, f.reviewer, v.ID, &types.ReviewRequest{Status: "under_review"})
	require.NoError(t, err)
	assert.Equal(t, db.StatusUnderReview, got.Status)

	b := decimal.NewFromInt(5)
	got, err = f.svc.Review(ctx, f.reviewer, v.ID, &types.ReviewRequest{Status: "rejected", ApprovedBudget: &b, ReviewComments: "Out of scope"})
	require.NoError(t, err)
	assert.Equal(t, db.StatusRejected, got.Status)
	assert.Nil(t, got.ApprovedBudget)

	require.Len(t, f.notified.sent, 2)
	assert.Equal(t, "under_review", f.notified.sent[0].Status)
	assert.Equal(t, "rejected", f.notified.sent[1].Status)
}

func TestReview_DraftIsNotReviewable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.draft(t)

	_, err := f.svc.Review(ctx, f.reviewer, v.ID, &types.ReviewRequest{Status: "rejected"})
	var it *types.ErrInvalidTransition
	require.True(t, errors.As(err, &it))
	assert.Equal(t, "draft", it.From)

	_, err = f.svc.Review(ctx, f.reviewer, uuid.New(), &types.ReviewRequest{Status: "rejected"})
	var nf *types.ErrNotFound
	assert.True(t, errors.As(err, &nf))
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.submitted(t)

	_, err := f.svc.Complete(ctx, v.ID)
	var it *types.ErrInvalidTransition
	require.True(t, errors.As(err, &it))

	_, err = f.svc.Review(ctx, f.reviewer, v.ID, approval(10, DefaultDeadline, DefaultDeadline.Add(24*time.Hour)))
	require.NoError(t, err)

	got, err := f.svc.Complete(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCompleted, got.Status)
	assert.NotNil(t, got.ApprovedBudget, "completion keeps the funding record")

	_, err = f.svc.AddProgressReport(ctx, f.owner, v.ID, &types.ProgressReportRequest{Progress: "late"})
	var sc *types.ErrStateConflict
	assert.True(t, errors.As(err, &sc))
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		ids = append(ids, f.draft(t).ID)
	}
	_, err := f.svc.Submit(ctx, f.owner, ids[0])
	require.NoError(t, err)

	mine, err := f.svc.ListMine(ctx, f.owner, NewPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, mine.Total)
	require.Len(t, mine.Applications, 2)
	assert.Equal(t, ids[2], mine.Applications[0].ID, "newest first")
	require.NotNil(t, mine.Pagination.Next)
	assert.Equal(t, 2, mine.Pagination.Next.Page)
	assert.Nil(t, mine.Pagination.Prev)

	last, err := f.svc.ListMine(ctx, f.owner, NewPage(2, 2))
	require.NoError(t, err)
	require.Len(t, last.Applications, 1)
	assert.Nil(t, last.Pagination.Next)
	require.NotNil(t, last.Pagination.Prev)
	assert.Equal(t, 1, last.Pagination.Prev.Page)

	beyond, err := f.svc.ListMine(ctx, f.owner, NewPage(1_000_000_000_000_000_000, 10))
	require.NoError(t, err)
	assert.Empty(t, beyond.Applications)
	assert.Equal(t, 3, beyond.Total)
	assert.Nil(t, beyond.Pagination.Next)
	require.NotNil(t, beyond.Pagination.Prev)

	all, err := f.svc.ListAll(ctx, NewPage(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	require.NotNil(t, all.Applications[0].Applicant)
	assert.Equal(t, "ayesha@example.com", all.Applications[0].Applicant.Email)

	byStatus, err := f.svc.ListByStatus(ctx, "submitted", NewPage(1, 10))
	require.NoError(t, err)
	require.Equal(t, 1, byStatus.Total)
	assert.Equal(t, ids[0], byStatus.Applications[0].ID)

	_, err = f.svc.ListByStatus(ctx, "archived", NewPage(1, 10))
	var verr *types.ErrValidation
	assert.True(t, errors.As(err, &verr))
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v := f.submitted(t)
	f.draft(t)
	_, err := f.svc.Review(ctx, f.reviewer, v.ID, approval(300000, DefaultDeadline, DefaultDeadline.Add(24*time.Hour)))
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[db.StatusApproved])
	assert.Equal(t, 1, stats.ByStatus[db.StatusDraft])
	assert.Equal(t, 0, stats.ByStatus[db.StatusCompleted])
	assert.True(t, decimal.NewFromInt(1000000).Equal(stats.TotalBudgetRequested))
	assert.True(t, decimal.NewFromInt(300000).Equal(stats.TotalBudgetApproved))
	assert.Equal(t, 2, stats.Recent)
}

package grants

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
	"github.com/jonathan/grant-portal/internal/notify"
	"github.com/jonathan/grant-portal/internal/storage"
	"github.com/jonathan/grant-portal/internal/types"
)

const statsWindow = 30 * 24 * time.Hour

// Store is the application persistence the service needs.
type Store interface {
	CreateApplication(ctx context.Context, a *db.GrantApplication) (*db.GrantApplication, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*db.GrantApplication, error)
	GetUserApplication(ctx context.Context, userID, id uuid.UUID) (*db.GrantApplication, error)
	ListUserApplications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]db.GrantApplication, int, error)
	ListApplications(ctx context.Context, status db.ApplicationStatus, limit, offset int) ([]db.GrantApplication, int, error)
	UpdateApplication(ctx context.Context, a *db.GrantApplication, expected db.ApplicationStatus) (bool, error)
	DeleteApplication(ctx context.Context, userID, id uuid.UUID, expected db.ApplicationStatus) (bool, error)
	AppendAttachments(ctx context.Context, id uuid.UUID, allowed []db.ApplicationStatus, attachments []db.Attachment) (bool, error)
	AppendProgressReport(ctx context.Context, id uuid.UUID, allowed []db.ApplicationStatus, report db.ProgressReport) (bool, error)
	ApplicationStats(ctx context.Context, since time.Time) (*db.ApplicationStats, error)
}

// Dispatcher hands a notification off for background delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, n notify.StatusNotification)
}

// Service implements the application lifecycle.
type Service struct {
	store    Store
	files    storage.Storage
	notifier Dispatcher
	now      func() time.Time
	deadline time.Time
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDeadline sets the submission deadline stamped on new applications.
func WithDeadline(deadline time.Time) Option {
	return func(s *Service) { s.deadline = deadline }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service. files stores attachment uploads and
// notifier receives reviewer decisions.
func NewService(store Store, files storage.Storage, notifier Dispatcher, opts ...Option) *Service {
	s := &Service{
		store:    store,
		files:    files,
		notifier: notifier,
		now:      time.Now,
		deadline: DefaultDeadline,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// Create opens a draft application for userID.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *types.CreateApplicationRequest) (*View, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	app, err := s.store.CreateApplication(ctx, &db.GrantApplication{
		UserID:           userID,
		ResearchTitle:    req.ResearchTitle,
		ResearchArea:     db.ResearchArea(req.ResearchArea),
		Duration:         *req.Duration,
		BudgetRequested:  *req.BudgetRequested,
		ResearchAbstract: req.ResearchAbstract,
		Status:           db.StatusDraft,
		Deadline:         s.deadline,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return newView(app, s.clock()), nil
}

// Get returns one of userID's applications.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*View, error) {
	app, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return newView(app, s.clock()), nil
}

// ListMine returns one page of userID's applications, newest first.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, p Page) (*List, error) {
	apps, total, err := s.store.ListUserApplications(ctx, userID, p.Limit, p.offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return newList(apps, total, p, s.clock()), nil
}

// Update edits the core fields of a draft application.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req *types.UpdateApplicationRequest) (*View, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	app, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(app) {
		return nil, &types.ErrStateConflict{Message: "Cannot update application that has been submitted"}
	}

	if req.ResearchTitle != nil {
		app.ResearchTitle = *req.ResearchTitle
	}
	if req.ResearchArea != nil {
		app.ResearchArea = db.ResearchArea(*req.ResearchArea)
	}
	if req.Duration != nil {
		app.Duration = *req.Duration
	}
	if req.BudgetRequested != nil {
		app.BudgetRequested = *req.BudgetRequested
	}
	if req.ResearchAbstract != nil {
		app.ResearchAbstract = *req.ResearchAbstract
	}

	ok, err := s.store.UpdateApplication(ctx, app, db.StatusDraft)
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	if !ok {
		return nil, s.lostRace(ctx, userID, id, "Cannot update application that has been submitted")
	}
	return s.Get(ctx, userID, id)
}

// Submit moves a draft to submitted, provided the deadline has not passed.
func (s *Service) Submit(ctx context.Context, userID, id uuid.UUID) (*View, error) {
	app, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if !CanSubmit(app, now) {
		msg := "Application has already been submitted"
		if app.Status == db.StatusDraft {
			msg = "Application deadline has passed"
		}
		return nil, &types.ErrInvalidTransition{From: string(app.Status), To: string(db.StatusSubmitted), Message: msg}
	}

	app.Status = db.StatusSubmitted
	app.SubmittedAt = &now
	ok, err := s.store.UpdateApplication(ctx, app, db.StatusDraft)
	if err != nil {
		return nil, fmt.Errorf("failed to submit application: %w", err)
	}
	if !ok {
		if _, err := s.owned(ctx, userID, id); err != nil {
			return nil, err
		}
		return nil, &types.ErrInvalidTransition{From: string(db.StatusDraft), To: string(db.StatusSubmitted), Message: "Application has already been submitted"}
	}

	s.logger.InfoContext(ctx, "application submitted",
		slog.String("application_id", id.String()), slog.String("user_id", userID.String()))
	return s.Get(ctx, userID, id)
}

// AddAttachments stores files and appends them to a draft application.
func (s *Service) AddAttachments(ctx context.Context, userID, id uuid.UUID, files []storage.Object) (*View, error) {
	app, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !CanMutate(app) {
		return nil, &types.ErrStateConflict{Message: "Cannot add attachments to a submitted application"}
	}
	if err := storage.CheckAttachments(files); err != nil {
		return nil, err
	}

	now := s.clock()
	attachments := make([]db.Attachment, 0, len(files))
	for _, f := range files {
		path, err := s.files.Save(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		attachments = append(attachments, db.Attachment{
			ID:         uuid.New(),
			FileName:   f.FileName,
			FilePath:   path,
			FileType:   storage.DetectContentType(f),
			UploadDate: now,
		})
	}

	ok, err := s.store.AppendAttachments(ctx, id, []db.ApplicationStatus{db.StatusDraft}, attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to add attachments: %w", err)
	}
	if !ok {
		return nil, s.lostRace(ctx, userID, id, "Cannot add attachments to a submitted application")
	}
	return s.Get(ctx, userID, id)
}

// AddProgressReport files a progress report. Reports are accepted once the
// application has been submitted and until it is rejected or completed.
func (s *Service) AddProgressReport(ctx context.Context, userID, id uuid.UUID, req *types.ProgressReportRequest) (*View, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	app, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	const conflict = "Progress reports can only be added to submitted, under review or approved applications"
	if !CanReport(app) {
		return nil, &types.ErrStateConflict{Message: conflict}
	}

	report := db.ProgressReport{
		ID:         uuid.New(),
		ReportDate: s.clock(),
		Progress:   req.Progress,
		Challenges: req.Challenges,
		NextSteps:  req.NextSteps,
	}
	ok, err := s.store.AppendProgressReport(ctx, id, progressStatuses, report)
	if err != nil {
		return nil, fmt.Errorf("failed to add progress report: %w", err)
	}
	if !ok {
		return nil, s.lostRace(ctx, userID, id, conflict)
	}
	return s.Get(ctx, userID, id)
}

// Delete removes a draft application.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	app, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if !CanMutate(app) {
		return &types.ErrStateConflict{Message: "Cannot delete application that has been submitted"}
	}

	ok, err := s.store.DeleteApplication(ctx, userID, id, db.StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	if !ok {
		return s.lostRace(ctx, userID, id, "Cannot delete application that has been submitted")
	}
	return nil
}

// ListAll returns one page of every application, newest first.
func (s *Service) ListAll(ctx context.Context, p Page) (*List, error) {
	return s.list(ctx, "", p)
}

// ListByStatus returns one page of the applications in status, newest first.
func (s *Service) ListByStatus(ctx context.Context, status string, p Page) (*List, error) {
	st := db.ApplicationStatus(status)
	if !st.Valid() {
		return nil, types.NewValidation("status", "Invalid status")
	}
	return s.list(ctx, st, p)
}

func (s *Service) list(ctx context.Context, status db.ApplicationStatus, p Page) (*List, error) {
	apps, total, err := s.store.ListApplications(ctx, status, p.Limit, p.offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return newList(apps, total, p, s.clock()), nil
}

// Stats aggregates every application. Recent counts the last 30 days.
func (s *Service) Stats(ctx context.Context) (*db.ApplicationStats, error) {
	stats, err := s.store.ApplicationStats(ctx, s.clock().Add(-statsWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to compute application stats: %w", err)
	}
	return stats, nil
}

// Complete closes an approved application.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*View, error) {
	app, err := s.anyApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	from := app.Status
	if !CanTransition(from, db.StatusCompleted) {
		return nil, &types.ErrInvalidTransition{From: string(from), To: string(db.StatusCompleted), Message: "Only approved applications can be completed"}
	}

	app.Status = db.StatusCompleted
	ok, err := s.store.UpdateApplication(ctx, app, from)
	if err != nil {
		return nil, fmt.Errorf("failed to complete application: %w", err)
	}
	if !ok {
		return nil, &types.ErrInvalidTransition{From: string(from), To: string(db.StatusCompleted), Message: "Application status changed, please retry"}
	}
	s.notifyApplicant(ctx, app, s.clock())
	return s.getAny(ctx, id)
}

// owned loads an application belonging to userID. Missing and foreign
// applications both read as not found.
func (s *Service) owned(ctx context.Context, userID, id uuid.UUID) (*db.GrantApplication, error) {
	app, err := s.store.GetUserApplication(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, &types.ErrNotFound{Resource: "application"}
	}
	return app, nil
}

func (s *Service) anyApplication(ctx context.Context, id uuid.UUID) (*db.GrantApplication, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, &types.ErrNotFound{Resource: "application"}
	}
	return app, nil
}

func (s *Service) getAny(ctx context.Context, id uuid.UUID) (*View, error) {
	app, err := s.anyApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	return newView(app, s.clock()), nil
}

// lostRace explains a conditional write that matched no row: the application
// either vanished or changed status after it was read.
func (s *Service) lostRace(ctx context.Context, userID, id uuid.UUID, msg string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return &types.ErrStateConflict{Message: msg}
}

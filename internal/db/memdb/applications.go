package memdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
	"github.com/shopspring/decimal"
)

// CreateApplication inserts a draft application.
func (s *Store) CreateApplication(_ context.Context, a *db.GrantApplication) (*db.GrantApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app := cloneApplication(*a)
	now := s.timestamp()
	app.ID = uuid.New()
	app.Seq = s.nextSeq()
	app.Status = db.StatusDraft
	app.Attachments = []db.Attachment{}
	app.ProgressReports = []db.ProgressReport{}
	app.Applicant = nil
	app.CreatedAt = now
	app.UpdatedAt = now
	s.applications[app.ID] = app

	out := cloneApplication(app)
	return &out, nil
}

// GetApplication retrieves an application by ID regardless of owner.
func (s *Store) GetApplication(_ context.Context, id uuid.UUID) (*db.GrantApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok {
		return nil, nil
	}
	out := s.withApplicant(cloneApplication(app))
	return &out, nil
}

// GetUserApplication retrieves an application owned by userID.
func (s *Store) GetUserApplication(_ context.Context, userID, id uuid.UUID) (*db.GrantApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[id]
	if !ok || app.UserID != userID {
		return nil, nil
	}
	out := s.withApplicant(cloneApplication(app))
	return &out, nil
}

// ListUserApplications returns one page of a user's applications, newest first.
func (s *Store) ListUserApplications(_ context.Context, userID uuid.UUID, limit, offset int) ([]db.GrantApplication, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filterApplications(func(a db.GrantApplication) bool { return a.UserID == userID })
	page := paginate(matched, limit, offset)
	return page, len(matched), nil
}

// ListApplications returns one page of all applications with applicants
// populated. An empty status lists every status.
func (s *Store) ListApplications(_ context.Context, status db.ApplicationStatus, limit, offset int) ([]db.GrantApplication, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filterApplications(func(a db.GrantApplication) bool {
		return status == "" || a.Status == status
	})
	page := paginate(matched, limit, offset)
	for i := range page {
		page[i] = s.withApplicant(page[i])
	}
	return page, len(matched), nil
}

// UpdateApplication writes every mutable field of a while the stored status
// still equals expected.
func (s *Store) UpdateApplication(_ context.Context, a *db.GrantApplication, expected db.ApplicationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.applications[a.ID]
	if !ok || existing.Status != expected {
		return false, nil
	}

	next := cloneApplication(*a)
	next.UserID = existing.UserID
	next.Seq = existing.Seq
	next.Deadline = existing.Deadline
	next.Attachments = existing.Attachments
	next.ProgressReports = existing.ProgressReports
	next.Applicant = nil
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = s.timestamp()
	s.applications[next.ID] = next
	return true, nil
}

// DeleteApplication removes an application owned by userID while its status
// equals expected.
func (s *Store) DeleteApplication(_ context.Context, userID, id uuid.UUID, expected db.ApplicationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok || app.UserID != userID || app.Status != expected {
		return false, nil
	}
	delete(s.applications, id)
	return true, nil
}

// AppendAttachments adds attachments to an application whose status is one of allowed.
func (s *Store) AppendAttachments(_ context.Context, id uuid.UUID, allowed []db.ApplicationStatus, attachments []db.Attachment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok || !statusIn(app.Status, allowed) {
		return false, nil
	}
	list := append([]db.Attachment{}, app.Attachments...)
	for _, att := range attachments {
		if att.ID == uuid.Nil {
			att.ID = uuid.New()
		}
		list = append(list, att)
	}
	app.Attachments = list
	app.UpdatedAt = s.timestamp()
	s.applications[id] = app
	return true, nil
}

// AppendProgressReport adds a progress report to an application whose status is one of allowed.
func (s *Store) AppendProgressReport(_ context.Context, id uuid.UUID, allowed []db.ApplicationStatus, report db.ProgressReport) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok || !statusIn(app.Status, allowed) {
		return false, nil
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	app.ProgressReports = append(append([]db.ProgressReport{}, app.ProgressReports...), report)
	app.UpdatedAt = s.timestamp()
	s.applications[id] = app
	return true, nil
}

// ApplicationStats computes aggregate counts and budget sums.
func (s *Store) ApplicationStats(_ context.Context, since time.Time) (*db.ApplicationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &db.ApplicationStats{
		ByStatus:             make(map[db.ApplicationStatus]int, len(db.AllStatuses)),
		ByArea:               []db.AreaCount{},
		TotalBudgetRequested: decimal.Zero,
		TotalBudgetApproved:  decimal.Zero,
	}
	for _, st := range db.AllStatuses {
		stats.ByStatus[st] = 0
	}

	areas := map[db.ResearchArea]int{}
	for _, app := range s.applications {
		stats.Total++
		stats.ByStatus[app.Status]++
		areas[app.ResearchArea]++
		stats.TotalBudgetRequested = stats.TotalBudgetRequested.Add(app.BudgetRequested)
		if app.Status == db.StatusApproved && app.ApprovedBudget != nil {
			stats.TotalBudgetApproved = stats.TotalBudgetApproved.Add(*app.ApprovedBudget)
		}
		if !app.CreatedAt.Before(since) {
			stats.Recent++
		}
	}

	for area, n := range areas {
		stats.ByArea = append(stats.ByArea, db.AreaCount{Area: area, Count: n})
	}
	sort.Slice(stats.ByArea, func(i, j int) bool {
		if stats.ByArea[i].Count != stats.ByArea[j].Count {
			return stats.ByArea[i].Count > stats.ByArea[j].Count
		}
		return stats.ByArea[i].Area < stats.ByArea[j].Area
	})
	return stats, nil
}

func (s *Store) filterApplications(keep func(db.GrantApplication) bool) []db.GrantApplication {
	matched := []db.GrantApplication{}
	for _, app := range s.applications {
		if keep(app) {
			matched = append(matched, cloneApplication(app))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Seq > matched[j].Seq })
	return matched
}

func (s *Store) withApplicant(app db.GrantApplication) db.GrantApplication {
	if u, ok := s.users[app.UserID]; ok {
		app.Applicant = &db.Applicant{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return app
}

func paginate(apps []db.GrantApplication, limit, offset int) []db.GrantApplication {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(apps) || limit <= 0 {
		return []db.GrantApplication{}
	}
	end := offset + limit
	if end > len(apps) || end < offset {
		end = len(apps)
	}
	return apps[offset:end]
}

func statusIn(status db.ApplicationStatus, allowed []db.ApplicationStatus) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

func cloneApplication(a db.GrantApplication) db.GrantApplication {
	out := a
	if a.ReviewerID != nil {
		id := *a.ReviewerID
		out.ReviewerID = &id
	}
	if a.ApprovedBudget != nil {
		d := *a.ApprovedBudget
		out.ApprovedBudget = &d
	}
	if a.Applicant != nil {
		applicant := *a.Applicant
		out.Applicant = &applicant
	}
	out.ReviewDate = cloneTime(a.ReviewDate)
	out.FundingStartDate = cloneTime(a.FundingStartDate)
	out.FundingEndDate = cloneTime(a.FundingEndDate)
	out.SubmittedAt = cloneTime(a.SubmittedAt)
	out.Attachments = append([]db.Attachment{}, a.Attachments...)
	out.ProgressReports = append([]db.ProgressReport{}, a.ProgressReports...)
	return out
}

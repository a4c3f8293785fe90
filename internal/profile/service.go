package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
	"github.com/jonathan/grant-portal/internal/types"
)

const defaultNationality = "Pakistan"

// Store is the persistence the profile service needs. Both *db.DB and
// *memdb.Store satisfy it.
type Store interface {
	FlagStore

	UpsertPersonal(ctx context.Context, p *db.PersonalRecord) (*db.PersonalRecord, error)
	GetPersonal(ctx context.Context, userID uuid.UUID) (*db.PersonalRecord, error)
	SetProfilePicture(ctx context.Context, userID uuid.UUID, path string) (bool, error)

	CreateEducation(ctx context.Context, e *db.EducationalRecord) (*db.EducationalRecord, error)
	GetEducation(ctx context.Context, userID, id uuid.UUID) (*db.EducationalRecord, error)
	ListEducation(ctx context.Context, userID uuid.UUID) ([]db.EducationalRecord, error)
	UpdateEducation(ctx context.Context, e *db.EducationalRecord) (bool, error)
	DeleteEducation(ctx context.Context, userID, id uuid.UUID) (bool, error)

	CreateEmployment(ctx context.Context, e *db.EmploymentRecord) (*db.EmploymentRecord, error)
	GetEmployment(ctx context.Context, userID, id uuid.UUID) (*db.EmploymentRecord, error)
	ListEmployment(ctx context.Context, userID uuid.UUID) ([]db.EmploymentRecord, error)
	UpdateEmployment(ctx context.Context, e *db.EmploymentRecord) (bool, error)
	DeleteEmployment(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

// Service implements the profile operations. Every education or employment
// mutation is followed by the matching flag recompute before it returns.
type Service struct {
	store  Store
	engine *Engine
	logger *slog.Logger
}

// NewService creates a profile Service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		engine: NewEngine(store, logger),
		logger: logger,
	}
}

// -----------------------------------------------------------------------------
// Personal
// -----------------------------------------------------------------------------

// UpsertPersonal creates or replaces the caller's personal record.
func (s *Service) UpsertPersonal(ctx context.Context, userID uuid.UUID, req *types.PersonalRequest) (*db.PersonalRecord, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	nationality := req.Nationality
	if nationality == "" {
		nationality = defaultNationality
	}
	rec := &db.PersonalRecord{
		UserID:           userID,
		Title:            req.Title,
		FirstName:        req.FirstName,
		MiddleName:       req.MiddleName,
		LastName:         req.LastName,
		FatherName:       req.FatherName,
		DateOfBirth:      req.DateOfBirth.Time,
		MaritalStatus:    req.MaritalStatus,
		Gender:           req.Gender,
		PermanentAddress: req.PermanentAddress,
		PermanentCountry: req.PermanentCountry,
		PermanentCity:    req.PermanentCity,
		MailingAddress:   req.MailingAddress,
		MailingCountry:   req.MailingCountry,
		MailingCity:      req.MailingCity,
		SameAsPermanent:  req.SameAsPermanent,
		CNIC:             req.CNIC,
		Nationality:      nationality,
	}
	rec.SyncMailingAddress()

	out, err := s.store.UpsertPersonal(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to save personal information: %w", err)
	}
	return out, nil
}

// GetPersonal returns the caller's personal record.
func (s *Service) GetPersonal(ctx context.Context, userID uuid.UUID) (*db.PersonalRecord, error) {
	rec, err := s.store.GetPersonal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get personal information: %w", err)
	}
	if rec == nil {
		return nil, &types.ErrNotFound{Resource: "personal information"}
	}
	return rec, nil
}

// SetProfilePicture stores path as the caller's profile picture. The personal
// record must already exist.
func (s *Service) SetProfilePicture(ctx context.Context, userID uuid.UUID, path string) (*db.PersonalRecord, error) {
	ok, err := s.store.SetProfilePicture(ctx, userID, path)
	if err != nil {
		return nil, fmt.Errorf("failed to set profile picture: %w", err)
	}
	if !ok {
		return nil, &types.ErrNotFound{Resource: "personal information"}
	}
	return s.GetPersonal(ctx, userID)
}

// -----------------------------------------------------------------------------
// Education
// -----------------------------------------------------------------------------

// ListEducation returns the caller's educational records, newest first.
func (s *Service) ListEducation(ctx context.Context, userID uuid.UUID) ([]db.EducationalRecord, error) {
	records, err := s.store.ListEducation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list educational records: %w", err)
	}
	return records, nil
}

// AddEducation validates and stores a new educational record.
func (s *Service) AddEducation(ctx context.Context, userID uuid.UUID, req *types.EducationRequest) (*db.EducationalRecord, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	endDate := req.EndDate.Ptr()
	status := deriveStatus(req.Enrolled, req.Incomplete, endDate)
	if req.Status != nil {
		status = db.EducationStatus(*req.Status)
	}

	rec := &db.EducationalRecord{
		UserID:             userID,
		QualificationLevel: db.QualificationLevel(req.QualificationLevel),
		Status:             status,
		Country:            req.Country,
		City:               req.City,
		Institute:          req.Institute,
		ProgramTitle:       req.ProgramTitle,
		Discipline:         req.Discipline,
		Campus:             req.Campus,
		Department:         req.Department,
		DegreeType:         req.DegreeType,
		SessionType:        req.SessionType,
		Major:              req.Major,
		ResearchArea:       req.ResearchArea,
		StartDate:          req.StartDate.Time,
		EndDate:            endDate,
	}
	if err := checkEducationDates(rec); err != nil {
		return nil, err
	}

	created, err := s.store.CreateEducation(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to add educational record: %w", err)
	}
	s.engine.afterEducationChange(ctx, userID)
	return s.reloadEducation(ctx, created), nil
}

// UpdateEducation merges patch into the caller's record and revalidates it.
func (s *Service) UpdateEducation(ctx context.Context, userID, id uuid.UUID, patch *types.EducationPatch) (*db.EducationalRecord, error) {
	if err := types.Validate(patch); err != nil {
		return nil, err
	}

	rec, err := s.store.GetEducation(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get educational record: %w", err)
	}
	if rec == nil {
		return nil, &types.ErrNotFound{Resource: "educational record"}
	}

	mergeEducation(rec, patch)
	if err := checkEducationDates(rec); err != nil {
		return nil, err
	}

	ok, err := s.store.UpdateEducation(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to update educational record: %w", err)
	}
	if !ok {
		return nil, &types.ErrNotFound{Resource: "educational record"}
	}
	s.engine.afterEducationChange(ctx, userID)
	return s.reloadEducation(ctx, rec), nil
}

// DeleteEducation removes one of the caller's educational records.
func (s *Service) DeleteEducation(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.store.DeleteEducation(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete educational record: %w", err)
	}
	if !ok {
		return &types.ErrNotFound{Resource: "educational record"}
	}
	s.engine.afterEducationChange(ctx, userID)
	return nil
}

// reloadEducation re-reads rec so the returned copy carries the recomputed
// flag. The stored copy is returned as-is if the read fails.
func (s *Service) reloadEducation(ctx context.Context, rec *db.EducationalRecord) *db.EducationalRecord {
	fresh, err := s.store.GetEducation(ctx, rec.UserID, rec.ID)
	if err != nil || fresh == nil {
		if err != nil {
			s.logger.WarnContext(ctx, "reload educational record failed",
				slog.String("id", rec.ID.String()), slog.Any("error", err))
		}
		return rec
	}
	return fresh
}

// deriveStatus maps the legacy enrolled/incomplete/end date inputs onto a status.
func deriveStatus(enrolled, incomplete bool, endDate *time.Time) db.EducationStatus {
	switch {
	case enrolled:
		return db.EducationEnrolled
	case incomplete:
		return db.EducationIncomplete
	case endDate != nil:
		return db.EducationCompleted
	default:
		return db.EducationInProgress
	}
}

func mergeEducation(rec *db.EducationalRecord, p *types.EducationPatch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if p.QualificationLevel != nil {
		rec.QualificationLevel = db.QualificationLevel(*p.QualificationLevel)
	}
	setString(&rec.Country, p.Country)
	setString(&rec.City, p.City)
	setString(&rec.Institute, p.Institute)
	setString(&rec.ProgramTitle, p.ProgramTitle)
	setString(&rec.Discipline, p.Discipline)
	setString(&rec.Campus, p.Campus)
	setString(&rec.Department, p.Department)
	setString(&rec.DegreeType, p.DegreeType)
	setString(&rec.SessionType, p.SessionType)
	setString(&rec.Major, p.Major)
	setString(&rec.ResearchArea, p.ResearchArea)
	if p.StartDate != nil && !p.StartDate.IsZero() {
		rec.StartDate = p.StartDate.Time
	}
	if p.EndDate.Set {
		rec.EndDate = p.EndDate.Ptr()
	}

	switch {
	case p.Status != nil:
		rec.Status = db.EducationStatus(*p.Status)
	case p.Enrolled != nil || p.Incomplete != nil || p.EndDate.Set:
		enrolled := rec.Status == db.EducationEnrolled
		if p.Enrolled != nil {
			enrolled = *p.Enrolled
		}
		incomplete := rec.Status == db.EducationIncomplete
		if p.Incomplete != nil {
			incomplete = *p.Incomplete
		}
		rec.Status = deriveStatus(enrolled, incomplete, rec.EndDate)
	}

	// A status that forbids an end date drops the stored one unless the
	// patch supplied a new one, which checkEducationDates then rejects.
	if rec.Status.ForbidsEndDate() && !p.EndDate.Set {
		rec.EndDate = nil
	}
}

func checkEducationDates(rec *db.EducationalRecord) error {
	switch {
	case rec.Status.RequiresEndDate() && rec.EndDate == nil:
		return types.NewValidation("end_date", "End date is required for a completed qualification")
	case rec.Status.ForbidsEndDate() && rec.EndDate != nil:
		return types.NewValidation("end_date", "End date must be empty while the qualification is in progress")
	case rec.EndDate != nil && rec.EndDate.Before(rec.StartDate):
		return types.NewValidation("end_date", "End date cannot be before start date")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Employment
// -----------------------------------------------------------------------------

// ListEmployment returns the caller's employment records, newest first.
func (s *Service) ListEmployment(ctx context.Context, userID uuid.UUID) ([]db.EmploymentRecord, error) {
	records, err := s.store.ListEmployment(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employment records: %w", err)
	}
	return records, nil
}

// AddEmployment validates and stores a new employment record.
func (s *Service) AddEmployment(ctx context.Context, userID uuid.UUID, req *types.EmploymentRequest) (*db.EmploymentRecord, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	rec := &db.EmploymentRecord{
		UserID:           userID,
		OrganizationType: db.OrganizationType(req.OrganizationType),
		Country:          req.Country,
		Sector:           req.Sector,
		Category:         req.Category,
		EmployerName:     req.EmployerName,
		JobType:          req.JobType,
		JobTitle:         req.JobTitle,
		FieldOfWork:      req.FieldOfWork,
		CareerLevel:      req.CareerLevel,
		JobDescription:   req.JobDescription,
		OfficeEmail:      req.OfficeEmail,
		ContactNumber:    req.ContactNumber,
		Website:          req.Website,
		StartDate:        req.StartDate.Time,
		EndDate:          req.EndDate.Ptr(),
		CurrentlyWorking: req.CurrentlyWorking,
	}
	if rec.CurrentlyWorking {
		rec.EndDate = nil
	}
	if err := checkEmploymentDates(rec); err != nil {
		return nil, err
	}

	created, err := s.store.CreateEmployment(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to add employment record: %w", err)
	}
	s.engine.afterEmploymentChange(ctx, userID)
	return s.reloadEmployment(ctx, created), nil
}

// UpdateEmployment merges patch into the caller's record and revalidates it.
func (s *Service) UpdateEmployment(ctx context.Context, userID, id uuid.UUID, patch *types.EmploymentPatch) (*db.EmploymentRecord, error) {
	if err := types.Validate(patch); err != nil {
		return nil, err
	}

	rec, err := s.store.GetEmployment(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employment record: %w", err)
	}
	if rec == nil {
		return nil, &types.ErrNotFound{Resource: "employment record"}
	}

	mergeEmployment(rec, patch)
	if err := checkEmploymentDates(rec); err != nil {
		return nil, err
	}

	ok, err := s.store.UpdateEmployment(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to update employment record: %w", err)
	}
	if !ok {
		return nil, &types.ErrNotFound{Resource: "employment record"}
	}
	s.engine.afterEmploymentChange(ctx, userID)
	return s.reloadEmployment(ctx, rec), nil
}

// DeleteEmployment removes one of the caller's employment records.
func (s *Service) DeleteEmployment(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.store.DeleteEmployment(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete employment record: %w", err)
	}
	if !ok {
		return &types.ErrNotFound{Resource: "employment record"}
	}
	s.engine.afterEmploymentChange(ctx, userID)
	return nil
}

func (s *Service) reloadEmployment(ctx context.Context, rec *db.EmploymentRecord) *db.EmploymentRecord {
	fresh, err := s.store.GetEmployment(ctx, rec.UserID, rec.ID)
	if err != nil || fresh == nil {
		if err != nil {
			s.logger.WarnContext(ctx, "reload employment record failed",
				slog.String("id", rec.ID.String()), slog.Any("error", err))
		}
		return rec
	}
	return fresh
}

func mergeEmployment(rec *db.EmploymentRecord, p *types.EmploymentPatch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	if p.OrganizationType != nil {
		rec.OrganizationType = db.OrganizationType(*p.OrganizationType)
	}
	setString(&rec.Country, p.Country)
	setString(&rec.Sector, p.Sector)
	setString(&rec.Category, p.Category)
	setString(&rec.EmployerName, p.EmployerName)
	setString(&rec.JobType, p.JobType)
	setString(&rec.JobTitle, p.JobTitle)
	setString(&rec.FieldOfWork, p.FieldOfWork)
	setString(&rec.CareerLevel, p.CareerLevel)
	setString(&rec.JobDescription, p.JobDescription)
	setString(&rec.OfficeEmail, p.OfficeEmail)
	setString(&rec.ContactNumber, p.ContactNumber)
	setString(&rec.Website, p.Website)
	if p.StartDate != nil && !p.StartDate.IsZero() {
		rec.StartDate = p.StartDate.Time
	}
	if p.EndDate.Set {
		rec.EndDate = p.EndDate.Ptr()
	}
	if p.CurrentlyWorking != nil {
		rec.CurrentlyWorking = *p.CurrentlyWorking
	}
	if rec.CurrentlyWorking {
		rec.EndDate = nil
	}
}

func checkEmploymentDates(rec *db.EmploymentRecord) error {
	if rec.EndDate != nil && rec.EndDate.Before(rec.StartDate) {
		return types.NewValidation("end_date", "End date cannot be before start date")
	}
	return nil
}

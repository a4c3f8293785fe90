package memdb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
)

// -----------------------------------------------------------------------------
// Personal
// -----------------------------------------------------------------------------

// UpsertPersonal creates or replaces the personal record of p.UserID.
func (s *Store) UpsertPersonal(_ context.Context, p *db.PersonalRecord) (*db.PersonalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *p
	rec.SyncMailingAddress()
	now := s.timestamp()

	if existing, ok := s.personal[rec.UserID]; ok {
		rec.ID = existing.ID
		rec.ProfilePicture = existing.ProfilePicture
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = uuid.New()
		rec.ProfilePicture = nil
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.personal[rec.UserID] = rec

	out := rec
	return &out, nil
}

// GetPersonal retrieves the personal record of a user. Returns nil if not found.
func (s *Store) GetPersonal(_ context.Context, userID uuid.UUID) (*db.PersonalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.personal[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// SetProfilePicture stores the picture path on a user's personal record.
func (s *Store) SetProfilePicture(_ context.Context, userID uuid.UUID, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.personal[userID]
	if !ok {
		return false, nil
	}
	rec.ProfilePicture = &path
	rec.UpdatedAt = s.timestamp()
	s.personal[userID] = rec
	return true, nil
}

// -----------------------------------------------------------------------------
// Education
// -----------------------------------------------------------------------------

// CreateEducation inserts an educational record with a fresh ID and sequence.
func (s *Store) CreateEducation(_ context.Context, e *db.EducationalRecord) (*db.EducationalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *e
	now := s.timestamp()
	rec.ID = uuid.New()
	rec.Seq = s.nextSeq()
	rec.EndDate = cloneTime(e.EndDate)
	rec.IsHighestEducation = false
	rec.IsVerified = false
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.education[rec.ID] = rec

	out := rec
	return &out, nil
}

// GetEducation retrieves an educational record owned by userID.
func (s *Store) GetEducation(_ context.Context, userID, id uuid.UUID) (*db.EducationalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.education[id]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	rec.EndDate = cloneTime(rec.EndDate)
	return &rec, nil
}

// ListEducation returns a user's educational records, newest first.
func (s *Store) ListEducation(_ context.Context, userID uuid.UUID) ([]db.EducationalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.educationFor(userID), nil
}

// UpdateEducation overwrites the descriptive fields of an educational record.
// The stored flag, verification state and sequence are preserved.
func (s *Store) UpdateEducation(_ context.Context, e *db.EducationalRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.education[e.ID]
	if !ok || existing.UserID != e.UserID {
		return false, nil
	}
	rec := *e
	rec.Seq = existing.Seq
	rec.EndDate = cloneTime(e.EndDate)
	rec.IsHighestEducation = existing.IsHighestEducation
	rec.IsVerified = existing.IsVerified
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = s.timestamp()
	s.education[rec.ID] = rec
	return true, nil
}

// DeleteEducation removes an educational record owned by userID.
func (s *Store) DeleteEducation(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.education[id]
	if !ok || rec.UserID != userID {
		return false, nil
	}
	delete(s.education, id)
	return true, nil
}

// MarkHighestEducation recomputes the highest-education flag for a user while
// holding the store lock, so the read-pick-write sequence is atomic.
func (s *Store) MarkHighestEducation(_ context.Context, userID uuid.UUID, pick func([]db.EducationalRecord) uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.educationFor(userID)
	if len(records) == 0 {
		return nil
	}
	winner := pick(records)
	for _, rec := range records {
		flag := rec.ID == winner
		if rec.IsHighestEducation != flag {
			stored := s.education[rec.ID]
			stored.IsHighestEducation = flag
			stored.UpdatedAt = s.timestamp()
			s.education[rec.ID] = stored
		}
	}
	return nil
}

func (s *Store) educationFor(userID uuid.UUID) []db.EducationalRecord {
	records := []db.EducationalRecord{}
	for _, rec := range s.education {
		if rec.UserID == userID {
			rec.EndDate = cloneTime(rec.EndDate)
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq > records[j].Seq })
	return records
}

// -----------------------------------------------------------------------------
// Employment
// -----------------------------------------------------------------------------

// CreateEmployment inserts an employment record with a fresh ID and sequence.
func (s *Store) CreateEmployment(_ context.Context, e *db.EmploymentRecord) (*db.EmploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *e
	now := s.timestamp()
	rec.ID = uuid.New()
	rec.Seq = s.nextSeq()
	rec.EndDate = cloneTime(e.EndDate)
	rec.IsCurrentEmployment = false
	rec.IsVerified = false
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.employment[rec.ID] = rec

	out := rec
	return &out, nil
}

// GetEmployment retrieves an employment record owned by userID.
func (s *Store) GetEmployment(_ context.Context, userID, id uuid.UUID) (*db.EmploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.employment[id]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	rec.EndDate = cloneTime(rec.EndDate)
	return &rec, nil
}

// ListEmployment returns a user's employment records, newest first.
func (s *Store) ListEmployment(_ context.Context, userID uuid.UUID) ([]db.EmploymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.employmentFor(userID), nil
}

// UpdateEmployment overwrites the descriptive fields of an employment record.
func (s *Store) UpdateEmployment(_ context.Context, e *db.EmploymentRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.employment[e.ID]
	if !ok || existing.UserID != e.UserID {
		return false, nil
	}
	rec := *e
	rec.Seq = existing.Seq
	rec.EndDate = cloneTime(e.EndDate)
	rec.IsCurrentEmployment = existing.IsCurrentEmployment
	rec.IsVerified = existing.IsVerified
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = s.timestamp()
	s.employment[rec.ID] = rec
	return true, nil
}

// DeleteEmployment removes an employment record owned by userID.
func (s *Store) DeleteEmployment(_ context.Context, userID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.employment[id]
	if !ok || rec.UserID != userID {
		return false, nil
	}
	delete(s.employment, id)
	return true, nil
}

// MarkCurrentEmployment recomputes the current-employment flag for a user.
func (s *Store) MarkCurrentEmployment(_ context.Context, userID uuid.UUID, pick func([]db.EmploymentRecord) uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.employmentFor(userID)
	if len(records) == 0 {
		return nil
	}
	winner := pick(records)
	for _, rec := range records {
		flag := rec.ID == winner
		if rec.IsCurrentEmployment != flag {
			stored := s.employment[rec.ID]
			stored.IsCurrentEmployment = flag
			stored.UpdatedAt = s.timestamp()
			s.employment[rec.ID] = stored
		}
	}
	return nil
}

func (s *Store) employmentFor(userID uuid.UUID) []db.EmploymentRecord {
	records := []db.EmploymentRecord{}
	for _, rec := range s.employment {
		if rec.UserID == userID {
			rec.EndDate = cloneTime(rec.EndDate)
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq > records[j].Seq })
	return records
}

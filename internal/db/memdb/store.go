// Package memdb provides an in-memory implementation of the grant portal
// store. It backs unit and handler tests and the --memory development mode of
// the server, and mirrors the semantics of the PostgreSQL store in package db:
// missing and foreign-owned records read as nil, conditional writes report
// false when the expected status no longer holds, and lists are newest first.
package memdb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
)

// Store is a mutex-guarded in-memory store. The zero value is not usable;
// construct with New.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int64

	users        map[uuid.UUID]db.User
	personal     map[uuid.UUID]db.PersonalRecord // keyed by user ID
	education    map[uuid.UUID]db.EducationalRecord
	employment   map[uuid.UUID]db.EmploymentRecord
	applications map[uuid.UUID]db.GrantApplication
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:          time.Now,
		users:        make(map[uuid.UUID]db.User),
		personal:     make(map[uuid.UUID]db.PersonalRecord),
		education:    make(map[uuid.UUID]db.EducationalRecord),
		employment:   make(map[uuid.UUID]db.EmploymentRecord),
		applications: make(map[uuid.UUID]db.GrantApplication),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// nextSeq must be called with mu held for writing.
func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

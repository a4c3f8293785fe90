// Package profile keeps a user's personal, educational and employment records
// and the derived "highest education" and "current employment" flags.
package profile

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
)

// FlagStore writes the derived flags. Implementations must load the owner's
// record set, call pick and persist the result as one atomic step.
type FlagStore interface {
	MarkHighestEducation(ctx context.Context, userID uuid.UUID, pick func([]db.EducationalRecord) uuid.UUID) error
	MarkCurrentEmployment(ctx context.Context, userID uuid.UUID, pick func([]db.EmploymentRecord) uuid.UUID) error
}

// HighestEducation returns the ID of the record with the greatest
// qualification rank. Ties go to the latest start date, then to the record
// created first. Returns uuid.Nil for an empty set.
func HighestEducation(records []db.EducationalRecord) uuid.UUID {
	if len(records) == 0 {
		return uuid.Nil
	}
	best := records[0]
	for _, rec := range records[1:] {
		if educationOutranks(rec, best) {
			best = rec
		}
	}
	return best.ID
}

func educationOutranks(a, b db.EducationalRecord) bool {
	ra, rb := a.QualificationLevel.Rank(), b.QualificationLevel.Rank()
	if ra != rb {
		return ra > rb
	}
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.Seq < b.Seq
}

// CurrentEmployment returns the ID of the record with the latest start date,
// ties going to the record created first. Returns uuid.Nil for an empty set.
func CurrentEmployment(records []db.EmploymentRecord) uuid.UUID {
	if len(records) == 0 {
		return uuid.Nil
	}
	best := records[0]
	for _, rec := range records[1:] {
		if !rec.StartDate.Equal(best.StartDate) {
			if rec.StartDate.After(best.StartDate) {
				best = rec
			}
			continue
		}
		if rec.Seq < best.Seq {
			best = rec
		}
	}
	return best.ID
}

// Engine recomputes derived flags after a profile mutation.
type Engine struct {
	store  FlagStore
	logger *slog.Logger
}

// NewEngine creates an Engine over store.
func NewEngine(store FlagStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// RecomputeEducationFlags flags exactly one of the owner's educational
// records as highest, or none when the owner has no records.
func (e *Engine) RecomputeEducationFlags(ctx context.Context, userID uuid.UUID) error {
	return e.store.MarkHighestEducation(ctx, userID, HighestEducation)
}

// RecomputeEmploymentFlags flags exactly one of the owner's employment
// records as current, or none when the owner has no records.
func (e *Engine) RecomputeEmploymentFlags(ctx context.Context, userID uuid.UUID) error {
	return e.store.MarkCurrentEmployment(ctx, userID, CurrentEmployment)
}

// afterEducationChange runs the education recompute and logs a failure
// instead of returning it. The triggering mutation has already committed.
func (e *Engine) afterEducationChange(ctx context.Context, userID uuid.UUID) {
	if err := e.RecomputeEducationFlags(ctx, userID); err != nil {
		e.logger.ErrorContext(ctx, "highest education recompute failed",
			slog.String("user_id", userID.String()), slog.Any("error", err))
	}
}

func (e *Engine) afterEmploymentChange(ctx context.Context, userID uuid.UUID) {
	if err := e.RecomputeEmploymentFlags(ctx, userID); err != nil {
		e.logger.ErrorContext(ctx, "current employment recompute failed",
			slog.String("user_id", userID.String()), slog.Any("error", err))
	}
}

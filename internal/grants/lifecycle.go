// Package grants implements the grant application lifecycle: drafting,
// submission before the deadline, reviewer decisions and progress reporting.
package grants

import (
	"math"
	"time"

	"github.com/jonathan/grant-portal/internal/db"
)

// DefaultDeadline is the submission cutoff used when none is configured.
var DefaultDeadline = time.Date(2025, 9, 23, 23, 59, 0, 0, time.UTC)

const dayMillis = 24 * 60 * 60 * 1000

// progressStatuses are the states in which progress reports are accepted.
var progressStatuses = []db.ApplicationStatus{
	db.StatusSubmitted,
	db.StatusUnderReview,
	db.StatusApproved,
}

// transitions lists every status change the lifecycle allows.
var transitions = map[db.ApplicationStatus][]db.ApplicationStatus{
	db.StatusDraft:       {db.StatusSubmitted},
	db.StatusSubmitted:   {db.StatusUnderReview, db.StatusApproved, db.StatusRejected},
	db.StatusUnderReview: {db.StatusUnderReview, db.StatusApproved, db.StatusRejected},
	db.StatusApproved:    {db.StatusCompleted},
}

// CanTransition reports whether an application may move from one status to another.
func CanTransition(from, to db.ApplicationStatus) bool {
	return statusIn(to, transitions[from])
}

// CanMutate reports whether the owner may still edit the application, its
// attachments or delete it.
func CanMutate(app *db.GrantApplication) bool {
	return app.Status == db.StatusDraft
}

// CanSubmit reports whether the application is a draft and the deadline has
// not passed at now.
func CanSubmit(app *db.GrantApplication, now time.Time) bool {
	return app.Status == db.StatusDraft && !now.After(app.Deadline)
}

// DaysUntilDeadline returns the whole days left before the deadline, rounded
// up. It is negative once a full day has passed.
func DaysUntilDeadline(app *db.GrantApplication, now time.Time) int {
	ms := app.Deadline.Sub(now).Milliseconds()
	return int(math.Ceil(float64(ms) / dayMillis))
}

// IsOverdue reports whether the deadline lies at least a day in the past. An
// application due today is not overdue.
func IsOverdue(app *db.GrantApplication, now time.Time) bool {
	return DaysUntilDeadline(app, now) < 0
}

// CanReport reports whether progress reports may be filed against the application.
func CanReport(app *db.GrantApplication) bool {
	return statusIn(app.Status, progressStatuses)
}

func statusIn(status db.ApplicationStatus, set []db.ApplicationStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

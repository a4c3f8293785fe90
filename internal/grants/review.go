package grants

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/grant-portal/internal/db"
	"github.com/jonathan/grant-portal/internal/notify"
	"github.com/jonathan/grant-portal/internal/types"
)

// Review records a reviewer decision on a submitted or under-review
// application and notifies the applicant in the background. Approval writes
// the approved budget and funding window together with the status.
func (s *Service) Review(ctx context.Context, reviewerID, id uuid.UUID, req *types.ReviewRequest) (*View, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}
	to := db.ApplicationStatus(req.Status)
	if to == db.StatusApproved {
		if err := checkFunding(req); err != nil {
			return nil, err
		}
	}

	app, err := s.anyApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	from := app.Status
	if !CanTransition(from, to) {
		return nil, &types.ErrInvalidTransition{
			From:    string(from),
			To:      string(to),
			Message: fmt.Sprintf("Cannot review an application that is %s", from),
		}
	}

	now := s.clock()
	app.Status = to
	app.ReviewerID = &reviewerID
	app.ReviewDate = &now
	app.ReviewComments = req.ReviewComments
	if to == db.StatusApproved {
		budget := *req.ApprovedBudget
		app.ApprovedBudget = &budget
		app.FundingStartDate = req.FundingStartDate.Ptr()
		app.FundingEndDate = req.FundingEndDate.Ptr()
	}

	ok, err := s.store.UpdateApplication(ctx, app, from)
	if err != nil {
		return nil, fmt.Errorf("failed to review application: %w", err)
	}
	if !ok {
		return nil, &types.ErrInvalidTransition{From: string(from), To: string(to), Message: "Application status changed, please retry"}
	}

	s.logger.InfoContext(ctx, "application reviewed",
		slog.String("application_id", id.String()),
		slog.String("reviewer_id", reviewerID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)))

	s.notifyApplicant(ctx, app, now)
	return s.getAny(ctx, id)
}

func checkFunding(req *types.ReviewRequest) error {
	switch {
	case req.ApprovedBudget == nil:
		return types.NewValidation("approved_budget", "Approved budget is required when approving an application")
	case req.FundingStartDate.Ptr() == nil:
		return types.NewValidation("funding_start_date", "Funding start date is required when approving an application")
	case req.FundingEndDate.Ptr() == nil:
		return types.NewValidation("funding_end_date", "Funding end date is required when approving an application")
	case req.FundingEndDate.Before(req.FundingStartDate.Time):
		return types.NewValidation("funding_end_date", "Funding end date cannot be before funding start date")
	}
	return nil
}

func (s *Service) notifyApplicant(ctx context.Context, app *db.GrantApplication, at time.Time) {
	if s.notifier == nil {
		return
	}
	if app.Applicant == nil || app.Applicant.Email == "" {
		s.logger.WarnContext(ctx, "no applicant email for notification",
			slog.String("application_id", app.ID.String()))
		return
	}
	s.notifier.Dispatch(ctx, notify.StatusNotification{
		ApplicationID: app.ID,
		Email:         app.Applicant.Email,
		ResearchTitle: app.ResearchTitle,
		Status:        string(app.Status),
		Comments:      app.ReviewComments,
		OccurredAt:    at,
	})
}

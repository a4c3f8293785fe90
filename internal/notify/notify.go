// Package notify delivers application status notifications to applicants.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StatusNotification tells an applicant that their application changed status.
type StatusNotification struct {
	ApplicationID uuid.UUID
	Email         string
	ResearchTitle string
	Status        string
	Comments      string
	OccurredAt    time.Time
}

// Notifier delivers a StatusNotification.
type Notifier interface {
	Notify(ctx context.Context, n StatusNotification) error
}

var statusLabels = map[string]string{
	"submitted":    "Submitted",
	"under_review": "Under Review",
	"approved":     "Approved",
	"rejected":     "Rejected",
	"completed":    "Completed",
}

// StatusLabel returns the human label for an application status.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// Subject returns the message subject for n.
func (n StatusNotification) Subject() string {
	return "Research Grant Application " + StatusLabel(n.Status)
}

// Text returns the plain-text message body for n.
func (n StatusNotification) Text() string {
	body := fmt.Sprintf("Your research grant application %q has been %s.",
		n.ResearchTitle, strings.ToLower(StatusLabel(n.Status)))
	if n.Comments != "" {
		body += "\n\nComments: " + n.Comments
	}
	return body
}

// LogNotifier writes notifications to a logger. It stands in for a broker
// when none is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs n at info level.
func (l *LogNotifier) Notify(ctx context.Context, n StatusNotification) error {
	l.logger.InfoContext(ctx, "application status notification",
		slog.String("application_id", n.ApplicationID.String()),
		slog.String("email", n.Email),
		slog.String("status", n.Status),
		slog.String("subject", n.Subject()),
	)
	return nil
}

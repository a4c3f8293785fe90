package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Grant Application Methods
// -----------------------------------------------------------------------------

// NUMERIC columns travel as text so decimal values round-trip exactly.
const applicationColumns = `a.id, a.seq, a.user_id, a.research_title, a.research_area, a.duration,
	a.budget_requested::text, a.research_abstract, a.status, a.reviewer_id, a.review_comments,
	a.review_date, a.approved_budget::text, a.funding_start_date, a.funding_end_date,
	a.submitted_at, a.deadline, a.created_at, a.updated_at`

// CreateApplication inserts a draft application and returns the stored row.
func (db *DB) CreateApplication(ctx context.Context, a *GrantApplication) (*GrantApplication, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO grant_applications AS a (user_id, research_title, research_area, duration,
		        budget_requested, research_abstract, status, deadline)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
		 RETURNING `+applicationColumns,
		a.UserID, a.ResearchTitle, a.ResearchArea, a.Duration, a.BudgetRequested.String(),
		a.ResearchAbstract, StatusDraft, a.Deadline,
	)

	out, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	out.Attachments = []Attachment{}
	out.ProgressReports = []ProgressReport{}
	return out, nil
}

// GetApplication retrieves an application by ID regardless of owner, with
// its attachments, progress reports and applicant. Returns nil if not found.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*GrantApplication, error) {
	return db.getApplication(ctx, `a.id = $1`, id)
}

// GetUserApplication retrieves an application owned by userID.
// Returns nil if the application does not exist or belongs to someone else.
func (db *DB) GetUserApplication(ctx context.Context, userID, id uuid.UUID) (*GrantApplication, error) {
	return db.getApplication(ctx, `a.id = $1 AND a.user_id = $2`, id, userID)
}

func (db *DB) getApplication(ctx context.Context, where string, args ...any) (*GrantApplication, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+`, u.name, u.email
		 FROM grant_applications a JOIN users u ON u.id = a.user_id
		 WHERE `+where, args...)

	a, err := scanApplication(row, withApplicant())
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	apps := []GrantApplication{*a}
	if err := db.loadChildren(ctx, apps); err != nil {
		return nil, err
	}
	return &apps[0], nil
}

// ListUserApplications returns one page of a user's applications, newest
// first, and the user's total application count.
func (db *DB) ListUserApplications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]GrantApplication, int, error) {
	var total int
	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM grant_applications WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+`
		 FROM grant_applications a
		 WHERE a.user_id = $1
		 ORDER BY a.seq DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	apps, err := collectApplications(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := db.loadChildren(ctx, apps); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// ListApplications returns one page of all applications, newest first, with
// applicants populated. An empty status lists every status.
func (db *DB) ListApplications(ctx context.Context, status ApplicationStatus, limit, offset int) ([]GrantApplication, int, error) {
	var total int
	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM grant_applications WHERE ($1 = '' OR status = $1)`, string(status),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+`, u.name, u.email
		 FROM grant_applications a JOIN users u ON u.id = a.user_id
		 WHERE ($1 = '' OR a.status = $1)
		 ORDER BY a.seq DESC
		 LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	apps, err := collectApplications(rows, withApplicant())
	if err != nil {
		return nil, 0, err
	}
	if err := db.loadChildren(ctx, apps); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// UpdateApplication writes every mutable column of a in one statement, but
// only while the stored status still equals expected. Returns false when the
// row is missing or its status has moved on.
func (db *DB) UpdateApplication(ctx context.Context, a *GrantApplication, expected ApplicationStatus) (bool, error) {
	var approved *string
	if a.ApprovedBudget != nil {
		s := a.ApprovedBudget.String()
		approved = &s
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE grant_applications SET
		        research_title = $3, research_area = $4, duration = $5,
		        budget_requested = $6::numeric, research_abstract = $7, status = $8,
		        reviewer_id = $9, review_comments = $10, review_date = $11,
		        approved_budget = $12::numeric, funding_start_date = $13, funding_end_date = $14,
		        submitted_at = $15, updated_at = NOW()
		 WHERE id = $1 AND status = $2`,
		a.ID, expected, a.ResearchTitle, a.ResearchArea, a.Duration,
		a.BudgetRequested.String(), a.ResearchAbstract, a.Status,
		a.ReviewerID, a.ReviewComments, a.ReviewDate,
		approved, a.FundingStartDate, a.FundingEndDate, a.SubmittedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update application: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteApplication removes an application owned by userID while its status
// equals expected.
func (db *DB) DeleteApplication(ctx context.Context, userID, id uuid.UUID, expected ApplicationStatus) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM grant_applications WHERE id = $1 AND user_id = $2 AND status = $3`,
		id, userID, expected)
	if err != nil {
		return false, fmt.Errorf("failed to delete application: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AppendAttachments adds attachments to an application whose status is one of
// allowed. Returns false without writing when the status is not allowed.
func (db *DB) AppendAttachments(ctx context.Context, id uuid.UUID, allowed []ApplicationStatus, attachments []Attachment) (bool, error) {
	ok := false
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		held, err := lockApplicationStatus(ctx, tx, id, allowed)
		if err != nil || !held {
			return err
		}
		for _, att := range attachments {
			if _, err := tx.Exec(ctx,
				`INSERT INTO application_attachments (application_id, file_name, file_path, file_type, upload_date)
				 VALUES ($1, $2, $3, $4, $5)`,
				id, att.FileName, att.FilePath, att.FileType, att.UploadDate,
			); err != nil {
				return fmt.Errorf("failed to insert attachment: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE grant_applications SET updated_at = NOW() WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to touch application: %w", err)
		}
		ok = true
		return nil
	})
	return ok, err
}

// AppendProgressReport adds a progress report to an application whose status
// is one of allowed.
func (db *DB) AppendProgressReport(ctx context.Context, id uuid.UUID, allowed []ApplicationStatus, report ProgressReport) (bool, error) {
	ok := false
	err := db.withTx(ctx, func(tx pgx.Tx) error {
		held, err := lockApplicationStatus(ctx, tx, id, allowed)
		if err != nil || !held {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO application_progress_reports (application_id, report_date, progress, challenges, next_steps)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, report.ReportDate, report.Progress, report.Challenges, report.NextSteps,
		); err != nil {
			return fmt.Errorf("failed to insert progress report: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE grant_applications SET updated_at = NOW() WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to touch application: %w", err)
		}
		ok = true
		return nil
	})
	return ok, err
}

// lockApplicationStatus locks the application row and reports whether its
// status is one of allowed.
func lockApplicationStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, allowed []ApplicationStatus) (bool, error) {
	var status ApplicationStatus
	err := tx.QueryRow(ctx,
		`SELECT status FROM grant_applications WHERE id = $1 FOR UPDATE`, id,
	).Scan(&status)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock application: %w", err)
	}
	for _, s := range allowed {
		if s == status {
			return true, nil
		}
	}
	return false, nil
}

// loadChildren fills attachments and progress reports for apps in two queries.
func (db *DB) loadChildren(ctx context.Context, apps []GrantApplication) error {
	if len(apps) == 0 {
		return nil
	}

	ids := make([]string, len(apps))
	index := make(map[uuid.UUID]int, len(apps))
	for i := range apps {
		ids[i] = apps[i].ID.String()
		index[apps[i].ID] = i
		apps[i].Attachments = []Attachment{}
		apps[i].ProgressReports = []ProgressReport{}
	}

	rows, err := db.pool.Query(ctx,
		`SELECT application_id, id, file_name, file_path, file_type, upload_date
		 FROM application_attachments
		 WHERE application_id = ANY($1::uuid[])
		 ORDER BY seq`, ids)
	if err != nil {
		return fmt.Errorf("failed to load attachments: %w", err)
	}
	for rows.Next() {
		var appID uuid.UUID
		var att Attachment
		if err := rows.Scan(&appID, &att.ID, &att.FileName, &att.FilePath, &att.FileType, &att.UploadDate); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan attachment: %w", err)
		}
		i := index[appID]
		apps[i].Attachments = append(apps[i].Attachments, att)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate attachments: %w", err)
	}

	rows, err = db.pool.Query(ctx,
		`SELECT application_id, id, report_date, progress, challenges, next_steps
		 FROM application_progress_reports
		 WHERE application_id = ANY($1::uuid[])
		 ORDER BY seq`, ids)
	if err != nil {
		return fmt.Errorf("failed to load progress reports: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var appID uuid.UUID
		var r ProgressReport
		if err := rows.Scan(&appID, &r.ID, &r.ReportDate, &r.Progress, &r.Challenges, &r.NextSteps); err != nil {
			return fmt.Errorf("failed to scan progress report: %w", err)
		}
		i := index[appID]
		apps[i].ProgressReports = append(apps[i].ProgressReports, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate progress reports: %w", err)
	}
	return nil
}

type scanOption func(a *GrantApplication, dest []any) []any

// withApplicant extends the scan with the joined users.name and users.email.
func withApplicant() scanOption {
	return func(a *GrantApplication, dest []any) []any {
		a.Applicant = &Applicant{}
		return append(dest, &a.Applicant.Name, &a.Applicant.Email)
	}
}

func scanApplication(row rowScanner, opts ...scanOption) (*GrantApplication, error) {
	var a GrantApplication
	var budget string
	var approved *string

	dest := []any{&a.ID, &a.Seq, &a.UserID, &a.ResearchTitle, &a.ResearchArea, &a.Duration,
		&budget, &a.ResearchAbstract, &a.Status, &a.ReviewerID, &a.ReviewComments,
		&a.ReviewDate, &approved, &a.FundingStartDate, &a.FundingEndDate,
		&a.SubmittedAt, &a.Deadline, &a.CreatedAt, &a.UpdatedAt}
	for _, opt := range opts {
		dest = opt(&a, dest)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if a.BudgetRequested, err = decimal.NewFromString(budget); err != nil {
		return nil, fmt.Errorf("invalid budget_requested %q: %w", budget, err)
	}
	if approved != nil {
		d, err := decimal.NewFromString(*approved)
		if err != nil {
			return nil, fmt.Errorf("invalid approved_budget %q: %w", *approved, err)
		}
		a.ApprovedBudget = &d
	}
	if a.Applicant != nil {
		a.Applicant.ID = a.UserID
	}
	return &a, nil
}

func collectApplications(rows pgx.Rows, opts ...scanOption) ([]GrantApplication, error) {
	defer rows.Close()

	apps := []GrantApplication{}
	for rows.Next() {
		a, err := scanApplication(rows, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Employment Record Methods
// -----------------------------------------------------------------------------

const employmentColumns = `id, seq, user_id, organization_type, country, sector, category,
	employer_name, job_type, job_title, field_of_work, career_level, job_description,
	office_email, contact_number, website, start_date, end_date, currently_working,
	is_current_employment, is_verified, created_at, updated_at`

// CreateEmployment inserts an employment record and returns the stored row.
func (db *DB) CreateEmployment(ctx context.Context, e *EmploymentRecord) (*EmploymentRecord, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO employment_records (user_id, organization_type, country, sector, category,
		        employer_name, job_type, job_title, field_of_work, career_level,
		        job_description, office_email, contact_number, website, start_date,
		        end_date, currently_working)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING `+employmentColumns,
		e.UserID, e.OrganizationType, e.Country, e.Sector, e.Category, e.EmployerName,
		e.JobType, e.JobTitle, e.FieldOfWork, e.CareerLevel, e.JobDescription,
		e.OfficeEmail, e.ContactNumber, e.Website, e.StartDate, e.EndDate, e.CurrentlyWorking,
	)

	var out EmploymentRecord
	if err := scanEmployment(row, &out); err != nil {
		return nil, fmt.Errorf("failed to create employment record: %w", err)
	}
	return &out, nil
}

// GetEmployment retrieves an employment record owned by userID. Returns nil if not found.
func (db *DB) GetEmployment(ctx context.Context, userID, id uuid.UUID) (*EmploymentRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+employmentColumns+` FROM employment_records WHERE id = $1 AND user_id = $2`,
		id, userID)

	var e EmploymentRecord
	if err := scanEmployment(row, &e); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employment record: %w", err)
	}
	return &e, nil
}

// ListEmployment returns a user's employment records, newest first.
func (db *DB) ListEmployment(ctx context.Context, userID uuid.UUID) ([]EmploymentRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+employmentColumns+` FROM employment_records WHERE user_id = $1 ORDER BY seq DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employment records: %w", err)
	}
	return collectEmployment(rows)
}

// UpdateEmployment overwrites the descriptive fields of an employment record.
func (db *DB) UpdateEmployment(ctx context.Context, e *EmploymentRecord) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE employment_records SET
		        organization_type = $3, country = $4, sector = $5, category = $6,
		        employer_name = $7, job_type = $8, job_title = $9, field_of_work = $10,
		        career_level = $11, job_description = $12, office_email = $13,
		        contact_number = $14, website = $15, start_date = $16, end_date = $17,
		        currently_working = $18, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		e.ID, e.UserID, e.OrganizationType, e.Country, e.Sector, e.Category, e.EmployerName,
		e.JobType, e.JobTitle, e.FieldOfWork, e.CareerLevel, e.JobDescription,
		e.OfficeEmail, e.ContactNumber, e.Website, e.StartDate, e.EndDate, e.CurrentlyWorking,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update employment record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteEmployment removes an employment record owned by userID.
func (db *DB) DeleteEmployment(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM employment_records WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete employment record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCurrentEmployment recomputes the current-employment flag for a user
// under the same locking scheme as MarkHighestEducation.
func (db *DB) MarkCurrentEmployment(ctx context.Context, userID uuid.UUID, pick func([]EmploymentRecord) uuid.UUID) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, userID); err != nil {
			return err
		}

		rows, err := tx.Query(ctx,
			`SELECT `+employmentColumns+` FROM employment_records
			 WHERE user_id = $1 ORDER BY seq DESC FOR UPDATE`,
			userID)
		if err != nil {
			return fmt.Errorf("failed to load employment records: %w", err)
		}
		records, err := collectEmployment(rows)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		winner := pick(records)
		_, err = tx.Exec(ctx,
			`UPDATE employment_records
			 SET is_current_employment = (id = $2), updated_at = NOW()
			 WHERE user_id = $1 AND is_current_employment IS DISTINCT FROM (id = $2)`,
			userID, winner)
		if err != nil {
			return fmt.Errorf("failed to write current employment flag: %w", err)
		}
		return nil
	})
}

func scanEmployment(row rowScanner, e *EmploymentRecord) error {
	return row.Scan(&e.ID, &e.Seq, &e.UserID, &e.OrganizationType, &e.Country, &e.Sector,
		&e.Category, &e.EmployerName, &e.JobType, &e.JobTitle, &e.FieldOfWork, &e.CareerLevel,
		&e.JobDescription, &e.OfficeEmail, &e.ContactNumber, &e.Website, &e.StartDate,
		&e.EndDate, &e.CurrentlyWorking, &e.IsCurrentEmployment, &e.IsVerified,
		&e.CreatedAt, &e.UpdatedAt)
}

func collectEmployment(rows pgx.Rows) ([]EmploymentRecord, error) {
	defer rows.Close()

	records := []EmploymentRecord{}
	for rows.Next() {
		var e EmploymentRecord
		if err := scanEmployment(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan employment record: %w", err)
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employment records: %w", err)
	}
	return records, nil
}

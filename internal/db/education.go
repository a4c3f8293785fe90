package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Educational Record Methods
// -----------------------------------------------------------------------------

const educationColumns = `id, seq, user_id, qualification_level, status, country, city,
	institute, program_title, discipline, campus, department, degree_type, session_type,
	major, research_area, start_date, end_date, is_highest_education, is_verified,
	created_at, updated_at`

// CreateEducation inserts an educational record and returns the stored row.
// The highest-education flag starts false; callers recompute it afterwards.
func (db *DB) CreateEducation(ctx context.Context, e *EducationalRecord) (*EducationalRecord, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO educational_records (user_id, qualification_level, status, country, city,
		        institute, program_title, discipline, campus, department, degree_type,
		        session_type, major, research_area, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING `+educationColumns,
		e.UserID, e.QualificationLevel, e.Status, e.Country, e.City, e.Institute,
		e.ProgramTitle, e.Discipline, e.Campus, e.Department, e.DegreeType, e.SessionType,
		e.Major, e.ResearchArea, e.StartDate, e.EndDate,
	)

	var out EducationalRecord
	if err := scanEducation(row, &out); err != nil {
		return nil, fmt.Errorf("failed to create educational record: %w", err)
	}
	return &out, nil
}

// GetEducation retrieves an educational record owned by userID.
// Returns nil if the record does not exist or belongs to someone else.
func (db *DB) GetEducation(ctx context.Context, userID, id uuid.UUID) (*EducationalRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+educationColumns+` FROM educational_records WHERE id = $1 AND user_id = $2`,
		id, userID)

	var e EducationalRecord
	if err := scanEducation(row, &e); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get educational record: %w", err)
	}
	return &e, nil
}

// ListEducation returns a user's educational records, newest first.
func (db *DB) ListEducation(ctx context.Context, userID uuid.UUID) ([]EducationalRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+educationColumns+` FROM educational_records WHERE user_id = $1 ORDER BY seq DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list educational records: %w", err)
	}
	return collectEducation(rows)
}

// UpdateEducation overwrites the descriptive fields of an educational record.
// Returns false if the record does not exist or belongs to someone else.
func (db *DB) UpdateEducation(ctx context.Context, e *EducationalRecord) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE educational_records SET
		        qualification_level = $3, status = $4, country = $5, city = $6, institute = $7,
		        program_title = $8, discipline = $9, campus = $10, department = $11,
		        degree_type = $12, session_type = $13, major = $14, research_area = $15,
		        start_date = $16, end_date = $17, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		e.ID, e.UserID, e.QualificationLevel, e.Status, e.Country, e.City, e.Institute,
		e.ProgramTitle, e.Discipline, e.Campus, e.Department, e.DegreeType, e.SessionType,
		e.Major, e.ResearchArea, e.StartDate, e.EndDate,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update educational record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteEducation removes an educational record owned by userID.
func (db *DB) DeleteEducation(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM educational_records WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete educational record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkHighestEducation recomputes the highest-education flag for a user.
// The owner row and the record set are locked for the duration, pick chooses
// the winner and every flag is written in a single statement.
func (db *DB) MarkHighestEducation(ctx context.Context, userID uuid.UUID, pick func([]EducationalRecord) uuid.UUID) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockOwner(ctx, tx, userID); err != nil {
			return err
		}

		rows, err := tx.Query(ctx,
			`SELECT `+educationColumns+` FROM educational_records
			 WHERE user_id = $1 ORDER BY seq DESC FOR UPDATE`,
			userID)
		if err != nil {
			return fmt.Errorf("failed to load educational records: %w", err)
		}
		records, err := collectEducation(rows)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		winner := pick(records)
		_, err = tx.Exec(ctx,
			`UPDATE educational_records
			 SET is_highest_education = (id = $2), updated_at = NOW()
			 WHERE user_id = $1 AND is_highest_education IS DISTINCT FROM (id = $2)`,
			userID, winner)
		if err != nil {
			return fmt.Errorf("failed to write highest education flag: %w", err)
		}
		return nil
	})
}

// lockOwner serializes flag recomputes for one user.
func lockOwner(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		return fmt.Errorf("failed to lock owner: %w", err)
	}
	return nil
}

func scanEducation(row rowScanner, e *EducationalRecord) error {
	return row.Scan(&e.ID, &e.Seq, &e.UserID, &e.QualificationLevel, &e.Status, &e.Country,
		&e.City, &e.Institute, &e.ProgramTitle, &e.Discipline, &e.Campus, &e.Department,
		&e.DegreeType, &e.SessionType, &e.Major, &e.ResearchArea, &e.StartDate, &e.EndDate,
		&e.IsHighestEducation, &e.IsVerified, &e.CreatedAt, &e.UpdatedAt)
}

func collectEducation(rows pgx.Rows) ([]EducationalRecord, error) {
	defer rows.Close()

	records := []EducationalRecord{}
	for rows.Next() {
		var e EducationalRecord
		if err := scanEducation(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan educational record: %w", err)
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate educational records: %w", err)
	}
	return records, nil
}

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Personal Record Methods
// -----------------------------------------------------------------------------

const personalColumns = `id, user_id, title, first_name, middle_name, last_name, father_name,
	dob, marital_status, gender, permanent_address, permanent_country, permanent_city,
	mailing_address, mailing_country, mailing_city, same_as_permanent, cnic, nationality,
	profile_picture, created_at, updated_at`

// UpsertPersonal creates or replaces the personal record of p.UserID.
// The stored profile picture is preserved across replacements.
func (db *DB) UpsertPersonal(ctx context.Context, p *PersonalRecord) (*PersonalRecord, error) {
	p.SyncMailingAddress()

	row := db.pool.QueryRow(ctx,
		`INSERT INTO personal_records (user_id, title, first_name, middle_name, last_name,
		        father_name, dob, marital_status, gender, permanent_address, permanent_country,
		        permanent_city, mailing_address, mailing_country, mailing_city,
		        same_as_permanent, cnic, nationality)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 ON CONFLICT (user_id) DO UPDATE SET
		        title = EXCLUDED.title,
		        first_name = EXCLUDED.first_name,
		        middle_name = EXCLUDED.middle_name,
		        last_name = EXCLUDED.last_name,
		        father_name = EXCLUDED.father_name,
		        dob = EXCLUDED.dob,
		        marital_status = EXCLUDED.marital_status,
		        gender = EXCLUDED.gender,
		        permanent_address = EXCLUDED.permanent_address,
		        permanent_country = EXCLUDED.permanent_country,
		        permanent_city = EXCLUDED.permanent_city,
		        mailing_address = EXCLUDED.mailing_address,
		        mailing_country = EXCLUDED.mailing_country,
		        mailing_city = EXCLUDED.mailing_city,
		        same_as_permanent = EXCLUDED.same_as_permanent,
		        cnic = EXCLUDED.cnic,
		        nationality = EXCLUDED.nationality,
		        updated_at = NOW()
		 RETURNING `+personalColumns,
		p.UserID, p.Title, p.FirstName, p.MiddleName, p.LastName, p.FatherName,
		p.DateOfBirth, p.MaritalStatus, p.Gender, p.PermanentAddress, p.PermanentCountry,
		p.PermanentCity, p.MailingAddress, p.MailingCountry, p.MailingCity,
		p.SameAsPermanent, p.CNIC, p.Nationality,
	)

	var out PersonalRecord
	if err := scanPersonal(row, &out); err != nil {
		return nil, fmt.Errorf("failed to upsert personal record: %w", err)
	}
	return &out, nil
}

// GetPersonal retrieves the personal record of a user. Returns nil if not found.
func (db *DB) GetPersonal(ctx context.Context, userID uuid.UUID) (*PersonalRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+personalColumns+` FROM personal_records WHERE user_id = $1`, userID)

	var p PersonalRecord
	if err := scanPersonal(row, &p); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get personal record: %w", err)
	}
	return &p, nil
}

// SetProfilePicture stores the picture path on a user's personal record.
// Returns false if the user has no personal record.
func (db *DB) SetProfilePicture(ctx context.Context, userID uuid.UUID, path string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE personal_records SET profile_picture = $1, updated_at = NOW() WHERE user_id = $2`,
		path, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set profile picture: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersonal(row rowScanner, p *PersonalRecord) error {
	return row.Scan(&p.ID, &p.UserID, &p.Title, &p.FirstName, &p.MiddleName, &p.LastName,
		&p.FatherName, &p.DateOfBirth, &p.MaritalStatus, &p.Gender, &p.PermanentAddress,
		&p.PermanentCountry, &p.PermanentCity, &p.MailingAddress, &p.MailingCountry,
		&p.MailingCity, &p.SameAsPermanent, &p.CNIC, &p.Nationality, &p.ProfilePicture,
		&p.CreatedAt, &p.UpdatedAt)
}

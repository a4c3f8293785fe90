package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QualificationLevel is the academic level of an educational record.
type QualificationLevel string

// Qualification levels, lowest to highest
const (
	QualificationIntermediate QualificationLevel = "Intermediate"
	QualificationBachelors    QualificationLevel = "Bachelors"
	QualificationMasters      QualificationLevel = "Masters"
	QualificationDoctorate    QualificationLevel = "Doctorate"
)

// Rank returns the ordering weight of the level (1-4), or 0 if unknown.
func (q QualificationLevel) Rank() int {
	switch q {
	case QualificationIntermediate:
		return 1
	case QualificationBachelors:
		return 2
	case QualificationMasters:
		return 3
	case QualificationDoctorate:
		return 4
	}
	return 0
}

// EducationStatus is the state of study for an educational record.
type EducationStatus string

// Education statuses
const (
	EducationCompleted  EducationStatus = "completed"
	EducationEnrolled   EducationStatus = "enrolled"
	EducationIncomplete EducationStatus = "incomplete"
	EducationInProgress EducationStatus = "in_progress"
)

// Valid reports whether s is a known status.
func (s EducationStatus) Valid() bool {
	switch s {
	case EducationCompleted, EducationEnrolled, EducationIncomplete, EducationInProgress:
		return true
	}
	return false
}

// RequiresEndDate reports whether a record in this status must carry an end date.
func (s EducationStatus) RequiresEndDate() bool {
	return s == EducationCompleted
}

// ForbidsEndDate reports whether a record in this status must not carry an end date.
func (s EducationStatus) ForbidsEndDate() bool {
	return s == EducationEnrolled || s == EducationInProgress
}

// EducationalRecord is one entry of a user's education history.
type EducationalRecord struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"user_id"`
	Seq                int64              `json:"-"`
	QualificationLevel QualificationLevel `json:"qualification_level"`
	Status             EducationStatus    `json:"status"`
	Country            string             `json:"country"`
	City               string             `json:"city"`
	Institute          string             `json:"institute"`
	ProgramTitle       string             `json:"program_title,omitempty"`
	Discipline         string             `json:"discipline"`
	Campus             string             `json:"campus"`
	Department         string             `json:"department"`
	DegreeType         string             `json:"degree_type"`
	SessionType        string             `json:"session_type"`
	Major              string             `json:"major"`
	ResearchArea       string             `json:"research_area,omitempty"`
	StartDate          time.Time          `json:"start_date"`
	EndDate            *time.Time         `json:"end_date,omitempty"`
	IsHighestEducation bool               `json:"is_highest_education"`
	IsVerified         bool               `json:"is_verified"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// MarshalJSON adds the legacy incomplete/enrolled flags derived from Status.
func (e EducationalRecord) MarshalJSON() ([]byte, error) {
	type plain EducationalRecord
	return json.Marshal(struct {
		plain
		Incomplete bool `json:"incomplete"`
		Enrolled   bool `json:"enrolled"`
	}{
		plain:      plain(e),
		Incomplete: e.Status == EducationIncomplete,
		Enrolled:   e.Status == EducationEnrolled,
	})
}

// OrganizationType classifies an employer.
type OrganizationType string

// Organization types
const (
	OrganizationAcademic     OrganizationType = "ACADEMIC"
	OrganizationProfessional OrganizationType = "PROFESSIONAL"
)

// EmploymentRecord is one entry of a user's employment history.
type EmploymentRecord struct {
	ID                  uuid.UUID        `json:"id"`
	UserID              uuid.UUID        `json:"user_id"`
	Seq                 int64            `json:"-"`
	OrganizationType    OrganizationType `json:"organization_type"`
	Country             string           `json:"country"`
	Sector              string           `json:"sector"`
	Category            string           `json:"category"`
	EmployerName        string           `json:"employer_name"`
	JobType             string           `json:"job_type"`
	JobTitle            string           `json:"job_title"`
	FieldOfWork         string           `json:"field_of_work"`
	CareerLevel         string           `json:"career_level"`
	JobDescription      string           `json:"job_description,omitempty"`
	OfficeEmail         string           `json:"office_email,omitempty"`
	ContactNumber       string           `json:"contact_number,omitempty"`
	Website             string           `json:"website,omitempty"`
	StartDate           time.Time        `json:"start_date"`
	EndDate             *time.Time       `json:"end_date,omitempty"`
	CurrentlyWorking    bool             `json:"currently_working"`
	IsCurrentEmployment bool             `json:"is_current_employment"`
	IsVerified          bool             `json:"is_verified"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// PersonalRecord holds a user's personal details. One per user.
type PersonalRecord struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Title            string    `json:"title"`
	FirstName        string    `json:"first_name"`
	MiddleName       string    `json:"middle_name,omitempty"`
	LastName         string    `json:"last_name"`
	FatherName       string    `json:"father_name"`
	DateOfBirth      time.Time `json:"dob"`
	MaritalStatus    string    `json:"marital_status"`
	Gender           string    `json:"gender"`
	PermanentAddress string    `json:"permanent_address"`
	PermanentCountry string    `json:"permanent_country"`
	PermanentCity    string    `json:"permanent_city"`
	MailingAddress   string    `json:"mailing_address"`
	MailingCountry   string    `json:"mailing_country"`
	MailingCity      string    `json:"mailing_city"`
	SameAsPermanent  bool      `json:"same_as_permanent"`
	CNIC             string    `json:"cnic"`
	Nationality      string    `json:"nationality"`
	ProfilePicture   *string   `json:"profile_picture"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SyncMailingAddress copies the permanent address into the mailing fields
// when SameAsPermanent is set.
func (p *PersonalRecord) SyncMailingAddress() {
	if !p.SameAsPermanent {
		return
	}
	p.MailingAddress = p.PermanentAddress
	p.MailingCountry = p.PermanentCountry
	p.MailingCity = p.PermanentCity
}

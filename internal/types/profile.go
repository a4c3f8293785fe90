package types

// PersonalRequest creates or replaces the caller's personal record.
type PersonalRequest struct {
	Title            string `json:"title" validate:"oneof=Mr Mrs Ms Dr Engr Prof PhD 'Engr. Dr' 'Prof. Dr'"`
	FirstName        string `json:"first_name" validate:"notblank,max=50"`
	MiddleName       string `json:"middle_name,omitempty" validate:"max=50"`
	LastName         string `json:"last_name" validate:"notblank,max=50"`
	FatherName       string `json:"father_name" validate:"notblank,max=100"`
	DateOfBirth      Date   `json:"dob" validate:"required"`
	MaritalStatus    string `json:"marital_status" validate:"oneof=single married divorced"`
	Gender           string `json:"gender" validate:"oneof=male female other"`
	PermanentAddress string `json:"permanent_address" validate:"notblank,max=500"`
	PermanentCountry string `json:"permanent_country" validate:"notblank"`
	PermanentCity    string `json:"permanent_city" validate:"notblank"`
	MailingAddress   string `json:"mailing_address" validate:"required_unless=SameAsPermanent true,max=500"`
	MailingCountry   string `json:"mailing_country" validate:"required_unless=SameAsPermanent true"`
	MailingCity      string `json:"mailing_city" validate:"required_unless=SameAsPermanent true"`
	SameAsPermanent  bool   `json:"same_as_permanent"`
	CNIC             string `json:"cnic" validate:"cnic"`
	Nationality      string `json:"nationality,omitempty" validate:"max=100"`
}

// EducationRequest adds an educational record. When Status is omitted it is
// derived from the legacy Incomplete, Enrolled and EndDate fields.
type EducationRequest struct {
	QualificationLevel string  `json:"qualification_level" validate:"oneof=Intermediate Bachelors Masters Doctorate"`
	Status             *string `json:"status,omitempty" validate:"omitempty,oneof=completed enrolled incomplete in_progress"`
	Incomplete         bool    `json:"incomplete"`
	Enrolled           bool    `json:"enrolled"`
	Country            string  `json:"country" validate:"notblank"`
	City               string  `json:"city" validate:"notblank"`
	Institute          string  `json:"institute" validate:"notblank,max=200"`
	ProgramTitle       string  `json:"program_title,omitempty" validate:"max=200"`
	Discipline         string  `json:"discipline" validate:"notblank,max=100"`
	Campus             string  `json:"campus" validate:"notblank,max=100"`
	Department         string  `json:"department" validate:"notblank,max=100"`
	DegreeType         string  `json:"degree_type" validate:"oneof=PhD MS BS"`
	SessionType        string  `json:"session_type" validate:"oneof=Morning Evening"`
	Major              string  `json:"major" validate:"notblank,max=100"`
	ResearchArea       string  `json:"research_area,omitempty" validate:"max=200"`
	StartDate          Date    `json:"start_date" validate:"required"`
	EndDate            *Date   `json:"end_date,omitempty"`
}

// EducationPatch updates an educational record. Absent fields keep their
// stored values.
type EducationPatch struct {
	QualificationLevel *string   `json:"qualification_level,omitempty" validate:"omitempty,oneof=Intermediate Bachelors Masters Doctorate"`
	Status             *string   `json:"status,omitempty" validate:"omitempty,oneof=completed enrolled incomplete in_progress"`
	Incomplete         *bool     `json:"incomplete,omitempty"`
	Enrolled           *bool     `json:"enrolled,omitempty"`
	Country            *string   `json:"country,omitempty" validate:"omitempty,notblank"`
	City               *string   `json:"city,omitempty" validate:"omitempty,notblank"`
	Institute          *string   `json:"institute,omitempty" validate:"omitempty,notblank,max=200"`
	ProgramTitle       *string   `json:"program_title,omitempty" validate:"omitempty,max=200"`
	Discipline         *string   `json:"discipline,omitempty" validate:"omitempty,notblank,max=100"`
	Campus             *string   `json:"campus,omitempty" validate:"omitempty,notblank,max=100"`
	Department         *string   `json:"department,omitempty" validate:"omitempty,notblank,max=100"`
	DegreeType         *string   `json:"degree_type,omitempty" validate:"omitempty,oneof=PhD MS BS"`
	SessionType        *string   `json:"session_type,omitempty" validate:"omitempty,oneof=Morning Evening"`
	Major              *string   `json:"major,omitempty" validate:"omitempty,notblank,max=100"`
	ResearchArea       *string   `json:"research_area,omitempty" validate:"omitempty,max=200"`
	StartDate          *Date     `json:"start_date,omitempty" validate:"omitempty"`
	EndDate            PatchDate `json:"end_date"`
}

// EmploymentRequest adds an employment record.
type EmploymentRequest struct {
	OrganizationType string `json:"organization_type" validate:"oneof=ACADEMIC PROFESSIONAL"`
	Country          string `json:"country" validate:"notblank"`
	Sector           string `json:"sector" validate:"oneof=Public Private Government"`
	Category         string `json:"category" validate:"oneof=University Institute Company"`
	EmployerName     string `json:"employer_name" validate:"notblank,max=200"`
	JobType          string `json:"job_type" validate:"oneof=Full-time Part-time Contract Internship"`
	JobTitle         string `json:"job_title" validate:"notblank,max=100"`
	FieldOfWork      string `json:"field_of_work" validate:"oneof=Research Teaching Administration Engineering"`
	CareerLevel      string `json:"career_level" validate:"oneof=Entry Mid Senior Lead"`
	JobDescription   string `json:"job_description,omitempty" validate:"max=1000"`
	OfficeEmail      string `json:"office_email,omitempty" validate:"omitempty,email"`
	ContactNumber    string `json:"contact_number,omitempty" validate:"max=20"`
	Website          string `json:"website,omitempty" validate:"max=200"`
	StartDate        Date   `json:"start_date" validate:"required"`
	EndDate          *Date  `json:"end_date,omitempty"`
	CurrentlyWorking bool   `json:"currently_working"`
}

// EmploymentPatch updates an employment record. Absent fields keep their
// stored values.
type EmploymentPatch struct {
	OrganizationType *string   `json:"organization_type,omitempty" validate:"omitempty,oneof=ACADEMIC PROFESSIONAL"`
	Country          *string   `json:"country,omitempty" validate:"omitempty,notblank"`
	Sector           *string   `json:"sector,omitempty" validate:"omitempty,oneof=Public Private Government"`
	Category         *string   `json:"category,omitempty" validate:"omitempty,oneof=University Institute Company"`
	EmployerName     *string   `json:"employer_name,omitempty" validate:"omitempty,notblank,max=200"`
	JobType          *string   `json:"job_type,omitempty" validate:"omitempty,oneof=Full-time Part-time Contract Internship"`
	JobTitle         *string   `json:"job_title,omitempty" validate:"omitempty,notblank,max=100"`
	FieldOfWork      *string   `json:"field_of_work,omitempty" validate:"omitempty,oneof=Research Teaching Administration Engineering"`
	CareerLevel      *string   `json:"career_level,omitempty" validate:"omitempty,oneof=Entry Mid Senior Lead"`
	JobDescription   *string   `json:"job_description,omitempty" validate:"omitempty,max=1000"`
	OfficeEmail      *string   `json:"office_email,omitempty" validate:"omitempty,email"`
	ContactNumber    *string   `json:"contact_number,omitempty" validate:"omitempty,max=20"`
	Website          *string   `json:"website,omitempty" validate:"omitempty,max=200"`
	StartDate        *Date     `json:"start_date,omitempty" validate:"omitempty"`
	EndDate          PatchDate `json:"end_date"`
	CurrentlyWorking *bool     `json:"currently_working,omitempty"`
}

package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationStatus is the lifecycle state of a grant application.
type ApplicationStatus string

// Application statuses
const (
	StatusDraft       ApplicationStatus = "draft"
	StatusSubmitted   ApplicationStatus = "submitted"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
	StatusCompleted   ApplicationStatus = "completed"
)

// AllStatuses lists every application status in lifecycle order.
var AllStatuses = []ApplicationStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusCompleted,
}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ResearchArea is the discipline a grant application falls under.
type ResearchArea string

// Research areas
const (
	AreaComputerScience ResearchArea = "computer-science"
	AreaEngineering     ResearchArea = "engineering"
	AreaBusiness        ResearchArea = "business"
	AreaSocialSciences  ResearchArea = "social-sciences"
	AreaHealthSciences  ResearchArea = "health-sciences"
	AreaArtsHumanities  ResearchArea = "arts-humanities"
	AreaEnvironmental   ResearchArea = "environmental"
	AreaMathematics     ResearchArea = "mathematics"
)

var areaDisplayNames = map[ResearchArea]string{
	AreaComputerScience: "Computer Science & IT",
	AreaEngineering:     "Engineering & Technology",
	AreaBusiness:        "Business & Management",
	AreaSocialSciences:  "Social Sciences",
	AreaHealthSciences:  "Health Sciences & Medicine",
	AreaArtsHumanities:  "Arts & Humanities",
	AreaEnvironmental:   "Environmental Sciences",
	AreaMathematics:     "Mathematics & Statistics",
}

// DisplayName returns the human label for the area, or the raw value if unknown.
func (a ResearchArea) DisplayName() string {
	if name, ok := areaDisplayNames[a]; ok {
		return name
	}
	return string(a)
}

// GrantApplication is a research grant application and its review outcome.
type GrantApplication struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"user_id"`
	Seq              int64             `json:"-"`
	ResearchTitle    string            `json:"research_title"`
	ResearchArea     ResearchArea      `json:"research_area"`
	Duration         int               `json:"duration"`
	BudgetRequested  decimal.Decimal   `json:"budget_requested"`
	ResearchAbstract string            `json:"research_abstract"`
	Status           ApplicationStatus `json:"status"`
	ReviewerID       *uuid.UUID        `json:"reviewer_id"`
	ReviewComments   string            `json:"review_comments,omitempty"`
	ReviewDate       *time.Time        `json:"review_date"`
	ApprovedBudget   *decimal.Decimal  `json:"approved_budget"`
	FundingStartDate *time.Time        `json:"funding_start_date"`
	FundingEndDate   *time.Time        `json:"funding_end_date"`
	ProgressReports  []ProgressReport  `json:"progress_reports"`
	Attachments      []Attachment      `json:"attachments"`
	SubmittedAt      *time.Time        `json:"submitted_at"`
	Deadline         time.Time         `json:"deadline"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	// Applicant is populated on reviewer listings only.
	Applicant *Applicant `json:"applicant,omitempty"`
}

// Applicant identifies the owner of an application on reviewer listings.
type Applicant struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Attachment is a document uploaded against an application.
type Attachment struct {
	ID         uuid.UUID `json:"id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	FileType   string    `json:"file_type"`
	UploadDate time.Time `json:"upload_date"`
}

// ProgressReport is a progress update filed against an application.
type ProgressReport struct {
	ID         uuid.UUID `json:"id"`
	ReportDate time.Time `json:"report_date"`
	Progress   string    `json:"progress"`
	Challenges string    `json:"challenges,omitempty"`
	NextSteps  string    `json:"next_steps,omitempty"`
}

// AreaCount is the number of applications in one research area.
type AreaCount struct {
	Area  ResearchArea `json:"area"`
	Count int          `json:"count"`
}

// ApplicationStats aggregates application counts and budgets.
type ApplicationStats struct {
	Total                int                       `json:"total_applications"`
	ByStatus             map[ApplicationStatus]int `json:"by_status"`
	ByArea               []AreaCount               `json:"by_area"`
	TotalBudgetRequested decimal.Decimal           `json:"total_budget_requested"`
	TotalBudgetApproved  decimal.Decimal           `json:"total_budget_approved"`
	Recent               int                       `json:"recent_applications"`
}

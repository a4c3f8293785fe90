package types

import (
	"github.com/shopspring/decimal"
)

// CreateApplicationRequest opens a new draft grant application.
type CreateApplicationRequest struct {
	ResearchTitle    string           `json:"research_title" validate:"notblank,max=200"`
	ResearchArea     string           `json:"research_area" validate:"oneof=computer-science engineering business social-sciences health-sciences arts-humanities environmental mathematics"`
	Duration         *int             `json:"duration" validate:"required,min=1,max=36"`
	BudgetRequested  *decimal.Decimal `json:"budget_requested" validate:"required,gte=0,money"`
	ResearchAbstract string           `json:"research_abstract" validate:"notblank,max=2000"`
}

// UpdateApplicationRequest edits the core fields of a draft application.
// Absent fields keep their stored values.
type UpdateApplicationRequest struct {
	ResearchTitle    *string          `json:"research_title,omitempty" validate:"omitempty,notblank,max=200"`
	ResearchArea     *string          `json:"research_area,omitempty" validate:"omitempty,oneof=computer-science engineering business social-sciences health-sciences arts-humanities environmental mathematics"`
	Duration         *int             `json:"duration,omitempty" validate:"omitempty,min=1,max=36"`
	BudgetRequested  *decimal.Decimal `json:"budget_requested,omitempty" validate:"omitempty,gte=0,money"`
	ResearchAbstract *string          `json:"research_abstract,omitempty" validate:"omitempty,notblank,max=2000"`
}

// ProgressReportRequest files a progress update against an application.
type ProgressReportRequest struct {
	Progress   string `json:"progress" validate:"notblank"`
	Challenges string `json:"challenges,omitempty"`
	NextSteps  string `json:"next_steps,omitempty"`
}

// ReviewRequest records a reviewer decision. Funding fields are required
// when Status is approved and ignored otherwise.
type ReviewRequest struct {
	Status           string           `json:"status" validate:"oneof=under_review approved rejected"`
	ReviewComments   string           `json:"review_comments,omitempty" validate:"max=1000"`
	ApprovedBudget   *decimal.Decimal `json:"approved_budget,omitempty" validate:"omitempty,gte=0,money"`
	FundingStartDate *Date            `json:"funding_start_date,omitempty"`
	FundingEndDate   *Date            `json:"funding_end_date,omitempty"`
}

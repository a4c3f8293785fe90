package server

import (
	"net/http"
	"testing"

	"github.com/jonathan/grant-portal/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type applicationView struct {
	ID                  string  `json:"id"`
	ResearchTitle       string  `json:"research_title"`
	Status              string  `json:"status"`
	ResearchAreaDisplay string  `json:"research_area_display"`
	DaysUntilDeadline   int     `json:"days_until_deadline"`
	IsOverdue           bool    `json:"is_overdue"`
	SubmittedAt         *string `json:"submitted_at"`
	ApprovedBudget      *string `json:"approved_budget"`
	Attachments         []struct {
		FileName string `json:"file_name"`
		FilePath string `json:"file_path"`
		FileType string `json:"file_type"`
	} `json:"attachments"`
	ProgressReports []struct {
		Progress string `json:"progress"`
	} `json:"progress_reports"`
	Applicant *struct {
		Email string `json:"email"`
	} `json:"applicant"`
}

func applicationBody(title string) map[string]any {
	return map[string]any{
		"research_title":    title,
		"research_area":     "environmental",
		"duration":          12,
		"budget_requested":  500000,
		"research_abstract": "Groundwater depletion across the Indus basin.",
	}
}

func (e *testEnv) createApplication(token, title string) applicationView {
	e.t.Helper()
	res := e.do(http.MethodPost, "/api/applications", token, applicationBody(title))
	require.Equal(e.t, http.StatusCreated, res.Code, res.Body.Error)
	var app applicationView
	res.decode(e.t, &app)
	return app
}

func TestCreateApplication(t *testing.T) {
	env := newTestEnv(t)
	s := env.register("Ayesha Khan", "ayesha@example.com")

	app := env.createApplication(s.Token, "Indus Basin Groundwater")
	assert.Equal(t, "draft", app.Status)
	assert.Equal(t, "Environmental Sciences", app.ResearchAreaDisplay)
	assert.Equal(t, 10, app.DaysUntilDeadline)
	assert.False(t, app.IsOverdue)
	assert.Nil(t, app.SubmittedAt)

	tests := []struct {
		name  string
		edit  func(map[string]any)
		error string
	}{
		{"duration too long", func(b map[string]any) { b["duration"] = 37 }, "Duration must be between 1 and 36 months"},
		{"missing duration", func(b map[string]any) { delete(b, "duration") }, "Duration must be between 1 and 36 months"},
		{"negative budget", func(b map[string]any) { b["budget_requested"] = -1 }, "Budget must be a positive number"},
		{"unknown area", func(b map[string]any) { b["research_area"] = "astrology" }, "Invalid research area"},
		{"blank title", func(b map[string]any) { b["research_title"] = "   " }, "Research title is required and cannot exceed 200 characters"},
		{"fractional cents", func(b map[string]any) { b["budget_requested"] = 100.555 }, "Budget requested must have at most 2 decimal places and be less than 1000000000000"},
		{"budget too large", func(b map[string]any) { b["budget_requested"] = 1e12 }, "Budget requested must have at most 2 decimal places and be less than 1000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := applicationBody("Indus Basin Groundwater")
			tt.edit(body)
			res := env.do(http.MethodPost, "/api/applications", s.Token, body)
			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.Equal(t, tt.error, res.Body.Error)
		})
	}
}

func TestApplicationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	s := env.register("Ayesha Khan", "ayesha@example.com")
	app := env.createApplication(s.Token, "Indus Basin Groundwater")
	path := "/api/applications/" + app.ID

	res := env.do(http.MethodPut, path, s.Token, map[string]any{"research_title": "Indus Basin Aquifers"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.Error)
	var updated applicationView
	res.decode(t, &updated)
	assert.Equal(t, "Indus Basin Aquifers", updated.ResearchTitle)

	res = env.upload(path+"/attachments", s.Token, "attachments",
		upload{name: "proposal.pdf", contentType: "application/pdf", data: pdfBytes})
	require.Equal(t, http.StatusOK, res.Code, res.Body.Error)
	var withFile applicationView
	res.decode(t, &withFile)
	require.Len(t, withFile.Attachments, 1)
	assert.Equal(t, "proposal.pdf", withFile.Attachments[0].FileName)
	assert.Equal(t, "application/pdf", withFile.Attachments[0].FileType)
	assert.Regexp(t, `^/uploads/.+\.pdf$`, withFile.Attachments[0].FilePath)

	res = env.upload(path+"/attachments", s.Token, "attachments",
		upload{name: "notes.txt", contentType: "text/plain", data: []byte("plain text")})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = env.do(http.MethodPost, path+"/progress", s.Token, map[string]any{"progress": "Drafting"})
	assert.Equal(t, http.StatusBadRequest, res.Code, "drafts take no progress reports")

	res = env.do(http.MethodPost, path+"/submit", s.Token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.Error)
	assert.Equal(t, "Application submitted successfully", res.Body.Message)
	var submitted applicationView
	res.decode(t, &submitted)
	assert.Equal(t, "submitted", submitted.Status)
	assert.NotNil(t, submitted.SubmittedAt)

	res = env.do(http.MethodPost, path+"/submit", s.Token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Application has already been submitted", res.Body.Error)

	res = env.do(http.MethodPut, path, s.Token, map[string]any{"duration": 6})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Cannot update application that has been submitted", res.Body.Error)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodDelete, path, s.Token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.upload(path+"/attachments", s.Token, "attachments",
		upload{name: "late.pdf", contentType: "application/pdf", data: pdfBytes}).Code)

	res = env.do(http.MethodPost, path+"/progress", s.Token, map[string]any{
		"progress": "Sampling sites selected", "next_steps": "Drill test wells",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.Error)
	var reported applicationView
	res.decode(t, &reported)
	require.Len(t, reported.ProgressReports, 1)
	assert.Equal(t, "Sampling sites selected", reported.ProgressReports[0].Progress)

	res = env.do(http.MethodPost, path+"/progress", s.Token, map[string]any{"progress": ""})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Progress is required", res.Body.Error)
}

func TestDeleteDraftApplication(t *testing.T) {
	env := newTestEnv(t)
	s := env.register("Ayesha Khan", "ayesha@example.com")
	app := env.createApplication(s.Token, "Indus Basin Groundwater")

	res := env.do(http.MethodDelete, "/api/applications/"+app.ID, s.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Application deleted", res.Body.Message)

	res = env.do(http.MethodGet, "/api/applications/"+app.ID, s.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Application not found", res.Body.Error)
}

func TestApplicationsAreScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register("Ayesha Khan", "ayesha@example.com")
	other := env.register("Bilal Ahmed", "bilal@example.com")
	app := env.createApplication(owner.Token, "Indus Basin Groundwater")
	path := "/api/applications/" + app.ID

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, other.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPut, path, other.Token, map[string]any{"duration": 6}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, path+"/submit", other.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, path, other.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/applications/not-a-uuid", owner.Token, nil).Code)

	res := env.do(http.MethodGet, "/api/applications", other.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, res.Body.Total)
	assert.Zero(t, *res.Body.Total)
}

func TestListMyApplications_Pagination(t *testing.T) {
	env := newTestEnv(t)
	s := env.register("Ayesha Khan", "ayesha@example.com")
	for _, title := range []string{"First", "Second", "Third"} {
		env.createApplication(s.Token, title)
	}

	res := env.do(http.MethodGet, "/api/applications?page=1&limit=2", s.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var page []applicationView
	res.decode(t, &page)
	require.Len(t, page, 2)
	assert.Equal(t, "Third", page[0].ResearchTitle, "newest first")
	assert.Equal(t, 2, *res.Body.Count)
	assert.Equal(t, 3, *res.Body.Total)
	require.NotNil(t, res.Body.Pagination.Next)
	assert.Equal(t, 2, res.Body.Pagination.Next.Page)
	assert.Nil(t, res.Body.Pagination.Prev)

	res = env.do(http.MethodGet, "/api/applications?page=2&limit=2", s.Token, nil)
	res.decode(t, &page)
	require.Len(t, page, 1)
	assert.Equal(t, "First", page[0].ResearchTitle)
	assert.Nil(t, res.Body.Pagination.Next)
	require.NotNil(t, res.Body.Pagination.Prev)
	assert.Equal(t, 1, res.Body.Pagination.Prev.Page)

	res = env.do(http.MethodGet, "/api/applications?page=1000000000000000000&limit=10", s.Token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.Error)
	res.decode(t, &page)
	assert.Empty(t, page)
	assert.Equal(t, 3, *res.Body.Total)
	assert.Nil(t, res.Body.Pagination.Next)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	applicant := env.register("Ayesha Khan", "ayesha@example.com")
	reviewer := env.staff("reviewer@example.com", db.RoleReviewer)
	admin := env.staff("admin@example.com", db.RoleAdmin)

	draft := env.createApplication(applicant.Token, "Still drafting")
	app := env.createApplication(applicant.Token, "Indus Basin Groundwater")
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/applications/"+app.ID+"/submit", applicant.Token, nil).Code)
	review := "/api/admin/applications/" + app.ID + "/review"

	res := env.do(http.MethodGet, "/api/admin/applications", applicant.Token, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "User role user is not authorized to access this route", res.Body.Error)

	res = env.do(http.MethodGet, "/api/admin/applications", reviewer.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var all []applicationView
	res.decode(t, &all)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Applicant)
	assert.Equal(t, "ayesha@example.com", all[0].Applicant.Email)

	res = env.do(http.MethodGet, "/api/admin/applications/status/submitted", reviewer.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var submitted []applicationView
	res.decode(t, &submitted)
	require.Len(t, submitted, 1)
	assert.Equal(t, app.ID, submitted[0].ID)

	assert.Equal(t, http.StatusBadRequest,
		env.do(http.MethodGet, "/api/admin/applications/status/archived", reviewer.Token, nil).Code)

	res = env.do(http.MethodPut, "/api/admin/applications/"+draft.ID+"/review", reviewer.Token, map[string]any{"status": "under_review"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Cannot review an application that is draft", res.Body.Error)

	res = env.do(http.MethodPut, review, reviewer.Token, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Approved budget is required when approving an application", res.Body.Error)

	res = env.do(http.MethodPut, review, reviewer.Token, map[string]any{"status": "under_review", "review_comments": "Looking into it"})
	require.Equal(t, http.StatusOK, res.Code, res.Body.Error)

	res = env.do(http.MethodPut, review, reviewer.Token, map[string]any{
		"status":             "approved",
		"approved_budget":    450000,
		"funding_start_date": "2026-03-01",
		"funding_end_date":   "2027-02-28",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.Error)
	assert.Equal(t, "Application reviewed successfully", res.Body.Message)
	var approved applicationView
	res.decode(t, &approved)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.ApprovedBudget)
	assert.Equal(t, "450000", *approved.ApprovedBudget)
	assert.Equal(t, []string{"under_review", "approved"}, env.notified.statuses())

	type statsView struct {
		Total    int            `json:"total_applications"`
		ByStatus map[string]int `json:"by_status"`
		Approved string         `json:"total_budget_approved"`
	}
	stats := func() statsView {
		res := env.do(http.MethodGet, "/api/admin/stats", admin.Token, nil)
		require.Equal(t, http.StatusOK, res.Code)
		var out statsView
		res.decode(t, &out)
		return out
	}
	before := stats()
	assert.Equal(t, 2, before.Total)
	assert.Equal(t, 1, before.ByStatus["draft"])
	assert.Equal(t, 1, before.ByStatus["approved"])
	assert.Equal(t, "450000", before.Approved)

	complete := "/api/admin/applications/" + app.ID + "/complete"
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, complete, reviewer.Token, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/stats", reviewer.Token, nil).Code)

	res = env.do(http.MethodPost, complete, admin.Token, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.Error)
	assert.Equal(t, "Application marked as completed", res.Body.Message)

	res = env.do(http.MethodPost, complete, admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Only approved applications can be completed", res.Body.Error)

	after := stats()
	assert.Equal(t, 1, after.ByStatus["completed"])
	assert.Equal(t, "0", after.Approved, "only applications still approved count toward the approved total")
}

func TestRoleChangeTakesEffectImmediately(t *testing.T) {
	env := newTestEnv(t)
	admin := env.staff("admin@example.com", db.RoleAdmin)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/admin/stats", admin.Token, nil).Code)

	_, err := env.store.SetUserRole(t.Context(), "admin@example.com", db.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/stats", admin.Token, nil).Code)
}

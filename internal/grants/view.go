package grants

import (
	"math"
	"time"

	"github.com/jonathan/grant-portal/internal/db"
)

// View is an application plus the values derived from it at read time.
type View struct {
	*db.GrantApplication
	ResearchAreaDisplay string `json:"research_area_display"`
	DaysUntilDeadline   int    `json:"days_until_deadline"`
	IsOverdue           bool   `json:"is_overdue"`
}

func newView(app *db.GrantApplication, now time.Time) *View {
	return &View{
		GrantApplication:    app,
		ResearchAreaDisplay: app.ResearchArea.DisplayName(),
		DaysUntilDeadline:   DaysUntilDeadline(app, now),
		IsOverdue:           IsOverdue(app, now),
	}
}

func newViews(apps []db.GrantApplication, now time.Time) []*View {
	out := make([]*View, 0, len(apps))
	for i := range apps {
		out = append(out, newView(&apps[i], now))
	}
	return out
}

// Page selects one page of a listing.
type Page struct {
	Page  int
	Limit int
}

// Pagination limits
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// NewPage normalizes a requested page: values below 1 become 1, a limit below
// 1 becomes DefaultPageLimit and limits above MaxPageLimit are capped. Pages
// so far out that page*limit would overflow are clamped to the last
// addressable page, which is always empty.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}

// PageRef points at an adjacent page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries the adjacent pages of a listing. Next is set only when
// later pages exist and Prev only past the first page.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// List is one page of applications.
type List struct {
	Applications []*View
	Total        int
	Pagination   Pagination
}

func newList(apps []db.GrantApplication, total int, p Page, now time.Time) *List {
	var pg Pagination
	if p.Page*p.Limit < total {
		pg.Next = &PageRef{Page: p.Page + 1, Limit: p.Limit}
	}
	if p.Page > 1 {
		pg.Prev = &PageRef{Page: p.Page - 1, Limit: p.Limit}
	}
	return &List{Applications: newViews(apps, now), Total: total, Pagination: pg}
}

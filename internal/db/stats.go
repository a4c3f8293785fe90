package db

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ApplicationStats computes aggregate counts and budget sums. Applications
// created at or after since count as recent. The independent aggregates run
// concurrently on separate pool connections.
func (db *DB) ApplicationStats(ctx context.Context, since time.Time) (*ApplicationStats, error) {
	stats := &ApplicationStats{
		ByStatus: make(map[ApplicationStatus]int, len(AllStatuses)),
		ByArea:   []AreaCount{},
	}
	for _, s := range AllStatuses {
		stats.ByStatus[s] = 0
	}

	var byStatus map[ApplicationStatus]int
	var requested, approved string

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := db.pool.Query(ctx,
			`SELECT status, COUNT(*) FROM grant_applications GROUP BY status`)
		if err != nil {
			return fmt.Errorf("failed to count by status: %w", err)
		}
		defer rows.Close()
		byStatus = make(map[ApplicationStatus]int)
		for rows.Next() {
			var s ApplicationStatus
			var n int
			if err := rows.Scan(&s, &n); err != nil {
				return fmt.Errorf("failed to scan status count: %w", err)
			}
			byStatus[s] = n
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := db.pool.Query(ctx,
			`SELECT research_area, COUNT(*) AS n FROM grant_applications
			 GROUP BY research_area ORDER BY n DESC, research_area`)
		if err != nil {
			return fmt.Errorf("failed to count by area: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var ac AreaCount
			if err := rows.Scan(&ac.Area, &ac.Count); err != nil {
				return fmt.Errorf("failed to scan area count: %w", err)
			}
			stats.ByArea = append(stats.ByArea, ac)
		}
		return rows.Err()
	})

	g.Go(func() error {
		err := db.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(budget_requested), 0)::text,
			        COALESCE(SUM(approved_budget) FILTER (WHERE status = 'approved'), 0)::text
			 FROM grant_applications`,
		).Scan(&requested, &approved)
		if err != nil {
			return fmt.Errorf("failed to sum budgets: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := db.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM grant_applications WHERE created_at >= $1`, since,
		).Scan(&stats.Recent)
		if err != nil {
			return fmt.Errorf("failed to count recent applications: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for s, n := range byStatus {
		stats.ByStatus[s] = n
		stats.Total += n
	}

	var err error
	if stats.TotalBudgetRequested, err = decimal.NewFromString(requested); err != nil {
		return nil, fmt.Errorf("invalid requested budget sum %q: %w", requested, err)
	}
	if stats.TotalBudgetApproved, err = decimal.NewFromString(approved); err != nil {
		return nil, fmt.Errorf("invalid approved budget sum %q: %w", approved, err)
	}
	return stats, nil
}

package registry

import (
	"context"
	"fmt"

	"asset-registry-backend/internal/model"
)

// Stats holds the aggregate equipment counts behind the dashboard and
// reporting screens.
type Stats struct {
	Total          int64                          `json:"total"`
	Active         int64                          `json:"active"`
	Assigned       int64                          `json:"assigned"`
	Available      int64                          `json:"available"`
	Decommissioned int64                          `json:"decommissioned"`
	ByState        map[model.LifecycleState]int64 `json:"by_state"`
	BySite         map[model.Site]int64           `json:"by_site"`
}

// Stats computes the aggregate counts in a handful of grouped queries.
func (r *Registry) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByState: make(map[model.LifecycleState]int64),
		BySite:  make(map[model.Site]int64),
	}

	type stateRow struct {
		State model.LifecycleState
		N     int64
	}
	var byState []stateRow
	if err := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Select("state as state, COUNT(*) as n").
		Group("state").
		Scan(&byState).Error; err != nil {
		return nil, fmt.Errorf("aggregate by state: %w", err)
	}
	for _, row := range byState {
		stats.ByState[row.State] = row.N
		stats.Total += row.N
		if row.State == model.StateDecommissioned {
			stats.Decommissioned = row.N
		}
	}

	type siteRow struct {
		Site model.Site
		N    int64
	}
	var bySite []siteRow
	if err := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Select("site as site, COUNT(*) as n").
		Group("site").
		Scan(&bySite).Error; err != nil {
		return nil, fmt.Errorf("aggregate by site: %w", err)
	}
	for _, row := range bySite {
		stats.BySite[row.Site] = row.N
	}

	if err := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("active = ?", true).
		Count(&stats.Active).Error; err != nil {
		return nil, fmt.Errorf("count active: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("assignee_key IS NOT NULL").
		Count(&stats.Assigned).Error; err != nil {
		return nil, fmt.Errorf("count assigned: %w", err)
	}
	stats.Available = stats.Total - stats.Assigned

	return stats, nil
}

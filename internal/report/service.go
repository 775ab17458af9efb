package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/medops/ot-scheduling/internal/resource"
	"github.com/medops/ot-scheduling/internal/surgery"
)

// Dashboard is the coordinator overview: request counts plus what is still
// open today. Pure read-side aggregation, no invariants of its own.
type Dashboard struct {
	RequestsByStatus  map[surgery.Status]int  `json:"requests_by_status"`
	RequestsByUrgency map[surgery.Urgency]int `json:"requests_by_urgency"`
}

// ResourceDay is one resource's open time on a given date.
type ResourceDay struct {
	ResourceID uuid.UUID            `json:"resource_id"`
	Type       resource.Type        `json:"type"`
	Name       string               `json:"name"`
	Available  resource.DaySchedule `json:"available"`
}

type Service struct {
	requests  surgery.Repository
	resources resource.Repository
}

func NewService(requests surgery.Repository, resources resource.Repository) *Service {
	return &Service{requests: requests, resources: resources}
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	byStatus, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	byUrgency, err := s.requests.CountByUrgency(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by urgency: %w", err)
	}
	return &Dashboard{
		RequestsByStatus:  byStatus,
		RequestsByUrgency: byUrgency,
	}, nil
}

// AvailableOn lists resources with at least one available interval on the
// date, with the open intervals only.
func (s *Service) AvailableOn(ctx context.Context, date string) ([]ResourceDay, error) {
	if !resource.ValidDate(date) {
		return nil, fmt.Errorf("invalid date %q", date)
	}

	all, err := s.resources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}

	var out []ResourceDay
	for _, res := range all {
		var open resource.DaySchedule
		for _, iv := range res.Availability[date] {
			if iv.Status == resource.IntervalAvailable {
				open = append(open, iv)
			}
		}
		if len(open) == 0 {
			continue
		}
		out = append(out, ResourceDay{
			ResourceID: res.ID,
			Type:       res.Type,
			Name:       res.Name,
			Available:  open,
		})
	}
	return out, nil
}

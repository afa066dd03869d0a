// Package app provides the use cases behind the status API.
package app

import (
	"context"

	"github.com/graaaaa/rolecall/internal/schedule"
)

// HealthUsecase defines the health check use case.
type HealthUsecase interface {
	Handle(ctx context.Context) (HealthResult, error)
}

// HealthResult represents the health check response.
type HealthResult struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Scheduled int    `json:"scheduled"`
}

// PendingSource reports the starts currently scheduled.
type PendingSource interface {
	Pending() []schedule.Pending
}

// HealthService implements HealthUsecase.
type HealthService struct {
	Version   string
	Scheduler PendingSource // optional
}

// Handle returns the current health status.
func (s HealthService) Handle(ctx context.Context) (HealthResult, error) {
	result := HealthResult{
		Status:  "ok",
		Version: s.Version,
	}
	if s.Scheduler != nil {
		result.Scheduled = len(s.Scheduler.Pending())
	}
	return result, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

// ErrSystemInvalidInput signals the caller provided invalid data.
var ErrSystemInvalidInput = errors.New("system: invalid input")

// SystemServiceDeps bundles collaborators required to construct a system service.
type SystemServiceDeps struct {
	Health   repositories.HealthRepository
	Counters repositories.CounterRepository
	Clock    func() time.Time
}

type systemService struct {
	health   repositories.HealthRepository
	counters repositories.CounterRepository
	clock    func() time.Time
}

var _ SystemService = (*systemService)(nil)

// NewSystemService assembles the utility service behind health and counter endpoints.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("system service: counter repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &systemService{
		health:   deps.Health,
		counters: deps.Counters,
		clock:    func() time.Time { return clock().UTC() },
	}, nil
}

func (s *systemService) HealthReport(ctx context.Context) (SystemHealthReport, error) {
	report, err := s.health.Collect(ctx)
	if err != nil {
		return SystemHealthReport{}, err
	}

	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = s.clock()
	}
	if report.Checks == nil {
		report.Checks = map[string]domain.SystemHealthCheck{}
	}
	if report.Status == "" {
		report.Status = deriveHealthStatus(report.Checks)
	}
	return report, nil
}

func (s *systemService) NextCounterValue(ctx context.Context, cmd CounterCommand) (int64, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	name := strings.TrimSpace(cmd.Name)
	if shopID == "" || name == "" {
		return 0, fmt.Errorf("%w: shop id and counter name are required", ErrSystemInvalidInput)
	}
	step := cmd.Step
	if step <= 0 {
		step = 1
	}
	return s.counters.Next(ctx, fmt.Sprintf("%s-%s", shopID, name), step)
}

func deriveHealthStatus(checks map[string]domain.SystemHealthCheck) domain.HealthStatus {
	if len(checks) == 0 {
		return domain.HealthStatusOK
	}
	status := domain.HealthStatusOK
	for _, check := range checks {
		switch check.Status {
		case domain.HealthStatusOK, "":
			continue
		case domain.HealthStatusError:
			return domain.HealthStatusError
		default:
			status = domain.HealthStatusDegraded
		}
	}
	return status
}

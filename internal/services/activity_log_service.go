package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

// ActivityLogger defines the logging contract used by the activity writer.
type ActivityLogger interface {
	Warnf(format string, args ...any)
}

type activityLogService struct {
	repo  repositories.ActivityLogRepository
	clock func() time.Time
	newID func() string
	log   ActivityLogger
}

// ActivityLogServiceDeps bundles constructor inputs for the activity writer.
type ActivityLogServiceDeps struct {
	Repository  repositories.ActivityLogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      ActivityLogger
}

// NewActivityLogService creates an activity trail writer backed by the
// supplied repository.
func NewActivityLogService(deps ActivityLogServiceDeps) (ActivityLogService, error) {
	if deps.Repository == nil {
		return nil, fmt.Errorf("activity log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	log := deps.Logger
	if log == nil {
		log = noopActivityLogger{}
	}

	return &activityLogService{
		repo:  deps.Repository,
		clock: func() time.Time { return clock().UTC() },
		newID: idGen,
		log:   log,
	}, nil
}

// Record persists an entry outside any transaction. Append failures are
// logged but do not bubble up; the trail must never break the mutation that
// produced it.
func (s *activityLogService) Record(ctx context.Context, record ActivityRecord) {
	entry, err := s.buildEntry(record)
	if err != nil {
		s.log.Warnf("activity log entry dropped: %v", err)
		return
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.log.Warnf("activity log append failed: %v", err)
	}
}

// RecordInTx persists an entry inside the caller's transaction. Here a
// failure does bubble up: the entry shares the transaction's fate with the
// mutation it describes.
func (s *activityLogService) RecordInTx(ctx context.Context, record ActivityRecord) error {
	entry, err := s.buildEntry(record)
	if err != nil {
		return err
	}
	return s.repo.Append(ctx, entry)
}

// List delegates to the repository to retrieve paginated trail entries.
func (s *activityLogService) List(ctx context.Context, filter ActivityListFilter) (domain.CursorPage[ActivityLogEntry], error) {
	if strings.TrimSpace(filter.ShopID) == "" {
		return domain.CursorPage[ActivityLogEntry]{}, fmt.Errorf("activity log service: shop id is required")
	}
	return s.repo.List(ctx, repositories.ActivityLogFilter{
		ShopID:     strings.TrimSpace(filter.ShopID),
		EntityType: strings.TrimSpace(filter.EntityType),
		EntityID:   strings.TrimSpace(filter.EntityID),
		Actor:      strings.TrimSpace(filter.Actor),
		DateRange:  filter.DateRange,
		Pagination: filter.Pagination,
	})
}

func (s *activityLogService) buildEntry(record ActivityRecord) (domain.ActivityLogEntry, error) {
	shopID := strings.TrimSpace(record.ShopID)
	if shopID == "" {
		return domain.ActivityLogEntry{}, fmt.Errorf("activity log service: shop id is required")
	}
	action := strings.TrimSpace(record.Action)
	if action == "" {
		return domain.ActivityLogEntry{}, fmt.Errorf("activity log service: action is required")
	}

	actor := strings.TrimSpace(record.Actor)
	if actor == "" {
		actor = "owner"
	}

	return domain.ActivityLogEntry{
		ID:         s.newID(),
		ShopID:     shopID,
		Actor:      clipText(actor, 160),
		Action:     clipText(action, 120),
		EntityType: clipText(strings.TrimSpace(record.EntityType), 80),
		EntityID:   clipText(strings.TrimSpace(record.EntityID), 160),
		Details:    clipText(strings.TrimSpace(record.Details), 512),
		CreatedAt:  s.clock(),
	}, nil
}

type noopActivityLogger struct{}

func (noopActivityLogger) Warnf(string, ...any) {}

// clipText drops control characters and truncates to limit runes.
func clipText(input string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	if input == "" {
		return ""
	}
	var builder strings.Builder
	count := 0
	for _, r := range input {
		if r < 32 && r != '\n' && r != '\t' {
			continue
		}
		builder.WriteRune(r)
		count++
		if count >= limit {
			break
		}
	}
	return builder.String()
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

const (
	reminderActionCreated = "reminder.created"
	reminderActionDone    = "reminder.done"

	reminderEntityType = "reminder"
)

var (
	// ErrReminderInvalidInput signals the caller provided invalid data.
	ErrReminderInvalidInput = errors.New("reminder: invalid input")
	// ErrReminderNotFound indicates the reminder could not be located.
	ErrReminderNotFound = errors.New("reminder: not found")
)

// ReminderServiceDeps bundles collaborators for the reminder service.
type ReminderServiceDeps struct {
	Reminders   repositories.ReminderRepository
	Orders      repositories.OrderRepository
	Activity    ActivityLogService
	Clock       func() time.Time
	IDGenerator func() string
}

type reminderService struct {
	reminders repositories.ReminderRepository
	orders    repositories.OrderRepository
	activity  ActivityLogService
	clock     func() time.Time
	newID     func() string
}

// NewReminderService wires dependencies into a concrete ReminderService implementation.
func NewReminderService(deps ReminderServiceDeps) (ReminderService, error) {
	if deps.Reminders == nil {
		return nil, errors.New("reminder service: reminder repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("reminder service: order repository is required")
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

	return &reminderService{
		reminders: deps.Reminders,
		orders:    deps.Orders,
		activity:  deps.Activity,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
	}, nil
}

func (s *reminderService) Create(ctx context.Context, cmd CreateReminderCommand) (Reminder, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	orderID := strings.TrimSpace(cmd.OrderID)
	if shopID == "" || orderID == "" {
		return Reminder{}, fmt.Errorf("%w: shop id and order id are required", ErrReminderInvalidInput)
	}
	message := strings.TrimSpace(cmd.Message)
	if message == "" {
		return Reminder{}, fmt.Errorf("%w: message is required", ErrReminderInvalidInput)
	}
	if cmd.DueAt.IsZero() {
		return Reminder{}, fmt.Errorf("%w: due time is required", ErrReminderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, shopID, orderID)
	if err != nil {
		return Reminder{}, s.mapRepositoryError(err)
	}

	now := s.clock()
	reminder := Reminder{
		ID:         s.newID(),
		ShopID:     shopID,
		OrderID:    orderID,
		CustomerID: order.CustomerID,
		Message:    message,
		DueAt:      cmd.DueAt.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reminders.Insert(ctx, reminder); err != nil {
		return Reminder{}, s.mapRepositoryError(err)
	}

	s.record(ctx, cmd.Actor, shopID, reminderActionCreated, reminder.ID,
		fmt.Sprintf("Reminder for order %s due %s", shortID(orderID), reminder.DueAt.Format("2006-01-02 15:04")))
	return reminder, nil
}

func (s *reminderService) MarkDone(ctx context.Context, shopID string, reminderID string, actor string) (Reminder, error) {
	shopID = strings.TrimSpace(shopID)
	reminderID = strings.TrimSpace(reminderID)
	if shopID == "" || reminderID == "" {
		return Reminder{}, fmt.Errorf("%w: shop id and reminder id are required", ErrReminderInvalidInput)
	}

	reminder, err := s.reminders.FindByID(ctx, shopID, reminderID)
	if err != nil {
		return Reminder{}, s.mapRepositoryError(err)
	}
	if reminder.Done {
		return reminder, nil
	}

	reminder.Done = true
	reminder.UpdatedAt = s.clock()
	if err := s.reminders.Update(ctx, reminder); err != nil {
		return Reminder{}, s.mapRepositoryError(err)
	}

	s.record(ctx, actor, shopID, reminderActionDone, reminder.ID,
		fmt.Sprintf("Reminder for order %s done", shortID(reminder.OrderID)))
	return reminder, nil
}

func (s *reminderService) Get(ctx context.Context, shopID string, reminderID string) (Reminder, error) {
	shopID = strings.TrimSpace(shopID)
	reminderID = strings.TrimSpace(reminderID)
	if shopID == "" || reminderID == "" {
		return Reminder{}, fmt.Errorf("%w: shop id and reminder id are required", ErrReminderInvalidInput)
	}
	reminder, err := s.reminders.FindByID(ctx, shopID, reminderID)
	if err != nil {
		return Reminder{}, s.mapRepositoryError(err)
	}
	return reminder, nil
}

func (s *reminderService) ListDue(ctx context.Context, cmd ListDueRemindersCommand) (domain.CursorPage[Reminder], error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	if shopID == "" {
		return domain.CursorPage[Reminder]{}, fmt.Errorf("%w: shop id is required", ErrReminderInvalidInput)
	}
	before := cmd.Before
	if before.IsZero() {
		before = s.clock()
	}
	page, err := s.reminders.ListDue(ctx, shopID, before, cmd.Pagination)
	if err != nil {
		return domain.CursorPage[Reminder]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *reminderService) record(ctx context.Context, actor, shopID, action, entityID, details string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, ActivityRecord{
		ShopID:     shopID,
		Actor:      actor,
		Action:     action,
		EntityType: reminderEntityType,
		EntityID:   entityID,
		Details:    details,
	})
}

func (s *reminderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrReminderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("reminder: repository unavailable: %w", err)
		}
	}
	return err
}

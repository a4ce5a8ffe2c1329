package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/sobri3195/WarungWA/internal/domain"
)

type stubReminderRepo struct {
	insertFn  func(context.Context, domain.Reminder) error
	updateFn  func(context.Context, domain.Reminder) error
	findFn    func(context.Context, string, string) (domain.Reminder, error)
	listDueFn func(context.Context, string, time.Time, domain.Pagination) (domain.CursorPage[domain.Reminder], error)
}

func (s *stubReminderRepo) Insert(ctx context.Context, reminder domain.Reminder) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, reminder)
	}
	return nil
}

func (s *stubReminderRepo) Update(ctx context.Context, reminder domain.Reminder) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, reminder)
	}
	return nil
}

func (s *stubReminderRepo) FindByID(ctx context.Context, shopID string, reminderID string) (domain.Reminder, error) {
	if s.findFn != nil {
		return s.findFn(ctx, shopID, reminderID)
	}
	return domain.Reminder{}, errors.New("not implemented")
}

func (s *stubReminderRepo) ListDue(ctx context.Context, shopID string, before time.Time, pager domain.Pagination) (domain.CursorPage[domain.Reminder], error) {
	if s.listDueFn != nil {
		return s.listDueFn(ctx, shopID, before, pager)
	}
	return domain.CursorPage[domain.Reminder]{}, nil
}

func (s *stubReminderRepo) ListByOrder(context.Context, string, string) ([]domain.Reminder, error) {
	return nil, nil
}

func newTestReminderService(t *testing.T, reminders *stubReminderRepo, orders *stubOrderRepo) ReminderService {
	t.Helper()
	if reminders == nil {
		reminders = &stubReminderRepo{}
	}
	if orders == nil {
		orders = &stubOrderRepo{
			findFn: func(context.Context, string, string) (domain.Order, error) {
				return domain.Order{ID: "ord-1", ShopID: "shop-1", CustomerID: "cust-1"}, nil
			},
		}
	}
	svc, err := NewReminderService(ReminderServiceDeps{
		Reminders: reminders,
		Orders:    orders,
		Clock: func() time.Time {
			return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
		},
		IDGenerator: sequentialIDs("rem"),
	})
	if err != nil {
		t.Fatalf("new reminder service: %v", err)
	}
	return svc
}

func TestReminderCreateCopiesCustomerFromOrder(t *testing.T) {
	ctx := context.Background()
	var inserted domain.Reminder
	reminders := &stubReminderRepo{
		insertFn: func(_ context.Context, reminder domain.Reminder) error {
			inserted = reminder
			return nil
		},
	}

	svc := newTestReminderService(t, reminders, nil)

	due := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	reminder, err := svc.Create(ctx, CreateReminderCommand{
		ShopID:  "shop-1",
		OrderID: "ord-1",
		Message: "Tagih sisa pembayaran",
		DueAt:   due,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if reminder.CustomerID != "cust-1" {
		t.Fatalf("expected customer id from order got %q", reminder.CustomerID)
	}
	if !inserted.DueAt.Equal(due) {
		t.Fatalf("unexpected due time %s", inserted.DueAt)
	}
	if inserted.Done {
		t.Fatal("new reminder must not be done")
	}
}

func TestReminderCreateRequiresExistingOrder(t *testing.T) {
	ctx := context.Background()
	orders := &stubOrderRepo{
		findFn: func(context.Context, string, string) (domain.Order, error) {
			return domain.Order{}, &orderRepoErr{err: errors.New("missing"), notFound: true}
		},
	}

	svc := newTestReminderService(t, nil, orders)

	_, err := svc.Create(ctx, CreateReminderCommand{
		ShopID:  "shop-1",
		OrderID: "ghost",
		Message: "x",
		DueAt:   time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrReminderNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestReminderMarkDoneIsIdempotent(t *testing.T) {
	ctx := context.Background()
	updates := 0
	reminders := &stubReminderRepo{
		findFn: func(context.Context, string, string) (domain.Reminder, error) {
			return domain.Reminder{ID: "rem-1", ShopID: "shop-1", OrderID: "ord-1", Done: true}, nil
		},
		updateFn: func(context.Context, domain.Reminder) error {
			updates++
			return nil
		},
	}

	svc := newTestReminderService(t, reminders, nil)

	reminder, err := svc.MarkDone(ctx, "shop-1", "rem-1", "owner")
	if err != nil {
		t.Fatalf("mark done: %v", err)
	}
	if !reminder.Done {
		t.Fatal("expected done reminder")
	}
	if updates != 0 {
		t.Fatalf("already-done reminder must not be rewritten, got %d updates", updates)
	}
}

func TestReminderListDueDefaultsToNow(t *testing.T) {
	ctx := context.Background()
	var captured time.Time
	reminders := &stubReminderRepo{
		listDueFn: func(_ context.Context, _ string, before time.Time, _ domain.Pagination) (domain.CursorPage[domain.Reminder], error) {
			captured = before
			return domain.CursorPage[domain.Reminder]{}, nil
		},
	}

	svc := newTestReminderService(t, reminders, nil)

	if _, err := svc.ListDue(ctx, ListDueRemindersCommand{ShopID: "shop-1"}); err != nil {
		t.Fatalf("list due: %v", err)
	}
	want := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	if !captured.Equal(want) {
		t.Fatalf("expected clock default %s got %s", want, captured)
	}
}

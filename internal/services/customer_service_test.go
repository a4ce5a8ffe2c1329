package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/sobri3195/WarungWA/internal/domain"
)

type fakeCustomerRepo struct {
	stubCustomerRepo
	inserted []domain.Customer
	updated  []domain.Customer
}

func (f *fakeCustomerRepo) Insert(_ context.Context, customer domain.Customer) error {
	f.inserted = append(f.inserted, customer)
	return nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, customer domain.Customer) error {
	f.updated = append(f.updated, customer)
	return nil
}

func newTestCustomerService(t *testing.T, repo *fakeCustomerRepo) CustomerService {
	t.Helper()
	svc, err := NewCustomerService(CustomerServiceDeps{
		Customers: repo,
		Clock: func() time.Time {
			return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
		},
		IDGenerator: sequentialIDs("cust"),
	})
	if err != nil {
		t.Fatalf("new customer service: %v", err)
	}
	return svc
}

func TestCustomerCreateDefaultsToRetail(t *testing.T) {
	ctx := context.Background()
	repo := &fakeCustomerRepo{}
	svc := newTestCustomerService(t, repo)

	customer, err := svc.Create(ctx, UpsertCustomerCommand{
		ShopID: "shop-1",
		Name:   "Budi",
		Phone:  "081234567890",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if customer.Level != domain.CustomerLevelRetail {
		t.Fatalf("expected RETAIL default got %s", customer.Level)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected insert, got %d", len(repo.inserted))
	}
}

func TestCustomerCreateRejectsUnknownLevel(t *testing.T) {
	ctx := context.Background()
	svc := newTestCustomerService(t, &fakeCustomerRepo{})

	_, err := svc.Create(ctx, UpsertCustomerCommand{
		ShopID: "shop-1",
		Name:   "Budi",
		Phone:  "081234567890",
		Level:  "VIP",
	})
	if !errors.Is(err, ErrCustomerInvalidInput) {
		t.Fatalf("expected invalid input got %v", err)
	}
}

func TestCustomerUpdateKeepsUnsetFields(t *testing.T) {
	ctx := context.Background()
	repo := &fakeCustomerRepo{
		stubCustomerRepo: stubCustomerRepo{
			findFn: func(context.Context, string, string) (domain.Customer, error) {
				return domain.Customer{
					ID:      "cust-1",
					ShopID:  "shop-1",
					Name:    "Budi",
					Phone:   "081234567890",
					Address: "Jl. Merdeka 1",
					Level:   domain.CustomerLevelReseller,
				}, nil
			},
		},
	}
	svc := newTestCustomerService(t, repo)

	customer, err := svc.Update(ctx, UpsertCustomerCommand{
		ShopID:     "shop-1",
		CustomerID: "cust-1",
		Name:       "Budi Santoso",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if customer.Name != "Budi Santoso" {
		t.Fatalf("expected renamed customer got %q", customer.Name)
	}
	if customer.Phone != "081234567890" || customer.Level != domain.CustomerLevelReseller {
		t.Fatalf("unset fields must survive, got %+v", customer)
	}
}

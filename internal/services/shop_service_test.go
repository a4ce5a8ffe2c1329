package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/sobri3195/WarungWA/internal/domain"
)

func newTestShopService(t *testing.T, shops *stubShopRepo) ShopService {
	t.Helper()
	if shops == nil {
		shops = &stubShopRepo{}
	}
	svc, err := NewShopService(ShopServiceDeps{
		Shops: shops,
		Clock: func() time.Time {
			return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("new shop service: %v", err)
	}
	return svc
}

func TestShopCreateNormalizesPhone(t *testing.T) {
	ctx := context.Background()
	var inserted domain.Shop
	shops := &stubShopRepo{
		insertFn: func(_ context.Context, shop domain.Shop) error {
			inserted = shop
			return nil
		},
	}
	svc := newTestShopService(t, shops)

	shop, err := svc.Create(ctx, UpsertShopCommand{
		ShopID: "warung-sari",
		Name:   "Warung Bu Sari",
		Phone:  "0811-1222-333",
		OperatingHours: domain.OperatingHours{
			Open:  "08:00",
			Close: "21:00",
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if shop.Phone != "628111222333" {
		t.Fatalf("expected normalized phone got %q", shop.Phone)
	}
	if inserted.ID != "warung-sari" {
		t.Fatalf("expected caller-chosen id got %q", inserted.ID)
	}
}

func TestShopCreateRejectsMalformedHours(t *testing.T) {
	ctx := context.Background()
	svc := newTestShopService(t, nil)

	_, err := svc.Create(ctx, UpsertShopCommand{
		ShopID: "warung-sari",
		Name:   "Warung Bu Sari",
		OperatingHours: domain.OperatingHours{
			Open:  "delapan pagi",
			Close: "21:00",
		},
	})
	if !errors.Is(err, ErrShopInvalidInput) {
		t.Fatalf("expected invalid input got %v", err)
	}
}

func TestShopUpdateMapsMissingShop(t *testing.T) {
	ctx := context.Background()
	shops := &stubShopRepo{
		findFn: func(context.Context, string) (domain.Shop, error) {
			return domain.Shop{}, &orderRepoErr{err: errors.New("missing"), notFound: true}
		},
	}
	svc := newTestShopService(t, shops)

	_, err := svc.Update(ctx, UpsertShopCommand{ShopID: "ghost", Name: "X"})
	if !errors.Is(err, ErrShopNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

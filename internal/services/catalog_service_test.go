package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

type stubProductRepo struct {
	insertFn func(context.Context, domain.Product) error
	updateFn func(context.Context, domain.Product) error
	deleteFn func(context.Context, string, string) error
	findFn   func(context.Context, string, string) (domain.Product, error)
	listFn   func(context.Context, repositories.ProductListFilter) (domain.CursorPage[domain.Product], error)
}

func (s *stubProductRepo) Insert(ctx context.Context, product domain.Product) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, product)
	}
	return nil
}

func (s *stubProductRepo) Update(ctx context.Context, product domain.Product) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, product)
	}
	return nil
}

func (s *stubProductRepo) Delete(ctx context.Context, shopID string, productID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, shopID, productID)
	}
	return nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, shopID string, productID string) (domain.Product, error) {
	if s.findFn != nil {
		return s.findFn(ctx, shopID, productID)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubProductRepo) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Product]{}, nil
}

func kopiSusuProduct() domain.Product {
	return domain.Product{
		ID:     "prod-1",
		ShopID: "shop-1",
		Name:   "Kopi Susu",
		Active: true,
		Variants: []domain.ProductVariant{
			{
				ID:        "var-reg",
				Name:      "Regular",
				BasePrice: 18000,
				PriceLevels: []domain.PriceLevel{
					{Level: domain.CustomerLevelReseller, Price: 15000},
					{Level: domain.CustomerLevelWholesale, Price: 12000},
				},
			},
			{
				ID:        "var-lrg",
				Name:      "Large",
				BasePrice: 22000,
			},
		},
	}
}

func newTestCatalogService(t *testing.T, products repositories.ProductRepository) CatalogService {
	t.Helper()
	if products == nil {
		products = &stubProductRepo{
			findFn: func(context.Context, string, string) (domain.Product, error) {
				return kopiSusuProduct(), nil
			},
		}
	}
	svc, err := NewCatalogService(CatalogServiceDeps{
		Products: products,
		Clock: func() time.Time {
			return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
		},
		IDGenerator: sequentialIDs("prd"),
	})
	if err != nil {
		t.Fatalf("new catalog service: %v", err)
	}
	return svc
}

func TestCatalogUnitPriceUsesTierOverride(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalogService(t, nil)

	cases := []struct {
		level domain.CustomerLevel
		want  int64
	}{
		{domain.CustomerLevelRetail, 18000},
		{domain.CustomerLevelReseller, 15000},
		{domain.CustomerLevelWholesale, 12000},
	}
	for _, tc := range cases {
		price, err := svc.UnitPriceFor(ctx, UnitPriceQuery{
			ShopID:        "shop-1",
			ProductID:     "prod-1",
			VariantID:     "var-reg",
			CustomerLevel: tc.level,
		})
		if err != nil {
			t.Fatalf("unit price for %s: %v", tc.level, err)
		}
		if price.UnitPrice != tc.want {
			t.Fatalf("level %s: expected %d got %d", tc.level, tc.want, price.UnitPrice)
		}
	}
}

func TestCatalogUnitPriceFallsBackToBasePrice(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalogService(t, nil)

	// The large variant has no tier entries, every level pays base price.
	price, err := svc.UnitPriceFor(ctx, UnitPriceQuery{
		ShopID:        "shop-1",
		ProductID:     "prod-1",
		VariantID:     "var-lrg",
		CustomerLevel: domain.CustomerLevelWholesale,
	})
	if err != nil {
		t.Fatalf("unit price: %v", err)
	}
	if price.UnitPrice != 22000 {
		t.Fatalf("expected base price 22000 got %d", price.UnitPrice)
	}
	if price.VariantName != "Large" {
		t.Fatalf("unexpected variant name %q", price.VariantName)
	}
}

func TestCatalogUnitPriceRequiresVariantWhenAmbiguous(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalogService(t, nil)

	_, err := svc.UnitPriceFor(ctx, UnitPriceQuery{
		ShopID:    "shop-1",
		ProductID: "prod-1",
	})
	if !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input got %v", err)
	}
}

func TestCatalogUnitPricePicksSoleVariant(t *testing.T) {
	ctx := context.Background()
	products := &stubProductRepo{
		findFn: func(context.Context, string, string) (domain.Product, error) {
			return domain.Product{
				ID:     "prod-2",
				ShopID: "shop-1",
				Name:   "Es Teh",
				Variants: []domain.ProductVariant{
					{ID: "var-only", Name: "Standar", BasePrice: 5000},
				},
			}, nil
		},
	}
	svc := newTestCatalogService(t, products)

	price, err := svc.UnitPriceFor(ctx, UnitPriceQuery{ShopID: "shop-1", ProductID: "prod-2"})
	if err != nil {
		t.Fatalf("unit price: %v", err)
	}
	if price.VariantID != "var-only" || price.UnitPrice != 5000 {
		t.Fatalf("unexpected price %+v", price)
	}
}

func TestCatalogUnitPriceUnknownVariant(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalogService(t, nil)

	_, err := svc.UnitPriceFor(ctx, UnitPriceQuery{
		ShopID:    "shop-1",
		ProductID: "prod-1",
		VariantID: "var-missing",
	})
	if !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestCatalogCreateValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalogService(t, &stubProductRepo{})

	_, err := svc.Create(ctx, UpsertProductCommand{ShopID: "shop-1", Name: "Tanpa Varian"})
	if !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input for missing variants got %v", err)
	}

	_, err = svc.Create(ctx, UpsertProductCommand{
		ShopID: "shop-1",
		Name:   "Harga Minus",
		Variants: []VariantInput{
			{Name: "Standar", BasePrice: -1},
		},
	})
	if !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input for negative price got %v", err)
	}
}

func TestCatalogCreateDefaultsToActive(t *testing.T) {
	ctx := context.Background()
	var inserted domain.Product
	products := &stubProductRepo{
		insertFn: func(_ context.Context, product domain.Product) error {
			inserted = product
			return nil
		},
	}
	svc := newTestCatalogService(t, products)

	product, err := svc.Create(ctx, UpsertProductCommand{
		ShopID:   "shop-1",
		Name:     "Nasi Goreng",
		Variants: []VariantInput{{Name: "Biasa", BasePrice: 15000}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !product.Active {
		t.Fatal("expected new product to default to active")
	}
	if len(inserted.Variants) != 1 || inserted.Variants[0].ID == "" {
		t.Fatalf("expected variant id to be assigned, got %+v", inserted.Variants)
	}
}

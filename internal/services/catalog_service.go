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
	catalogActionCreated = "product.created"
	catalogActionUpdated = "product.updated"
	catalogActionDeleted = "product.deleted"

	catalogEntityType = "product"
)

var (
	// ErrCatalogInvalidInput signals the caller provided invalid data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the product or variant could not be located.
	ErrCatalogNotFound = errors.New("catalog: not found")
	// ErrCatalogConflict indicates duplicate inserts.
	ErrCatalogConflict = errors.New("catalog: conflict")
)

// CatalogServiceDeps bundles collaborators for the catalog service.
type CatalogServiceDeps struct {
	Products    repositories.ProductRepository
	Activity    ActivityLogService
	Clock       func() time.Time
	IDGenerator func() string
}

type catalogService struct {
	products repositories.ProductRepository
	activity ActivityLogService
	clock    func() time.Time
	newID    func() string
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
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

	return &catalogService{
		products: deps.Products,
		activity: deps.Activity,
		clock:    func() time.Time { return clock().UTC() },
		newID:    idGen,
	}, nil
}

func (s *catalogService) Create(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	if shopID == "" {
		return Product{}, fmt.Errorf("%w: shop id is required", ErrCatalogInvalidInput)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Product{}, fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	if len(cmd.Variants) == 0 {
		return Product{}, fmt.Errorf("%w: product needs at least one variant", ErrCatalogInvalidInput)
	}

	variants, err := s.buildVariants(cmd.Variants)
	if err != nil {
		return Product{}, err
	}

	now := s.clock()
	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}

	product := Product{
		ID:          s.newID(),
		ShopID:      shopID,
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		Active:      active,
		Variants:    variants,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Insert(ctx, product); err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	s.record(ctx, cmd.Actor, shopID, catalogActionCreated, product.ID,
		fmt.Sprintf("Product %q created", product.Name))
	return product, nil
}

func (s *catalogService) Update(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	productID := strings.TrimSpace(cmd.ProductID)
	if shopID == "" || productID == "" {
		return Product{}, fmt.Errorf("%w: shop id and product id are required", ErrCatalogInvalidInput)
	}

	product, err := s.products.FindByID(ctx, shopID, productID)
	if err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	if name := strings.TrimSpace(cmd.Name); name != "" {
		product.Name = name
	}
	if cmd.Description != "" {
		product.Description = strings.TrimSpace(cmd.Description)
	}
	if cmd.Active != nil {
		product.Active = *cmd.Active
	}
	if len(cmd.Variants) > 0 {
		variants, err := s.buildVariants(cmd.Variants)
		if err != nil {
			return Product{}, err
		}
		product.Variants = variants
	}
	product.UpdatedAt = s.clock()

	if err := s.products.Update(ctx, product); err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	s.record(ctx, cmd.Actor, shopID, catalogActionUpdated, product.ID,
		fmt.Sprintf("Product %q updated", product.Name))
	return product, nil
}

func (s *catalogService) Delete(ctx context.Context, shopID string, productID string, actor string) error {
	shopID = strings.TrimSpace(shopID)
	productID = strings.TrimSpace(productID)
	if shopID == "" || productID == "" {
		return fmt.Errorf("%w: shop id and product id are required", ErrCatalogInvalidInput)
	}
	product, err := s.products.FindByID(ctx, shopID, productID)
	if err != nil {
		return s.mapRepositoryError(err)
	}
	if err := s.products.Delete(ctx, shopID, productID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.record(ctx, actor, shopID, catalogActionDeleted, productID,
		fmt.Sprintf("Product %q deleted", product.Name))
	return nil
}

func (s *catalogService) Get(ctx context.Context, shopID string, productID string) (Product, error) {
	shopID = strings.TrimSpace(shopID)
	productID = strings.TrimSpace(productID)
	if shopID == "" || productID == "" {
		return Product{}, fmt.Errorf("%w: shop id and product id are required", ErrCatalogInvalidInput)
	}
	product, err := s.products.FindByID(ctx, shopID, productID)
	if err != nil {
		return Product{}, s.mapRepositoryError(err)
	}
	return product, nil
}

func (s *catalogService) List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error) {
	if strings.TrimSpace(filter.ShopID) == "" {
		return domain.CursorPage[Product]{}, fmt.Errorf("%w: shop id is required", ErrCatalogInvalidInput)
	}
	page, err := s.products.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Product]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// UnitPriceFor resolves what one unit of a variant costs a customer at the
// given tier. A tier entry on the variant overrides the base price; without
// one the base price applies. An empty variant id picks the product's sole
// variant when there is exactly one.
func (s *catalogService) UnitPriceFor(ctx context.Context, query UnitPriceQuery) (ResolvedPrice, error) {
	shopID := strings.TrimSpace(query.ShopID)
	productID := strings.TrimSpace(query.ProductID)
	if shopID == "" || productID == "" {
		return ResolvedPrice{}, fmt.Errorf("%w: shop id and product id are required", ErrCatalogInvalidInput)
	}

	product, err := s.products.FindByID(ctx, shopID, productID)
	if err != nil {
		return ResolvedPrice{}, s.mapRepositoryError(err)
	}

	variant, err := pickVariant(product, strings.TrimSpace(query.VariantID))
	if err != nil {
		return ResolvedPrice{}, err
	}

	price := variant.BasePrice
	for _, level := range variant.PriceLevels {
		if level.Level == query.CustomerLevel {
			price = level.Price
			break
		}
	}

	return ResolvedPrice{
		ProductID:   product.ID,
		VariantID:   variant.ID,
		ProductName: product.Name,
		VariantName: variant.Name,
		UnitPrice:   price,
	}, nil
}

func pickVariant(product Product, variantID string) (ProductVariant, error) {
	if variantID == "" {
		if len(product.Variants) == 1 {
			return product.Variants[0], nil
		}
		return ProductVariant{}, fmt.Errorf("%w: product %q needs an explicit variant", ErrCatalogInvalidInput, product.ID)
	}
	for _, variant := range product.Variants {
		if variant.ID == variantID {
			return variant, nil
		}
	}
	return ProductVariant{}, fmt.Errorf("%w: variant %q", ErrCatalogNotFound, variantID)
}

func (s *catalogService) buildVariants(inputs []VariantInput) ([]ProductVariant, error) {
	variants := make([]ProductVariant, 0, len(inputs))
	for i, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: variant %d is missing a name", ErrCatalogInvalidInput, i)
		}
		if input.BasePrice < 0 {
			return nil, fmt.Errorf("%w: variant %d base price cannot be negative", ErrCatalogInvalidInput, i)
		}
		for _, level := range input.PriceLevels {
			if level.Price < 0 {
				return nil, fmt.Errorf("%w: variant %d tier price cannot be negative", ErrCatalogInvalidInput, i)
			}
		}
		id := strings.TrimSpace(input.ID)
		if id == "" {
			id = s.newID()
		}
		variants = append(variants, ProductVariant{
			ID:          id,
			Name:        name,
			SKU:         strings.TrimSpace(input.SKU),
			BasePrice:   input.BasePrice,
			Stock:       input.Stock,
			PriceLevels: append([]PriceLevel(nil), input.PriceLevels...),
		})
	}
	return variants, nil
}

func (s *catalogService) record(ctx context.Context, actor, shopID, action, entityID, details string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, ActivityRecord{
		ShopID:     shopID,
		Actor:      actor,
		Action:     action,
		EntityType: catalogEntityType,
		EntityID:   entityID,
		Details:    details,
	})
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCatalogNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCatalogConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("catalog: repository unavailable: %w", err)
		}
	}
	return err
}

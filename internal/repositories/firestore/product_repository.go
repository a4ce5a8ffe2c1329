package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"

	pfirestore "github.com/sobri3195/WarungWA/internal/platform/firestore"
)

// ProductRepository stores catalog entries under shops/{shopID}/products.
// Variants and their tier prices are embedded in the product document; a
// warung catalog stays small enough that splitting them out buys nothing.
type ProductRepository struct {
	provider *pfirestore.Provider
}

func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore product repository requires provider")
	}
	return &ProductRepository{provider: provider}, nil
}

type priceLevelDocument struct {
	Level string `firestore:"level"`
	Price int64  `firestore:"price"`
}

type productVariantDocument struct {
	ID          string               `firestore:"id"`
	Name        string               `firestore:"name"`
	SKU         string               `firestore:"sku,omitempty"`
	BasePrice   int64                `firestore:"basePrice"`
	Stock       int64                `firestore:"stock"`
	PriceLevels []priceLevelDocument `firestore:"priceLevels,omitempty"`
}

type productDocument struct {
	Name        string                   `firestore:"name"`
	Description string                   `firestore:"description,omitempty"`
	Active      bool                     `firestore:"active"`
	Variants    []productVariantDocument `firestore:"variants"`
	CreatedAt   time.Time                `firestore:"createdAt"`
	UpdatedAt   time.Time                `firestore:"updatedAt"`
}

func encodeProduct(product domain.Product) productDocument {
	variants := make([]productVariantDocument, 0, len(product.Variants))
	for _, variant := range product.Variants {
		levels := make([]priceLevelDocument, 0, len(variant.PriceLevels))
		for _, level := range variant.PriceLevels {
			levels = append(levels, priceLevelDocument{Level: string(level.Level), Price: level.Price})
		}
		variants = append(variants, productVariantDocument{
			ID:          variant.ID,
			Name:        variant.Name,
			SKU:         variant.SKU,
			BasePrice:   variant.BasePrice,
			Stock:       variant.Stock,
			PriceLevels: levels,
		})
	}
	return productDocument{
		Name:        product.Name,
		Description: product.Description,
		Active:      product.Active,
		Variants:    variants,
		CreatedAt:   product.CreatedAt.UTC(),
		UpdatedAt:   product.UpdatedAt.UTC(),
	}
}

func decodeProduct(doc *firestore.DocumentSnapshot, shopID string) (domain.Product, error) {
	var data productDocument
	if err := doc.DataTo(&data); err != nil {
		return domain.Product{}, fmt.Errorf("decode product %s: %w", doc.Ref.ID, err)
	}
	variants := make([]domain.ProductVariant, 0, len(data.Variants))
	for _, variant := range data.Variants {
		levels := make([]domain.PriceLevel, 0, len(variant.PriceLevels))
		for _, level := range variant.PriceLevels {
			levels = append(levels, domain.PriceLevel{Level: domain.CustomerLevel(level.Level), Price: level.Price})
		}
		variants = append(variants, domain.ProductVariant{
			ID:          variant.ID,
			Name:        variant.Name,
			SKU:         variant.SKU,
			BasePrice:   variant.BasePrice,
			Stock:       variant.Stock,
			PriceLevels: levels,
		})
	}
	return domain.Product{
		ID:          doc.Ref.ID,
		ShopID:      shopID,
		Name:        data.Name,
		Description: data.Description,
		Active:      data.Active,
		Variants:    variants,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}, nil
}

func (r *ProductRepository) collection(shopID string) string {
	return fmt.Sprintf("shops/%s/products", shopID)
}

func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if strings.TrimSpace(product.ID) == "" || strings.TrimSpace(product.ShopID) == "" {
		return pfirestore.WrapError("products.insert", errors.New("product id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	ref := client.Collection(r.collection(product.ShopID)).Doc(product.ID)
	if err := createDoc(ctx, ref, encodeProduct(product)); err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if strings.TrimSpace(product.ID) == "" || strings.TrimSpace(product.ShopID) == "" {
		return pfirestore.WrapError("products.update", errors.New("product id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("products.update", err)
	}
	ref := client.Collection(r.collection(product.ShopID)).Doc(product.ID)
	if err := setDoc(ctx, ref, encodeProduct(product)); err != nil {
		return pfirestore.WrapError("products.update", err)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, shopID string, productID string) error {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(productID) == "" {
		return pfirestore.WrapError("products.delete", errors.New("shop id and product id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	if err := deleteDoc(ctx, client.Collection(r.collection(shopID)).Doc(productID)); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, shopID string, productID string) (domain.Product, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(productID) == "" {
		return domain.Product{}, pfirestore.WrapError("products.get", errors.New("shop id and product id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Product{}, pfirestore.WrapError("products.get", err)
	}
	doc, err := getDoc(ctx, client.Collection(r.collection(shopID)).Doc(productID))
	if err != nil {
		return domain.Product{}, pfirestore.WrapError("products.get", err)
	}
	product, err := decodeProduct(doc, shopID)
	if err != nil {
		return domain.Product{}, pfirestore.WrapError("products.get", err)
	}
	return product, nil
}

func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	var page domain.CursorPage[domain.Product]
	if strings.TrimSpace(filter.ShopID) == "" {
		return page, pfirestore.WrapError("products.list", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, pfirestore.WrapError("products.list", err)
	}

	limit := filter.Pagination.PageSize
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := client.Collection(r.collection(filter.ShopID)).Query
	if filter.ActiveOnly {
		query = query.Where("active", "==", true)
	}
	query = query.
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		ts, docID, err := decodeCursorToken(token)
		if err != nil {
			return page, pfirestore.WrapError("products.list", err)
		}
		query = query.StartAfter(ts, docID)
	}

	docs, err := queryDocs(ctx, query.Limit(fetchLimit))
	if err != nil {
		return page, pfirestore.WrapError("products.list", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	page.Items = make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := decodeProduct(doc, filter.ShopID)
		if err != nil {
			return domain.CursorPage[domain.Product]{}, pfirestore.WrapError("products.list", err)
		}
		page.Items = append(page.Items, product)
	}
	if hasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		page.NextPageToken = encodeCursorToken(last.CreatedAt, last.ID)
	}
	return page, nil
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

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

const shopsCollection = "shops"

// ShopRepository stores tenant documents in the top-level shops collection.
type ShopRepository struct {
	provider *pfirestore.Provider
}

func NewShopRepository(provider *pfirestore.Provider) (*ShopRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore shop repository requires provider")
	}
	return &ShopRepository{provider: provider}, nil
}

type shopDocument struct {
	Name             string    `firestore:"name"`
	Phone            string    `firestore:"phone,omitempty"`
	Address          string    `firestore:"address,omitempty"`
	OpenTime         string    `firestore:"openTime,omitempty"`
	CloseTime        string    `firestore:"closeTime,omitempty"`
	AutoReplyMessage string    `firestore:"autoReplyMessage,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt"`
}

func encodeShop(shop domain.Shop) shopDocument {
	return shopDocument{
		Name:             shop.Name,
		Phone:            shop.Phone,
		Address:          shop.Address,
		OpenTime:         shop.OperatingHours.Open,
		CloseTime:        shop.OperatingHours.Close,
		AutoReplyMessage: shop.AutoReplyMessage,
		CreatedAt:        shop.CreatedAt.UTC(),
		UpdatedAt:        shop.UpdatedAt.UTC(),
	}
}

func decodeShop(doc *firestore.DocumentSnapshot) (domain.Shop, error) {
	var data shopDocument
	if err := doc.DataTo(&data); err != nil {
		return domain.Shop{}, fmt.Errorf("decode shop %s: %w", doc.Ref.ID, err)
	}
	return domain.Shop{
		ID:               doc.Ref.ID,
		Name:             data.Name,
		Phone:            data.Phone,
		Address:          data.Address,
		OperatingHours:   domain.OperatingHours{Open: data.OpenTime, Close: data.CloseTime},
		AutoReplyMessage: data.AutoReplyMessage,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}, nil
}

func (r *ShopRepository) Insert(ctx context.Context, shop domain.Shop) error {
	if strings.TrimSpace(shop.ID) == "" {
		return pfirestore.WrapError("shops.insert", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("shops.insert", err)
	}
	if err := createDoc(ctx, client.Collection(shopsCollection).Doc(shop.ID), encodeShop(shop)); err != nil {
		return pfirestore.WrapError("shops.insert", err)
	}
	return nil
}

func (r *ShopRepository) Update(ctx context.Context, shop domain.Shop) error {
	if strings.TrimSpace(shop.ID) == "" {
		return pfirestore.WrapError("shops.update", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("shops.update", err)
	}
	if err := setDoc(ctx, client.Collection(shopsCollection).Doc(shop.ID), encodeShop(shop)); err != nil {
		return pfirestore.WrapError("shops.update", err)
	}
	return nil
}

func (r *ShopRepository) FindByID(ctx context.Context, shopID string) (domain.Shop, error) {
	if strings.TrimSpace(shopID) == "" {
		return domain.Shop{}, pfirestore.WrapError("shops.get", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Shop{}, pfirestore.WrapError("shops.get", err)
	}
	doc, err := getDoc(ctx, client.Collection(shopsCollection).Doc(shopID))
	if err != nil {
		return domain.Shop{}, pfirestore.WrapError("shops.get", err)
	}
	shop, err := decodeShop(doc)
	if err != nil {
		return domain.Shop{}, pfirestore.WrapError("shops.get", err)
	}
	return shop, nil
}

func (r *ShopRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.Shop], error) {
	var page domain.CursorPage[domain.Shop]
	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, pfirestore.WrapError("shops.list", err)
	}

	limit := pager.PageSize
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := client.Collection(shopsCollection).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)

	if token := strings.TrimSpace(pager.PageToken); token != "" {
		ts, docID, err := decodeCursorToken(token)
		if err != nil {
			return page, pfirestore.WrapError("shops.list", err)
		}
		query = query.StartAfter(ts, docID)
	}

	docs, err := queryDocs(ctx, query.Limit(fetchLimit))
	if err != nil {
		return page, pfirestore.WrapError("shops.list", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	page.Items = make([]domain.Shop, 0, len(docs))
	for _, doc := range docs {
		shop, err := decodeShop(doc)
		if err != nil {
			return domain.CursorPage[domain.Shop]{}, pfirestore.WrapError("shops.list", err)
		}
		page.Items = append(page.Items, shop)
	}
	if hasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		page.NextPageToken = encodeCursorToken(last.CreatedAt, last.ID)
	}
	return page, nil
}

var _ repositories.ShopRepository = (*ShopRepository)(nil)

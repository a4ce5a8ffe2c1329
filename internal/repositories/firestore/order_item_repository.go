package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/repositories"

	pfirestore "github.com/sobri3195/WarungWA/internal/platform/firestore"
)

// OrderItemRepository stores order lines under
// shops/{shopID}/orders/{orderID}/items.
type OrderItemRepository struct {
	provider *pfirestore.Provider
}

func NewOrderItemRepository(provider *pfirestore.Provider) (*OrderItemRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore order item repository requires provider")
	}
	return &OrderItemRepository{provider: provider}, nil
}

type orderItemDocument struct {
	ProductID   string `firestore:"productId"`
	VariantID   string `firestore:"variantId,omitempty"`
	ProductName string `firestore:"productName"`
	VariantName string `firestore:"variantName,omitempty"`
	UnitPrice   int64  `firestore:"unitPrice"`
	Quantity    int64  `firestore:"quantity"`
	Subtotal    int64  `firestore:"subtotal"`
	Position    int    `firestore:"position"`
}

func (r *OrderItemRepository) collection(shopID, orderID string) string {
	return fmt.Sprintf("shops/%s/orders/%s/%s", shopID, orderID, orderItemsCollection)
}

// InsertForOrder writes the lines of a fresh order. It never reads, so it is
// safe inside a transaction that has already buffered writes (Firestore
// rejects any read once a transaction holds buffered writes).
func (r *OrderItemRepository) InsertForOrder(ctx context.Context, shopID string, orderID string, items []domain.OrderItem) error {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(orderID) == "" {
		return pfirestore.WrapError("orderitems.insert", errors.New("shop id and order id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("orderitems.insert", err)
	}

	coll := client.Collection(r.collection(shopID, orderID))
	if err := r.writeItems(ctx, coll, items); err != nil {
		return pfirestore.WrapError("orderitems.insert", err)
	}
	return nil
}

// ReplaceForOrder swaps the full set of lines for an order. Existing documents
// not present in items are removed. The read of the current set means this
// must be the first operation of any transaction it runs in; fresh orders use
// InsertForOrder instead.
func (r *OrderItemRepository) ReplaceForOrder(ctx context.Context, shopID string, orderID string, items []domain.OrderItem) error {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(orderID) == "" {
		return pfirestore.WrapError("orderitems.replace", errors.New("shop id and order id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("orderitems.replace", err)
	}

	coll := client.Collection(r.collection(shopID, orderID))
	existing, err := queryDocs(ctx, coll.Query)
	if err != nil {
		return pfirestore.WrapError("orderitems.replace", err)
	}

	keep := make(map[string]struct{}, len(items))
	for _, item := range items {
		keep[item.ID] = struct{}{}
	}
	for _, doc := range existing {
		if _, ok := keep[doc.Ref.ID]; ok {
			continue
		}
		if err := deleteDoc(ctx, doc.Ref); err != nil {
			return pfirestore.WrapError("orderitems.replace", err)
		}
	}

	if err := r.writeItems(ctx, coll, items); err != nil {
		return pfirestore.WrapError("orderitems.replace", err)
	}
	return nil
}

func (r *OrderItemRepository) writeItems(ctx context.Context, coll *firestore.CollectionRef, items []domain.OrderItem) error {
	for i, item := range items {
		data := orderItemDocument{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
			Position:    i,
		}
		if err := setDoc(ctx, coll.Doc(item.ID), data); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderItemRepository) ListByOrder(ctx context.Context, shopID string, orderID string) ([]domain.OrderItem, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(orderID) == "" {
		return nil, pfirestore.WrapError("orderitems.list", errors.New("shop id and order id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("orderitems.list", err)
	}

	docs, err := queryDocs(ctx, client.Collection(r.collection(shopID, orderID)).Query)
	if err != nil {
		return nil, pfirestore.WrapError("orderitems.list", err)
	}

	type positioned struct {
		item     domain.OrderItem
		position int
	}
	rows := make([]positioned, 0, len(docs))
	for _, doc := range docs {
		var data orderItemDocument
		if err := doc.DataTo(&data); err != nil {
			return nil, pfirestore.WrapError("orderitems.list", fmt.Errorf("decode item %s: %w", doc.Ref.ID, err))
		}
		rows = append(rows, positioned{
			item: domain.OrderItem{
				ID:          doc.Ref.ID,
				OrderID:     orderID,
				ProductID:   data.ProductID,
				VariantID:   data.VariantID,
				ProductName: data.ProductName,
				VariantName: data.VariantName,
				UnitPrice:   data.UnitPrice,
				Quantity:    data.Quantity,
				Subtotal:    data.Subtotal,
			},
			position: data.Position,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].position < rows[j].position })

	items := make([]domain.OrderItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.item)
	}
	return items, nil
}

var _ repositories.OrderItemRepository = (*OrderItemRepository)(nil)

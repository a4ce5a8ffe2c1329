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

const (
	orderItemsCollection    = "items"
	orderHistoryCollection  = "history"
	orderPaymentsCollection = "payments"
)

// OrderRepository stores order headers under shops/{shopID}/orders. Items,
// status history, and payments live in subcollections of each order document
// so a cascade delete stays within one document tree.
type OrderRepository struct {
	provider *pfirestore.Provider
}

func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore order repository requires provider")
	}
	return &OrderRepository{provider: provider}, nil
}

type orderDocument struct {
	OrderNumber     string    `firestore:"orderNumber"`
	CustomerID      string    `firestore:"customerId"`
	CustomerName    string    `firestore:"customerName"`
	CustomerPhone   string    `firestore:"customerPhone"`
	CustomerAddress string    `firestore:"customerAddress"`
	Status          string    `firestore:"status"`
	PaymentStatus   string    `firestore:"paymentStatus"`
	PaymentMethod   string    `firestore:"paymentMethod"`
	Priority        string    `firestore:"priority"`
	Subtotal        int64     `firestore:"subtotal"`
	ShippingCost    int64     `firestore:"shippingCost"`
	Discount        int64     `firestore:"discount"`
	Total           int64     `firestore:"total"`
	Notes           string    `firestore:"notes,omitempty"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

func encodeOrder(order domain.Order) orderDocument {
	return orderDocument{
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerAddress: order.CustomerAddress,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		PaymentMethod:   string(order.PaymentMethod),
		Priority:        string(order.Priority),
		Subtotal:        order.Subtotal,
		ShippingCost:    order.ShippingCost,
		Discount:        order.Discount,
		Total:           order.Total,
		Notes:           order.Notes,
		CreatedAt:       order.CreatedAt.UTC(),
		UpdatedAt:       order.UpdatedAt.UTC(),
	}
}

func decodeOrder(doc *firestore.DocumentSnapshot, shopID string) (domain.Order, error) {
	var data orderDocument
	if err := doc.DataTo(&data); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %s: %w", doc.Ref.ID, err)
	}
	return domain.Order{
		ID:              doc.Ref.ID,
		ShopID:          shopID,
		OrderNumber:     data.OrderNumber,
		CustomerID:      data.CustomerID,
		CustomerName:    data.CustomerName,
		CustomerPhone:   data.CustomerPhone,
		CustomerAddress: data.CustomerAddress,
		Status:          domain.OrderStatus(data.Status),
		PaymentStatus:   domain.PaymentStatus(data.PaymentStatus),
		PaymentMethod:   domain.PaymentMethod(data.PaymentMethod),
		Priority:        domain.OrderPriority(data.Priority),
		Subtotal:        data.Subtotal,
		ShippingCost:    data.ShippingCost,
		Discount:        data.Discount,
		Total:           data.Total,
		Notes:           data.Notes,
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}, nil
}

func (r *OrderRepository) collection(shopID string) string {
	return fmt.Sprintf("shops/%s/orders", shopID)
}

func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" || strings.TrimSpace(order.ShopID) == "" {
		return pfirestore.WrapError("orders.insert", errors.New("order id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	ref := client.Collection(r.collection(order.ShopID)).Doc(order.ID)
	if err := createDoc(ctx, ref, encodeOrder(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" || strings.TrimSpace(order.ShopID) == "" {
		return pfirestore.WrapError("orders.update", errors.New("order id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("orders.update", err)
	}
	ref := client.Collection(r.collection(order.ShopID)).Doc(order.ID)
	if err := setDoc(ctx, ref, encodeOrder(order)); err != nil {
		return pfirestore.WrapError("orders.update", err)
	}
	return nil
}

// Delete removes the order document together with its items, status history,
// and payments, plus any reminders pointing at the order. Inside a transaction
// every child collection is read before the first buffered delete.
func (r *OrderRepository) Delete(ctx context.Context, shopID string, orderID string) error {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(orderID) == "" {
		return pfirestore.WrapError("orders.delete", errors.New("shop id and order id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("orders.delete", err)
	}

	orderRef := client.Collection(r.collection(shopID)).Doc(orderID)
	if _, err := getDoc(ctx, orderRef); err != nil {
		return pfirestore.WrapError("orders.delete", err)
	}

	refs := []*firestore.DocumentRef{orderRef}
	for _, sub := range []string{orderItemsCollection, orderHistoryCollection, orderPaymentsCollection} {
		docs, err := queryDocs(ctx, orderRef.Collection(sub).Query)
		if err != nil {
			return pfirestore.WrapError("orders.delete", err)
		}
		for _, doc := range docs {
			refs = append(refs, doc.Ref)
		}
	}

	reminderQuery := client.Collection(fmt.Sprintf("shops/%s/reminders", shopID)).
		Where("orderId", "==", orderID)
	reminderDocs, err := queryDocs(ctx, reminderQuery)
	if err != nil {
		return pfirestore.WrapError("orders.delete", err)
	}
	for _, doc := range reminderDocs {
		refs = append(refs, doc.Ref)
	}

	if tx := pfirestore.TransactionFrom(ctx); tx != nil {
		for _, ref := range refs {
			if err := tx.Delete(ref); err != nil {
				return pfirestore.WrapError("orders.delete", err)
			}
		}
		return nil
	}

	bw := client.BulkWriter(ctx)
	for _, ref := range refs {
		if _, err := bw.Delete(ref); err != nil {
			bw.End()
			return pfirestore.WrapError("orders.delete", err)
		}
	}
	bw.End()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, shopID string, orderID string) (domain.Order, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(orderID) == "" {
		return domain.Order{}, pfirestore.WrapError("orders.get", errors.New("shop id and order id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.get", err)
	}
	doc, err := getDoc(ctx, client.Collection(r.collection(shopID)).Doc(orderID))
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.get", err)
	}
	order, err := decodeOrder(doc, shopID)
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.get", err)
	}
	return order, nil
}

func (r *OrderRepository) baseQuery(client *firestore.Client, filter repositories.OrderListFilter) firestore.Query {
	query := client.Collection(r.collection(filter.ShopID)).Query
	if len(filter.Status) > 0 {
		values := make([]string, 0, len(filter.Status))
		for _, s := range filter.Status {
			values = append(values, string(s))
		}
		query = query.Where("status", "in", values)
	}
	if len(filter.PaymentStatus) > 0 {
		values := make([]string, 0, len(filter.PaymentStatus))
		for _, s := range filter.PaymentStatus {
			values = append(values, string(s))
		}
		query = query.Where("paymentStatus", "in", values)
	}
	if filter.DateRange.From != nil {
		query = query.Where("createdAt", ">=", filter.DateRange.From.UTC())
	}
	if filter.DateRange.To != nil {
		query = query.Where("createdAt", "<", filter.DateRange.To.UTC())
	}
	return query
}

// List returns orders newest-first with cursor pagination.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	var page domain.CursorPage[domain.Order]
	if strings.TrimSpace(filter.ShopID) == "" {
		return page, pfirestore.WrapError("orders.list", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, pfirestore.WrapError("orders.list", err)
	}

	limit := filter.Pagination.PageSize
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := r.baseQuery(client, filter).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		ts, docID, err := decodeCursorToken(token)
		if err != nil {
			return page, pfirestore.WrapError("orders.list", err)
		}
		query = query.StartAfter(ts, docID)
	}

	docs, err := queryDocs(ctx, query.Limit(fetchLimit))
	if err != nil {
		return page, pfirestore.WrapError("orders.list", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	page.Items = make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := decodeOrder(doc, filter.ShopID)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, pfirestore.WrapError("orders.list", err)
		}
		page.Items = append(page.Items, order)
	}
	if hasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		page.NextPageToken = encodeCursorToken(last.CreatedAt, last.ID)
	}
	return page, nil
}

// ListAll streams every order matching the filter without pagination. The
// reporting services use it for revenue and product aggregations.
func (r *OrderRepository) ListAll(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if strings.TrimSpace(filter.ShopID) == "" {
		return nil, pfirestore.WrapError("orders.listall", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("orders.listall", err)
	}

	docs, err := queryDocs(ctx, r.baseQuery(client, filter).OrderBy("createdAt", firestore.Desc))
	if err != nil {
		return nil, pfirestore.WrapError("orders.listall", err)
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := decodeOrder(doc, filter.ShopID)
		if err != nil {
			return nil, pfirestore.WrapError("orders.listall", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

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

// CustomerRepository stores buyer records under shops/{shopID}/customers.
type CustomerRepository struct {
	provider *pfirestore.Provider
}

func NewCustomerRepository(provider *pfirestore.Provider) (*CustomerRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore customer repository requires provider")
	}
	return &CustomerRepository{provider: provider}, nil
}

type customerDocument struct {
	Name      string    `firestore:"name"`
	NameLower string    `firestore:"nameLower"`
	Phone     string    `firestore:"phone"`
	Address   string    `firestore:"address,omitempty"`
	Level     string    `firestore:"level"`
	Notes     string    `firestore:"notes,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func encodeCustomer(customer domain.Customer) customerDocument {
	return customerDocument{
		Name:      customer.Name,
		NameLower: strings.ToLower(customer.Name),
		Phone:     customer.Phone,
		Address:   customer.Address,
		Level:     string(customer.Level),
		Notes:     customer.Notes,
		CreatedAt: customer.CreatedAt.UTC(),
		UpdatedAt: customer.UpdatedAt.UTC(),
	}
}

func decodeCustomer(doc *firestore.DocumentSnapshot, shopID string) (domain.Customer, error) {
	var data customerDocument
	if err := doc.DataTo(&data); err != nil {
		return domain.Customer{}, fmt.Errorf("decode customer %s: %w", doc.Ref.ID, err)
	}
	return domain.Customer{
		ID:        doc.Ref.ID,
		ShopID:    shopID,
		Name:      data.Name,
		Phone:     data.Phone,
		Address:   data.Address,
		Level:     domain.CustomerLevel(data.Level),
		Notes:     data.Notes,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}, nil
}

func (r *CustomerRepository) collection(shopID string) string {
	return fmt.Sprintf("shops/%s/customers", shopID)
}

func (r *CustomerRepository) Insert(ctx context.Context, customer domain.Customer) error {
	if strings.TrimSpace(customer.ID) == "" || strings.TrimSpace(customer.ShopID) == "" {
		return pfirestore.WrapError("customers.insert", errors.New("customer id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("customers.insert", err)
	}
	ref := client.Collection(r.collection(customer.ShopID)).Doc(customer.ID)
	if err := createDoc(ctx, ref, encodeCustomer(customer)); err != nil {
		return pfirestore.WrapError("customers.insert", err)
	}
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer domain.Customer) error {
	if strings.TrimSpace(customer.ID) == "" || strings.TrimSpace(customer.ShopID) == "" {
		return pfirestore.WrapError("customers.update", errors.New("customer id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("customers.update", err)
	}
	ref := client.Collection(r.collection(customer.ShopID)).Doc(customer.ID)
	if err := setDoc(ctx, ref, encodeCustomer(customer)); err != nil {
		return pfirestore.WrapError("customers.update", err)
	}
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, shopID string, customerID string) error {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(customerID) == "" {
		return pfirestore.WrapError("customers.delete", errors.New("shop id and customer id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("customers.delete", err)
	}
	ref := client.Collection(r.collection(shopID)).Doc(customerID)
	if err := deleteDoc(ctx, ref); err != nil {
		return pfirestore.WrapError("customers.delete", err)
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, shopID string, customerID string) (domain.Customer, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(customerID) == "" {
		return domain.Customer{}, pfirestore.WrapError("customers.get", errors.New("shop id and customer id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Customer{}, pfirestore.WrapError("customers.get", err)
	}
	doc, err := getDoc(ctx, client.Collection(r.collection(shopID)).Doc(customerID))
	if err != nil {
		return domain.Customer{}, pfirestore.WrapError("customers.get", err)
	}
	customer, err := decodeCustomer(doc, shopID)
	if err != nil {
		return domain.Customer{}, pfirestore.WrapError("customers.get", err)
	}
	return customer, nil
}

// List returns customers newest-first. A non-empty Search switches to a
// case-insensitive name prefix scan ordered by name; prefix pages are not
// cursor-tokenised.
func (r *CustomerRepository) List(ctx context.Context, filter repositories.CustomerListFilter) (domain.CursorPage[domain.Customer], error) {
	var page domain.CursorPage[domain.Customer]
	if strings.TrimSpace(filter.ShopID) == "" {
		return page, pfirestore.WrapError("customers.list", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, pfirestore.WrapError("customers.list", err)
	}

	limit := filter.Pagination.PageSize
	if limit <= 0 {
		limit = 20
	}

	query := client.Collection(r.collection(filter.ShopID)).Query
	if len(filter.Level) > 0 {
		values := make([]string, 0, len(filter.Level))
		for _, level := range filter.Level {
			values = append(values, string(level))
		}
		query = query.Where("level", "in", values)
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		query = query.
			Where("nameLower", ">=", search).
			Where("nameLower", "<", search+"").
			OrderBy("nameLower", firestore.Asc).
			Limit(limit)
		docs, err := queryDocs(ctx, query)
		if err != nil {
			return page, pfirestore.WrapError("customers.list", err)
		}
		page.Items = make([]domain.Customer, 0, len(docs))
		for _, doc := range docs {
			customer, err := decodeCustomer(doc, filter.ShopID)
			if err != nil {
				return domain.CursorPage[domain.Customer]{}, pfirestore.WrapError("customers.list", err)
			}
			page.Items = append(page.Items, customer)
		}
		return page, nil
	}

	fetchLimit := limit + 1
	query = query.
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		ts, docID, err := decodeCursorToken(token)
		if err != nil {
			return page, pfirestore.WrapError("customers.list", err)
		}
		query = query.StartAfter(ts, docID)
	}

	docs, err := queryDocs(ctx, query.Limit(fetchLimit))
	if err != nil {
		return page, pfirestore.WrapError("customers.list", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	page.Items = make([]domain.Customer, 0, len(docs))
	for _, doc := range docs {
		customer, err := decodeCustomer(doc, filter.ShopID)
		if err != nil {
			return domain.CursorPage[domain.Customer]{}, pfirestore.WrapError("customers.list", err)
		}
		page.Items = append(page.Items, customer)
	}
	if hasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		page.NextPageToken = encodeCursorToken(last.CreatedAt, last.ID)
	}
	return page, nil
}

// CountActive counts the shop's customer records. Only document keys are
// fetched.
func (r *CustomerRepository) CountActive(ctx context.Context, shopID string) (int64, error) {
	if strings.TrimSpace(shopID) == "" {
		return 0, pfirestore.WrapError("customers.count", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, pfirestore.WrapError("customers.count", err)
	}
	docs, err := queryDocs(ctx, client.Collection(r.collection(shopID)).Select())
	if err != nil {
		return 0, pfirestore.WrapError("customers.count", err)
	}
	return int64(len(docs)), nil
}

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)

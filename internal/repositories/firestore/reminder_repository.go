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

// ReminderRepository stores follow-up reminders in a flat per-shop collection
// (shops/{shopID}/reminders) so due reminders can be listed across orders.
type ReminderRepository struct {
	provider *pfirestore.Provider
}

func NewReminderRepository(provider *pfirestore.Provider) (*ReminderRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore reminder repository requires provider")
	}
	return &ReminderRepository{provider: provider}, nil
}

type reminderDocument struct {
	OrderID    string    `firestore:"orderId"`
	CustomerID string    `firestore:"customerId,omitempty"`
	Message    string    `firestore:"message"`
	DueAt      time.Time `firestore:"dueAt"`
	Done       bool      `firestore:"done"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

func encodeReminder(reminder domain.Reminder) reminderDocument {
	return reminderDocument{
		OrderID:    reminder.OrderID,
		CustomerID: reminder.CustomerID,
		Message:    reminder.Message,
		DueAt:      reminder.DueAt.UTC(),
		Done:       reminder.Done,
		CreatedAt:  reminder.CreatedAt.UTC(),
		UpdatedAt:  reminder.UpdatedAt.UTC(),
	}
}

func decodeReminder(doc *firestore.DocumentSnapshot, shopID string) (domain.Reminder, error) {
	var data reminderDocument
	if err := doc.DataTo(&data); err != nil {
		return domain.Reminder{}, fmt.Errorf("decode reminder %s: %w", doc.Ref.ID, err)
	}
	return domain.Reminder{
		ID:         doc.Ref.ID,
		ShopID:     shopID,
		OrderID:    data.OrderID,
		CustomerID: data.CustomerID,
		Message:    data.Message,
		DueAt:      data.DueAt,
		Done:       data.Done,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}, nil
}

func (r *ReminderRepository) collection(shopID string) string {
	return fmt.Sprintf("shops/%s/reminders", shopID)
}

func (r *ReminderRepository) Insert(ctx context.Context, reminder domain.Reminder) error {
	if strings.TrimSpace(reminder.ID) == "" || strings.TrimSpace(reminder.ShopID) == "" {
		return pfirestore.WrapError("reminders.insert", errors.New("reminder id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("reminders.insert", err)
	}
	ref := client.Collection(r.collection(reminder.ShopID)).Doc(reminder.ID)
	if err := createDoc(ctx, ref, encodeReminder(reminder)); err != nil {
		return pfirestore.WrapError("reminders.insert", err)
	}
	return nil
}

func (r *ReminderRepository) Update(ctx context.Context, reminder domain.Reminder) error {
	if strings.TrimSpace(reminder.ID) == "" || strings.TrimSpace(reminder.ShopID) == "" {
		return pfirestore.WrapError("reminders.update", errors.New("reminder id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("reminders.update", err)
	}
	ref := client.Collection(r.collection(reminder.ShopID)).Doc(reminder.ID)
	if err := setDoc(ctx, ref, encodeReminder(reminder)); err != nil {
		return pfirestore.WrapError("reminders.update", err)
	}
	return nil
}

func (r *ReminderRepository) FindByID(ctx context.Context, shopID string, reminderID string) (domain.Reminder, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(reminderID) == "" {
		return domain.Reminder{}, pfirestore.WrapError("reminders.get", errors.New("shop id and reminder id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Reminder{}, pfirestore.WrapError("reminders.get", err)
	}
	doc, err := getDoc(ctx, client.Collection(r.collection(shopID)).Doc(reminderID))
	if err != nil {
		return domain.Reminder{}, pfirestore.WrapError("reminders.get", err)
	}
	reminder, err := decodeReminder(doc, shopID)
	if err != nil {
		return domain.Reminder{}, pfirestore.WrapError("reminders.get", err)
	}
	return reminder, nil
}

// ListDue returns open reminders due at or before the given instant, soonest
// first, with cursor pagination keyed on (dueAt, document id).
func (r *ReminderRepository) ListDue(ctx context.Context, shopID string, before time.Time, pager domain.Pagination) (domain.CursorPage[domain.Reminder], error) {
	var page domain.CursorPage[domain.Reminder]
	if strings.TrimSpace(shopID) == "" {
		return page, pfirestore.WrapError("reminders.listdue", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, pfirestore.WrapError("reminders.listdue", err)
	}

	limit := pager.PageSize
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := client.Collection(r.collection(shopID)).
		Where("done", "==", false).
		Where("dueAt", "<=", before.UTC()).
		OrderBy("dueAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	if token := strings.TrimSpace(pager.PageToken); token != "" {
		ts, docID, err := decodeCursorToken(token)
		if err != nil {
			return page, pfirestore.WrapError("reminders.listdue", err)
		}
		query = query.StartAfter(ts, docID)
	}

	docs, err := queryDocs(ctx, query.Limit(fetchLimit))
	if err != nil {
		return page, pfirestore.WrapError("reminders.listdue", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	page.Items = make([]domain.Reminder, 0, len(docs))
	for _, doc := range docs {
		reminder, err := decodeReminder(doc, shopID)
		if err != nil {
			return domain.CursorPage[domain.Reminder]{}, pfirestore.WrapError("reminders.listdue", err)
		}
		page.Items = append(page.Items, reminder)
	}
	if hasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		page.NextPageToken = encodeCursorToken(last.DueAt, last.ID)
	}
	return page, nil
}

func (r *ReminderRepository) ListByOrder(ctx context.Context, shopID string, orderID string) ([]domain.Reminder, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(orderID) == "" {
		return nil, pfirestore.WrapError("reminders.listbyorder", errors.New("shop id and order id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("reminders.listbyorder", err)
	}

	docs, err := queryDocs(ctx, client.Collection(r.collection(shopID)).Where("orderId", "==", orderID))
	if err != nil {
		return nil, pfirestore.WrapError("reminders.listbyorder", err)
	}

	reminders := make([]domain.Reminder, 0, len(docs))
	for _, doc := range docs {
		reminder, err := decodeReminder(doc, shopID)
		if err != nil {
			return nil, pfirestore.WrapError("reminders.listbyorder", err)
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

var _ repositories.ReminderRepository = (*ReminderRepository)(nil)

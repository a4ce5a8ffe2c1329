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

// StatusHistoryRepository stores the append-only status ledger under
// shops/{shopID}/orders/{orderID}/history. Entries are never updated or
// removed individually; they only disappear when the whole order is deleted.
type StatusHistoryRepository struct {
	provider *pfirestore.Provider
}

func NewStatusHistoryRepository(provider *pfirestore.Provider) (*StatusHistoryRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore status history repository requires provider")
	}
	return &StatusHistoryRepository{provider: provider}, nil
}

type statusChangeDocument struct {
	FromStatus string    `firestore:"fromStatus,omitempty"`
	ToStatus   string    `firestore:"toStatus"`
	Actor      string    `firestore:"actor"`
	Note       string    `firestore:"note,omitempty"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

func (r *StatusHistoryRepository) collection(shopID, orderID string) string {
	return fmt.Sprintf("shops/%s/orders/%s/%s", shopID, orderID, orderHistoryCollection)
}

func (r *StatusHistoryRepository) Append(ctx context.Context, shopID string, change domain.StatusChange) error {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(change.OrderID) == "" {
		return pfirestore.WrapError("statushistory.append", errors.New("shop id and order id are required"))
	}
	if strings.TrimSpace(change.ID) == "" {
		return pfirestore.WrapError("statushistory.append", errors.New("status change id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("statushistory.append", err)
	}

	ref := client.Collection(r.collection(shopID, change.OrderID)).Doc(change.ID)
	data := statusChangeDocument{
		FromStatus: string(change.FromStatus),
		ToStatus:   string(change.ToStatus),
		Actor:      change.Actor,
		Note:       change.Note,
		CreatedAt:  change.CreatedAt.UTC(),
	}
	if err := createDoc(ctx, ref, data); err != nil {
		return pfirestore.WrapError("statushistory.append", err)
	}
	return nil
}

// ListByOrder returns the ledger newest-first.
func (r *StatusHistoryRepository) ListByOrder(ctx context.Context, shopID string, orderID string) ([]domain.StatusChange, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(orderID) == "" {
		return nil, pfirestore.WrapError("statushistory.list", errors.New("shop id and order id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("statushistory.list", err)
	}

	query := client.Collection(r.collection(shopID, orderID)).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)
	docs, err := queryDocs(ctx, query)
	if err != nil {
		return nil, pfirestore.WrapError("statushistory.list", err)
	}

	changes := make([]domain.StatusChange, 0, len(docs))
	for _, doc := range docs {
		var data statusChangeDocument
		if err := doc.DataTo(&data); err != nil {
			return nil, pfirestore.WrapError("statushistory.list", fmt.Errorf("decode status change %s: %w", doc.Ref.ID, err))
		}
		changes = append(changes, domain.StatusChange{
			ID:         doc.Ref.ID,
			OrderID:    orderID,
			FromStatus: domain.OrderStatus(data.FromStatus),
			ToStatus:   domain.OrderStatus(data.ToStatus),
			Actor:      data.Actor,
			Note:       data.Note,
			CreatedAt:  data.CreatedAt,
		})
	}
	return changes, nil
}

var _ repositories.StatusHistoryRepository = (*StatusHistoryRepository)(nil)

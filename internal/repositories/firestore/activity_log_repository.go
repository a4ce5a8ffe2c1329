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

// ActivityLogRepository stores immutable trail entries under
// shops/{shopID}/activity_logs. Entries outlive the records they describe;
// nothing ever deletes from this collection.
type ActivityLogRepository struct {
	provider *pfirestore.Provider
}

func NewActivityLogRepository(provider *pfirestore.Provider) (*ActivityLogRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore activity log repository requires provider")
	}
	return &ActivityLogRepository{provider: provider}, nil
}

type activityLogDocument struct {
	Actor      string    `firestore:"actor"`
	Action     string    `firestore:"action"`
	EntityType string    `firestore:"entityType"`
	EntityID   string    `firestore:"entityId"`
	Details    string    `firestore:"details,omitempty"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

func (r *ActivityLogRepository) collection(shopID string) string {
	return fmt.Sprintf("shops/%s/activity_logs", shopID)
}

func (r *ActivityLogRepository) Append(ctx context.Context, entry domain.ActivityLogEntry) error {
	if strings.TrimSpace(entry.ID) == "" || strings.TrimSpace(entry.ShopID) == "" {
		return pfirestore.WrapError("activity.append", errors.New("entry id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("activity.append", err)
	}
	data := activityLogDocument{
		Actor:      entry.Actor,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		CreatedAt:  entry.CreatedAt.UTC(),
	}
	ref := client.Collection(r.collection(entry.ShopID)).Doc(entry.ID)
	if err := createDoc(ctx, ref, data); err != nil {
		return pfirestore.WrapError("activity.append", err)
	}
	return nil
}

// List returns entries newest-first. EntityType, EntityID, and Actor narrow
// the trail; the date range clips on createdAt.
func (r *ActivityLogRepository) List(ctx context.Context, filter repositories.ActivityLogFilter) (domain.CursorPage[domain.ActivityLogEntry], error) {
	var page domain.CursorPage[domain.ActivityLogEntry]
	if strings.TrimSpace(filter.ShopID) == "" {
		return page, pfirestore.WrapError("activity.list", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, pfirestore.WrapError("activity.list", err)
	}

	limit := filter.Pagination.PageSize
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := client.Collection(r.collection(filter.ShopID)).Query
	if filter.EntityType != "" {
		query = query.Where("entityType", "==", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entityId", "==", filter.EntityID)
	}
	if filter.Actor != "" {
		query = query.Where("actor", "==", filter.Actor)
	}
	if filter.DateRange.From != nil {
		query = query.Where("createdAt", ">=", filter.DateRange.From.UTC())
	}
	if filter.DateRange.To != nil {
		query = query.Where("createdAt", "<", filter.DateRange.To.UTC())
	}
	query = query.
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		ts, docID, err := decodeCursorToken(token)
		if err != nil {
			return page, pfirestore.WrapError("activity.list", err)
		}
		query = query.StartAfter(ts, docID)
	}

	docs, err := queryDocs(ctx, query.Limit(fetchLimit))
	if err != nil {
		return page, pfirestore.WrapError("activity.list", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	page.Items = make([]domain.ActivityLogEntry, 0, len(docs))
	for _, doc := range docs {
		var data activityLogDocument
		if err := doc.DataTo(&data); err != nil {
			return domain.CursorPage[domain.ActivityLogEntry]{}, pfirestore.WrapError("activity.list", fmt.Errorf("decode entry %s: %w", doc.Ref.ID, err))
		}
		page.Items = append(page.Items, domain.ActivityLogEntry{
			ID:         doc.Ref.ID,
			ShopID:     filter.ShopID,
			Actor:      data.Actor,
			Action:     data.Action,
			EntityType: data.EntityType,
			EntityID:   data.EntityID,
			Details:    data.Details,
			CreatedAt:  data.CreatedAt,
		})
	}
	if hasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		page.NextPageToken = encodeCursorToken(last.CreatedAt, last.ID)
	}
	return page, nil
}

var _ repositories.ActivityLogRepository = (*ActivityLogRepository)(nil)

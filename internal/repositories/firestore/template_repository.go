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

// MessageTemplateRepository stores WhatsApp message templates under
// shops/{shopID}/templates.
type MessageTemplateRepository struct {
	provider *pfirestore.Provider
}

func NewMessageTemplateRepository(provider *pfirestore.Provider) (*MessageTemplateRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore template repository requires provider")
	}
	return &MessageTemplateRepository{provider: provider}, nil
}

type messageTemplateDocument struct {
	Name      string    `firestore:"name"`
	Body      string    `firestore:"body"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (r *MessageTemplateRepository) collection(shopID string) string {
	return fmt.Sprintf("shops/%s/templates", shopID)
}

func decodeMessageTemplate(doc *firestore.DocumentSnapshot, shopID string) (domain.MessageTemplate, error) {
	var data messageTemplateDocument
	if err := doc.DataTo(&data); err != nil {
		return domain.MessageTemplate{}, fmt.Errorf("decode template %s: %w", doc.Ref.ID, err)
	}
	return domain.MessageTemplate{
		ID:        doc.Ref.ID,
		ShopID:    shopID,
		Name:      data.Name,
		Body:      data.Body,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}, nil
}

func (r *MessageTemplateRepository) Insert(ctx context.Context, template domain.MessageTemplate) error {
	if strings.TrimSpace(template.ID) == "" || strings.TrimSpace(template.ShopID) == "" {
		return pfirestore.WrapError("templates.insert", errors.New("template id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("templates.insert", err)
	}
	data := messageTemplateDocument{
		Name:      template.Name,
		Body:      template.Body,
		CreatedAt: template.CreatedAt.UTC(),
		UpdatedAt: template.UpdatedAt.UTC(),
	}
	ref := client.Collection(r.collection(template.ShopID)).Doc(template.ID)
	if err := createDoc(ctx, ref, data); err != nil {
		return pfirestore.WrapError("templates.insert", err)
	}
	return nil
}

func (r *MessageTemplateRepository) Update(ctx context.Context, template domain.MessageTemplate) error {
	if strings.TrimSpace(template.ID) == "" || strings.TrimSpace(template.ShopID) == "" {
		return pfirestore.WrapError("templates.update", errors.New("template id and shop id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("templates.update", err)
	}
	data := messageTemplateDocument{
		Name:      template.Name,
		Body:      template.Body,
		CreatedAt: template.CreatedAt.UTC(),
		UpdatedAt: template.UpdatedAt.UTC(),
	}
	ref := client.Collection(r.collection(template.ShopID)).Doc(template.ID)
	if err := setDoc(ctx, ref, data); err != nil {
		return pfirestore.WrapError("templates.update", err)
	}
	return nil
}

func (r *MessageTemplateRepository) Delete(ctx context.Context, shopID string, templateID string) error {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(templateID) == "" {
		return pfirestore.WrapError("templates.delete", errors.New("shop id and template id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("templates.delete", err)
	}
	if err := deleteDoc(ctx, client.Collection(r.collection(shopID)).Doc(templateID)); err != nil {
		return pfirestore.WrapError("templates.delete", err)
	}
	return nil
}

func (r *MessageTemplateRepository) FindByID(ctx context.Context, shopID string, templateID string) (domain.MessageTemplate, error) {
	if strings.TrimSpace(shopID) == "" || strings.TrimSpace(templateID) == "" {
		return domain.MessageTemplate{}, pfirestore.WrapError("templates.get", errors.New("shop id and template id are required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.MessageTemplate{}, pfirestore.WrapError("templates.get", err)
	}
	doc, err := getDoc(ctx, client.Collection(r.collection(shopID)).Doc(templateID))
	if err != nil {
		return domain.MessageTemplate{}, pfirestore.WrapError("templates.get", err)
	}
	template, err := decodeMessageTemplate(doc, shopID)
	if err != nil {
		return domain.MessageTemplate{}, pfirestore.WrapError("templates.get", err)
	}
	return template, nil
}

func (r *MessageTemplateRepository) List(ctx context.Context, shopID string, pager domain.Pagination) (domain.CursorPage[domain.MessageTemplate], error) {
	var page domain.CursorPage[domain.MessageTemplate]
	if strings.TrimSpace(shopID) == "" {
		return page, pfirestore.WrapError("templates.list", errors.New("shop id is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return page, pfirestore.WrapError("templates.list", err)
	}

	limit := pager.PageSize
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	query := client.Collection(r.collection(shopID)).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)

	if token := strings.TrimSpace(pager.PageToken); token != "" {
		ts, docID, err := decodeCursorToken(token)
		if err != nil {
			return page, pfirestore.WrapError("templates.list", err)
		}
		query = query.StartAfter(ts, docID)
	}

	docs, err := queryDocs(ctx, query.Limit(fetchLimit))
	if err != nil {
		return page, pfirestore.WrapError("templates.list", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	page.Items = make([]domain.MessageTemplate, 0, len(docs))
	for _, doc := range docs {
		template, err := decodeMessageTemplate(doc, shopID)
		if err != nil {
			return domain.CursorPage[domain.MessageTemplate]{}, pfirestore.WrapError("templates.list", err)
		}
		page.Items = append(page.Items, template)
	}
	if hasMore && len(page.Items) > 0 {
		last := page.Items[len(page.Items)-1]
		page.NextPageToken = encodeCursorToken(last.CreatedAt, last.ID)
	}
	return page, nil
}

var _ repositories.MessageTemplateRepository = (*MessageTemplateRepository)(nil)

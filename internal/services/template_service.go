package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/whatsapp"
	"github.com/sobri3195/WarungWA/internal/repositories"
)

const (
	templateActionCreated = "template.created"
	templateActionUpdated = "template.updated"
	templateActionDeleted = "template.deleted"

	templateEntityType = "template"
)

var (
	// ErrTemplateInvalidInput signals the caller provided invalid data.
	ErrTemplateInvalidInput = errors.New("template: invalid input")
	// ErrTemplateNotFound indicates the template or order could not be located.
	ErrTemplateNotFound = errors.New("template: not found")
	// ErrTemplateConflict indicates duplicate inserts.
	ErrTemplateConflict = errors.New("template: conflict")
)

// TemplateServiceDeps bundles collaborators for the template service.
type TemplateServiceDeps struct {
	Templates   repositories.MessageTemplateRepository
	Orders      repositories.OrderRepository
	Shops       repositories.ShopRepository
	Activity    ActivityLogService
	Clock       func() time.Time
	IDGenerator func() string
}

var _ TemplateService = (*templateService)(nil)

type templateService struct {
	templates repositories.MessageTemplateRepository
	orders    repositories.OrderRepository
	shops     repositories.ShopRepository
	activity  ActivityLogService
	clock     func() time.Time
	newID     func() string
}

// NewTemplateService wires dependencies into a concrete TemplateService implementation.
func NewTemplateService(deps TemplateServiceDeps) (TemplateService, error) {
	if deps.Templates == nil {
		return nil, errors.New("template service: template repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("template service: order repository is required")
	}
	if deps.Shops == nil {
		return nil, errors.New("template service: shop repository is required")
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

	return &templateService{
		templates: deps.Templates,
		orders:    deps.Orders,
		shops:     deps.Shops,
		activity:  deps.Activity,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
	}, nil
}

func (s *templateService) Create(ctx context.Context, cmd UpsertTemplateCommand) (MessageTemplate, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	if shopID == "" {
		return MessageTemplate{}, fmt.Errorf("%w: shop id is required", ErrTemplateInvalidInput)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return MessageTemplate{}, fmt.Errorf("%w: template name is required", ErrTemplateInvalidInput)
	}
	body := strings.TrimSpace(cmd.Body)
	if body == "" {
		return MessageTemplate{}, fmt.Errorf("%w: template body is required", ErrTemplateInvalidInput)
	}

	now := s.clock()
	template := MessageTemplate{
		ID:        s.newID(),
		ShopID:    shopID,
		Name:      name,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.templates.Insert(ctx, template); err != nil {
		return MessageTemplate{}, s.mapRepositoryError(err)
	}

	s.record(ctx, cmd.Actor, shopID, templateActionCreated, template.ID,
		fmt.Sprintf("Template %q created", template.Name))
	return template, nil
}

func (s *templateService) Update(ctx context.Context, cmd UpsertTemplateCommand) (MessageTemplate, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	templateID := strings.TrimSpace(cmd.TemplateID)
	if shopID == "" || templateID == "" {
		return MessageTemplate{}, fmt.Errorf("%w: shop id and template id are required", ErrTemplateInvalidInput)
	}

	template, err := s.templates.FindByID(ctx, shopID, templateID)
	if err != nil {
		return MessageTemplate{}, s.mapRepositoryError(err)
	}

	if name := strings.TrimSpace(cmd.Name); name != "" {
		template.Name = name
	}
	if body := strings.TrimSpace(cmd.Body); body != "" {
		template.Body = body
	}
	template.UpdatedAt = s.clock()

	if err := s.templates.Update(ctx, template); err != nil {
		return MessageTemplate{}, s.mapRepositoryError(err)
	}

	s.record(ctx, cmd.Actor, shopID, templateActionUpdated, template.ID,
		fmt.Sprintf("Template %q updated", template.Name))
	return template, nil
}

func (s *templateService) Delete(ctx context.Context, shopID string, templateID string, actor string) error {
	shopID = strings.TrimSpace(shopID)
	templateID = strings.TrimSpace(templateID)
	if shopID == "" || templateID == "" {
		return fmt.Errorf("%w: shop id and template id are required", ErrTemplateInvalidInput)
	}
	template, err := s.templates.FindByID(ctx, shopID, templateID)
	if err != nil {
		return s.mapRepositoryError(err)
	}
	if err := s.templates.Delete(ctx, shopID, templateID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.record(ctx, actor, shopID, templateActionDeleted, templateID,
		fmt.Sprintf("Template %q deleted", template.Name))
	return nil
}

func (s *templateService) Get(ctx context.Context, shopID string, templateID string) (MessageTemplate, error) {
	shopID = strings.TrimSpace(shopID)
	templateID = strings.TrimSpace(templateID)
	if shopID == "" || templateID == "" {
		return MessageTemplate{}, fmt.Errorf("%w: shop id and template id are required", ErrTemplateInvalidInput)
	}
	template, err := s.templates.FindByID(ctx, shopID, templateID)
	if err != nil {
		return MessageTemplate{}, s.mapRepositoryError(err)
	}
	return template, nil
}

func (s *templateService) List(ctx context.Context, shopID string, pager Pagination) (domain.CursorPage[MessageTemplate], error) {
	if strings.TrimSpace(shopID) == "" {
		return domain.CursorPage[MessageTemplate]{}, fmt.Errorf("%w: shop id is required", ErrTemplateInvalidInput)
	}
	page, err := s.templates.List(ctx, strings.TrimSpace(shopID), pager)
	if err != nil {
		return domain.CursorPage[MessageTemplate]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// RenderForOrder substitutes the order's values into the template body and
// builds the wa.me link for the order's customer. Unknown placeholders stay
// visible so the owner notices a typo instead of sending a silently mangled
// message.
func (s *templateService) RenderForOrder(ctx context.Context, cmd RenderTemplateCommand) (RenderedMessage, error) {
	shopID := strings.TrimSpace(cmd.ShopID)
	templateID := strings.TrimSpace(cmd.TemplateID)
	orderID := strings.TrimSpace(cmd.OrderID)
	if shopID == "" || templateID == "" || orderID == "" {
		return RenderedMessage{}, fmt.Errorf("%w: shop id, template id, and order id are required", ErrTemplateInvalidInput)
	}

	template, err := s.templates.FindByID(ctx, shopID, templateID)
	if err != nil {
		return RenderedMessage{}, s.mapRepositoryError(err)
	}
	order, err := s.orders.FindByID(ctx, shopID, orderID)
	if err != nil {
		return RenderedMessage{}, s.mapRepositoryError(err)
	}

	shopName := ""
	if shop, err := s.shops.FindByID(ctx, shopID); err == nil {
		shopName = shop.Name
	}

	body := whatsapp.Render(template.Body, orderTemplateVars(order, shopName))
	return RenderedMessage{
		Body:         body,
		WhatsAppLink: whatsapp.Link(order.CustomerPhone, body),
	}, nil
}

// AutoReply reports whether the shop is outside operating hours at the probed
// instant and, when it is, the configured reply body.
func (s *templateService) AutoReply(ctx context.Context, shopID string, at time.Time) (AutoReplyResult, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return AutoReplyResult{}, fmt.Errorf("%w: shop id is required", ErrTemplateInvalidInput)
	}
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return AutoReplyResult{}, s.mapRepositoryError(err)
	}
	if at.IsZero() {
		at = s.clock()
	}
	if whatsapp.WithinOperatingHours(shop.OperatingHours.Open, shop.OperatingHours.Close, at) {
		return AutoReplyResult{}, nil
	}
	return AutoReplyResult{
		OutsideHours: true,
		Message:      shop.AutoReplyMessage,
	}, nil
}

// orderTemplateVars maps template placeholder names to the order's values.
// Monetary amounts render as Rupiah strings and the date in Indonesian form.
func orderTemplateVars(order Order, shopName string) map[string]string {
	return map[string]string{
		"nama":     order.CustomerName,
		"phone":    order.CustomerPhone,
		"alamat":   order.CustomerAddress,
		"order_id": order.OrderNumber,
		"total":    whatsapp.FormatRupiah(order.Total),
		"subtotal": whatsapp.FormatRupiah(order.Subtotal),
		"ongkir":   whatsapp.FormatRupiah(order.ShippingCost),
		"diskon":   whatsapp.FormatRupiah(order.Discount),
		"tanggal":  whatsapp.FormatDate(order.CreatedAt),
		"toko":     shopName,
	}
}

func (s *templateService) record(ctx context.Context, actor, shopID, action, entityID, details string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, ActivityRecord{
		ShopID:     shopID,
		Actor:      actor,
		Action:     action,
		EntityType: templateEntityType,
		EntityID:   entityID,
		Details:    details,
	})
}

func (s *templateService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrTemplateNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrTemplateConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("template: repository unavailable: %w", err)
		}
	}
	return err
}

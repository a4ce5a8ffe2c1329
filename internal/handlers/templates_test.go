package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/services"
)

type stubTemplateService struct {
	createFn    func(context.Context, services.UpsertTemplateCommand) (services.MessageTemplate, error)
	updateFn    func(context.Context, services.UpsertTemplateCommand) (services.MessageTemplate, error)
	deleteFn    func(context.Context, string, string, string) error
	getFn       func(context.Context, string, string) (services.MessageTemplate, error)
	listFn      func(context.Context, string, services.Pagination) (domain.CursorPage[services.MessageTemplate], error)
	renderFn    func(context.Context, services.RenderTemplateCommand) (services.RenderedMessage, error)
	autoReplyFn func(context.Context, string, time.Time) (services.AutoReplyResult, error)
}

func (s *stubTemplateService) Create(ctx context.Context, cmd services.UpsertTemplateCommand) (services.MessageTemplate, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.MessageTemplate{}, errors.New("not implemented")
}

func (s *stubTemplateService) Update(ctx context.Context, cmd services.UpsertTemplateCommand) (services.MessageTemplate, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.MessageTemplate{}, errors.New("not implemented")
}

func (s *stubTemplateService) Delete(ctx context.Context, shopID, templateID, actor string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, shopID, templateID, actor)
	}
	return errors.New("not implemented")
}

func (s *stubTemplateService) Get(ctx context.Context, shopID, templateID string) (services.MessageTemplate, error) {
	if s.getFn != nil {
		return s.getFn(ctx, shopID, templateID)
	}
	return services.MessageTemplate{}, errors.New("not implemented")
}

func (s *stubTemplateService) List(ctx context.Context, shopID string, pager services.Pagination) (domain.CursorPage[services.MessageTemplate], error) {
	if s.listFn != nil {
		return s.listFn(ctx, shopID, pager)
	}
	return domain.CursorPage[services.MessageTemplate]{}, nil
}

func (s *stubTemplateService) RenderForOrder(ctx context.Context, cmd services.RenderTemplateCommand) (services.RenderedMessage, error) {
	if s.renderFn != nil {
		return s.renderFn(ctx, cmd)
	}
	return services.RenderedMessage{}, errors.New("not implemented")
}

func (s *stubTemplateService) AutoReply(ctx context.Context, shopID string, at time.Time) (services.AutoReplyResult, error) {
	if s.autoReplyFn != nil {
		return s.autoReplyFn(ctx, shopID, at)
	}
	return services.AutoReplyResult{}, errors.New("not implemented")
}

func newTemplateRouter(service services.TemplateService) chi.Router {
	handler := NewTemplateHandlers(service)
	router := chi.NewRouter()
	router.Route("/templates", handler.Routes)
	return router
}

func TestTemplateHandlersRenderReturnsLink(t *testing.T) {
	var captured services.RenderTemplateCommand
	service := &stubTemplateService{
		renderFn: func(ctx context.Context, cmd services.RenderTemplateCommand) (services.RenderedMessage, error) {
			captured = cmd
			return services.RenderedMessage{
				Body:         "Halo Budi, pesanan WA-2025-000042 total Rp35.000",
				WhatsAppLink: "https://wa.me/628123456789?text=Halo%20Budi",
			}, nil
		},
	}
	router := newTemplateRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/templates/tmpl-1/render", strings.NewReader(`{"order_id":"order-1"}`))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.TemplateID != "tmpl-1" || captured.OrderID != "order-1" || captured.ShopID != "shop-1" {
		t.Fatalf("unexpected render command: %#v", captured)
	}
	var resp renderedMessagePayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !strings.HasPrefix(resp.WhatsAppLink, "https://wa.me/628123456789") {
		t.Fatalf("unexpected link: %s", resp.WhatsAppLink)
	}
}

func TestTemplateHandlersRenderMapsMissingOrder(t *testing.T) {
	service := &stubTemplateService{
		renderFn: func(ctx context.Context, cmd services.RenderTemplateCommand) (services.RenderedMessage, error) {
			return services.RenderedMessage{}, fmt.Errorf("%w: order missing", services.ErrOrderNotFound)
		},
	}
	router := newTemplateRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/templates/tmpl-1/render", strings.NewReader(`{"order_id":"missing"}`))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "order_not_found") {
		t.Fatalf("expected order_not_found code, got %s", rr.Body.String())
	}
}

func TestTemplateHandlersAutoReplyParsesProbeTime(t *testing.T) {
	var capturedAt time.Time
	service := &stubTemplateService{
		autoReplyFn: func(ctx context.Context, shopID string, at time.Time) (services.AutoReplyResult, error) {
			capturedAt = at
			return services.AutoReplyResult{OutsideHours: true, Message: "Kami buka jam 08:00"}, nil
		},
	}
	router := newTemplateRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/templates/auto-reply?at=2025-06-10T22:30:00Z", nil)
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	expected := time.Date(2025, 6, 10, 22, 30, 0, 0, time.UTC)
	if !capturedAt.Equal(expected) {
		t.Fatalf("expected probe time %s, got %s", expected, capturedAt)
	}
	var resp autoReplyPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp.OutsideHours || resp.Message == "" {
		t.Fatalf("unexpected auto-reply response: %#v", resp)
	}
}

func TestTemplateHandlersCreateValidationMapsTo400(t *testing.T) {
	service := &stubTemplateService{
		createFn: func(ctx context.Context, cmd services.UpsertTemplateCommand) (services.MessageTemplate, error) {
			return services.MessageTemplate{}, fmt.Errorf("%w: body is required", services.ErrTemplateInvalidInput)
		},
	}
	router := newTemplateRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/templates", strings.NewReader(`{"name":"Konfirmasi"}`))
	req = withShopIdentity(req, "shop-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareExtractsIdentity(t *testing.T) {
	var captured *Identity
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set(HeaderShopID, "shop-1")
	req.Header.Set(HeaderActorName, "Siti")
	req.Header.Set(HeaderActorRole, "Staff")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured == nil {
		t.Fatal("expected identity in context")
	}
	if captured.ShopID != "shop-1" {
		t.Errorf("unexpected shop id: %s", captured.ShopID)
	}
	if captured.Actor != "Siti" {
		t.Errorf("unexpected actor: %s", captured.Actor)
	}
	if captured.Role != RoleStaff {
		t.Errorf("unexpected role: %s", captured.Role)
	}
}

func TestMiddlewareDefaultsActorAndRole(t *testing.T) {
	var captured *Identity
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderShopID, "shop-1")
	req.Header.Set(HeaderActorRole, "superuser")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured == nil {
		t.Fatal("expected identity in context")
	}
	if captured.Actor != "owner" {
		t.Errorf("expected default actor owner, got %s", captured.Actor)
	}
	if captured.Role != RoleOwner {
		t.Errorf("expected unknown role to fall back to owner, got %s", captured.Role)
	}
}

func TestMiddlewareWithoutShopHeader(t *testing.T) {
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); ok {
			t.Error("expected no identity without shop header")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestActorFallsBackWithoutIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := Actor(req.Context()); got != "owner" {
		t.Errorf("expected owner, got %s", got)
	}
	if got := ShopID(req.Context()); got != "" {
		t.Errorf("expected empty shop id, got %s", got)
	}
}

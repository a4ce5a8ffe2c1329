// Package session carries the current shop and actor through request context.
// Selection is a deliberately trivial mechanism: the client states which shop
// it operates and who is acting via headers, with no credential verification.
package session

import (
	"context"
	"net/http"
	"strings"
)

// Role constants used when checking who may perform an operation.
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// Header names read by the middleware.
const (
	HeaderShopID    = "X-Shop-ID"
	HeaderActorName = "X-Actor-Name"
	HeaderActorRole = "X-Actor-Role"
)

const defaultActor = "owner"

// Identity captures the acting shop and user for the current request.
type Identity struct {
	ShopID string
	Actor  string
	Role   string
}

// HasRole reports whether the identity carries the requested role (case-insensitive).
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(role), i.Role)
}

type contextKey string

const identityContextKey contextKey = "github.com/sobri3195/WarungWA/internal/platform/session/identity"

// WithIdentity stores the identity within the context for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// ShopID returns the selected shop, or empty when no identity is present.
func ShopID(ctx context.Context) string {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ""
	}
	return identity.ShopID
}

// Actor returns the acting user name, defaulting to "owner".
func Actor(ctx context.Context) string {
	identity, ok := IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.Actor) == "" {
		return defaultActor
	}
	return identity.Actor
}

// Middleware extracts the shop/actor headers and stores them on the context.
// Requests without a shop header pass through without an identity; handlers
// that require one respond with 400.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shopID := strings.TrimSpace(r.Header.Get(HeaderShopID))
			if shopID == "" {
				next.ServeHTTP(w, r)
				return
			}

			actor := strings.TrimSpace(r.Header.Get(HeaderActorName))
			if actor == "" {
				actor = defaultActor
			}
			role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderActorRole)))
			if role != RoleOwner && role != RoleStaff {
				role = RoleOwner
			}

			ctx := WithIdentity(r.Context(), &Identity{
				ShopID: shopID,
				Actor:  actor,
				Role:   role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/sobri3195/WarungWA/internal/domain"
	"github.com/sobri3195/WarungWA/internal/platform/httpx"
	"github.com/sobri3195/WarungWA/internal/services"
)

// ProductHandlers serves the shop's catalog endpoints.
type ProductHandlers struct {
	catalog services.CatalogService
}

func NewProductHandlers(catalog services.CatalogService) *ProductHandlers {
	return &ProductHandlers{catalog: catalog}
}

func (h *ProductHandlers) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{productID}", h.Get)
	r.Put("/{productID}", h.Update)
	r.Delete("/{productID}", h.Delete)
	r.Get("/{productID}/price", h.ResolvePrice)
}

type priceLevelPayload struct {
	Level string `json:"level"`
	Price int64  `json:"price"`
}

type variantPayload struct {
	ID          string              `json:"id,omitempty"`
	Name        string              `json:"name"`
	SKU         string              `json:"sku,omitempty"`
	BasePrice   int64               `json:"base_price"`
	Stock       int64               `json:"stock"`
	PriceLevels []priceLevelPayload `json:"price_levels,omitempty"`
}

type productPayload struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Active      bool             `json:"active"`
	Variants    []variantPayload `json:"variants"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

type upsertProductPayload struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Active      *bool            `json:"active,omitempty"`
	Variants    []variantPayload `json:"variants"`
}

type productListPayload struct {
	Products      []productPayload `json:"products"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type resolvedPricePayload struct {
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
}

func (h *ProductHandlers) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload upsertProductPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	product, err := h.catalog.Create(r.Context(), services.UpsertProductCommand{
		ShopID:      identity.ShopID,
		Name:        payload.Name,
		Description: payload.Description,
		Active:      payload.Active,
		Variants:    toVariantInputs(payload.Variants),
		Actor:       identity.Actor,
	})
	if err != nil {
		writeCatalogError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, toProductPayload(product))
}

func (h *ProductHandlers) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var payload upsertProductPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		writeOrderBodyError(w, r, err)
		return
	}
	product, err := h.catalog.Update(r.Context(), services.UpsertProductCommand{
		ShopID:      identity.ShopID,
		ProductID:   chi.URLParam(r, "productID"),
		Name:        payload.Name,
		Description: payload.Description,
		Active:      payload.Active,
		Variants:    toVariantInputs(payload.Variants),
		Actor:       identity.Actor,
	})
	if err != nil {
		writeCatalogError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toProductPayload(product))
}

func (h *ProductHandlers) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	product, err := h.catalog.Get(r.Context(), identity.ShopID, chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, toProductPayload(product))
}

func (h *ProductHandlers) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	pager, err := parsePagination(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	page, err := h.catalog.List(r.Context(), services.ProductListFilter{
		ShopID:     identity.ShopID,
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
		Pagination: pager,
	})
	if err != nil {
		writeCatalogError(r, w, err)
		return
	}
	response := productListPayload{Products: make([]productPayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, product := range page.Items {
		response.Products = append(response.Products, toProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func (h *ProductHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Delete(r.Context(), identity.ShopID, chi.URLParam(r, "productID"), identity.Actor); err != nil {
		writeCatalogError(r, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolvePrice answers what one unit of a variant costs a customer tier.
func (h *ProductHandlers) ResolvePrice(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	query := services.UnitPriceQuery{
		ShopID:        identity.ShopID,
		ProductID:     chi.URLParam(r, "productID"),
		VariantID:     r.URL.Query().Get("variant_id"),
		CustomerLevel: domain.CustomerLevel(r.URL.Query().Get("level")),
	}
	if query.CustomerLevel == "" {
		query.CustomerLevel = domain.CustomerLevelRetail
	}
	price, err := h.catalog.UnitPriceFor(r.Context(), query)
	if err != nil {
		writeCatalogError(r, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, resolvedPricePayload{
		ProductID:   price.ProductID,
		VariantID:   price.VariantID,
		ProductName: price.ProductName,
		VariantName: price.VariantName,
		UnitPrice:   price.UnitPrice,
	})
}

func toVariantInputs(variants []variantPayload) []services.VariantInput {
	inputs := make([]services.VariantInput, 0, len(variants))
	for _, variant := range variants {
		input := services.VariantInput{
			ID:        variant.ID,
			Name:      variant.Name,
			SKU:       variant.SKU,
			BasePrice: variant.BasePrice,
			Stock:     variant.Stock,
		}
		for _, level := range variant.PriceLevels {
			input.PriceLevels = append(input.PriceLevels, domain.PriceLevel{
				Level: domain.CustomerLevel(level.Level),
				Price: level.Price,
			})
		}
		inputs = append(inputs, input)
	}
	return inputs
}

func toProductPayload(product domain.Product) productPayload {
	payload := productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Active:      product.Active,
		Variants:    make([]variantPayload, 0, len(product.Variants)),
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
	for _, variant := range product.Variants {
		vp := variantPayload{
			ID:        variant.ID,
			Name:      variant.Name,
			SKU:       variant.SKU,
			BasePrice: variant.BasePrice,
			Stock:     variant.Stock,
		}
		for _, level := range variant.PriceLevels {
			vp.PriceLevels = append(vp.PriceLevels, priceLevelPayload{
				Level: string(level.Level),
				Price: level.Price,
			})
		}
		payload.Variants = append(payload.Variants, vp)
	}
	return payload
}

func writeCatalogError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("product_conflict", "product was modified concurrently", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

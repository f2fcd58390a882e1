package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kraalworks/storefront-api/internal/catalog"
	"github.com/kraalworks/storefront-api/internal/common"
	"github.com/kraalworks/storefront-api/internal/obs"
	"github.com/kraalworks/storefront-api/internal/pricing"
	"github.com/kraalworks/storefront-api/internal/promo"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc      *Service
	Policy   pricing.Policy
	Validate *validator.Validate
}

type addItemPayload struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required"`
}

type setQtyPayload struct {
	Qty int `json:"qty"`
}

type promoPayload struct {
	Code string `json:"code" validate:"required"`
}

// Get returns cart contents with a freshly computed price breakdown.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	c, err := h.Svc.Get(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, r, c, http.StatusOK)
}

// AddItem adds or decrements a cart line by SKU.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var payload addItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "sku and a non-zero qty are required", nil)
		return
	}
	c, err := h.Svc.AddItem(r.Context(), key, payload.SKU, payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, r, c, http.StatusOK)
}

// SetQty replaces the quantity of an existing cart line.
func (h *Handler) SetQty(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	sku := chi.URLParam(r, "sku")
	var payload setQtyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c, err := h.Svc.SetQty(r.Context(), key, sku, payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, r, c, http.StatusOK)
}

// ApplyPromo adds a promo code to the cart. Unknown codes are stored but have
// no pricing effect.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var payload promoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "code is required", nil)
		return
	}
	c, err := h.Svc.ApplyPromo(r.Context(), key, payload.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if codes := promo.Normalize([]string{payload.Code}); len(codes) == 1 && obs.PromoAppliedTotal != nil {
		obs.PromoAppliedTotal.WithLabelValues(codes[0]).Inc()
	}
	h.render(w, r, c, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, c Cart, status int) {
	lines, err := h.Svc.Lines(r.Context(), c)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to price cart", nil)
		return
	}
	breakdown := pricing.Quote(lines, c.Promos, h.Policy)
	common.JSON(w, status, map[string]any{
		"data": map[string]any{
			"key":      c.Key,
			"pricing":  breakdown,
			"currency": "ZAR",
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var stockErr *StockLimitError
	switch {
	case errors.As(err, &stockErr):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", stockErr.Error(), map[string]any{
			"sku":       stockErr.SKU,
			"available": stockErr.Available,
		})
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	case errors.Is(err, ErrItemNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "item not in cart", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart operation failed", nil)
	}
}

package checkout

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kraalworks/storefront-api/internal/common"
)

// Handler exposes the checkout operation over HTTP.
type Handler struct {
	Svc *Service
}

// Create finalizes the cart into an order. Business failures come back as 409
// so callers can distinguish a retryable cart problem from a server fault.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	receipt, err := h.Svc.Checkout(r.Context(), key)
	if err != nil {
		var stockErr *StockError
		switch {
		case errors.Is(err, ErrEmptyCart):
			common.JSONError(w, http.StatusConflict, "EMPTY_CART", "cart has no purchasable items", nil)
		case errors.As(err, &stockErr):
			common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", stockErr.Error(), map[string]any{
				"sku":       stockErr.SKU,
				"available": stockErr.Available,
			})
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout failed", nil)
		}
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"orderId":   receipt.OrderID,
			"createdAt": receipt.CreatedAt,
			"pricing":   receipt.Breakdown,
			"currency":  "ZAR",
		},
	})
}

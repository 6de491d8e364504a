// Package httpapi exposes the storefront over HTTP: cart CRUD, image
// attachments, the pricing summary, voucher redemption and customer
// lookup.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kleankickx/storefront-api/internal/domain"
	"github.com/kleankickx/storefront-api/internal/image"
	"github.com/kleankickx/storefront-api/internal/store"
)

type CartHandler struct {
	store   *store.Store
	images  *image.Processor
	preview *image.PreviewRegistry
	timeout time.Duration
}

func NewCartHandler(cartStore *store.Store, images *image.Processor, preview *image.PreviewRegistry, timeout time.Duration) *CartHandler {
	return &CartHandler{
		store:   cartStore,
		images:  images,
		preview: preview,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ServiceID           string `json:"service_id"`
	Quantity            int    `json:"quantity"`
	IsFreeSignupService bool   `json:"is_free_signup_service"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

// CartResponse wraps the cart with the expiry signal from the load, so
// the client can tell the user why their cart came back empty.
type CartResponse struct {
	Cart    *domain.Cart `json:"cart"`
	Expired bool         `json:"expired,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, expired := h.store.Load(ctx, userID)
	respondJSON(w, http.StatusOK, CartResponse{Cart: cart, Expired: expired})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ServiceID == "" {
		respondError(w, http.StatusBadRequest, "invalid_service_id", "service_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cart := h.store.AddItem(ctx, userID, domain.CartItem{
		ServiceID:           req.ServiceID,
		Quantity:            req.Quantity,
		IsFreeSignupService: req.IsFreeSignupService,
	})
	respondJSON(w, http.StatusCreated, CartResponse{Cart: cart})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	key := chi.URLParam(r, "item_key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_key", "item key is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Delta == 0 || req.Delta < -99 || req.Delta > 99 {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must be between -99 and 99 and non-zero")
		return
	}

	cart, err := h.store.UpdateQuantity(ctx, userID, key, req.Delta)
	if err != nil {
		if errors.Is(err, store.ErrFixedQuantity) {
			respondError(w, http.StatusConflict, "fixed_quantity",
				"quantity cannot be changed for voucher or free service lines")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update quantity")
		return
	}
	respondJSON(w, http.StatusOK, CartResponse{Cart: cart})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	key := chi.URLParam(r, "item_key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_key", "item key is required")
		return
	}

	cart := h.store.RemoveItem(ctx, userID, key)
	respondJSON(w, http.StatusOK, CartResponse{Cart: cart})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart := h.store.Clear(ctx, userID)
	respondJSON(w, http.StatusOK, CartResponse{Cart: cart})
}

// AttachImage accepts the raw photo bytes as the request body, runs
// them through the processor and pins the result to the cart line.
func (h *CartHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	key := chi.URLParam(r, "item_key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_key", "item key is required")
		return
	}

	// One byte past the cap so the processor can report ErrTooLarge
	// instead of the body reader truncating silently.
	body, err := io.ReadAll(io.LimitReader(r.Body, image.MaxFileSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read request body")
		return
	}

	att, err := h.images.Process(body)
	if err != nil {
		switch {
		case errors.Is(err, image.ErrTooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "image_too_large", err.Error())
		case errors.Is(err, image.ErrUnsupportedFormat):
			respondError(w, http.StatusUnsupportedMediaType, "unsupported_format", err.Error())
		case errors.Is(err, image.ErrConversionFailed):
			respondError(w, http.StatusUnprocessableEntity, "conversion_failed", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "image processing failed")
		}
		return
	}

	cart, err := h.store.AttachImage(ctx, userID, key, domain.Image{
		Data:          att.Data,
		ContentType:   att.ContentType,
		PreviewHandle: att.PreviewHandle,
	})
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			// The processed attachment never made it onto a line, so its
			// preview handle has no owner to release it later.
			h.preview.Release(att.PreviewHandle)
			respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to attach image")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cart":           cart,
		"preview_handle": att.PreviewHandle,
	})
}

func (h *CartHandler) DetachImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	key := chi.URLParam(r, "item_key")
	cart, err := h.store.DetachImage(ctx, userID, key)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to detach image")
		return
	}

	respondJSON(w, http.StatusOK, CartResponse{Cart: cart})
}

// GetPreview serves the processed image bytes behind a preview handle.
// Handles die with the attachment, so a 404 here means the client holds
// a stale reference and should re-fetch the cart.
func (h *CartHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	data, ok := h.preview.Get(handle)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "preview not found")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

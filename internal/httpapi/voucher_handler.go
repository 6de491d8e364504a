package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kleankickx/storefront-api/internal/domain"
	"github.com/kleankickx/storefront-api/internal/store"
	"github.com/kleankickx/storefront-api/internal/vouchers"
)

type VoucherHandler struct {
	store    *store.Store
	vouchers *vouchers.Client
	timeout  time.Duration
}

func NewVoucherHandler(cartStore *store.Store, voucherClient *vouchers.Client, timeout time.Duration) *VoucherHandler {
	return &VoucherHandler{
		store:    cartStore,
		vouchers: voucherClient,
		timeout:  timeout,
	}
}

type ApplyVoucherRequestDTO struct {
	Code string `json:"code"`
}

// ApplyVoucher verifies the code with the backend and, if it is still
// redeemable, adds the zero-priced redemption line. A backend rejection
// also sweeps any line already redeeming that code out of the cart, so
// a dead voucher cannot linger into checkout.
func (h *VoucherHandler) ApplyVoucher(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req ApplyVoucherRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_code", "voucher code is required")
		return
	}

	voucher, err := h.vouchers.Verify(ctx, req.Code)
	if err != nil {
		if vouchers.IsRejection(err) {
			h.store.RemoveDeadVoucher(ctx, userID, req.Code, err.Error())
			respondError(w, http.StatusUnprocessableEntity, rejectionCode(err), err.Error())
			return
		}
		respondError(w, http.StatusServiceUnavailable, "voucher_service_unavailable",
			"could not verify voucher, please try again")
		return
	}

	cart := h.store.AddItem(ctx, userID, domain.CartItem{
		ServiceID:       voucher.ServiceID,
		Quantity:        1,
		IsVoucherRedeem: true,
		VoucherCode:     voucher.Code,
		VoucherValue:    voucher.Value.String(),
	})
	respondJSON(w, http.StatusCreated, CartResponse{Cart: cart})
}

func rejectionCode(err error) string {
	switch {
	case errors.Is(err, vouchers.ErrAlreadyRedeemed):
		return "voucher_already_redeemed"
	case errors.Is(err, vouchers.ErrExpired):
		return "voucher_expired"
	default:
		return "voucher_invalid"
	}
}

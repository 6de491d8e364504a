package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleankickx/storefront-api/internal/backend"
	"github.com/kleankickx/storefront-api/internal/domain"
	"github.com/kleankickx/storefront-api/internal/notify"
	"github.com/kleankickx/storefront-api/internal/store"
	"github.com/kleankickx/storefront-api/internal/vouchers"
)

func voucherBackend(t *testing.T, status string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vouchers/verify", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"code":       "GIFT-1",
			"service_id": "svc-1",
			"value":      "50",
			"status":     status,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestVoucherHandler(backendURL string) (*VoucherHandler, *store.Store) {
	cartStore := store.New(&memRepo{payloads: map[string][]byte{}}, noCache{}, notify.NewMemoryNotifier(), nil)
	client := vouchers.NewClient(backend.NewClient("vouchers", backendURL, 2*time.Second))
	return NewVoucherHandler(cartStore, client, 5*time.Second), cartStore
}

func TestApplyVoucher_AddsRedemptionLine(t *testing.T) {
	srv := voucherBackend(t, "valid")
	handler, _ := newTestVoucherHandler(srv.URL)

	body, _ := json.Marshal(ApplyVoucherRequestDTO{Code: "GIFT-1"})
	recorder := httptest.NewRecorder()
	handler.ApplyVoucher(recorder, authedRequest("POST", "/voucher", body))

	require.Equal(t, http.StatusCreated, recorder.Code)
	resp := decodeCart(t, recorder)
	require.Len(t, resp.Cart.Items, 1)
	line := resp.Cart.Items[0]
	assert.True(t, line.IsVoucherRedeem)
	assert.Equal(t, "GIFT-1", line.VoucherCode)
	assert.Equal(t, "svc-1", line.ServiceID)
	assert.Equal(t, "50", line.VoucherValue)
}

func TestApplyVoucher_RejectionSweepsDeadLine(t *testing.T) {
	srv := voucherBackend(t, "redeemed")
	handler, cartStore := newTestVoucherHandler(srv.URL)

	// A line from a previous session redeeming the now-dead code
	cartStore.AddItem(context.Background(), "user-1", domain.CartItem{
		ServiceID:       "svc-1",
		Quantity:        1,
		IsVoucherRedeem: true,
		VoucherCode:     "GIFT-1",
	})

	body, _ := json.Marshal(ApplyVoucherRequestDTO{Code: "GIFT-1"})
	recorder := httptest.NewRecorder()
	handler.ApplyVoucher(recorder, authedRequest("POST", "/voucher", body))

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	var resp ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&resp)
	assert.Equal(t, "voucher_already_redeemed", resp.Code)

	cart, _ := cartStore.Load(context.Background(), "user-1")
	assert.Empty(t, cart.Items)
}

func TestApplyVoucher_TransportFailureKeepsCart(t *testing.T) {
	srv := voucherBackend(t, "valid")
	srv.Close() // backend down

	handler, cartStore := newTestVoucherHandler(srv.URL)
	cartStore.AddItem(context.Background(), "user-1", domain.CartItem{
		ServiceID:       "svc-1",
		Quantity:        1,
		IsVoucherRedeem: true,
		VoucherCode:     "GIFT-1",
	})

	body, _ := json.Marshal(ApplyVoucherRequestDTO{Code: "GIFT-1"})
	recorder := httptest.NewRecorder()
	handler.ApplyVoucher(recorder, authedRequest("POST", "/voucher", body))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	cart, _ := cartStore.Load(context.Background(), "user-1")
	assert.Len(t, cart.Items, 1, "transport failure is not a verdict, line stays")
}

func TestApplyVoucher_EmptyCode(t *testing.T) {
	srv := voucherBackend(t, "valid")
	handler, _ := newTestVoucherHandler(srv.URL)

	body, _ := json.Marshal(ApplyVoucherRequestDTO{})
	recorder := httptest.NewRecorder()
	handler.ApplyVoucher(recorder, authedRequest("POST", "/voucher", body))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

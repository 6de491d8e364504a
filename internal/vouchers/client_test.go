package vouchers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kleankickx/storefront-api/internal/backend"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voucherServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vouchers/verify" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		switch req.Code {
		case "GIFT-OK":
			w.Write([]byte(`{"code":"GIFT-OK","service_id":"svc1","value":"150","status":"valid"}`))
		case "GIFT-USED":
			w.Write([]byte(`{"code":"GIFT-USED","status":"redeemed"}`))
		case "GIFT-OLD":
			w.Write([]byte(`{"code":"GIFT-OLD","status":"expired"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *Client {
	return NewClient(backend.NewClient("vouchers", voucherServer(t).URL, 2*time.Second))
}

func TestVerify_Valid(t *testing.T) {
	sut := newTestClient(t)

	v, err := sut.Verify(context.Background(), "GIFT-OK")
	require.NoError(t, err)
	assert.Equal(t, "svc1", v.ServiceID)
	assert.True(t, v.Value.Equal(decimal.NewFromInt(150)))
}

func TestVerify_AlreadyRedeemed(t *testing.T) {
	sut := newTestClient(t)

	_, err := sut.Verify(context.Background(), "GIFT-USED")
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
	assert.True(t, IsRejection(err))
}

func TestVerify_Expired(t *testing.T) {
	sut := newTestClient(t)

	_, err := sut.Verify(context.Background(), "GIFT-OLD")
	assert.ErrorIs(t, err, ErrExpired)
	assert.True(t, IsRejection(err))
}

func TestVerify_InvalidCode(t *testing.T) {
	sut := newTestClient(t)

	_, err := sut.Verify(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.True(t, IsRejection(err))
}

func TestVerify_TransportFailureIsNotRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	sut := NewClient(backend.NewClient("vouchers", srv.URL, 2*time.Second))

	_, err := sut.Verify(context.Background(), "GIFT-OK")
	require.Error(t, err)
	assert.False(t, IsRejection(err))
}

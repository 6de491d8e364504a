package discounts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kleankickx/storefront-api/internal/backend"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFetchEligibility_AllPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users/u1/discounts/signup":
			w.Write([]byte(`{"percentage":"10","is_active":true,"used":false}`))
		case "/users/u1/discounts/referral":
			w.Write([]byte(`{"percentage":"5","eligible":true}`))
		case "/users/u1/discounts/points":
			w.Write([]byte(`{"percentage":"5","is_applied":false}`))
		case "/promotions/active":
			w.Write([]byte(`{"discount_percentage":"20","start_date":"2026-06-01T00:00:00Z","end_date":"2026-07-01T00:00:00Z","is_active":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	sut := NewClient(backend.NewClient("discounts", srv.URL, 2*time.Second))
	e, warnings := sut.FetchEligibility(context.Background(), "u1")

	assert.Empty(t, warnings)
	assert.True(t, e.Signup.IsActive)
	assert.True(t, e.Signup.Percentage.Equal(decimal.NewFromInt(10)))
	assert.True(t, e.Referral.Eligible)
	assert.True(t, e.Promotion.IsActive)
	assert.Equal(t, time.June, e.Promotion.StartDate.Month())
}

func TestFetchEligibility_NotFoundMeansNotEligible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sut := NewClient(backend.NewClient("discounts", srv.URL, 2*time.Second))
	e, warnings := sut.FetchEligibility(context.Background(), "u1")

	assert.Empty(t, warnings)
	assert.False(t, e.Signup.IsActive)
	assert.False(t, e.Referral.Eligible)
	assert.True(t, e.Promotion.Percentage.IsZero())
}

func TestFetchEligibility_BackendFailureDegradesWithWarnings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sut := NewClient(backend.NewClient("discounts", srv.URL, 2*time.Second))
	e, warnings := sut.FetchEligibility(context.Background(), "u1")

	assert.Len(t, warnings, 4)
	assert.False(t, e.Signup.IsActive)
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleankickx/storefront-api/internal/backend"
	"github.com/kleankickx/storefront-api/internal/customers"
)

func newTestCustomerHandler(backendURL string) *CustomerHandler {
	client := customers.NewClient(backend.NewClient("customers", backendURL, 2*time.Second))
	return NewCustomerHandler(client, 5*time.Second)
}

func TestLookup_ReturnsMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers", r.URL.Path)
		require.Equal(t, "ama@example.com", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode([]map[string]string{
			{"id": "c1", "email": "ama@example.com", "first_name": "Ama"},
		})
	}))
	defer srv.Close()

	handler := newTestCustomerHandler(srv.URL)
	recorder := httptest.NewRecorder()
	handler.Lookup(recorder, authedRequest("GET", "/customers/lookup?q=ama%40example.com", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var resp struct {
		Query     string               `json:"query"`
		Customers []customers.Customer `json:"customers"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "ama@example.com", resp.Query)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "c1", resp.Customers[0].ID)
}

func TestLookup_BurstCoalescesToTrailingQuery(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode([]map[string]string{
			{"id": "c1", "email": r.URL.Query().Get("q")},
		})
	}))
	defer srv.Close()

	handler := newTestCustomerHandler(srv.URL)

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		recorder := httptest.NewRecorder()
		handler.Lookup(recorder, authedRequest("GET", "/customers/lookup?q=ama", nil))
		firstDone <- recorder
	}()
	time.Sleep(100 * time.Millisecond)

	second := httptest.NewRecorder()
	handler.Lookup(second, authedRequest("GET", "/customers/lookup?q=amara", nil))

	first := <-firstDone
	assert.Equal(t, http.StatusConflict, first.Code, "superseded keystroke gets 409")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, int32(1), hits.Load(), "only the trailing query reaches the backend")

	var resp struct {
		Query string `json:"query"`
	}
	require.NoError(t, json.NewDecoder(second.Body).Decode(&resp))
	assert.Equal(t, "amara", resp.Query)
}

func TestLookup_QueryTooShort(t *testing.T) {
	handler := newTestCustomerHandler("http://unused")

	recorder := httptest.NewRecorder()
	handler.Lookup(recorder, authedRequest("GET", "/customers/lookup?q=ab", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	var resp ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&resp)
	assert.Equal(t, "invalid_query", resp.Code)
}

func TestLookup_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	handler := newTestCustomerHandler(srv.URL)
	recorder := httptest.NewRecorder()
	handler.Lookup(recorder, authedRequest("GET", "/customers/lookup?q=ama", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

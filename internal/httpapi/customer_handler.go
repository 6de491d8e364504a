package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kleankickx/storefront-api/internal/customers"
)

type CustomerHandler struct {
	client  *customers.Client
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]*customers.DebouncedLookup
}

func NewCustomerHandler(customerClient *customers.Client, timeout time.Duration) *CustomerHandler {
	return &CustomerHandler{
		client:   customerClient,
		timeout:  timeout,
		sessions: make(map[string]*customers.DebouncedLookup),
	}
}

func (h *CustomerHandler) lookupFor(userID string) *customers.DebouncedLookup {
	h.mu.Lock()
	defer h.mu.Unlock()
	lookup, ok := h.sessions[userID]
	if !ok {
		lookup = customers.NewDebouncedLookup(h.client)
		h.sessions[userID] = lookup
	}
	return lookup
}

// Lookup searches customers by email or phone fragment for the staff
// order form. Each keystroke arrives as its own request; the per-user
// debounced lookup coalesces a burst into one trailing search, so
// superseded requests are answered with 409 and only the newest query
// reaches the backend.
func (h *CustomerHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 3 {
		respondError(w, http.StatusBadRequest, "invalid_query", "q must be at least 3 characters")
		return
	}

	resultCh := h.lookupFor(userID).Input(ctx, query)
	select {
	case res := <-resultCh:
		if errors.Is(res.Err, customers.ErrSuperseded) {
			respondError(w, http.StatusConflict, "superseded", "newer lookup input replaced this query")
			return
		}
		if res.Err != nil {
			respondError(w, http.StatusServiceUnavailable, "lookup_unavailable",
				"customer lookup unavailable, please try again")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"query":     res.Query,
			"customers": res.Customers,
		})
	case <-ctx.Done():
		respondError(w, http.StatusGatewayTimeout, "timeout", "customer lookup timed out")
	}
}

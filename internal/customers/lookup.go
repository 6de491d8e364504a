// Package customers looks up existing customers by email or phone for
// the staff order form.
package customers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/kleankickx/storefront-api/internal/backend"
	"github.com/kleankickx/storefront-api/internal/debounce"
)

// QuietPeriod is how long typing must pause before a lookup fires.
const QuietPeriod = 500 * time.Millisecond

// ErrSuperseded answers a lookup whose query was replaced by newer
// input before its search completed.
var ErrSuperseded = errors.New("lookup superseded by newer input")

type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Client struct {
	api *backend.Client
}

func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Search(ctx context.Context, query string) ([]Customer, error) {
	var out []Customer
	path := "/customers?q=" + url.QueryEscape(query)
	if err := c.api.GetJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("customer search failed: %w", err)
	}
	return out, nil
}

// Result is delivered once per Input: the search outcome for the query,
// or ErrSuperseded when newer input replaced it.
type Result struct {
	Query     string
	Customers []Customer
	Err       error
}

// DebouncedLookup coalesces one operator's keystrokes into a single
// trailing search per quiet period. Each Input gets exactly one Result
// on its channel: superseded inputs are answered with ErrSuperseded
// immediately, and only the newest input's search ever reaches the
// backend.
type DebouncedLookup struct {
	client *Client
	deb    *debounce.Debouncer

	mu     sync.Mutex
	gen    uint64
	query  string
	waiter chan Result
}

func NewDebouncedLookup(client *Client) *DebouncedLookup {
	return &DebouncedLookup{
		client: client,
		deb:    debounce.New(QuietPeriod),
	}
}

// Input records a new query fragment, rescheduling the trailing search
// and releasing the previous input's waiter with ErrSuperseded.
func (l *DebouncedLookup) Input(ctx context.Context, query string) <-chan Result {
	ch := make(chan Result, 1)

	l.mu.Lock()
	if l.waiter != nil {
		l.waiter <- Result{Query: l.query, Err: ErrSuperseded}
	}
	l.gen++
	myGen := l.gen
	l.query = query
	l.waiter = ch
	l.mu.Unlock()

	l.deb.Schedule(func() {
		customers, err := l.client.Search(ctx, query)

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.gen != myGen {
			return // superseded while in flight; its waiter was already answered
		}
		l.waiter = nil
		ch <- Result{Query: query, Customers: customers, Err: err}
	})

	return ch
}

// Stop deactivates the lookup; a pending waiter is released with
// ErrSuperseded and nothing fires afterwards.
func (l *DebouncedLookup) Stop() {
	l.mu.Lock()
	if l.waiter != nil {
		l.waiter <- Result{Query: l.query, Err: ErrSuperseded}
		l.waiter = nil
	}
	l.gen++
	l.mu.Unlock()
	l.deb.Stop()
}

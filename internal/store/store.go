// Package store owns cart state: the single writer of the durable cart
// snapshot. Views read through it and route every mutation through its
// operations; nothing else touches the snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kleankickx/storefront-api/internal/cache"
	"github.com/kleankickx/storefront-api/internal/domain"
	"github.com/kleankickx/storefront-api/internal/notify"
	"github.com/kleankickx/storefront-api/internal/repository"
	"github.com/kleankickx/storefront-api/internal/snapshot"
	"golang.org/x/sync/singleflight"
)

// ExpiryWindow is how long an untouched cart survives before a load
// discards it.
const ExpiryWindow = 30 * 24 * time.Hour

var (
	ErrItemNotFound = errors.New("item not found in cart")
	// ErrFixedQuantity rejects quantity changes on lines whose quantity
	// is not user-adjustable (voucher redemptions, free signup service).
	ErrFixedQuantity = errors.New("quantity is fixed for this line")
)

// PreviewReleaser frees the transient preview handle issued for an
// attached image. Consumers define this interface; the image registry
// implements it.
type PreviewReleaser interface {
	Release(handle string)
}

type Store struct {
	repo     repository.SnapshotRepository
	cache    cache.CartCache
	notifier notify.Notifier
	previews PreviewReleaser
	window   time.Duration
	now      func() time.Time
	sfg      singleflight.Group // Prevents cache stampede
	writes   sync.Map           // userID -> *sync.Mutex, serializes mutations per user
}

func New(repo repository.SnapshotRepository, c cache.CartCache, n notify.Notifier, p PreviewReleaser) *Store {
	return &Store{
		repo:     repo,
		cache:    c,
		notifier: n,
		previews: p,
		window:   ExpiryWindow,
		now:      time.Now,
	}
}

// Load returns the user's cart and whether a stale snapshot was
// discarded. It never fails: an absent, malformed or unknown-version
// snapshot degrades to an empty cart, and an expired one additionally
// reports expired=true after the snapshot is deleted and the one-time
// notification queued.
func (s *Store) Load(ctx context.Context, userID string) (*domain.Cart, bool) {
	type loaded struct {
		cart    *domain.Cart
		expired bool
	}

	v, _, _ := s.sfg.Do(userID, func() (interface{}, error) {
		if cached, err := s.cache.Get(ctx, userID); err == nil {
			return loaded{cart: cached}, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, expired := s.loadSnapshot(ctx, userID)

		// Backfill before returning so a mutation issued right after
		// this load cannot be overwritten by a stale fill.
		if errSet := s.cache.Set(ctx, userID, cart); errSet != nil {
			log.Printf("cache set error: %v", errSet)
		}

		return loaded{cart: cart, expired: expired}, nil
	})

	// Every waiter of one flight shares the same result, so each caller
	// gets its own copy; mutating a returned cart must never reach
	// another caller's view.
	l := v.(loaded)
	return cloneCart(l.cart), l.expired
}

func (s *Store) loadSnapshot(ctx context.Context, userID string) (*domain.Cart, bool) {
	raw, err := s.repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			log.Printf("snapshot get error for user %s: %v", userID, err)
		}
		return s.emptyCart(userID), false
	}

	snap, err := snapshot.Decode(raw)
	if err != nil {
		// Deliberate reset: a payload this service cannot interpret is
		// dropped rather than carried forward.
		log.Printf("discarding undecodable snapshot for user %s: %v", userID, err)
		s.deleteSnapshot(ctx, userID)
		return s.emptyCart(userID), false
	}

	if snap.Age(s.now()) > s.window {
		s.deleteSnapshot(ctx, userID)
		s.queueNotification(ctx, userID, domain.NotificationCartExpired,
			"Your cart expired after 30 days of inactivity and has been emptied.")
		return s.emptyCart(userID), true
	}

	return &domain.Cart{
		UserID:    userID,
		Items:     snap.Items,
		UpdatedAt: snap.Timestamp,
	}, false
}

// AddItem merges into an existing line (same service, and for voucher
// redemptions the same code) by incrementing its quantity, or appends a
// new line. A non-positive quantity counts as one.
func (s *Store) AddItem(ctx context.Context, userID string, item domain.CartItem) *domain.Cart {
	defer s.lockUser(userID)()
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	cart, _ := s.Load(ctx, userID)
	if existing := cart.Find(item.Key()); existing != nil {
		existing.Quantity += item.Quantity
	} else {
		item.AddedAt = s.now()
		cart.Items = append(cart.Items, item)
	}

	s.persist(ctx, userID, cart)
	return cart
}

// UpdateQuantity adjusts a line by delta. An unknown key is a no-op; a
// resulting quantity of zero or less removes the line. Voucher-redeem
// and free-signup lines have a fixed quantity of one and reject the
// adjustment; they leave the cart through removal only.
func (s *Store) UpdateQuantity(ctx context.Context, userID, key string, delta int) (*domain.Cart, error) {
	defer s.lockUser(userID)()
	cart, _ := s.Load(ctx, userID)
	item := cart.Find(key)
	if item == nil {
		return cart, nil
	}
	if item.IsVoucherRedeem || item.IsFreeSignupService {
		return cart, ErrFixedQuantity
	}

	if item.Quantity+delta <= 0 {
		s.dropItem(cart, key)
	} else {
		item.Quantity += delta
	}

	s.persist(ctx, userID, cart)
	return cart, nil
}

func (s *Store) RemoveItem(ctx context.Context, userID, key string) *domain.Cart {
	defer s.lockUser(userID)()
	cart, _ := s.Load(ctx, userID)
	if cart.Find(key) == nil {
		return cart
	}

	s.dropItem(cart, key)
	s.persist(ctx, userID, cart)
	return cart
}

// RemoveDeadVoucher drops every line redeeming the given code and queues
// a notification, so a checkout can never proceed against a voucher the
// backend has rejected.
func (s *Store) RemoveDeadVoucher(ctx context.Context, userID, code, reason string) *domain.Cart {
	defer s.lockUser(userID)()
	cart, _ := s.Load(ctx, userID)

	kept := cart.Items[:0]
	removed := false
	for _, item := range cart.Items {
		if item.IsVoucherRedeem && item.VoucherCode == code {
			s.releasePreview(item.Image)
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return cart
	}

	cart.Items = kept
	s.persist(ctx, userID, cart)
	s.queueNotification(ctx, userID, domain.NotificationVoucherRemoved,
		fmt.Sprintf("Voucher %s was removed from your cart: %s.", code, reason))
	return cart
}

func (s *Store) AttachImage(ctx context.Context, userID, serviceID string, img domain.Image) (*domain.Cart, error) {
	defer s.lockUser(userID)()
	cart, _ := s.Load(ctx, userID)
	item := cart.Find(serviceID)
	if item == nil {
		return cart, ErrItemNotFound
	}

	s.releasePreview(item.Image)
	item.Image = &img

	s.persist(ctx, userID, cart)
	return cart, nil
}

func (s *Store) DetachImage(ctx context.Context, userID, serviceID string) (*domain.Cart, error) {
	defer s.lockUser(userID)()
	cart, _ := s.Load(ctx, userID)
	item := cart.Find(serviceID)
	if item == nil {
		return cart, ErrItemNotFound
	}

	s.releasePreview(item.Image)
	item.Image = nil

	s.persist(ctx, userID, cart)
	return cart, nil
}

func (s *Store) Clear(ctx context.Context, userID string) *domain.Cart {
	defer s.lockUser(userID)()
	cart, _ := s.Load(ctx, userID)
	for _, item := range cart.Items {
		s.releasePreview(item.Image)
	}
	cart.Items = []domain.CartItem{}

	s.persist(ctx, userID, cart)
	return cart
}

// persist writes the snapshot before returning to the caller. A write
// failure is logged, never propagated: the in-memory cart stays
// authoritative for the session, so the cache is updated regardless.
func (s *Store) persist(ctx context.Context, userID string, cart *domain.Cart) {
	now := s.now()
	cart.UpdatedAt = now

	payload, err := snapshot.Encode(cart.Items, now)
	if err != nil {
		log.Printf("snapshot encode error for user %s: %v", userID, err)
	} else if errPut := s.repo.Put(ctx, userID, payload, now); errPut != nil {
		log.Printf("snapshot put error for user %s: %v", userID, errPut)
	}

	if errSet := s.cache.Set(ctx, userID, cart); errSet != nil {
		log.Printf("cache set error: %v", errSet)
	}
}

// lockUser serializes the read-modify-write cycle of mutations for one
// user, so concurrent requests cannot drop each other's changes.
func (s *Store) lockUser(userID string) func() {
	v, _ := s.writes.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Store) emptyCart(userID string) *domain.Cart {
	now := s.now()
	return &domain.Cart{
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// cloneCart copies the cart deeply enough that a caller owning the
// result cannot reach another caller's items or images.
func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = make([]domain.CartItem, len(c.Items))
	copy(out.Items, c.Items)
	for i := range out.Items {
		if out.Items[i].Image != nil {
			img := *out.Items[i].Image
			out.Items[i].Image = &img
		}
	}
	return &out
}

func (s *Store) dropItem(cart *domain.Cart, key string) {
	for i, item := range cart.Items {
		if item.Key() == key {
			s.releasePreview(item.Image)
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return
		}
	}
}

func (s *Store) releasePreview(img *domain.Image) {
	if img == nil || img.PreviewHandle == "" || s.previews == nil {
		return
	}
	s.previews.Release(img.PreviewHandle)
}

func (s *Store) deleteSnapshot(ctx context.Context, userID string) {
	if err := s.repo.Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrSnapshotNotFound) {
		log.Printf("snapshot delete error for user %s: %v", userID, err)
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache delete error: %v", err)
	}
}

func (s *Store) queueNotification(ctx context.Context, userID string, kind domain.NotificationKind, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, kind, message); err != nil {
		log.Printf("notify error for user %s: %v", userID, err)
	}
}

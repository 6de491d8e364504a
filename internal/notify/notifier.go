package notify

import (
	"context"
	"sync"

	"github.com/kleankickx/storefront-api/internal/domain"
)

// Notifier queues a one-time user-facing notification for delivery.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind domain.NotificationKind, message string) error
}

// MemoryNotifier collects notifications in memory, for tests.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (m *MemoryNotifier) Notify(_ context.Context, userID string, kind domain.NotificationKind, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, domain.Notification{
		UserID:  userID,
		Kind:    kind,
		Message: message,
	})
	return nil
}

func (m *MemoryNotifier) Sent() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

package image

import (
	"sync"

	"github.com/google/uuid"
)

// PreviewRegistry issues transient display handles for attachment
// previews. Handles are not persisted and must be released when the
// attachment is replaced or removed, or the bytes stay pinned.
type PreviewRegistry struct {
	mu       sync.RWMutex
	previews map[string][]byte
}

func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{previews: make(map[string][]byte)}
}

func (r *PreviewRegistry) Issue(data []byte) string {
	handle := uuid.NewString()
	r.mu.Lock()
	r.previews[handle] = data
	r.mu.Unlock()
	return handle
}

func (r *PreviewRegistry) Get(handle string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.previews[handle]
	return data, ok
}

func (r *PreviewRegistry) Release(handle string) {
	r.mu.Lock()
	delete(r.previews, handle)
	r.mu.Unlock()
}

func (r *PreviewRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.previews)
}

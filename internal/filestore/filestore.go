// Package filestore provides temporary blob storage keyed by opaque, freshly
// minted handles (not derived from content) behind an abstract interface, so FileRef handles can be passed around an
// execution without callers needing to know where bytes actually live.
package filestore

import (
	"sync"

	"github.com/google/uuid"
)

// Metadata describes a stored blob without its bytes.
type Metadata struct {
	Handle   string
	MimeType string
	Filename string
	Size     int
}

// StoreOptions configures an optional mime type and filename for Store.
type StoreOptions struct {
	MimeType string
	Filename string
}

// Store is the capability set file handle stores must implement. Handles
// are opaque fresh tokens with no required ordering between them.
type Store interface {
	// Store saves data under a freshly minted handle.
	Store(data []byte, opts StoreOptions) (Metadata, error)
	// Retrieve returns the bytes for handle, or ok=false if the handle was
	// never stored or has since been deleted.
	Retrieve(handle string) (data []byte, ok bool)
	// GetMetadata returns metadata for handle without its bytes.
	GetMetadata(handle string) (Metadata, bool)
	// Delete removes handle. Deleting an absent handle is not an error.
	Delete(handle string)
}

// Memory is the reference Store implementation: an in-memory map guarded by
// a RWMutex, with no time-based expiry. A handle's lifetime is governed
// entirely by explicit Delete calls.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	data []byte
	meta Metadata
}

// NewMemory creates an empty in-memory file handle store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

func (m *Memory) Store(data []byte, opts StoreOptions) (Metadata, error) {
	handle := uuid.NewString()
	meta := Metadata{
		Handle:   handle,
		MimeType: opts.MimeType,
		Filename: opts.Filename,
		Size:     len(data),
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.entries[handle] = entry{data: buf, meta: meta}
	m.mu.Unlock()

	return meta, nil
}

func (m *Memory) Retrieve(handle string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[handle]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true
}

func (m *Memory) GetMetadata(handle string) (Metadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[handle]
	if !ok {
		return Metadata{}, false
	}
	return e.meta, true
}

func (m *Memory) Delete(handle string) {
	m.mu.Lock()
	delete(m.entries, handle)
	m.mu.Unlock()
}

// Package preview keeps client-local references to in-memory image bytes.
//
// A [Handle] plays the role of a browser object URL: it lets the UI render
// the original image without a network round trip and stays reachable only
// until it is revoked.
package preview

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/colorize/internal/shared"
)

// ErrRevoked is returned when a handle has been released or never existed.
var ErrRevoked = fmt.Errorf("preview reference revoked")

// Handle identifies a live preview.
type Handle struct {
	ID        string
	URL       string
	MediaType string
	Size      int64
}

// Blob is the content behind a [Handle].
type Blob struct {
	Name      string
	MediaType string
	Content   []byte
	CreatedAt time.Time
}

// Store allocates and releases preview references.
type Store struct {
	mu    sync.RWMutex
	base  string
	blobs map[string]*Blob
}

// NewStore creates a Store whose handle URLs are rooted at base.
//
// An empty base produces blob: URLs that are only meaningful in-process.
func NewStore(base string) *Store {
	return &Store{
		base:  strings.TrimRight(base, "/"),
		blobs: make(map[string]*Blob),
	}
}

// SetBase changes the root used for handles created afterwards, e.g. once a local server is listening.
func (s *Store) SetBase(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = strings.TrimRight(base, "/")
}

// Create registers content and returns its [Handle].
func (s *Store) Create(name, mediaType string, content []byte) Handle {
	id := shared.GenerateID()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[id] = &Blob{
		Name:      name,
		MediaType: mediaType,
		Content:   content,
		CreatedAt: time.Now(),
	}

	return Handle{
		ID:        id,
		URL:       s.urlFor(id),
		MediaType: mediaType,
		Size:      int64(len(content)),
	}
}

// URL returns the current URL for id using the store's base.
func (s *Store) URL(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.urlFor(id)
}

func (s *Store) urlFor(id string) string {
	if s.base == "" {
		return "blob:colorize/" + id
	}
	return s.base + "/preview/" + id
}

// Lookup returns the blob for id or [ErrRevoked].
func (s *Store) Lookup(id string) (*Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRevoked, id)
	}
	return b, nil
}

// Revoke releases id. Revoking an unknown id is a no-op.
func (s *Store) Revoke(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	delete(s.blobs, id)
	s.mu.Unlock()
}

// Len reports the number of live references.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

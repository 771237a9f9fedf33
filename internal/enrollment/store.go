// Package enrollment holds the faces registered during a session.
package enrollment

import (
	"fmt"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/domain"
)

const idPrefix = "user"

// Store is an insertion-ordered, append-only set of enrolled faces kept in
// memory. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	faces   []domain.EnrolledFace
	counter int
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Add copies the descriptor into a new entry with the next sequential id.
func (s *Store) Add(descriptor domain.Descriptor) (domain.EnrolledFace, error) {
	if !descriptor.Valid() {
		return domain.EnrolledFace{}, domain.ErrInvalidDescriptor.WithError(
			fmt.Errorf("got %d values, want %d", len(descriptor), domain.DescriptorSize))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	face := domain.EnrolledFace{
		ID:         fmt.Sprintf("%s%d", idPrefix, s.counter),
		Descriptor: descriptor.Clone(),
		CreatedAt:  s.now(),
	}
	s.faces = append(s.faces, face)

	return face, nil
}

// List returns the entries in insertion order. Descriptors are copied.
func (s *Store) List() []domain.EnrolledFace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EnrolledFace, len(s.faces))
	for i, f := range s.faces {
		f.Descriptor = f.Descriptor.Clone()
		out[i] = f
	}
	return out
}

// IDs returns the enrolled identifiers in insertion order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.faces))
	for i, f := range s.faces {
		ids[i] = f.ID
	}
	return ids
}

// Len returns the number of enrolled faces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.faces)
}

// Nearest returns the enrolled face with the smallest Euclidean distance to
// query. On equal distances the earlier entry wins. ok is false when the
// store is empty.
func (s *Store) Nearest(query domain.Descriptor) (result domain.MatchResult, ok bool, err error) {
	if !query.Valid() {
		return domain.MatchResult{}, false, domain.ErrInvalidDescriptor.WithError(
			fmt.Errorf("query has %d values, want %d", len(query), domain.DescriptorSize))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, f := range s.faces {
		d := Distance(query, f.Descriptor)
		if i == 0 || d < result.Distance {
			result = domain.MatchResult{ID: f.ID, Distance: d}
		}
	}

	return result, len(s.faces) > 0, nil
}

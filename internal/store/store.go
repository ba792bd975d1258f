package store

// Package store provides client-side caches of backend collections with
// soft-delete (trash) semantics. The backend remains authoritative; these
// caches mirror its last-known state and attempt no conflict resolution.

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tractify/tractify-go/internal/backend"
)

// Fetcher issues authenticated backend calls. *service.Fetch satisfies it.
type Fetcher interface {
	JSON(ctx context.Context, method, path string, body, out any) error
}

// TrashEntry holds a soft-deleted item together with the pristine copy used
// for restore.
type TrashEntry[T any] struct {
	Item      T         `json:"item"`
	Original  T         `json:"original"`
	DeletedAt time.Time `json:"deleted_at"`
}

// Options groups dependencies for a Store.
type Options[T any] struct {
	Resource string         // required: backend resource name, e.g. "parcels"
	Fetch    Fetcher        // required
	ID       func(T) string // required: extracts the record id
	Logger   *slog.Logger   // optional
}

// Store is a reactive cache over one backend collection.
type Store[T any] struct {
	resource string
	fetch    Fetcher
	idOf     func(T) string
	logger   *slog.Logger

	// now is swapped in tests.
	now func() time.Time

	mu    sync.Mutex
	live  []T
	trash []TrashEntry[T]
}

// New constructs a Store.
func New[T any](opts Options[T]) *Store[T] {
	if opts.Resource == "" {
		panic("Resource is required")
	}
	if opts.Fetch == nil {
		panic("Fetcher is required")
	}
	if opts.ID == nil {
		panic("ID extractor is required")
	}
	return &Store[T]{
		resource: opts.Resource,
		fetch:    opts.Fetch,
		idOf:     opts.ID,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// List fetches the collection and replaces the live cache.
func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := s.fetch.JSON(ctx, http.MethodGet, backend.ResourcePath(s.resource), nil, &items); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.resource, err)
	}

	s.mu.Lock()
	s.live = items
	s.mu.Unlock()

	return s.Live(), nil
}

// Add creates the item on the backend and appends the created record.
func (s *Store[T]) Add(ctx context.Context, item T) (T, error) {
	var created T
	if err := s.fetch.JSON(ctx, http.MethodPost, backend.ResourcePath(s.resource), item, &created); err != nil {
		var zero T
		return zero, fmt.Errorf("add %s: %w", s.resource, err)
	}

	s.mu.Lock()
	s.live = append(s.live, created)
	s.mu.Unlock()

	return created, nil
}

// Update patches the record by id and splices the updated copy into the
// live cache.
func (s *Store[T]) Update(ctx context.Context, id string, patch T) (T, error) {
	var updated T
	path := backend.ResourcePath(s.resource, id)
	if err := s.fetch.JSON(ctx, http.MethodPut, path, patch, &updated); err != nil {
		var zero T
		return zero, fmt.Errorf("update %s %s: %w", s.resource, id, err)
	}

	s.mu.Lock()
	for i := range s.live {
		if s.idOf(s.live[i]) == id {
			s.live[i] = updated
			break
		}
	}
	s.mu.Unlock()

	return updated, nil
}

// MoveToTrash soft-deletes: the record leaves the live list and enters the
// trash list with a pristine copy and a deletion timestamp.
func (s *Store[T]) MoveToTrash(ctx context.Context, id string) error {
	path := backend.ResourcePath(s.resource, id, "trash")
	if err := s.fetch.JSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("trash %s %s: %w", s.resource, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.live {
		if s.idOf(s.live[i]) != id {
			continue
		}
		item := s.live[i]
		s.live = append(s.live[:i], s.live[i+1:]...)
		s.trash = append(s.trash, TrashEntry[T]{
			Item:      item,
			Original:  item,
			DeletedAt: s.now(),
		})
		return nil
	}
	return fmt.Errorf("trash %s %s: not in live cache", s.resource, id)
}

// RestoreFromTrash reverses MoveToTrash, reinstating the pristine copy.
func (s *Store[T]) RestoreFromTrash(ctx context.Context, id string) error {
	path := backend.ResourcePath(s.resource, id, "restore")
	if err := s.fetch.JSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("restore %s %s: %w", s.resource, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.trash {
		if s.idOf(s.trash[i].Original) != id {
			continue
		}
		s.live = append(s.live, s.trash[i].Original)
		s.trash = append(s.trash[:i], s.trash[i+1:]...)
		return nil
	}
	return fmt.Errorf("restore %s %s: not in trash", s.resource, id)
}

// DeletePermanent removes the record for good, from the backend and from
// whichever local list still holds it.
func (s *Store[T]) DeletePermanent(ctx context.Context, id string) error {
	path := backend.ResourcePath(s.resource, id)
	if err := s.fetch.JSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete %s %s: %w", s.resource, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.live {
		if s.idOf(s.live[i]) == id {
			s.live = append(s.live[:i], s.live[i+1:]...)
			break
		}
	}
	for i := range s.trash {
		if s.idOf(s.trash[i].Original) == id {
			s.trash = append(s.trash[:i], s.trash[i+1:]...)
			break
		}
	}
	return nil
}

// Live returns a copy of the live cache.
func (s *Store[T]) Live() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.live))
	copy(out, s.live)
	return out
}

// Trashed returns a copy of the trash list.
func (s *Store[T]) Trashed() []TrashEntry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TrashEntry[T], len(s.trash))
	copy(out, s.trash)
	return out
}

// Reset drops both caches. Registered as a logout cleanup so no
// authenticated data survives the session.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = nil
	s.trash = nil
	if s.logger != nil {
		s.logger.Debug("store cache reset", slog.String("resource", s.resource))
	}
}

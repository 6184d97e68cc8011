package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bassista/go_wind/internal/logger"
	"github.com/bassista/go_wind/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var (
	ErrSpotNotFound  = repository.ErrSpotNotFound
	ErrSpotExists    = errors.New("spot already exists")
	ErrOrderMismatch = errors.New("order must list every spot exactly once")
	ErrInvalid       = errors.New("invalid input")
	ErrUnavailable   = errors.New("spots file unavailable")
)

// Store keeps an in-memory copy of the spots document. Every mutation is
// written through the Saver before it becomes visible; a failed save leaves
// the previous document in place.
type Store struct {
	mu        sync.RWMutex
	data      repository.Document
	saver     repository.Saver
	validator *validator.Validate
	loadErr   error
}

// NewStore creates a store seeded with doc. A nil saver keeps changes in memory only.
func NewStore(doc repository.Document, saver repository.Saver) *Store {
	doc.ApplyDefaults()
	return &Store{data: doc, saver: saver, validator: repository.NewValidator()}
}

// Fail marks the store unavailable until the next Replace. Reads and writes
// then return ErrUnavailable so a broken spots file is never overwritten.
func (s *Store) Fail(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = cause
}

// Snapshot returns a deep copy of the cached data.
func (s *Store) Snapshot() (repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return repository.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, s.loadErr)
	}
	return cloneData(s.data)
}

// Replace swaps the cached data without persisting it. Used by the file watcher.
func (s *Store) Replace(doc repository.Document) error {
	cloned, err := cloneData(doc)
	if err != nil {
		return err
	}
	cloned.ApplyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = cloned
	s.loadErr = nil
	return nil
}

// AddSpot appends a new spot at the end of the list.
func (s *Store) AddSpot(ctx context.Context, spot repository.Spot) (repository.Document, error) {
	spot.Invalid = ""
	if err := s.validateSpot(spot); err != nil {
		return repository.Document{}, err
	}
	return s.mutate(ctx, logger.WithSpot("cache", spot.Name), "add spot", func(doc *repository.Document) error {
		if doc.Spots.Index(spot.Name) >= 0 {
			return fmt.Errorf("%w: %s", ErrSpotExists, spot.Name)
		}
		doc.Spots = append(doc.Spots, spot)
		return nil
	})
}

// UpdateSpot replaces the named spot in place. When spot.Name differs from
// name the spot is renamed in the same step; an empty spot.Name keeps name.
func (s *Store) UpdateSpot(ctx context.Context, name string, spot repository.Spot) (repository.Document, error) {
	if spot.Name == "" {
		spot.Name = name
	}
	spot.Invalid = ""
	if err := s.validateSpot(spot); err != nil {
		return repository.Document{}, err
	}
	return s.mutate(ctx, logger.WithSpot("cache", name), "update spot", func(doc *repository.Document) error {
		i := doc.Spots.Index(name)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrSpotNotFound, name)
		}
		if spot.Name != name {
			if doc.Spots.Index(spot.Name) >= 0 {
				return fmt.Errorf("%w: %s", ErrSpotExists, spot.Name)
			}
			renameViewRefs(doc, name, spot.Name)
		}
		doc.Spots[i] = spot
		return nil
	})
}

// RenameSpot changes a spot's name, keeping its position and every view
// reference to it.
func (s *Store) RenameSpot(ctx context.Context, oldName, newName string) (repository.Document, error) {
	return s.mutate(ctx, logger.WithSpot("cache", oldName), "rename spot", func(doc *repository.Document) error {
		i := doc.Spots.Index(oldName)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrSpotNotFound, oldName)
		}
		if doc.Spots[i].Invalid != "" {
			return fmt.Errorf("%w: spot %s cannot be decoded, fix or replace it first", ErrInvalid, oldName)
		}
		if oldName == newName {
			return nil
		}
		if doc.Spots.Index(newName) >= 0 {
			return fmt.Errorf("%w: %s", ErrSpotExists, newName)
		}
		if err := s.validateSpotName(newName); err != nil {
			return err
		}
		doc.Spots[i].Name = newName
		renameViewRefs(doc, oldName, newName)
		return nil
	})
}

// RemoveSpot deletes a spot and drops it from every view.
func (s *Store) RemoveSpot(ctx context.Context, name string) (repository.Document, error) {
	return s.mutate(ctx, logger.WithSpot("cache", name), "remove spot", func(doc *repository.Document) error {
		i := doc.Spots.Index(name)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrSpotNotFound, name)
		}
		doc.Spots = append(doc.Spots[:i], doc.Spots[i+1:]...)
		for vi := range doc.Views {
			kept := doc.Views[vi].Spots[:0]
			for _, ref := range doc.Views[vi].Spots {
				if ref != name {
					kept = append(kept, ref)
				}
			}
			doc.Views[vi].Spots = kept
		}
		return nil
	})
}

// ReorderSpots puts the spots in the given order. names must be a
// permutation of the current spot names.
func (s *Store) ReorderSpots(ctx context.Context, names []string) (repository.Document, error) {
	return s.mutate(ctx, logger.WithComponent("cache"), "reorder spots", func(doc *repository.Document) error {
		if len(names) != len(doc.Spots) {
			return fmt.Errorf("%w: got %d names for %d spots", ErrOrderMismatch, len(names), len(doc.Spots))
		}
		reordered := make(repository.SpotList, 0, len(names))
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			if seen[name] {
				return fmt.Errorf("%w: %s listed twice", ErrOrderMismatch, name)
			}
			seen[name] = true
			spot, ok := doc.Spots.Find(name)
			if !ok {
				return fmt.Errorf("%w: unknown spot %s", ErrOrderMismatch, name)
			}
			reordered = append(reordered, spot)
		}
		doc.Spots = reordered
		return nil
	})
}

// SetRotation updates the dashboard rotation settings.
func (s *Store) SetRotation(ctx context.Context, rotation repository.Rotation) (repository.Document, error) {
	if err := s.validator.Struct(rotation); err != nil {
		return repository.Document{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return s.mutate(ctx, logger.WithComponent("cache"), "set rotation", func(doc *repository.Document) error {
		doc.Rotation = rotation
		return nil
	})
}

// mutate applies fn to a copy of the document, persists the copy and only
// then makes it current.
func (s *Store) mutate(ctx context.Context, log *logrus.Entry, op string, fn func(doc *repository.Document) error) (repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return repository.Document{}, fmt.Errorf("%w: %v", ErrUnavailable, s.loadErr)
	}
	next, err := cloneData(s.data)
	if err != nil {
		return repository.Document{}, err
	}
	if err := fn(&next); err != nil {
		log.Debugf("%s rejected: %v", op, err)
		return repository.Document{}, err
	}

	if s.saver != nil {
		if err := s.saver.Save(ctx, &next); err != nil {
			log.Errorf("%s: save failed, keeping previous spots: %v", op, err)
			return repository.Document{}, fmt.Errorf("persist spots: %w", err)
		}
	}

	s.data = next
	log.Debugf("%s done (%d spots)", op, len(next.Spots))
	return cloneData(next)
}

func (s *Store) validateSpot(spot repository.Spot) error {
	if err := repository.ValidateSpot(s.validator, spot); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func (s *Store) validateSpotName(name string) error {
	if err := s.validator.Var(name, repository.SpotNameRule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func renameViewRefs(doc *repository.Document, oldName, newName string) {
	for vi := range doc.Views {
		for si, ref := range doc.Views[vi].Spots {
			if ref == oldName {
				doc.Views[vi].Spots[si] = newName
			}
		}
	}
}

// cloneData deep-copies the document to avoid shared slices between cache and callers.
func cloneData(doc repository.Document) (repository.Document, error) {
	bytes, err := json.Marshal(doc)
	if err != nil {
		return repository.Document{}, err
	}
	var copy repository.Document
	if err := json.Unmarshal(bytes, &copy); err != nil {
		return repository.Document{}, err
	}
	return copy, nil
}

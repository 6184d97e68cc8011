package controller

import (
	"context"
	"fmt"

	"github.com/bassista/go_wind/internal/cache"
	"github.com/bassista/go_wind/internal/repository"
	"github.com/go-playground/validator/v10"
)

// SpotCrudService implements CrudService for spots.
type SpotCrudService struct {
	Store cache.SpotStore
}

func (s *SpotCrudService) All() ([]repository.Spot, error) {
	doc, err := s.Store.Snapshot()
	if err != nil {
		return nil, err
	}
	return doc.Spots, nil
}

func (s *SpotCrudService) Get(name string) (repository.Spot, error) {
	doc, err := s.Store.Snapshot()
	if err != nil {
		return repository.Spot{}, err
	}
	spot, ok := doc.Spots.Find(name)
	if !ok {
		return repository.Spot{}, fmt.Errorf("%w: %s", cache.ErrSpotNotFound, name)
	}
	return spot, nil
}

func (s *SpotCrudService) Create(ctx context.Context, item repository.Spot) ([]repository.Spot, error) {
	doc, err := s.Store.AddSpot(ctx, item)
	if err != nil {
		return nil, err
	}
	return doc.Spots, nil
}

func (s *SpotCrudService) Update(ctx context.Context, name string, item repository.Spot) ([]repository.Spot, error) {
	doc, err := s.Store.UpdateSpot(ctx, name, item)
	if err != nil {
		return nil, err
	}
	return doc.Spots, nil
}

func (s *SpotCrudService) Remove(ctx context.Context, name string) ([]repository.Spot, error) {
	doc, err := s.Store.RemoveSpot(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.Spots, nil
}

// SpotCrudValidator implements CrudValidator for spots. An empty name is
// accepted on update, where the path name applies.
type SpotCrudValidator struct {
	validator *validator.Validate
}

func (v *SpotCrudValidator) Validate(item repository.Spot) error {
	if item.Name == "" {
		item.Name = "unnamed"
	}
	return repository.ValidateSpot(v.validator, item)
}

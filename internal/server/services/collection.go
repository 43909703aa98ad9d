package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/collections"
)

// UsersCollection is served from the credential store and cannot be
// written through the generic document routes.
const UsersCollection = "users"

// CollectionService fronts the document store with collection name checks.
type CollectionService struct {
	repo collections.Repository
}

func NewCollectionService(repo collections.Repository) *CollectionService {
	return &CollectionService{repo: repo}
}

// ValidCollectionName accepts 1-64 characters of [A-Za-z0-9_-].
func ValidCollectionName(name string) bool {
	if len(name) == 0 || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

func (s *CollectionService) check(name string) error {
	if !ValidCollectionName(name) || name == UsersCollection {
		return fmt.Errorf("%w: invalid collection %q", common.ErrValidation, name)
	}
	return nil
}

func (s *CollectionService) Create(ctx context.Context, name string, body map[string]any) (*models.Document, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, name, body)
}

func (s *CollectionService) Get(ctx context.Context, name string, id int64) (*models.Document, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, name, id)
}

// List treats every query parameter as an equality filter; for repeated
// parameters the first value is used.
func (s *CollectionService) List(ctx context.Context, name string, query url.Values) ([]*models.Document, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	var filter map[string]string
	if len(query) > 0 {
		filter = make(map[string]string, len(query))
		for k := range query {
			filter[k] = query.Get(k)
		}
	}
	return s.repo.List(ctx, name, filter)
}

func (s *CollectionService) Replace(ctx context.Context, name string, id int64, body map[string]any) (*models.Document, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return s.repo.Replace(ctx, name, id, body)
}

func (s *CollectionService) Patch(ctx context.Context, name string, id int64, body map[string]any) (*models.Document, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return s.repo.Patch(ctx, name, id, body)
}

func (s *CollectionService) Delete(ctx context.Context, name string, id int64) error {
	if err := s.check(name); err != nil {
		return err
	}
	return s.repo.Delete(ctx, name, id)
}

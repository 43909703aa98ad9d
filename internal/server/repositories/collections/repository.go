// Package collections stores the generic JSON documents served under
// /{collection}: products, cart lines, orders and whatever else the front
// end posts.
package collections

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// Repository persists documents grouped by collection name.
//
// Ids are allocated per collection as max(existing)+1. Bodies never carry
// the "id" key; it is stripped on write. Missing documents are reported as
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, collection string, body map[string]any) (*models.Document, error)
	Get(ctx context.Context, collection string, id int64) (*models.Document, error)
	// List returns the documents whose top-level fields equal the given
	// filter values, compared as text. A nil filter returns everything.
	List(ctx context.Context, collection string, filter map[string]string) ([]*models.Document, error)
	Replace(ctx context.Context, collection string, id int64, body map[string]any) (*models.Document, error)
	// Patch merges body into the stored document, top-level keys only.
	Patch(ctx context.Context, collection string, id int64, body map[string]any) (*models.Document, error)
	Delete(ctx context.Context, collection string, id int64) error
}

func withoutID(body map[string]any) map[string]any {
	out := make(map[string]any, len(body))
	for k, v := range body {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}

func encodeBody(body map[string]any) ([]byte, error) {
	return json.Marshal(withoutID(body))
}

func decodeBody(raw []byte) (map[string]any, error) {
	body := map[string]any{}
	if len(raw) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

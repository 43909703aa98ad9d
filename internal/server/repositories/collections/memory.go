package collections

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// memoryCollection tracks the highest live id; ids are assigned as max+1,
// so deleting the last document frees its id as in PostgreSQL.
type memoryCollection struct {
	docs  map[int64]*models.Document
	maxID int64
}

// MemoryRepository is the in-process document store used when no DSN is
// configured.
type MemoryRepository struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	now         func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		collections: map[string]*memoryCollection{},
		now:         time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, collection string, body map[string]any) (*models.Document, error) {
	stored, err := cloneBody(withoutID(body))
	if err != nil {
		return nil, common.ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.collections[collection]
	if !ok {
		c = &memoryCollection{docs: map[int64]*models.Document{}}
		r.collections[collection] = c
	}
	c.maxID++
	doc := &models.Document{Collection: collection, ID: c.maxID, Body: stored, UpdatedAt: r.now()}
	c.docs[doc.ID] = doc

	return copyDocument(doc)
}

func (r *MemoryRepository) Get(_ context.Context, collection string, id int64) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.lookup(collection, id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyDocument(doc)
}

func (r *MemoryRepository) List(_ context.Context, collection string, filter map[string]string) ([]*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Document{}
	c, ok := r.collections[collection]
	if !ok {
		return result, nil
	}
	for id := int64(1); id <= c.maxID; id++ {
		doc, ok := c.docs[id]
		if !ok || !matches(doc, filter) {
			continue
		}
		out, err := copyDocument(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, out)
	}
	return result, nil
}

func (r *MemoryRepository) Replace(_ context.Context, collection string, id int64, body map[string]any) (*models.Document, error) {
	stored, err := cloneBody(withoutID(body))
	if err != nil {
		return nil, common.ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.lookup(collection, id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	doc.Body = stored
	doc.UpdatedAt = r.now()
	return copyDocument(doc)
}

func (r *MemoryRepository) Patch(_ context.Context, collection string, id int64, body map[string]any) (*models.Document, error) {
	patch, err := cloneBody(withoutID(body))
	if err != nil {
		return nil, common.ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.lookup(collection, id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	for k, v := range patch {
		doc.Body[k] = v
	}
	doc.UpdatedAt = r.now()
	return copyDocument(doc)
}

func (r *MemoryRepository) Delete(_ context.Context, collection string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookup(collection, id); !ok {
		return common.ErrorNotFound
	}
	c := r.collections[collection]
	delete(c.docs, id)
	if id == c.maxID {
		c.maxID = 0
		for k := range c.docs {
			c.maxID = max(c.maxID, k)
		}
	}
	return nil
}

func (r *MemoryRepository) lookup(collection string, id int64) (*models.Document, bool) {
	c, ok := r.collections[collection]
	if !ok {
		return nil, false
	}
	doc, ok := c.docs[id]
	return doc, ok
}

// matches mirrors the text comparison done by body->>key in PostgreSQL.
func matches(doc *models.Document, filter map[string]string) bool {
	for k, want := range filter {
		if k == "id" {
			if strconv.FormatInt(doc.ID, 10) != want {
				return false
			}
			continue
		}
		v, ok := doc.Body[k]
		if !ok || v == nil {
			return false
		}
		if textValue(v) != want {
			return false
		}
	}
	return true
}

func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func cloneBody(body map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return decodeBody(raw)
}

func copyDocument(doc *models.Document) (*models.Document, error) {
	body, err := cloneBody(doc.Body)
	if err != nil {
		return nil, err
	}
	out := *doc
	out.Body = body
	return &out, nil
}

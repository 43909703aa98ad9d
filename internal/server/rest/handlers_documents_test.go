package rest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice", "p1")
	env.register(t, "bob", "p2")

	rec := env.do(t, http.MethodGet, "/users/2", nil, bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2,"username":"bob","role":"user"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/users/3", nil, bearer(token)...)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/users/abc", nil, bearer(token)...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers_ReadOnlyThroughCollections(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice", "p1")

	rec := env.do(t, http.MethodPost, "/users", map[string]any{"username": "mallory"}, bearer(token)...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/users/1", nil, bearer(token)...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocuments_CRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/products", map[string]any{"name": "Shoe", "price": 10, "id": 500})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"name":"Shoe","price":10}`, rec.Body.String())

	env.do(t, http.MethodPost, "/products", map[string]any{"name": "Hat", "price": 5})

	rec = env.do(t, http.MethodGet, "/products?name=Hat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":2,"name":"Hat","price":5}]`, rec.Body.String())

	rec = env.do(t, http.MethodPatch, "/products/1", map[string]any{"price": 12})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Shoe","price":12}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/products/1", map[string]any{"name": "Boot"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"name":"Boot"}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/products/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/products/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeMap(t, rec)["message"])
}

func TestDocuments_BadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"malformed body", http.MethodPost, "/cart", `{"a":`, http.StatusBadRequest},
		{"array body", http.MethodPost, "/cart", `[1]`, http.StatusBadRequest},
		{"null body", http.MethodPost, "/cart", `null`, http.StatusBadRequest},
		{"bad collection name", http.MethodGet, "/bad.name", nil, http.StatusBadRequest},
		{"non numeric id", http.MethodGet, "/cart/x", nil, http.StatusNotFound},
		{"zero id", http.MethodPatch, "/cart/0", map[string]any{"a": 1}, http.StatusNotFound},
		{"nested id path", http.MethodGet, "/cart/1/2", nil, http.StatusNotFound},
		{"missing document", http.MethodPut, "/cart/9", map[string]any{"a": 1}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

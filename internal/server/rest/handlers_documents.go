package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// pathID parses the {id} wildcard. Anything that is not a positive integer
// cannot name a stored record, so it is reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.PublicUser{}
	}
	writeJSON(w, list)
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.users.GetUser(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, u)
}

// readBody decodes a JSON object body for the collection handlers.
func readBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var body map[string]any
	if err := decodeJSON(w, r, &body); err != nil || body == nil {
		return nil, common.ErrValidation
	}
	return body, nil
}

func (s *HTTPServer) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.collections.List(r.Context(), r.PathValue("collection"), r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	writeJSON(w, docs)
}

func (s *HTTPServer) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.collections.Create(r.Context(), r.PathValue("collection"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, doc)
}

func (s *HTTPServer) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.collections.Get(r.Context(), r.PathValue("collection"), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, doc)
}

func (s *HTTPServer) handleReplaceDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.collections.Replace(r.Context(), r.PathValue("collection"), id, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, doc)
}

func (s *HTTPServer) handlePatchDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.collections.Patch(r.Context(), r.PathValue("collection"), id, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, doc)
}

func (s *HTTPServer) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.collections.Delete(r.Context(), r.PathValue("collection"), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, struct{}{})
}

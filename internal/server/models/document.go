package models

import (
	"encoding/json"
	"time"
)

// Document is one JSON object stored in a named collection (products, cart,
// orders, ...). Body never contains the "id" key; it is merged in on output.
type Document struct {
	Collection string
	ID         int64
	Body       map[string]any
	UpdatedAt  time.Time
}

// MarshalJSON renders the document the way clients see it: the body with
// the numeric id merged in.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Body)+1)
	for k, v := range d.Body {
		out[k] = v
	}
	out["id"] = d.ID
	return json.Marshal(out)
}

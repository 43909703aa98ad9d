package client

import (
	"context"
	"encoding/json"
)

// User is the public identity the server returns after register or login.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Session is a successful register or login.
type Session struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}

// Upload is a presigned PUT target for one product image.
type Upload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Client interface {
	Register(ctx context.Context, username string, password []byte) (*Session, error)
	Login(ctx context.Context, username string, password []byte) (*Session, error)
	// Get fetches any API path (e.g. "/products?category=shoes") with the
	// bearer token, when set.
	Get(ctx context.Context, path, token string) (json.RawMessage, error)
	RequestUpload(ctx context.Context, token string) (*Upload, error)
	Ping(ctx context.Context) error
}

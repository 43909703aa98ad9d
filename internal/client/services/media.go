package services

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/netx"
)

// uploadToPresignedURL is a seam for tests.
var uploadToPresignedURL = netx.UploadToPresignedURL

// MediaService uploads product images through presigned URLs.
type MediaService struct {
	client client.Client
	tokens TokenStore
	http   *http.Client
}

func NewMediaService(c client.Client, tokens TokenStore, hc *http.Client) *MediaService {
	return &MediaService{client: c, tokens: tokens, http: hc}
}

// UploadFile asks the server for an upload slot and PUTs the file there.
// It returns the object key to reference from a product.
func (m *MediaService) UploadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	// anonymous uploads are allowed when the server policy permits them
	token := ""
	if s, err := m.tokens.Load(); err == nil {
		token = s.AccessToken
	}

	slot, err := m.client.RequestUpload(ctx, token)
	if err != nil {
		return "", fmt.Errorf("request upload: %w", err)
	}

	if err := uploadToPresignedURL(ctx, m.http, slot.URL, data, http.DetectContentType(data)); err != nil {
		return "", err
	}
	return slot.Key, nil
}

package services

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/storefront/internal/client/client"
)

type fakeClient struct {
	RegisterErr error
	LoginErr    error
	PingErr     error
	UploadErr   error
	Upload      *client.Upload

	LastUser     string
	LastPassword []byte
	LastToken    string
}

func (f *fakeClient) session(username string) *client.Session {
	return &client.Session{User: client.User{ID: 1, Username: username}, AccessToken: "tok-" + username}
}

func (f *fakeClient) Register(_ context.Context, username string, password []byte) (*client.Session, error) {
	f.LastUser, f.LastPassword = username, password
	if f.RegisterErr != nil {
		return nil, f.RegisterErr
	}
	return f.session(username), nil
}

func (f *fakeClient) Login(_ context.Context, username string, password []byte) (*client.Session, error) {
	f.LastUser, f.LastPassword = username, password
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return f.session(username), nil
}

func (f *fakeClient) Get(_ context.Context, _ string, token string) (json.RawMessage, error) {
	f.LastToken = token
	return json.RawMessage(`[]`), nil
}

func (f *fakeClient) RequestUpload(_ context.Context, token string) (*client.Upload, error) {
	f.LastToken = token
	if f.UploadErr != nil {
		return nil, f.UploadErr
	}
	return f.Upload, nil
}

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

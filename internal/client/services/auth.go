// Package services contains application services for the storefront CLI.
// This file defines the authentication service: register, login, logout
// and access to the saved session token.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/client/client"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register / Login: authenticate against the server and save the token.
//   - Logout: forget the saved token.
//   - Session: the saved session, or ErrNotLoggedIn.
//   - Ping: check server liveness.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) (*client.Session, error)
	Login(ctx context.Context, username string, password []byte) (*client.Session, error)
	Logout() error
	Session() (StoredSession, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	tokens TokenStore
}

func NewAuthService(c client.Client, tokens TokenStore) AuthService {
	return &authService{client: c, tokens: tokens}
}

func (a *authService) Register(ctx context.Context, username string, password []byte) (*client.Session, error) {
	s, err := a.client.Register(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := a.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *authService) Login(ctx context.Context, username string, password []byte) (*client.Session, error) {
	s, err := a.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := a.save(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *authService) save(s *client.Session) error {
	if err := a.tokens.Save(StoredSession{Username: s.User.Username, AccessToken: s.AccessToken}); err != nil {
		return fmt.Errorf("token saving error: %w", err)
	}
	return nil
}

func (a *authService) Logout() error {
	return a.tokens.Clear()
}

func (a *authService) Session() (StoredSession, error) {
	return a.tokens.Load()
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Package services contains server-side business logic. This file implements
// UserService, which handles registration and login and issues session
// tokens.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/cryptox"
	"github.com/dmitrijs2005/storefront/internal/server/auth"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
)

// TokenIssuer mints session tokens for an identity.
type TokenIssuer interface {
	Issue(c auth.Claims) (string, error)
}

// AuthResult is what a successful register or login hands back.
type AuthResult struct {
	User        models.PublicUser
	AccessToken string
}

// UserService provides authentication-related operations:
// - Register: create users and log them in
// - Login: verify credentials and mint a token
// - ListUsers / GetUser: read-only directory without password hashes
type UserService struct {
	users  users.Repository
	hasher cryptox.Hasher
	tokens TokenIssuer
}

func NewUserService(repo users.Repository, hasher cryptox.Hasher, tokens TokenIssuer) *UserService {
	return &UserService{users: repo, hasher: hasher, tokens: tokens}
}

// Register creates the identity with the default role and returns a token
// for it. A username already present yields common.ErrUsernameTaken.
func (s *UserService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, common.ErrMissingCredentials
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.users.CreateIfAbsent(ctx, &models.User{
		UserName:     username,
		PasswordHash: hash,
		Role:         common.DefaultRole,
	})
	if err != nil {
		if errors.Is(err, common.ErrUsernameTaken) {
			return nil, common.ErrUsernameTaken
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.issue(user)
}

// Login checks the password and returns a fresh token. Unknown usernames
// still pay for one hash verification.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, common.ErrMissingCredentials
	}

	user, err := s.users.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, cryptox.DummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("error verifying password: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	list, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(list))
	for _, u := range list {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.PublicUser, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Public()
	return &p, nil
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	role := user.Role
	if role == "" {
		role = common.DefaultRole
	}
	token, err := s.tokens.Issue(auth.Claims{Subject: user.ID, Username: user.UserName, Role: role})
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &AuthResult{
		User:        models.PublicUser{ID: user.ID, UserName: user.UserName},
		AccessToken: token,
	}, nil
}

// Package users is the credential store: registered identities keyed by a
// unique, case-sensitive username.
package users

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// Repository persists identities.
//
// CreateIfAbsent is the only write. It allocates ID as max(existing)+1 (1
// for an empty store) and inserts the user in one atomic step, failing with
// common.ErrUsernameTaken when the username already exists. Readers return
// common.ErrorNotFound for missing identities.
type Repository interface {
	CreateIfAbsent(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

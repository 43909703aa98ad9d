package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/samber/oops"
)

const (
	lockUsersQuery = `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`

	insertUserQuery = `INSERT INTO users (id, username, password_hash, role)
		 SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3 FROM users
		 ON CONFLICT (username) DO NOTHING
		 RETURNING id, created_at`

	selectUserColumns = `SELECT id, username, password_hash, role, created_at FROM users`
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateIfAbsent serialises writers on a table lock so the max+1 id
// allocation cannot collide; the username constraint covers the rest.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, user *models.User) (*models.User, error) {

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, lockUsersQuery); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, insertUserQuery,
			user.UserName, user.PasswordHash, user.Role).Scan(&user.ID, &user.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsUniqueViolation(err) {
			return nil, oops.Code("USERS_USERNAME_TAKEN").
				With("username", user.UserName).
				Wrap(common.ErrUsernameTaken)
		}
		return nil, oops.Code("USERS_CREATE_FAILED").
			With("username", user.UserName).
			Wrapf(err, "db error")
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE username = $1`, userName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code("USERS_GET_FAILED").
			With("username", userName).
			Wrapf(err, "db error")
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code("USERS_GET_FAILED").
			With("id", id).
			Wrapf(err, "db error")
	}
	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUserColumns+` ORDER BY id`)
	if err != nil {
		return nil, oops.Code("USERS_LIST_FAILED").Wrapf(err, "db error")
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.Code("USERS_LIST_FAILED").Wrapf(err, "db error")
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USERS_LIST_FAILED").Wrapf(err, "db error")
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.UserName, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
		return nil, err
	}
	return user, nil
}

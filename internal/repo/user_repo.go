package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/talx-hub/gopher-points/internal/model/user"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

type UserRepository struct {
	DB
}

func NewUserRepository(pool connectionPool, log *slog.Logger) *UserRepository {
	return &UserRepository{
		DB{
			pool: pool,
			log:  log,
		},
	}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	createLogic := func() (struct{}, error) {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO users (id_user, username, email, is_active, is_verified)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING created_at`,
			u.ID, u.Username, u.Email, u.IsActive, u.IsVerified,
		).Scan(&u.CreatedAt)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to insert user: %w", err)
		}
		return struct{}{}, nil
	}

	_, err := WithRetry[struct{}](createLogic, 0)
	return err //nolint: wrapcheck // error from wrapped function
}

const findUserQuery = `SELECT id_user, username, email,
                              is_active, is_verified, balance, created_at
                       FROM users WHERE `

// nolint: dupl // lookups differ only by key column
func (r *UserRepository) FindByID(ctx context.Context, id string,
) (user.User, error) {
	findByIDLogic := func() (user.User, error) {
		return scanUser(r.pool.QueryRow(ctx, findUserQuery+`id_user = $1`, id))
	}

	u, err := WithRetry[user.User](findByIDLogic, 0)
	if err != nil {
		return user.User{}, err //nolint: wrapcheck // error from wrapped function
	}
	return u, nil
}

// nolint: dupl // lookups differ only by key column
func (r *UserRepository) FindByUsername(ctx context.Context, username string,
) (user.User, error) {
	findByNameLogic := func() (user.User, error) {
		return scanUser(r.pool.QueryRow(ctx, findUserQuery+`username = $1`, username))
	}

	u, err := WithRetry[user.User](findByNameLogic, 0)
	if err != nil {
		return user.User{}, err //nolint: wrapcheck // error from wrapped function
	}
	return u, nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Email,
		&u.IsActive, &u.IsVerified, &u.Balance, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, serviceerrs.ErrUserNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

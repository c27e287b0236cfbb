package postgres

import (
	"context"
	"fmt"

	"github.com/shogunhq/shogun/internal/domain/user"
)

const userColumns = `id, email, first_name, last_name, is_active, is_staff, created_at, updated_at`

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Active, &u.Staff, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func getUser(ctx context.Context, q querier, id string) (*user.User, error) {
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	return getUser(ctx, s.pool, id)
}

func (t *pgTx) GetUser(ctx context.Context, id string) (*user.User, error) {
	return getUser(ctx, t.tx, id)
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.Active, u.Staff, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return writeErr(err, "create user %s", u.Email)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return orEmpty(users), rows.Err()
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"travelshop/internal/domain"
)

var userColumns = []string{"id", "email", "name", "password_hash", "role", "token_version", "created_at"}

func (r *Repo) CreateUser(ctx context.Context, u domain.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	query, args, err := sq.Insert("users").Columns(userColumns...).
		Values(u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.TokenVersion, created.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("user %s: %w", u.Email, domain.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repo) getUser(ctx context.Context, pred sq.Eq) (domain.User, error) {
	query, args, err := sq.Select(userColumns...).From("users").Where(pred).ToSql()
	if err != nil {
		return domain.User{}, err
	}
	var (
		u       domain.User
		role    string
		created dbTime
	)
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.TokenVersion, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	u.CreatedAt = created.Time
	return u, nil
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getUser(ctx, sq.Eq{"email": email})
}

func (r *Repo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id})
}

// BumpTokenVersion invalidates every token issued to the user so far.
func (r *Repo) BumpTokenVersion(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET token_version = token_version + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	return affected(res, "user", id)
}

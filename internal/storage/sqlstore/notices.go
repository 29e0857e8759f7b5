package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"travelshop/internal/domain"
)

var noticeColumns = []string{"id", "title", "body", "pinned", "published", "created_at", "updated_at"}

func scanNotice(s rowScanner) (domain.Notice, error) {
	var (
		n                domain.Notice
		created, updated dbTime
	)
	if err := s.Scan(&n.ID, &n.Title, &n.Body, &n.Pinned, &n.Published, &created, &updated); err != nil {
		return domain.Notice{}, err
	}
	n.CreatedAt, n.UpdatedAt = created.Time, updated.Time
	return n, nil
}

func (r *Repo) CreateNotice(ctx context.Context, n domain.Notice) (int64, error) {
	now := r.now()
	query, args, err := sq.Insert("notices").
		Columns("title", "body", "pinned", "published", "created_at", "updated_at").
		Values(n.Title, n.Body, n.Pinned, n.Published, now, now).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build notice insert: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert notice: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateNotice(ctx context.Context, n domain.Notice) error {
	query, args, err := sq.Update("notices").SetMap(map[string]any{
		"title":      n.Title,
		"body":       n.Body,
		"pinned":     n.Pinned,
		"published":  n.Published,
		"updated_at": r.now(),
	}).Where(sq.Eq{"id": n.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build notice update: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update notice: %w", err)
	}
	return affected(res, "notice", n.ID)
}

func (r *Repo) DeleteNotice(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return affected(res, "notice", id)
}

func (r *Repo) GetNotice(ctx context.Context, id int64) (domain.Notice, error) {
	query, args, err := sq.Select(noticeColumns...).From("notices").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Notice{}, err
	}
	n, err := scanNotice(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Notice{}, domain.ErrNotFound
	}
	return n, err
}

// ListNotices returns pinned notices first, newest first within each group.
func (r *Repo) ListNotices(ctx context.Context, f domain.NoticeFilter) ([]domain.Notice, error) {
	b := sq.Select(noticeColumns...).From("notices").OrderBy("pinned DESC", "created_at DESC", "id DESC")
	if f.PublishedOnly {
		b = b.Where(sq.Eq{"published": true})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	out := []domain.Notice{}
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func affected(res sql.Result, kind string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

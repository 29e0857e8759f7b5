package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"travelshop/internal/domain"
)

func reservationSelect() sq.SelectBuilder {
	return sq.Select(reservationColumns...).
		From("reservations r").
		LeftJoin("packages p ON p.id = r.package_id")
}

func scanReservation(s rowScanner) (domain.Reservation, error) {
	var (
		res             domain.Reservation
		status          string
		travel, created dbTime
	)
	if err := s.Scan(&res.ID, &res.PackageID, &res.PackageTitle, &res.UserID, &travel,
		&res.Travelers, &res.ContactName, &res.ContactPhone, &status, &res.TotalAmount, &created); err != nil {
		return domain.Reservation{}, err
	}
	res.Status = domain.ReservationStatus(status)
	res.TravelDate, res.CreatedAt = travel.Time, created.Time
	return res, nil
}

func (r *Repo) CreateReservation(ctx context.Context, res domain.Reservation) error {
	created := res.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	query, args, err := sq.Insert("reservations").
		Columns("id", "package_id", "user_id", "travel_date", "travelers",
			"contact_name", "contact_phone", "status", "total_amount", "created_at").
		Values(res.ID, res.PackageID, res.UserID, res.TravelDate.UTC(), res.Travelers,
			res.ContactName, res.ContactPhone, string(res.Status), res.TotalAmount, created.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build reservation insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("reservation %s: %w", res.ID, domain.ErrConflict)
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *Repo) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	query, args, err := reservationSelect().Where(sq.Eq{"r.id": id}).ToSql()
	if err != nil {
		return domain.Reservation{}, err
	}
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return res, err
}

func (r *Repo) ListReservations(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	b := reservationSelect().OrderBy("r.created_at DESC", "r.id")
	if f.UserID != "" {
		b = b.Where(sq.Eq{"r.user_id": f.UserID})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"r.status": string(f.Status)})
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
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateReservationStatus(ctx context.Context, id string, from, to domain.ReservationStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	// nothing matched: either the row is gone or someone else changed its status first
	if _, err := r.GetReservation(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("reservation %s is no longer %s: %w", id, from, domain.ErrConflict)
}

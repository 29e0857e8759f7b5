package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"

	"travelshop/internal/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(s rowScanner) (domain.RawPackage, error) {
	var (
		raw                              domain.RawPackage
		id                               string
		legacyID                         sql.NullInt64
		slug, title, name, desc, price   sql.NullString
		image, images, features          sql.NullString
		region, regionKo, itinerary      sql.NullString
		highlights, included, excl, notes sql.NullString
		duration                         sql.NullString
		published                        sql.NullBool
	)
	if err := s.Scan(
		&id, &legacyID, &slug, &title, &name, &desc, &price,
		&image, &images, &features, &region, &regionKo, &itinerary,
		&highlights, &included, &excl, &notes,
		&duration, &published, &raw.SchemaVersion,
	); err != nil {
		return domain.RawPackage{}, err
	}

	raw.ID = id
	raw.Slug = strPtr(slug)
	raw.Title = strPtr(title)
	raw.Name = strPtr(name)
	raw.Description = strPtr(desc)
	raw.Price = decodePrice(price)
	raw.Image = strPtr(image)
	raw.Images = decodeJSONColumn(images)
	if m, ok := decodeJSONColumn(features).(map[string]any); ok {
		raw.Features = m
	}
	raw.Region = strPtr(region)
	raw.RegionKo = strPtr(regionKo)
	raw.Itinerary = decodeJSONColumn(itinerary)
	raw.Highlights = decodeJSONColumn(highlights)
	raw.Included = decodeJSONColumn(included)
	raw.Excluded = decodeJSONColumn(excl)
	raw.Notes = decodeJSONColumn(notes)
	raw.Duration = strPtr(duration)
	raw.Published = boolPtr(published)
	return raw, nil
}

func (r *Repo) getPackageWhere(ctx context.Context, pred sq.Sqlizer) (domain.RawPackage, error) {
	query, args, err := sq.Select(packageColumns...).From("packages").Where(pred).Limit(1).ToSql()
	if err != nil {
		return domain.RawPackage{}, fmt.Errorf("build package select: %w", err)
	}
	raw, err := scanPackage(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RawPackage{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.RawPackage{}, fmt.Errorf("scan package: %w", err)
	}
	return raw, nil
}

func (r *Repo) GetPackage(ctx context.Context, id string) (domain.RawPackage, error) {
	return r.getPackageWhere(ctx, sq.Eq{"id": id})
}

func (r *Repo) GetPackageBySlug(ctx context.Context, slug string) (domain.RawPackage, error) {
	return r.getPackageWhere(ctx, sq.Eq{"slug": slug})
}

func (r *Repo) ListPackages(ctx context.Context, f domain.PackageFilter) ([]domain.RawPackage, error) {
	b := sq.Select(packageColumns...).From("packages").OrderBy("created_at DESC", "id")
	if f.PublishedOnly {
		b = b.Where(publishedOnly)
	}
	if f.Region != "" {
		b = b.Where(sq.Or{sq.Eq{"region": f.Region}, sq.Eq{"region_ko": f.Region}})
	}
	if f.Q != "" {
		like := "%" + f.Q + "%"
		b = b.Where(sq.Or{sq.Like{"title": like}, sq.Like{"name": like}})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}
	return r.queryPackages(ctx, b)
}

// ListLegacyPackages returns rows still stored in a pre-current shape.
func (r *Repo) ListLegacyPackages(ctx context.Context, limit int) ([]domain.RawPackage, error) {
	b := sq.Select(packageColumns...).From("packages").
		Where(sq.Lt{"schema_version": domain.SchemaCurrent}).
		OrderBy("id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return r.queryPackages(ctx, b)
}

func (r *Repo) queryPackages(ctx context.Context, b sq.SelectBuilder) ([]domain.RawPackage, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build package list: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var out []domain.RawPackage
	for rows.Next() {
		raw, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountPackages(ctx context.Context) (total, legacy int, err error) {
	err = r.db.QueryRowContext(ctx, countPackagesSQL).Scan(&total, &legacy)
	return total, legacy, err
}

// packageValues maps the admin write model onto current-shape columns.
func packageValues(p domain.Package) map[string]any {
	var image any
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	var price any
	switch {
	case p.Price != nil:
		price = strconv.FormatInt(*p.Price, 10)
	case p.PriceText != "":
		price = p.PriceText
	}
	var features any
	if len(p.Features) > 0 {
		features = valJSON(p.Features)
	}
	return map[string]any{
		"slug":           nullIfEmpty(p.Slug),
		"title":          p.Title,
		"name":           nil,
		"description":    nullIfEmpty(p.Description),
		"price":          price,
		"image":          image,
		"images":         valJSON(nonNil(p.Images)),
		"features":       features,
		"region":         nullIfEmpty(p.Region),
		"region_ko":      nullIfEmpty(p.RegionKo),
		"itinerary":      valJSON(nonNilDays(p.Itinerary)),
		"highlights":     valJSON(nonNil(p.Highlights)),
		"included":       valJSON(nonNil(p.Included)),
		"excluded":       valJSON(nonNil(p.Excluded)),
		"notes":          valJSON(nonNil(p.Notes)),
		"duration":       nullIfEmpty(p.Duration),
		"published":      p.Published,
		"schema_version": domain.SchemaCurrent,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilDays(d []domain.ItineraryDay) []domain.ItineraryDay {
	if d == nil {
		return []domain.ItineraryDay{}
	}
	return d
}

func (r *Repo) CreatePackage(ctx context.Context, p domain.Package) error {
	vals := packageValues(p)
	vals["id"] = p.ID
	now := r.now()
	vals["created_at"] = now
	vals["updated_at"] = now
	query, args, err := sq.Insert("packages").SetMap(vals).ToSql()
	if err != nil {
		return fmt.Errorf("build package insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("package %s: %w", p.ID, domain.ErrConflict)
		}
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

func (r *Repo) UpdatePackage(ctx context.Context, p domain.Package) error {
	vals := packageValues(p)
	vals["updated_at"] = r.now()
	return r.updatePackage(ctx, p.ID, vals)
}

// RewritePackage stores a projected record in the current shape, keeping any
// features that are not image sources.
func (r *Repo) RewritePackage(ctx context.Context, raw domain.RawPackage) error {
	var features any
	if len(raw.Features) > 0 {
		features = valJSON(raw.Features)
	}
	vals := map[string]any{
		"title":          valStr(raw.Title),
		"name":           valStr(raw.Name),
		"description":    valStr(raw.Description),
		"price":          valPrice(raw.Price),
		"image":          valStr(raw.Image),
		"images":         valJSON(raw.Images),
		"features":       features,
		"region":         valStr(raw.Region),
		"region_ko":      valStr(raw.RegionKo),
		"itinerary":      valJSON(raw.Itinerary),
		"highlights":     valJSON(raw.Highlights),
		"included":       valJSON(raw.Included),
		"excluded":       valJSON(raw.Excluded),
		"notes":          valJSON(raw.Notes),
		"published":      valBool(raw.Published),
		"schema_version": raw.SchemaVersion,
		"updated_at":     r.now(),
	}
	id, _ := raw.ID.(string)
	return r.updatePackage(ctx, id, vals)
}

func (r *Repo) updatePackage(ctx context.Context, id string, vals map[string]any) error {
	query, args, err := sq.Update("packages").SetMap(vals).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build package update: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("package %s: %w", id, domain.ErrConflict)
		}
		return fmt.Errorf("update package: %w", err)
	}
	return affected(res, "package", id)
}

func (r *Repo) DeletePackage(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	return affected(res, "package", id)
}

// InsertRawPackage stores a record verbatim, legacy shape included. Used by seeding.
func (r *Repo) InsertRawPackage(ctx context.Context, raw domain.RawPackage, legacyID *int64) error {
	var features any
	if raw.Features != nil {
		features = valJSON(raw.Features)
	}
	now := r.now()
	vals := map[string]any{
		"id":             fmt.Sprint(raw.ID),
		"legacy_id":      legacyID,
		"slug":           valStr(raw.Slug),
		"title":          valStr(raw.Title),
		"name":           valStr(raw.Name),
		"description":    valStr(raw.Description),
		"price":          valPrice(raw.Price),
		"image":          valStr(raw.Image),
		"images":         valJSON(raw.Images),
		"features":       features,
		"region":         valStr(raw.Region),
		"region_ko":      valStr(raw.RegionKo),
		"itinerary":      valJSON(raw.Itinerary),
		"highlights":     valJSON(raw.Highlights),
		"included":       valJSON(raw.Included),
		"excluded":       valJSON(raw.Excluded),
		"notes":          valJSON(raw.Notes),
		"duration":       valStr(raw.Duration),
		"published":      valBool(raw.Published),
		"schema_version": raw.SchemaVersion,
		"created_at":     now,
		"updated_at":     now,
	}
	query, args, err := sq.Insert("packages").SetMap(vals).ToSql()
	if err != nil {
		return fmt.Errorf("build raw package insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("package %v: %w", raw.ID, domain.ErrConflict)
		}
		return fmt.Errorf("insert raw package: %w", err)
	}
	return nil
}

package sqlstore

import sq "github.com/Masterminds/squirrel"

// packageColumns is the scan order used by scanPackage.
var packageColumns = []string{
	"id", "legacy_id", "slug", "title", "name", "description", "price",
	"image", "images", "features", "region", "region_ko", "itinerary",
	"highlights", "included", "excluded", "notes",
	"duration", "published", "schema_version",
}

// Legacy rows never had a published flag; NULL means visible.
var publishedOnly = sq.Or{sq.Eq{"published": nil}, sq.Eq{"published": true}}

const countPackagesSQL = `
SELECT
  COUNT(*),
  COALESCE(SUM(CASE WHEN schema_version < 2 THEN 1 ELSE 0 END), 0)
FROM packages
`

// Reservation reads join the package for a display title.
var reservationColumns = []string{
	"r.id", "r.package_id", "COALESCE(p.title, p.name, '')", "r.user_id", "r.travel_date",
	"r.travelers", "r.contact_name", "r.contact_phone", "r.status", "r.total_amount", "r.created_at",
}

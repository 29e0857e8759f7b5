package sqlstore_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelshop/internal/domain"
	"travelshop/internal/normalize"
	"travelshop/internal/storage/sqlstore"
)

func newRepo(t *testing.T) *sqlstore.Repo {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(ctx, db, sqlstore.SQLite))
	return sqlstore.New(db)
}

func pstr(s string) *string { return &s }

func pint(n int64) *int64 { return &n }

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.SQLite, "")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, sqlstore.Migrate(ctx, db, sqlstore.SQLite))
	require.NoError(t, sqlstore.Migrate(ctx, db, sqlstore.SQLite))

	v, err := sqlstore.MigrationVersion(ctx, db, sqlstore.SQLite)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}

func TestPackages_CurrentShapeRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p := domain.Package{
		ID:          "0b8f8a4e-4f3e-4a36-9a8b-6f0d7f1c2a11",
		Slug:        "jeju-3-days",
		Title:       "Jeju 3 days",
		Description: "Island escape",
		Price:       pint(450000),
		Region:      "jeju",
		RegionKo:    "제주",
		Images:      []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
		Itinerary: []domain.ItineraryDay{
			{Day: 1, Title: "Arrival", Description: "Check in", Images: []string{}},
		},
		Highlights: []string{"Hallasan"},
		Duration:   "3D2N",
		Published:  true,
	}
	require.NoError(t, repo.CreatePackage(ctx, p))

	raw, err := repo.GetPackage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SchemaCurrent, raw.SchemaVersion)

	n := normalize.Normalize(raw)
	assert.Equal(t, int64(450000), n.PriceAmount)
	assert.False(t, n.PriceUnknown)
	assert.Equal(t, p.Images, n.GalleryImages)
	require.NotNil(t, n.PrimaryImage)
	assert.Equal(t, p.Images[0], *n.PrimaryImage)
	assert.Equal(t, p.Itinerary, n.ItineraryDays)
	assert.Equal(t, "jeju", *n.Region)
	assert.Equal(t, "제주", *n.RegionLabel)

	bySlug, err := repo.GetPackageBySlug(ctx, "jeju-3-days")
	require.NoError(t, err)
	assert.Equal(t, raw, bySlug)

	assert.ErrorIs(t, repo.CreatePackage(ctx, p), domain.ErrConflict)
}

func TestPackages_LegacyRowsSurviveStorage(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	legacyID := int64(17)
	raw := domain.RawPackage{
		ID:       "17",
		Name:     pstr("Busan food tour"),
		Price:    "1,200,000원",
		Image:    pstr("https://cdn.example.com/main.jpg"),
		Images:   `["https://cdn.example.com/1.jpg"]`,
		Features: map[string]any{"all_images": []any{"https://cdn.example.com/all.jpg"}, "guide": "yes"},
		RegionKo: pstr("부산"),
		Itinerary: "## Day 1 Market\nEat everything",
		Notes:    "bring cash\nwear shoes",
		SchemaVersion: domain.SchemaLegacyRow,
	}
	require.NoError(t, repo.InsertRawPackage(ctx, raw, &legacyID))

	got, err := repo.GetPackage(ctx, "17")
	require.NoError(t, err)
	assert.Equal(t, "1,200,000원", got.Price)
	assert.Equal(t, []any{"https://cdn.example.com/1.jpg"}, got.Images)
	assert.Equal(t, "yes", got.Features["guide"])
	assert.Equal(t, "## Day 1 Market\nEat everything", got.Itinerary)
	assert.Nil(t, got.Published)

	n := normalize.Normalize(got)
	assert.Equal(t, int64(1200000), n.PriceAmount)
	assert.Equal(t, []string{
		"https://cdn.example.com/1.jpg",
		"https://cdn.example.com/all.jpg",
		"https://cdn.example.com/main.jpg",
	}, n.GalleryImages)
	assert.True(t, n.Published)
	require.Len(t, n.ItineraryDays, 1)
	assert.Equal(t, "Market", n.ItineraryDays[0].Title)
	assert.Equal(t, []string{"bring cash", "wear shoes"}, n.Notes)

	total, legacy, err := repo.CountPackages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, legacy)

	legacyRows, err := repo.ListLegacyPackages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, legacyRows, 1)

	proj := normalize.Project(n)
	proj.SchemaVersion = domain.SchemaCurrent
	proj.Features = map[string]any{"guide": "yes"}
	require.NoError(t, repo.RewritePackage(ctx, proj))

	legacyRows, err = repo.ListLegacyPackages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, legacyRows)

	rewritten, err := repo.GetPackage(ctx, "17")
	require.NoError(t, err)
	again := normalize.Normalize(rewritten)
	again.SchemaVersion = n.SchemaVersion
	assert.Equal(t, n, again)
}

func TestPackages_FractionalPriceRounds(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertRawPackage(ctx, domain.RawPackage{
		ID: "p-frac", Title: pstr("Frac"), Price: 199.5, SchemaVersion: domain.SchemaLegacyRow,
	}, nil))

	got, err := repo.GetPackage(ctx, "p-frac")
	require.NoError(t, err)
	assert.Equal(t, json.Number("199.5"), got.Price)
	assert.Equal(t, int64(200), normalize.Normalize(got).PriceAmount)
}

func TestPackages_PlainNumberTextReadsAsNumber(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	rows := []domain.RawPackage{
		{ID: "plain", Title: pstr("Plain"), Price: "1290000.50", SchemaVersion: domain.SchemaLegacyRow},
		{ID: "won", Title: pstr("Won"), Price: "₩1,290,000.50", SchemaVersion: domain.SchemaLegacyRow},
	}
	for _, r := range rows {
		require.NoError(t, repo.InsertRawPackage(ctx, r, nil))
	}

	plain, err := repo.GetPackage(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, json.Number("1290000.50"), plain.Price)
	assert.Equal(t, int64(1290001), normalize.Normalize(plain).PriceAmount)

	won, err := repo.GetPackage(ctx, "won")
	require.NoError(t, err)
	assert.Equal(t, "₩1,290,000.50", won.Price)
	assert.Equal(t, int64(129000050), normalize.Normalize(won).PriceAmount)
}

func TestPackages_ListFilters(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	f := false
	rows := []domain.RawPackage{
		{ID: "a", Title: pstr("Seoul night"), Region: pstr("seoul"), SchemaVersion: 1},
		{ID: "b", Title: pstr("Busan beach"), RegionKo: pstr("busan"), SchemaVersion: 1},
		{ID: "c", Name: pstr("Seoul palace"), Region: pstr("seoul"), Published: &f, SchemaVersion: 1},
	}
	for _, r := range rows {
		require.NoError(t, repo.InsertRawPackage(ctx, r, nil))
	}

	all, err := repo.ListPackages(ctx, domain.PackageFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pub, err := repo.ListPackages(ctx, domain.PackageFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.Len(t, pub, 2)

	seoul, err := repo.ListPackages(ctx, domain.PackageFilter{Region: "seoul"})
	require.NoError(t, err)
	assert.Len(t, seoul, 2)

	busan, err := repo.ListPackages(ctx, domain.PackageFilter{Region: "busan"})
	require.NoError(t, err)
	require.Len(t, busan, 1)
	assert.Equal(t, "b", busan[0].ID)

	q, err := repo.ListPackages(ctx, domain.PackageFilter{Q: "Seoul", PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "a", q[0].ID)

	page, err := repo.ListPackages(ctx, domain.PackageFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestPackages_UpdateDeleteMissing(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.UpdatePackage(ctx, domain.Package{ID: "nope", Title: "x"}), domain.ErrNotFound)
	assert.ErrorIs(t, repo.DeletePackage(ctx, "nope"), domain.ErrNotFound)
	_, err := repo.GetPackage(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.CreatePackage(ctx, domain.Package{ID: "p1", Title: "One", Published: true}))
	require.NoError(t, repo.UpdatePackage(ctx, domain.Package{ID: "p1", Title: "Uno", Price: pint(10)}))
	got, err := repo.GetPackage(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Uno", *got.Title)
	require.NotNil(t, got.Published)
	assert.False(t, *got.Published)

	require.NoError(t, repo.DeletePackage(ctx, "p1"))
	_, err = repo.GetPackage(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotices_CRUDAndOrdering(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	id1, err := repo.CreateNotice(ctx, domain.Notice{Title: "Old", Body: "b", Published: true})
	require.NoError(t, err)
	id2, err := repo.CreateNotice(ctx, domain.Notice{Title: "Pinned", Body: "b", Pinned: true, Published: true})
	require.NoError(t, err)
	_, err = repo.CreateNotice(ctx, domain.Notice{Title: "Draft", Body: "b"})
	require.NoError(t, err)

	pub, err := repo.ListNotices(ctx, domain.NoticeFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, pub, 2)
	assert.Equal(t, id2, pub[0].ID)
	assert.Equal(t, id1, pub[1].ID)

	n, err := repo.GetNotice(ctx, id1)
	require.NoError(t, err)
	n.Title = "Renamed"
	require.NoError(t, repo.UpdateNotice(ctx, n))
	got, err := repo.GetNotice(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, repo.DeleteNotice(ctx, id1))
	_, err = repo.GetNotice(ctx, id1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUsersAndReservations(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	u := domain.User{ID: "u1", Email: "kim@example.com", Name: "Kim", PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.ErrorIs(t, repo.CreateUser(ctx, domain.User{ID: "u2", Email: u.Email, Name: "K", PasswordHash: "y", Role: domain.RoleUser}), domain.ErrConflict)

	got, err := repo.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	require.NoError(t, repo.BumpTokenVersion(ctx, "u1"))
	got, err = repo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TokenVersion)

	require.NoError(t, repo.CreatePackage(ctx, domain.Package{ID: "p1", Title: "Jeju", Price: pint(100), Published: true}))

	travel := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	res := domain.Reservation{
		ID: "r1", PackageID: "p1", UserID: "u1", TravelDate: travel, Travelers: 2,
		ContactName: "Kim", ContactPhone: "010-0000-0000",
		Status: domain.ReservationPending, TotalAmount: 200,
	}
	require.NoError(t, repo.CreateReservation(ctx, res))

	list, err := repo.ListReservations(ctx, domain.ReservationFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Jeju", list[0].PackageTitle)
	assert.True(t, travel.Equal(list[0].TravelDate))

	require.NoError(t, repo.UpdateReservationStatus(ctx, "r1", domain.ReservationPending, domain.ReservationConfirmed))
	one, err := repo.GetReservation(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationConfirmed, one.Status)

	pending, err := repo.ListReservations(ctx, domain.ReservationFilter{Status: domain.ReservationPending})
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, repo.UpdateReservationStatus(ctx, "missing", domain.ReservationPending, domain.ReservationCancelled), domain.ErrNotFound)

	// a second writer that still believes the row is pending loses
	err = repo.UpdateReservationStatus(ctx, "r1", domain.ReservationPending, domain.ReservationCancelled)
	assert.ErrorIs(t, err, domain.ErrConflict)
	one, err = repo.GetReservation(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationConfirmed, one.Status)
}

func TestPackages_UpdateKeepsPriceTextAndFeatures(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreatePackage(ctx, domain.Package{
		ID: "p-ask", Slug: "ask", Title: "Ask", PriceText: "가격문의",
		Features: map[string]any{"guide": "included"}, Published: true,
	}))
	raw, err := repo.GetPackage(ctx, "p-ask")
	require.NoError(t, err)
	assert.Equal(t, "가격문의", raw.Price)
	assert.Equal(t, map[string]any{"guide": "included"}, raw.Features)
	assert.True(t, normalize.Normalize(raw).PriceUnknown)

	require.NoError(t, repo.UpdatePackage(ctx, domain.Package{ID: "p-ask", Slug: "ask", Title: "Ask", Published: true}))
	raw, err = repo.GetPackage(ctx, "p-ask")
	require.NoError(t, err)
	assert.Nil(t, raw.Price)
	n := normalize.Normalize(raw)
	assert.True(t, n.PriceUnknown, "a nil price stays unknown, never zero")
	assert.Equal(t, int64(0), n.PriceAmount)
}

package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelshop/internal/app"
	"travelshop/internal/domain"
	"travelshop/internal/normalize"
)

func TestSeed_DefaultFixturesAreIdempotent(t *testing.T) {
	repo := newFakeRepo()
	seeder := app.NewSeeder(repo, repo, nil)
	ctx := context.Background()

	rep, err := seeder.Seed(ctx, app.DefaultSeed())
	require.NoError(t, err)
	assert.Equal(t, 5, rep.PackagesInserted)
	assert.Equal(t, 2, rep.NoticesInserted)

	rep, err = seeder.Seed(ctx, app.DefaultSeed())
	require.NoError(t, err)
	assert.Zero(t, rep.PackagesInserted)
	assert.Equal(t, 5, rep.PackagesSkipped)
	assert.Zero(t, rep.NoticesInserted)

	total, legacy, _ := repo.CountPackages(ctx)
	assert.Equal(t, 5, total)
	assert.Equal(t, 3, legacy)
}

func TestSeed_LegacyDocumentNormalizes(t *testing.T) {
	repo := newFakeRepo()
	_, err := app.NewSeeder(repo, repo, nil).Seed(context.Background(), app.DefaultSeed())
	require.NoError(t, err)

	raw, err := repo.GetPackageBySlug(context.Background(), "jeju-healing-4d")
	require.NoError(t, err)
	assert.Equal(t, "1001", raw.ID)

	n := normalize.Normalize(raw)
	assert.Equal(t, "제주 3박 4일 힐링 여행", n.Title)
	assert.Equal(t, int64(1290000), n.PriceAmount)
	assert.Equal(t, []string{
		"https://images.example.com/jeju/01.jpg",
		"https://images.example.com/jeju/02.jpg",
		"https://images.example.com/jeju/03.jpg",
		"https://images.example.com/jeju/main.jpg",
	}, n.GalleryImages)
	assert.Equal(t, 1, n.DroppedImages)
	require.Len(t, n.ItineraryDays, 4)
	assert.Equal(t, "Arrival", n.ItineraryDays[0].Title)
	assert.Equal(t, []string{"https://images.example.com/jeju/hotel.jpg"}, n.ItineraryDays[0].Images)
	assert.Equal(t, "Hallasan", n.ItineraryDays[1].Title)
	assert.Equal(t, "Udo island", n.ItineraryDays[2].Title)
	assert.Equal(t, "Day 4", n.ItineraryDays[3].Title)
	assert.Equal(t, "제주", *n.Region)
	assert.Equal(t, []string{"Hallasan hike", "Udo island cycling"}, n.Highlights)
}

func TestSeed_AdminAndErrors(t *testing.T) {
	repo := newFakeRepo()
	auth := app.NewAuthService(repo, fakeTokens{}, fakeHasher{})
	seeder := app.NewSeeder(repo, repo, auth)
	ctx := context.Background()

	rep, err := seeder.Seed(ctx, []byte(`
admin:
  email: ops@example.com
  name: Ops
  password: change-me-now
`))
	require.NoError(t, err)
	assert.True(t, rep.AdminCreated)
	u, err := repo.GetUserByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, err = seeder.Seed(ctx, []byte("packages:\n  - title: no slug\n"))
	assert.Error(t, err)

	_, err = seeder.Seed(ctx, []byte("packages: [\n"))
	assert.Error(t, err)
}

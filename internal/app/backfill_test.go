package app_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelshop/internal/app"
	"travelshop/internal/domain"
	"travelshop/internal/normalize"
)

func legacyFixture(i int) domain.RawPackage {
	return domain.RawPackage{
		ID:    fmt.Sprint(i),
		Name:  ptr(fmt.Sprintf("Package %d", i)),
		Price: fmt.Sprintf("%d,000원", i),
		Image: ptr(fmt.Sprintf("https://cdn.example.com/%d/main.jpg", i)),
		Features: map[string]any{
			"all_images": []any{fmt.Sprintf("https://cdn.example.com/%d/a.jpg", i), "relative/x.jpg"},
			"guide":      "yes",
		},
		Region:        ptr("jeju"),
		Itinerary:     "Day 1: Arrive\nHotel\n\nDay 2: Leave",
		Notes:         "line one\nline two",
		SchemaVersion: domain.SchemaLegacyRow,
	}
}

func TestRewrite_PreservesNormalizedView(t *testing.T) {
	raw := legacyFixture(7)
	out, before := app.Rewrite(raw)

	assert.Equal(t, domain.SchemaCurrent, out.SchemaVersion)
	assert.Equal(t, map[string]any{"guide": "yes"}, out.Features)

	after := normalize.Normalize(out)
	assert.Equal(t, domain.SchemaCurrent, after.SchemaVersion)
	after.SchemaVersion = before.SchemaVersion
	before.DroppedImages = 0
	assert.Equal(t, before, after)
}

func TestRewrite_KeepsUnknownPriceText(t *testing.T) {
	raw := domain.RawPackage{ID: "x", Title: ptr("On request"), Price: "가격 문의"}
	out, n := app.Rewrite(raw)
	assert.True(t, n.PriceUnknown)
	assert.Equal(t, "가격 문의", out.Price)
	assert.Nil(t, out.Features)
}

func TestBackfill_RewritesAllLegacyRowsConcurrently(t *testing.T) {
	repo := newFakeRepo()
	for i := 1; i <= 25; i++ {
		seedRaw(repo, legacyFixture(i))
	}
	seedRaw(repo, domain.RawPackage{ID: "current", Title: ptr("Now"), Price: 1, SchemaVersion: domain.SchemaCurrent})

	before := map[string]domain.NormalizedPackage{}
	for id, raw := range repo.packages {
		before[id] = normalize.Normalize(raw)
	}

	svc := app.NewBackfillService(repo, newFakeCache())
	rep, err := svc.Run(context.Background(), app.BackfillOptions{Workers: 4, Batch: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, rep.Scanned)
	assert.Equal(t, 25, rep.Rewritten)
	assert.Equal(t, 25, rep.DroppedImages)
	assert.Equal(t, 25, repo.rewrites)

	_, legacy, _ := repo.CountPackages(context.Background())
	assert.Equal(t, 0, legacy)

	for id, raw := range repo.packages {
		got := normalize.Normalize(raw)
		want := before[id]
		want.SchemaVersion, want.DroppedImages = got.SchemaVersion, 0
		assert.Equal(t, want, got, id)
	}

	// second run has nothing to do
	rep, err = svc.Run(context.Background(), app.BackfillOptions{Workers: 4, Batch: 10})
	require.NoError(t, err)
	assert.Zero(t, rep.Scanned)
}

func TestBackfill_DryRunWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	for i := 1; i <= 3; i++ {
		seedRaw(repo, legacyFixture(i))
	}
	rep, err := app.NewBackfillService(repo, nil).Run(context.Background(), app.BackfillOptions{DryRun: true, Batch: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Scanned)
	assert.Zero(t, rep.Rewritten)
	assert.Zero(t, repo.rewrites)
}

func TestBackfill_FailedRowsStayLegacy(t *testing.T) {
	repo := newFakeRepo()
	seedRaw(repo, legacyFixture(1), legacyFixture(2))
	repo.failIDs["2"] = true

	rep, err := app.NewBackfillService(repo, nil).Run(context.Background(), app.BackfillOptions{Workers: 2, Batch: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Rewritten)
	assert.Equal(t, 1, rep.Failed)

	legacy, _ := repo.ListLegacyPackages(context.Background(), 0)
	require.Len(t, legacy, 1)
	assert.Equal(t, "2", legacy[0].ID)
}

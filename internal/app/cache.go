package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"travelshop/internal/domain"
)

// List pages are cached under a generation number so one write can retire all of them.
const packagesGenKey = "packages:gen"

func packageKey(id string) string      { return "package:" + id }
func packageSlugKey(slug string) string { return "package:slug:" + slug }

func packagesKey(gen int64, f domain.PackageFilter) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%d|%d", f.Region, f.Q, f.Limit, f.Offset)))
	return fmt.Sprintf("packages:%d:%s", gen, hex.EncodeToString(sum[:8]))
}

func listGeneration(ctx context.Context, c domain.Cache) int64 {
	if c == nil {
		return 0
	}
	var gen int64
	if ok, err := c.Get(ctx, packagesGenKey, &gen); !ok || err != nil {
		return 0
	}
	return gen
}

// invalidatePackage drops the detail entries for one package and retires every list page.
func invalidatePackage(ctx context.Context, c domain.Cache, id string, slugs ...string) {
	if c == nil {
		return
	}
	_ = c.Del(ctx, packageKey(id))
	for _, s := range slugs {
		if s != "" {
			_ = c.Del(ctx, packageSlugKey(s))
		}
	}
	retireListPages(ctx, c)
}

func retireListPages(ctx context.Context, c domain.Cache) {
	if c == nil {
		return
	}
	_ = c.Set(ctx, packagesGenKey, time.Now().UnixNano(), 0)
}

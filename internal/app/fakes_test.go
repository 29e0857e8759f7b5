package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"travelshop/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu        sync.Mutex
	order     []string
	packages  map[string]domain.RawPackage
	notices   map[int64]domain.Notice
	nextNote  int64
	resv      map[string]domain.Reservation
	users     map[string]domain.User
	rewrites  int
	failIDs   map[string]bool
	listCalls int

	// runs ahead of a status update, standing in for a concurrent writer
	beforeStatusUpdate func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		packages: map[string]domain.RawPackage{},
		notices:  map[int64]domain.Notice{},
		resv:     map[string]domain.Reservation{},
		users:    map[string]domain.User{},
		failIDs:  map[string]bool{},
	}
}

func ptr[T any](v T) *T { return &v }

func fromWriteModel(p domain.Package) domain.RawPackage {
	raw := domain.RawPackage{
		ID:            p.ID,
		Title:         ptr(p.Title),
		Description:   ptr(p.Description),
		Images:        append([]string{}, p.Images...),
		Itinerary:     append([]domain.ItineraryDay{}, p.Itinerary...),
		Highlights:    p.Highlights,
		Included:      p.Included,
		Excluded:      p.Excluded,
		Notes:         p.Notes,
		Slug:          ptr(p.Slug),
		Duration:      ptr(p.Duration),
		Published:     ptr(p.Published),
		SchemaVersion: domain.SchemaCurrent,
	}
	switch {
	case p.Price != nil:
		raw.Price = *p.Price
	case p.PriceText != "":
		raw.Price = p.PriceText
	}
	if len(p.Features) > 0 {
		raw.Features = p.Features
	}
	if p.Region != "" {
		raw.Region = ptr(p.Region)
	}
	if p.RegionKo != "" {
		raw.RegionKo = ptr(p.RegionKo)
	}
	return raw
}

func (f *fakeRepo) put(raw domain.RawPackage) {
	id := fmt.Sprint(raw.ID)
	if _, ok := f.packages[id]; !ok {
		f.order = append(f.order, id)
	}
	f.packages[id] = raw
}

func (f *fakeRepo) slugTaken(slug, except string) bool {
	for id, p := range f.packages {
		if id != except && p.Slug != nil && *p.Slug == slug {
			return true
		}
	}
	return false
}

func (f *fakeRepo) CreatePackage(ctx context.Context, p domain.Package) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.packages[p.ID]; ok || f.slugTaken(p.Slug, "") {
		return domain.ErrConflict
	}
	f.put(fromWriteModel(p))
	return nil
}

func (f *fakeRepo) UpdatePackage(ctx context.Context, p domain.Package) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.packages[p.ID]; !ok {
		return domain.ErrNotFound
	}
	if f.slugTaken(p.Slug, p.ID) {
		return domain.ErrConflict
	}
	f.put(fromWriteModel(p))
	return nil
}

func (f *fakeRepo) DeletePackage(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.packages[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.packages, id)
	for i, o := range f.order {
		if o == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeRepo) RewritePackage(ctx context.Context, raw domain.RawPackage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprint(raw.ID)
	if f.failIDs[id] {
		return errors.New("disk full")
	}
	prev, ok := f.packages[id]
	if !ok {
		return domain.ErrNotFound
	}
	raw.Slug, raw.Duration = prev.Slug, prev.Duration
	f.packages[id] = raw
	f.rewrites++
	return nil
}

func (f *fakeRepo) InsertRawPackage(ctx context.Context, raw domain.RawPackage, legacyID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprint(raw.ID)
	if _, ok := f.packages[id]; ok {
		return domain.ErrConflict
	}
	f.put(raw)
	return nil
}

func (f *fakeRepo) GetPackage(ctx context.Context, id string) (domain.RawPackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.packages[id]
	if !ok {
		return domain.RawPackage{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) GetPackageBySlug(ctx context.Context, slug string) (domain.RawPackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.packages {
		if p.Slug != nil && *p.Slug == slug {
			return p, nil
		}
	}
	return domain.RawPackage{}, domain.ErrNotFound
}

func (f *fakeRepo) ListPackages(ctx context.Context, flt domain.PackageFilter) ([]domain.RawPackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	var out []domain.RawPackage
	for _, id := range f.order {
		p := f.packages[id]
		if flt.PublishedOnly && p.Published != nil && !*p.Published {
			continue
		}
		if flt.Region != "" {
			r, rk := "", ""
			if p.Region != nil {
				r = *p.Region
			}
			if p.RegionKo != nil {
				rk = *p.RegionKo
			}
			if r != flt.Region && rk != flt.Region {
				continue
			}
		}
		if flt.Q != "" {
			t := ""
			if p.Title != nil {
				t = *p.Title
			}
			if !strings.Contains(t, flt.Q) {
				continue
			}
		}
		out = append(out, p)
	}
	if flt.Offset >= len(out) {
		return nil, nil
	}
	out = out[flt.Offset:]
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeRepo) ListLegacyPackages(ctx context.Context, limit int) ([]domain.RawPackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RawPackage
	for _, id := range f.order {
		if p := f.packages[id]; p.SchemaVersion < domain.SchemaCurrent {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) CountPackages(ctx context.Context) (int, int, error) {
	rows, _ := f.ListLegacyPackages(ctx, 0)
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.packages), len(rows), nil
}

func (f *fakeRepo) CreateNotice(ctx context.Context, n domain.Notice) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextNote++
	n.ID = f.nextNote
	f.notices[n.ID] = n
	return n.ID, nil
}

func (f *fakeRepo) UpdateNotice(ctx context.Context, n domain.Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notices[n.ID]; !ok {
		return domain.ErrNotFound
	}
	f.notices[n.ID] = n
	return nil
}

func (f *fakeRepo) DeleteNotice(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notices[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.notices, id)
	return nil
}

func (f *fakeRepo) GetNotice(ctx context.Context, id int64) (domain.Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notices[id]
	if !ok {
		return domain.Notice{}, domain.ErrNotFound
	}
	return n, nil
}

func (f *fakeRepo) ListNotices(ctx context.Context, flt domain.NoticeFilter) ([]domain.Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Notice{}
	for _, n := range f.notices {
		if flt.PublishedOnly && !n.Published {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) CreateReservation(ctx context.Context, r domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resv[r.ID] = r
	return nil
}

func (f *fakeRepo) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resv[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) ListReservations(ctx context.Context, flt domain.ReservationFilter) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Reservation{}
	for _, r := range f.resv {
		if flt.UserID != "" && r.UserID != flt.UserID {
			continue
		}
		if flt.Status != "" && r.Status != flt.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRepo) UpdateReservationStatus(ctx context.Context, id string, from, to domain.ReservationStatus) error {
	if f.beforeStatusUpdate != nil {
		f.beforeStatusUpdate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resv[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Status != from {
		return domain.ErrConflict
	}
	r.Status = to
	f.resv[id] = r
	return nil
}

func (f *fakeRepo) CreateUser(ctx context.Context, u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.users {
		if x.Email == u.Email {
			return domain.ErrConflict
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (f *fakeRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) BumpTokenVersion(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.TokenVersion++
	f.users[id] = u
	return nil
}

// fakeCache round-trips through JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeStore struct {
	uploads map[string][]byte
	deleted []string
}

func (s *fakeStore) EnsureBucket(ctx context.Context, bucket string, public bool) (bool, error) {
	return false, nil
}

func (s *fakeStore) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if s.uploads == nil {
		s.uploads = map[string][]byte{}
	}
	s.uploads[key] = b
	return "https://storage.example.com/" + bucket + "/" + key, nil
}

func (s *fakeStore) Delete(ctx context.Context, bucket, key string) error {
	delete(s.uploads, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// fakeTokens encodes the principal in the clear.
type fakeTokens struct{}

func (fakeTokens) Issue(p domain.Principal) (string, error) {
	return fmt.Sprintf("%s|%s|%d", p.UserID, p.Role, p.TokenVersion), nil
}

func (fakeTokens) Parse(tok string) (domain.Principal, error) {
	var p domain.Principal
	parts := strings.Split(tok, "|")
	if len(parts) != 3 {
		return p, errors.New("malformed token")
	}
	p.UserID, p.Role = parts[0], domain.Role(parts[1])
	_, err := fmt.Sscanf(parts[2], "%d", &p.TokenVersion)
	return p, err
}

type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }
func (fakeHasher) Compare(hash, pw string) error {
	if hash != "hashed:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

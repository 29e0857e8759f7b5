package domain

import (
	"context"
	"io"
)

type PackageRepository interface {
	// Write paths
	CreatePackage(ctx context.Context, p Package) error
	UpdatePackage(ctx context.Context, p Package) error
	DeletePackage(ctx context.Context, id string) error
	RewritePackage(ctx context.Context, raw RawPackage) error
	InsertRawPackage(ctx context.Context, raw RawPackage, legacyID *int64) error

	// Read paths
	GetPackage(ctx context.Context, id string) (RawPackage, error)
	GetPackageBySlug(ctx context.Context, slug string) (RawPackage, error)
	ListPackages(ctx context.Context, f PackageFilter) ([]RawPackage, error)
	ListLegacyPackages(ctx context.Context, limit int) ([]RawPackage, error)
	CountPackages(ctx context.Context) (total, legacy int, err error)
}

type NoticeRepository interface {
	CreateNotice(ctx context.Context, n Notice) (int64, error)
	UpdateNotice(ctx context.Context, n Notice) error
	DeleteNotice(ctx context.Context, id int64) error
	GetNotice(ctx context.Context, id int64) (Notice, error)
	ListNotices(ctx context.Context, f NoticeFilter) ([]Notice, error)
}

type ReservationRepository interface {
	CreateReservation(ctx context.Context, r Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error)
	// UpdateReservationStatus moves a reservation from one status to the next.
	// It returns ErrConflict when the stored status is no longer from.
	UpdateReservationStatus(ctx context.Context, id string, from, to ReservationStatus) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	BumpTokenVersion(ctx context.Context, id string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ObjectStore holds uploaded package images; Upload returns the public URL.
type ObjectStore interface {
	EnsureBucket(ctx context.Context, bucket string, public bool) (created bool, err error)
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Principal is what a verified access token says about its bearer.
type Principal struct {
	UserID       string
	Role         Role
	TokenVersion int
}

type TokenService interface {
	Issue(p Principal) (string, error)
	Parse(token string) (Principal, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

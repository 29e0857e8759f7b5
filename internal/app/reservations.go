package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"travelshop/internal/domain"
)

type ReservationService struct {
	packages     domain.PackageRepository
	reservations domain.ReservationRepository
	now          func() time.Time
}

func NewReservationService(p domain.PackageRepository, r domain.ReservationRepository) *ReservationService {
	return &ReservationService{packages: p, reservations: r, now: time.Now}
}

type BookingRequest struct {
	PackageID    string `json:"package_id" validate:"required"`
	TravelDate   string `json:"travel_date" validate:"required,datetime=2006-01-02"`
	Travelers    int    `json:"travelers" validate:"min=1,max=20"`
	ContactName  string `json:"contact_name" validate:"required,max=100"`
	ContactPhone string `json:"contact_phone" validate:"required,max=32"`
}

// Book reserves a published package for the user. Packages without a known price
// are sold on request and cannot be booked online.
func (s *ReservationService) Book(ctx context.Context, userID string, in BookingRequest) (domain.Reservation, error) {
	in.ContactName = strings.TrimSpace(in.ContactName)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	if err := checkStruct(in); err != nil {
		return domain.Reservation{}, err
	}
	travel, _ := time.Parse("2006-01-02", in.TravelDate)
	today := s.now().UTC().Truncate(24 * time.Hour)
	if !travel.After(today) {
		return domain.Reservation{}, fmt.Errorf("%w: travel date must be in the future", domain.ErrInvalid)
	}

	raw, err := s.packages.GetPackage(ctx, in.PackageID)
	if err != nil {
		return domain.Reservation{}, err
	}
	pkg := normalizeObserved(raw)
	if !pkg.Published {
		return domain.Reservation{}, fmt.Errorf("package %s: %w", in.PackageID, domain.ErrNotFound)
	}
	if pkg.PriceUnknown {
		return domain.Reservation{}, fmt.Errorf("%w: price on request", domain.ErrInvalid)
	}
	if pkg.PriceAmount > math.MaxInt64/int64(in.Travelers) {
		return domain.Reservation{}, fmt.Errorf("%w: total for %d travelers exceeds the supported amount", domain.ErrInvalid, in.Travelers)
	}

	r := domain.Reservation{
		ID:           uuid.NewString(),
		PackageID:    pkg.ID,
		PackageTitle: pkg.Title,
		UserID:       userID,
		TravelDate:   travel,
		Travelers:    in.Travelers,
		ContactName:  in.ContactName,
		ContactPhone: in.ContactPhone,
		Status:       domain.ReservationPending,
		TotalAmount:  pkg.PriceAmount * int64(in.Travelers),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.reservations.CreateReservation(ctx, r); err != nil {
		return domain.Reservation{}, err
	}
	log.Info().Str("id", r.ID).Str("package_id", r.PackageID).Int("travelers", r.Travelers).Msg("reservation created")
	return r, nil
}

func (s *ReservationService) ListMine(ctx context.Context, userID string) ([]domain.Reservation, error) {
	return s.reservations.ListReservations(ctx, domain.ReservationFilter{UserID: userID, Limit: MaxPageLimit})
}

package vehicle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pcd-labs/smart-mobility/pkg/mongo"
	"go.uber.org/zap"
)

// ErrInvalidInput marks request-level validation failures.
var ErrInvalidInput = errors.New("invalid input")

type CreateInput struct {
	Make              string
	Model             string
	Year              int
	LicensePlate      string
	VIN               string
	Color             string
	Mileage           int64
	FuelType          string
	SeatingCapacity   int
	RentalPricePerDay int64
	GPSEnabled        bool
	Status            Status
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Vehicle, error)
	Get(ctx context.Context, id string) (*Vehicle, error)
	List(ctx context.Context, page, size int) (*mongo.PageResult[Vehicle], error)
	Update(ctx context.Context, id string, p Patch) (*Vehicle, error)
	Delete(ctx context.Context, id string) error
	ChangeStatus(ctx context.Context, id string, status Status) (*Vehicle, error)
	ScheduleMaintenance(ctx context.Context, id string, at time.Time) (*Vehicle, error)
	UpdateLocation(ctx context.Context, id string, lat, lon float64) (*Vehicle, error)
}

type service struct {
	repo      Repository
	publisher Publisher
	log       *zap.Logger
	now       func() time.Time
}

func newService(repo Repository, publisher Publisher, log *zap.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Vehicle, error) {
	if in.Make == "" || in.Model == "" {
		return nil, fmt.Errorf("%w: make and model are required", ErrInvalidInput)
	}
	if in.LicensePlate == "" {
		return nil, fmt.Errorf("%w: license plate is required", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if !in.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown vehicle status %q", ErrInvalidInput, in.Status)
	}

	now := s.now()
	v := &Vehicle{
		ID:                uuid.NewString(),
		Make:              in.Make,
		Model:             in.Model,
		Year:              in.Year,
		LicensePlate:      in.LicensePlate,
		VIN:               in.VIN,
		Color:             in.Color,
		Mileage:           in.Mileage,
		FuelType:          in.FuelType,
		SeatingCapacity:   in.SeatingCapacity,
		RentalPricePerDay: in.RentalPricePerDay,
		GPSEnabled:        in.GPSEnabled,
		Status:            in.Status,
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
	}

	if err := s.repo.Insert(ctx, v); err != nil {
		return nil, err
	}

	s.announce(s.publisher.Created(v))
	return v, nil
}

func (s *service) Get(ctx context.Context, id string) (*Vehicle, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, page, size int) (*mongo.PageResult[Vehicle], error) {
	return s.repo.FindWithOptions(ctx, mongo.QueryOptions{Page: page, Size: size})
}

func (s *service) Update(ctx context.Context, id string, p Patch) (*Vehicle, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	v.apply(p)
	v.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, v)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.Updated(updated))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.announce(s.publisher.Deleted(id))
	return nil
}

func (s *service) ChangeStatus(ctx context.Context, id string, status Status) (*Vehicle, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown vehicle status %q", ErrInvalidInput, status)
	}

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := v.Status
	if previous == status {
		return v, nil
	}

	v.Status = status
	v.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, v)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.StatusChanged(updated, previous))
	return updated, nil
}

func (s *service) ScheduleMaintenance(ctx context.Context, id string, at time.Time) (*Vehicle, error) {
	if at.Before(s.now()) {
		return nil, fmt.Errorf("%w: maintenance time must be in the future", ErrInvalidInput)
	}

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := v.Status

	v.Status = StatusMaintenance
	v.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, v)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.MaintenanceScheduled(updated, at))
	if previous != StatusMaintenance {
		s.announce(s.publisher.StatusChanged(updated, previous))
	}
	return updated, nil
}

func (s *service) UpdateLocation(ctx context.Context, id string, lat, lon float64) (*Vehicle, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.GPSEnabled {
		return nil, fmt.Errorf("%w: vehicle has no GPS tracking", ErrInvalidInput)
	}

	v.Latitude = &lat
	v.Longitude = &lon
	v.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, v)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.LocationUpdated(updated))
	return updated, nil
}

// announce logs failed publishes without failing the operation: the write is
// already durable and the event channel is fire-and-forget.
func (s *service) announce(err error) {
	if err != nil {
		s.log.Error("failed to publish vehicle event", zap.Error(err))
	}
}

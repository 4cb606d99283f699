package trip

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

// ErrInvalidTransition marks lifecycle operations applied in the wrong state.
var ErrInvalidTransition = errors.New("invalid trip state transition")

type CreateInput struct {
	TripType       Type
	StartLocation  string
	EndLocation    string
	Waypoints      []string
	ScheduledStart time.Time
	BaseCost       int64
	Notes          string
}

type CompleteInput struct {
	DistanceKM float64
	TotalCost  int64
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Trip, error)
	Get(ctx context.Context, id string) (*Trip, error)
	GetView(ctx context.Context, id string) (*View, error)
	List(ctx context.Context, page, size int) (*mongo.PageResult[Trip], error)
	Update(ctx context.Context, id string, p Patch) (*Trip, error)
	Delete(ctx context.Context, id string) error
	AssignDriver(ctx context.Context, id, driverID string) (*Trip, error)
	AssignVehicle(ctx context.Context, id, vehicleID string) (*Trip, error)
	Start(ctx context.Context, id string) (*Trip, error)
	Complete(ctx context.Context, id string, in CompleteInput) (*Trip, error)
	Cancel(ctx context.Context, id, reason string) (*Trip, error)
}

type service struct {
	repo      Repository
	publisher Publisher
	resolver  Resolver
	users     UserDirectory
	vehicles  VehicleDirectory
	log       *zap.Logger
	now       func() time.Time
}

func newService(
	repo Repository,
	publisher Publisher,
	resolver Resolver,
	users UserDirectory,
	vehicles VehicleDirectory,
	log *zap.Logger,
) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		resolver:  resolver,
		users:     users,
		vehicles:  vehicles,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Trip, error) {
	if in.StartLocation == "" || in.EndLocation == "" {
		return nil, fmt.Errorf("%w: start and end locations are required", ErrInvalidInput)
	}
	if in.ScheduledStart.IsZero() {
		return nil, fmt.Errorf("%w: scheduled start time is required", ErrInvalidInput)
	}
	if in.TripType == "" {
		in.TripType = TypeOneWay
	}
	if !in.TripType.IsValid() {
		return nil, fmt.Errorf("%w: unknown trip type %q", ErrInvalidInput, in.TripType)
	}

	now := s.now()
	t := &Trip{
		ID:             uuid.NewString(),
		TripType:       in.TripType,
		Status:         StatusScheduled,
		StartLocation:  in.StartLocation,
		EndLocation:    in.EndLocation,
		Waypoints:      in.Waypoints,
		ScheduledStart: in.ScheduledStart,
		BaseCost:       in.BaseCost,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}

	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}

	s.announce(s.publisher.Created(t))
	return t, nil
}

func (s *service) Get(ctx context.Context, id string) (*Trip, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetView(ctx context.Context, id string) (*View, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, t), nil
}

func (s *service) List(ctx context.Context, page, size int) (*mongo.PageResult[Trip], error) {
	return s.repo.FindWithOptions(ctx, mongo.QueryOptions{Page: page, Size: size})
}

func (s *service) Update(ctx context.Context, id string, p Patch) (*Trip, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusCompleted || t.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: cannot modify a %s trip", ErrInvalidTransition, t.Status)
	}

	t.apply(p)
	t.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.Updated(updated))
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Status == StatusInProgress {
		return fmt.Errorf("%w: cannot delete a trip in progress", ErrInvalidTransition)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.announce(s.publisher.Deleted(id))
	return nil
}

// AssignDriver binds a driver to the trip after confirming the user service
// knows them. An unreachable user service resolves to a placeholder with an
// empty status, which is accepted so assignments keep working during outages.
func (s *service) AssignDriver(ctx context.Context, id, driverID string) (*Trip, error) {
	if driverID == "" {
		return nil, fmt.Errorf("%w: driver id is required", ErrInvalidInput)
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: driver can only be assigned to a scheduled trip", ErrInvalidTransition)
	}

	driver, err := s.users.Driver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, fmt.Errorf("%w: driver %s does not exist", ErrInvalidInput, driverID)
	}
	if driver.DriverStatus != "" && driver.DriverStatus != "ACTIVE" {
		return nil, fmt.Errorf("%w: driver %s is %s", ErrInvalidInput, driverID, driver.DriverStatus)
	}

	t.DriverID = &driverID
	t.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.DriverAssigned(updated))
	return updated, nil
}

// AssignVehicle binds a vehicle to the trip after confirming the vehicle
// service knows it and it is in service.
func (s *service) AssignVehicle(ctx context.Context, id, vehicleID string) (*Trip, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("%w: vehicle id is required", ErrInvalidInput)
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: vehicle can only be assigned to a scheduled trip", ErrInvalidTransition)
	}

	vehicle, err := s.vehicles.Vehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %s does not exist", ErrInvalidInput, vehicleID)
	}
	if vehicle.Status != "" && vehicle.Status != "ACTIVE" {
		return nil, fmt.Errorf("%w: vehicle %s is %s", ErrInvalidInput, vehicleID, vehicle.Status)
	}

	t.VehicleID = &vehicleID
	t.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.Updated(updated))
	return updated, nil
}

func (s *service) Start(ctx context.Context, id string) (*Trip, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: only a scheduled trip can start, got %s", ErrInvalidTransition, t.Status)
	}
	if t.DriverID == nil || t.VehicleID == nil {
		return nil, fmt.Errorf("%w: trip needs a driver and a vehicle before starting", ErrInvalidInput)
	}

	now := s.now()
	t.Status = StatusInProgress
	t.ActualStart = &now
	t.UpdatedAt = now

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.Started(updated))
	return updated, nil
}

func (s *service) Complete(ctx context.Context, id string, in CompleteInput) (*Trip, error) {
	if in.DistanceKM < 0 {
		return nil, fmt.Errorf("%w: distance cannot be negative", ErrInvalidInput)
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: only a trip in progress can complete, got %s", ErrInvalidTransition, t.Status)
	}

	now := s.now()
	t.Status = StatusCompleted
	t.ActualEnd = &now
	t.DistanceKM = in.DistanceKM
	t.TotalCost = in.TotalCost
	if t.TotalCost == 0 {
		t.TotalCost = t.BaseCost
	}
	if t.ActualStart != nil {
		t.DurationMinutes = int64(now.Sub(*t.ActualStart).Minutes())
	}
	t.UpdatedAt = now

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.Completed(updated))
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, id, reason string) (*Trip, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusCompleted || t.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: cannot cancel a %s trip", ErrInvalidTransition, t.Status)
	}

	now := s.now()
	t.Status = StatusCancelled
	t.ActualEnd = &now
	if reason != "" {
		t.Notes = reason
	}
	t.UpdatedAt = now

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.Cancelled(updated))
	return updated, nil
}

// announce logs failed publishes without failing the operation: the write is
// already durable and the event channel is fire-and-forget.
func (s *service) announce(err error) {
	if err != nil {
		s.log.Error("failed to publish trip event", zap.Error(err))
	}
}

package user

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
	FirstName     string
	LastName      string
	Email         string
	PhoneNumber   string
	LicenseNumber string
	DriverStatus  DriverStatus
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, page, size int) (*mongo.PageResult[User], error)
	Update(ctx context.Context, id string, p Patch) (*User, error)
	Delete(ctx context.Context, id string) error
	ChangeDriverStatus(ctx context.Context, id string, status DriverStatus) (*User, error)
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

func (s *service) Create(ctx context.Context, in CreateInput) (*User, error) {
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if in.DriverStatus == "" {
		in.DriverStatus = DriverActive
	}
	if !in.DriverStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown driver status %q", ErrInvalidInput, in.DriverStatus)
	}

	now := s.now()
	u := &User{
		ID:            uuid.NewString(),
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		PhoneNumber:   in.PhoneNumber,
		LicenseNumber: in.LicenseNumber,
		DriverStatus:  in.DriverStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}

	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}

	s.announce(s.publisher.Created(u))
	return u, nil
}

func (s *service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, page, size int) (*mongo.PageResult[User], error) {
	return s.repo.FindWithOptions(ctx, mongo.QueryOptions{Page: page, Size: size})
}

func (s *service) Update(ctx context.Context, id string, p Patch) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.apply(p)
	u.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, u)
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

func (s *service) ChangeDriverStatus(ctx context.Context, id string, status DriverStatus) (*User, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown driver status %q", ErrInvalidInput, status)
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := u.DriverStatus
	if previous == status {
		return u, nil
	}

	u.DriverStatus = status
	u.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, u)
	if err != nil {
		return nil, err
	}

	s.announce(s.publisher.StatusChanged(updated, previous))
	return updated, nil
}

// announce logs failed publishes without failing the operation: the write is
// already durable and the event channel is fire-and-forget.
func (s *service) announce(err error) {
	if err != nil {
		s.log.Error("failed to publish user event", zap.Error(err))
	}
}

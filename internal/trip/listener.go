package trip

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/pcd-labs/smart-mobility/pkg/event"
	broker "github.com/pcd-labs/smart-mobility/pkg/kafka"
	"go.uber.org/zap"
)

// userEventsHandler keeps the driver cache consistent with the user service.
// Invalidation is idempotent, so redelivered records are harmless.
type userEventsHandler struct {
	users UserDirectory
	repo  Repository
	log   *zap.Logger
}

func newUserEventsHandler(users UserDirectory, repo Repository, log *zap.Logger) *userEventsHandler {
	return &userEventsHandler{users: users, repo: repo, log: log}
}

func (h *userEventsHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	var env event.Envelope[event.UserPayload]
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("%w: malformed user event: %v", broker.ErrPermanent, err)
	}
	if env.EntityID == "" {
		return fmt.Errorf("%w: user event without entity id", broker.ErrPermanent)
	}

	switch env.Type {
	case event.UserUpdated, event.UserStatusChanged:
		h.users.Invalidate(env.EntityID)
		h.log.Debug("driver cache invalidated",
			zap.String("user_id", env.EntityID),
			zap.String("type", string(env.Type)))

	case event.UserDeleted:
		h.users.Invalidate(env.EntityID)
		active, err := h.repo.CountActiveByDriver(ctx, env.EntityID)
		if err != nil {
			return fmt.Errorf("failed to check trips for deleted user %s: %w", env.EntityID, err)
		}
		if active > 0 {
			h.log.Warn("deleted user still referenced by active trips",
				zap.String("user_id", env.EntityID),
				zap.Int64("active_trips", active))
		}

	case event.UserCreated:
		h.log.Info("user created", zap.String("user_id", env.EntityID))

	default:
		// Unknown types are acknowledged; the producer may be newer than us.
		h.log.Debug("ignoring user event",
			zap.String("type", string(env.Type)),
			zap.String("user_id", env.EntityID))
	}
	return nil
}

// vehicleEventsHandler keeps the vehicle cache consistent with the vehicle
// service and flags vehicles that leave service while trips depend on them.
type vehicleEventsHandler struct {
	vehicles VehicleDirectory
	repo     Repository
	log      *zap.Logger
}

func newVehicleEventsHandler(vehicles VehicleDirectory, repo Repository, log *zap.Logger) *vehicleEventsHandler {
	return &vehicleEventsHandler{vehicles: vehicles, repo: repo, log: log}
}

func (h *vehicleEventsHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	var env event.Envelope[event.VehiclePayload]
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("%w: malformed vehicle event: %v", broker.ErrPermanent, err)
	}
	if env.EntityID == "" {
		return fmt.Errorf("%w: vehicle event without entity id", broker.ErrPermanent)
	}

	switch env.Type {
	case event.VehicleUpdated, event.VehicleLocationUpdated:
		h.vehicles.Invalidate(env.EntityID)

	case event.VehicleStatusChanged, event.VehicleMaintenanceScheduled:
		h.vehicles.Invalidate(env.EntityID)
		if err := h.warnIfUnavailable(ctx, env); err != nil {
			return err
		}

	case event.VehicleDeleted:
		h.vehicles.Invalidate(env.EntityID)
		active, err := h.repo.CountActiveByVehicle(ctx, env.EntityID)
		if err != nil {
			return fmt.Errorf("failed to check trips for deleted vehicle %s: %w", env.EntityID, err)
		}
		if active > 0 {
			h.log.Warn("deleted vehicle still referenced by active trips",
				zap.String("vehicle_id", env.EntityID),
				zap.Int64("active_trips", active))
		}

	case event.VehicleCreated:
		h.log.Info("vehicle created", zap.String("vehicle_id", env.EntityID))

	default:
		h.log.Debug("ignoring vehicle event",
			zap.String("type", string(env.Type)),
			zap.String("vehicle_id", env.EntityID))
	}
	return nil
}

// warnIfUnavailable flags status transitions that pull the vehicle out of
// service while trips still depend on it.
func (h *vehicleEventsHandler) warnIfUnavailable(ctx context.Context, env event.Envelope[event.VehiclePayload]) error {
	if env.Payload == nil || env.Payload.Status == nil {
		return nil
	}
	if *env.Payload.Status != "MAINTENANCE" && *env.Payload.Status != "INACTIVE" {
		return nil
	}

	active, err := h.repo.CountActiveByVehicle(ctx, env.EntityID)
	if err != nil {
		return fmt.Errorf("failed to check trips for vehicle %s: %w", env.EntityID, err)
	}
	if active > 0 {
		h.log.Warn("vehicle became unavailable with active trips",
			zap.String("vehicle_id", env.EntityID),
			zap.String("status", *env.Payload.Status),
			zap.Int64("active_trips", active))
	}
	return nil
}

package trip

import (
	"context"
	"time"

	"github.com/pcd-labs/smart-mobility/pkg/mongo"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const collectionName = "trips"

type tripEntity struct {
	ID              string     `bson:"_id"`
	DriverID        *string    `bson:"driverId,omitempty"`
	VehicleID       *string    `bson:"vehicleId,omitempty"`
	TripType        string     `bson:"tripType"`
	Status          string     `bson:"status"`
	StartLocation   string     `bson:"startLocation"`
	EndLocation     string     `bson:"endLocation"`
	Waypoints       []string   `bson:"waypoints,omitempty"`
	ScheduledStart  time.Time  `bson:"scheduledStart"`
	ActualStart     *time.Time `bson:"actualStart,omitempty"`
	ActualEnd       *time.Time `bson:"actualEnd,omitempty"`
	DistanceKM      float64    `bson:"distanceKm"`
	DurationMinutes int64      `bson:"durationMinutes"`
	BaseCost        int64      `bson:"baseCost"`
	TotalCost       int64      `bson:"totalCost"`
	Notes           string     `bson:"notes,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt"`
	Version         int        `bson:"version"`
}

type tripMapper struct{}

func (tripMapper) ToEntity(t *Trip) *tripEntity {
	return &tripEntity{
		ID:              t.ID,
		DriverID:        t.DriverID,
		VehicleID:       t.VehicleID,
		TripType:        string(t.TripType),
		Status:          string(t.Status),
		StartLocation:   t.StartLocation,
		EndLocation:     t.EndLocation,
		Waypoints:       t.Waypoints,
		ScheduledStart:  t.ScheduledStart,
		ActualStart:     t.ActualStart,
		ActualEnd:       t.ActualEnd,
		DistanceKM:      t.DistanceKM,
		DurationMinutes: t.DurationMinutes,
		BaseCost:        t.BaseCost,
		TotalCost:       t.TotalCost,
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		Version:         t.Version,
	}
}

func (tripMapper) ToDomain(e *tripEntity) *Trip {
	return &Trip{
		ID:              e.ID,
		DriverID:        e.DriverID,
		VehicleID:       e.VehicleID,
		TripType:        Type(e.TripType),
		Status:          Status(e.Status),
		StartLocation:   e.StartLocation,
		EndLocation:     e.EndLocation,
		Waypoints:       e.Waypoints,
		ScheduledStart:  e.ScheduledStart,
		ActualStart:     e.ActualStart,
		ActualEnd:       e.ActualEnd,
		DistanceKM:      e.DistanceKM,
		DurationMinutes: e.DurationMinutes,
		BaseCost:        e.BaseCost,
		TotalCost:       e.TotalCost,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Version:         e.Version,
	}
}

func (tripMapper) GetID(e *tripEntity) string      { return e.ID }
func (tripMapper) GetVersion(e *tripEntity) int    { return e.Version }
func (tripMapper) SetVersion(e *tripEntity, v int) { e.Version = v }

type Repository interface {
	Insert(ctx context.Context, t *Trip) error
	FindByID(ctx context.Context, id string) (*Trip, error)
	FindWithOptions(ctx context.Context, opts mongo.QueryOptions) (*mongo.PageResult[Trip], error)
	Update(ctx context.Context, t *Trip) (*Trip, error)
	Delete(ctx context.Context, id string) error
	CountActiveByDriver(ctx context.Context, driverID string) (int64, error)
	CountActiveByVehicle(ctx context.Context, vehicleID string) (int64, error)
}

type repository struct {
	*mongo.GenericRepository[Trip, tripEntity]
}

func newRepository(m mongo.Mongo) (Repository, error) {
	generic, err := mongo.NewGenericRepository[Trip, tripEntity](m.GetCollection(collectionName), tripMapper{})
	if err != nil {
		return nil, err
	}
	return &repository{GenericRepository: generic}, nil
}

// activeStatuses are trip states still referencing live driver and vehicle
// records.
var activeStatuses = bson.A{string(StatusScheduled), string(StatusInProgress)}

func (r *repository) CountActiveByDriver(ctx context.Context, driverID string) (int64, error) {
	result, err := r.FindWithOptions(ctx, mongo.QueryOptions{
		Filter: bson.D{
			{Key: "driverId", Value: driverID},
			{Key: "status", Value: bson.D{{Key: "$in", Value: activeStatuses}}},
		},
		Size: 1,
	})
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

func (r *repository) CountActiveByVehicle(ctx context.Context, vehicleID string) (int64, error) {
	result, err := r.FindWithOptions(ctx, mongo.QueryOptions{
		Filter: bson.D{
			{Key: "vehicleId", Value: vehicleID},
			{Key: "status", Value: bson.D{{Key: "$in", Value: activeStatuses}}},
		},
		Size: 1,
	})
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

package vehicle

import (
	"context"
	"time"

	"github.com/pcd-labs/smart-mobility/pkg/mongo"
)

const collectionName = "vehicles"

type vehicleEntity struct {
	ID                string    `bson:"_id"`
	Make              string    `bson:"make"`
	Model             string    `bson:"model"`
	Year              int       `bson:"year"`
	LicensePlate      string    `bson:"licensePlate"`
	VIN               string    `bson:"vin"`
	Color             string    `bson:"color"`
	Mileage           int64     `bson:"mileage"`
	FuelType          string    `bson:"fuelType"`
	SeatingCapacity   int       `bson:"seatingCapacity"`
	RentalPricePerDay int64     `bson:"rentalPricePerDay"`
	GPSEnabled        bool      `bson:"gpsEnabled"`
	Status            string    `bson:"status"`
	Latitude          *float64  `bson:"latitude,omitempty"`
	Longitude         *float64  `bson:"longitude,omitempty"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
	Version           int       `bson:"version"`
}

type vehicleMapper struct{}

func (vehicleMapper) ToEntity(v *Vehicle) *vehicleEntity {
	return &vehicleEntity{
		ID:                v.ID,
		Make:              v.Make,
		Model:             v.Model,
		Year:              v.Year,
		LicensePlate:      v.LicensePlate,
		VIN:               v.VIN,
		Color:             v.Color,
		Mileage:           v.Mileage,
		FuelType:          v.FuelType,
		SeatingCapacity:   v.SeatingCapacity,
		RentalPricePerDay: v.RentalPricePerDay,
		GPSEnabled:        v.GPSEnabled,
		Status:            string(v.Status),
		Latitude:          v.Latitude,
		Longitude:         v.Longitude,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
		Version:           v.Version,
	}
}

func (vehicleMapper) ToDomain(e *vehicleEntity) *Vehicle {
	return &Vehicle{
		ID:                e.ID,
		Make:              e.Make,
		Model:             e.Model,
		Year:              e.Year,
		LicensePlate:      e.LicensePlate,
		VIN:               e.VIN,
		Color:             e.Color,
		Mileage:           e.Mileage,
		FuelType:          e.FuelType,
		SeatingCapacity:   e.SeatingCapacity,
		RentalPricePerDay: e.RentalPricePerDay,
		GPSEnabled:        e.GPSEnabled,
		Status:            Status(e.Status),
		Latitude:          e.Latitude,
		Longitude:         e.Longitude,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
		Version:           e.Version,
	}
}

func (vehicleMapper) GetID(e *vehicleEntity) string      { return e.ID }
func (vehicleMapper) GetVersion(e *vehicleEntity) int    { return e.Version }
func (vehicleMapper) SetVersion(e *vehicleEntity, v int) { e.Version = v }

type Repository interface {
	Insert(ctx context.Context, v *Vehicle) error
	FindByID(ctx context.Context, id string) (*Vehicle, error)
	FindWithOptions(ctx context.Context, opts mongo.QueryOptions) (*mongo.PageResult[Vehicle], error)
	Update(ctx context.Context, v *Vehicle) (*Vehicle, error)
	Delete(ctx context.Context, id string) error
}

func newRepository(m mongo.Mongo) (Repository, error) {
	return mongo.NewGenericRepository[Vehicle, vehicleEntity](m.GetCollection(collectionName), vehicleMapper{})
}

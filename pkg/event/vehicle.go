package event

import "time"

// Vehicle event types published by the vehicle service.
const (
	VehicleCreated              Type = "VEHICLE_CREATED"
	VehicleUpdated              Type = "VEHICLE_UPDATED"
	VehicleDeleted              Type = "VEHICLE_DELETED"
	VehicleStatusChanged        Type = "VEHICLE_STATUS_CHANGED"
	VehicleMaintenanceScheduled Type = "VEHICLE_MAINTENANCE_SCHEDULED"
	VehicleLocationUpdated      Type = "VEHICLE_LOCATION_UPDATED"
)

// VehiclePayload is a superset snapshot of the vehicle attributes relevant to
// subscribers.
type VehiclePayload struct {
	Make              *string  `json:"make,omitempty"`
	Model             *string  `json:"model,omitempty"`
	Year              *int     `json:"year,omitempty"`
	LicensePlate      *string  `json:"license_plate,omitempty"`
	Status            *string  `json:"status,omitempty"`
	PreviousStatus    *string  `json:"previous_status,omitempty"`
	VIN               *string  `json:"vin,omitempty"`
	Color             *string  `json:"color,omitempty"`
	Mileage           *int64   `json:"mileage,omitempty"`
	FuelType          *string  `json:"fuel_type,omitempty"`
	SeatingCapacity   *int     `json:"seating_capacity,omitempty"`
	RentalPricePerDay *int64   `json:"rental_price_per_day,omitempty"`
	GPSEnabled        *bool    `json:"gps_enabled,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`

	// MaintenanceAt is set only on VEHICLE_MAINTENANCE_SCHEDULED.
	MaintenanceAt *time.Time `json:"maintenance_at,omitempty"`
}

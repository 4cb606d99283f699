package event

// Trip event types published by the trips service.
const (
	TripCreated         Type = "TRIP_CREATED"
	TripUpdated         Type = "TRIP_UPDATED"
	TripDeleted         Type = "TRIP_DELETED"
	TripStarted         Type = "TRIP_STARTED"
	TripCompleted       Type = "TRIP_COMPLETED"
	TripCancelled       Type = "TRIP_CANCELLED"
	TripDriverAssigned  Type = "TRIP_DRIVER_ASSIGNED"
	TripLocationUpdated Type = "TRIP_LOCATION_UPDATED"
)

// TripPayload is a superset snapshot of the trip attributes relevant to
// subscribers.
type TripPayload struct {
	VehicleID *string  `json:"vehicle_id,omitempty"`
	DriverID  *string  `json:"driver_id,omitempty"`
	TripType  *string  `json:"trip_type,omitempty"`
	Status    *string  `json:"status,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Distance  *float64 `json:"distance,omitempty"`
	Duration  *int64   `json:"duration,omitempty"`
	TotalCost *int64   `json:"total_cost,omitempty"`
}

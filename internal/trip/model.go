package trip

import "time"

// Status tracks the trip lifecycle.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Type distinguishes how the trip was booked.
type Type string

const (
	TypeOneWay    Type = "ONE_WAY"
	TypeRoundTrip Type = "ROUND_TRIP"
	TypeHourly    Type = "HOURLY"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeOneWay, TypeRoundTrip, TypeHourly:
		return true
	}
	return false
}

// Trip references its driver and vehicle by id only; the owning services hold
// the records. Both references are optional until assignment.
type Trip struct {
	ID              string
	DriverID        *string
	VehicleID       *string
	TripType        Type
	Status          Status
	StartLocation   string
	EndLocation     string
	Waypoints       []string
	ScheduledStart  time.Time
	ActualStart     *time.Time
	ActualEnd       *time.Time
	DistanceKM      float64
	DurationMinutes int64
	BaseCost        int64
	TotalCost       int64
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
}

// Patch carries a partial update; nil fields keep their current value.
type Patch struct {
	StartLocation  *string
	EndLocation    *string
	Waypoints      *[]string
	ScheduledStart *time.Time
	BaseCost       *int64
	Notes          *string
}

func (t *Trip) apply(p Patch) {
	if p.StartLocation != nil {
		t.StartLocation = *p.StartLocation
	}
	if p.EndLocation != nil {
		t.EndLocation = *p.EndLocation
	}
	if p.Waypoints != nil {
		t.Waypoints = *p.Waypoints
	}
	if p.ScheduledStart != nil {
		t.ScheduledStart = *p.ScheduledStart
	}
	if p.BaseCost != nil {
		t.BaseCost = *p.BaseCost
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
}

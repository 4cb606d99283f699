package vehicle

import "time"

// Status tracks vehicle availability for trip assignment.
type Status string

const (
	StatusActive      Status = "ACTIVE"
	StatusInactive    Status = "INACTIVE"
	StatusMaintenance Status = "MAINTENANCE"
	StatusInUse       Status = "IN_USE"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusMaintenance, StatusInUse:
		return true
	}
	return false
}

type Vehicle struct {
	ID                string
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
	Latitude          *float64
	Longitude         *float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int
}

// Patch carries a partial update; nil fields keep their current value.
type Patch struct {
	Make              *string
	Model             *string
	Year              *int
	LicensePlate      *string
	VIN               *string
	Color             *string
	Mileage           *int64
	FuelType          *string
	SeatingCapacity   *int
	RentalPricePerDay *int64
	GPSEnabled        *bool
}

func (v *Vehicle) apply(p Patch) {
	if p.Make != nil {
		v.Make = *p.Make
	}
	if p.Model != nil {
		v.Model = *p.Model
	}
	if p.Year != nil {
		v.Year = *p.Year
	}
	if p.LicensePlate != nil {
		v.LicensePlate = *p.LicensePlate
	}
	if p.VIN != nil {
		v.VIN = *p.VIN
	}
	if p.Color != nil {
		v.Color = *p.Color
	}
	if p.Mileage != nil {
		v.Mileage = *p.Mileage
	}
	if p.FuelType != nil {
		v.FuelType = *p.FuelType
	}
	if p.SeatingCapacity != nil {
		v.SeatingCapacity = *p.SeatingCapacity
	}
	if p.RentalPricePerDay != nil {
		v.RentalPricePerDay = *p.RentalPricePerDay
	}
	if p.GPSEnabled != nil {
		v.GPSEnabled = *p.GPSEnabled
	}
}

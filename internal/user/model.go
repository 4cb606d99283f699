package user

import "time"

// DriverStatus reflects whether the user may be assigned to trips.
type DriverStatus string

const (
	DriverActive    DriverStatus = "ACTIVE"
	DriverInactive  DriverStatus = "INACTIVE"
	DriverSuspended DriverStatus = "SUSPENDED"
	DriverOnLeave   DriverStatus = "ON_LEAVE"
)

func (s DriverStatus) IsValid() bool {
	switch s {
	case DriverActive, DriverInactive, DriverSuspended, DriverOnLeave:
		return true
	}
	return false
}

type User struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	PhoneNumber   string
	LicenseNumber string
	DriverStatus  DriverStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int
}

// Patch carries a partial update; nil fields keep their current value.
type Patch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	PhoneNumber   *string
	LicenseNumber *string
}

func (u *User) apply(p Patch) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.LicenseNumber != nil {
		u.LicenseNumber = *p.LicenseNumber
	}
}

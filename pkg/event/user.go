package event

// User event types published by the user service.
const (
	UserCreated       Type = "USER_CREATED"
	UserUpdated       Type = "USER_UPDATED"
	UserDeleted       Type = "USER_DELETED"
	UserStatusChanged Type = "USER_STATUS_CHANGED"
)

// UserPayload is a superset snapshot of the user attributes relevant to
// subscribers. Only the fields relevant to the event type are populated.
type UserPayload struct {
	FirstName     *string `json:"first_name,omitempty"`
	LastName      *string `json:"last_name,omitempty"`
	Email         *string `json:"email,omitempty"`
	PhoneNumber   *string `json:"phone_number,omitempty"`
	LicenseNumber *string `json:"license_number,omitempty"`
	DriverStatus  *string `json:"driver_status,omitempty"`

	// PreviousDriverStatus is set only on USER_STATUS_CHANGED.
	PreviousDriverStatus *string `json:"previous_driver_status,omitempty"`
}

package event

// Topic names are fixed per domain. Partition count and replication are
// deployment configuration; the code only relies on key-based partitioning
// and manual offset commit semantics.
const (
	UserTopic    = "smart-mobility.user.events"
	VehicleTopic = "smart-mobility.vehicle.events"
	TripTopic    = "smart-mobility.trip.events"
)

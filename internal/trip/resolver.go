package trip

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// View is a trip enriched with the referenced driver and vehicle records.
// Driver and Vehicle are nil when the trip has no reference or the owning
// service confirmed the record is gone.
type View struct {
	Trip    *Trip       `json:"trip"`
	Driver  *Driver     `json:"driver,omitempty"`
	Vehicle *VehicleRef `json:"vehicle,omitempty"`
}

// Resolver composes federated trip views by resolving foreign references in
// parallel against the owning services.
type Resolver interface {
	Resolve(ctx context.Context, t *Trip) *View
}

type resolver struct {
	users    UserDirectory
	vehicles VehicleDirectory
	log      *zap.Logger
}

func newResolver(users UserDirectory, vehicles VehicleDirectory, log *zap.Logger) Resolver {
	return &resolver{users: users, vehicles: vehicles, log: log}
}

// Resolve never fails the trip read: a reference that cannot be resolved is
// reported as absent rather than degrading the whole view.
func (r *resolver) Resolve(ctx context.Context, t *Trip) *View {
	view := &View{Trip: t}

	g, gctx := errgroup.WithContext(ctx)
	if t.DriverID != nil {
		g.Go(func() error {
			driver, err := r.users.Driver(gctx, *t.DriverID)
			if err != nil {
				r.log.Warn("failed to resolve driver",
					zap.String("trip_id", t.ID),
					zap.String("driver_id", *t.DriverID),
					zap.Error(err))
				return nil
			}
			view.Driver = driver
			return nil
		})
	}
	if t.VehicleID != nil {
		g.Go(func() error {
			vehicle, err := r.vehicles.Vehicle(gctx, *t.VehicleID)
			if err != nil {
				r.log.Warn("failed to resolve vehicle",
					zap.String("trip_id", t.ID),
					zap.String("vehicle_id", *t.VehicleID),
					zap.Error(err))
				return nil
			}
			view.Vehicle = vehicle
			return nil
		})
	}
	_ = g.Wait()

	return view
}

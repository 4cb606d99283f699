package trip

import (
	"context"
	"testing"
	"time"

	"github.com/pcd-labs/smart-mobility/pkg/mongo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	created, updated, started, completed, cancelled, assigned []*Trip
	deleted                                                   []string
}

func (p *recordingPublisher) Created(t *Trip) error { p.created = append(p.created, t); return nil }
func (p *recordingPublisher) Updated(t *Trip) error { p.updated = append(p.updated, t); return nil }
func (p *recordingPublisher) Deleted(id string) error {
	p.deleted = append(p.deleted, id)
	return nil
}
func (p *recordingPublisher) Started(t *Trip) error   { p.started = append(p.started, t); return nil }
func (p *recordingPublisher) Completed(t *Trip) error { p.completed = append(p.completed, t); return nil }
func (p *recordingPublisher) Cancelled(t *Trip) error { p.cancelled = append(p.cancelled, t); return nil }
func (p *recordingPublisher) DriverAssigned(t *Trip) error {
	p.assigned = append(p.assigned, t)
	return nil
}

func newTestService() (Service, *fakeTripRepo, *recordingPublisher, *fakeUsers, *fakeVehicles) {
	repo := newFakeTripRepo()
	pub := &recordingPublisher{}
	users := &fakeUsers{drivers: map[string]*Driver{
		"U1": {ID: "U1", FirstName: "Ada", DriverStatus: "ACTIVE"},
		"U2": {ID: "U2", FirstName: "Bob", DriverStatus: "SUSPENDED"},
	}}
	vehicles := &fakeVehicles{vehicles: map[string]*VehicleRef{
		"V1": {ID: "V1", Make: "Toyota", Status: "ACTIVE"},
		"V2": {ID: "V2", Make: "Honda", Status: "MAINTENANCE"},
	}}
	log := zap.NewNop()
	svc := newService(repo, pub, newResolver(users, vehicles, log), users, vehicles, log)
	return svc, repo, pub, users, vehicles
}

func validCreateInput() CreateInput {
	return CreateInput{
		StartLocation:  "Lyon",
		EndLocation:    "Paris",
		ScheduledStart: time.Now().Add(time.Hour),
		BaseCost:       5000,
	}
}

func createScheduledTrip(t *testing.T, svc Service) *Trip {
	t.Helper()
	trip, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	return trip
}

func createStartedTrip(t *testing.T, svc Service) *Trip {
	t.Helper()
	trip := createScheduledTrip(t, svc)
	_, err := svc.AssignDriver(context.Background(), trip.ID, "U1")
	require.NoError(t, err)
	_, err = svc.AssignVehicle(context.Background(), trip.ID, "V1")
	require.NoError(t, err)
	started, err := svc.Start(context.Background(), trip.ID)
	require.NoError(t, err)
	return started
}

func TestCreate_PersistsAndAnnounces(t *testing.T) {
	svc, repo, pub, _, _ := newTestService()

	trip, err := svc.Create(context.Background(), validCreateInput())

	require.NoError(t, err)
	assert.NotEmpty(t, trip.ID)
	assert.Equal(t, StatusScheduled, trip.Status)
	assert.Equal(t, TypeOneWay, trip.TripType)
	assert.Contains(t, repo.trips, trip.ID)
	require.Len(t, pub.created, 1)
}

func TestCreate_RejectsMissingLocations(t *testing.T) {
	svc, _, pub, _, _ := newTestService()

	in := validCreateInput()
	in.EndLocation = ""
	_, err := svc.Create(context.Background(), in)

	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, pub.created)
}

func TestAssignDriver_VerifiesDriverAndAnnounces(t *testing.T) {
	svc, _, pub, _, _ := newTestService()
	trip := createScheduledTrip(t, svc)

	updated, err := svc.AssignDriver(context.Background(), trip.ID, "U1")

	require.NoError(t, err)
	require.NotNil(t, updated.DriverID)
	assert.Equal(t, "U1", *updated.DriverID)
	require.Len(t, pub.assigned, 1)
}

func TestAssignDriver_RejectsSuspendedDriver(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	trip := createScheduledTrip(t, svc)

	_, err := svc.AssignDriver(context.Background(), trip.ID, "U2")

	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssignDriver_RejectsUnknownDriver(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	trip := createScheduledTrip(t, svc)

	_, err := svc.AssignDriver(context.Background(), trip.ID, "nobody")

	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssignVehicle_RejectsVehicleInMaintenance(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	trip := createScheduledTrip(t, svc)

	_, err := svc.AssignVehicle(context.Background(), trip.ID, "V2")

	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestStart_RequiresDriverAndVehicle(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	trip := createScheduledTrip(t, svc)

	_, err := svc.Start(context.Background(), trip.ID)

	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestStart_MovesToInProgressAndStampsStart(t *testing.T) {
	svc, _, pub, _, _ := newTestService()

	started := createStartedTrip(t, svc)

	assert.Equal(t, StatusInProgress, started.Status)
	require.NotNil(t, started.ActualStart)
	require.Len(t, pub.started, 1)
}

func TestStart_RejectsNonScheduledTrip(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	started := createStartedTrip(t, svc)

	_, err := svc.Start(context.Background(), started.ID)

	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestComplete_StampsEndDistanceAndCost(t *testing.T) {
	svc, _, pub, _, _ := newTestService()
	started := createStartedTrip(t, svc)

	completed, err := svc.Complete(context.Background(), started.ID, CompleteInput{
		DistanceKM: 465.5,
		TotalCost:  7500,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.ActualEnd)
	assert.InDelta(t, 465.5, completed.DistanceKM, 1e-9)
	assert.Equal(t, int64(7500), completed.TotalCost)
	require.Len(t, pub.completed, 1)
}

func TestComplete_RejectsScheduledTrip(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	trip := createScheduledTrip(t, svc)

	_, err := svc.Complete(context.Background(), trip.ID, CompleteInput{})

	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel_RecordsReason(t *testing.T) {
	svc, _, pub, _, _ := newTestService()
	trip := createScheduledTrip(t, svc)

	cancelled, err := svc.Cancel(context.Background(), trip.ID, "customer no-show")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "customer no-show", cancelled.Notes)
	require.Len(t, pub.cancelled, 1)
}

func TestCancel_RejectsCompletedTrip(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	started := createStartedTrip(t, svc)
	_, err := svc.Complete(context.Background(), started.ID, CompleteInput{})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), started.ID, "")

	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdate_RejectsFinishedTrip(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	trip := createScheduledTrip(t, svc)
	_, err := svc.Cancel(context.Background(), trip.ID, "")
	require.NoError(t, err)

	notes := "new notes"
	_, err = svc.Update(context.Background(), trip.ID, Patch{Notes: &notes})

	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDelete_RejectsTripInProgress(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	started := createStartedTrip(t, svc)

	err := svc.Delete(context.Background(), started.ID)

	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetView_ComposesReferences(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	trip := createScheduledTrip(t, svc)
	_, err := svc.AssignDriver(context.Background(), trip.ID, "U1")
	require.NoError(t, err)
	_, err = svc.AssignVehicle(context.Background(), trip.ID, "V1")
	require.NoError(t, err)

	view, err := svc.GetView(context.Background(), trip.ID)

	require.NoError(t, err)
	require.NotNil(t, view.Driver)
	assert.Equal(t, "Ada", view.Driver.FirstName)
	require.NotNil(t, view.Vehicle)
	assert.Equal(t, "Toyota", view.Vehicle.Make)
}

func TestGetView_UnknownTripReturnsNotFound(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.GetView(context.Background(), "missing")

	require.ErrorIs(t, err, mongo.ErrEntityNotFound)
}

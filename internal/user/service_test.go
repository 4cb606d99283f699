package user

import (
	"context"
	"testing"
	"time"

	"github.com/pcd-labs/smart-mobility/pkg/mongo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	users map[string]*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*User)}
}

func (r *fakeRepo) Insert(ctx context.Context, u *User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrEntityNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) FindWithOptions(ctx context.Context, opts mongo.QueryOptions) (*mongo.PageResult[User], error) {
	items := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		items = append(items, &cp)
	}
	return &mongo.PageResult[User]{Items: items, Total: int64(len(items)), Page: 1, Size: len(items)}, nil
}

func (r *fakeRepo) Update(ctx context.Context, u *User) (*User, error) {
	if _, ok := r.users[u.ID]; !ok {
		return nil, mongo.ErrEntityNotFound
	}
	cp := *u
	cp.Version++
	r.users[u.ID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

type recordingPublisher struct {
	created, updated, statusChanged []*User
	deleted                         []string
}

func (p *recordingPublisher) Created(u *User) error { p.created = append(p.created, u); return nil }
func (p *recordingPublisher) Updated(u *User) error { p.updated = append(p.updated, u); return nil }
func (p *recordingPublisher) Deleted(id string) error {
	p.deleted = append(p.deleted, id)
	return nil
}
func (p *recordingPublisher) StatusChanged(u *User, previous DriverStatus) error {
	p.statusChanged = append(p.statusChanged, u)
	return nil
}

func newTestService() (Service, *fakeRepo, *recordingPublisher) {
	repo := newFakeRepo()
	pub := &recordingPublisher{}
	return newService(repo, pub, zap.NewNop()), repo, pub
}

func TestCreate_PersistsAndAnnounces(t *testing.T) {
	svc, repo, pub := newTestService()

	u, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, DriverActive, u.DriverStatus)
	assert.Equal(t, 1, u.Version)
	assert.Contains(t, repo.users, u.ID)
	require.Len(t, pub.created, 1)
}

func TestCreate_RejectsMissingEmail(t *testing.T) {
	svc, _, pub := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{FirstName: "Ada", LastName: "L"})

	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, pub.created)
}

func TestUpdate_AppliesOnlyProvidedFields(t *testing.T) {
	svc, _, pub := newTestService()
	created, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PhoneNumber: "123",
	})
	require.NoError(t, err)

	email := "countess@example.com"
	updated, err := svc.Update(context.Background(), created.ID, Patch{Email: &email})

	require.NoError(t, err)
	assert.Equal(t, "countess@example.com", updated.Email)
	// Untouched fields survive the patch.
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "123", updated.PhoneNumber)
	require.Len(t, pub.updated, 1)
}

func TestUpdate_UnknownUserReturnsNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Update(context.Background(), "missing", Patch{})

	require.ErrorIs(t, err, mongo.ErrEntityNotFound)
}

func TestDelete_AnnouncesEntityID(t *testing.T) {
	svc, repo, pub := newTestService()
	created, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	assert.NotContains(t, repo.users, created.ID)
	require.Equal(t, []string{created.ID}, pub.deleted)
}

func TestChangeDriverStatus_PublishesTransition(t *testing.T) {
	svc, _, pub := newTestService()
	created, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	require.NoError(t, err)

	updated, err := svc.ChangeDriverStatus(context.Background(), created.ID, DriverSuspended)

	require.NoError(t, err)
	assert.Equal(t, DriverSuspended, updated.DriverStatus)
	require.Len(t, pub.statusChanged, 1)
}

func TestChangeDriverStatus_NoOpWhenUnchanged(t *testing.T) {
	svc, _, pub := newTestService()
	created, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	require.NoError(t, err)

	_, err = svc.ChangeDriverStatus(context.Background(), created.ID, DriverActive)

	require.NoError(t, err)
	assert.Empty(t, pub.statusChanged)
}

func TestCreate_StampsTimestamps(t *testing.T) {
	repo := newFakeRepo()
	pub := &recordingPublisher{}
	svc := &service{
		repo:      repo,
		publisher: pub,
		log:       zap.NewNop(),
		now:       func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}

	u, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, 2026, u.CreatedAt.Year())
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
}

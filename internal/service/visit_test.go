package service_test

import (
	"context"
	"testing"

	"telemed/internal/auth"
	"telemed/internal/config"
	"telemed/internal/docstore"
	"telemed/internal/model"
	"telemed/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Visit: config.VisitConfig{
			DefaultWaitingRoomID: "default",
			// Nanosecond precision keeps back-to-back creates in tests from
			// colliding on the same visit id.
			IDTimeLayout: "20060102-150405.000000000",
		},
		Users: config.UserConfig{NameMaxLength: 100},
	}
}

func newVisitService(store docstore.Store) *service.VisitService {
	return service.NewVisitService(store, testConfig(), zap.NewNop())
}

func seedProfile(t *testing.T, store docstore.Store, uid string) {
	t.Helper()
	u := &model.User{FirstName: "Jane", LastName: "Doe", Status: model.UserStatusActive, Role: model.RolePatient}
	require.NoError(t, store.Create(context.Background(), docstore.Join("users", uid), u.Document()))
}

func patientIdentity(uid string) auth.Identity {
	return auth.Identity{SubjectID: uid, Email: uid + "@example.com", EmailVerified: true, Role: "patient"}
}

func waitingUsers(t *testing.T, store docstore.Store) []*docstore.Snapshot {
	t.Helper()
	snaps, err := store.Query(context.Background(),
		docstore.Join("waitingRooms", "default", "waitingUsers"),
		docstore.Query{OrderBy: "createdAt"})
	require.NoError(t, err)
	return snaps
}

func TestCreateVisit(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedProfile(t, store, "u1")
	visits := newVisitService(store)

	res, err := visits.Create(ctx, service.NewIdentityContext(patientIdentity("u1"), store), false)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "u1", res.UserID)
	require.NotEmpty(t, res.VisitID)

	visit, err := store.Get(ctx, docstore.Join("users", "u1", "visits", res.VisitID))
	require.NoError(t, err)
	assert.Equal(t, false, visit.Data["isFinished"])
	assert.Equal(t, "waiting", visit.Data["status"])
	roomToken, _ := visit.Data["roomToken"].(string)
	assert.Len(t, roomToken, 32)

	entries := waitingUsers(t, store)
	require.Len(t, entries, 1)
	wu := model.WaitingUserFromDocument(entries[0].Data)
	assert.Equal(t, "u1", wu.UserID)
	assert.Equal(t, res.VisitID, wu.VisitID)
	assert.Equal(t, model.WaitingUserWaiting, wu.Status)
	// The queue entry shares the visit's room token and snapshots the profile.
	assert.Equal(t, roomToken, wu.RoomToken)
	assert.Equal(t, "Jane", wu.User["firstName"])
}

func TestCreateVisitReusesUnfinished(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedProfile(t, store, "u1")
	visits := newVisitService(store)
	caller := func() *service.IdentityContext {
		return service.NewIdentityContext(patientIdentity("u1"), store)
	}

	first, err := visits.Create(ctx, caller(), false)
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := visits.Create(ctx, caller(), false)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.VisitID, second.VisitID)

	assert.Len(t, waitingUsers(t, store), 1)
}

func TestCreateVisitSkipDedup(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedProfile(t, store, "u1")
	visits := newVisitService(store)
	caller := func() *service.IdentityContext {
		return service.NewIdentityContext(patientIdentity("u1"), store)
	}

	first, err := visits.Create(ctx, caller(), false)
	require.NoError(t, err)

	second, err := visits.Create(ctx, caller(), true)
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.NotEqual(t, first.VisitID, second.VisitID)

	assert.Len(t, waitingUsers(t, store), 2)
}

func TestCreateVisitNotRegistered(t *testing.T) {
	store := docstore.NewMemory()
	visits := newVisitService(store)

	_, err := visits.Create(context.Background(),
		service.NewIdentityContext(patientIdentity("ghost"), store), false)
	assert.ErrorIs(t, err, service.ErrNotRegistered)
	assert.Empty(t, waitingUsers(t, store))
}

func TestCreateVisitCancelled(t *testing.T) {
	store := docstore.NewMemory()
	seedProfile(t, store, "u1")
	visits := newVisitService(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := visits.Create(ctx, service.NewIdentityContext(patientIdentity("u1"), store), false)
	assert.ErrorIs(t, err, service.ErrIndeterminate)
}

func TestFinishVisit(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedProfile(t, store, "u1")
	visits := newVisitService(store)

	res, err := visits.Create(ctx, service.NewIdentityContext(patientIdentity("u1"), store), false)
	require.NoError(t, err)
	entries := waitingUsers(t, store)
	require.Len(t, entries, 1)

	require.NoError(t, visits.Finish(ctx, "default", entries[0].ID))

	visit, err := store.Get(ctx, docstore.Join("users", "u1", "visits", res.VisitID))
	require.NoError(t, err)
	assert.Equal(t, true, visit.Data["isFinished"])

	entry, err := store.Get(ctx, entries[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "finished", entry.Data["status"])
}

func TestFinishVisitUnknownWaitingUser(t *testing.T) {
	store := docstore.NewMemory()
	visits := newVisitService(store)

	err := visits.Finish(context.Background(), "default", "nope")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestFinishVisitInvalidIDs(t *testing.T) {
	visits := newVisitService(docstore.NewMemory())
	ctx := context.Background()

	for _, tt := range []struct{ room, wu string }{
		{"..", "wu1"},
		{"default", ""},
		{"default", "__wu__"},
		{"a/b", "wu1"},
	} {
		err := visits.Finish(ctx, tt.room, tt.wu)
		assert.ErrorIs(t, err, service.ErrInvalidID, "room %q wu %q", tt.room, tt.wu)
	}
}

// raceStore makes every Get of the marked document race with a concurrent
// writer: the snapshot is returned with an already-stale update time.
type raceStore struct {
	docstore.Store
	bumpPath string
}

func (r *raceStore) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	snap, err := r.Store.Get(ctx, path)
	if err == nil && path == r.bumpPath {
		onCall, _ := model.WaitingUserStatuses.Encode(model.WaitingUserOnCall)
		if uerr := r.Store.Update(ctx, path, docstore.Document{"status": onCall}, docstore.None()); uerr != nil {
			return nil, uerr
		}
	}
	return snap, err
}

func TestFinishVisitConcurrentModification(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedProfile(t, store, "u1")
	visits := newVisitService(store)

	res, err := visits.Create(ctx, service.NewIdentityContext(patientIdentity("u1"), store), false)
	require.NoError(t, err)
	entries := waitingUsers(t, store)
	require.Len(t, entries, 1)

	racing := newVisitService(&raceStore{Store: store, bumpPath: entries[0].Path})
	err = racing.Finish(ctx, "default", entries[0].ID)
	assert.ErrorIs(t, err, service.ErrConcurrentModification)

	// The rejected batch must leave the visit side untouched too.
	visit, err := store.Get(ctx, docstore.Join("users", "u1", "visits", res.VisitID))
	require.NoError(t, err)
	assert.Equal(t, false, visit.Data["isFinished"])

	entry, err := store.Get(ctx, entries[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "onCall", entry.Data["status"])
}

package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.Get(ctx, "users/u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Create(ctx, "users/u1", Document{"firstName": "Jane"}))

	snap, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", snap.ID)
	assert.Equal(t, "Jane", snap.Data["firstName"])
	assert.False(t, snap.UpdateTime.IsZero())

	err = s.Create(ctx, "users/u1", Document{})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Create(ctx, "users/u1", Document{"firstName": "Jane"}))

	snap, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	snap.Data["firstName"] = "mutated"

	again, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", again.Data["firstName"])
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Create(ctx, "users/u1", Document{"firstName": "Jane", "lastName": "Doe"}))

	before, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "users/u1", Document{"firstName": "Joan"}, None()))

	after, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, "Joan", after.Data["firstName"])
	assert.Equal(t, "Doe", after.Data["lastName"])
	assert.True(t, after.UpdateTime.After(before.UpdateTime))

	err = s.Update(ctx, "users/nope", Document{"x": 1}, None())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdatePrecondition(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Create(ctx, "users/u1", Document{"n": 0}))

	snap, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "users/u1", Document{"n": 1}, LastUpdated(snap.UpdateTime)))

	// The first update moved the timestamp, so the captured one is stale.
	err = s.Update(ctx, "users/u1", Document{"n": 2}, LastUpdated(snap.UpdateTime))
	assert.ErrorIs(t, err, ErrFailedPrecondition)
}

func TestMemoryBatchAtomicity(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Create(ctx, "users/u1", Document{"n": 0}))
	require.NoError(t, s.Create(ctx, "users/u2", Document{"n": 0}))

	// Second op fails (occupied path), so the first must not apply.
	b := s.Batch()
	b.Update("users/u1", Document{"n": 1}, None())
	b.Create("users/u2", Document{})
	err := b.Commit(ctx)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	snap, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Data["n"])

	// Stale precondition rejects the whole batch as well.
	snap2, err := s.Get(ctx, "users/u2")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, "users/u2", Document{"n": 5}, None()))

	b = s.Batch()
	b.Update("users/u1", Document{"n": 1}, None())
	b.Update("users/u2", Document{"n": 9}, LastUpdated(snap2.UpdateTime))
	err = b.Commit(ctx)
	assert.ErrorIs(t, err, ErrFailedPrecondition)

	snap, err = s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Data["n"])
}

func TestMemoryBatchCommitSucceeds(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Create(ctx, "users/u1", Document{"busy": false}))

	b := s.Batch()
	b.Create("users/u1/visits/v1", Document{"isFinished": false})
	b.Update("users/u1", Document{"busy": true}, None())
	require.NoError(t, b.Commit(ctx))

	visit, err := s.Get(ctx, "users/u1/visits/v1")
	require.NoError(t, err)
	assert.Equal(t, false, visit.Data["isFinished"])

	user, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, true, user.Data["busy"])
}

func TestMemoryBatchCancelledContext(t *testing.T) {
	s := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := s.Batch()
	b.Create("users/u1", Document{})
	err := b.Commit(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Get(context.Background(), "users/u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, "users/u1/visits/v1",
		Document{"isFinished": true, "createdAt": base}))
	require.NoError(t, s.Create(ctx, "users/u1/visits/v2",
		Document{"isFinished": false, "createdAt": base.Add(2 * time.Minute)}))
	require.NoError(t, s.Create(ctx, "users/u1/visits/v3",
		Document{"isFinished": false, "createdAt": base.Add(time.Minute)}))
	require.NoError(t, s.Create(ctx, "users/u2/visits/v4",
		Document{"isFinished": false, "createdAt": base}))

	snaps, err := s.Query(ctx, "users/u1/visits", Query{
		Field:   "isFinished",
		Equals:  false,
		OrderBy: "createdAt",
	})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	// Ascending by createdAt: v3 before v2.
	assert.Equal(t, "v3", snaps[0].ID)
	assert.Equal(t, "v2", snaps[1].ID)

	snaps, err = s.Query(ctx, "users/u1/visits", Query{
		Field:   "isFinished",
		Equals:  false,
		OrderBy: "createdAt",
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "v3", snaps[0].ID)

	snaps, err = s.Query(ctx, "users/u1/visits", Query{OrderBy: "createdAt"})
	require.NoError(t, err)
	assert.Len(t, snaps, 3)
}

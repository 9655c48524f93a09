package timeoff_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/timeoff"
)

func TestRoster_RegisterRejectsDuplicates(t *testing.T) {
	// GIVEN: Nikos Papas with phone 6900000000 on the roster
	// WHEN: registering the same name and phone again
	// THEN: AlreadyExists; a different phone is a different worker

	_, roster, _ := newTestScheduler(t)
	ctx := context.Background()

	in := timeoff.WorkerInput{FirstName: "Nikos", LastName: "Papas", Phone: "6900000000"}
	_, err := roster.Register(ctx, in)
	require.NoError(t, err)

	_, err = roster.Register(ctx, in)
	assert.ErrorIs(t, err, generic.ErrAlreadyExists)

	in.Phone = "6911111111"
	_, err = roster.Register(ctx, in)
	assert.NoError(t, err)
}

func TestRoster_RegisterRequiresNames(t *testing.T) {
	_, roster, _ := newTestScheduler(t)

	_, err := roster.Register(context.Background(), timeoff.WorkerInput{LastName: "Papas"})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestRoster_EditPreservesCounter(t *testing.T) {
	sched, roster, s := newTestScheduler(t)
	ctx := context.Background()
	w := registerWorkers(t, roster, "A")[0]

	_, err := sched.Add(ctx, leave(w.ID, "2025-01-01", "2025-01-04"))
	require.NoError(t, err)

	edited, err := roster.Edit(ctx, w.ID, timeoff.WorkerInput{FirstName: "Anna", LastName: "Worker", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "Anna", edited.FirstName)
	assert.Equal(t, 4, accrued(t, s, w.ID))

	_, err = roster.Edit(ctx, "missing", timeoff.WorkerInput{FirstName: "X", LastName: "Y"})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestRoster_DeleteCascadesLeaves(t *testing.T) {
	// GIVEN: A worker with two leaves
	// WHEN: the worker is deleted
	// THEN: the worker and both leaves are gone

	sched, roster, s := newTestScheduler(t)
	ctx := context.Background()
	w := registerWorkers(t, roster, "A")[0]

	_, err := sched.Add(ctx, leave(w.ID, "2025-01-01", "2025-01-02"))
	require.NoError(t, err)
	_, err = sched.Add(ctx, leave(w.ID, "2025-02-01", "2025-02-02"))
	require.NoError(t, err)

	require.NoError(t, roster.Delete(ctx, w.ID))

	_, err = roster.Get(ctx, w.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound)
	left, err := s.Leaves().ByWorker(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, roster.Delete(ctx, w.ID), generic.ErrNotFound)
}

func TestRoster_QueriesReportEmptyAsNotFound(t *testing.T) {
	_, roster, _ := newTestScheduler(t)
	ctx := context.Background()

	_, err := roster.All(ctx)
	assert.ErrorIs(t, err, generic.ErrNotFound)

	registerWorkers(t, roster, "A", "B")

	all, err := roster.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := roster.Find(ctx, generic.WorkerFilter{FirstName: "B"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "555-B", found[0].Phone)

	_, err = roster.Find(ctx, generic.WorkerFilter{Phone: "nope"})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test component types shared across the package tests.
type position struct {
	X float32
	Y float32
}

type health struct {
	Current int32
	Max     int32
}

// newTestState builds a frame state over {position, health} with the given
// limit.
func newTestState(t *testing.T, limit EntityLimit) (*FrameState, Handle[position], Handle[health]) {
	t.Helper()
	schema := NewSchema()
	pos, err := RegisterComponent[position](schema)
	require.NoError(t, err)
	hp, err := RegisterComponent[health](schema)
	require.NoError(t, err)
	state, err := NewFrameState(schema, limit)
	require.NoError(t, err)
	return state, pos, hp
}

// mustCreate allocates n entities and returns their IDs.
func mustCreate(t *testing.T, state *FrameState, n int) []EntityID {
	t.Helper()
	out := make([]EntityID, n)
	for i := range out {
		e, err := state.CreateEntity()
		require.NoError(t, err)
		out[i] = e
	}
	return out
}

func Test_Storage_AddAndGet(t *testing.T) {
	state, pos, _ := newTestState(t, EntityLimitTiny)
	es := mustCreate(t, state, 3)

	require.NoError(t, pos.Add(state, es[1], position{X: 7, Y: 9}))

	p := pos.Get(state, es[1])
	require.NotNil(t, p)
	assert.Equal(t, position{X: 7, Y: 9}, *p)
	assert.Nil(t, pos.Get(state, es[0]))
	assert.True(t, pos.Has(state, es[1]))
	assert.False(t, pos.Has(state, es[2]))
	assert.Equal(t, 1, pos.Storage(state).Count())
}

func Test_Storage_AddDuplicateIsNoOp(t *testing.T) {
	state, pos, _ := newTestState(t, EntityLimitTiny)
	es := mustCreate(t, state, 1)
	require.NoError(t, pos.Add(state, es[0], position{X: 1}))

	require.NoError(t, pos.Add(state, es[0], position{X: 42}))

	assert.Equal(t, float32(1), pos.Get(state, es[0]).X, "second add must not overwrite")
	assert.Equal(t, 1, pos.Storage(state).Count())
}

func Test_Storage_GetInvalidEntityIsNil(t *testing.T) {
	state, pos, _ := newTestState(t, EntityLimitTiny)

	assert.Nil(t, pos.Get(state, InvalidEntity))
	assert.Nil(t, pos.Get(state, 63))
	assert.False(t, pos.Has(state, InvalidEntity))
}

func Test_Storage_SwapRemoveIntegrity(t *testing.T) {
	// Scenario: four packed components, remove one from the middle, the
	// survivors keep their values and lookups.
	state, pos, _ := newTestState(t, EntityLimitTiny)
	es := mustCreate(t, state, 4)
	for i, e := range es {
		require.NoError(t, pos.Add(state, e, position{X: float32(i)}))
	}

	assert.True(t, pos.Remove(state, es[1]))

	assert.Equal(t, float32(0), pos.Get(state, es[0]).X)
	assert.Equal(t, float32(2), pos.Get(state, es[2]).X)
	assert.Equal(t, float32(3), pos.Get(state, es[3]).X)
	assert.Nil(t, pos.Get(state, es[1]))
	assert.Equal(t, 3, pos.Storage(state).Count())
}

func Test_Storage_RemoveIsIdempotent(t *testing.T) {
	state, pos, _ := newTestState(t, EntityLimitTiny)
	es := mustCreate(t, state, 2)
	require.NoError(t, pos.Add(state, es[0], position{X: 5}))

	assert.True(t, pos.Remove(state, es[0]))
	assert.False(t, pos.Remove(state, es[0]), "second remove must report absence")

	assert.Equal(t, 0, pos.Storage(state).Count())
	assert.False(t, pos.Has(state, es[0]))
}

func Test_Storage_RemoveLastElement(t *testing.T) {
	state, pos, _ := newTestState(t, EntityLimitTiny)
	es := mustCreate(t, state, 2)
	require.NoError(t, pos.Add(state, es[0], position{X: 0}))
	require.NoError(t, pos.Add(state, es[1], position{X: 1}))

	assert.True(t, pos.Remove(state, es[1]))

	assert.Equal(t, float32(0), pos.Get(state, es[0]).X)
	assert.Equal(t, 1, pos.Storage(state).Count())
}

func Test_Storage_BitsetMirrorsPresence(t *testing.T) {
	state, pos, _ := newTestState(t, EntityLimitSmall)
	es := mustCreate(t, state, 10)
	for _, e := range es {
		require.NoError(t, pos.Add(state, e, position{}))
	}
	pos.Remove(state, es[4])
	pos.Remove(state, es[7])

	st := pos.Storage(state)
	assert.Equal(t, st.Count(), st.Bits().Count())
	for _, e := range es {
		assert.Equal(t, st.Has(e), st.Bits().Test(uint32(e)), "entity %d", e)
	}
}

func Test_Storage_OutOfRangeAddFails(t *testing.T) {
	state, pos, _ := newTestState(t, EntityLimitTiny)

	err := pos.Storage(state).Add(64, position{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntityLimitExceeded)
}

func Test_Handle_AddToDeadEntityFails(t *testing.T) {
	state, pos, _ := newTestState(t, EntityLimitTiny)
	es := mustCreate(t, state, 1)
	state.DestroyEntity(es[0])

	err := pos.Add(state, es[0], position{})

	assert.ErrorIs(t, err, ErrInvalidEntity)
	assert.ErrorIs(t, pos.Add(state, 50, position{}), ErrInvalidEntity, "never-created entity")
}

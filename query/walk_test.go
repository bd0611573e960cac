// Copyright 2025 Canvas Technologies, Inc. All rights reserved
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvas-technologies/tdxaux/tdcall"
)

// twoFieldModule scripts a well-behaved field set of size two:
// -1 -> (5, 42, next 7), 7 -> (7, 99, next -1).
func twoFieldModule() map[int64]FieldResult {
	return map[int64]FieldResult{
		-1: {FieldID: 5, NextID: 7, Value: 42, Status: 0},
		7:  {FieldID: 7, NextID: -1, Value: 99, Status: 0},
	}
}

func TestWalkFields(t *testing.T) {
	inv := &fakeInvoker{handler: fieldTable(twoFieldModule())}
	svc := NewService(inv, testConfig())

	fields, status, err := svc.WalkFields()
	require.NoError(t, err)

	assert.Equal(t, int32(0), status)
	require.Len(t, fields, 2)

	assert.Equal(t, int64(5), fields[0].FieldID)
	assert.Equal(t, uint64(42), fields[0].Value)
	assert.Equal(t, int64(7), fields[1].FieldID)
	assert.Equal(t, uint64(99), fields[1].Value)

	assert.Equal(t, 2, inv.calls, "exactly one call per field")
}

func TestWalkerStepwise(t *testing.T) {
	inv := &fakeInvoker{handler: fieldTable(twoFieldModule())}
	w := NewService(inv, testConfig()).Fields()

	res, ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5), res.FieldID)

	res, ok, err = w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), res.FieldID)

	_, ok, err = w.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	// Exhausted walkers stay exhausted.
	_, ok, err = w.Next()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, inv.calls)
}

func TestWalkerRestart(t *testing.T) {
	inv := &fakeInvoker{handler: fieldTable(twoFieldModule())}
	svc := NewService(inv, testConfig())

	first, _, err := svc.WalkFields()
	require.NoError(t, err)

	second, _, err := svc.WalkFields()
	require.NoError(t, err)

	assert.Equal(t, first, second, "a restarted walk yields the same sequence")
}

func TestWalkEndOfWalkStatus(t *testing.T) {
	const endStatus int32 = 0x100

	table := map[int64]FieldResult{
		-1: {FieldID: 5, NextID: 7, Value: 42, Status: 0},
		7:  {Status: endStatus},
	}

	t.Run("configured status ends walk cleanly", func(t *testing.T) {
		cfg := testConfig()
		cfg.EndOfWalkStatus = endStatus

		inv := &fakeInvoker{handler: fieldTable(table)}

		fields, status, err := NewService(inv, cfg).WalkFields()
		require.NoError(t, err)

		assert.Equal(t, int32(0), status)
		assert.Len(t, fields, 1)
	})

	t.Run("unconfigured status is surfaced", func(t *testing.T) {
		inv := &fakeInvoker{handler: fieldTable(table)}

		fields, status, err := NewService(inv, testConfig()).WalkFields()
		require.NoError(t, err)

		assert.Equal(t, endStatus, status)
		assert.Len(t, fields, 1)
	})
}

func TestWalkStepGuard(t *testing.T) {
	// A cyclic next id sequence must not walk forever.
	cyclic := map[int64]FieldResult{
		-1: {FieldID: 1, NextID: 2, Status: 0},
		2:  {FieldID: 2, NextID: 1, Status: 0},
		1:  {FieldID: 1, NextID: 2, Status: 0},
	}

	cfg := testConfig()
	cfg.MaxWalkSteps = 8

	inv := &fakeInvoker{handler: fieldTable(cyclic)}

	fields, _, err := NewService(inv, cfg).WalkFields()

	require.ErrorIs(t, err, ErrWalkTruncated)
	assert.Len(t, fields, 8)
	assert.Equal(t, 8, inv.calls)
}

func TestWalkLeafUnset(t *testing.T) {
	inv := &fakeInvoker{handler: fieldTable(twoFieldModule())}

	cfg := testConfig()
	cfg.SysRdLeaf = 0

	_, _, err := NewService(inv, cfg).WalkFields()

	require.ErrorIs(t, err, ErrLeafNotSet)
	assert.Zero(t, inv.calls)
}

func TestWalkEnvironmentUnavailable(t *testing.T) {
	inv := &fakeInvoker{
		handler: func(leaf uint64, args *tdcall.Args) (int64, error) {
			return 0, tdcall.ErrNoTDXGuest
		},
	}

	_, _, err := NewService(inv, testConfig()).WalkFields()
	require.ErrorIs(t, err, tdcall.ErrNoTDXGuest)
}

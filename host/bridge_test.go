package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"unitrt/value"
)

func TestCreateRuleMonotonic(t *testing.T) {
	b := NewBridge()
	r1 := b.CreateRule("X")
	r2 := b.CreateRule("X")
	assert.Equal(t, uint32(1), r1.ID)
	assert.Equal(t, uint32(2), r2.ID)
	assert.Equal(t, value.RuleTypeTag, r1.TypeTag)
}

// TestConcurrentSpawnIDsFormContiguousSet exercises P4: for N concurrent
// create_rule calls, the resulting id set is {k, ..., k+N-1}.
func TestConcurrentSpawnIDsFormContiguousSet(t *testing.T) {
	b := NewBridge()
	const threads = 8
	const perThread = 1000

	ids := make(chan uint32, threads*perThread)
	var g errgroup.Group
	for i := 0; i < threads; i++ {
		g.Go(func() error {
			for j := 0; j < perThread; j++ {
				ids <- b.CreateRule("X").ID
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(ids)

	seen := make(map[uint32]bool, threads*perThread)
	for id := range ids {
		require.Falsef(t, seen[id], "duplicate rule id %d", id)
		seen[id] = true
	}
	require.Len(t, seen, threads*perThread)
	for id := uint32(1); id <= threads*perThread; id++ {
		assert.Truef(t, seen[id], "missing expected id %d", id)
	}
}

func TestRegisterUnregisterFunction(t *testing.T) {
	b := NewBridge()
	assert.False(t, b.HasFunction("io.print"))
	b.RegisterFunction("io.print", func(args []value.Value) (value.Value, error) {
		return value.Nil, nil
	})
	assert.True(t, b.HasFunction("io.print"))

	_, ok, err := b.CallFunction("io.print", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, b.UnregisterFunction("io.print"), "expected first unregister to report removal")
	assert.False(t, b.UnregisterFunction("io.print"), "expected second unregister to report no removal")
}

func TestCallFunctionMiss(t *testing.T) {
	b := NewBridge()
	_, ok, err := b.CallFunction("nope", nil)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestRegisteredFunctionGuardCloseIdempotent(t *testing.T) {
	b := NewBridge()
	g := RegisterGuarded(b, "temp.fn", func(args []value.Value) (value.Value, error) {
		return value.Nil, nil
	})
	require.True(t, b.HasFunction("temp.fn"))
	require.NoError(t, g.Close())
	assert.False(t, b.HasFunction("temp.fn"))
	assert.NoError(t, g.Close(), "second Close should be a no-op")
}

// TestCallFunctionReleasesLockBeforeInvoking ensures a callee that
// registers another function does not deadlock (spec.md §4.4).
func TestCallFunctionReleasesLockBeforeInvoking(t *testing.T) {
	b := NewBridge()
	b.RegisterFunction("self.register", func(args []value.Value) (value.Value, error) {
		b.RegisterFunction("registered.from.callee", func(args []value.Value) (value.Value, error) {
			return value.Nil, nil
		})
		return value.Nil, nil
	})

	var g errgroup.Group
	g.Go(func() error {
		_, _, err := b.CallFunction("self.register", nil)
		return err
	})
	require.NoError(t, g.Wait())

	assert.True(t, b.HasFunction("registered.from.callee"))
}

package b2

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRaiseIsMonotone(t *testing.T) {
	reg := NewRegistry()
	now := time.Now()

	assert.True(t, reg.Raise("acct", now.Add(5*time.Second)))
	assert.True(t, reg.Raise("acct", now.Add(10*time.Second)))

	// A shorter delay arriving later never lowers the deadline.
	assert.False(t, reg.Raise("acct", now.Add(3*time.Second)))

	until, ok := reg.Deadline("acct")
	require.True(t, ok)
	assert.Equal(t, now.Add(10*time.Second), until)
}

func TestRegistryConcurrentRaisesKeepMaximum(t *testing.T) {
	reg := NewRegistry()
	now := time.Now()
	short := now.Add(5 * time.Second)
	long := now.Add(10 * time.Second)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Raise("acct", short)
		}()
		go func() {
			defer wg.Done()
			reg.Raise("acct", long)
		}()
	}
	wg.Wait()

	until, ok := reg.Deadline("acct")
	require.True(t, ok)
	assert.Equal(t, long, until)
}

func TestRegistryClearIf(t *testing.T) {
	t.Run("clears when unchanged", func(t *testing.T) {
		reg := NewRegistry()
		until := time.Now().Add(time.Second)
		reg.Raise("acct", until)

		assert.True(t, reg.ClearIf("acct", until))
		_, ok := reg.Deadline("acct")
		assert.False(t, ok)
	})

	t.Run("rejected when raised during the wait", func(t *testing.T) {
		reg := NewRegistry()
		observed := time.Now().Add(time.Second)
		newer := observed.Add(9 * time.Second)
		reg.Raise("acct", observed)
		reg.Raise("acct", newer)

		assert.False(t, reg.ClearIf("acct", observed))
		until, ok := reg.Deadline("acct")
		require.True(t, ok)
		assert.Equal(t, newer, until)
	})

	t.Run("rejected when already cleared", func(t *testing.T) {
		reg := NewRegistry()
		assert.False(t, reg.ClearIf("acct", time.Now()))
	})
}

func TestRegistryShutdownIsPermanent(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.IsShutdown("acct"))

	reg.Shutdown("acct")
	assert.True(t, reg.IsShutdown("acct"))
	assert.False(t, reg.IsShutdown("other"))
}

func TestRegistryIsolatesAccounts(t *testing.T) {
	reg := NewRegistry()
	until := time.Now().Add(time.Minute)
	reg.Raise("one", until)

	_, ok := reg.Deadline("two")
	assert.False(t, ok)
}

package nexus_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/demiplane/demiplane/pkg/nexus"
	"github.com/demiplane/demiplane/pkg/outcome"
)

type Counter struct{ n int }

// TestSingleFlightConstruction spawns against a freshly-registered
// factory from 16 goroutines concurrently, where the factory
// increments a static counter; the counter must end at 1 and every
// handle must point at the same object.
func TestSingleFlightConstruction(t *testing.T) {
	n := nexus.New()
	defer n.Stop()

	var builds int32
	nexus.RegisterFactory[*Counter](n, 1, nexus.Resettable, func() (*Counter, error) {
		atomic.AddInt32(&builds, 1)
		time.Sleep(5 * time.Millisecond) // widen the race window
		return &Counter{}, nil
	})

	const goroutines = 16
	results := make([]*Counter, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		i := i
		go func() {
			defer wg.Done()
			c, err := nexus.Spawn[*Counter](n, 1)
			require.NoError(t, err)
			results[i] = c
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, builds)
	for _, c := range results {
		require.Same(t, results[0], c)
	}
}

func TestRegisterSharedAndReset(t *testing.T) {
	n := nexus.New()
	defer n.Stop()

	nexus.RegisterShared[*Counter](n, 2, nexus.Resettable, &Counter{n: 42})
	c, err := nexus.Spawn[*Counter](n, 2)
	require.NoError(t, err)
	require.Equal(t, 42, c.n)

	require.NoError(t, nexus.Reset[*Counter](n, 2))
	_, err = nexus.Spawn[*Counter](n, 2)
	require.True(t, outcome.Is(err, outcome.NotRegistered))
}

func TestImmortalCannotReset(t *testing.T) {
	n := nexus.New()
	defer n.Stop()

	nexus.RegisterShared[*Counter](n, 3, nexus.Immortal, &Counter{})
	err := nexus.Reset[*Counter](n, 3)
	require.True(t, outcome.Is(err, outcome.ImmortalSlot))
}

func TestSpawnWithoutRegistrationFails(t *testing.T) {
	n := nexus.New()
	defer n.Stop()

	_, err := nexus.Spawn[*Counter](n, 99)
	require.True(t, outcome.Is(err, outcome.NotRegistered))
}

// TestTimedEviction registers a slot with a short TTL, spawns once,
// waits past the TTL plus a sweep interval, and observes the slot
// reclaimed.
func TestTimedEviction(t *testing.T) {
	n := nexus.New()
	n.SetSweepInterval(50 * time.Millisecond)
	defer n.Stop()

	nexus.RegisterTimed[*Counter](n, 4, 100*time.Millisecond, func() (*Counter, error) {
		return &Counter{}, nil
	})
	_, err := nexus.Spawn[*Counter](n, 4)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := nexus.Spawn[*Counter](n, 4)
		return outcome.Is(err, outcome.NotRegistered)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestScopedEviction(t *testing.T) {
	n := nexus.New()
	n.SetSweepInterval(20 * time.Millisecond)
	defer n.Stop()

	var alive atomic.Bool
	alive.Store(true)
	nexus.RegisterScoped[*Counter](n, 5, func() (*Counter, error) {
		return &Counter{}, nil
	}, alive.Load)

	_, err := nexus.Spawn[*Counter](n, 5)
	require.NoError(t, err)

	alive.Store(false)
	require.Eventually(t, func() bool {
		_, err := nexus.Spawn[*Counter](n, 5)
		return outcome.Is(err, outcome.NotRegistered)
	}, time.Second, 10*time.Millisecond)
}

package services

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRegistry_AddRemove(t *testing.T) {
	r := NewConnectionRegistry()

	t.Run("single connection online and offline", func(t *testing.T) {
		r.AddConnection("screen-1", "conn-a")
		assert.True(t, r.IsOnline("screen-1"))
		assert.Equal(t, 1, r.OnlineCount())

		identity, wentOffline := r.RemoveConnection("conn-a")
		assert.Equal(t, "screen-1", identity)
		assert.True(t, wentOffline)
		assert.False(t, r.IsOnline("screen-1"))
		assert.Equal(t, 0, r.OnlineCount())
	})

	t.Run("multiple connections keep identity online", func(t *testing.T) {
		r.AddConnection("screen-2", "conn-b")
		r.AddConnection("screen-2", "conn-c")
		assert.Equal(t, 1, r.OnlineCount())

		_, wentOffline := r.RemoveConnection("conn-b")
		assert.False(t, wentOffline)
		assert.True(t, r.IsOnline("screen-2"))

		_, wentOffline = r.RemoveConnection("conn-c")
		assert.True(t, wentOffline)
		assert.False(t, r.IsOnline("screen-2"))
	})

	t.Run("unknown connection id is a no-op", func(t *testing.T) {
		identity, wentOffline := r.RemoveConnection("never-added")
		assert.Equal(t, "", identity)
		assert.False(t, wentOffline)
	})

	t.Run("connected identities snapshot", func(t *testing.T) {
		r.AddConnection("screen-3", "conn-d")
		r.AddConnection("screen-4", "conn-e")
		assert.ElementsMatch(t, []string{"screen-3", "screen-4"}, r.ConnectedIdentities())
		r.RemoveConnection("conn-d")
		r.RemoveConnection("conn-e")
	})
}

// Randomized concurrent stress: replay the same operation sequence serially
// and compare the surviving connection sets.
func TestConnectionRegistry_ConcurrentStress(t *testing.T) {
	const (
		workers       = 16
		opsPerWorker  = 500
		identityCount = 8
	)

	type op struct {
		add      bool
		identity string
		connID   string
	}

	rng := rand.New(rand.NewSource(42))
	ops := make([][]op, workers)
	for w := 0; w < workers; w++ {
		ops[w] = make([]op, opsPerWorker)
		for i := range ops[w] {
			identity := fmt.Sprintf("screen-%d", rng.Intn(identityCount))
			connID := fmt.Sprintf("w%d-c%d", w, i)
			if rng.Intn(3) == 0 && i > 0 {
				// Remove an earlier connection from this worker. Workers own
				// disjoint connection id spaces, so replaying per-worker
				// sequences serially yields the same final state.
				prev := ops[w][rng.Intn(i)]
				ops[w][i] = op{add: false, connID: prev.connID}
			} else {
				ops[w][i] = op{add: true, identity: identity, connID: connID}
			}
		}
	}

	concurrent := NewConnectionRegistry()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, o := range ops[w] {
				if o.add {
					concurrent.AddConnection(o.identity, o.connID)
				} else {
					concurrent.RemoveConnection(o.connID)
				}
			}
		}(w)
	}
	wg.Wait()

	serial := NewConnectionRegistry()
	for w := 0; w < workers; w++ {
		for _, o := range ops[w] {
			if o.add {
				serial.AddConnection(o.identity, o.connID)
			} else {
				serial.RemoveConnection(o.connID)
			}
		}
	}

	require.Equal(t, serial.OnlineCount(), concurrent.OnlineCount())
	assert.ElementsMatch(t, serial.ConnectedIdentities(), concurrent.ConnectedIdentities())
}

// A remove racing an add of the same identity must never leave a phantom
// empty set: OnlineCount only counts identities with surviving connections.
func TestConnectionRegistry_NoPhantomEmptySets(t *testing.T) {
	r := NewConnectionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		connA := fmt.Sprintf("a-%d", i)
		connB := fmt.Sprintf("b-%d", i)
		r.AddConnection("screen-x", connA)

		wg.Add(2)
		go func() {
			defer wg.Done()
			r.AddConnection("screen-x", connB)
		}()
		go func() {
			defer wg.Done()
			r.RemoveConnection(connA)
		}()
		wg.Wait()

		// connB is always live at this point
		require.True(t, r.IsOnline("screen-x"))
		r.RemoveConnection(connB)
		require.False(t, r.IsOnline("screen-x"))
	}
}

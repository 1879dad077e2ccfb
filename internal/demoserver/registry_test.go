package demoserver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySubscribeCreatesLiveQueryOnce(t *testing.T) {
	r := NewRegistry()
	c1 := &Client{Send: func(string, any) error { return nil }}
	c2 := &Client{Send: func(string, any) error { return nil }}

	lqA := r.Subscribe("widgets.active", c1)
	lqB := r.Subscribe("widgets.active", c2)

	assert.Same(t, lqA, lqB)
	assert.Equal(t, 2, lqA.clientCount())
	assert.Equal(t, 1, r.Size())
}

func TestRegistryUnsubscribeRemovesOnlyThatClient(t *testing.T) {
	r := NewRegistry()
	c1 := &Client{Send: func(string, any) error { return nil }}
	c2 := &Client{Send: func(string, any) error { return nil }}
	r.Subscribe("q", c1)
	r.Subscribe("q", c2)

	r.Unsubscribe("q", c1)

	var got int
	r.ForEach(func(lq *LiveQuery) { got = lq.clientCount() })
	require.Equal(t, 1, got)
}

func TestRegistryCleanupOrphansDropsEmptyLiveQueries(t *testing.T) {
	r := NewRegistry()
	c := &Client{Send: func(string, any) error { return nil }}
	r.Subscribe("q", c)
	r.Unsubscribe("q", c)

	r.CleanupOrphans()

	assert.Equal(t, 0, r.Size())
}

func TestLiveQueryBroadcastReturnsFailedClients(t *testing.T) {
	r := NewRegistry()
	ok := &Client{Send: func(string, any) error { return nil }}
	bad := &Client{Send: func(string, any) error { return errors.New("closed") }}
	lq := r.Subscribe("q", ok)
	r.Subscribe("q", bad)
	_ = lq

	var failed []*Client
	r.ForEach(func(lq *LiveQuery) { failed = lq.broadcast("snapshot", 1) })

	require.Len(t, failed, 1)
	assert.Same(t, bad, failed[0])
}

func TestRegistryForEachVisitsEveryLiveQuery(t *testing.T) {
	r := NewRegistry()
	r.Subscribe("a", &Client{Send: func(string, any) error { return nil }})
	r.Subscribe("b", &Client{Send: func(string, any) error { return nil }})

	seen := map[string]bool{}
	r.ForEach(func(lq *LiveQuery) { seen[lq.Name] = true })

	assert.True(t, seen["a"])
	assert.True(t, seen["b"])
}

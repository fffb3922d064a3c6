package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swipecli/swipecli/gesture"
)

func TestHub_RecentOldestFirst(t *testing.T) {
	hub, err := NewHub(3)
	require.NoError(t, err)

	for _, d := range []gesture.Direction{gesture.Left, gesture.Up, gesture.Right, gesture.Down} {
		hub.Observe(record(3, d))
	}

	names := []string{}
	for _, r := range hub.Recent(0) {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"three-finger-swipe-up", "three-finger-swipe-right", "three-finger-swipe-down"}, names)

	recent := hub.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "three-finger-swipe-down", recent[0].Name)
}

func TestHub_NoHistory(t *testing.T) {
	hub, err := NewHub(0)
	require.NoError(t, err)

	hub.Observe(record(4, gesture.Left))
	assert.Empty(t, hub.Recent(0))
	assert.NotNil(t, hub.Recent(0))
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub, err := NewHub(1)
	require.NoError(t, err)

	client := &wsConnection{remote: "test", send: make(chan []byte, 1)}
	hub.register(client)

	hub.Observe(record(3, gesture.Left))
	assert.Equal(t, 1, hub.Clients())

	// queue is full, the second notification drops the client
	hub.Observe(record(3, gesture.Right))
	assert.Equal(t, 0, hub.Clients())

	payload, ok := <-client.send
	assert.True(t, ok)
	assert.Contains(t, string(payload), "three-finger-swipe-left")

	_, ok = <-client.send
	assert.False(t, ok, "queue should be closed")

	// unregistering a dropped client is a no-op
	hub.unregister(client)
}

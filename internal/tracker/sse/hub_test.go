package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(c *Client) []Event {
	var out []Event
	for {
		select {
		case e := <-c.Events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestHubHarnessUpdateVisibility(t *testing.T) {
	hub := NewHub(nil)
	admin := NewClient("a", "u-admin", "ADMIN")
	v1 := NewClient("v1", "u-v1", roleVendor)
	v2 := NewClient("v2", "u-v2", roleVendor)
	hub.Register(admin)
	hub.Register(v1)
	hub.Register(v2)
	assert.Equal(t, 3, hub.ClientCount())

	hub.PublishHarnessUpdate(HarnessUpdate{HarnessID: "h1", Status: "RELEASED", Action: "release"}, []string{"u-v1"})

	got := drain(admin)
	require.Len(t, got, 1)
	assert.Equal(t, EventHarnessUpdate, got[0].EventType)
	var payload HarnessUpdate
	require.NoError(t, json.Unmarshal([]byte(got[0].Data), &payload))
	assert.Equal(t, "h1", payload.HarnessID)

	assert.Len(t, drain(v1), 1)
	assert.Empty(t, drain(v2))
}

func TestHubSessionExpiredTargetsUser(t *testing.T) {
	hub := NewHub(nil)
	tab1 := NewClient("t1", "u1", "DVP")
	tab2 := NewClient("t2", "u1", "DVP")
	other := NewClient("t3", "u2", "DVP")
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)

	hub.PublishSessionExpired("u1", "logout")

	assert.Len(t, drain(tab1), 1)
	assert.Len(t, drain(tab2), 1)
	assert.Empty(t, drain(other))
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)
	c := NewClient("c", "u", "ADMIN")
	hub.Register(c)

	for i := 0; i < ClientBuffer+10; i++ {
		hub.Broadcast(Event{EventType: "ping", Data: "{}"})
	}
	assert.Len(t, drain(c), ClientBuffer)
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(nil)
	c := NewClient("c", "u", "ADMIN")
	hub.Register(c)
	hub.Unregister("c")
	hub.Unregister("c")

	_, ok := <-c.Events
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventString(t *testing.T) {
	assert.Equal(t, "WindowResizeEvent: 800, 600", Event{Kind: EventWindowResize, Width: 800, Height: 600}.String())
	assert.Equal(t, "WindowCloseEvent", Event{Kind: EventWindowClose}.String())
	assert.Equal(t, "ShadersChangedEvent", Event{Kind: EventShadersChanged}.String())
	assert.Equal(t, "EventKind(42)", EventKind(42).String())
}

func TestDispatcherStopsAtFirstConsumer(t *testing.T) {
	d := NewDispatcher()
	var calls []string
	d.On(EventWindowResize, func(e Event) bool {
		calls = append(calls, "first")
		return false
	})
	d.On(EventWindowResize, func(e Event) bool {
		calls = append(calls, "second")
		return true
	})
	d.On(EventWindowResize, func(e Event) bool {
		calls = append(calls, "third")
		return true
	})

	assert.True(t, d.Dispatch(Event{Kind: EventWindowResize, Width: 1, Height: 1}))
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.False(t, d.Dispatch(Event{Kind: EventWindowClose}))
}

func TestDispatchAllKeepsOrder(t *testing.T) {
	d := NewDispatcher()
	var sizes []int
	d.On(EventWindowResize, func(e Event) bool {
		sizes = append(sizes, e.Width)
		return true
	})
	d.DispatchAll([]Event{
		{Kind: EventWindowResize, Width: 10},
		{Kind: EventAppTick},
		{Kind: EventWindowResize, Width: 20},
	})
	assert.Equal(t, []int{10, 20}, sizes)
}

func TestEventQueueDrain(t *testing.T) {
	var q eventQueue
	q.push(Event{Kind: EventWindowClose})
	q.push(Event{Kind: EventAppRender})
	assert.Len(t, q.drain(), 2)
	assert.Empty(t, q.drain())
}

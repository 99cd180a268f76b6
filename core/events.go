package core

import "fmt"

type EventKind int

const (
	EventWindowResize EventKind = iota
	EventWindowClose
	EventAppTick
	EventAppUpdate
	EventAppRender
	EventShadersChanged
)

func (k EventKind) String() string {
	switch k {
	case EventWindowResize:
		return "WindowResize"
	case EventWindowClose:
		return "WindowClose"
	case EventAppTick:
		return "AppTick"
	case EventAppUpdate:
		return "AppUpdate"
	case EventAppRender:
		return "AppRender"
	case EventShadersChanged:
		return "ShadersChanged"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a window or application event. Width and Height are only set
// for EventWindowResize.
type Event struct {
	Kind   EventKind
	Width  int
	Height int
}

func (e Event) String() string {
	if e.Kind == EventWindowResize {
		return fmt.Sprintf("WindowResizeEvent: %d, %d", e.Width, e.Height)
	}
	return e.Kind.String() + "Event"
}

// Handler reports whether it consumed the event.
type Handler func(e Event) bool

// Dispatcher routes events to the handlers registered for their kind.
// Handlers run in registration order until one consumes the event.
type Dispatcher struct {
	handlers map[EventKind][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[EventKind][]Handler)}
}

func (d *Dispatcher) On(kind EventKind, h Handler) {
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Dispatch reports whether a handler consumed e.
func (d *Dispatcher) Dispatch(e Event) bool {
	for _, h := range d.handlers[e.Kind] {
		if h(e) {
			return true
		}
	}
	return false
}

// DispatchAll dispatches events in order.
func (d *Dispatcher) DispatchAll(events []Event) {
	for _, e := range events {
		d.Dispatch(e)
	}
}

// eventQueue collects events raised from callbacks until the loop drains
// them.
type eventQueue struct {
	pending []Event
}

func (q *eventQueue) push(e Event) {
	q.pending = append(q.pending, e)
}

func (q *eventQueue) drain() []Event {
	out := q.pending
	q.pending = nil
	return out
}

package bus

import "time"

// Event is one delivered message. Payload shapes are the closed set
// declared in the parent events package, keyed by Name.
type Event struct {
	Name      string
	Payload   any
	Timestamp time.Time
}

// Handler is a callback invoked per delivered event. A returned error is
// logged and isolated; it never aborts sibling handlers or the queue drain.
type Handler func(Event) error

// Bus is the queued publish/subscribe hub connecting all systems.
//
// Delivery contract:
//   - Emit enqueues and never re-enters dispatch. If a drain is already in
//     progress on the call stack, the event is appended and processed by
//     that same outer drain loop, FIFO. Event cascades therefore propagate
//     breadth-first with flat stack depth.
//   - All handlers for one event run to completion, in subscription order,
//     before the next queued event is dequeued.
//   - Dispatch iterates a snapshot of the subscriber list, so subscribing
//     or cancelling during delivery never disturbs the in-flight iteration.
//   - A handler error or panic is logged and does not stop siblings.
type Bus interface {
	// On registers a handler for name. Duplicate registrations of the same
	// handler are kept, each with its own Subscription. Handlers fire in
	// registration order.
	On(name string, handler Handler) *Subscription
	// Once registers a handler that fires at most once, then removes
	// itself. A second delivery already sitting in the queue when the
	// first one fires is skipped.
	Once(name string, handler Handler) *Subscription
	// Off cancels a subscription. Safe to call with nil or repeatedly.
	Off(sub *Subscription)
	// Emit enqueues an event and, unless a drain is already running,
	// drains the queue synchronously. Fire-and-forget: handler results
	// are not returned.
	Emit(name string, payload any)
	// Clear drops all subscriptions and any pending queue entries.
	Clear()
	// Pending reports how many events are queued but not yet delivered.
	Pending() int
}

// Subscription is the capability to remove exactly one registration.
type Subscription struct {
	id      string
	name    string
	handler Handler
	active  bool
	cancel  func()
}

// ID is the unique identifier of this registration.
func (s *Subscription) ID() string { return s.id }

// EventName returns the event name this subscription listens to.
func (s *Subscription) EventName() string { return s.name }

// IsActive reports whether the registration is still in place.
func (s *Subscription) IsActive() bool { return s.active }

// Cancel removes the registration. Multiple calls are safe.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
	s.active = false
}

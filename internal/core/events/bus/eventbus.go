package bus

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/armlock/armlock/internal/core/observability/log"
)

var _ Bus = (*QueuedBus)(nil)

// QueuedBus implements Bus for the single-threaded simulation loop.
// Emit appends to a FIFO queue; the first Emit on the stack becomes the
// drain loop and every nested Emit only enqueues.
type QueuedBus struct {
	lg       log.Log
	handlers map[string][]*Subscription
	queue    []Event
	draining bool
}

// New creates an empty bus.
func New(lg log.Log) *QueuedBus {
	if lg == nil {
		lg = log.Provide()
	}
	return &QueuedBus{
		lg:       lg,
		handlers: make(map[string][]*Subscription),
	}
}

func (b *QueuedBus) On(name string, handler Handler) *Subscription {
	if handler == nil {
		b.lg.Warn("ignoring nil handler subscription", log.String("event", name))
		return &Subscription{name: name}
	}
	s := &Subscription{
		id:      uuid.NewString(),
		name:    name,
		handler: handler,
		active:  true,
	}
	s.cancel = func() { b.remove(s) }
	b.handlers[name] = append(b.handlers[name], s)
	return s
}

func (b *QueuedBus) Once(name string, handler Handler) *Subscription {
	if handler == nil {
		b.lg.Warn("ignoring nil handler subscription", log.String("event", name))
		return &Subscription{name: name}
	}
	fired := false
	var sub *Subscription
	sub = b.On(name, func(e Event) error {
		// The latch, not the cancellation, is what keeps a second delivery
		// already snapshotted or queued from firing the handler again.
		if fired {
			return nil
		}
		fired = true
		sub.Cancel()
		return handler(e)
	})
	return sub
}

func (b *QueuedBus) Off(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.Cancel()
}

func (b *QueuedBus) Emit(name string, payload any) {
	b.queue = append(b.queue, Event{
		Name:      name,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if b.draining {
		return
	}
	b.draining = true
	defer func() { b.draining = false }()
	b.processQueue()
}

func (b *QueuedBus) Clear() {
	for _, subs := range b.handlers {
		for _, s := range subs {
			s.active = false
			s.cancel = nil
		}
	}
	b.handlers = make(map[string][]*Subscription)
	b.queue = nil
}

func (b *QueuedBus) Pending() int { return len(b.queue) }

// SubscriberCount reports how many registrations exist for name.
func (b *QueuedBus) SubscriberCount(name string) int {
	return len(b.handlers[name])
}

// processQueue drains the FIFO queue. For each event it snapshots the
// subscriber list, then invokes the snapshot in registration order.
// Handlers cancelled by an earlier sibling during the same delivery still
// run; handlers cancelled before the event reached the head do not, since
// they are gone from the live list when the snapshot is taken.
func (b *QueuedBus) processQueue() {
	for len(b.queue) > 0 {
		e := b.queue[0]
		b.queue = b.queue[1:]
		snapshot := slices.Clone(b.handlers[e.Name])
		for _, s := range snapshot {
			b.invoke(s, e)
		}
	}
}

// invoke runs one handler, containing both errors and panics so a failing
// listener cannot block its siblings or kill the frame.
func (b *QueuedBus) invoke(s *Subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.lg.Error("event handler panicked",
				log.String("event", e.Name),
				log.String("subscription", s.id),
				log.Any("panic", r),
			)
		}
	}()
	if err := s.handler(e); err != nil {
		b.lg.Error("event handler failed",
			log.String("event", e.Name),
			log.String("subscription", s.id),
			log.Err(err),
		)
	}
}

func (b *QueuedBus) remove(sub *Subscription) {
	subs, ok := b.handlers[sub.name]
	if !ok {
		return
	}
	for i, s := range subs {
		if s == sub {
			b.handlers[sub.name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[sub.name]) == 0 {
		delete(b.handlers, sub.name)
	}
}

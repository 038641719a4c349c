package bus

import (
	"errors"
	"testing"

	"github.com/armlock/armlock/internal/core/observability/log"
)

func newTestBus() *QueuedBus {
	return New(log.NewNop())
}

func TestBasicEmitDelivers(t *testing.T) {
	b := newTestBus()
	var got any
	b.On("combat:started", func(e Event) error {
		got = e.Payload
		return nil
	})
	b.Emit("combat:started", 42)
	if got != 42 {
		t.Fatalf("expected payload 42, got %v", got)
	}
}

func TestEmitWithoutSubscribersIsNoop(t *testing.T) {
	b := newTestBus()
	b.Emit("nobody:listens", nil)
	if b.Pending() != 0 {
		t.Fatalf("queue should be drained, %d pending", b.Pending())
	}
}

func TestRegistrationOrderIsDispatchOrder(t *testing.T) {
	b := newTestBus()
	var order []string
	b.On("entity:created", func(e Event) error {
		order = append(order, "first")
		return nil
	})
	b.On("entity:created", func(e Event) error {
		order = append(order, "second")
		return nil
	})
	b.Emit("entity:created", nil)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("wrong dispatch order: %v", order)
	}
}

func TestBreadthFirstCascade(t *testing.T) {
	// A handler of "x" emits "y". Every subscriber of "x" must finish
	// before any subscriber of "y" starts.
	b := newTestBus()
	var order []string
	b.On("x", func(e Event) error {
		order = append(order, "x1")
		b.Emit("y", nil)
		return nil
	})
	b.On("x", func(e Event) error {
		order = append(order, "x2")
		return nil
	})
	b.On("y", func(e Event) error {
		order = append(order, "y")
		return nil
	})
	b.Emit("x", nil)

	want := []string{"x1", "x2", "y"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("breadth-first order violated: %v", order)
		}
	}
}

func TestDeepCascadeDoesNotGrowStack(t *testing.T) {
	b := newTestBus()
	const depth = 10000
	count := 0
	b.On("chain", func(e Event) error {
		count++
		if n := e.Payload.(int); n < depth {
			b.Emit("chain", n+1)
		}
		return nil
	})
	b.Emit("chain", 1)
	if count != depth {
		t.Fatalf("expected %d deliveries, got %d", depth, count)
	}
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	b := newTestBus()
	count := 0
	b.Once("zone:entered", func(e Event) error {
		count++
		return nil
	})
	b.Emit("zone:entered", nil)
	b.Emit("zone:entered", nil)
	if count != 1 {
		t.Fatalf("once handler fired %d times", count)
	}
}

func TestOnceUnderReentrantEmit(t *testing.T) {
	// The once handler itself re-emits the same event. Both deliveries are
	// queued before the first one runs its course; the handler must still
	// fire only once.
	b := newTestBus()
	count := 0
	b.Once("pulse", func(e Event) error {
		count++
		b.Emit("pulse", nil)
		return nil
	})
	b.Emit("pulse", nil)
	b.Emit("pulse", nil)
	if count != 1 {
		t.Fatalf("once handler fired %d times under re-entrancy", count)
	}
}

func TestDuplicateRegistrationsBothFire(t *testing.T) {
	b := newTestBus()
	count := 0
	h := func(e Event) error { count++; return nil }
	b.On("tick", h)
	b.On("tick", h)
	b.Emit("tick", nil)
	if count != 2 {
		t.Fatalf("expected both duplicate registrations to fire, got %d", count)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := newTestBus()
	count := 0
	sub := b.On("tick", func(e Event) error { count++; return nil })
	b.Emit("tick", nil)
	sub.Cancel()
	b.Emit("tick", nil)
	if count != 1 {
		t.Fatalf("cancelled handler still fired: %d", count)
	}
	if sub.IsActive() {
		t.Fatal("subscription should be inactive after Cancel")
	}
	if n := b.SubscriberCount("tick"); n != 0 {
		t.Fatalf("empty handler list should be pruned, have %d", n)
	}
}

func TestCancelDuringDispatchKeepsSnapshot(t *testing.T) {
	// The first handler cancels the second mid-delivery. Dispatch runs
	// over a snapshot, so the second still fires for this event, and is
	// gone for the next one.
	b := newTestBus()
	var secondFired int
	var second *Subscription
	b.On("tick", func(e Event) error {
		second.Cancel()
		return nil
	})
	second = b.On("tick", func(e Event) error {
		secondFired++
		return nil
	})
	b.Emit("tick", nil)
	if secondFired != 1 {
		t.Fatalf("snapshot semantics violated: second fired %d times", secondFired)
	}
	b.Emit("tick", nil)
	if secondFired != 1 {
		t.Fatalf("cancelled handler fired on later emit: %d", secondFired)
	}
}

func TestSubscribeDuringDispatchSkipsCurrentEvent(t *testing.T) {
	b := newTestBus()
	nested := 0
	b.On("tick", func(e Event) error {
		b.On("tick", func(Event) error {
			nested++
			return nil
		})
		return nil
	})
	b.Emit("tick", nil)
	if nested != 0 {
		t.Fatal("handler registered mid-dispatch fired for the same event")
	}
	b.Emit("tick", nil)
	if nested != 1 {
		t.Fatalf("late handler should fire on the next emit, fired %d", nested)
	}
}

func TestHandlerErrorDoesNotBlockSiblings(t *testing.T) {
	b := newTestBus()
	ran := false
	b.On("tick", func(e Event) error { return errors.New("boom") })
	b.On("tick", func(e Event) error { ran = true; return nil })
	b.Emit("tick", nil)
	if !ran {
		t.Fatal("sibling handler blocked by failing handler")
	}
}

func TestHandlerPanicDoesNotAbortDrain(t *testing.T) {
	b := newTestBus()
	var order []string
	b.On("tick", func(e Event) error {
		b.Emit("after", nil)
		panic("handler bug")
	})
	b.On("tick", func(e Event) error {
		order = append(order, "sibling")
		return nil
	})
	b.On("after", func(e Event) error {
		order = append(order, "after")
		return nil
	})
	b.Emit("tick", nil)
	if len(order) != 2 || order[0] != "sibling" || order[1] != "after" {
		t.Fatalf("panic broke the drain: %v", order)
	}
}

func TestClearDropsSubscriptionsAndQueue(t *testing.T) {
	b := newTestBus()
	count := 0
	b.On("tick", func(e Event) error {
		count++
		if count == 1 {
			// queue a second event, then reset mid-drain
			b.Emit("tick", nil)
			b.Clear()
		}
		return nil
	})
	b.Emit("tick", nil)
	if count != 1 {
		t.Fatalf("queued event survived Clear: %d deliveries", count)
	}
	b.Emit("tick", nil)
	if count != 1 {
		t.Fatal("subscription survived Clear")
	}
}

func TestNilHandlerIsIgnored(t *testing.T) {
	b := newTestBus()
	sub := b.On("tick", nil)
	if sub.IsActive() {
		t.Fatal("nil handler must not produce an active subscription")
	}
	b.Emit("tick", nil)
}

package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
	"github.com/armlock/armlock/internal/core/sched"
)

type fixture struct {
	bus   *bus.QueuedBus
	em    *entity.Manager
	sched *sched.Scheduler
	sys   *System
	cfg   config.CombatConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := bus.New(log.NewNop())
	em := entity.NewManager(b, log.NewNop())
	sc := sched.New()
	cfg := config.Default().Combat
	cfg.Jitter = 0 // deterministic meters in tests
	sys := New(b, em, sc, nil, cfg, log.NewNop())
	return &fixture{bus: b, em: em, sched: sc, sys: sys, cfg: cfg}
}

func (f *fixture) wrestler(power, stamina float64, tags ...string) *entity.Entity {
	return f.em.CreateEntity(map[string]entity.Component{
		"power":   {"base": power},
		"stamina": {"current": stamina, "max": stamina},
	}, tags)
}

// step runs the frame loop the way the driver does.
func (f *fixture) step(dt float64) {
	f.em.Update(dt)
	f.sched.Advance(dt)
	f.sys.Update(dt)
}

func TestRequestReservesThenStartsAfterWindup(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(10, 50)
	d := f.wrestler(5, 50)

	var started *events.CombatStartedPayload
	f.bus.On(events.CombatStarted, func(e bus.Event) error {
		p := e.Payload.(events.CombatStartedPayload)
		started = &p
		return nil
	})

	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{
		AttackerID: a.ID(), DefenderID: d.ID(),
	})
	require.True(t, f.sys.Engaged(a.ID()), "attacker reserved during windup")
	require.Nil(t, started, "bout must not start before the windup")

	f.step(f.cfg.WindupSeconds)
	require.NotNil(t, started)
	assert.Equal(t, a.ID(), started.AttackerID)
	assert.Equal(t, d.ID(), started.DefenderID)
}

func TestRequestRejections(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(10, 50)
	d := f.wrestler(5, 50)
	weak := f.em.CreateEntity(nil, nil) // no power component

	var reasons []string
	f.bus.On(events.CombatError, func(e bus.Event) error {
		reasons = append(reasons, e.Payload.(events.CombatErrorPayload).Reason)
		return nil
	})

	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: a.ID()})
	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: "ghost"})
	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: weak.ID(), DefenderID: d.ID()})
	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: d.ID()})
	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: d.ID()})

	require.Equal(t, []string{
		ReasonSelf,
		ReasonUnknownEntity,
		ReasonNoPower,
		ReasonAlreadyEngaged,
	}, reasons)
}

func TestWindupCancelledWhenEntityDisappears(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(10, 50)
	d := f.wrestler(5, 50)

	started := false
	f.bus.On(events.CombatStarted, func(bus.Event) error { started = true; return nil })

	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: d.ID()})
	f.em.RemoveEntity(d.ID())
	f.step(f.cfg.WindupSeconds)

	assert.False(t, started)
	assert.False(t, f.sys.Engaged(a.ID()), "reservation released after cancel")
}

func TestStrongerArmWins(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(100, 1000)
	d := f.wrestler(10, 1000, "enemy")

	var ended *events.CombatEndedPayload
	f.bus.On(events.CombatEnded, func(e bus.Event) error {
		p := e.Payload.(events.CombatEndedPayload)
		ended = &p
		return nil
	})

	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: d.ID()})
	f.step(f.cfg.WindupSeconds)
	for i := 0; i < 100 && ended == nil; i++ {
		f.step(0.1)
	}
	require.NotNil(t, ended, "bout never resolved")
	assert.Equal(t, a.ID(), ended.WinnerID)
	assert.Equal(t, d.ID(), ended.LoserID)
	assert.False(t, ended.Fled)

	// Defeated enemy is scheduled, not removed inline.
	require.NotNil(t, f.em.GetEntity(d.ID()))
	f.step(0.1)
	assert.Nil(t, f.em.GetEntity(d.ID()))
	assert.False(t, f.sys.Engaged(a.ID()))
}

func TestMeterShiftEventsFlow(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(50, 100)
	d := f.wrestler(10, 100)

	var meters []float64
	f.bus.On(events.CombatShifted, func(e bus.Event) error {
		meters = append(meters, e.Payload.(events.CombatShiftedPayload).Meter)
		return nil
	})

	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: d.ID()})
	// Small steps so the windup elapses without the first Update swallowing
	// the whole bout.
	for i := 0; i < 12; i++ {
		f.step(0.1)
	}

	require.GreaterOrEqual(t, len(meters), 2)
	for i := 1; i < len(meters); i++ {
		assert.Greater(t, meters[i], meters[i-1], "meter should move toward the stronger arm")
	}
}

func TestStaminaDrainsDuringBout(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(10, 100)
	d := f.wrestler(10, 100)

	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: d.ID()})
	// The windup step already runs one second of pulling once the bout
	// begins, so two steps of 1.0 drain two seconds of stamina.
	f.step(f.cfg.WindupSeconds)
	f.step(1.0)

	st, _ := a.GetComponent("stamina")
	cur, _ := st.Float("current")
	assert.InDelta(t, 100-2*f.cfg.StaminaDrainPerSecond, cur, 1e-9)
}

func TestFleeEndsBoutWithoutDestruction(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(10, 100)
	d := f.wrestler(10, 100, "enemy")

	var ended *events.CombatEndedPayload
	f.bus.On(events.CombatEnded, func(e bus.Event) error {
		p := e.Payload.(events.CombatEndedPayload)
		ended = &p
		return nil
	})

	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: d.ID()})
	f.step(f.cfg.WindupSeconds)
	f.bus.Emit(events.CombatFlee, events.CombatFleePayload{EntityID: d.ID()})

	require.NotNil(t, ended)
	assert.True(t, ended.Fled)
	assert.Equal(t, a.ID(), ended.WinnerID)

	// A fled enemy survives the next sweep.
	f.step(0.1)
	assert.NotNil(t, f.em.GetEntity(d.ID()))
}

func TestFleeDuringWindupReleasesReservation(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(10, 100)
	d := f.wrestler(10, 100)

	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: d.ID()})
	f.bus.Emit(events.CombatFlee, events.CombatFleePayload{EntityID: a.ID()})
	assert.False(t, f.sys.Engaged(a.ID()))
}

func TestDestructionMidBoutAwardsSurvivor(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(10, 100)
	d := f.wrestler(10, 100)

	var ended *events.CombatEndedPayload
	f.bus.On(events.CombatEnded, func(e bus.Event) error {
		p := e.Payload.(events.CombatEndedPayload)
		ended = &p
		return nil
	})

	f.bus.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: a.ID(), DefenderID: d.ID()})
	f.step(f.cfg.WindupSeconds)
	f.em.RemoveEntity(d.ID())

	require.NotNil(t, ended)
	assert.Equal(t, a.ID(), ended.WinnerID)
	assert.Equal(t, d.ID(), ended.LoserID)
	assert.False(t, f.sys.Engaged(a.ID()))
}

func TestBoutKeyStable(t *testing.T) {
	assert.Equal(t, boutKey("a", "b"), boutKey("a", "b"))
	assert.NotEqual(t, boutKey("a", "b"), boutKey("b", "a"))
}

// A payload of the wrong shape is dropped quietly rather than panicking
// into the bus recovery.
func TestMalformedPayloadsIgnored(t *testing.T) {
	f := newFixture(t)
	a := f.wrestler(10, 50)
	d := f.wrestler(5, 50)

	var errs int
	f.bus.On(events.CombatError, func(e bus.Event) error { errs++; return nil })

	require.NotPanics(t, func() {
		require.NoError(t, f.sys.onRequest(bus.Event{Name: events.CombatRequest, Payload: "not a request"}))
		require.NoError(t, f.sys.onFlee(bus.Event{Name: events.CombatFlee, Payload: 42}))
		require.NoError(t, f.sys.onEntityDestroyed(bus.Event{Name: events.EntityDestroyed, Payload: nil}))
	})

	assert.Zero(t, errs)
	assert.False(t, f.sys.Engaged(a.ID()))
	assert.False(t, f.sys.Engaged(d.ID()))
}

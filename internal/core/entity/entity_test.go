package entity

import "testing"

func TestAddComponentStoresCopy(t *testing.T) {
	e := New()
	data := Component{"current": 100, "max": 100}
	e.AddComponent("health", data)

	// Mutating the caller's map afterwards must not reach the entity.
	data["current"] = 1

	got, ok := e.GetComponent("health")
	if !ok {
		t.Fatal("component missing")
	}
	if v, _ := got.Int("current"); v != 100 {
		t.Fatalf("stored record aliased caller data: current=%d", v)
	}
}

func TestAddComponentOverwrites(t *testing.T) {
	e := New()
	e.AddComponent("power", Component{"base": 5})
	e.AddComponent("power", Component{"base": 9})
	c, _ := e.GetComponent("power")
	if v, _ := c.Int("base"); v != 9 {
		t.Fatalf("last write should win, got %d", v)
	}
}

func TestHasComponents(t *testing.T) {
	e := New()
	e.AddComponent("health", Component{}).AddComponent("power", Component{})
	if !e.HasComponents("health", "power") {
		t.Fatal("expected both components present")
	}
	if e.HasComponents("health", "power", "pet") {
		t.Fatal("missing component should fail the check")
	}
}

func TestDestroyedEntityRefusesMutation(t *testing.T) {
	e := New()
	e.AddComponent("health", Component{"current": 10})
	e.AddTag("player")
	e.Destroy()

	e.AddComponent("power", Component{"base": 1})
	e.RemoveComponent("health")
	e.AddTag("enemy")
	e.RemoveTag("player")
	e.SetActive(true)

	if e.HasComponent("power") {
		t.Fatal("destroyed entity accepted AddComponent")
	}
	if !e.HasComponent("health") {
		t.Fatal("destroyed entity accepted RemoveComponent")
	}
	if e.HasTag("enemy") || !e.HasTag("player") {
		t.Fatal("destroyed entity accepted tag mutation")
	}
	if e.IsActive() {
		t.Fatal("destroyed entity reactivated")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	e := New()
	e.Destroy()
	e.Destroy()
	if !e.IsDestroyed() || e.IsActive() {
		t.Fatal("destroy latch broken")
	}
}

func TestCloneGetsNewIDAndCopies(t *testing.T) {
	e := New()
	e.AddComponent("health", Component{"current": 50})
	e.AddTag("enemy")
	e.SetActive(false)
	e.Destroy()

	c := e.Clone()
	if c.ID() == e.ID() {
		t.Fatal("clone must get a fresh id")
	}
	if c.IsDestroyed() {
		t.Fatal("clone must start non-destroyed")
	}
	if c.IsActive() {
		t.Fatal("clone must preserve active flag")
	}
	if !c.HasTag("enemy") {
		t.Fatal("clone lost tags")
	}

	// Records must be independent copies.
	cc, _ := c.GetComponent("health")
	cc["current"] = 1
	ec, _ := e.GetComponent("health")
	if v, _ := ec.Int("current"); v != 50 {
		t.Fatal("clone aliases source component data")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := New()
	e.AddComponent("health", Component{"current": 75, "max": 100})
	e.AddComponent("position", Component{"x": 1.5, "y": -2.0})
	e.AddTag("player")
	e.AddTag("grip-master")
	e.SetActive(false)

	r := FromSnapshot(e.Snapshot())

	if r.ID() != e.ID() {
		t.Fatalf("id changed: %s != %s", r.ID(), e.ID())
	}
	if r.IsActive() != e.IsActive() {
		t.Fatal("active flag not preserved")
	}
	if got, want := r.Tags(), e.Tags(); len(got) != len(want) {
		t.Fatalf("tags differ: %v vs %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("tags differ: %v vs %v", got, want)
			}
		}
	}
	for _, typ := range e.ComponentTypes() {
		want, _ := e.GetComponent(typ)
		got, ok := r.GetComponent(typ)
		if !ok {
			t.Fatalf("component %s lost in round trip", typ)
		}
		for k, v := range want {
			if got[k] != v {
				t.Fatalf("component %s field %s: %v != %v", typ, k, got[k], v)
			}
		}
	}
}

func TestSnapshotActiveDefaultsTrue(t *testing.T) {
	r := FromSnapshot(Snapshot{ID: "e-1"})
	if !r.IsActive() {
		t.Fatal("active must default to true when omitted")
	}
	if r.IsDestroyed() {
		t.Fatal("restored entity must not be destroyed")
	}
}

func TestSnapshotDoesNotAliasLiveData(t *testing.T) {
	e := New()
	e.AddComponent("health", Component{"current": 10})
	snap := e.Snapshot()
	snap.Components["health"]["current"] = 99
	c, _ := e.GetComponent("health")
	if v, _ := c.Int("current"); v != 10 {
		t.Fatal("snapshot aliases live component data")
	}
}

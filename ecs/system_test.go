package ecs

import (
	"testing"
	"time"
)

func TestSystemOrdering(t *testing.T) {
	w := NewWorld(4, nil)
	var ran []string
	record := func(name string) SystemFunc {
		return func(*World, time.Duration) { ran = append(ran, name) }
	}

	w.RegisterSystem(record("late"), 20)
	w.RegisterSystem(record("early"), 0)
	w.RegisterSystem(record("mid"), 10)

	w.Tick(0)

	want := []string{"early", "mid", "late"}
	if len(ran) != len(want) {
		t.Fatalf("ran %d systems, want %d", len(ran), len(want))
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Errorf("position %d: ran %q, want %q", i, ran[i], want[i])
		}
	}
}

func TestSystemOrderingStableOnTies(t *testing.T) {
	w := NewWorld(4, nil)
	var ran []int
	for i := 0; i < 8; i++ {
		i := i
		w.RegisterSystem(func(*World, time.Duration) { ran = append(ran, i) }, 5)
	}
	w.Tick(0)
	for i := range ran {
		if ran[i] != i {
			t.Fatalf("tie order broken: %v", ran)
		}
	}
}

func TestRegistrationAfterTickResorts(t *testing.T) {
	w := NewWorld(4, nil)
	var ran []string
	w.RegisterSystem(func(*World, time.Duration) { ran = append(ran, "b") }, 10)
	w.Tick(0)

	w.RegisterSystem(func(*World, time.Duration) { ran = append(ran, "a") }, 0)
	ran = ran[:0]
	w.Tick(0)

	if len(ran) != 2 || ran[0] != "a" || ran[1] != "b" {
		t.Errorf("run order after late registration = %v, want [a b]", ran)
	}
}

func TestEnableDisableSystem(t *testing.T) {
	w := NewWorld(4, nil)
	calls := 0
	id, ok := w.RegisterSystem(func(*World, time.Duration) { calls++ }, 0)
	if !ok {
		t.Fatal("registration failed")
	}

	w.Tick(0)
	if !w.DisableSystem(id) {
		t.Fatal("DisableSystem failed")
	}
	w.Tick(0)
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (disabled system ran)", calls)
	}
	if !w.EnableSystem(id) {
		t.Fatal("EnableSystem failed")
	}
	w.Tick(0)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	if w.EnableSystem(9999) {
		t.Error("EnableSystem succeeded for unknown id")
	}
}

func TestRegisterSystemRejectsNil(t *testing.T) {
	w := NewWorld(4, nil)
	if id, ok := w.RegisterSystem(nil, 0); ok || id != InvalidSystem {
		t.Errorf("nil registration = (%d, %v), want (InvalidSystem, false)", id, ok)
	}
}

func TestRegisterSystemCapacity(t *testing.T) {
	w := NewWorld(4, nil)
	fn := func(*World, time.Duration) {}
	for i := 0; i < MaxSystems; i++ {
		if _, ok := w.RegisterSystem(fn, i); !ok {
			t.Fatalf("registration %d failed", i)
		}
	}
	if _, ok := w.RegisterSystem(fn, 0); ok {
		t.Error("registration past MaxSystems succeeded")
	}
}

func TestTickFlushesDeferred(t *testing.T) {
	w := NewWorld(4, nil)
	id := w.CreateEntity()
	w.RegisterSystem(func(w *World, _ time.Duration) {
		w.DestroyEntityDeferred(id)
	}, 0)

	// The entity must survive as pending through the system, then be
	// recycled by the flush at tick end.
	w.Tick(0)
	if w.State(id) != StateFree {
		t.Errorf("state after tick = %v, want free", w.State(id))
	}
}

func TestDeferredDestroyDuringIteration(t *testing.T) {
	w := NewWorld(16, nil)
	slot, _ := w.RegisterComponent(1, make([]int32, 16))
	for i := 0; i < 16; i++ {
		id := w.CreateEntity()
		w.AddComponent(id, slot)
	}

	q := w.Query().With(slot)
	visited := 0
	q.ForEach(func(id Entity) {
		visited++
		w.DestroyEntityDeferred(id)
	})
	if visited != 16 {
		t.Errorf("visited %d entities, want 16", visited)
	}
	if w.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d, want 0", w.ActiveCount())
	}
	if n := w.FlushPendingDestructions(); n != 16 {
		t.Errorf("flush finalized %d, want 16", n)
	}
}

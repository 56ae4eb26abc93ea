package ecs

import (
	"time"

	"go.uber.org/zap"
)

// MaxSystems bounds the number of registered systems per world.
const MaxSystems = 64

// SystemFunc is a per-tick callback. Captured at registration; no reflection,
// no method-name lookup.
type SystemFunc func(w *World, dt time.Duration)

// SystemID identifies a registered system for enable/disable calls.
type SystemID = int32

// InvalidSystem is returned when registration fails.
const InvalidSystem SystemID = -1

type systemEntry struct {
	fn      SystemFunc
	order   int
	seq     int32 // registration sequence, breaks order ties
	id      SystemID
	enabled bool
}

type scheduler struct {
	entries []systemEntry
	nextID  SystemID
	dirty   bool
}

func (s *scheduler) init() {
	s.entries = make([]systemEntry, 0, MaxSystems)
}

// RegisterSystem appends a callback with an execution order (lower runs
// first, ties run in registration order). The schedule is re-sorted lazily
// before the next Tick. New systems start enabled.
func (w *World) RegisterSystem(fn SystemFunc, order int) (SystemID, bool) {
	if fn == nil {
		w.log.Error("register system: nil callback")
		return InvalidSystem, false
	}
	if len(w.sched.entries) >= MaxSystems {
		w.log.Error("register system: system table full", zap.Int("max", MaxSystems))
		return InvalidSystem, false
	}
	id := w.sched.nextID
	w.sched.nextID++
	w.sched.entries = append(w.sched.entries, systemEntry{
		fn:      fn,
		order:   order,
		seq:     id,
		id:      id,
		enabled: true,
	})
	w.sched.dirty = true
	return id, true
}

// EnableSystem re-enables a system by id.
func (w *World) EnableSystem(id SystemID) bool {
	return w.setSystemEnabled(id, true)
}

// DisableSystem skips a system on subsequent ticks without unregistering it.
func (w *World) DisableSystem(id SystemID) bool {
	return w.setSystemEnabled(id, false)
}

func (w *World) setSystemEnabled(id SystemID, enabled bool) bool {
	for i := range w.sched.entries {
		if w.sched.entries[i].id == id {
			w.sched.entries[i].enabled = enabled
			return true
		}
	}
	return false
}

// SystemCount returns the number of registered systems.
func (w *World) SystemCount() int {
	return len(w.sched.entries)
}

// Tick is the per-frame entry point: runs every enabled system in ascending
// order, then flushes pending destructions.
func (w *World) Tick(dt time.Duration) {
	w.sched.sortIfDirty()
	for i := range w.sched.entries {
		e := &w.sched.entries[i]
		if e.enabled {
			e.fn(w, dt)
		}
	}
	w.FlushPendingDestructions()
}

// sortIfDirty is a stable insertion sort keyed on (order, registration
// sequence). System counts are small and registrations rare, so this beats
// pulling in a sort dependency on the tick path.
func (s *scheduler) sortIfDirty() {
	if !s.dirty {
		return
	}
	for i := 1; i < len(s.entries); i++ {
		e := s.entries[i]
		j := i - 1
		for j >= 0 && (s.entries[j].order > e.order ||
			(s.entries[j].order == e.order && s.entries[j].seq > e.seq)) {
			s.entries[j+1] = s.entries[j]
			j--
		}
		s.entries[j+1] = e
	}
	s.dirty = false
}

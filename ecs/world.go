package ecs

import (
	"go.uber.org/zap"
)

// MaxWorldCapacity bounds the entity table size. Construction clamps rather
// than fails so a bad config cannot take down the frame loop.
const MaxWorldCapacity = 1 << 20

// World owns entity identity, lifecycle state, component presence masks, and
// the per-tick system schedule. All storage is preallocated at construction;
// steady-state operation does not allocate.
//
// A World is single-threaded. Accessed only from the simulation goroutine —
// no locks.
type World struct {
	log *zap.Logger

	capacity  int32
	allocated int32 // high-water mark of slots ever handed out

	states   []State
	versions []uint32
	masks    []Mask

	// Dense active list: active[:activeCount] holds every StateActive id
	// exactly once, activeIndex maps id back to its position, -1 when absent.
	active      []Entity
	activeIndex []int32
	activeCount int32

	// Recycled slot stack.
	free      []Entity
	freeCount int32

	// Ids queued by DestroyEntityDeferred, finalized by the end-of-tick flush.
	pending []Entity

	// flushExamined counts pending entries inspected by flushes. Test probe
	// for the zero-pending fast path.
	flushExamined int

	comps componentRegistry
	sched scheduler
}

// NewWorld creates a world with a fixed entity capacity. A nil logger
// disables the logging side channel. Capacity outside [1, MaxWorldCapacity]
// is clamped.
func NewWorld(capacity int, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	if capacity < 1 {
		log.Warn("world capacity clamped", zap.Int("requested", capacity), zap.Int("used", 1))
		capacity = 1
	}
	if capacity > MaxWorldCapacity {
		log.Warn("world capacity clamped", zap.Int("requested", capacity), zap.Int("used", MaxWorldCapacity))
		capacity = MaxWorldCapacity
	}
	w := &World{
		log:         log,
		capacity:    int32(capacity),
		states:      make([]State, capacity),
		versions:    make([]uint32, capacity),
		masks:       make([]Mask, capacity),
		active:      make([]Entity, capacity),
		activeIndex: make([]int32, capacity),
		free:        make([]Entity, capacity),
		pending:     make([]Entity, 0, capacity),
	}
	for i := range w.activeIndex {
		w.activeIndex[i] = -1
	}
	w.comps.init()
	w.sched.init()
	return w
}

// CreateEntity allocates a slot, preferring a recycled one, and returns it
// Active with a cleared component mask. Returns InvalidEntity and logs a
// warning when the table is full.
func (w *World) CreateEntity() Entity {
	id, ok := w.allocate()
	if !ok {
		w.log.Warn("entity table full", zap.Int32("capacity", w.capacity))
		return InvalidEntity
	}
	return id
}

// TryCreateEntity is CreateEntity without the exhaustion log, for spawn paths
// where running out is expected.
func (w *World) TryCreateEntity() (Entity, bool) {
	return w.allocate()
}

func (w *World) allocate() (Entity, bool) {
	var id Entity
	switch {
	case w.freeCount > 0:
		w.freeCount--
		id = w.free[w.freeCount]
	case w.allocated < w.capacity:
		id = w.allocated
		w.allocated++
	default:
		return InvalidEntity, false
	}
	w.states[id] = StateActive
	w.masks[id] = 0
	w.pushActive(id)
	return id, true
}

// DestroyEntity frees a slot immediately. Valid for any non-Free state;
// destroying a Free slot is a no-op returning false.
func (w *World) DestroyEntity(id Entity) bool {
	if !w.inRange(id) {
		w.log.Error("destroy: entity id out of range", zap.Int32("id", id))
		return false
	}
	switch w.states[id] {
	case StateFree:
		return false
	case StateActive:
		w.removeActive(id)
	}
	// Disabled and PendingDestroy ids hold no active-list entry. A stale
	// pending entry is skipped by the flush once the state leaves
	// PendingDestroy.
	w.recycle(id)
	return true
}

// DestroyEntityDeferred removes an Active entity from the active list now and
// queues its slot for recycling at the end of the tick. Safe to call while
// systems iterate. Re-marking a pending entity is a no-op returning true.
func (w *World) DestroyEntityDeferred(id Entity) bool {
	if !w.inRange(id) {
		w.log.Error("deferred destroy: entity id out of range", zap.Int32("id", id))
		return false
	}
	switch w.states[id] {
	case StatePendingDestroy:
		return true
	case StateActive:
		w.removeActive(id)
		w.states[id] = StatePendingDestroy
		w.pending = append(w.pending, id)
		return true
	default:
		return false
	}
}

// FlushPendingDestructions finalizes every entity still in PendingDestroy
// state, incrementing its version and returning its slot to the free list.
// Returns the number finalized. With nothing pending this is O(1) and touches
// no entity storage.
func (w *World) FlushPendingDestructions() int {
	if len(w.pending) == 0 {
		return 0
	}
	n := 0
	for _, id := range w.pending {
		w.flushExamined++
		// Cancelled or immediately destroyed in the interim: skip.
		if w.states[id] != StatePendingDestroy {
			continue
		}
		w.recycle(id)
		n++
	}
	w.pending = w.pending[:0]
	return n
}

// EnableEntity returns a Disabled entity to the active list.
func (w *World) EnableEntity(id Entity) bool {
	if !w.inRange(id) {
		w.log.Error("enable: entity id out of range", zap.Int32("id", id))
		return false
	}
	if w.states[id] != StateDisabled {
		return false
	}
	w.states[id] = StateActive
	w.pushActive(id)
	return true
}

// DisableEntity removes an Active entity from the active list without
// destroying it. Disabling a PendingDestroy entity cancels the queued
// destruction.
func (w *World) DisableEntity(id Entity) bool {
	if !w.inRange(id) {
		w.log.Error("disable: entity id out of range", zap.Int32("id", id))
		return false
	}
	switch w.states[id] {
	case StateActive:
		w.removeActive(id)
	case StatePendingDestroy:
		// Already off the active list; the stale pending entry is skipped
		// by the flush.
	default:
		return false
	}
	w.states[id] = StateDisabled
	return true
}

// CancelDestruction reverts DestroyEntityDeferred before the flush runs,
// leaving the entity Active with its component mask intact.
func (w *World) CancelDestruction(id Entity) bool {
	if !w.inRange(id) {
		w.log.Error("cancel destruction: entity id out of range", zap.Int32("id", id))
		return false
	}
	if w.states[id] != StatePendingDestroy {
		return false
	}
	w.states[id] = StateActive
	w.pushActive(id)
	return true
}

// State returns the lifecycle state of a slot, StateFree for out-of-range ids.
func (w *World) State(id Entity) State {
	if !w.inRange(id) {
		return StateFree
	}
	return w.states[id]
}

// Version returns the slot's generation counter. It increments exactly once
// per destruction and never on disable/enable.
func (w *World) Version(id Entity) uint32 {
	if !w.inRange(id) {
		return 0
	}
	return w.versions[id]
}

// IsAlive reports whether the slot currently holds an entity in any non-Free
// state.
func (w *World) IsAlive(id Entity) bool {
	return w.inRange(id) && w.states[id] != StateFree
}

// ActiveCount returns the number of entities in the dense active list.
func (w *World) ActiveCount() int {
	return int(w.activeCount)
}

// PendingDestroyCount returns the number of queued pending entries, including
// entries already cancelled but not yet flushed.
func (w *World) PendingDestroyCount() int {
	return len(w.pending)
}

// Capacity returns the fixed entity table size.
func (w *World) Capacity() int {
	return int(w.capacity)
}

// ActiveEntities copies active ids into buf and returns the count written,
// truncating silently if buf is too small.
func (w *World) ActiveEntities(buf []Entity) int {
	n := copy(buf, w.active[:w.activeCount])
	return n
}

// ActiveList returns the dense active list backing array. Do not modify; the
// slice is only valid until the next lifecycle operation.
func (w *World) ActiveList() []Entity {
	return w.active[:w.activeCount]
}

func (w *World) inRange(id Entity) bool {
	return id >= 0 && id < w.capacity
}

func (w *World) pushActive(id Entity) {
	w.active[w.activeCount] = id
	w.activeIndex[id] = w.activeCount
	w.activeCount++
}

// removeActive swap-removes id from the dense list in O(1).
func (w *World) removeActive(id Entity) {
	idx := w.activeIndex[id]
	if idx < 0 {
		return
	}
	w.activeCount--
	last := w.active[w.activeCount]
	w.active[idx] = last
	w.activeIndex[last] = idx
	w.activeIndex[id] = -1
}

func (w *World) recycle(id Entity) {
	w.states[id] = StateFree
	w.versions[id]++
	w.free[w.freeCount] = id
	w.freeCount++
}

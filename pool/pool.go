// Package pool provides a fixed-capacity recycling store for reference-type
// objects. All lifecycle operations are O(1) through handles or indices; the
// pool never grows and never allocates after Initialize.
package pool

import (
	"go.uber.org/zap"
)

// MaxCapacity bounds pool size. Construction clamps rather than fails.
const MaxCapacity = 1 << 16

// Handle pairs a slot index with the pooled object so release is a direct
// index operation instead of a search.
type Handle[T comparable] struct {
	Index  int32
	Object T
}

// Valid reports whether the handle refers to a pool slot.
func (h Handle[T]) Valid() bool {
	return h.Index >= 0
}

// Pool is a fixed set of pre-built objects with a free-index stack.
// Single-threaded; each instance belongs to one goroutine.
type Pool[T comparable] struct {
	log       *zap.Logger
	objects   []T
	inUse     []bool
	free      []int32
	freeCount int32
	onAcquire func(T)
	onRelease func(T)
	ready     bool
}

// New creates an uninitialized pool. Capacity outside [1, MaxCapacity] is
// clamped. A nil logger disables the logging side channel.
func New[T comparable](capacity int, log *zap.Logger) *Pool[T] {
	if log == nil {
		log = zap.NewNop()
	}
	if capacity < 1 {
		log.Warn("pool capacity clamped", zap.Int("requested", capacity), zap.Int("used", 1))
		capacity = 1
	}
	if capacity > MaxCapacity {
		log.Warn("pool capacity clamped", zap.Int("requested", capacity), zap.Int("used", MaxCapacity))
		capacity = MaxCapacity
	}
	return &Pool[T]{
		log:     log,
		objects: make([]T, capacity),
		inUse:   make([]bool, capacity),
		free:    make([]int32, capacity),
	}
}

// Initialize populates every slot through the factory and records optional
// acquire/release callbacks. Reinitializing resets the pool to fully
// available.
func (p *Pool[T]) Initialize(factory func(index int) T, onAcquire, onRelease func(T)) bool {
	if factory == nil {
		p.log.Error("pool initialize: nil factory")
		return false
	}
	for i := range p.objects {
		p.objects[i] = factory(i)
	}
	p.reset(onAcquire, onRelease)
	return true
}

// InitializeWithArray populates slots from a pre-built array, which must hold
// at least Capacity objects; extras are ignored with a warning.
func (p *Pool[T]) InitializeWithArray(objects []T, onAcquire, onRelease func(T)) bool {
	if len(objects) < len(p.objects) {
		p.log.Error("pool initialize: object array smaller than capacity",
			zap.Int("got", len(objects)), zap.Int("capacity", len(p.objects)))
		return false
	}
	if len(objects) > len(p.objects) {
		p.log.Warn("pool initialize: extra objects ignored",
			zap.Int("got", len(objects)), zap.Int("capacity", len(p.objects)))
	}
	copy(p.objects, objects)
	p.reset(onAcquire, onRelease)
	return true
}

func (p *Pool[T]) reset(onAcquire, onRelease func(T)) {
	for i := range p.free {
		// Stack pops slot 0 first.
		p.free[i] = int32(len(p.free) - 1 - i)
	}
	p.freeCount = int32(len(p.free))
	for i := range p.inUse {
		p.inUse[i] = false
	}
	p.onAcquire = onAcquire
	p.onRelease = onRelease
	p.ready = true
}

// Acquire pops an object from the free stack, returning the zero value when
// the pool is exhausted.
func (p *Pool[T]) Acquire() T {
	obj, _ := p.AcquireWithIndex()
	return obj
}

// AcquireWithIndex pops an object and its slot index, index -1 on exhaustion.
func (p *Pool[T]) AcquireWithIndex() (T, int32) {
	var zero T
	if !p.ready {
		p.log.Error("pool acquire before initialize")
		return zero, -1
	}
	if p.freeCount == 0 {
		p.log.Warn("pool exhausted", zap.Int("capacity", len(p.objects)))
		return zero, -1
	}
	p.freeCount--
	idx := p.free[p.freeCount]
	p.inUse[idx] = true
	obj := p.objects[idx]
	if p.onAcquire != nil {
		p.onAcquire(obj)
	}
	return obj, idx
}

// AcquireHandle is the preferred entry point: the returned handle makes the
// matching release O(1).
func (p *Pool[T]) AcquireHandle() Handle[T] {
	obj, idx := p.AcquireWithIndex()
	return Handle[T]{Index: idx, Object: obj}
}

// ReleaseByIndex returns a slot to the free stack and invokes the release
// callback. Releasing a slot that is not in use returns false.
func (p *Pool[T]) ReleaseByIndex(index int32) bool {
	if index < 0 || int(index) >= len(p.objects) {
		p.log.Error("pool release: index out of range", zap.Int32("index", index))
		return false
	}
	if !p.inUse[index] {
		return false
	}
	p.inUse[index] = false
	p.free[p.freeCount] = index
	p.freeCount++
	if p.onRelease != nil {
		p.onRelease(p.objects[index])
	}
	return true
}

// ReleaseHandle releases the slot named by the handle in O(1).
func (p *Pool[T]) ReleaseHandle(h Handle[T]) bool {
	return p.ReleaseByIndex(h.Index)
}

// Release recovers the slot by scanning for the object.
//
// Deprecated: this is an O(n) search kept for callers that lost their handle;
// prefer ReleaseHandle or ReleaseByIndex.
func (p *Pool[T]) Release(object T) bool {
	for i := range p.objects {
		if p.inUse[i] && p.objects[i] == object {
			return p.ReleaseByIndex(int32(i))
		}
	}
	return false
}

// ReleaseAll returns every in-use slot to the free stack, invoking the
// release callback for each.
func (p *Pool[T]) ReleaseAll() {
	for i := range p.objects {
		if p.inUse[i] {
			p.ReleaseByIndex(int32(i))
		}
	}
}

// Capacity returns the fixed slot count.
func (p *Pool[T]) Capacity() int {
	return len(p.objects)
}

// ActiveCount returns the number of slots currently acquired.
func (p *Pool[T]) ActiveCount() int {
	return len(p.objects) - int(p.freeCount)
}

// AvailableCount returns the number of slots on the free stack.
func (p *Pool[T]) AvailableCount() int {
	return int(p.freeCount)
}

// IsFull reports whether no slot is available.
func (p *Pool[T]) IsFull() bool {
	return p.freeCount == 0
}

// IsEmpty reports whether no slot is acquired.
func (p *Pool[T]) IsEmpty() bool {
	return int(p.freeCount) == len(p.objects)
}

// GetByIndex returns the object stored in a slot regardless of its in-use
// state.
func (p *Pool[T]) GetByIndex(index int32) (T, bool) {
	var zero T
	if index < 0 || int(index) >= len(p.objects) {
		p.log.Error("pool get: index out of range", zap.Int32("index", index))
		return zero, false
	}
	return p.objects[index], true
}

// IsInUse reports whether a slot is currently acquired.
func (p *Pool[T]) IsInUse(index int32) bool {
	if index < 0 || int(index) >= len(p.objects) {
		return false
	}
	return p.inUse[index]
}

// ForEachActive invokes fn for every acquired slot in index order. fn must
// not acquire or release during iteration.
func (p *Pool[T]) ForEachActive(fn func(index int32, object T)) {
	for i := range p.objects {
		if p.inUse[i] {
			fn(int32(i), p.objects[i])
		}
	}
}

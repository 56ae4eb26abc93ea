package ecs

import (
	"go.uber.org/zap"
)

// Query filters the dense active list by required and excluded component
// masks. The zero builder matches every Active entity. Builders are values;
// chaining never allocates. The matching predicate is:
//
//	state == Active && mask&required == required && mask&excluded == 0
//
// Hot paths read the world's state and mask arrays directly instead of
// dispatching per-entity predicate calls.
type Query struct {
	w        *World
	required Mask
	excluded Mask
	cache    []Entity
}

// Query starts a new query builder against this world.
func (w *World) Query() Query {
	return Query{w: w}
}

// With requires the component slot. Out-of-range slots log an error and leave
// the query unchanged.
func (q Query) With(slot int) Query {
	if !validSlot(slot) {
		q.w.log.Error("query with: component slot out of range", zap.Int("slot", slot))
		return q
	}
	q.required = q.required.With(slot)
	return q
}

// Without excludes the component slot.
func (q Query) Without(slot int) Query {
	if !validSlot(slot) {
		q.w.log.Error("query without: component slot out of range", zap.Int("slot", slot))
		return q
	}
	q.excluded = q.excluded.With(slot)
	return q
}

// Reset clears both masks, keeping the cache storage for reuse.
func (q Query) Reset() Query {
	q.required = 0
	q.excluded = 0
	return q
}

// Matches reports whether a single entity satisfies the query.
func (q Query) Matches(id Entity) bool {
	w := q.w
	if !w.inRange(id) || w.states[id] != StateActive {
		return false
	}
	m := w.masks[id]
	return m&q.required == q.required && m&q.excluded == 0
}

// Count returns the number of matching entities.
func (q Query) Count() int {
	w := q.w
	n := 0
	for i := int32(0); i < w.activeCount; i++ {
		m := w.masks[w.active[i]]
		if m&q.required == q.required && m&q.excluded == 0 {
			n++
		}
	}
	return n
}

// Execute fills buf with matching ids and returns the count written,
// truncating silently when buf is smaller than the match count.
func (q Query) Execute(buf []Entity) int {
	w := q.w
	n := 0
	for i := int32(0); i < w.activeCount && n < len(buf); i++ {
		id := w.active[i]
		m := w.masks[id]
		if m&q.required == q.required && m&q.excluded == 0 {
			buf[n] = id
			n++
		}
	}
	return n
}

// First returns the first matching id in active-list order, InvalidEntity if
// none match.
func (q Query) First() Entity {
	w := q.w
	for i := int32(0); i < w.activeCount; i++ {
		id := w.active[i]
		m := w.masks[id]
		if m&q.required == q.required && m&q.excluded == 0 {
			return id
		}
	}
	return InvalidEntity
}

// Any reports whether at least one entity matches.
func (q Query) Any() bool {
	return q.First() != InvalidEntity
}

// ForEach invokes fn for every matching entity without allocating. Iteration
// runs back to front so fn may destroy (deferred or immediate) the entity it
// was handed.
func (q Query) ForEach(fn func(Entity)) {
	w := q.w
	for i := w.activeCount - 1; i >= 0; i-- {
		if i >= w.activeCount {
			continue
		}
		id := w.active[i]
		m := w.masks[id]
		if m&q.required == q.required && m&q.excluded == 0 {
			fn(id)
		}
	}
}

// ForEachWhile is ForEach with early exit: iteration stops when fn returns
// false.
func (q Query) ForEachWhile(fn func(Entity) bool) {
	w := q.w
	for i := w.activeCount - 1; i >= 0; i-- {
		if i >= w.activeCount {
			continue
		}
		id := w.active[i]
		m := w.masks[id]
		if m&q.required == q.required && m&q.excluded == 0 {
			if !fn(id) {
				return
			}
		}
	}
}

// RefreshCache re-filters into the query's private result list and returns
// the match count. Use with ForEachCached when the same query runs several
// times within one tick; the cache is not invalidated by world mutations.
// The cache storage is allocated once, on first refresh.
func (q *Query) RefreshCache() int {
	if q.cache == nil {
		q.cache = make([]Entity, 0, q.w.capacity)
	}
	q.cache = q.cache[:0]
	w := q.w
	for i := int32(0); i < w.activeCount; i++ {
		id := w.active[i]
		m := w.masks[id]
		if m&q.required == q.required && m&q.excluded == 0 {
			q.cache = append(q.cache, id)
		}
	}
	return len(q.cache)
}

// ForEachCached iterates the results captured by the last RefreshCache.
func (q *Query) ForEachCached(fn func(Entity)) {
	for _, id := range q.cache {
		fn(id)
	}
}

// CachedCount returns the size of the cached result list.
func (q *Query) CachedCount() int {
	return len(q.cache)
}

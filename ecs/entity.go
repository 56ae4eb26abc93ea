package ecs

// Entity is the slot index of an entity in a World. It is an alias rather
// than a defined type so hot loops can index component arrays without
// conversions. Stale references are detected through the per-slot version
// counter, not the id itself.
type Entity = int32

// InvalidEntity is the sentinel returned when no slot can be produced.
const InvalidEntity Entity = -1

// State is the lifecycle state of an entity slot.
type State uint8

const (
	// StateFree marks a slot that holds no entity and sits on the free list.
	StateFree State = iota
	// StateActive marks a live entity present in the dense active list.
	StateActive
	// StateDisabled marks a live entity removed from the active list but not
	// destroyed. Its component mask and version are untouched.
	StateDisabled
	// StatePendingDestroy marks an entity queued for the end-of-tick flush.
	StatePendingDestroy
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateActive:
		return "active"
	case StateDisabled:
		return "disabled"
	case StatePendingDestroy:
		return "pending-destroy"
	}
	return "unknown"
}

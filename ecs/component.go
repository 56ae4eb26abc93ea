package ecs

import (
	"go.uber.org/zap"
)

// componentRegistry binds external type ids to registry slots. Backing arrays
// are owned by the caller; the registry only holds opaque references to them.
type componentRegistry struct {
	arrays  [MaxComponentSlots]any
	typeIDs [MaxComponentSlots]int32
	count   int
	index   *typeMap
}

func (r *componentRegistry) init() {
	r.index = newTypeMap(MaxComponentSlots)
}

// RegisterComponent binds a caller-owned, pre-sized backing array to the next
// free slot and returns the slot index. Registration is one-shot: registering
// a type id twice logs an error and returns the existing slot with ok false.
// The World never allocates, resizes, or type-inspects the array.
func (w *World) RegisterComponent(typeID int32, array any) (slot int, ok bool) {
	if array == nil {
		w.log.Error("register component: nil backing array", zap.Int32("type_id", typeID))
		return -1, false
	}
	if s, found := w.comps.index.get(typeID); found {
		w.log.Error("register component: type id already registered",
			zap.Int32("type_id", typeID), zap.Int32("slot", s))
		return int(s), false
	}
	if w.comps.count >= MaxComponentSlots {
		w.log.Error("register component: slot table full",
			zap.Int32("type_id", typeID), zap.Int("max", MaxComponentSlots))
		return -1, false
	}
	slot = w.comps.count
	w.comps.count++
	w.comps.arrays[slot] = array
	w.comps.typeIDs[slot] = typeID
	w.comps.index.put(typeID, int32(slot))
	return slot, true
}

// GetComponentSlot returns the slot bound to a type id, -1 if unregistered.
func (w *World) GetComponentSlot(typeID int32) int {
	if s, ok := w.comps.index.get(typeID); ok {
		return int(s)
	}
	return -1
}

// GetComponentArray returns the backing array registered for a type id, nil
// if unregistered. The caller performs the type assertion.
func (w *World) GetComponentArray(typeID int32) any {
	s := w.GetComponentSlot(typeID)
	if s < 0 {
		return nil
	}
	return w.comps.arrays[s]
}

// ComponentSlotCount returns the number of registered component slots.
func (w *World) ComponentSlotCount() int {
	return w.comps.count
}

// AddComponent sets the slot bit on an Active or Disabled entity's mask.
func (w *World) AddComponent(id Entity, slot int) bool {
	if !w.checkMaskOp("add component", id, slot) {
		return false
	}
	if s := w.states[id]; s != StateActive && s != StateDisabled {
		return false
	}
	w.masks[id] = w.masks[id].With(slot)
	return true
}

// RemoveComponent clears the slot bit on an Active or Disabled entity's mask.
func (w *World) RemoveComponent(id Entity, slot int) bool {
	if !w.checkMaskOp("remove component", id, slot) {
		return false
	}
	if s := w.states[id]; s != StateActive && s != StateDisabled {
		return false
	}
	w.masks[id] = w.masks[id].Without(slot)
	return true
}

// HasComponent reports whether an Active or Disabled entity has the slot bit
// set. Free and PendingDestroy entities report false regardless of mask.
func (w *World) HasComponent(id Entity, slot int) bool {
	if !w.inRange(id) || !validSlot(slot) {
		return false
	}
	if s := w.states[id]; s != StateActive && s != StateDisabled {
		return false
	}
	return w.masks[id].Has(slot)
}

// ComponentMask returns the raw mask for a slot, 0 for out-of-range ids.
func (w *World) ComponentMask(id Entity) Mask {
	if !w.inRange(id) {
		return 0
	}
	return w.masks[id]
}

func (w *World) checkMaskOp(op string, id Entity, slot int) bool {
	if !w.inRange(id) {
		w.log.Error(op+": entity id out of range", zap.Int32("id", id))
		return false
	}
	if slot < 0 || slot >= w.comps.count {
		w.log.Error(op+": component slot out of range",
			zap.Int("slot", slot), zap.Int("registered", w.comps.count))
		return false
	}
	return true
}

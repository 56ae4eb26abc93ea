package ecs

// MaxComponentSlots is the number of component slots a single World supports.
// A Mask is one machine word, so slot indices run 0..31.
const MaxComponentSlots = 32

// Mask is a bitset of component slots. Bit n set means the entity currently
// has the component registered in slot n.
type Mask uint32

// Has reports whether the slot bit is set.
func (m Mask) Has(slot int) bool {
	return m&(1<<uint(slot)) != 0
}

// With returns the mask with the slot bit set.
func (m Mask) With(slot int) Mask {
	return m | 1<<uint(slot)
}

// Without returns the mask with the slot bit cleared.
func (m Mask) Without(slot int) Mask {
	return m &^ (1 << uint(slot))
}

// ContainsAll reports whether every bit of required is set in m.
func (m Mask) ContainsAll(required Mask) bool {
	return m&required == required
}

// Intersects reports whether m shares any bit with other.
func (m Mask) Intersects(other Mask) bool {
	return m&other != 0
}

func validSlot(slot int) bool {
	return slot >= 0 && slot < MaxComponentSlots
}

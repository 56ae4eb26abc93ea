package ecs

// typeMap is a small open-addressing hash table from external component type
// ids to registry slots. Deletion leaves a tombstone so probe chains stay
// intact; an insert reuses the first tombstone seen on its probe path, and
// the table rehashes once tombstones exceed a quarter of capacity.
type typeMap struct {
	keys       []int32
	vals       []int32
	slots      []uint8
	used       int
	tombstones int
}

const (
	tmEmpty uint8 = iota
	tmUsed
	tmTombstone
)

// newTypeMap allocates a table with at least the given capacity, rounded up
// to a power of two so probing can mask instead of mod.
func newTypeMap(capacity int) *typeMap {
	n := 8
	for n < capacity {
		n <<= 1
	}
	return &typeMap{
		keys:  make([]int32, n),
		vals:  make([]int32, n),
		slots: make([]uint8, n),
	}
}

func (m *typeMap) mask() int {
	return len(m.keys) - 1
}

func (m *typeMap) home(key int32) int {
	// Knuth multiplicative hash.
	return int(uint32(key)*2654435761) & m.mask()
}

func (m *typeMap) get(key int32) (int32, bool) {
	i := m.home(key)
	for {
		switch m.slots[i] {
		case tmEmpty:
			return 0, false
		case tmUsed:
			if m.keys[i] == key {
				return m.vals[i], true
			}
		}
		i = (i + 1) & m.mask()
	}
}

func (m *typeMap) put(key, val int32) {
	// Keep load (live + tombstones) under 3/4 so probes terminate.
	if (m.used+m.tombstones+1)*4 >= len(m.keys)*3 {
		m.rehash(len(m.keys) * 2)
	}
	i := m.home(key)
	firstTomb := -1
	for {
		switch m.slots[i] {
		case tmEmpty:
			if firstTomb >= 0 {
				i = firstTomb
				m.tombstones--
			}
			m.slots[i] = tmUsed
			m.keys[i] = key
			m.vals[i] = val
			m.used++
			return
		case tmTombstone:
			if firstTomb < 0 {
				firstTomb = i
			}
		case tmUsed:
			if m.keys[i] == key {
				m.vals[i] = val
				return
			}
		}
		i = (i + 1) & m.mask()
	}
}

func (m *typeMap) delete(key int32) bool {
	i := m.home(key)
	for {
		switch m.slots[i] {
		case tmEmpty:
			return false
		case tmUsed:
			if m.keys[i] == key {
				m.slots[i] = tmTombstone
				m.used--
				m.tombstones++
				if m.tombstones > len(m.keys)/4 {
					m.rehash(len(m.keys))
				}
				return true
			}
		}
		i = (i + 1) & m.mask()
	}
}

// rehash rebuilds the table at the given capacity, purging tombstones.
func (m *typeMap) rehash(capacity int) {
	oldKeys, oldVals, oldSlots := m.keys, m.vals, m.slots
	m.keys = make([]int32, capacity)
	m.vals = make([]int32, capacity)
	m.slots = make([]uint8, capacity)
	m.used = 0
	m.tombstones = 0
	for i, s := range oldSlots {
		if s == tmUsed {
			m.put(oldKeys[i], oldVals[i])
		}
	}
}

func (m *typeMap) len() int {
	return m.used
}

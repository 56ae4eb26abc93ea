package pool

import "testing"

type projectile struct {
	id     int
	active bool
}

func newPool(t *testing.T, capacity int) *Pool[*projectile] {
	t.Helper()
	p := New[*projectile](capacity, nil)
	ok := p.Initialize(
		func(i int) *projectile { return &projectile{id: i} },
		func(o *projectile) { o.active = true },
		func(o *projectile) { o.active = false },
	)
	if !ok {
		t.Fatal("Initialize failed")
	}
	return p
}

func checkCounts(t *testing.T, p *Pool[*projectile]) {
	t.Helper()
	if p.ActiveCount()+p.AvailableCount() != p.Capacity() {
		t.Fatalf("count invariant broken: active %d + available %d != capacity %d",
			p.ActiveCount(), p.AvailableCount(), p.Capacity())
	}
}

func TestAcquireRelease(t *testing.T) {
	p := newPool(t, 3)
	checkCounts(t, p)

	h1 := p.AcquireHandle()
	h2 := p.AcquireHandle()
	h3 := p.AcquireHandle()
	checkCounts(t, p)
	if !h1.Valid() || !h2.Valid() || !h3.Valid() {
		t.Fatal("handles from a fresh pool should be valid")
	}
	if !p.IsFull() {
		t.Error("pool should be full after three acquires")
	}
	if !h1.Object.active {
		t.Error("acquire callback did not run")
	}

	// Exhausted: zero value, invalid handle.
	h4 := p.AcquireHandle()
	if h4.Valid() || h4.Object != nil {
		t.Errorf("exhausted acquire = %+v, want invalid nil handle", h4)
	}
	checkCounts(t, p)

	if !p.ReleaseHandle(h2) {
		t.Error("ReleaseHandle failed")
	}
	if h2.Object.active {
		t.Error("release callback did not run")
	}
	checkCounts(t, p)

	// Released slot comes back on the next acquire.
	h5 := p.AcquireHandle()
	if h5.Index != h2.Index {
		t.Errorf("reacquire index = %d, want recycled %d", h5.Index, h2.Index)
	}
	checkCounts(t, p)
}

func TestDoubleRelease(t *testing.T) {
	p := newPool(t, 2)
	h := p.AcquireHandle()
	if !p.ReleaseHandle(h) {
		t.Fatal("first release failed")
	}
	if p.ReleaseHandle(h) {
		t.Error("second release succeeded")
	}
	checkCounts(t, p)
}

func TestReleaseByObjectSearch(t *testing.T) {
	p := newPool(t, 4)
	h := p.AcquireHandle()
	other := &projectile{id: 99}

	if p.Release(other) {
		t.Error("released an object the pool never held")
	}
	if !p.Release(h.Object) {
		t.Error("search release failed for a held object")
	}
	if p.IsInUse(h.Index) {
		t.Error("slot still in use after search release")
	}
	checkCounts(t, p)
}

func TestReleaseAll(t *testing.T) {
	p := newPool(t, 8)
	for i := 0; i < 8; i++ {
		p.Acquire()
	}
	if !p.IsFull() {
		t.Fatal("pool should be full")
	}
	p.ReleaseAll()
	if !p.IsEmpty() {
		t.Error("pool not empty after ReleaseAll")
	}
	p.ForEachActive(func(int32, *projectile) {
		t.Error("ForEachActive visited a slot after ReleaseAll")
	})
	checkCounts(t, p)
}

func TestAcquireBeforeInitialize(t *testing.T) {
	p := New[*projectile](4, nil)
	if obj, idx := p.AcquireWithIndex(); obj != nil || idx != -1 {
		t.Errorf("acquire before initialize = (%v, %d), want (nil, -1)", obj, idx)
	}
}

func TestInitializeRejectsNilFactory(t *testing.T) {
	p := New[*projectile](4, nil)
	if p.Initialize(nil, nil, nil) {
		t.Error("Initialize accepted a nil factory")
	}
}

func TestInitializeWithArray(t *testing.T) {
	p := New[*projectile](3, nil)
	short := []*projectile{{id: 0}}
	if p.InitializeWithArray(short, nil, nil) {
		t.Error("accepted an array smaller than capacity")
	}

	objs := []*projectile{{id: 0}, {id: 1}, {id: 2}, {id: 3}}
	if !p.InitializeWithArray(objs, nil, nil) {
		t.Fatal("InitializeWithArray failed")
	}
	got, ok := p.GetByIndex(2)
	if !ok || got.id != 2 {
		t.Errorf("GetByIndex(2) = (%v, %v), want id 2", got, ok)
	}
	// The extra object past capacity is ignored.
	if _, ok := p.GetByIndex(3); ok {
		t.Error("GetByIndex past capacity succeeded")
	}
}

func TestReinitializeResets(t *testing.T) {
	p := newPool(t, 4)
	p.Acquire()
	p.Acquire()
	p.Initialize(func(i int) *projectile { return &projectile{id: i + 100} }, nil, nil)
	if !p.IsEmpty() {
		t.Error("pool not fully available after reinitialize")
	}
	obj := p.Acquire()
	if obj.id != 100 {
		t.Errorf("acquired id = %d, want 100 (slot 0 pops first)", obj.id)
	}
}

func TestGetAndInUseQueries(t *testing.T) {
	p := newPool(t, 2)
	h := p.AcquireHandle()

	if !p.IsInUse(h.Index) {
		t.Error("IsInUse false for acquired slot")
	}
	if p.IsInUse(-1) || p.IsInUse(99) {
		t.Error("IsInUse true for out-of-range index")
	}
	if !p.ReleaseByIndex(h.Index) {
		t.Fatal("ReleaseByIndex failed")
	}
	// The slot's object stays resident after release.
	got, ok := p.GetByIndex(h.Index)
	if !ok || got != h.Object {
		t.Error("GetByIndex lost the object after release")
	}
	if p.ReleaseByIndex(-5) {
		t.Error("released an out-of-range index")
	}
}

func TestCapacityClamping(t *testing.T) {
	p := New[*projectile](0, nil)
	if p.Capacity() != 1 {
		t.Errorf("capacity = %d, want clamp to 1", p.Capacity())
	}
	p = New[*projectile](MaxCapacity+1, nil)
	if p.Capacity() != MaxCapacity {
		t.Errorf("capacity = %d, want clamp to %d", p.Capacity(), MaxCapacity)
	}
}

func TestChurn(t *testing.T) {
	p := newPool(t, 16)
	var handles []Handle[*projectile]
	rng := uint32(7)
	for step := 0; step < 1000; step++ {
		rng = rng*1664525 + 1013904223
		if rng%2 == 0 && !p.IsFull() {
			h := p.AcquireHandle()
			if !h.Valid() {
				t.Fatalf("step %d: acquire failed with pool not full", step)
			}
			handles = append(handles, h)
		} else if len(handles) > 0 {
			last := handles[len(handles)-1]
			handles = handles[:len(handles)-1]
			if !p.ReleaseHandle(last) {
				t.Fatalf("step %d: release failed", step)
			}
		}
		checkCounts(t, p)
		if p.ActiveCount() != len(handles) {
			t.Fatalf("step %d: ActiveCount %d != held handles %d", step, p.ActiveCount(), len(handles))
		}
	}
}

func BenchmarkAcquireReleaseHandle(b *testing.B) {
	p := New[*projectile](1024, nil)
	p.Initialize(func(i int) *projectile { return &projectile{id: i} }, nil, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := p.AcquireHandle()
		p.ReleaseHandle(h)
	}
}

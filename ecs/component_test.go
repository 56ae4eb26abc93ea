package ecs

import (
	"testing"
)

func TestRegisterComponent(t *testing.T) {
	w := NewWorld(8, nil)
	positions := make([]float32, 8)
	healths := make([]int16, 8)

	slotPos, ok := w.RegisterComponent(100, positions)
	if !ok || slotPos != 0 {
		t.Fatalf("RegisterComponent = (%d, %v), want (0, true)", slotPos, ok)
	}
	slotHP, ok := w.RegisterComponent(200, healths)
	if !ok || slotHP != 1 {
		t.Fatalf("RegisterComponent = (%d, %v), want (1, true)", slotHP, ok)
	}

	if got := w.GetComponentSlot(100); got != slotPos {
		t.Errorf("GetComponentSlot(100) = %d, want %d", got, slotPos)
	}
	if got := w.GetComponentSlot(999); got != -1 {
		t.Errorf("GetComponentSlot(999) = %d, want -1", got)
	}

	arr, ok := w.GetComponentArray(100).([]float32)
	if !ok {
		t.Fatal("GetComponentArray(100) did not return the registered array")
	}
	arr[3] = 1.5
	if positions[3] != 1.5 {
		t.Error("returned array is not the caller-owned backing store")
	}
	if w.GetComponentArray(999) != nil {
		t.Error("GetComponentArray(999) != nil for unregistered type")
	}

	// Re-registration is rejected but reports the existing slot.
	if slot, ok := w.RegisterComponent(100, make([]float32, 8)); ok || slot != slotPos {
		t.Errorf("re-registration = (%d, %v), want (%d, false)", slot, ok, slotPos)
	}
	if w.ComponentSlotCount() != 2 {
		t.Errorf("ComponentSlotCount = %d, want 2", w.ComponentSlotCount())
	}

	// Nil arrays are rejected.
	if slot, ok := w.RegisterComponent(300, nil); ok || slot != -1 {
		t.Errorf("nil array registration = (%d, %v), want (-1, false)", slot, ok)
	}
}

func TestRegisterComponentSlotExhaustion(t *testing.T) {
	w := NewWorld(4, nil)
	for i := 0; i < MaxComponentSlots; i++ {
		if _, ok := w.RegisterComponent(int32(i), make([]byte, 4)); !ok {
			t.Fatalf("registration %d failed", i)
		}
	}
	if slot, ok := w.RegisterComponent(1000, make([]byte, 4)); ok || slot != -1 {
		t.Errorf("registration past slot table = (%d, %v), want (-1, false)", slot, ok)
	}
}

func TestComponentMaskOps(t *testing.T) {
	w := NewWorld(8, nil)
	slotA, _ := w.RegisterComponent(1, make([]int32, 8))
	slotB, _ := w.RegisterComponent(2, make([]int32, 8))

	id := w.CreateEntity()
	if w.ComponentMask(id) != 0 {
		t.Fatalf("fresh entity mask = %b, want 0", w.ComponentMask(id))
	}

	if !w.AddComponent(id, slotA) {
		t.Fatal("AddComponent failed")
	}
	if !w.HasComponent(id, slotA) || w.HasComponent(id, slotB) {
		t.Error("mask bits wrong after AddComponent")
	}

	w.AddComponent(id, slotB)
	if w.ComponentMask(id) != Mask(1<<slotA|1<<slotB) {
		t.Errorf("mask = %b", w.ComponentMask(id))
	}

	if !w.RemoveComponent(id, slotA) {
		t.Fatal("RemoveComponent failed")
	}
	if w.HasComponent(id, slotA) || !w.HasComponent(id, slotB) {
		t.Error("mask bits wrong after RemoveComponent")
	}

	// Mask survives disable, is readable while disabled.
	w.DisableEntity(id)
	if !w.HasComponent(id, slotB) {
		t.Error("HasComponent false on disabled entity")
	}
	if !w.AddComponent(id, slotA) {
		t.Error("AddComponent rejected on disabled entity")
	}

	// Free and pending entities reject mask operations.
	w.EnableEntity(id)
	w.DestroyEntityDeferred(id)
	if w.AddComponent(id, slotA) || w.HasComponent(id, slotB) {
		t.Error("mask ops allowed on pending-destroy entity")
	}
	w.FlushPendingDestructions()
	if w.RemoveComponent(id, slotB) || w.HasComponent(id, slotB) {
		t.Error("mask ops allowed on free slot")
	}
}

func TestComponentMaskClearedOnCreate(t *testing.T) {
	w := NewWorld(2, nil)
	slot, _ := w.RegisterComponent(1, make([]int32, 2))
	id := w.CreateEntity()
	w.AddComponent(id, slot)
	w.DestroyEntity(id)

	re := w.CreateEntity()
	if re != id {
		t.Fatalf("expected slot reuse, got %d", re)
	}
	if w.HasComponent(re, slot) {
		t.Error("recycled entity inherited component mask")
	}
}

func TestMaskOpInvalidArgs(t *testing.T) {
	w := NewWorld(4, nil)
	slot, _ := w.RegisterComponent(1, make([]int32, 4))
	id := w.CreateEntity()

	if w.AddComponent(-1, slot) || w.AddComponent(99, slot) {
		t.Error("AddComponent accepted out-of-range id")
	}
	if w.AddComponent(id, -1) || w.AddComponent(id, 31) {
		t.Error("AddComponent accepted unregistered slot")
	}
}

package world

import "testing"

func TestInventoryAddClamp(t *testing.T) {
	inv := NewInventory(10)

	if got := inv.Add(ResourceWood, 9); got != 9 {
		t.Fatalf("first add credited %d, want 9", got)
	}
	// Only 1 unit of room remains.
	if got := inv.Add(ResourceWood, 3); got != 1 {
		t.Fatalf("second add credited %d, want 1", got)
	}
	if !inv.Full() {
		t.Fatalf("inventory not full at capacity")
	}
	if got := inv.Add(ResourceWood, 1); got != 0 {
		t.Fatalf("add into full inventory credited %d, want 0", got)
	}
	if got := inv.Total(); got != 10 {
		t.Fatalf("total=%d, want 10", got)
	}
}

func TestInventoryCapacitySpansTypes(t *testing.T) {
	inv := NewInventory(10)
	inv.Add(ResourceWood, 6)
	stone := ResourceType("stone")

	if got := inv.Add(stone, 6); got != 4 {
		t.Fatalf("cross-type add credited %d, want 4", got)
	}
	if got := inv.Total(); got != 10 {
		t.Fatalf("total=%d across types, want 10", got)
	}
}

func TestInventoryRemove(t *testing.T) {
	inv := NewInventory(10)
	inv.Add(ResourceWood, 5)

	if got := inv.Remove(ResourceWood, 8); got != 5 {
		t.Fatalf("remove debited %d, want 5", got)
	}
	if got := inv.Amount(ResourceWood); got != 0 {
		t.Fatalf("amount=%d after remove, want 0", got)
	}
	if got := inv.Remove(ResourceWood, 1); got != 0 {
		t.Fatalf("remove from empty inventory debited %d, want 0", got)
	}
	if contents := inv.Contents(); len(contents) != 0 {
		t.Fatalf("contents not empty after full removal: %v", contents)
	}
}

func TestInventoryNegativeCapacity(t *testing.T) {
	inv := NewInventory(-5)
	if got := inv.Capacity(); got != 0 {
		t.Fatalf("capacity=%d, want 0", got)
	}
	if got := inv.Add(ResourceWood, 1); got != 0 {
		t.Fatalf("add into zero-capacity inventory credited %d", got)
	}
}

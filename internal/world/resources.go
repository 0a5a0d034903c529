package world

// ResourceType identifies a harvestable commodity.
type ResourceType string

const (
	ResourceWood ResourceType = "wood"
)

// TileSize is the edge length of one grid cell in world pixels.
const TileSize = 32.0

// Inventory is a bounded per-type carry map. Amounts never exceed the
// holder's capacity across all types combined.
type Inventory struct {
	carried  map[ResourceType]int
	capacity int
}

// NewInventory creates an inventory with the given total capacity.
func NewInventory(capacity int) *Inventory {
	if capacity < 0 {
		capacity = 0
	}
	return &Inventory{carried: make(map[ResourceType]int), capacity: capacity}
}

// Add credits up to amount and returns how much was actually stored.
func (inv *Inventory) Add(t ResourceType, amount int) int {
	if inv == nil || amount <= 0 {
		return 0
	}
	room := inv.capacity - inv.Total()
	if room <= 0 {
		return 0
	}
	if amount > room {
		amount = room
	}
	inv.carried[t] += amount
	return amount
}

// Remove debits up to amount and returns how much was actually removed.
func (inv *Inventory) Remove(t ResourceType, amount int) int {
	if inv == nil || amount <= 0 {
		return 0
	}
	have := inv.carried[t]
	if amount > have {
		amount = have
	}
	if amount == 0 {
		return 0
	}
	inv.carried[t] -= amount
	if inv.carried[t] == 0 {
		delete(inv.carried, t)
	}
	return amount
}

// Amount returns the carried quantity for one type.
func (inv *Inventory) Amount(t ResourceType) int {
	if inv == nil {
		return 0
	}
	return inv.carried[t]
}

// Total returns the carried quantity across all types.
func (inv *Inventory) Total() int {
	if inv == nil {
		return 0
	}
	total := 0
	for _, n := range inv.carried {
		total += n
	}
	return total
}

// Full reports whether no further resources fit.
func (inv *Inventory) Full() bool {
	return inv != nil && inv.Total() >= inv.capacity
}

// Capacity returns the configured bound.
func (inv *Inventory) Capacity() int {
	if inv == nil {
		return 0
	}
	return inv.capacity
}

// Contents returns a copy of the carried map.
func (inv *Inventory) Contents() map[ResourceType]int {
	if inv == nil {
		return nil
	}
	copied := make(map[ResourceType]int, len(inv.carried))
	for t, n := range inv.carried {
		copied[t] = n
	}
	return copied
}

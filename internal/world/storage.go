package world

// Stock is the stored amount and cap for one resource type in a building.
type Stock struct {
	Stored   int `json:"stored"`
	Capacity int `json:"capacity"`
}

// Storage holds a building's per-type stock. Deposit and Withdraw clamp to
// [0, capacity] and report the actually-transferred amount; they never
// discard the caller's excess.
type Storage struct {
	stocks map[ResourceType]Stock
}

// NewStorage creates storage with the given per-type capacities. Types not
// listed are not accepted.
func NewStorage(capacities map[ResourceType]int) *Storage {
	stocks := make(map[ResourceType]Stock, len(capacities))
	for t, capacity := range capacities {
		if capacity < 0 {
			capacity = 0
		}
		stocks[t] = Stock{Capacity: capacity}
	}
	return &Storage{stocks: stocks}
}

// Accepts reports whether the building stores this resource type at all.
func (s *Storage) Accepts(t ResourceType) bool {
	if s == nil {
		return false
	}
	_, ok := s.stocks[t]
	return ok
}

// Deposit stores up to amount and returns min(amount, capacity-stored).
func (s *Storage) Deposit(t ResourceType, amount int) int {
	if s == nil || amount <= 0 {
		return 0
	}
	stock, ok := s.stocks[t]
	if !ok {
		return 0
	}
	room := stock.Capacity - stock.Stored
	if room <= 0 {
		return 0
	}
	if amount > room {
		amount = room
	}
	stock.Stored += amount
	s.stocks[t] = stock
	return amount
}

// Withdraw removes up to amount and returns min(amount, stored).
func (s *Storage) Withdraw(t ResourceType, amount int) int {
	if s == nil || amount <= 0 {
		return 0
	}
	stock, ok := s.stocks[t]
	if !ok {
		return 0
	}
	if amount > stock.Stored {
		amount = stock.Stored
	}
	if amount == 0 {
		return 0
	}
	stock.Stored -= amount
	s.stocks[t] = stock
	return amount
}

// Stored returns the current amount for a type.
func (s *Storage) Stored(t ResourceType) int {
	if s == nil {
		return 0
	}
	return s.stocks[t].Stored
}

// Capacity returns the cap for a type.
func (s *Storage) Capacity(t ResourceType) int {
	if s == nil {
		return 0
	}
	return s.stocks[t].Capacity
}

// Stocks returns a copy of the stock table.
func (s *Storage) Stocks() map[ResourceType]Stock {
	if s == nil {
		return nil
	}
	copied := make(map[ResourceType]Stock, len(s.stocks))
	for t, stock := range s.stocks {
		copied[t] = stock
	}
	return copied
}

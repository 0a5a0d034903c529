package world

import "testing"

func TestStorageDepositClamp(t *testing.T) {
	s := NewStorage(map[ResourceType]int{ResourceWood: 20})

	if got := s.Deposit(ResourceWood, 15); got != 15 {
		t.Fatalf("first deposit stored %d, want 15", got)
	}
	// Only 5 of the next 10 fit; the remainder stays with the caller.
	if got := s.Deposit(ResourceWood, 10); got != 5 {
		t.Fatalf("second deposit stored %d, want 5", got)
	}
	if got := s.Stored(ResourceWood); got != 20 {
		t.Fatalf("stored=%d, want 20", got)
	}
	if got := s.Deposit(ResourceWood, 1); got != 0 {
		t.Fatalf("deposit into full storage stored %d, want 0", got)
	}
}

func TestStorageWithdrawClamp(t *testing.T) {
	s := NewStorage(map[ResourceType]int{ResourceWood: 20})
	s.Deposit(ResourceWood, 7)

	if got := s.Withdraw(ResourceWood, 10); got != 7 {
		t.Fatalf("withdraw returned %d, want 7", got)
	}
	if got := s.Stored(ResourceWood); got != 0 {
		t.Fatalf("stored=%d after withdraw, want 0", got)
	}
	if got := s.Withdraw(ResourceWood, 1); got != 0 {
		t.Fatalf("withdraw from empty storage returned %d, want 0", got)
	}
}

func TestStorageUnknownType(t *testing.T) {
	s := NewStorage(map[ResourceType]int{ResourceWood: 20})
	other := ResourceType("stone")

	if s.Accepts(other) {
		t.Fatalf("storage accepts an unconfigured type")
	}
	if got := s.Deposit(other, 5); got != 0 {
		t.Fatalf("deposit of unconfigured type stored %d, want 0", got)
	}
	if got := s.Withdraw(other, 5); got != 0 {
		t.Fatalf("withdraw of unconfigured type returned %d, want 0", got)
	}
}

func TestStorageInvalidAmounts(t *testing.T) {
	s := NewStorage(map[ResourceType]int{ResourceWood: 20})
	for _, amount := range []int{0, -3} {
		if got := s.Deposit(ResourceWood, amount); got != 0 {
			t.Fatalf("Deposit(%d) = %d, want 0", amount, got)
		}
		if got := s.Withdraw(ResourceWood, amount); got != 0 {
			t.Fatalf("Withdraw(%d) = %d, want 0", amount, got)
		}
	}
	if got := s.Stored(ResourceWood); got != 0 {
		t.Fatalf("stored=%d after no-op calls, want 0", got)
	}
}

func TestStorageStocksCopy(t *testing.T) {
	s := NewStorage(map[ResourceType]int{ResourceWood: 20})
	s.Deposit(ResourceWood, 4)

	stocks := s.Stocks()
	stocks[ResourceWood] = Stock{Stored: 99, Capacity: 99}
	if got := s.Stored(ResourceWood); got != 4 {
		t.Fatalf("mutating the Stocks copy changed live storage: stored=%d", got)
	}
}

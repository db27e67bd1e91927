package cost

import "testing"

func TestZeroCost(t *testing.T) {
	if got := (ZeroCost{}).Cost(100, 5); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestFixedCost(t *testing.T) {
	m := FixedCost{Fee: 2.5}
	if got := m.Cost(100, 5); got != 2.5 {
		t.Errorf("expected 2.5 regardless of trade size, got %v", got)
	}
	if got := m.Cost(1, 0.001); got != 2.5 {
		t.Errorf("expected 2.5 regardless of trade size, got %v", got)
	}
}

func TestLinearCost(t *testing.T) {
	m := LinearCost{Rate: 0.001, Fixed: 1}
	// 0.001 * 100 * 10 + 1 = 2
	if got := m.Cost(100, 10); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}
}

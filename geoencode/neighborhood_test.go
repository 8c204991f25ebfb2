package geoencode

import (
	"math"
	"testing"
)

func TestRadiusMinimumClamp(t *testing.T) {
	// at speed 0 the clamp is active
	want := int(math.Ceil((math.Sqrt(21) - 1) / 2))
	if got := radiusFor(0, 10, 5, 21); got != want {
		t.Fatalf("expected minimum radius %d, got %d", want, got)
	}
}

func TestRadiusHoldsWCells(t *testing.T) {
	for _, w := range []int{1, 4, 9, 21, 100, 441} {
		r := radiusFor(0, 10, 5, w)
		side := 2*r + 1
		if side*side < w {
			t.Fatalf("w=%d: window %dx%d cannot hold w cells", w, side, side)
		}
	}
}

func TestRadiusMonotonicInSpeed(t *testing.T) {
	prev := radiusFor(0, 10, 5, 21)
	for speed := 1.0; speed <= 60; speed++ {
		r := radiusFor(speed, 10, 5, 21)
		if r < prev {
			t.Fatalf("radius decreased from %d to %d at speed %f", prev, r, speed)
		}
		prev = r
	}
}

func TestNeighborsRowMajor(t *testing.T) {
	cells := neighbors(OrderKey{Lat: 10, Lon: -10}, 1)
	if len(cells) != 9 {
		t.Fatalf("expected 9 cells, got %d", len(cells))
	}

	want := []OrderKey{
		{9, -11}, {9, -10}, {9, -9},
		{10, -11}, {10, -10}, {10, -9},
		{11, -11}, {11, -10}, {11, -9},
	}
	for i, cell := range cells {
		if cell != want[i] {
			t.Fatalf("cell %d: expected %+v, got %+v", i, want[i], cell)
		}
	}
}

func TestSelectTopBound(t *testing.T) {
	cells := neighbors(OrderKey{}, 3) // 49 candidates
	top := selectTop(cells, 21)
	if len(top) != 21 {
		t.Fatalf("expected 21 selected, got %d", len(top))
	}

	seen := map[OrderKey]bool{}
	for _, c := range top {
		if seen[c] {
			t.Fatalf("cell %+v selected twice", c)
		}
		seen[c] = true
	}
}

func TestSelectTopFewerCandidates(t *testing.T) {
	cells := neighbors(OrderKey{Lat: 5, Lon: 5}, 1) // 9 candidates
	top := selectTop(cells, 21)
	if len(top) != 9 {
		t.Fatalf("expected all 9 candidates, got %d", len(top))
	}
}

func TestSelectTopKeepsHighestOrders(t *testing.T) {
	cells := neighbors(OrderKey{Lat: -2, Lon: 8}, 2)
	top := selectTop(cells, 5)

	lowest := orderValue(top[0])
	for _, c := range cells {
		selected := false
		for _, s := range top {
			if s == c {
				selected = true
				break
			}
		}
		if !selected && orderValue(c) > lowest {
			t.Fatalf("unselected cell %+v outranks selected cell %+v", c, top[0])
		}
	}
}

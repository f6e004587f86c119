package hexgrid

import (
	"math"
	"testing"
)

func TestAddSubRoundTrip(t *testing.T) {
	cases := []struct{ h, o Coord }{
		{Coord{0, 5, 5}, Coord{1, 2, 2}},
		{Coord{1, 5, 5}, Coord{1, 2, 2}},
		{Coord{1, 5, 5}, Coord{0, 2, 2}},
		{Coord{0, 0, 0}, Coord{0, 0, 0}},
		{Coord{0, -3, 4}, Coord{1, 1, -1}},
	}
	for _, c := range cases {
		got := c.h.Sub(c.o).Add(c.o)
		if !got.Equals(c.h) {
			t.Errorf("Sub(%v,%v).Add(%v) = %v, want %v", c.h, c.o, c.o, got, c.h)
		}
	}
}

func TestAddInvariant(t *testing.T) {
	for a1 := 0; a1 <= 1; a1++ {
		for a2 := 0; a2 <= 1; a2++ {
			sum := Coord{A: a1, R: 1, C: 1}.Add(Coord{A: a2, R: 1, C: 1})
			if sum.A != 0 && sum.A != 1 {
				t.Fatalf("Add produced invalid a=%d", sum.A)
			}
		}
	}
}

func TestNeighborsUnitDistance(t *testing.T) {
	origins := []Coord{{0, 0, 0}, {1, 0, 0}, {0, 3, -2}, {1, -4, 7}}
	for _, o := range origins {
		for _, n := range o.Neighbors() {
			d := n.Sub(o)
			norm := d.CartesianNorm()
			if math.Abs(norm-1) > 1e-9 {
				t.Errorf("neighbor of %v: displacement %v has norm %v, want 1", o, d, norm)
			}
		}
	}
}

func TestNeighborsAreDistinct(t *testing.T) {
	o := Coord{0, 2, 2}
	seen := map[Coord]bool{}
	for _, n := range o.Neighbors() {
		if seen[n] {
			t.Errorf("duplicate neighbor %v", n)
		}
		seen[n] = true
	}
	if len(seen) != 6 {
		t.Errorf("got %d distinct neighbors, want 6", len(seen))
	}
}

func TestEqualsAndCartesianZero(t *testing.T) {
	if !Origin().Equals(Coord{0, 0, 0}) {
		t.Error("Origin should equal zero value")
	}
	x, y := Origin().Cartesian()
	if x != 0 || y != 0 {
		t.Errorf("origin cartesian = (%v,%v), want (0,0)", x, y)
	}
}

func TestCartesianNormToleranceBoundary(t *testing.T) {
	// A translate of magnitude exactly 1 (a true neighbor step) must be within
	// the 1.001 tolerance used by action validation.
	d := directions[0]
	if d.CartesianNorm() > 1.001 {
		t.Errorf("unit direction norm %v exceeds tolerance", d.CartesianNorm())
	}
}

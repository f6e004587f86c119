// Package hexgrid implements the triple-coordinate hex grid system used to
// address cells, actors, and props in a room. A coordinate is a triple
// (a, r, c) with a in {0,1}; a tracks the parity of the "real" grid row
// (2*r + a), letting addition fold row-parity bookkeeping into a carry bit
// instead of a modulo check at every call site.
package hexgrid

import "math"

// Coord is a hex-grid cell address. Zero value is the origin.
type Coord struct {
	A int `json:"a"`
	R int `json:"r"`
	C int `json:"c"`
}

// Origin returns the (0,0,0) coordinate.
func Origin() Coord {
	return Coord{}
}

// Add returns h + o. The row-parity bit a carries into both r and c, which
// keeps a single direction vector valid from either parity (see Neighbors).
func (h Coord) Add(o Coord) Coord {
	sumA := h.A + o.A
	carry := 0
	if sumA >= 2 {
		sumA -= 2
		carry = 1
	}
	return Coord{A: sumA, R: h.R + o.R + carry, C: h.C + o.C + carry}
}

// Sub returns h - o, the inverse of Add: Sub(h, o).Add(o) == h.
func (h Coord) Sub(o Coord) Coord {
	if o.A == 0 {
		return Coord{A: h.A, R: h.R - o.R, C: h.C - o.C}
	}
	if h.A == 1 {
		return Coord{A: 0, R: h.R - o.R, C: h.C - o.C}
	}
	return Coord{A: 1, R: h.R - o.R - 1, C: h.C - o.C - 1}
}

// Equals reports whether h and o address the same cell.
func (h Coord) Equals(o Coord) bool {
	return h.A == o.A && h.R == o.R && h.C == o.C
}

// realRow is the unfolded row index 2*r + a.
func (h Coord) realRow() int {
	return 2*h.R + h.A
}

const rowSpacing = 0.8660254037844386 // sqrt(3)/2, unit hex center spacing

// Cartesian projects the hex coordinate onto the plane. Adjacent cells are
// exactly distance 1 apart; this is the basis for the 1.001 tolerance used
// throughout action validation.
func (h Coord) Cartesian() (x, y float64) {
	x = float64(h.C)
	if h.A == 1 {
		x += 0.5
	}
	y = float64(h.realRow()) * rowSpacing
	return x, y
}

// CartesianNorm returns the Cartesian distance of h from the origin.
func (h Coord) CartesianNorm() float64 {
	x, y := h.Cartesian()
	return math.Hypot(x, y)
}

// the six unit-distance direction vectors, valid from either row parity.
var directions = [6]Coord{
	{A: 0, R: 0, C: 1},   // east
	{A: 0, R: 0, C: -1},  // west
	{A: 1, R: -1, C: 0},  // north-east
	{A: 1, R: -1, C: -1}, // north-west
	{A: 1, R: 0, C: -1},  // south-west
	{A: 1, R: 0, C: 0},   // south-east
}

// Neighbors returns the 6 cells adjacent to h, in a fixed, deterministic order.
func (h Coord) Neighbors() []Coord {
	out := make([]Coord, len(directions))
	for i, d := range directions {
		out[i] = h.Add(d)
	}
	return out
}

// UnitDirections exposes the six canonical single-cell displacement vectors,
// e.g. for test fixtures or map generators that need a valid TRANSLATE.
func UnitDirections() []Coord {
	out := make([]Coord, len(directions))
	copy(out, directions[:])
	return out
}

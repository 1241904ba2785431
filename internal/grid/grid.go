// Package grid describes the horizontal grid atmosphere models compute
// on and keeps the registry of named fields the host shares with them
// (at minimum "surface_altitude" and "latitude").
package grid

import (
	"fmt"

	"atmoforce/internal/field"
)

// Params sets up a uniform grid centred on the origin, spanning
// [-Lx, Lx] × [-Ly, Ly] with Mx × My cell centres.
type Params struct {
	Mx, My int
	Lx, Ly float64 // half-widths, m
}

// Grid is a uniform rectangular grid plus its shared-field registry.
type Grid struct {
	mx, my int
	x, y   []float64
	vars   *Vars
}

// New builds a grid from p.
func New(p Params) (*Grid, error) {
	if p.Mx < 1 || p.My < 1 {
		return nil, fmt.Errorf("grid: need at least one cell in each direction, got %dx%d", p.Mx, p.My)
	}
	if p.Lx < 0 || p.Ly < 0 {
		return nil, fmt.Errorf("grid: half-widths must be non-negative, got Lx=%g Ly=%g", p.Lx, p.Ly)
	}
	return &Grid{
		mx:   p.Mx,
		my:   p.My,
		x:    coords(p.Mx, p.Lx),
		y:    coords(p.My, p.Ly),
		vars: NewVars(),
	}, nil
}

// FromCoords builds a grid with explicit (strictly increasing) cell
// centre coordinates, as read from an input file.
func FromCoords(x, y []float64) (*Grid, error) {
	if len(x) < 1 || len(y) < 1 {
		return nil, fmt.Errorf("grid: empty coordinate arrays")
	}
	for _, c := range [][]float64{x, y} {
		for k := 1; k < len(c); k++ {
			if c[k] <= c[k-1] {
				return nil, fmt.Errorf("grid: coordinates must be strictly increasing")
			}
		}
	}
	return &Grid{
		mx:   len(x),
		my:   len(y),
		x:    append([]float64(nil), x...),
		y:    append([]float64(nil), y...),
		vars: NewVars(),
	}, nil
}

func coords(n int, half float64) []float64 {
	out := make([]float64, n)
	if n == 1 {
		return out
	}
	d := 2 * half / float64(n-1)
	for k := range out {
		out[k] = -half + float64(k)*d
	}
	return out
}

// Mx returns the number of cells along x.
func (g *Grid) Mx() int { return g.mx }

// My returns the number of cells along y.
func (g *Grid) My() int { return g.my }

// X returns the cell-centre x coordinates.
func (g *Grid) X() []float64 { return g.x }

// Y returns the cell-centre y coordinates.
func (g *Grid) Y() []float64 { return g.y }

// Variables returns the registry of shared fields.
func (g *Grid) Variables() *Vars { return g.vars }

// NewField allocates a zero field on this grid.
func (g *Grid) NewField(meta field.Metadata) *field.Field {
	return field.New(meta, g.mx, g.my)
}

// Points iterates over the owned cells in row-major order:
//
//	for p := g.Points(); p.Next(); {
//		i, j := p.I(), p.J()
//	}
func (g *Grid) Points() *Points {
	return &Points{mx: g.mx, my: g.my, i: -1}
}

// Points is a cell iterator.
type Points struct {
	mx, my int
	i, j   int
}

// Next advances to the next cell and reports whether one exists.
func (p *Points) Next() bool {
	p.i++
	if p.i >= p.mx {
		p.i = 0
		p.j++
	}
	return p.j < p.my
}

// I returns the current x index.
func (p *Points) I() int { return p.i }

// J returns the current y index.
func (p *Points) J() int { return p.j }

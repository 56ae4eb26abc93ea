// Package grid provides a fixed uniform 3D grid over a bounded region for
// broad-phase proximity queries. Cells have a fixed capacity and live in one
// flat array; no operation allocates after construction.
package grid

import (
	"math"

	"go.uber.org/zap"
)

const (
	// MaxCellCapacity bounds per-cell occupancy.
	MaxCellCapacity = 256
	// MaxCells bounds total cell count. Construction coarsens the cell size
	// until the requested bounds fit.
	MaxCells = 1 << 22
)

// Grid partitions an axis-aligned box into uniform cells addressed by 3D
// integer coordinates flattened to a linear index. An entity appears in at
// most one cell. Single-threaded; each instance belongs to one goroutine.
type Grid struct {
	log      *zap.Logger
	min      Vec3
	max      Vec3
	cellSize float32
	dimX     int32
	dimY     int32
	dimZ     int32
	cellCap  int32

	// entities[c*cellCap : c*cellCap+counts[c]] holds cell c's occupants.
	entities []int32
	counts   []uint16
	total    int
}

// New creates a grid covering [min, max] with the given cell edge length and
// per-cell capacity. Degenerate inputs are clamped: inverted bounds are
// swapped, non-positive cell sizes become 1, and the cell size is doubled
// until the cell count fits MaxCells.
func New(min, max Vec3, cellSize float32, cellCapacity int, log *zap.Logger) *Grid {
	if log == nil {
		log = zap.NewNop()
	}
	if min.X > max.X {
		min.X, max.X = max.X, min.X
	}
	if min.Y > max.Y {
		min.Y, max.Y = max.Y, min.Y
	}
	if min.Z > max.Z {
		min.Z, max.Z = max.Z, min.Z
	}
	if cellSize <= 0 {
		log.Warn("grid cell size clamped", zap.Float32("requested", cellSize), zap.Float32("used", 1))
		cellSize = 1
	}
	if cellCapacity < 1 {
		log.Warn("grid cell capacity clamped", zap.Int("requested", cellCapacity), zap.Int("used", 1))
		cellCapacity = 1
	}
	if cellCapacity > MaxCellCapacity {
		log.Warn("grid cell capacity clamped", zap.Int("requested", cellCapacity), zap.Int("used", MaxCellCapacity))
		cellCapacity = MaxCellCapacity
	}
	dimX, dimY, dimZ := dims(min, max, cellSize)
	for int64(dimX)*int64(dimY)*int64(dimZ) > MaxCells {
		cellSize *= 2
		dimX, dimY, dimZ = dims(min, max, cellSize)
		log.Warn("grid cell size coarsened to fit cell budget", zap.Float32("cell_size", cellSize))
	}
	cells := int(dimX) * int(dimY) * int(dimZ)
	return &Grid{
		log:      log,
		min:      min,
		max:      max,
		cellSize: cellSize,
		dimX:     dimX,
		dimY:     dimY,
		dimZ:     dimZ,
		cellCap:  int32(cellCapacity),
		entities: make([]int32, cells*cellCapacity),
		counts:   make([]uint16, cells),
	}
}

func dims(min, max Vec3, cellSize float32) (int32, int32, int32) {
	return dim(max.X-min.X, cellSize), dim(max.Y-min.Y, cellSize), dim(max.Z-min.Z, cellSize)
}

func dim(extent, cellSize float32) int32 {
	d := int32(math.Ceil(float64(extent / cellSize)))
	if d < 1 {
		d = 1
	}
	return d
}

// cellCoords converts a position to integer cell coordinates, ok false when
// the position lies outside the bounds.
func (g *Grid) cellCoords(p Vec3) (cx, cy, cz int32, ok bool) {
	cx = int32(math.Floor(float64((p.X - g.min.X) / g.cellSize)))
	cy = int32(math.Floor(float64((p.Y - g.min.Y) / g.cellSize)))
	cz = int32(math.Floor(float64((p.Z - g.min.Z) / g.cellSize)))
	if cx < 0 || cx >= g.dimX || cy < 0 || cy >= g.dimY || cz < 0 || cz >= g.dimZ {
		return 0, 0, 0, false
	}
	return cx, cy, cz, true
}

func (g *Grid) flatten(cx, cy, cz int32) int32 {
	return (cz*g.dimY+cy)*g.dimX + cx
}

// CellIndex returns the linear cell index for a position, -1 when outside
// the bounds.
func (g *Grid) CellIndex(p Vec3) int32 {
	cx, cy, cz, ok := g.cellCoords(p)
	if !ok {
		return -1
	}
	return g.flatten(cx, cy, cz)
}

// Insert appends an entity to the cell containing p. Returns false when p is
// outside the bounds or the cell is full; there is no spillover.
func (g *Grid) Insert(id int32, p Vec3) bool {
	ci := g.CellIndex(p)
	if ci < 0 {
		g.log.Warn("grid insert outside bounds", zap.Int32("id", id))
		return false
	}
	return g.insertCell(id, ci)
}

func (g *Grid) insertCell(id, ci int32) bool {
	n := int32(g.counts[ci])
	if n >= g.cellCap {
		g.log.Warn("grid cell full", zap.Int32("cell", ci), zap.Int32("capacity", g.cellCap))
		return false
	}
	g.entities[ci*g.cellCap+n] = id
	g.counts[ci]++
	g.total++
	return true
}

// RemoveFromCell swap-removes an entity from a known cell. O(cell occupancy).
func (g *Grid) RemoveFromCell(id, ci int32) bool {
	if ci < 0 || int(ci) >= len(g.counts) {
		g.log.Error("grid remove: cell index out of range", zap.Int32("cell", ci))
		return false
	}
	base := ci * g.cellCap
	n := int32(g.counts[ci])
	for i := int32(0); i < n; i++ {
		if g.entities[base+i] == id {
			g.counts[ci]--
			g.entities[base+i] = g.entities[base+n-1]
			g.total--
			return true
		}
	}
	return false
}

// Remove deletes an entity whose cell is unknown by scanning every occupied
// cell. O(total cells) worst case; callers that track positions should use
// RemoveFromCell.
func (g *Grid) Remove(id int32) bool {
	for ci := range g.counts {
		if g.counts[ci] != 0 && g.RemoveFromCell(id, int32(ci)) {
			return true
		}
	}
	return false
}

// Clear empties every cell without releasing storage.
func (g *Grid) Clear() {
	for i := range g.counts {
		g.counts[i] = 0
	}
	g.total = 0
}

// UpdatePosition moves an entity between cells, short-circuiting when both
// positions map to the same cell. Returns false when the new position falls
// outside the bounds or its cell is full; the entity is no longer tracked in
// that case.
func (g *Grid) UpdatePosition(id int32, oldPos, newPos Vec3) bool {
	oldCi := g.CellIndex(oldPos)
	newCi := g.CellIndex(newPos)
	if oldCi == newCi && oldCi >= 0 {
		return true
	}
	if oldCi >= 0 {
		g.RemoveFromCell(id, oldCi)
	}
	if newCi < 0 {
		return false
	}
	return g.insertCell(id, newCi)
}

// QueryRadius fills buf with every entity in cells overlapping the sphere,
// returning the count written. Broad phase only: callers do the exact
// distance test. Truncates silently when buf fills.
func (g *Grid) QueryRadius(center Vec3, radius float32, buf []int32) int {
	if radius < 0 {
		g.log.Error("grid query: negative radius", zap.Float32("radius", radius))
		return 0
	}
	r := Vec3{radius, radius, radius}
	return g.QueryBox(center.Sub(r), center.Add(r), buf)
}

// QueryBox fills buf with every entity in cells overlapping the axis-aligned
// box, returning the count written. Broad phase only.
func (g *Grid) QueryBox(bmin, bmax Vec3, buf []int32) int {
	loX, hiX := g.axisRange(bmin.X, bmax.X, g.min.X, g.dimX)
	loY, hiY := g.axisRange(bmin.Y, bmax.Y, g.min.Y, g.dimY)
	loZ, hiZ := g.axisRange(bmin.Z, bmax.Z, g.min.Z, g.dimZ)
	if loX > hiX || loY > hiY || loZ > hiZ {
		return 0
	}
	n := 0
	for cz := loZ; cz <= hiZ; cz++ {
		for cy := loY; cy <= hiY; cy++ {
			for cx := loX; cx <= hiX; cx++ {
				ci := g.flatten(cx, cy, cz)
				base := ci * g.cellCap
				cnt := int32(g.counts[ci])
				for i := int32(0); i < cnt; i++ {
					if n == len(buf) {
						return n
					}
					buf[n] = g.entities[base+i]
					n++
				}
			}
		}
	}
	return n
}

// axisRange clamps the cell span overlapping [lo, hi] on one axis; an empty
// result is signaled by lo > hi.
func (g *Grid) axisRange(lo, hi, origin float32, d int32) (int32, int32) {
	cLo := int32(math.Floor(float64((lo - origin) / g.cellSize)))
	cHi := int32(math.Floor(float64((hi - origin) / g.cellSize)))
	if cHi < 0 || cLo >= d {
		return 1, 0
	}
	if cLo < 0 {
		cLo = 0
	}
	if cHi >= d {
		cHi = d - 1
	}
	return cLo, cHi
}

// Count returns the total number of tracked entities across all cells.
func (g *Grid) Count() int {
	return g.total
}

// Cells returns the total cell count.
func (g *Grid) Cells() int {
	return len(g.counts)
}

// CellCount returns the occupancy of one cell, 0 for out-of-range indices.
func (g *Grid) CellCount(ci int32) int {
	if ci < 0 || int(ci) >= len(g.counts) {
		return 0
	}
	return int(g.counts[ci])
}

// CellEntities copies one cell's occupants into buf and returns the count
// written.
func (g *Grid) CellEntities(ci int32, buf []int32) int {
	if ci < 0 || int(ci) >= len(g.counts) {
		return 0
	}
	base := ci * g.cellCap
	return copy(buf, g.entities[base:base+int32(g.counts[ci])])
}

// Dims returns the cell counts along each axis.
func (g *Grid) Dims() (x, y, z int32) {
	return g.dimX, g.dimY, g.dimZ
}

// Bounds returns the world-space region the grid covers.
func (g *Grid) Bounds() (min, max Vec3) {
	return g.min, g.max
}

// CellSize returns the cell edge length, possibly coarsened at construction.
func (g *Grid) CellSize() float32 {
	return g.cellSize
}

// CellCapacity returns the fixed per-cell capacity.
func (g *Grid) CellCapacity() int {
	return int(g.cellCap)
}

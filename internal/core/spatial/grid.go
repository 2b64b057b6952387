package spatial

import (
	"fmt"
	"math"

	"github.com/l1jgo/simcore/internal/core/geom"
)

// Grid is a fixed-resolution spatial hash over a bounded rectangle of the
// ground plane. Clients are axis-aligned boxes; each is listed in every cell
// its box covers. Positions outside the bounds saturate to the border cells.
//
// Client records live in an arena addressed by stable int32 indices. A cell
// is a small slice of arena indices, and every client remembers its slot in
// each cell it occupies, so unlinking is an O(1) swap-remove per cell.
// Accessed only from the game loop goroutine; no locks.
type Grid struct {
	bounds Bounds
	cols   int
	rows   int

	cells [][]int32 // index = y*cols + x
	arena []*Client
	free  []int32

	queryIDs uint64
	stats    Stats
}

// Bounds is the world rectangle covered by the grid.
type Bounds struct {
	Min geom.Vec2
	Max geom.Vec2
}

// Stats counts grid mutations and queries since construction.
type Stats struct {
	Clients int
	Relinks int
	Queries int
}

// CellRange is an inclusive rectangle of cell coordinates.
type CellRange struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Intersects reports whether r and o share at least one cell.
func (r CellRange) Intersects(o CellRange) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX && r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

func (r CellRange) height() int { return r.MaxY - r.MinY + 1 }

// Client is one box registered in a Grid. Position and Extent may be changed
// by the owner; the grid picks the change up on the next UpdateClient.
type Client struct {
	Position geom.Vec2
	Extent   geom.Vec2
	Payload  any

	id      int32 // arena slot, -1 when not in a grid
	cells   CellRange
	slots   []int32 // slot inside each occupied cell, x-major in range order
	queryID uint64
}

// Cells returns the occupied cell range, or false if the client is not in a grid.
func (c *Client) Cells() (CellRange, bool) {
	if c.id < 0 {
		return CellRange{}, false
	}
	return c.cells, true
}

// Linked reports whether the client is currently stored in a grid.
func (c *Client) Linked() bool { return c.id >= 0 }

func (c *Client) slotOffset(x, y int) int {
	return (x-c.cells.MinX)*c.cells.height() + (y - c.cells.MinY)
}

// NewGrid creates an empty grid of cols x rows cells over bounds.
func NewGrid(bounds Bounds, cols, rows int) (*Grid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, cols, rows)
	}
	if !(bounds.Max.X > bounds.Min.X) || !(bounds.Max.Y > bounds.Min.Y) {
		return nil, fmt.Errorf("%w: min %s max %s", ErrInvalidBounds, bounds.Min, bounds.Max)
	}
	return &Grid{
		bounds: bounds,
		cols:   cols,
		rows:   rows,
		cells:  make([][]int32, cols*rows),
		arena:  make([]*Client, 0, 256),
		free:   make([]int32, 0, 64),
	}, nil
}

func (g *Grid) Bounds() Bounds         { return g.bounds }
func (g *Grid) Dimensions() (int, int) { return g.cols, g.rows }
func (g *Grid) Stats() Stats           { return g.stats }

// Len returns the number of clients currently stored.
func (g *Grid) Len() int { return g.stats.Clients }

// NewClient registers a box centred on position with the given extent.
func (g *Grid) NewClient(position, extent geom.Vec2) *Client {
	c := &Client{
		Position: position,
		Extent:   extent,
		id:       -1,
	}
	g.insert(c)
	return c
}

// UpdateClient re-buckets c after its Position or Extent changed. It does
// nothing when the covered cell range is unchanged. A removed client is
// inserted again.
func (g *Grid) UpdateClient(c *Client) {
	if c.id < 0 {
		g.insert(c)
		return
	}
	r := g.cellRange(c.Position, c.Extent)
	if r == c.cells {
		return
	}
	g.unlink(c)
	g.link(c, r)
	g.stats.Relinks++
}

// Remove takes c out of every cell it occupies. Removing twice is a no-op.
func (g *Grid) Remove(c *Client) {
	if c.id < 0 {
		return
	}
	g.unlink(c)
	g.arena[c.id] = nil
	g.free = append(g.free, c.id)
	c.id = -1
	c.cells = CellRange{}
	g.stats.Clients--
}

// FindNear returns every client whose cell range overlaps the cells covered
// by a box of extent centred on position. Each client appears once. The order
// follows the cell scan and must not be relied on.
func (g *Grid) FindNear(position, extent geom.Vec2) []*Client {
	r := g.cellRange(position, extent)
	g.queryIDs++
	g.stats.Queries++
	qid := g.queryIDs

	var result []*Client
	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			for _, id := range g.cells[y*g.cols+x] {
				c := g.arena[id]
				if c.queryID != qid {
					c.queryID = qid
					result = append(result, c)
				}
			}
		}
	}
	return result
}

func (g *Grid) insert(c *Client) {
	var id int32
	if n := len(g.free); n > 0 {
		id = g.free[n-1]
		g.free = g.free[:n-1]
		g.arena[id] = c
	} else {
		id = int32(len(g.arena))
		g.arena = append(g.arena, c)
	}
	c.id = id
	g.link(c, g.cellRange(c.Position, c.Extent))
	g.stats.Clients++
}

func (g *Grid) link(c *Client, r CellRange) {
	c.cells = r
	c.slots = c.slots[:0]
	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			idx := y*g.cols + x
			c.slots = append(c.slots, int32(len(g.cells[idx])))
			g.cells[idx] = append(g.cells[idx], c.id)
		}
	}
}

func (g *Grid) unlink(c *Client) {
	r := c.cells
	k := 0
	for x := r.MinX; x <= r.MaxX; x++ {
		for y := r.MinY; y <= r.MaxY; y++ {
			idx := y*g.cols + x
			list := g.cells[idx]
			slot := c.slots[k]
			last := int32(len(list) - 1)
			if slot != last {
				moved := g.arena[list[last]]
				list[slot] = moved.id
				moved.slots[moved.slotOffset(x, y)] = slot
			}
			g.cells[idx] = list[:last]
			k++
		}
	}
	c.slots = c.slots[:0]
}

// cellRange maps the box position ± extent/2 onto clamped cell coordinates.
func (g *Grid) cellRange(position, extent geom.Vec2) CellRange {
	half := geom.Vec2{X: math.Abs(extent.X) / 2, Y: math.Abs(extent.Y) / 2}
	lo := g.cellIndex(position.Sub(half))
	hi := g.cellIndex(position.Add(half))
	return CellRange{MinX: lo[0], MinY: lo[1], MaxX: hi[0], MaxY: hi[1]}
}

func (g *Grid) cellIndex(p geom.Vec2) [2]int {
	x := normalize(p.X, g.bounds.Min.X, g.bounds.Max.X)
	y := normalize(p.Y, g.bounds.Min.Y, g.bounds.Max.Y)
	return [2]int{
		int(math.Floor(x * float64(g.cols-1))),
		int(math.Floor(y * float64(g.rows-1))),
	}
}

func normalize(v, lo, hi float64) float64 {
	n := geom.Sat((v - lo) / (hi - lo))
	if math.IsNaN(n) {
		return 0
	}
	return n
}

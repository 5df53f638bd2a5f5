package game

// TapCounter counts raw taps for the tap-screen and chase-arrow games.
type TapCounter struct {
	taps int
}

func (c *TapCounter) Increment() { c.taps++ }

func (c *TapCounter) Count() int { return c.taps }

// BreakingGrid tracks per-cell damage for the breaking-image game. Each cell
// takes at most tapsPerSquare taps.
type BreakingGrid struct {
	tapsPerSquare int
	cells         []int
	total         int
}

const (
	DefaultGridRows = 4
	DefaultGridCols = 4
)

func NewBreakingGrid(rows, cols, tapsPerSquare int) *BreakingGrid {
	if rows <= 0 {
		rows = DefaultGridRows
	}
	if cols <= 0 {
		cols = DefaultGridCols
	}
	return &BreakingGrid{
		tapsPerSquare: tapsPerSquare,
		cells:         make([]int, rows*cols),
	}
}

// Tap records a tap on cell. Taps on unknown or fully destroyed cells are
// rejected.
func (g *BreakingGrid) Tap(cell int) bool {
	if cell < 0 || cell >= len(g.cells) {
		return false
	}
	if g.cells[cell] >= g.tapsPerSquare {
		return false
	}
	g.cells[cell]++
	g.total++
	return true
}

func (g *BreakingGrid) CellTaps(cell int) int {
	if cell < 0 || cell >= len(g.cells) {
		return 0
	}
	return g.cells[cell]
}

func (g *BreakingGrid) Cells() int { return len(g.cells) }

func (g *BreakingGrid) Count() int { return g.total }

// PercentDestroyed is the share of all possible taps already made, 0..100.
func (g *BreakingGrid) PercentDestroyed() float64 {
	capacity := g.tapsPerSquare * len(g.cells)
	if capacity == 0 {
		return 0
	}
	return float64(g.total) / float64(capacity) * 100
}

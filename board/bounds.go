package board

// Bounds is the inclusive bounding box of a room.
type Bounds struct {
	Top, Left, Bottom, Right int
}

func (b Bounds) Contains(p Point) bool {
	return b.Top <= p.Row && p.Row <= b.Bottom && b.Left <= p.Col && p.Col <= b.Right
}

func (b Bounds) Overlaps(o Bounds) bool {
	return b.Left <= o.Right && o.Left <= b.Right && b.Top <= o.Bottom && o.Top <= b.Bottom
}

// Center is the cell a piece is drawn on while it sits in the room.
func (b Bounds) Center() Point {
	return Point{Row: (b.Top + b.Bottom) / 2, Col: (b.Left + b.Right) / 2}
}

// parseLayout turns the layout string into a character grid and derives each
// room's bounding box from the cells carrying its key.
func parseLayout(src string) ([][]byte, map[RoomID]Bounds) {
	grid := make([][]byte, Rows)
	for r := range grid {
		grid[r] = make([]byte, Cols)
		for c := range grid[r] {
			grid[r][c] = cellEmpty
		}
	}

	bounds := make(map[RoomID]Bounds)
	row, col := 0, 0
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if ch == '\n' {
			row++
			col = 0
			continue
		}
		if row < Rows && col < Cols {
			grid[row][col] = ch
			if room, ok := roomKeys[ch]; ok {
				b, seen := bounds[room]
				if !seen {
					b = Bounds{Top: row, Left: col, Bottom: row, Right: col}
				}
				b.Top = min(b.Top, row)
				b.Left = min(b.Left, col)
				b.Bottom = max(b.Bottom, row)
				b.Right = max(b.Right, col)
				bounds[room] = b
			}
		}
		col++
	}

	for _, d := range doors {
		if inGrid(d.At) {
			grid[d.At.Row][d.At.Col] = cellDoor
		}
	}
	for _, p := range StartPositions {
		if inGrid(p) {
			grid[p.Row][p.Col] = cellStart
		}
	}
	return grid, bounds
}

func inGrid(p Point) bool {
	return p.Row >= 0 && p.Row < Rows && p.Col >= 0 && p.Col < Cols
}

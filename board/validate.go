package board

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

var orthogonal = [4]Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// validate checks the static topology. It runs once while the graph is
// built; a failure means the layout tables are inconsistent.
func validate(grid [][]byte, bounds map[RoomID]Bounds) error {
	var errs []error

	for _, room := range Rooms() {
		if _, ok := bounds[room]; !ok {
			errs = append(errs, fmt.Errorf("room %s has no cells in the layout", room))
		}
	}

	for _, d := range doors {
		b := bounds[d.Room]
		if !b.Contains(d.At) {
			errs = append(errs, fmt.Errorf("door (%d,%d) is not on the perimeter of %s", d.At.Row, d.At.Col, d.Room))
			continue
		}
		hasOutside := false
		for _, off := range orthogonal {
			nb := Point{d.At.Row + off.Row, d.At.Col + off.Col}
			if !inGrid(nb) || b.Contains(nb) {
				continue
			}
			switch grid[nb.Row][nb.Col] {
			case cellHallway, cellStart, cellDoor:
				hasOutside = true
			}
		}
		if !hasOutside {
			errs = append(errs, fmt.Errorf("door (%d,%d) of %s has no neighbour outside the room", d.At.Row, d.At.Col, d.Room))
		}
	}

	roomCells := mapset.New[Point]()
	for _, b := range bounds {
		for r := b.Top; r <= b.Bottom; r++ {
			for c := b.Left; c <= b.Right; c++ {
				roomCells.Put(Point{r, c})
			}
		}
	}
	for name, p := range StartPositions {
		if !inGrid(p) {
			errs = append(errs, fmt.Errorf("start for %s at (%d,%d) is off the board", name, p.Row, p.Col))
			continue
		}
		if roomCells.Has(p) {
			errs = append(errs, fmt.Errorf("start for %s at (%d,%d) is inside a room", name, p.Row, p.Col))
		}
	}

	rooms := Rooms()
	for i, a := range rooms {
		for _, b := range rooms[i+1:] {
			ba, okA := bounds[a]
			bb, okB := bounds[b]
			if okA && okB && ba.Overlaps(bb) {
				errs = append(errs, fmt.Errorf("rooms %s and %s overlap", a, b))
			}
		}
	}

	for _, p := range secretPassages {
		if p[0] == p[1] || p[0] == NoRoom || p[1] == NoRoom {
			errs = append(errs, fmt.Errorf("invalid secret passage %s <-> %s", p[0], p[1]))
		}
	}

	return errors.Join(errs...)
}

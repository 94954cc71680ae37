package board

import (
	"fmt"
	"slices"
	"strings"
)

// Render draws the board with the squares in reached labelled by their
// distance ('@' for distance 0, '*' beyond 9). Room nodes are listed below
// the grid.
func (g *Graph) Render(reached map[int]int) string {
	disp := make([][]byte, Rows)
	for r := range disp {
		disp[r] = append([]byte(nil), g.grid[r]...)
	}

	var rooms []string
	for id, d := range reached {
		sq := g.squares[id]
		if sq.Type == RoomSquare {
			rooms = append(rooms, fmt.Sprintf("%s (%d)", sq.Room, d))
			continue
		}
		switch {
		case d == 0:
			disp[sq.At.Row][sq.At.Col] = '@'
		case d <= 9:
			disp[sq.At.Row][sq.At.Col] = byte('0' + d)
		default:
			disp[sq.At.Row][sq.At.Col] = '*'
		}
	}

	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < Cols; c++ {
		sb.WriteByte(byte('0' + c%10))
	}
	sb.WriteByte('\n')
	for r, row := range disp {
		fmt.Fprintf(&sb, "%2d %s\n", r, row)
	}
	if len(rooms) > 0 {
		slices.Sort(rooms)
		sb.WriteString("rooms: " + strings.Join(rooms, ", ") + "\n")
	}
	return sb.String()
}

package board

import (
	"fmt"
)

// SquareType classifies graph nodes.
type SquareType int

const (
	Hallway SquareType = iota
	DoorSquare
	RoomSquare
	StartSquare
)

func (t SquareType) String() string {
	switch t {
	case Hallway:
		return "hallway"
	case DoorSquare:
		return "door"
	case RoomSquare:
		return "room"
	case StartSquare:
		return "start"
	}
	return "unknown"
}

// Location is the identity of a square: a room for room nodes, a grid
// coordinate for everything else. It is comparable and used as a map key.
type Location struct {
	Room RoomID
	At   Point
}

// Cell returns the location of a non-room square.
func Cell(row, col int) Location {
	return Location{At: Point{Row: row, Col: col}}
}

// InRoom returns the canonical location of a room.
func InRoom(r RoomID) Location {
	return Location{Room: r}
}

func (l Location) IsRoom() bool { return l.Room != NoRoom }

func (l Location) String() string {
	if l.IsRoom() {
		return l.Room.String()
	}
	return fmt.Sprintf("(%d,%d)", l.At.Row, l.At.Col)
}

// Square is a node in the board graph. Neighbours are indices into the
// owning Graph and must be treated as read-only.
type Square struct {
	ID        int
	Type      SquareType
	Room      RoomID
	At        Point
	Neighbors []int
}

func (s Square) Location() Location {
	if s.Type == RoomSquare {
		return InRoom(s.Room)
	}
	return Location{At: s.At}
}

// Graph is the navigable board. It is immutable after New returns and safe
// for concurrent readers.
type Graph struct {
	squares []Square
	index   map[Location]int
	rooms   map[RoomID]int
	bounds  map[RoomID]Bounds
	grid    [][]byte
}

// New parses the fixed layout, validates it and builds the graph.
func New() (*Graph, error) {
	grid, bounds := parseLayout(layout)
	if err := validate(grid, bounds); err != nil {
		return nil, fmt.Errorf("invalid board topology: %w", err)
	}

	g := &Graph{
		index:  make(map[Location]int),
		rooms:  make(map[RoomID]int),
		bounds: bounds,
		grid:   grid,
	}

	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			var t SquareType
			switch grid[r][c] {
			case cellHallway:
				t = Hallway
			case cellDoor:
				t = DoorSquare
			case cellStart:
				t = StartSquare
			default:
				continue
			}
			g.add(Square{Type: t, At: Point{r, c}})
		}
	}
	for _, room := range Rooms() {
		g.rooms[room] = g.add(Square{Type: RoomSquare, Room: room, At: bounds[room].Center()})
	}

	for id := range g.squares {
		sq := &g.squares[id]
		if sq.Type == RoomSquare {
			continue
		}
		for _, off := range orthogonal {
			if nb, ok := g.index[Cell(sq.At.Row+off.Row, sq.At.Col+off.Col)]; ok {
				sq.Neighbors = append(sq.Neighbors, nb)
			}
		}
	}

	for _, d := range doors {
		door, ok := g.index[Cell(d.At.Row, d.At.Col)]
		if !ok {
			return nil, fmt.Errorf("door (%d,%d) missing from graph", d.At.Row, d.At.Col)
		}
		g.link(door, g.rooms[d.Room])
	}
	for _, p := range secretPassages {
		g.link(g.rooms[p[0]], g.rooms[p[1]])
	}

	return g, nil
}

// MustNew is New for process start-up: a broken topology aborts.
func MustNew() *Graph {
	g, err := New()
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) add(sq Square) int {
	sq.ID = len(g.squares)
	g.squares = append(g.squares, sq)
	g.index[sq.Location()] = sq.ID
	return sq.ID
}

func (g *Graph) link(a, b int) {
	g.squares[a].Neighbors = append(g.squares[a].Neighbors, b)
	g.squares[b].Neighbors = append(g.squares[b].Neighbors, a)
}

// Len reports the number of squares.
func (g *Graph) Len() int { return len(g.squares) }

func (g *Graph) Square(id int) Square { return g.squares[id] }

func (g *Graph) Lookup(loc Location) (int, bool) {
	id, ok := g.index[loc]
	return id, ok
}

// At returns the non-room square at (row, col).
func (g *Graph) At(row, col int) (int, bool) {
	return g.Lookup(Cell(row, col))
}

// RoomNode returns the canonical node of a room.
func (g *Graph) RoomNode(r RoomID) int {
	return g.rooms[r]
}

func (g *Graph) Bounds(r RoomID) Bounds {
	return g.bounds[r]
}

func (g *Graph) RoomCenter(r RoomID) Point {
	return g.bounds[r].Center()
}

// RoomAt reports which room's bounding box contains p.
func (g *Graph) RoomAt(p Point) (RoomID, bool) {
	for _, r := range Rooms() {
		if g.bounds[r].Contains(p) {
			return r, true
		}
	}
	return NoRoom, false
}

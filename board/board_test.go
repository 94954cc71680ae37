package board

import (
	"strings"
	"testing"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := New()
	if err != nil {
		t.Fatalf("New should build the standard board, got: %v", err)
	}
	return g
}

func mustAt(t *testing.T, g *Graph, row, col int) int {
	t.Helper()
	id, ok := g.At(row, col)
	if !ok {
		t.Fatalf("Expected a square at (%d,%d)", row, col)
	}
	return id
}

func TestGraph_AllRoomsHaveCanonicalNodes(t *testing.T) {
	g := newTestGraph(t)
	for _, r := range Rooms() {
		sq := g.Square(g.RoomNode(r))
		if sq.Type != RoomSquare {
			t.Errorf("Expected %s node to be a room square, got %s", r, sq.Type)
		}
		if sq.Room != r {
			t.Errorf("Expected room node for %s, got %s", r, sq.Room)
		}
		id, ok := g.Lookup(InRoom(r))
		if !ok || id != g.RoomNode(r) {
			t.Errorf("Lookup(InRoom(%s)) should return the canonical node", r)
		}
	}
}

func TestGraph_StartSquares(t *testing.T) {
	g := newTestGraph(t)
	for name, p := range StartPositions {
		id := mustAt(t, g, p.Row, p.Col)
		if g.Square(id).Type != StartSquare {
			t.Errorf("Expected start square for %s, got %s", name, g.Square(id).Type)
		}
		if _, inRoom := g.RoomAt(p); inRoom {
			t.Errorf("Start for %s should not be inside a room", name)
		}
	}
}

func TestGraph_DoorsLinkToRoomsBothWays(t *testing.T) {
	g := newTestGraph(t)
	for _, d := range Doors() {
		door := mustAt(t, g, d.At.Row, d.At.Col)
		room := g.RoomNode(d.Room)
		if !contains(g.Square(door).Neighbors, room) {
			t.Errorf("Door (%d,%d) should link to %s", d.At.Row, d.At.Col, d.Room)
		}
		if !contains(g.Square(room).Neighbors, door) {
			t.Errorf("%s should link back to door (%d,%d)", d.Room, d.At.Row, d.At.Col)
		}
	}
}

func TestGraph_SecretPassages(t *testing.T) {
	g := newTestGraph(t)
	pairs := [][2]RoomID{{Study, Kitchen}, {Lounge, Conservatory}}
	for _, p := range pairs {
		a, b := g.RoomNode(p[0]), g.RoomNode(p[1])
		if !contains(g.Square(a).Neighbors, b) || !contains(g.Square(b).Neighbors, a) {
			t.Errorf("Expected a bidirectional passage between %s and %s", p[0], p[1])
		}
		if d := g.Distance(a, b); d != 1 {
			t.Errorf("Expected passage %s -> %s to cost 1, got %d", p[0], p[1], d)
		}
		if other, ok := SecretPassage(p[1]); !ok || other != p[0] {
			t.Errorf("SecretPassage(%s) should be %s", p[1], p[0])
		}
	}
	if _, ok := SecretPassage(Hall); ok {
		t.Error("Hall should have no secret passage")
	}
}

func TestReachability_ZeroStepsIsOnlyStart(t *testing.T) {
	g := newTestGraph(t)
	for id := 0; id < g.Len(); id++ {
		reached := g.Reachability(id, 0)
		if len(reached) != 1 || reached[id] != 0 {
			t.Fatalf("Expected {%d:0} from %s, got %v", id, g.Square(id).Location(), reached)
		}
	}
}

func TestReachability_IncludesStart(t *testing.T) {
	g := newTestGraph(t)
	p := StartPositions["Miss Scarlett"]
	start := mustAt(t, g, p.Row, p.Col)
	reached := g.Reachability(start, 6)
	if d, ok := reached[start]; !ok || d != 0 {
		t.Errorf("Expected start at distance 0, got %d (present=%v)", d, ok)
	}
	for id, d := range reached {
		if d > 6 {
			t.Errorf("Square %s at distance %d exceeds the roll", g.Square(id).Location(), d)
		}
	}
}

func TestReachability_FreePerimeterCrossing(t *testing.T) {
	g := newTestGraph(t)
	study := g.RoomNode(Study)
	door := mustAt(t, g, 3, 6)
	outside := mustAt(t, g, 4, 6)

	reached := g.Reachability(study, 1)
	if d, ok := reached[door]; !ok || d != 0 {
		t.Errorf("Expected the Study door at distance 0 from the Study, got %d (present=%v)", d, ok)
	}
	if d, ok := reached[outside]; !ok || d != 1 {
		t.Errorf("Expected the hallway outside the door at distance 1, got %d (present=%v)", d, ok)
	}

	reached = g.Reachability(outside, 1)
	if d, ok := reached[study]; !ok || d != 1 {
		t.Errorf("Expected to enter the Study in exactly 1 step, got %d (present=%v)", d, ok)
	}
}

func TestReachability_SecretPassageFromRoom(t *testing.T) {
	g := newTestGraph(t)
	reached := g.Reachability(g.RoomNode(Study), 1)
	if d, ok := reached[g.RoomNode(Kitchen)]; !ok || d != 1 {
		t.Errorf("Expected Kitchen at distance 1 via the passage, got %d (present=%v)", d, ok)
	}
}

func TestReachability_EnteredRoomIsTerminal(t *testing.T) {
	g := newTestGraph(t)
	below := mustAt(t, g, 7, 11)
	otherDoor := mustAt(t, g, 6, 12)
	westDoor := mustAt(t, g, 4, 9)

	reached := g.Reachability(below, 1)
	if d, ok := reached[g.RoomNode(Hall)]; !ok || d != 1 {
		t.Fatalf("Expected Hall at distance 1, got %d (present=%v)", d, ok)
	}
	if _, ok := reached[otherDoor]; ok {
		t.Error("Passing through the Hall to its other door should not be possible in 1 step")
	}

	reached = g.Reachability(below, 3)
	if _, ok := reached[westDoor]; ok {
		t.Error("The Hall's west door should not be reached through the room")
	}

	outside := mustAt(t, g, 4, 6)
	reached = g.Reachability(outside, 6)
	if _, ok := reached[g.RoomNode(Kitchen)]; ok {
		t.Error("The Study's passage should not be usable after entering the Study mid-move")
	}
}

func TestMoveTowards_ReachesRoom(t *testing.T) {
	g := newTestGraph(t)
	dest, reached := g.MoveTowards(g.RoomNode(Study), Kitchen, 1)
	if !reached || dest != g.RoomNode(Kitchen) {
		t.Errorf("Expected to reach the Kitchen through the passage, got %s (reached=%v)", g.Square(dest).Location(), reached)
	}

	door := mustAt(t, g, 17, 9)
	dest, reached = g.MoveTowards(door, Ballroom, 1)
	if !reached || dest != g.RoomNode(Ballroom) {
		t.Errorf("Expected to reach the Ballroom from its door, got %s (reached=%v)", g.Square(dest).Location(), reached)
	}
}

func TestMoveTowards_MovesCloser(t *testing.T) {
	g := newTestGraph(t)
	p := StartPositions["Miss Scarlett"]
	start := mustAt(t, g, p.Row, p.Col)
	study := g.RoomNode(Study)

	dest, reached := g.MoveTowards(start, Study, 2)
	if reached {
		t.Fatal("The Study should not be reachable from Miss Scarlett's start with a 2")
	}
	if dest == start {
		t.Fatal("Expected the piece to move")
	}
	if g.Distance(dest, study) >= g.Distance(start, study) {
		t.Errorf("Expected destination %s to be closer to the Study than the start", g.Square(dest).Location())
	}
	if d := g.Reachability(start, 2)[dest]; d > 2 {
		t.Errorf("Destination is %d steps away, more than the roll", d)
	}
}

func TestValidate_StandardLayout(t *testing.T) {
	grid, bounds := parseLayout(layout)
	if err := validate(grid, bounds); err != nil {
		t.Fatalf("Expected the standard layout to validate, got: %v", err)
	}
	if got := bounds[Study]; got != (Bounds{Top: 0, Left: 0, Bottom: 3, Right: 6}) {
		t.Errorf("Unexpected Study bounds %+v", got)
	}
	if got := bounds[Kitchen].Center(); got != (Point{20, 20}) {
		t.Errorf("Expected Kitchen centre (20,20), got %+v", got)
	}
}

func TestValidate_RejectsOverlap(t *testing.T) {
	grid, bounds := parseLayout(layout)
	bounds[Hall] = bounds[Study]
	err := validate(grid, bounds)
	if err == nil {
		t.Fatal("Expected overlapping rooms to fail validation")
	}
	if !strings.Contains(err.Error(), "overlap") {
		t.Errorf("Expected an overlap error, got: %v", err)
	}
}

func TestParseRoom(t *testing.T) {
	for _, r := range Rooms() {
		got, ok := ParseRoom(r.String())
		if !ok || got != r {
			t.Errorf("ParseRoom(%q) = %v, %v", r.String(), got, ok)
		}
	}
	if _, ok := ParseRoom("Attic"); ok {
		t.Error("ParseRoom should reject unknown rooms")
	}
}

func TestRender(t *testing.T) {
	g := newTestGraph(t)
	out := g.Render(g.Reachability(g.RoomNode(Study), 1))
	if !strings.Contains(out, "Kitchen (1)") {
		t.Errorf("Expected the Kitchen in the room list, got:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < Rows+1 {
		t.Fatalf("Expected at least %d lines, got %d", Rows+1, len(lines))
	}
	if !strings.Contains(lines[5], "1") {
		t.Errorf("Expected the square below the Study door to be marked 1, got %q", lines[5])
	}
}

func contains(ids []int, want int) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

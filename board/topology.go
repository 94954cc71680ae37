package board

// Rows and Cols give the size of the printed board.
const (
	Rows = 25
	Cols = 24
)

// RoomID identifies one of the nine rooms. The zero value is NoRoom.
type RoomID int

const (
	NoRoom RoomID = iota
	Study
	Hall
	Lounge
	Library
	BilliardRoom
	DiningRoom
	Conservatory
	Ballroom
	Kitchen
)

var roomNames = [...]string{
	NoRoom:       "",
	Study:        "Study",
	Hall:         "Hall",
	Lounge:       "Lounge",
	Library:      "Library",
	BilliardRoom: "Billiard Room",
	DiningRoom:   "Dining Room",
	Conservatory: "Conservatory",
	Ballroom:     "Ballroom",
	Kitchen:      "Kitchen",
}

func (r RoomID) String() string {
	if r < 0 || int(r) >= len(roomNames) {
		return "unknown"
	}
	return roomNames[r]
}

// Rooms lists every room in declaration order.
func Rooms() []RoomID {
	return []RoomID{Study, Hall, Lounge, Library, BilliardRoom, DiningRoom, Conservatory, Ballroom, Kitchen}
}

// ParseRoom maps a room card name to its RoomID.
func ParseRoom(name string) (RoomID, bool) {
	for _, r := range Rooms() {
		if roomNames[r] == name {
			return r, true
		}
	}
	return NoRoom, false
}

// Point is a grid coordinate.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// layout legend: '.' hallway, ' ' off-board, lowercase letters are room cells
// (see roomKeys). Doors and start squares are stamped on afterwards.
const layout = `ssssss .        . oooooo
sssssss..hhhhhh..ooooooo
sssssss..hhhhhh..ooooooo
sssssss..hhhhhh..ooooooo
 ........hhhhhh..ooooooo
.........hhhhhh..ooooooo
 lllll...hhhhhh........ 
lllllll.................
lllllll..     .........
lllllll..     ..nnnnnnnn
 lllll...     ..nnnnnnnn
 ........     ..nnnnnnnn
bbbbbb...     ..nnnnnnnn
bbbbbb...     ..nnnnnnnn
bbbbbb...     ..nnnnnnnn
bbbbbb.............nnnnn
bbbbbb.................
 .......aaaaaaaa........
........aaaaaaaa..kkkkk
 cccc...aaaaaaaa..kkkkkk
cccccc..aaaaaaaa..kkkkkk
cccccc..aaaaaaaa..kkkkkk
cccccc..aaaaaaaa..kkkkkk
cccccc ...aaaa... kkkkkk
         .    .         `

const (
	cellHallway = '.'
	cellDoor    = 'D'
	cellStart   = 'S'
	cellEmpty   = ' '
)

var roomKeys = map[byte]RoomID{
	's': Study,
	'h': Hall,
	'o': Lounge,
	'l': Library,
	'b': BilliardRoom,
	'n': DiningRoom,
	'c': Conservatory,
	'a': Ballroom,
	'k': Kitchen,
}

// Door is a perimeter cell of a room that opens onto the hallway.
type Door struct {
	At   Point
	Room RoomID
}

var doors = []Door{
	{Point{3, 6}, Study},
	{Point{6, 11}, Hall},
	{Point{6, 12}, Hall},
	{Point{4, 9}, Hall},
	{Point{5, 17}, Lounge},
	{Point{8, 6}, Library},
	{Point{10, 3}, Library},
	{Point{12, 1}, BilliardRoom},
	{Point{15, 5}, BilliardRoom},
	{Point{12, 16}, DiningRoom},
	{Point{9, 17}, DiningRoom},
	{Point{19, 4}, Conservatory},
	{Point{17, 9}, Ballroom},
	{Point{17, 14}, Ballroom},
	{Point{19, 8}, Ballroom},
	{Point{19, 15}, Ballroom},
	{Point{18, 19}, Kitchen},
}

// secretPassages are declared once per pair; edges are added both ways.
var secretPassages = [][2]RoomID{
	{Study, Kitchen},
	{Lounge, Conservatory},
}

// StartPositions maps each suspect to the square their piece starts on.
var StartPositions = map[string]Point{
	"Miss Scarlett":   {24, 9},
	"Colonel Mustard": {7, 23},
	"Mrs. White":      {24, 14},
	"Reverend Green":  {0, 16},
	"Mrs. Peacock":    {18, 0},
	"Professor Plum":  {5, 0},
}

// Doors returns a copy of the door table.
func Doors() []Door {
	out := make([]Door, len(doors))
	copy(out, doors)
	return out
}

// SecretPassage returns the room at the far end of r's passage, if any.
func SecretPassage(r RoomID) (RoomID, bool) {
	for _, p := range secretPassages {
		switch r {
		case p[0]:
			return p[1], true
		case p[1]:
			return p[0], true
		}
	}
	return NoRoom, false
}

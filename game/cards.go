package game

import "slices"

// Card sets in canonical order.
var (
	Suspects = []string{
		"Miss Scarlett",
		"Colonel Mustard",
		"Mrs. White",
		"Reverend Green",
		"Mrs. Peacock",
		"Professor Plum",
	}

	Weapons = []string{
		"Candlestick",
		"Knife",
		"Lead Pipe",
		"Revolver",
		"Rope",
		"Wrench",
	}

	Rooms = []string{
		"Kitchen",
		"Ballroom",
		"Conservatory",
		"Billiard Room",
		"Library",
		"Study",
		"Hall",
		"Lounge",
		"Dining Room",
	}
)

// MaxPlayers is one seat per suspect.
const MaxPlayers = 6

// AllCards returns the full 21-card deck.
func AllCards() []string {
	deck := make([]string, 0, len(Suspects)+len(Weapons)+len(Rooms))
	deck = append(deck, Suspects...)
	deck = append(deck, Weapons...)
	return append(deck, Rooms...)
}

func IsSuspect(card string) bool { return slices.Contains(Suspects, card) }
func IsWeapon(card string) bool  { return slices.Contains(Weapons, card) }
func IsRoom(card string) bool    { return slices.Contains(Rooms, card) }

func IsCard(card string) bool {
	return IsSuspect(card) || IsWeapon(card) || IsRoom(card)
}

// Solution is the hidden suspect, weapon and room.
type Solution struct {
	Suspect string `json:"suspect"`
	Weapon  string `json:"weapon"`
	Room    string `json:"room"`
}

// Matches is a literal three-way comparison; two out of three is a miss.
func (s Solution) Matches(suspect, weapon, room string) bool {
	return s.Suspect == suspect && s.Weapon == weapon && s.Room == room
}

func (s Solution) Contains(card string) bool {
	return card == s.Suspect || card == s.Weapon || card == s.Room
}

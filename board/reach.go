package board

import (
	"maps"
	"math"
	"slices"

	"github.com/zyedidia/generic/list"
)

type frontier struct {
	id   int
	dist int
}

// stepCost is 0 across a room's perimeter (door <-> room) and 1 everywhere
// else, including secret passages.
func (g *Graph) stepCost(from, to int) int {
	a, b := g.squares[from].Type, g.squares[to].Type
	if (a == RoomSquare && b == DoorSquare) || (a == DoorSquare && b == RoomSquare) {
		return 0
	}
	return 1
}

// search is a 0/1 breadth-first search. Zero-cost discoveries go to the
// front of the deque so squares settle in non-decreasing distance order.
// Room nodes other than the origin are terminal. A negative maxSteps means
// no cap.
func (g *Graph) search(start, maxSteps int) map[int]int {
	dist := map[int]int{start: 0}
	queue := list.New[frontier]()
	queue.PushBack(frontier{start, 0})

	for queue.Front != nil {
		node := queue.Front
		queue.Remove(node)
		cur := node.Value

		if cur.dist > dist[cur.id] {
			continue
		}
		if cur.id != start && g.squares[cur.id].Type == RoomSquare {
			continue
		}

		for _, nb := range g.squares[cur.id].Neighbors {
			nd := cur.dist + g.stepCost(cur.id, nb)
			if maxSteps >= 0 && nd > maxSteps {
				continue
			}
			if known, ok := dist[nb]; ok && known <= nd {
				continue
			}
			dist[nb] = nd
			if nd == cur.dist {
				queue.PushFront(frontier{nb, nd})
			} else {
				queue.PushBack(frontier{nb, nd})
			}
		}
	}
	return dist
}

// Reachability returns the minimum number of steps to every square that can
// be reached from start within maxSteps. Entering a room ends the move,
// unless the move starts in that room. A roll of zero goes nowhere, not even
// through a free door crossing.
func (g *Graph) Reachability(start, maxSteps int) map[int]int {
	if maxSteps <= 0 {
		return map[int]int{start: 0}
	}
	return g.search(start, maxSteps)
}

// MoveTowards moves a piece from start toward target with a roll of dice.
// If the room can be entered this turn it returns the room node and true.
// Otherwise it returns the reachable square closest to the room, or start
// itself when nothing reachable is closer.
func (g *Graph) MoveTowards(start int, target RoomID, dice int) (int, bool) {
	reached := g.Reachability(start, dice)
	goal := g.RoomNode(target)
	if _, ok := reached[goal]; ok {
		return goal, true
	}

	toGoal := g.search(goal, -1)

	best := start
	bestDist, ok := toGoal[start]
	if !ok {
		bestDist = math.MaxInt
	}
	for _, id := range slices.Sorted(maps.Keys(reached)) {
		if id == start {
			continue
		}
		d, ok := toGoal[id]
		if ok && d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, false
}

// Distance is the unbounded number of steps between two squares, or -1 if
// b cannot be reached from a.
func (g *Graph) Distance(a, b int) int {
	if d, ok := g.search(a, -1)[b]; ok {
		return d
	}
	return -1
}

// Package path computes tile paths over grid snapshots. FindPath is the
// synchronous core; Service adds the asynchronous request/completion
// contract used by agents.
package path

import (
	"container/heap"
	"math"

	"timberline/core/internal/grid"
)

type neighbor struct {
	dx       int
	dy       int
	cost     float64
	diagonal bool
}

var neighborOffsets = [...]neighbor{
	{dx: 0, dy: -1, cost: 1, diagonal: false},
	{dx: 1, dy: 0, cost: 1, diagonal: false},
	{dx: 0, dy: 1, cost: 1, diagonal: false},
	{dx: -1, dy: 0, cost: 1, diagonal: false},
	{dx: 1, dy: -1, cost: math.Sqrt2, diagonal: true},
	{dx: 1, dy: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dy: 1, cost: math.Sqrt2, diagonal: true},
	{dx: -1, dy: -1, cost: math.Sqrt2, diagonal: true},
}

// DefaultIterationBudget bounds node expansions for one calculation so a
// degenerate grid cannot stall a tick.
const DefaultIterationBudget = 8192

// canTraverseDiagonal rejects diagonal steps that would cut a blocked corner:
// both orthogonal neighbors of the move must be walkable.
func canTraverseDiagonal(snap *grid.Snapshot, from grid.Tile, delta neighbor) bool {
	if !delta.diagonal {
		return true
	}
	horiz := grid.Tile{X: from.X + delta.dx, Y: from.Y}
	vert := grid.Tile{X: from.X, Y: from.Y + delta.dy}
	return snap.Walkable(horiz) && snap.Walkable(vert)
}

func octileHeuristic(a, b grid.Tile) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

type node struct {
	tile   grid.Tile
	g      float64
	f      float64
	index  int
	parent *node
}

type nodeQueue []*node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool { return q[i].f < q[j].f }

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *nodeQueue) Push(x any) {
	n := len(*q)
	item := x.(*node)
	item.index = n
	*q = append(*q, item)
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// FindPath runs A* from start to goal on the snapshot. The returned path
// excludes the start tile and includes the goal. start==goal returns an
// empty, non-nil path. An unreachable goal returns (nil, false); callers
// treat that as "currently unreachable", not an error.
func FindPath(snap *grid.Snapshot, start, goal grid.Tile, budget int) ([]grid.Tile, bool) {
	if snap == nil {
		return nil, false
	}
	if !snap.Walkable(start) || !snap.Walkable(goal) {
		return nil, false
	}
	if start == goal {
		return []grid.Tile{}, true
	}
	if budget <= 0 {
		budget = DefaultIterationBudget
	}

	open := &nodeQueue{}
	heap.Init(open)
	heap.Push(open, &node{tile: start, g: 0, f: octileHeuristic(start, goal)})
	gScore := map[grid.Tile]float64{start: 0}
	closed := make(map[grid.Tile]struct{})

	expansions := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		if _, seen := closed[current.tile]; seen {
			continue
		}
		closed[current.tile] = struct{}{}
		if current.tile == goal {
			return reconstruct(current), true
		}
		expansions++
		if expansions > budget {
			return nil, false
		}

		for _, delta := range neighborOffsets {
			if !canTraverseDiagonal(snap, current.tile, delta) {
				continue
			}
			next := grid.Tile{X: current.tile.X + delta.dx, Y: current.tile.Y + delta.dy}
			if !snap.Walkable(next) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			tentative := current.g + delta.cost
			if prev, ok := gScore[next]; ok && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			heap.Push(open, &node{
				tile:   next,
				g:      tentative,
				f:      tentative + octileHeuristic(next, goal),
				parent: current,
			})
		}
	}
	return nil, false
}

// reconstruct walks parents back to the start and drops the start tile.
func reconstruct(end *node) []grid.Tile {
	if end == nil {
		return nil
	}
	tiles := make([]grid.Tile, 0)
	for n := end; n != nil; n = n.parent {
		tiles = append(tiles, n.tile)
	}
	for i := 0; i < len(tiles)/2; i++ {
		j := len(tiles) - 1 - i
		tiles[i], tiles[j] = tiles[j], tiles[i]
	}
	return tiles[1:]
}

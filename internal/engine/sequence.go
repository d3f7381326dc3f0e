package engine

import (
	"sort"
	"strings"
	"time"
)

// The four undirected line orientations: horizontal, vertical, and the two
// diagonals.
var orientations = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

func inBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// countsForTeam reports whether a cell contributes to a line for the team:
// the team's own chip, or a wild corner. Corners count for every team and
// never break a run.
func (g *GameState) countsForTeam(team, row, col int) bool {
	return IsCorner(row, col) || g.Chips[row][col] == team
}

// detectSequences finds every newly-completed line of the configured length
// through the just-filled cell, in scan order, deduplicated by cell set.
// Candidates that violate the overlap rule against the team's locked cells
// are dropped.
func detectSequences(g *GameState, team int, target Cell) []CompletedSequence {
	length := g.Config.SequenceLength
	now := time.Now()
	seen := make(map[string]bool)
	var found []CompletedSequence

	for _, dir := range orientations {
		// Walk backward up to length-1 steps to establish the anchor.
		anchor := target
		for step := 1; step < length; step++ {
			r := target.Row - dir[0]*step
			c := target.Col - dir[1]*step
			if !inBounds(r, c) || !g.countsForTeam(team, r, c) {
				break
			}
			anchor = Cell{Row: r, Col: c}
		}

		// Collect the maximal run forward from the anchor.
		var run []Cell
		r, c := anchor.Row, anchor.Col
		for inBounds(r, c) && g.countsForTeam(team, r, c) {
			run = append(run, Cell{Row: r, Col: c})
			r += dir[0]
			c += dir[1]
		}

		// Every contiguous window of exactly the sequence length that
		// includes the target cell is a candidate.
		for start := 0; start+length <= len(run); start++ {
			window := run[start : start+length]
			if !windowContains(window, target) {
				continue
			}
			if !g.acceptWindow(team, window) {
				continue
			}
			key := windowKey(window)
			if seen[key] {
				continue
			}
			seen[key] = true
			found = append(found, CompletedSequence{
				Team:        team,
				Cells:       append([]Cell(nil), window...),
				CompletedAt: now,
			})
		}
	}
	return found
}

// acceptWindow applies the inter-sequence rules: a window already fully
// covered by the team's locked cells is an existing sequence, and once a
// team has a completed sequence, a new one may share at most one non-corner
// cell with the locked set. Corners are exempt from the overlap count.
func (g *GameState) acceptWindow(team int, window []Cell) bool {
	locked := g.LockedCells[team]
	nonCorner := 0
	overlap := 0
	for _, cell := range window {
		if IsCorner(cell.Row, cell.Col) {
			continue
		}
		nonCorner++
		if locked[cell.Key()] {
			overlap++
		}
	}
	if nonCorner > 0 && overlap == nonCorner {
		return false
	}
	if g.SequencesCompleted[team] >= 1 && overlap > 1 {
		return false
	}
	return true
}

// commitSequence locks the sequence's non-corner cells for its team,
// increments the team's count, and records the completion for recap and
// for the stalemate tie-break.
func (g *GameState) commitSequence(seq CompletedSequence) {
	locked := g.LockedCells[seq.Team]
	for _, cell := range seq.Cells {
		if IsCorner(cell.Row, cell.Col) {
			continue
		}
		locked[cell.Key()] = true
	}
	g.SequencesCompleted[seq.Team]++
	g.SequenceTimes[seq.Team] = seq.CompletedAt
	g.CompletedSequences = append(g.CompletedSequences, seq)
}

func windowContains(window []Cell, target Cell) bool {
	for _, c := range window {
		if c == target {
			return true
		}
	}
	return false
}

// windowKey builds a canonical key for a cell set so that the same window
// reached from different scan starts deduplicates.
func windowKey(window []Cell) string {
	keys := make([]string, len(window))
	for i, c := range window {
		keys[i] = c.Key()
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

package engine

// checkStalemate determines, after a turn-ending draw, whether any team can
// ever complete another sequence. It returns nil while at least one team
// still has a completable line; otherwise it resolves the winner by highest
// count, then by earliest completion timestamp.
func checkStalemate(g *GameState) *StalemateResult {
	if g.Phase != PhasePlaying {
		return nil
	}
	for team := 0; team < g.Config.NumTeams; team++ {
		if g.SequencesCompleted[team] >= g.Config.SequencesToWin {
			continue
		}
		if teamCanStillScore(g, team) {
			return nil
		}
	}
	return resolveStalemate(g)
}

// teamCanStillScore exhaustively tests every line of the configured length,
// in every orientation, anchored at every cell. A line is completable only
// if no cell on it is held by an opponent: non-locked opponent chips are
// treated as unresolvable rather than removable-by-jack, which keeps the
// analysis decidable.
func teamCanStillScore(g *GameState, team int) bool {
	length := g.Config.SequenceLength
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			for _, dir := range orientations {
				if lineCompletable(g, team, r, c, dir, length) {
					return true
				}
			}
		}
	}
	return false
}

func lineCompletable(g *GameState, team, row, col int, dir [2]int, length int) bool {
	endRow := row + dir[0]*(length-1)
	endCol := col + dir[1]*(length-1)
	if !inBounds(endRow, endCol) {
		return false
	}

	locked := g.LockedCells[team]
	nonCorner := 0
	overlap := 0
	for i := 0; i < length; i++ {
		r := row + dir[0]*i
		c := col + dir[1]*i
		if IsCorner(r, c) {
			continue
		}
		occupant := g.Chips[r][c]
		if occupant != NoTeam && occupant != team {
			return false
		}
		nonCorner++
		if locked[Cell{Row: r, Col: c}.Key()] {
			overlap++
		}
	}

	// A window fully inside the team's locked cells is an already-counted
	// sequence, and completing next to locked cells is bound by the
	// overlap rule.
	if nonCorner > 0 && overlap == nonCorner {
		return false
	}
	if g.SequencesCompleted[team] >= 1 && overlap > 1 {
		return false
	}
	return true
}

// resolveStalemate picks the winner: highest sequence count, ties broken by
// whoever reached that count first. With no sequences anywhere, team 0
// wins by default.
func resolveStalemate(g *GameState) *StalemateResult {
	counts := make(map[int]int, g.Config.NumTeams)
	best := 0
	for team := 0; team < g.Config.NumTeams; team++ {
		counts[team] = g.SequencesCompleted[team]
		if counts[team] > best {
			best = counts[team]
		}
	}

	var tied []int
	for team := 0; team < g.Config.NumTeams; team++ {
		if counts[team] == best {
			tied = append(tied, team)
		}
	}

	res := &StalemateResult{IsStalemate: true, Counts: counts}
	if best == 0 || len(tied) == 1 {
		res.Reason = StalemateHighestCount
		res.Winner = tied[0]
		return res
	}

	winner := tied[0]
	for _, team := range tied[1:] {
		if g.SequenceTimes[team].Before(g.SequenceTimes[winner]) {
			winner = team
		}
	}
	res.Reason = StalemateFirstToReach
	res.Winner = winner
	return res
}

package engine

import (
	"fmt"
	"time"
)

// IsLegalMove is a pure predicate: it inspects but never mutates the state.
// The returned reason is empty iff the action is legal.
func IsLegalMove(g *GameState, playerID string, a Action) (bool, string) {
	if g.Phase != PhasePlaying {
		return false, "game is not in progress"
	}
	p := g.PlayerByID(playerID)
	if p == nil {
		return false, "player is not seated in this game"
	}
	if p.Seat != g.CurrentPlayerIndex {
		return false, "not your turn"
	}

	switch a.Type {
	case ActionDraw:
		if !g.PendingDraw {
			return false, "nothing to draw: play a card first"
		}
		return true, ""

	case ActionReplaceDead:
		if g.PendingDraw {
			return false, "draw a card to finish your turn first"
		}
		if g.DeadCardReplacedThisTurn {
			return false, "dead card already replaced this turn"
		}
		if !p.holdsCard(a.Card) {
			return false, fmt.Sprintf("card %s is not in your hand", a.Card)
		}
		if !g.IsDeadCard(a.Card) {
			return false, fmt.Sprintf("card %s is not dead", a.Card)
		}
		return true, ""

	case ActionPlayNormal, ActionPlayTwoEyed, ActionPlayOneEyed:
		if g.PendingDraw {
			return false, "draw a card to finish your turn first"
		}
		if !p.holdsCard(a.Card) {
			return false, fmt.Sprintf("card %s is not in your hand", a.Card)
		}
		if reason := matchesJackKind(a.Type, a.Card); reason != "" {
			return false, reason
		}
		target := Cell{Row: a.TargetRow, Col: a.TargetCol}
		for _, c := range legalTargets(g, p.Team, a.Card) {
			if c == target {
				return true, ""
			}
		}
		return false, fmt.Sprintf("cell %s is not a legal target for %s", target.Key(), a.Card)

	default:
		return false, fmt.Sprintf("unknown action type %q", a.Type)
	}
}

// matchesJackKind enforces that the action kind matches the card's jack
// classification. Empty return means the pairing is valid.
func matchesJackKind(actionType, card string) string {
	switch {
	case IsTwoEyedJack(card):
		if actionType != ActionPlayTwoEyed {
			return fmt.Sprintf("%s is a two-eyed jack and must be played as %s", card, ActionPlayTwoEyed)
		}
	case IsOneEyedJack(card):
		if actionType != ActionPlayOneEyed {
			return fmt.Sprintf("%s is a one-eyed jack and must be played as %s", card, ActionPlayOneEyed)
		}
	default:
		if actionType != ActionPlayNormal {
			return fmt.Sprintf("%s is not a jack and must be played as %s", card, ActionPlayNormal)
		}
	}
	return ""
}

// legalTargets computes the legal-target set for a card held by the given
// team.
func legalTargets(g *GameState, team int, card string) []Cell {
	var targets []Cell

	switch {
	case IsTwoEyedJack(card):
		// Every non-corner empty cell, except the cell a one-eyed jack
		// vacated this turn.
		for r := 0; r < BoardSize; r++ {
			for c := 0; c < BoardSize; c++ {
				if IsCorner(r, c) || g.Chips[r][c] != NoTeam {
					continue
				}
				if g.LastRemovedCell != nil && g.LastRemovedCell.Row == r && g.LastRemovedCell.Col == c {
					continue
				}
				targets = append(targets, Cell{Row: r, Col: c})
			}
		}

	case IsOneEyedJack(card):
		// Every cell occupied by another team that is not locked into a
		// completed sequence.
		for r := 0; r < BoardSize; r++ {
			for c := 0; c < BoardSize; c++ {
				occupant := g.Chips[r][c]
				if IsCorner(r, c) || occupant == NoTeam || occupant == team {
					continue
				}
				if g.isLocked(r, c) {
					continue
				}
				targets = append(targets, Cell{Row: r, Col: c})
			}
		}

	default:
		for _, pos := range cardPositions[card] {
			if g.Chips[pos.Row][pos.Col] != NoTeam {
				continue
			}
			if g.LastRemovedCell != nil && *g.LastRemovedCell == pos {
				continue
			}
			targets = append(targets, pos)
		}
	}

	return targets
}

// HasPlayableCards reports whether the player holds at least one card with
// a non-empty legal-target set. Dead cards do not count; they can only be
// exchanged through the replace-dead action.
func HasPlayableCards(g *GameState, playerID string) bool {
	p := g.PlayerByID(playerID)
	if p == nil {
		return false
	}
	for _, card := range p.Hand {
		if len(legalTargets(g, p.Team, card)) > 0 {
			return true
		}
	}
	return false
}

// ApplyMove validates the action and, if legal, applies it atomically.
// Illegal actions return a failed result and change nothing.
func ApplyMove(g *GameState, playerID string, a Action) MoveResult {
	if ok, reason := IsLegalMove(g, playerID, a); !ok {
		return MoveResult{Success: false, Error: reason, Action: a}
	}
	p := g.PlayerByID(playerID)

	var res MoveResult
	switch a.Type {
	case ActionDraw:
		res = g.applyDraw(p, a)
	case ActionReplaceDead:
		res = g.applyReplaceDead(p, a)
	case ActionPlayOneEyed:
		res = g.applyRemoveChip(p, a)
	default: // play-normal, play-two-eyed
		res = g.applyPlaceChip(p, a)
	}

	g.LastMove = &res
	return res
}

// HandleTurnTimeout forcibly ends the current turn with no action taken:
// flags are cleared and the turn advances, but no card is drawn and the
// deck is untouched. The room layer invokes this when the turn timer fires.
func HandleTurnTimeout(g *GameState) {
	if g.Phase != PhasePlaying {
		return
	}
	g.endTurn()
}

func (g *GameState) applyDraw(p *Player, a Action) MoveResult {
	if card, ok := g.drawFromDeck(); ok {
		p.Hand = append(p.Hand, card)
	}
	g.endTurn()

	res := MoveResult{Success: true, Action: a}
	if st := checkStalemate(g); st != nil {
		g.Phase = PhaseFinished
		g.Winner = &st.Winner
		res.GameOver = true
		res.WinningTeam = &st.Winner
		res.Stalemate = st
	}
	return res
}

func (g *GameState) applyReplaceDead(p *Player, a Action) MoveResult {
	p.removeCard(a.Card)
	p.Discards = append(p.Discards, a.Card)
	if card, ok := g.drawFromDeck(); ok {
		p.Hand = append(p.Hand, card)
	}
	g.DeadCardReplacedThisTurn = true
	return MoveResult{Success: true, Action: a}
}

func (g *GameState) applyRemoveChip(p *Player, a Action) MoveResult {
	p.removeCard(a.Card)
	p.Discards = append(p.Discards, a.Card)

	g.Chips[a.TargetRow][a.TargetCol] = NoTeam
	removed := Cell{Row: a.TargetRow, Col: a.TargetCol}
	g.LastRemovedCell = &removed
	g.PendingDraw = true

	return MoveResult{Success: true, Action: a}
}

func (g *GameState) applyPlaceChip(p *Player, a Action) MoveResult {
	p.removeCard(a.Card)
	p.Discards = append(p.Discards, a.Card)

	g.Chips[a.TargetRow][a.TargetCol] = p.Team
	res := MoveResult{Success: true, Action: a}

	found := detectSequences(g, p.Team, Cell{Row: a.TargetRow, Col: a.TargetCol})
	if len(found) > 0 {
		// Only the first accepted sequence in scan order is committed per
		// move, even when several complete simultaneously.
		seq := found[0]
		g.commitSequence(seq)
		res.NewSequences = []CompletedSequence{seq}

		if g.SequencesCompleted[p.Team] >= g.Config.SequencesToWin {
			g.Phase = PhaseFinished
			team := p.Team
			g.Winner = &team
			res.GameOver = true
			res.WinningTeam = &team
		}
	}

	g.PendingDraw = true
	return res
}

// endTurn resets the per-turn flags, advances the seat pointer, and stamps
// the new turn's start time.
func (g *GameState) endTurn() {
	g.PendingDraw = false
	g.DeadCardReplacedThisTurn = false
	g.LastRemovedCell = nil
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	g.TurnStartedAt = time.Now()
}

package engine

import (
	"testing"
	"time"
)

func TestPlaySetsPendingDrawAndBlocksFurtherActions(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]
	p0.Hand = []string{"2S", "3S"}

	pos := FindCardPositions("2S")[0]
	mustApply(t, g, p0.ID, Action{Type: ActionPlayNormal, Card: "2S", TargetRow: pos.Row, TargetCol: pos.Col})

	if !g.PendingDraw {
		t.Fatal("pendingDraw should be set after a play")
	}
	if g.Chips[pos.Row][pos.Col] != 0 {
		t.Fatalf("expected team 0 chip at %v", pos)
	}
	if p0.TopDiscard() != "2S" {
		t.Fatalf("expected 2S on top of discard, got %s", p0.TopDiscard())
	}

	next := FindCardPositions("3S")[0]
	mustReject(t, g, p0.ID, Action{Type: ActionPlayNormal, Card: "3S", TargetRow: next.Row, TargetCol: next.Col})
	mustReject(t, g, p0.ID, Action{Type: ActionReplaceDead, Card: "3S"})

	deckBefore := len(g.Deck)
	mustApply(t, g, p0.ID, Action{Type: ActionDraw})

	if g.CurrentPlayerIndex != 1 {
		t.Fatalf("turn should advance to seat 1, got %d", g.CurrentPlayerIndex)
	}
	if g.PendingDraw || g.DeadCardReplacedThisTurn || g.LastRemovedCell != nil {
		t.Fatal("turn flags should reset when the turn ends")
	}
	if len(p0.Hand) != 2 {
		t.Fatalf("expected hand of 2 after drawing, got %d", len(p0.Hand))
	}
	if len(g.Deck) != deckBefore-1 {
		t.Fatalf("deck should shrink by one, %d -> %d", deckBefore, len(g.Deck))
	}
}

func TestDrawRejectedBeforeAnyPlay(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	mustReject(t, g, g.Players[0].ID, Action{Type: ActionDraw})
}

func TestOutOfTurnRejected(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p1 := g.Players[1]
	p1.Hand = []string{"2S"}
	pos := FindCardPositions("2S")[0]

	res := mustReject(t, g, p1.ID, Action{Type: ActionPlayNormal, Card: "2S", TargetRow: pos.Row, TargetCol: pos.Col})
	if res.Error != "not your turn" {
		t.Fatalf("unexpected rejection reason: %s", res.Error)
	}
}

func TestJackKindMustMatchAction(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]
	p0.Hand = []string{"JD", "JS", "2S"}

	mustReject(t, g, p0.ID, Action{Type: ActionPlayNormal, Card: "JD", TargetRow: 4, TargetCol: 4})
	mustReject(t, g, p0.ID, Action{Type: ActionPlayOneEyed, Card: "JD", TargetRow: 4, TargetCol: 4})
	mustReject(t, g, p0.ID, Action{Type: ActionPlayTwoEyed, Card: "2S", TargetRow: 4, TargetCol: 4})
	mustReject(t, g, p0.ID, Action{Type: ActionPlayTwoEyed, Card: "JS", TargetRow: 4, TargetCol: 4})

	mustApply(t, g, p0.ID, Action{Type: ActionPlayTwoEyed, Card: "JD", TargetRow: 4, TargetCol: 4})
	if g.Chips[4][4] != 0 {
		t.Fatal("two-eyed jack should place a chip on any empty non-corner cell")
	}
}

func TestTwoEyedJackCannotTargetCornerOrOccupied(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]
	p0.Hand = []string{"JD"}
	g.Chips[3][3] = 1

	mustReject(t, g, p0.ID, Action{Type: ActionPlayTwoEyed, Card: "JD", TargetRow: 0, TargetCol: 0})
	mustReject(t, g, p0.ID, Action{Type: ActionPlayTwoEyed, Card: "JD", TargetRow: 3, TargetCol: 3})
}

func TestOneEyedJackTargets(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]
	p0.Hand = []string{"JS", "JH"}

	g.Chips[2][2] = 1                   // opponent, removable
	g.Chips[4][4] = 0                   // own chip
	g.Chips[5][5] = 1                   // opponent, locked below
	g.LockedCells[1]["5,5"] = true

	mustReject(t, g, p0.ID, Action{Type: ActionPlayOneEyed, Card: "JS", TargetRow: 3, TargetCol: 3}) // empty
	mustReject(t, g, p0.ID, Action{Type: ActionPlayOneEyed, Card: "JS", TargetRow: 0, TargetCol: 9}) // corner
	mustReject(t, g, p0.ID, Action{Type: ActionPlayOneEyed, Card: "JS", TargetRow: 4, TargetCol: 4}) // own team
	mustReject(t, g, p0.ID, Action{Type: ActionPlayOneEyed, Card: "JS", TargetRow: 5, TargetCol: 5}) // locked

	mustApply(t, g, p0.ID, Action{Type: ActionPlayOneEyed, Card: "JS", TargetRow: 2, TargetCol: 2})
	if g.Chips[2][2] != NoTeam {
		t.Fatal("one-eyed jack should clear the target cell")
	}
	if g.LastRemovedCell == nil || *g.LastRemovedCell != (Cell{Row: 2, Col: 2}) {
		t.Fatalf("lastRemovedCell should record the vacated cell, got %v", g.LastRemovedCell)
	}
	if !g.PendingDraw {
		t.Fatal("pendingDraw should be set after a removal")
	}
}

func TestLastRemovedCellBlocksImmediateReplacement(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]
	pos := FindCardPositions("2S")[0]
	p0.Hand = []string{"2S", "JD"}
	g.LastRemovedCell = &Cell{Row: pos.Row, Col: pos.Col}

	mustReject(t, g, p0.ID, Action{Type: ActionPlayNormal, Card: "2S", TargetRow: pos.Row, TargetCol: pos.Col})
	mustReject(t, g, p0.ID, Action{Type: ActionPlayTwoEyed, Card: "JD", TargetRow: pos.Row, TargetCol: pos.Col})

	// The other printed position stays legal.
	other := FindCardPositions("2S")[1]
	mustApply(t, g, p0.ID, Action{Type: ActionPlayNormal, Card: "2S", TargetRow: other.Row, TargetCol: other.Col})
}

func TestReplaceDeadCard(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]
	p0.Hand = []string{"2S", "3S"}

	for _, pos := range FindCardPositions("2S") {
		g.Chips[pos.Row][pos.Col] = 1
	}
	for _, pos := range FindCardPositions("3S") {
		g.Chips[pos.Row][pos.Col] = 1
	}

	mustApply(t, g, p0.ID, Action{Type: ActionReplaceDead, Card: "2S"})
	if !g.DeadCardReplacedThisTurn {
		t.Fatal("deadCardReplacedThisTurn should be set")
	}
	if len(p0.Hand) != 2 {
		t.Fatalf("replacement should keep hand size at 2, got %d", len(p0.Hand))
	}
	if p0.TopDiscard() != "2S" {
		t.Fatalf("dead card should be discarded, top is %s", p0.TopDiscard())
	}
	if g.CurrentPlayerIndex != 0 {
		t.Fatal("replacing a dead card must not end the turn")
	}

	// Once per turn.
	mustReject(t, g, p0.ID, Action{Type: ActionReplaceDead, Card: "3S"})
}

func TestReplaceRejectedWhenCardAlive(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]
	p0.Hand = []string{"2S"}
	mustReject(t, g, p0.ID, Action{Type: ActionReplaceDead, Card: "2S"})
}

func TestTimeoutAdvancesTurnWithoutDrawing(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]
	p0.Hand = []string{"2S"}
	g.PendingDraw = true
	g.LastRemovedCell = &Cell{Row: 2, Col: 2}
	deckBefore := len(g.Deck)

	HandleTurnTimeout(g)

	if g.CurrentPlayerIndex != 1 {
		t.Fatalf("timeout should advance the turn by one, got seat %d", g.CurrentPlayerIndex)
	}
	if len(g.Deck) != deckBefore {
		t.Fatal("timeout must not touch the deck")
	}
	if len(p0.Hand) != 1 {
		t.Fatal("timeout must not draw a card into the hand")
	}
	if g.PendingDraw || g.LastRemovedCell != nil {
		t.Fatal("timeout should clear the turn flags")
	}
}

func TestTimeoutIgnoredAfterGameEnd(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	g.Phase = PhaseFinished
	HandleTurnTimeout(g)
	if g.CurrentPlayerIndex != 0 {
		t.Fatal("timeout must be a no-op once the game is finished")
	}
}

func TestReachingThresholdEndsGameImmediately(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]
	g.SequencesCompleted[0] = 1
	g.SequenceTimes[0] = time.Now()

	// Four chips in row 5, the printed card at (5,5) completes the line.
	for col := 1; col <= 4; col++ {
		g.Chips[5][col] = 0
	}
	card := BoardCardAt(5, 5)
	p0.Hand = []string{card}

	res := mustApply(t, g, p0.ID, Action{Type: ActionPlayNormal, Card: card, TargetRow: 5, TargetCol: 5})
	if !res.GameOver {
		t.Fatal("second sequence should end the game")
	}
	if res.WinningTeam == nil || *res.WinningTeam != 0 {
		t.Fatalf("team 0 should win, got %v", res.WinningTeam)
	}
	if res.Stalemate != nil {
		t.Fatal("a normal win must bypass stalemate evaluation")
	}
	if g.Phase != PhaseFinished {
		t.Fatalf("expected finished phase, got %s", g.Phase)
	}
	if g.SequencesCompleted[0] != 2 {
		t.Fatalf("expected 2 completed sequences, got %d", g.SequencesCompleted[0])
	}
}

func TestHasPlayableCards(t *testing.T) {
	g := newBareGame(t, 2, 2, 5)
	p0 := g.Players[0]

	// A dead card alone is not playable.
	p0.Hand = []string{"2S"}
	for _, pos := range FindCardPositions("2S") {
		g.Chips[pos.Row][pos.Col] = 1
	}
	if HasPlayableCards(g, p0.ID) {
		t.Fatal("a hand holding only a dead card has no playable cards")
	}

	// A one-eyed jack with nothing to remove is also not playable; clear the
	// opponent chips so only the jack rule applies.
	for _, pos := range FindCardPositions("2S") {
		g.Chips[pos.Row][pos.Col] = NoTeam
	}
	p0.Hand = []string{"JS"}
	if HasPlayableCards(g, p0.ID) {
		t.Fatal("a one-eyed jack with no removable chips is not playable")
	}

	g.Chips[3][3] = 1
	if !HasPlayableCards(g, p0.ID) {
		t.Fatal("a one-eyed jack with an opponent chip on the board is playable")
	}

	p0.Hand = []string{"JD"}
	if !HasPlayableCards(g, p0.ID) {
		t.Fatal("a two-eyed jack is playable while any empty cell remains")
	}
}

package room

import (
	"testing"
	"time"

	"sequence-service/internal/engine"
	appErr "sequence-service/pkg/errors"
)

func newTestRuntime(t *testing.T, turnLimit time.Duration, onFinish finishFunc) (*Runtime, []*engine.Player) {
	t.Helper()

	cfg := engine.GameConfig{
		NumPlayers:     2,
		NumTeams:       2,
		TeamColors:     []string{"blue", "green"},
		SequencesToWin: 2,
		SequenceLength: 5,
	}
	rt := newRuntime("TEST01", cfg, turnLimit, onFinish)

	var players []*engine.Player
	for _, name := range []string{"alice", "bob"} {
		p, err := rt.AddPlayer(name)
		if err != nil {
			t.Fatalf("AddPlayer(%s): %v", name, err)
		}
		players = append(players, p)
	}
	return rt, players
}

func startGame(t *testing.T, rt *Runtime, hostID string) {
	t.Helper()
	if err := rt.HandleAction(hostID, "start", nil); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestStartRequiresHostAndFullRoster(t *testing.T) {
	cfg := engine.GameConfig{
		NumPlayers:     2,
		NumTeams:       2,
		TeamColors:     []string{"blue", "green"},
		SequencesToWin: 2,
		SequenceLength: 5,
	}
	rt := newRuntime("TEST02", cfg, 0, nil)

	host, err := rt.AddPlayer("alice")
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := rt.HandleAction(host.ID, "start", nil); err == nil {
		t.Fatal("expected start to fail with one seat filled")
	}

	guest, err := rt.AddPlayer("bob")
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := rt.HandleAction(guest.ID, "start", nil); err != appErr.ErrNotHost {
		t.Fatalf("expected ErrNotHost for non-host start, got %v", err)
	}

	startGame(t, rt, host.ID)
	if err := rt.HandleAction(host.ID, "start", nil); err != appErr.ErrRoomInProgress {
		t.Fatalf("expected ErrRoomInProgress on double start, got %v", err)
	}
}

func TestAddPlayerRejectsFullOrRunningRoom(t *testing.T) {
	rt, players := newTestRuntime(t, 0, nil)

	if _, err := rt.AddPlayer("carol"); err != appErr.ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}

	startGame(t, rt, players[0].ID)
	// Even after a hypothetical seat frees up, a running game admits nobody.
	if _, err := rt.AddPlayer("carol"); err != appErr.ErrRoomInProgress {
		t.Fatalf("expected ErrRoomInProgress, got %v", err)
	}
}

func TestLobbyLeaveAndKick(t *testing.T) {
	rt, players := newTestRuntime(t, 0, nil)
	host, guest := players[0], players[1]

	if err := rt.HandleAction(guest.ID, "kick", []byte(`{"playerId":"`+host.ID+`"}`)); err != appErr.ErrNotHost {
		t.Fatalf("expected ErrNotHost for guest kick, got %v", err)
	}

	if err := rt.HandleAction(host.ID, "kick", []byte(`{"playerId":"`+guest.ID+`"}`)); err != nil {
		t.Fatalf("kick: %v", err)
	}
	view := rt.Snapshot("")
	if len(view.Players) != 1 {
		t.Fatalf("expected 1 player after kick, got %d", len(view.Players))
	}

	// Host leaving promotes the next seat.
	rejoined, err := rt.AddPlayer("bob")
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := rt.RemovePlayer(host.ID); err != nil {
		t.Fatalf("RemovePlayer: %v", err)
	}
	view = rt.Snapshot("")
	if len(view.Players) != 1 || view.Players[0].ID != rejoined.ID {
		t.Fatalf("unexpected roster after host left: %+v", view.Players)
	}
	if !view.Players[0].IsHost {
		t.Fatal("remaining player was not promoted to host")
	}
	if view.Players[0].Seat != 0 {
		t.Fatalf("seat not resequenced, got %d", view.Players[0].Seat)
	}
}

func TestSeatsAreFixedOnceStarted(t *testing.T) {
	rt, players := newTestRuntime(t, 0, nil)
	startGame(t, rt, players[0].ID)

	if err := rt.RemovePlayer(players[1].ID); err != appErr.ErrRoomInProgress {
		t.Fatalf("expected ErrRoomInProgress, got %v", err)
	}
	if err := rt.HandleAction(players[0].ID, "kick", []byte(`{"playerId":"`+players[1].ID+`"}`)); err != appErr.ErrRoomInProgress {
		t.Fatalf("expected ErrRoomInProgress for mid-game kick, got %v", err)
	}
}

func TestSubscribeDeliversLobbyState(t *testing.T) {
	rt, players := newTestRuntime(t, 0, nil)

	ch := rt.Subscribe(players[0].ID)
	defer rt.Unsubscribe(players[0].ID)

	select {
	case msg := <-ch:
		if msg.Type != "state" {
			t.Fatalf("expected state message, got %q", msg.Type)
		}
		view, ok := msg.Data.(RoomView)
		if !ok {
			t.Fatalf("unexpected payload type %T", msg.Data)
		}
		if view.Phase != RoomLobby {
			t.Fatalf("expected lobby phase, got %q", view.Phase)
		}
		if len(view.Players) != 2 {
			t.Fatalf("expected 2 players in view, got %d", len(view.Players))
		}
		if len(view.MyHand) != 0 {
			t.Fatalf("no cards should be dealt in the lobby, got %v", view.MyHand)
		}
	case <-time.After(time.Second):
		t.Fatal("no state message after subscribe")
	}
}

func TestViewRedactsOtherHands(t *testing.T) {
	rt, players := newTestRuntime(t, 0, nil)
	startGame(t, rt, players[0].ID)

	rt.mu.Lock()
	view := rt.exportStateLocked(players[0].ID)
	rt.mu.Unlock()

	if len(view.MyHand) != 7 {
		t.Fatalf("expected own hand of 7, got %d", len(view.MyHand))
	}
	for _, pv := range view.Players {
		if pv.HandCount != 7 {
			t.Fatalf("player %s hand count = %d, want 7", pv.Name, pv.HandCount)
		}
	}
	if view.DeckCount != 104-2*7 {
		t.Fatalf("deck count = %d, want %d", view.DeckCount, 104-2*7)
	}
	if view.CurrentPlayerID == "" {
		t.Fatal("current player missing from view")
	}
}

// A turn timer that expires with no action taken must advance the turn by
// exactly one seat while leaving the deck and every hand untouched.
func TestTurnTimeoutAdvancesTurnWithoutDraw(t *testing.T) {
	rt, players := newTestRuntime(t, 100*time.Millisecond, nil)
	startGame(t, rt, players[0].ID)

	rt.mu.Lock()
	startIdx := rt.state.CurrentPlayerIndex
	deckBefore := len(rt.state.Deck)
	handsBefore := make(map[string]int)
	for _, p := range rt.state.Players {
		handsBefore[p.ID] = len(p.Hand)
	}
	rt.mu.Unlock()

	time.Sleep(150 * time.Millisecond)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if got, want := rt.state.CurrentPlayerIndex, (startIdx+1)%2; got != want {
		t.Fatalf("current player index = %d, want %d", got, want)
	}
	if len(rt.state.Deck) != deckBefore {
		t.Fatalf("deck changed on timeout: %d -> %d", deckBefore, len(rt.state.Deck))
	}
	for _, p := range rt.state.Players {
		if len(p.Hand) != handsBefore[p.ID] {
			t.Fatalf("hand of %s changed on timeout: %d -> %d", p.Name, handsBefore[p.ID], len(p.Hand))
		}
	}
	if rt.state.PendingDraw {
		t.Fatal("timeout must not leave a pending draw")
	}
	if rt.timer == nil {
		t.Fatal("timer was not rescheduled for the next player")
	}
}

func TestMoveAfterTimeoutIsRejected(t *testing.T) {
	rt, players := newTestRuntime(t, 100*time.Millisecond, nil)
	startGame(t, rt, players[0].ID)

	rt.mu.Lock()
	first := rt.state.CurrentPlayer()
	rt.mu.Unlock()

	ch := rt.Subscribe(first.ID)
	defer rt.Unsubscribe(first.ID)

	time.Sleep(150 * time.Millisecond)

	if err := rt.HandleAction(first.ID, engine.ActionDraw, nil); err != nil {
		t.Fatalf("HandleAction: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case msg := <-ch:
			if msg.Type != "move_result" {
				continue
			}
			res, ok := msg.Data.(engine.MoveResult)
			if !ok {
				t.Fatalf("unexpected payload type %T", msg.Data)
			}
			if res.Success {
				t.Fatal("late move should have been rejected")
			}
			if res.Error != "not your turn" {
				t.Fatalf("rejection reason = %q, want %q", res.Error, "not your turn")
			}
			return
		case <-deadline:
			t.Fatal("no move_result received")
		}
	}
}

func TestWinningMoveInvokesFinishCallback(t *testing.T) {
	done := make(chan string, 1)
	rt, players := newTestRuntime(t, 0, func(_ *Runtime, reason string, _ *engine.StalemateResult) {
		done <- reason
	})
	startGame(t, rt, players[0].ID)

	// Hand-craft a one-sequence-from-victory position for the player to
	// move: four chips on row 4 and a two-eyed jack in hand.
	rt.mu.Lock()
	g := rt.state
	mover := g.CurrentPlayer()
	for col := 1; col <= 4; col++ {
		g.Chips[4][col] = mover.Team
	}
	g.SequencesCompleted[mover.Team] = 1
	g.SequenceTimes[mover.Team] = time.Now().Add(-time.Minute)
	mover.Hand = append(mover.Hand, "JD")
	rt.mu.Unlock()

	payload := []byte(`{"card":"JD","targetRow":4,"targetCol":5}`)
	if err := rt.HandleAction(mover.ID, engine.ActionPlayTwoEyed, payload); err != nil {
		t.Fatalf("HandleAction: %v", err)
	}

	select {
	case reason := <-done:
		if reason != "win" {
			t.Fatalf("finish reason = %q, want %q", reason, "win")
		}
	case <-time.After(time.Second):
		t.Fatal("finish callback never fired")
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.state.Phase != engine.PhaseFinished {
		t.Fatalf("phase = %q, want %q", rt.state.Phase, engine.PhaseFinished)
	}
	if rt.state.Winner == nil || *rt.state.Winner != mover.Team {
		t.Fatalf("winner = %v, want team %d", rt.state.Winner, mover.Team)
	}
	if rt.timer != nil {
		t.Fatal("timer still armed after game end")
	}
}

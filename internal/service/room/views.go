package room

import (
	"time"

	"sequence-service/internal/engine"
)

// PlayerView is the public slice of a seat: hand contents stay private,
// only the count and the top discard are visible to the table.
type PlayerView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Seat       int    `json:"seat"`
	Team       int    `json:"team"`
	Color      string `json:"color"`
	Connected  bool   `json:"connected"`
	IsHost     bool   `json:"isHost"`
	HandCount  int    `json:"handCount"`
	TopDiscard string `json:"topDiscard,omitempty"`
}

// RoomView is what one subscriber sees. MyHand is filled in only for the
// recipient; everything else is identical across subscribers.
type RoomView struct {
	RoomCode        string             `json:"roomCode"`
	Phase           RoomPhase          `json:"phase"`
	Players         []PlayerView       `json:"players"`
	CurrentPlayerID string             `json:"currentPlayerId,omitempty"`
	Chips           [][]int            `json:"chips,omitempty"`
	LockedCells     map[int][]string   `json:"lockedCells,omitempty"`
	Sequences       map[int]int        `json:"sequences,omitempty"`
	SequencesToWin  int                `json:"sequencesToWin"`
	SequenceLength  int                `json:"sequenceLength"`
	DeckCount       int                `json:"deckCount"`
	PendingDraw     bool               `json:"pendingDraw"`
	MyHand          []string           `json:"myHand,omitempty"`
	Countdown       int                `json:"countdown"`
	Winner          *int               `json:"winner,omitempty"`
	LastMove        *engine.MoveResult `json:"lastMove,omitempty"`
}

func (rt *Runtime) exportStateLocked(forPlayerID string) RoomView {
	view := RoomView{
		RoomCode:       rt.code,
		Phase:          RoomLobby,
		SequencesToWin: rt.cfg.SequencesToWin,
		SequenceLength: rt.cfg.SequenceLength,
		Players:        make([]PlayerView, 0, len(rt.roster)),
	}
	for _, p := range rt.roster {
		view.Players = append(view.Players, PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Seat:       p.Seat,
			Team:       p.Team,
			Color:      p.Color,
			Connected:  p.Connected,
			IsHost:     p.ID == rt.hostID,
			HandCount:  len(p.Hand),
			TopDiscard: p.TopDiscard(),
		})
	}

	g := rt.state
	if g == nil {
		return view
	}

	view.Phase = RoomPlaying
	if g.Phase == engine.PhaseFinished {
		view.Phase = RoomFinished
	}
	view.CurrentPlayerID = g.CurrentPlayer().ID
	view.DeckCount = len(g.Deck)
	view.PendingDraw = g.PendingDraw
	view.Winner = g.Winner
	view.LastMove = g.LastMove
	view.Countdown = rt.countdownSecondsLocked()

	view.Chips = make([][]int, engine.BoardSize)
	for r := 0; r < engine.BoardSize; r++ {
		view.Chips[r] = make([]int, engine.BoardSize)
		for c := 0; c < engine.BoardSize; c++ {
			view.Chips[r][c] = g.Chips[r][c]
		}
	}

	view.LockedCells = make(map[int][]string, len(g.LockedCells))
	for team, cells := range g.LockedCells {
		keys := make([]string, 0, len(cells))
		for k := range cells {
			keys = append(keys, k)
		}
		view.LockedCells[team] = keys
	}

	view.Sequences = make(map[int]int, len(g.SequencesCompleted))
	for team, n := range g.SequencesCompleted {
		view.Sequences[team] = n
	}

	if p := g.PlayerByID(forPlayerID); p != nil {
		view.MyHand = append([]string(nil), p.Hand...)
	}
	return view
}

func (rt *Runtime) countdownSecondsLocked() int {
	if rt.turnLimit <= 0 || rt.state == nil || rt.state.Phase != engine.PhasePlaying {
		return 0
	}
	remaining := rt.turnLimit - time.Since(rt.state.TurnStartedAt)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Round(time.Second) / time.Second)
}

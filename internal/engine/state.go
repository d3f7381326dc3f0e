package engine

import (
	"fmt"
	"time"
)

type Phase string

const (
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Action kinds accepted by ApplyMove.
const (
	ActionDraw        = "draw"
	ActionReplaceDead = "replace-dead"
	ActionPlayNormal  = "play-normal"
	ActionPlayTwoEyed = "play-two-eyed"
	ActionPlayOneEyed = "play-one-eyed"
)

// NoTeam marks an empty board cell.
const NoTeam = -1

// Action is one move request by one player.
type Action struct {
	Type      string `json:"type"`
	Card      string `json:"card,omitempty"`
	TargetRow int    `json:"targetRow"`
	TargetCol int    `json:"targetCol"`
}

// GameConfig is immutable once a game starts.
type GameConfig struct {
	NumPlayers     int      `json:"numPlayers"`
	NumTeams       int      `json:"numTeams"`
	TeamColors     []string `json:"teamColors"`
	SequencesToWin int      `json:"sequencesToWin"`
	HandSize       int      `json:"handSize"`
	SequenceLength int      `json:"sequenceLength"`
}

// HandSizeFor returns the dealt hand size for a player count, per the
// printed rules.
func HandSizeFor(numPlayers int) int {
	switch {
	case numPlayers <= 2:
		return 7
	case numPlayers <= 4:
		return 6
	case numPlayers <= 6:
		return 5
	case numPlayers <= 9:
		return 4
	default:
		return 3
	}
}

// Validate checks the table parameters before any cards are dealt.
func (c *GameConfig) Validate() error {
	if c.NumTeams != 2 && c.NumTeams != 3 {
		return fmt.Errorf("team count must be 2 or 3, got %d", c.NumTeams)
	}
	if len(c.TeamColors) != c.NumTeams {
		return fmt.Errorf("expected %d team colors, got %d", c.NumTeams, len(c.TeamColors))
	}
	if c.NumPlayers < c.NumTeams || c.NumPlayers%c.NumTeams != 0 {
		return fmt.Errorf("player count %d is not divisible across %d teams", c.NumPlayers, c.NumTeams)
	}
	if c.SequencesToWin < 2 || c.SequencesToWin > 4 {
		return fmt.Errorf("sequences to win must be 2-4, got %d", c.SequencesToWin)
	}
	if c.SequenceLength != 4 && c.SequenceLength != 5 {
		return fmt.Errorf("sequence length must be 4 (blitz) or 5, got %d", c.SequenceLength)
	}
	return nil
}

// Player holds one seat. Hand and Discards are mutated exclusively by the
// engine during move application.
type Player struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Token     string   `json:"-"`
	Seat      int      `json:"seat"`
	Team      int      `json:"team"`
	Color     string   `json:"color"`
	Connected bool     `json:"connected"`
	Hand      []string `json:"-"`
	Discards  []string `json:"-"`
}

// TopDiscard returns the public top card of the player's discard pile.
func (p *Player) TopDiscard() string {
	if len(p.Discards) == 0 {
		return ""
	}
	return p.Discards[len(p.Discards)-1]
}

func (p *Player) holdsCard(card string) bool {
	for _, c := range p.Hand {
		if c == card {
			return true
		}
	}
	return false
}

func (p *Player) removeCard(card string) bool {
	for i, c := range p.Hand {
		if c == card {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// CompletedSequence records one locked line for recap and replay.
type CompletedSequence struct {
	Team        int       `json:"team"`
	Cells       []Cell    `json:"cells"`
	CompletedAt time.Time `json:"completedAt"`
}

// Stalemate reasons reported in MoveResult.
const (
	StalemateHighestCount = "highest_count"
	StalemateFirstToReach = "first_to_reach"
)

// StalemateResult describes why no team can score again and who wins.
type StalemateResult struct {
	IsStalemate bool        `json:"isStalemate"`
	Reason      string      `json:"reason,omitempty"`
	Winner      int         `json:"winner"`
	Counts      map[int]int `json:"counts,omitempty"`
}

// MoveResult is the structured outcome of one applied action. Illegal
// actions set Success=false and leave the game state untouched.
type MoveResult struct {
	Success      bool                `json:"success"`
	Error        string              `json:"error,omitempty"`
	Action       Action              `json:"action"`
	NewSequences []CompletedSequence `json:"newSequences,omitempty"`
	GameOver     bool                `json:"gameOver"`
	WinningTeam  *int                `json:"winningTeam,omitempty"`
	Stalemate    *StalemateResult    `json:"stalemate,omitempty"`
}

// GameState is the root aggregate. Exactly one exists per active game; the
// owning room layer must serialize all mutating calls against it.
type GameState struct {
	Phase              Phase
	Config             GameConfig
	Players            []*Player
	DealerIndex        int
	CurrentPlayerIndex int
	Deck               []string
	Chips              [BoardSize][BoardSize]int
	LockedCells        map[int]map[string]bool
	SequencesCompleted map[int]int
	CompletedSequences []CompletedSequence
	SequenceTimes      map[int]time.Time

	PendingDraw              bool
	DeadCardReplacedThisTurn bool
	LastRemovedCell          *Cell

	Winner   *int
	LastMove *MoveResult

	TurnTimeLimit time.Duration
	TurnStartedAt time.Time
}

// InitializeGame validates the config, builds and shuffles the deck, deals
// hands, and returns a fresh playing-phase state. Seat order is turn order.
func InitializeGame(players []*Player, cfg GameConfig, turnTimeLimit time.Duration) (*GameState, error) {
	if len(players) != cfg.NumPlayers {
		return nil, fmt.Errorf("config expects %d players, got %d", cfg.NumPlayers, len(players))
	}
	if cfg.HandSize == 0 {
		cfg.HandSize = HandSizeFor(cfg.NumPlayers)
	}
	if cfg.SequenceLength == 0 {
		cfg.SequenceLength = 5
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deck := NewDeck()
	Shuffle(deck)

	g := &GameState{
		Phase:              PhasePlaying,
		Config:             cfg,
		Players:            players,
		LockedCells:        make(map[int]map[string]bool, cfg.NumTeams),
		SequencesCompleted: make(map[int]int, cfg.NumTeams),
		SequenceTimes:      make(map[int]time.Time, cfg.NumTeams),
		TurnTimeLimit:      turnTimeLimit,
		TurnStartedAt:      time.Now(),
	}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			g.Chips[r][c] = NoTeam
		}
	}
	for t := 0; t < cfg.NumTeams; t++ {
		g.LockedCells[t] = make(map[string]bool)
		g.SequencesCompleted[t] = 0
	}

	for seat, p := range players {
		p.Seat = seat
		p.Team = seat % cfg.NumTeams
		p.Color = cfg.TeamColors[p.Team]

		hand, rest, err := dealCards(deck, cfg.HandSize)
		if err != nil {
			return nil, err
		}
		p.Hand = hand
		p.Discards = nil
		deck = rest
	}
	g.Deck = deck

	return g, nil
}

// CurrentPlayer returns the player whose turn it is.
func (g *GameState) CurrentPlayer() *Player {
	return g.Players[g.CurrentPlayerIndex]
}

// PlayerByID returns the seated player with the given id, or nil.
func (g *GameState) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *GameState) isLocked(row, col int) bool {
	key := Cell{Row: row, Col: col}.Key()
	for _, cells := range g.LockedCells {
		if cells[key] {
			return true
		}
	}
	return false
}

// IsDeadCard reports whether a non-jack card has every printed position
// occupied by any team. Jacks are never dead.
func (g *GameState) IsDeadCard(card string) bool {
	if IsJack(card) {
		return false
	}
	positions := cardPositions[card]
	if len(positions) == 0 {
		return false
	}
	for _, pos := range positions {
		if g.Chips[pos.Row][pos.Col] == NoTeam {
			return false
		}
	}
	return true
}

package room

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sequence-service/internal/engine"
	appErr "sequence-service/pkg/errors"
	"sequence-service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoomPhase covers the lobby stage the engine itself never sees.
type RoomPhase string

const (
	RoomLobby    RoomPhase = "lobby"
	RoomPlaying  RoomPhase = "playing"
	RoomFinished RoomPhase = "finished"
)

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// finishFunc is invoked once, off the lock, when a game reaches a terminal
// state. reason is "win", "stalemate" or "abandoned".
type finishFunc func(rt *Runtime, reason string, stalemate *engine.StalemateResult)

// Runtime owns one room. Its mutex serializes every mutating call against
// the room's GameState: a timeout firing and a just-arriving move race on
// this lock, and whichever loses sees a stale-state rejection instead of a
// corrupted aggregate.
type Runtime struct {
	code      string
	hostID    string
	cfg       engine.GameConfig
	turnLimit time.Duration
	createdAt time.Time
	startedAt time.Time

	mu          sync.Mutex
	roster      []*engine.Player
	state       *engine.GameState
	subscribers map[string]chan OutgoingMessage
	seq         int64
	timer       *time.Timer

	onFinish finishFunc
}

func newRuntime(code string, cfg engine.GameConfig, turnLimit time.Duration, onFinish finishFunc) *Runtime {
	return &Runtime{
		code:        code,
		cfg:         cfg,
		turnLimit:   turnLimit,
		createdAt:   time.Now(),
		subscribers: make(map[string]chan OutgoingMessage),
		onFinish:    onFinish,
	}
}

func (rt *Runtime) Code() string { return rt.code }

// AddPlayer seats a new player in the lobby and returns them.
func (rt *Runtime) AddPlayer(name string) (*engine.Player, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.state != nil {
		return nil, appErr.ErrRoomInProgress
	}
	if len(rt.roster) >= rt.cfg.NumPlayers {
		return nil, appErr.ErrRoomFull
	}

	p := &engine.Player{
		ID:        uuid.NewString(),
		Name:      name,
		Seat:      len(rt.roster),
		Connected: true,
	}
	rt.roster = append(rt.roster, p)
	if rt.hostID == "" {
		rt.hostID = p.ID
	}
	rt.broadcastStateLocked()
	return p, nil
}

// RemovePlayer frees a lobby seat. Once the game is running seats are
// fixed; a leaver is only marked disconnected.
func (rt *Runtime) RemovePlayer(playerID string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.state != nil {
		return appErr.ErrRoomInProgress
	}
	return rt.removePlayerLocked(playerID)
}

func (rt *Runtime) removePlayerLocked(playerID string) error {
	idx := -1
	for i, p := range rt.roster {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return appErr.ErrPlayerNotFound
	}

	rt.roster = append(rt.roster[:idx], rt.roster[idx+1:]...)
	for i, p := range rt.roster {
		p.Seat = i
	}
	if rt.hostID == playerID && len(rt.roster) > 0 {
		rt.hostID = rt.roster[0].ID
	}
	if ch, ok := rt.subscribers[playerID]; ok {
		delete(rt.subscribers, playerID)
		close(ch)
	}
	rt.broadcastStateLocked()
	return nil
}

// MarkConnected flips a seat's connectivity flag (reconnect/disconnect).
func (rt *Runtime) MarkConnected(playerID string, connected bool) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p := rt.playerLocked(playerID)
	if p == nil {
		return appErr.ErrPlayerNotFound
	}
	p.Connected = connected
	rt.broadcastStateLocked()
	return nil
}

func (rt *Runtime) Subscribe(playerID string) chan OutgoingMessage {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ch := make(chan OutgoingMessage, 8)
	rt.subscribers[playerID] = ch
	rt.pushStateLocked(playerID)
	return ch
}

func (rt *Runtime) Unsubscribe(playerID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if ch, ok := rt.subscribers[playerID]; ok {
		delete(rt.subscribers, playerID)
		close(ch)
	}
	if p := rt.playerLocked(playerID); p != nil {
		p.Connected = false
	}
}

// Snapshot returns the room view as seen by playerID; an empty or unknown
// id yields the spectator view with no hand.
func (rt *Runtime) Snapshot(playerID string) RoomView {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.exportStateLocked(playerID)
}

// Abandoned reports whether the room has no subscribers left and is safe
// to reap.
func (rt *Runtime) Abandoned() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.subscribers) == 0
}

// HandleAction dispatches one client message. Engine-level rejections are
// not errors: they are pushed back to the actor as a failed move result.
func (rt *Runtime) HandleAction(playerID string, action string, data json.RawMessage) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.playerLocked(playerID) == nil {
		return appErr.ErrRoomAccessDenied
	}

	switch action {
	case "start":
		return rt.startLocked(playerID)
	case "kick":
		return rt.kickLocked(playerID, data)
	case engine.ActionDraw, engine.ActionReplaceDead,
		engine.ActionPlayNormal, engine.ActionPlayTwoEyed, engine.ActionPlayOneEyed:
		return rt.applyMoveLocked(playerID, action, data)
	case "rejoin":
		rt.pushStateLocked(playerID)
		return nil
	case "ping":
		rt.pushMessageLocked(playerID, OutgoingMessage{Type: "pong", Seq: rt.nextSeqLocked()})
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}

func (rt *Runtime) startLocked(playerID string) error {
	if playerID != rt.hostID {
		return appErr.ErrNotHost
	}
	if rt.state != nil {
		return appErr.ErrRoomInProgress
	}
	if len(rt.roster) != rt.cfg.NumPlayers {
		return fmt.Errorf("room needs %d players, has %d", rt.cfg.NumPlayers, len(rt.roster))
	}

	state, err := engine.InitializeGame(rt.roster, rt.cfg, rt.turnLimit)
	if err != nil {
		return err
	}
	rt.state = state
	rt.startedAt = time.Now()
	rt.scheduleTurnTimerLocked()
	rt.broadcastStateLocked()

	logger.Log.Info("game started",
		zap.String("room", rt.code),
		zap.Int("players", len(rt.roster)),
	)
	return nil
}

func (rt *Runtime) kickLocked(playerID string, data json.RawMessage) error {
	if playerID != rt.hostID {
		return appErr.ErrNotHost
	}
	if rt.state != nil {
		return appErr.ErrRoomInProgress
	}

	var payload struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("invalid kick payload: %w", err)
	}
	if payload.PlayerID == playerID {
		return fmt.Errorf("host cannot kick themselves")
	}
	return rt.removePlayerLocked(payload.PlayerID)
}

func (rt *Runtime) applyMoveLocked(playerID, action string, data json.RawMessage) error {
	if rt.state == nil {
		return appErr.ErrRoomNotStarted
	}

	var payload struct {
		Card      string `json:"card"`
		TargetRow int    `json:"targetRow"`
		TargetCol int    `json:"targetCol"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("invalid action payload: %w", err)
		}
	}

	act := engine.Action{
		Type:      action,
		Card:      payload.Card,
		TargetRow: payload.TargetRow,
		TargetCol: payload.TargetCol,
	}
	res := engine.ApplyMove(rt.state, playerID, act)
	rt.pushMessageLocked(playerID, OutgoingMessage{
		Type: "move_result",
		Seq:  rt.nextSeqLocked(),
		Data: res,
	})
	if !res.Success {
		return nil
	}

	rt.broadcastStateLocked()

	if res.GameOver {
		reason := "win"
		if res.Stalemate != nil {
			reason = "stalemate"
		}
		rt.finishLocked(reason, res.Stalemate)
		return nil
	}
	if act.Type == engine.ActionDraw {
		// The turn changed hands; restart the clock for the next player.
		rt.scheduleTurnTimerLocked()
	}
	return nil
}

// scheduleTurnTimerLocked cancels any pending callback and arms a new one.
// A zero limit means unlimited thinking time: no timer at all.
func (rt *Runtime) scheduleTurnTimerLocked() {
	rt.cancelTimerLocked()
	if rt.turnLimit <= 0 || rt.state == nil || rt.state.Phase != engine.PhasePlaying {
		return
	}
	rt.timer = time.AfterFunc(rt.turnLimit, rt.onTurnTimeout)
}

// onTurnTimeout forcibly advances the turn with no action taken: no card
// is drawn and the deck is untouched, unlike a normal draw.
func (rt *Runtime) onTurnTimeout() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.state == nil || rt.state.Phase != engine.PhasePlaying {
		return
	}

	timedOut := rt.state.CurrentPlayer()
	engine.HandleTurnTimeout(rt.state)

	logger.Log.Warn("turn timed out",
		zap.String("room", rt.code),
		zap.String("player", timedOut.ID),
		zap.Int("nextSeat", rt.state.CurrentPlayerIndex),
	)
	rt.broadcastStateLocked()
	rt.scheduleTurnTimerLocked()
}

func (rt *Runtime) finishLocked(reason string, stalemate *engine.StalemateResult) {
	rt.cancelTimerLocked()
	rt.broadcastStateLocked()
	if rt.onFinish != nil {
		go rt.onFinish(rt, reason, stalemate)
	}
}

func (rt *Runtime) cancelTimerLocked() {
	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
}

func (rt *Runtime) playerLocked(playerID string) *engine.Player {
	for _, p := range rt.roster {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (rt *Runtime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}

func (rt *Runtime) pushStateLocked(playerID string) {
	rt.pushMessageLocked(playerID, OutgoingMessage{
		Type: "state",
		Seq:  rt.nextSeqLocked(),
		Data: rt.exportStateLocked(playerID),
	})
}

func (rt *Runtime) broadcastStateLocked() {
	seq := rt.nextSeqLocked()
	for pid, ch := range rt.subscribers {
		msg := OutgoingMessage{
			Type: "state",
			Seq:  seq,
			Data: rt.exportStateLocked(pid),
		}
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("subscriber channel full",
				zap.String("room", rt.code),
				zap.String("player", pid),
			)
		}
	}
}

func (rt *Runtime) pushMessageLocked(playerID string, msg OutgoingMessage) {
	if ch, ok := rt.subscribers[playerID]; ok {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("subscriber channel full",
				zap.String("room", rt.code),
				zap.String("player", playerID),
			)
		}
	}
}

package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"sequence-service/internal/engine"
	"sequence-service/internal/service/record"
	"sequence-service/internal/service/session"
	"sequence-service/pkg/auth"
	appErr "sequence-service/pkg/errors"
	"sequence-service/pkg/logger"
	"sequence-service/pkg/utils/random"

	"go.uber.org/zap"
)

const joinCodeLength = 6

// defaultTeamColors seats teams in a fixed palette; index = team number.
var defaultTeamColors = []string{"blue", "green", "red"}

// Defaults carry the server-wide game settings a create request may omit.
type Defaults struct {
	TurnTimeLimit  time.Duration
	SequencesToWin int
	SequenceLength int
}

// Service owns the live room table. Rooms live purely in memory; only the
// final recap of a finished game is written through to the database.
type Service struct {
	rooms    sync.Map // join code -> *Runtime
	records  *record.Service
	sessions *session.Service
	defaults Defaults
}

func NewService(records *record.Service, sessions *session.Service, defaults Defaults) *Service {
	return &Service{
		records:  records,
		sessions: sessions,
		defaults: defaults,
	}
}

type CreateParams struct {
	HostName       string `json:"hostName" binding:"required"`
	NumPlayers     int    `json:"numPlayers" binding:"required"`
	NumTeams       int    `json:"numTeams" binding:"required"`
	SequencesToWin int    `json:"sequencesToWin"`
	SequenceLength int    `json:"sequenceLength"`
}

// JoinInfo is handed back on create/join: the caller keeps the token to
// authenticate its websocket and to reconnect after a drop.
type JoinInfo struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

// CreateRoom allocates a join code, builds the runtime and seats the host.
func (s *Service) CreateRoom(ctx context.Context, p CreateParams) (*JoinInfo, error) {
	cfg := engine.GameConfig{
		NumPlayers:     p.NumPlayers,
		NumTeams:       p.NumTeams,
		SequencesToWin: p.SequencesToWin,
		SequenceLength: p.SequenceLength,
	}
	if cfg.SequencesToWin == 0 {
		cfg.SequencesToWin = s.defaults.SequencesToWin
	}
	if cfg.SequenceLength == 0 {
		cfg.SequenceLength = s.defaults.SequenceLength
	}
	if cfg.NumTeams >= 2 && cfg.NumTeams <= len(defaultTeamColors) {
		cfg.TeamColors = defaultTeamColors[:cfg.NumTeams]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		code string
		rt   *Runtime
	)
	for {
		code = random.Code(joinCodeLength)
		rt = newRuntime(code, cfg, s.defaults.TurnTimeLimit, s.persistFinished)
		if _, taken := s.rooms.LoadOrStore(code, rt); !taken {
			break
		}
	}

	info, err := s.seatPlayer(ctx, rt, p.HostName)
	if err != nil {
		s.rooms.Delete(code)
		return nil, err
	}
	logger.Log.Info("room created",
		zap.String("room", code),
		zap.Int("numPlayers", cfg.NumPlayers),
		zap.Int("numTeams", cfg.NumTeams),
	)
	return info, nil
}

// JoinRoom seats a new player in an existing lobby.
func (s *Service) JoinRoom(ctx context.Context, code, name string) (*JoinInfo, error) {
	rt, err := s.Lookup(code)
	if err != nil {
		return nil, err
	}
	return s.seatPlayer(ctx, rt, name)
}

func (s *Service) seatPlayer(ctx context.Context, rt *Runtime, name string) (*JoinInfo, error) {
	p, err := rt.AddPlayer(name)
	if err != nil {
		return nil, err
	}
	token, err := auth.GenerateReconnectToken(rt.Code(), p.ID)
	if err != nil {
		return nil, err
	}
	p.Token = token
	if err := s.sessions.Save(ctx, token, session.Session{
		RoomCode: rt.Code(),
		PlayerID: p.ID,
	}); err != nil {
		return nil, err
	}
	return &JoinInfo{RoomCode: rt.Code(), PlayerID: p.ID, Token: token}, nil
}

// Reconnect resolves a reconnect token back to its live room and seat.
func (s *Service) Reconnect(ctx context.Context, token string) (*Runtime, string, error) {
	claims, err := auth.ParseReconnectToken(token)
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	sess, err := s.sessions.Load(ctx, token)
	if err != nil {
		return nil, "", err
	}
	if sess.RoomCode != claims.RoomCode || sess.PlayerID != claims.PlayerID {
		return nil, "", appErr.ErrUnauthorized
	}
	rt, err := s.Lookup(sess.RoomCode)
	if err != nil {
		return nil, "", err
	}
	return rt, sess.PlayerID, nil
}

// Leave removes the token's player from their room and invalidates the
// session. Mid-game the seat cannot be freed: the player is only marked
// disconnected so the game can finish around them.
func (s *Service) Leave(ctx context.Context, token string) error {
	rt, playerID, err := s.Reconnect(ctx, token)
	if err != nil {
		return err
	}

	if err := rt.RemovePlayer(playerID); err != nil {
		if !errors.Is(err, appErr.ErrRoomInProgress) {
			return err
		}
		if err := rt.MarkConnected(playerID, false); err != nil {
			return err
		}
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		logger.Log.Warn("failed to delete session", zap.Error(err))
	}
	s.ReapIfAbandoned(rt.Code())
	return nil
}

func (s *Service) Lookup(code string) (*Runtime, error) {
	v, ok := s.rooms.Load(code)
	if !ok {
		return nil, appErr.ErrRoomNotFound
	}
	return v.(*Runtime), nil
}

// ReapIfAbandoned drops a room once its last subscriber is gone. Called
// by the websocket layer after each disconnect.
func (s *Service) ReapIfAbandoned(code string) {
	rt, err := s.Lookup(code)
	if err != nil {
		return
	}
	if rt.Abandoned() {
		s.rooms.Delete(code)
		logger.Log.Info("room reaped", zap.String("room", code))
	}
}

// persistFinished runs once per game, outside the runtime lock, after the
// state reached a terminal phase.
func (s *Service) persistFinished(rt *Runtime, reason string, stalemate *engine.StalemateResult) {
	if s.records == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.records.SaveGameRecord(ctx, record.SaveParams{
		RoomCode:  rt.code,
		EndReason: reason,
		StartedAt: rt.startedAt,
		State:     rt.state,
		Stalemate: stalemate,
	})
	if err != nil {
		logger.Log.Error("failed to save game record",
			zap.String("room", rt.code),
			zap.Error(err),
		)
		return
	}
	logger.Log.Info("game record saved",
		zap.String("room", rt.code),
		zap.String("reason", reason),
	)
}

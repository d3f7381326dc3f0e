package record

import (
	"context"
	"encoding/json"
	"time"

	"sequence-service/internal/engine"
	"sequence-service/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service persists finished-game recaps.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SaveParams captures everything worth keeping from a finished GameState.
type SaveParams struct {
	RoomCode  string
	EndReason string // win/stalemate/abandoned
	StartedAt time.Time
	State     *engine.GameState
	Stalemate *engine.StalemateResult
}

func (s *Service) SaveGameRecord(ctx context.Context, p SaveParams) (*model.GameRecord, error) {
	state := p.State
	rec := model.GameRecord{
		RoomCode:       p.RoomCode,
		NumPlayers:     state.Config.NumPlayers,
		NumTeams:       state.Config.NumTeams,
		SequencesToWin: state.Config.SequencesToWin,
		SequenceLength: state.Config.SequenceLength,
		WinningTeam:    state.Winner,
		EndReason:      p.EndReason,
		CountsJSON:     mustJSON(state.SequencesCompleted),
		SequencesJSON:  mustJSON(state.CompletedSequences),
		StartedAt:      p.StartedAt,
		EndedAt:        time.Now(),
	}
	if p.Stalemate != nil {
		rec.StalemateJSON = mustJSON(p.Stalemate)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByRoom returns recaps for a room, newest first.
func (s *Service) ListByRoom(ctx context.Context, roomCode string, limit int) ([]model.GameRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []model.GameRecord
	err := s.db.WithContext(ctx).
		Where("room_code = ?", roomCode).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

// GameRecord is the persisted recap of one finished game. Live game state
// never touches the database; a record is written once, when a room's game
// ends.
type GameRecord struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	RoomCode       string `gorm:"index;not null"`
	NumPlayers     int
	NumTeams       int
	SequencesToWin int
	SequenceLength int
	WinningTeam    *int
	EndReason      string         // win/stalemate/abandoned
	CountsJSON     datatypes.JSON // team index -> completed sequence count
	SequencesJSON  datatypes.JSON // completed-sequence list for replay
	StalemateJSON  datatypes.JSON // populated on stalemate endings
	StartedAt      time.Time
	EndedAt        time.Time
	CreatedAt      time.Time
}

package service

import (
	"time"

	"sequence-service/internal/config"
	"sequence-service/internal/service/record"
	"sequence-service/internal/service/room"
	"sequence-service/internal/service/session"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Room    *room.Service
	Record  *record.Service
	Session *session.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	game := config.GlobalConfig.Game

	records := record.NewService(db)
	sessions := session.NewService(rdb, time.Duration(game.SessionTTLHours)*time.Hour)
	rooms := room.NewService(records, sessions, room.Defaults{
		TurnTimeLimit:  time.Duration(game.TurnTimeLimitSeconds) * time.Second,
		SequencesToWin: game.SequencesToWin,
		SequenceLength: game.SequenceLength,
	})

	return &Container{
		Room:    rooms,
		Record:  records,
		Session: sessions,
	}
}

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appErr "sequence-service/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// Session maps a reconnect token back to a seat. Sessions expire on their
// own; a clean leave deletes them eagerly.
type Session struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type Service struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewService(rdb *redis.Client, ttl time.Duration) *Service {
	return &Service{rdb: rdb, ttl: ttl}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:reconnect:%s", token)
}

func (s *Service) Save(ctx context.Context, token string, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(token), data, s.ttl).Err()
}

func (s *Service) Load(ctx context.Context, token string) (*Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, appErr.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Service) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}

package errors

import "errors"

// Service-layer sentinel errors. Engine-level illegal moves are NOT errors;
// they come back as structured MoveResult rejections.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrRoomInProgress   = errors.New("game already in progress")
	ErrRoomNotStarted   = errors.New("game has not started")
	ErrRoomAccessDenied = errors.New("room access denied")
	ErrNotHost          = errors.New("only the host can do that")
	ErrPlayerNotFound   = errors.New("player not found in room")
	ErrSessionNotFound  = errors.New("session not found")
	ErrUnauthorized     = errors.New("unauthorized")
)

package apperror

import "errors"

// Soft errors: user-caused and recoverable, reported back to the acting
// connection only. The session continues.
var (
	ErrRoomFull       = errors.New("room is full")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrGameNotPlaying = errors.New("game is not playing")
	ErrInvalidCell    = errors.New("invalid cell position")

	ErrUserNotOnline = errors.New("user not online")
	ErrRoomNotFound  = errors.New("room not found")
	ErrGameNotFound  = errors.New("game not found")
	ErrUserNotInRoom = errors.New("user not in room")
	ErrUserNotInGame = errors.New("user not in game")
	ErrRoomNotInGame = errors.New("room not in game")

	ErrLoginRequired = errors.New("login required")
)

// ErrBadLogin is a hard error: the connection that sent it is terminated.
var ErrBadLogin = errors.New("missing login identity")

package tictactoe

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/gridbyte/tictactoe-backend/internal/apperror"
	"github.com/gridbyte/tictactoe-backend/internal/entity"
)

const maxPlayers = 2

// Action is a single board move.
type Action struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

var winLines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Rules is the stateless rule engine for the two-player 3×3 variant. It
// mutates the status records passed to it but owns none of them. The RNG
// is injected so piece assignment is reproducible in tests.
type Rules struct {
	maxPlayers int
	rng        *rand.Rand
}

func NewRules(rng *rand.Rand) *Rules {
	return &Rules{
		maxPlayers: maxPlayers,
		rng:        rng,
	}
}

func (that *Rules) MaxPlayers() int {
	return that.maxPlayers
}

func (that *Rules) JoinRoom(room *entity.Room, userID string) error {
	if room.IsFull() {
		return apperror.ErrRoomFull
	}

	room.AddMember(userID)

	return nil
}

// LeaveRoom is idempotent: leaving a room you are not in is a no-op.
func (that *Rules) LeaveRoom(room *entity.Room, userID string) {
	room.RemoveMember(userID)
}

func (that *Rules) SetRoomReady(room *entity.Room, userID string) error {
	member := room.Member(userID)
	if member == nil {
		return apperror.ErrUserNotInRoom
	}

	member.IsReady = true

	return nil
}

// EnableCreateGame reports whether the room may spawn a game: a full
// room with every member ready.
func (that *Rules) EnableCreateGame(room *entity.Room) bool {
	if len(room.Members) < room.MaxPlayers {
		return false
	}

	for _, member := range room.Members {
		if !member.IsReady {
			return false
		}
	}

	return true
}

// CreateGame builds a waiting game from the room's members. Members are
// shuffled uniformly and pieces assigned in shuffle order, X first; since
// X always opens, the turn cursor starts on the shuffle winner. Readiness
// does not carry over from the room.
func (that *Rules) CreateGame(room *entity.Room) *entity.Game {
	userIDs := make([]string, 0, len(room.Members))
	for _, member := range room.Members {
		userIDs = append(userIDs, member.UserID)
	}

	that.rng.Shuffle(len(userIDs), func(i, j int) {
		userIDs[i], userIDs[j] = userIDs[j], userIDs[i]
	})

	pieces := [maxPlayers]string{entity.PieceX, entity.PieceO}

	members := make([]*entity.GameMember, len(userIDs))
	for i, userID := range userIDs {
		members[i] = &entity.GameMember{
			UserID: userID,
			Piece:  pieces[i],
		}
	}

	return entity.NewGame(uuid.NewString(), members)
}

func (that *Rules) SetGameReady(game *entity.Game, userID string) error {
	member := game.Member(userID)
	if member == nil {
		return apperror.ErrUserNotInGame
	}

	member.IsReady = true

	return nil
}

func (that *Rules) EnableStartGame(game *entity.Game) bool {
	for _, member := range game.Members {
		if !member.IsReady {
			return false
		}
	}

	return true
}

func (that *Rules) StartGame(game *entity.Game) {
	game.Status = entity.GamePlaying
}

// ActPiece applies one move for userID. Any failure leaves the game
// untouched; on success the turn advances to the next member.
func (that *Rules) ActPiece(game *entity.Game, userID string, action Action) error {
	if !game.IsPlaying() {
		return apperror.ErrGameNotPlaying
	}

	if action.Row < 0 || action.Row >= entity.BoardSize || action.Col < 0 || action.Col >= entity.BoardSize {
		return apperror.ErrInvalidCell
	}

	current := game.CurrentMember()
	if current.UserID != userID {
		return apperror.ErrNotYourTurn
	}

	if !game.SetPiece(action.Row, action.Col, current.Piece) {
		return apperror.ErrCellOccupied
	}

	game.AdvanceTurn()

	return nil
}

// ComputeWinner returns the userID of the first member, in membership
// order, whose piece fills a complete line, or "" if no line is complete.
func (that *Rules) ComputeWinner(game *entity.Game) string {
	for _, member := range game.Members {
		if that.isWin(game, member.Piece) {
			return member.UserID
		}
	}

	return ""
}

func (that *Rules) isWin(game *entity.Game, piece string) bool {
	for _, line := range winLines {
		if game.Cell(line[0][0], line[0][1]) == piece &&
			game.Cell(line[1][0], line[1][1]) == piece &&
			game.Cell(line[2][0], line[2][1]) == piece {
			return true
		}
	}

	return false
}

func (that *Rules) ComputeIsDraw(game *entity.Game) bool {
	for row := 0; row < entity.BoardSize; row++ {
		for col := 0; col < entity.BoardSize; col++ {
			if game.Cell(row, col) == entity.EmptyCell {
				return false
			}
		}
	}

	return true
}

// EnableEndGame reports whether a playing game has reached a terminal
// board. A full or won board on a non-playing game never qualifies.
func (that *Rules) EnableEndGame(game *entity.Game) bool {
	if !game.IsPlaying() {
		return false
	}

	return that.ComputeIsDraw(game) || that.ComputeWinner(game) != ""
}

func (that *Rules) EndGame(game *entity.Game) {
	game.Status = entity.GameEnd
}

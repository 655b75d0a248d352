package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gridbyte/tictactoe-backend/internal/apperror"
	"github.com/gridbyte/tictactoe-backend/internal/entity"
	"github.com/gridbyte/tictactoe-backend/internal/tictactoe"
)

// Coordinator is the single point of truth for which users, rooms and
// games exist and how they are linked. Entities never reference each
// other; all links live in the three relation maps, and only the
// coordinator writes them. One mutex serializes every operation, so a
// mutation and its relation updates are observed atomically.
type Coordinator struct {
	logger *slog.Logger
	rules  *tictactoe.Rules

	mu    sync.Mutex
	users map[string]*entity.User
	rooms map[string]*entity.Room
	games map[string]*entity.Game

	userRoom map[string]string // userID -> roomID
	userGame map[string]string // userID -> gameID
	roomGame map[string]string // roomID -> gameID
}

func New(logger *slog.Logger, rules *tictactoe.Rules) *Coordinator {
	return &Coordinator{
		logger: logger.With("component", "session"),
		rules:  rules,

		users: make(map[string]*entity.User),
		rooms: make(map[string]*entity.Room),
		games: make(map[string]*entity.Game),

		userRoom: make(map[string]string),
		userGame: make(map[string]string),
		roomGame: make(map[string]string),
	}
}

// Online registers a user. Logging in again replaces the previous record.
func (that *Coordinator) Online(userID, nickName string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.users[userID] = entity.NewUser(userID, nickName)
}

func (that *Coordinator) Offline(userID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.users, userID)
}

// CreateRoom registers a room with the creator as its sole initial
// member. It deliberately does not link the creator to the room: callers
// follow up with JoinRoom, keeping create-then-join a two-step protocol.
func (that *Coordinator) CreateRoom(userID, roomID string) string {
	that.mu.Lock()
	defer that.mu.Unlock()

	if roomID == "" {
		roomID = uuid.NewString()
	}

	room := entity.NewRoom(roomID, that.rules.MaxPlayers())
	room.AddMember(userID)
	that.rooms[roomID] = room

	return roomID
}

func (that *Coordinator) JoinRoom(roomID, userID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.getRoom(roomID)
	if err != nil {
		return err
	}

	user, err := that.getUser(userID)
	if err != nil {
		return err
	}

	if err = that.rules.JoinRoom(room, userID); err != nil {
		return err
	}

	that.userRoom[userID] = roomID
	user.Status = entity.UserInRoom

	return nil
}

// LeaveRoom removes the user from their current room and returns its ID
// for broadcast. An empty room is deleted. If the room is mid-game the
// game is torn down first and its final state returned, so the remaining
// member is not left linked to a deleted game.
func (that *Coordinator) LeaveRoom(userID string) (string, *GameState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, err := that.userRoomID(userID)
	if err != nil {
		return "", nil, err
	}

	room, err := that.getRoom(roomID)
	if err != nil {
		return "", nil, err
	}

	user, err := that.getUser(userID)
	if err != nil {
		return "", nil, err
	}

	var endedGame *GameState
	if _, ok := that.roomGame[roomID]; ok {
		endedGame, err = that.endGameLocked(roomID)
		if err != nil {
			return "", nil, err
		}
	}

	that.rules.LeaveRoom(room, userID)
	delete(that.userRoom, userID)
	user.Status = entity.UserOutsideRoom

	if room.IsEmpty() {
		delete(that.rooms, roomID)
	}

	return roomID, endedGame, nil
}

func (that *Coordinator) SetRoomReady(userID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.userRoomLocked(userID)
	if err != nil {
		return err
	}

	return that.rules.SetRoomReady(room, userID)
}

func (that *Coordinator) EnableCreateGame(userID string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, err := that.userRoomID(userID)
	if err != nil {
		return false, err
	}

	room, err := that.getRoom(roomID)
	if err != nil {
		return false, err
	}

	// a room runs at most one game at a time
	if _, ok := that.roomGame[roomID]; ok {
		return false, nil
	}

	return that.rules.EnableCreateGame(room), nil
}

// CreateGame spawns a game from the acting user's room and links every
// room member to it.
func (that *Coordinator) CreateGame(userID string) (string, string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, err := that.userRoomID(userID)
	if err != nil {
		return "", "", err
	}

	room, err := that.getRoom(roomID)
	if err != nil {
		return "", "", err
	}

	// two members racing through ready-up must not spawn twice
	if gameID, ok := that.roomGame[roomID]; ok {
		return roomID, gameID, nil
	}

	game := that.rules.CreateGame(room)
	that.games[game.ID] = game
	that.roomGame[roomID] = game.ID

	for _, member := range room.Members {
		that.userGame[member.UserID] = game.ID

		user, err := that.getUser(member.UserID)
		if err != nil {
			return "", "", err
		}
		user.Status = entity.UserInGame
	}

	that.logger.Info("game created", "roomID", roomID, "gameID", game.ID)

	return roomID, game.ID, nil
}

func (that *Coordinator) SetGameReady(userID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.userGameLocked(userID)
	if err != nil {
		return err
	}

	return that.rules.SetGameReady(game, userID)
}

func (that *Coordinator) EnableStartGame(userID string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.userGameLocked(userID)
	if err != nil {
		return false, err
	}

	return that.rules.EnableStartGame(game), nil
}

func (that *Coordinator) StartGame(userID string) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.userGameLocked(userID)
	if err != nil {
		return "", err
	}

	that.rules.StartGame(game)

	return game.ID, nil
}

func (that *Coordinator) ActPiece(userID string, action tictactoe.Action) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.userGameLocked(userID)
	if err != nil {
		return "", err
	}

	if err = that.rules.ActPiece(game, userID, action); err != nil {
		return "", err
	}

	return game.ID, nil
}

func (that *Coordinator) EnableEndGame(userID string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.userGameLocked(userID)
	if err != nil {
		return false, err
	}

	return that.rules.EnableEndGame(game), nil
}

// EndGame finishes the game linked to the acting user's room. The game
// is resolved room-scoped (user -> room -> game) rather than through the
// user's own game link. The final snapshot is assembled before the game
// is deleted and returned for broadcast; afterwards every member is
// relinked to the room only.
func (that *Coordinator) EndGame(userID string) (*GameState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, err := that.userRoomID(userID)
	if err != nil {
		return nil, err
	}

	return that.endGameLocked(roomID)
}

func (that *Coordinator) endGameLocked(roomID string) (*GameState, error) {
	gameID, ok := that.roomGame[roomID]
	if !ok {
		return nil, apperror.ErrRoomNotInGame
	}

	game, err := that.getGame(gameID)
	if err != nil {
		return nil, err
	}

	that.rules.EndGame(game)

	final, err := that.projectGameState(game)
	if err != nil {
		return nil, err
	}

	delete(that.games, gameID)
	delete(that.roomGame, roomID)

	for _, member := range game.Members {
		delete(that.userGame, member.UserID)

		user, err := that.getUser(member.UserID)
		if err != nil {
			return nil, err
		}
		user.Status = entity.UserInRoom
	}

	that.logger.Info("game ended", "roomID", roomID, "gameID", gameID, "winner", final.Winner)

	return final, nil
}

// Unlocked lookups. Callers hold the mutex.

func (that *Coordinator) getUser(userID string) (*entity.User, error) {
	user, ok := that.users[userID]
	if !ok {
		return nil, apperror.ErrUserNotOnline
	}
	return user, nil
}

func (that *Coordinator) getRoom(roomID string) (*entity.Room, error) {
	room, ok := that.rooms[roomID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}
	return room, nil
}

func (that *Coordinator) getGame(gameID string) (*entity.Game, error) {
	game, ok := that.games[gameID]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}
	return game, nil
}

func (that *Coordinator) userRoomID(userID string) (string, error) {
	roomID, ok := that.userRoom[userID]
	if !ok {
		return "", apperror.ErrUserNotInRoom
	}
	return roomID, nil
}

func (that *Coordinator) userGameID(userID string) (string, error) {
	gameID, ok := that.userGame[userID]
	if !ok {
		return "", apperror.ErrUserNotInGame
	}
	return gameID, nil
}

func (that *Coordinator) userRoomLocked(userID string) (*entity.Room, error) {
	roomID, err := that.userRoomID(userID)
	if err != nil {
		return nil, err
	}
	return that.getRoom(roomID)
}

func (that *Coordinator) userGameLocked(userID string) (*entity.Game, error) {
	gameID, err := that.userGameID(userID)
	if err != nil {
		return nil, err
	}
	return that.getGame(gameID)
}

package session

import (
	"github.com/gridbyte/tictactoe-backend/internal/entity"
)

// Sync states are denormalized, read-only views joining an entity's
// per-member role state with the matching user identities. They are what
// gets pushed to connections after a mutation.

type PlayerInfo struct {
	UserID   string `json:"userId"`
	NickName string `json:"nickName"`
}

type UserState struct {
	User   PlayerInfo `json:"user"`
	Status string     `json:"status"`
}

type RoomPlayerState struct {
	PlayerInfo
	IsReady bool `json:"isReady"`
}

type RoomState struct {
	ID      string            `json:"id"`
	Players []RoomPlayerState `json:"players"`
}

type GamePlayerState struct {
	PlayerInfo
	Piece   string `json:"piece"`
	IsTurn  bool   `json:"isTurn"`
	IsReady bool   `json:"isReady"`
}

type GameState struct {
	ID            string                                     `json:"id"`
	Players       []GamePlayerState                          `json:"players"`
	Board         [entity.BoardSize][entity.BoardSize]string `json:"board"`
	CurrentPlayer GamePlayerState                            `json:"currentPlayer"`
	Status        string                                     `json:"status"`
	Winner        string                                     `json:"winner"`
}

// Pure projections: each takes the status records it needs explicitly.

func projectUserState(user *entity.User) UserState {
	return UserState{
		User: PlayerInfo{
			UserID:   user.ID,
			NickName: user.NickName,
		},
		Status: user.Status,
	}
}

func projectRoomPlayer(user *entity.User, member *entity.RoomMember) RoomPlayerState {
	return RoomPlayerState{
		PlayerInfo: PlayerInfo{
			UserID:   user.ID,
			NickName: user.NickName,
		},
		IsReady: member.IsReady,
	}
}

func projectGamePlayer(user *entity.User, member *entity.GameMember) GamePlayerState {
	return GamePlayerState{
		PlayerInfo: PlayerInfo{
			UserID:   user.ID,
			NickName: user.NickName,
		},
		Piece:   member.Piece,
		IsTurn:  member.IsTurn,
		IsReady: member.IsReady,
	}
}

func (that *Coordinator) UserSyncState(userID string) (UserState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	user, err := that.getUser(userID)
	if err != nil {
		return UserState{}, err
	}

	return projectUserState(user), nil
}

func (that *Coordinator) RoomSyncState(roomID string) (RoomState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.projectRoomState(roomID)
}

func (that *Coordinator) RoomSyncStateByUserID(userID string) (RoomState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, err := that.userRoomID(userID)
	if err != nil {
		return RoomState{}, err
	}

	return that.projectRoomState(roomID)
}

func (that *Coordinator) GameSyncStateByUserID(userID string) (GameState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.userGameLocked(userID)
	if err != nil {
		return GameState{}, err
	}

	state, err := that.projectGameState(game)
	if err != nil {
		return GameState{}, err
	}

	return *state, nil
}

// UsersSyncStateInGame returns the user view of every member of the
// acting user's game, so all parties can be told their status changed.
func (that *Coordinator) UsersSyncStateInGame(userID string) ([]UserState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.userGameLocked(userID)
	if err != nil {
		return nil, err
	}

	states := make([]UserState, 0, len(game.Members))
	for _, member := range game.Members {
		user, err := that.getUser(member.UserID)
		if err != nil {
			return nil, err
		}
		states = append(states, projectUserState(user))
	}

	return states, nil
}

func (that *Coordinator) projectRoomState(roomID string) (RoomState, error) {
	room, err := that.getRoom(roomID)
	if err != nil {
		return RoomState{}, err
	}

	state := RoomState{
		ID:      room.ID,
		Players: make([]RoomPlayerState, 0, len(room.Members)),
	}

	for _, member := range room.Members {
		user, err := that.getUser(member.UserID)
		if err != nil {
			return RoomState{}, err
		}
		state.Players = append(state.Players, projectRoomPlayer(user, member))
	}

	return state, nil
}

func (that *Coordinator) projectGameState(game *entity.Game) (*GameState, error) {
	state := &GameState{
		ID:      game.ID,
		Board:   game.Board,
		Status:  game.Status,
		Winner:  that.rules.ComputeWinner(game),
		Players: make([]GamePlayerState, 0, len(game.Members)),
	}

	for _, member := range game.Members {
		user, err := that.getUser(member.UserID)
		if err != nil {
			return nil, err
		}
		state.Players = append(state.Players, projectGamePlayer(user, member))
	}

	current := game.CurrentMember()
	currentUser, err := that.getUser(current.UserID)
	if err != nil {
		return nil, err
	}
	state.CurrentPlayer = projectGamePlayer(currentUser, current)

	return state, nil
}

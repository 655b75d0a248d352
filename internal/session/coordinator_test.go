package session

import (
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/gridbyte/tictactoe-backend/internal/apperror"
	"github.com/gridbyte/tictactoe-backend/internal/entity"
	"github.com/gridbyte/tictactoe-backend/internal/tictactoe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoordinator(seed int64) *Coordinator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rules := tictactoe.NewRules(rand.New(rand.NewSource(seed))) //nolint:gosec // deterministic test seed

	return New(logger, rules)
}

// setupGame drives two users through login, room and game creation and
// returns the game state. The first mover is whichever user the shuffle
// handed X.
func setupGame(t *testing.T, coordinator *Coordinator) GameState {
	t.Helper()

	coordinator.Online("u1", "alice")
	coordinator.Online("u2", "bob")

	roomID := coordinator.CreateRoom("u1", "r1")
	require.NoError(t, coordinator.JoinRoom(roomID, "u1"))
	require.NoError(t, coordinator.JoinRoom(roomID, "u2"))

	require.NoError(t, coordinator.SetRoomReady("u1"))
	require.NoError(t, coordinator.SetRoomReady("u2"))

	enabled, err := coordinator.EnableCreateGame("u2")
	require.NoError(t, err)
	require.True(t, enabled)

	gotRoomID, gameID, err := coordinator.CreateGame("u2")
	require.NoError(t, err)
	require.Equal(t, roomID, gotRoomID)
	require.NotEmpty(t, gameID)

	require.NoError(t, coordinator.SetGameReady("u1"))
	require.NoError(t, coordinator.SetGameReady("u2"))

	enabled, err = coordinator.EnableStartGame("u1")
	require.NoError(t, err)
	require.True(t, enabled)

	startedID, err := coordinator.StartGame("u1")
	require.NoError(t, err)
	require.Equal(t, gameID, startedID)

	state, err := coordinator.GameSyncStateByUserID("u1")
	require.NoError(t, err)
	require.Equal(t, entity.GamePlaying, state.Status)

	return state
}

// firstAndSecond picks the opening player (the X holder) and the other
// from a game snapshot.
func firstAndSecond(t *testing.T, state GameState) (string, string) {
	t.Helper()

	require.Len(t, state.Players, 2)
	require.True(t, state.Players[0].IsTurn)
	require.Equal(t, entity.PieceX, state.Players[0].Piece)

	return state.Players[0].UserID, state.Players[1].UserID
}

func TestCoordinator_OnlineOffline(t *testing.T) {
	t.Run("A logged-in user has an outsideRoom state", func(t *testing.T) {
		// Given: a fresh coordinator
		coordinator := newCoordinator(1)

		// When: a user comes online
		coordinator.Online("u1", "alice")

		// Then: their view carries identity and status
		state, err := coordinator.UserSyncState("u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", state.User.UserID)
		assert.Equal(t, "alice", state.User.NickName)
		assert.Equal(t, entity.UserOutsideRoom, state.Status)
	})

	t.Run("An offline user cannot be resolved", func(t *testing.T) {
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")
		coordinator.Offline("u1")

		_, err := coordinator.UserSyncState("u1")
		require.ErrorIs(t, err, apperror.ErrUserNotOnline)
	})
}

func TestCoordinator_CreateRoom(t *testing.T) {
	t.Run("Creation alone does not link the creator", func(t *testing.T) {
		// Given: an online user
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")

		// When: they create a room without joining
		roomID := coordinator.CreateRoom("u1", "")
		require.NotEmpty(t, roomID)

		// Then: the room exists with them as sole member, but the user is
		// still outside any room
		roomState, err := coordinator.RoomSyncState(roomID)
		require.NoError(t, err)
		require.Len(t, roomState.Players, 1)
		assert.Equal(t, "u1", roomState.Players[0].UserID)

		_, err = coordinator.RoomSyncStateByUserID("u1")
		require.ErrorIs(t, err, apperror.ErrUserNotInRoom)

		userState, err := coordinator.UserSyncState("u1")
		require.NoError(t, err)
		assert.Equal(t, entity.UserOutsideRoom, userState.Status)
	})

	t.Run("Join after create completes the two-step protocol", func(t *testing.T) {
		// Given: a created room
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")
		roomID := coordinator.CreateRoom("u1", "r1")

		// When: the creator joins it
		require.NoError(t, coordinator.JoinRoom(roomID, "u1"))

		// Then: the link exists, status moved to inRoom, and the upsert did
		// not duplicate the membership record
		userState, err := coordinator.UserSyncState("u1")
		require.NoError(t, err)
		assert.Equal(t, entity.UserInRoom, userState.Status)

		roomState, err := coordinator.RoomSyncStateByUserID("u1")
		require.NoError(t, err)
		assert.Equal(t, "r1", roomState.ID)
		assert.Len(t, roomState.Players, 1)
	})
}

func TestCoordinator_JoinRoom(t *testing.T) {
	t.Run("Fails for an unknown room", func(t *testing.T) {
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")

		err := coordinator.JoinRoom("missing", "u1")
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Fails for an offline user", func(t *testing.T) {
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")
		roomID := coordinator.CreateRoom("u1", "r1")

		err := coordinator.JoinRoom(roomID, "ghost")
		require.ErrorIs(t, err, apperror.ErrUserNotOnline)
	})

	t.Run("A full room rejects a third user without state changes", func(t *testing.T) {
		// Given: a full room
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")
		coordinator.Online("u2", "bob")
		coordinator.Online("u3", "carol")
		roomID := coordinator.CreateRoom("u1", "r1")
		require.NoError(t, coordinator.JoinRoom(roomID, "u1"))
		require.NoError(t, coordinator.JoinRoom(roomID, "u2"))

		// When: a third user joins
		err := coordinator.JoinRoom(roomID, "u3")

		// Then: capacity error; u3 stays outside and unlinked
		require.ErrorIs(t, err, apperror.ErrRoomFull)

		userState, err := coordinator.UserSyncState("u3")
		require.NoError(t, err)
		assert.Equal(t, entity.UserOutsideRoom, userState.Status)

		_, err = coordinator.RoomSyncStateByUserID("u3")
		require.ErrorIs(t, err, apperror.ErrUserNotInRoom)

		roomState, err := coordinator.RoomSyncState(roomID)
		require.NoError(t, err)
		assert.Len(t, roomState.Players, 2)
	})
}

func TestCoordinator_LeaveRoom(t *testing.T) {
	t.Run("Returns the room ID and unlinks the user", func(t *testing.T) {
		// Given: two users in a room
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")
		coordinator.Online("u2", "bob")
		roomID := coordinator.CreateRoom("u1", "r1")
		require.NoError(t, coordinator.JoinRoom(roomID, "u1"))
		require.NoError(t, coordinator.JoinRoom(roomID, "u2"))

		// When: one leaves
		leftRoomID, endedGame, err := coordinator.LeaveRoom("u1")

		// Then: the room ID comes back for broadcast, no game was involved,
		// and the room survives with one member
		require.NoError(t, err)
		assert.Equal(t, roomID, leftRoomID)
		assert.Nil(t, endedGame)

		userState, err := coordinator.UserSyncState("u1")
		require.NoError(t, err)
		assert.Equal(t, entity.UserOutsideRoom, userState.Status)

		roomState, err := coordinator.RoomSyncState(roomID)
		require.NoError(t, err)
		assert.Len(t, roomState.Players, 1)
	})

	t.Run("The last leaver deletes the room", func(t *testing.T) {
		// Given: a lone member
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")
		roomID := coordinator.CreateRoom("u1", "r1")
		require.NoError(t, coordinator.JoinRoom(roomID, "u1"))

		// When: they leave
		_, _, err := coordinator.LeaveRoom("u1")
		require.NoError(t, err)

		// Then: the room is gone
		_, err = coordinator.RoomSyncState(roomID)
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Fails for a user outside any room", func(t *testing.T) {
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")

		_, _, err := coordinator.LeaveRoom("u1")
		require.ErrorIs(t, err, apperror.ErrUserNotInRoom)
	})

	t.Run("Leaving mid-game tears the game down", func(t *testing.T) {
		// Given: a running game
		coordinator := newCoordinator(1)
		setupGame(t, coordinator)

		// When: u1 leaves the room
		_, endedGame, err := coordinator.LeaveRoom("u1")
		require.NoError(t, err)

		// Then: the final snapshot is returned, u2 is back to inRoom and no
		// longer linked to any game
		require.NotNil(t, endedGame)
		assert.Equal(t, entity.GameEnd, endedGame.Status)

		u2State, err := coordinator.UserSyncState("u2")
		require.NoError(t, err)
		assert.Equal(t, entity.UserInRoom, u2State.Status)

		_, err = coordinator.GameSyncStateByUserID("u2")
		require.ErrorIs(t, err, apperror.ErrUserNotInGame)
	})
}

func TestCoordinator_GameLifecycle(t *testing.T) {
	t.Run("CreateGame links every member and flips statuses", func(t *testing.T) {
		// Given: a game set up through the full room flow
		coordinator := newCoordinator(1)
		state := setupGame(t, coordinator)

		// Then: exactly one member holds the turn and it is the X holder
		first, second := firstAndSecond(t, state)
		assert.NotEqual(t, first, second)

		for _, userID := range []string{"u1", "u2"} {
			// user status moved to inGame during the game... after StartGame
			// it is still inGame
			userState, err := coordinator.UserSyncState(userID)
			require.NoError(t, err)
			assert.Equal(t, entity.UserInGame, userState.Status)
		}

		// Then: the view is denormalized with nicknames
		names := map[string]string{"u1": "alice", "u2": "bob"}
		for _, player := range state.Players {
			assert.Equal(t, names[player.UserID], player.NickName)
		}
	})

	t.Run("The first mover wins the top row", func(t *testing.T) {
		// Given: a running game
		coordinator := newCoordinator(3)
		state := setupGame(t, coordinator)
		first, second := firstAndSecond(t, state)

		// When: the first mover takes the top row while the second answers
		// elsewhere
		moves := []struct {
			userID string
			action tictactoe.Action
		}{
			{first, tictactoe.Action{Row: 0, Col: 0}},
			{second, tictactoe.Action{Row: 1, Col: 0}},
			{first, tictactoe.Action{Row: 0, Col: 1}},
			{second, tictactoe.Action{Row: 1, Col: 1}},
			{first, tictactoe.Action{Row: 0, Col: 2}},
		}
		for _, move := range moves {
			_, err := coordinator.ActPiece(move.userID, move.action)
			require.NoError(t, err)
		}

		// Then: the game must end with the first mover as winner
		enabled, err := coordinator.EnableEndGame(first)
		require.NoError(t, err)
		require.True(t, enabled)

		final, err := coordinator.EndGame(first)
		require.NoError(t, err)
		assert.Equal(t, entity.GameEnd, final.Status)
		assert.Equal(t, first, final.Winner)

		// Then: the game and its relations are gone; members are back inRoom
		_, err = coordinator.GameSyncStateByUserID(first)
		require.ErrorIs(t, err, apperror.ErrUserNotInGame)

		for _, userID := range []string{first, second} {
			userState, err := coordinator.UserSyncState(userID)
			require.NoError(t, err)
			assert.Equal(t, entity.UserInRoom, userState.Status)
		}

		// Then: ending again is room-scoped and fails cleanly
		_, err = coordinator.EndGame(first)
		require.ErrorIs(t, err, apperror.ErrRoomNotInGame)
	})

	t.Run("A full board without a line is a draw", func(t *testing.T) {
		// Given: a running game
		coordinator := newCoordinator(5)
		state := setupGame(t, coordinator)
		first, second := firstAndSecond(t, state)

		// When: nine moves fill the board without completing a line
		moves := []struct {
			userID string
			action tictactoe.Action
		}{
			{first, tictactoe.Action{Row: 0, Col: 0}},
			{second, tictactoe.Action{Row: 0, Col: 2}},
			{first, tictactoe.Action{Row: 0, Col: 1}},
			{second, tictactoe.Action{Row: 1, Col: 0}},
			{first, tictactoe.Action{Row: 1, Col: 2}},
			{second, tictactoe.Action{Row: 1, Col: 1}},
			{first, tictactoe.Action{Row: 2, Col: 0}},
			{second, tictactoe.Action{Row: 2, Col: 2}},
			{first, tictactoe.Action{Row: 2, Col: 1}},
		}
		for _, move := range moves {
			_, err := coordinator.ActPiece(move.userID, move.action)
			require.NoError(t, err)
		}

		// Then: the game must end with no winner
		enabled, err := coordinator.EnableEndGame(first)
		require.NoError(t, err)
		require.True(t, enabled)

		final, err := coordinator.EndGame(first)
		require.NoError(t, err)
		assert.Equal(t, entity.GameEnd, final.Status)
		assert.Equal(t, "", final.Winner)
	})

	t.Run("Acting out of turn changes nothing", func(t *testing.T) {
		// Given: a running game
		coordinator := newCoordinator(7)
		state := setupGame(t, coordinator)
		_, second := firstAndSecond(t, state)

		// When: the second player tries to open
		_, err := coordinator.ActPiece(second, tictactoe.Action{Row: 0, Col: 0})

		// Then: turn error, board still empty
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		current, err := coordinator.GameSyncStateByUserID(second)
		require.NoError(t, err)
		for row := 0; row < entity.BoardSize; row++ {
			for col := 0; col < entity.BoardSize; col++ {
				assert.Equal(t, entity.EmptyCell, current.Board[row][col])
			}
		}
	})

	t.Run("Acting before the game starts fails", func(t *testing.T) {
		// Given: a created but unstarted game
		coordinator := newCoordinator(1)
		coordinator.Online("u1", "alice")
		coordinator.Online("u2", "bob")
		roomID := coordinator.CreateRoom("u1", "r1")
		require.NoError(t, coordinator.JoinRoom(roomID, "u1"))
		require.NoError(t, coordinator.JoinRoom(roomID, "u2"))
		require.NoError(t, coordinator.SetRoomReady("u1"))
		require.NoError(t, coordinator.SetRoomReady("u2"))
		_, _, err := coordinator.CreateGame("u1")
		require.NoError(t, err)

		// When: either user acts
		_, err = coordinator.ActPiece("u1", tictactoe.Action{Row: 0, Col: 0})

		// Then: the game is not playing
		require.ErrorIs(t, err, apperror.ErrGameNotPlaying)
	})
}

func TestCoordinator_ConcurrentJoins(t *testing.T) {
	// Given: a room with its creator already in and one free seat
	coordinator := newCoordinator(1)
	coordinator.Online("u0", "owner")
	roomID := coordinator.CreateRoom("u0", "r1")
	require.NoError(t, coordinator.JoinRoom(roomID, "u0"))

	contenders := []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8"}
	for _, userID := range contenders {
		coordinator.Online(userID, "nick-"+userID)
	}

	// When: all contenders race for the seat
	var wg sync.WaitGroup
	results := make(chan error, len(contenders))
	for _, userID := range contenders {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			results <- coordinator.JoinRoom(roomID, userID)
		}(userID)
	}
	wg.Wait()
	close(results)

	// Then: exactly one join succeeded; the rest hit the capacity bound
	var successes, fulls int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, apperror.ErrRoomFull)
			fulls++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, len(contenders)-1, fulls)

	roomState, err := coordinator.RoomSyncState(roomID)
	require.NoError(t, err)
	assert.Len(t, roomState.Players, 2)
}

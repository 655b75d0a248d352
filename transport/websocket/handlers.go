package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gridbyte/tictactoe-backend/internal/apperror"
	"github.com/gridbyte/tictactoe-backend/internal/tictactoe"
)

func (that *Server) handleLogin(c *client, payload json.RawMessage) error {
	log := that.logger.With("method", "handleLogin")

	var req loginPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrBadLogin, err)
	}

	if req.UserID == "" || req.NickName == "" {
		return apperror.ErrBadLogin
	}

	c.userID = req.UserID
	that.game.Online(req.UserID, req.NickName)
	that.hub.join(userChannel(req.UserID), c)

	log.Info("user logged in", "userID", req.UserID)

	return that.syncUserSelf(c)
}

func (that *Server) handleLogout(c *client, _ json.RawMessage) error {
	userID, err := that.requireLogin(c)
	if err != nil {
		return err
	}

	// a user still in a room leaves it on the way out
	if roomID, endedGame, err := that.game.LeaveRoom(userID); err == nil {
		if endedGame != nil {
			that.hub.broadcast(gameChannel(endedGame.ID), newMessage(actionSyncGameState, endedGame), c)
			that.hub.clear(gameChannel(endedGame.ID))
		}
		that.syncRoom(c, roomID)
	} else if !errors.Is(err, apperror.ErrUserNotInRoom) {
		return err
	}

	that.game.Offline(userID)
	that.hub.leaveAll(c)
	c.userID = ""

	that.logger.Info("user logged out", "userID", userID)

	return nil
}

func (that *Server) handleCreateRoom(c *client, payload json.RawMessage) error {
	userID, err := that.requireLogin(c)
	if err != nil {
		return err
	}

	var req roomPayload
	if len(payload) > 0 {
		if err = json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	// create, then join: creation alone does not link the creator
	roomID := that.game.CreateRoom(userID, req.RoomID)
	if err = that.joinRoom(c, userID, roomID); err != nil {
		return err
	}

	if err = that.syncUserSelf(c); err != nil {
		return err
	}

	return that.syncRoomByUser(c)
}

func (that *Server) handleJoinRoom(c *client, payload json.RawMessage) error {
	userID, err := that.requireLogin(c)
	if err != nil {
		return err
	}

	var req roomPayload
	if err = json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if req.RoomID == "" {
		return apperror.ErrRoomNotFound
	}

	if err = that.joinRoom(c, userID, req.RoomID); err != nil {
		return err
	}

	if err = that.syncUserSelf(c); err != nil {
		return err
	}

	return that.syncRoomByUser(c)
}

func (that *Server) handleLeaveRoom(c *client, _ json.RawMessage) error {
	userID, err := that.requireLogin(c)
	if err != nil {
		return err
	}

	roomID, endedGame, err := that.game.LeaveRoom(userID)
	if err != nil {
		return err
	}

	if endedGame != nil {
		that.hub.broadcast(gameChannel(endedGame.ID), newMessage(actionSyncGameState, endedGame), c)
		that.hub.clear(gameChannel(endedGame.ID))
	}

	that.hub.leave(roomChannel(roomID), c)
	that.logger.Info("user left room", "userID", userID, "roomID", roomID)

	if err = that.syncUserSelf(c); err != nil {
		return err
	}

	that.syncRoom(c, roomID)

	return nil
}

// handleReadyRoom marks the member ready and, once the room is full and
// unanimous, spawns the game: every room connection enters the game
// channel and gets the fresh game plus their own updated user state.
func (that *Server) handleReadyRoom(c *client, _ json.RawMessage) error {
	userID, err := that.requireLogin(c)
	if err != nil {
		return err
	}

	if err = that.game.SetRoomReady(userID); err != nil {
		return err
	}

	enabled, err := that.game.EnableCreateGame(userID)
	if err != nil {
		return err
	}

	if enabled {
		roomID, gameID, err := that.game.CreateGame(userID)
		if err != nil {
			return err
		}

		that.hub.copyMembers(roomChannel(roomID), gameChannel(gameID))

		if err = that.syncGameByUser(c); err != nil {
			return err
		}

		if err = that.syncUsersInGame(c, userID); err != nil {
			return err
		}
	}

	return that.syncRoomByUser(c)
}

// handleReadyGame marks the member ready and starts the game once all
// members are.
func (that *Server) handleReadyGame(c *client, _ json.RawMessage) error {
	userID, err := that.requireLogin(c)
	if err != nil {
		return err
	}

	if err = that.game.SetGameReady(userID); err != nil {
		return err
	}

	enabled, err := that.game.EnableStartGame(userID)
	if err != nil {
		return err
	}

	if enabled {
		gameID, err := that.game.StartGame(userID)
		if err != nil {
			return err
		}
		that.logger.Info("game started", "gameID", gameID)
	}

	return that.syncGameByUser(c)
}

// handleAct applies a move. A terminal board ends the game: its final
// snapshot (assembled before deletion) goes to the whole game channel,
// which is then disbanded.
func (that *Server) handleAct(c *client, payload json.RawMessage) error {
	userID, err := that.requireLogin(c)
	if err != nil {
		return err
	}

	var action tictactoe.Action
	if err = json.Unmarshal(payload, &action); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	gameID, err := that.game.ActPiece(userID, action)
	if err != nil {
		return err
	}

	that.logger.Info("user acted", "userID", userID, "gameID", gameID)

	enabled, err := that.game.EnableEndGame(userID)
	if err != nil {
		return err
	}

	if !enabled {
		return that.syncGameByUser(c)
	}

	final, err := that.game.EndGame(userID)
	if err != nil {
		return err
	}

	data := newMessage(actionSyncGameState, final)
	that.send(c, actionSyncGameState, final)
	that.hub.broadcast(gameChannel(gameID), data, c)
	that.hub.clear(gameChannel(gameID))

	return nil
}

// think is a keepalive; nothing to do.
func (that *Server) handleThink(_ *client, _ json.RawMessage) error {
	return nil
}

func (that *Server) requireLogin(c *client) (string, error) {
	if c.userID == "" {
		return "", apperror.ErrLoginRequired
	}
	return c.userID, nil
}

func (that *Server) joinRoom(c *client, userID, roomID string) error {
	if err := that.game.JoinRoom(roomID, userID); err != nil {
		return err
	}

	that.hub.join(roomChannel(roomID), c)
	that.logger.Info("user joined room", "userID", userID, "roomID", roomID)

	return nil
}

// syncUserSelf replies the acting user's own state to their connection.
func (that *Server) syncUserSelf(c *client) error {
	state, err := that.game.UserSyncState(c.userID)
	if err != nil {
		return err
	}

	that.send(c, actionSyncUserState, state)

	return nil
}

// syncRoom pushes a room's state to its channel, skipping the acting
// connection. Nothing is sent for a room that emptied out and was
// deleted.
func (that *Server) syncRoom(c *client, roomID string) {
	state, err := that.game.RoomSyncState(roomID)
	if err != nil {
		return
	}

	that.hub.broadcast(roomChannel(roomID), newMessage(actionSyncRoomState, state), c)
}

// syncRoomByUser sends the acting user's room state to them and to the
// rest of the room channel.
func (that *Server) syncRoomByUser(c *client) error {
	state, err := that.game.RoomSyncStateByUserID(c.userID)
	if err != nil {
		return err
	}

	that.send(c, actionSyncRoomState, state)
	that.hub.broadcast(roomChannel(state.ID), newMessage(actionSyncRoomState, state), c)

	return nil
}

// syncGameByUser sends the acting user's game state to them and to the
// rest of the game channel.
func (that *Server) syncGameByUser(c *client) error {
	state, err := that.game.GameSyncStateByUserID(c.userID)
	if err != nil {
		return err
	}

	that.send(c, actionSyncGameState, state)
	that.hub.broadcast(gameChannel(state.ID), newMessage(actionSyncGameState, state), c)

	return nil
}

// syncUsersInGame delivers each game member's updated user state to that
// member's own user channel.
func (that *Server) syncUsersInGame(c *client, userID string) error {
	states, err := that.game.UsersSyncStateInGame(userID)
	if err != nil {
		return err
	}

	for _, state := range states {
		data := newMessage(actionSyncUserState, state)
		if state.User.UserID == c.userID {
			that.send(c, actionSyncUserState, state)
			continue
		}
		that.hub.broadcast(userChannel(state.User.UserID), data, nil)
	}

	return nil
}

package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gridbyte/tictactoe-backend/internal/apperror"
	"github.com/gridbyte/tictactoe-backend/internal/session"
	"github.com/gridbyte/tictactoe-backend/internal/tictactoe"
)

// coordinator is the slice of the session coordinator the transport
// binds inbound events to.
type coordinator interface {
	Online(userID, nickName string)
	Offline(userID string)

	CreateRoom(userID, roomID string) string
	JoinRoom(roomID, userID string) error
	LeaveRoom(userID string) (string, *session.GameState, error)
	SetRoomReady(userID string) error
	EnableCreateGame(userID string) (bool, error)

	CreateGame(userID string) (string, string, error)
	SetGameReady(userID string) error
	EnableStartGame(userID string) (bool, error)
	StartGame(userID string) (string, error)
	ActPiece(userID string, action tictactoe.Action) (string, error)
	EnableEndGame(userID string) (bool, error)
	EndGame(userID string) (*session.GameState, error)

	UserSyncState(userID string) (session.UserState, error)
	RoomSyncState(roomID string) (session.RoomState, error)
	RoomSyncStateByUserID(userID string) (session.RoomState, error)
	GameSyncStateByUserID(userID string) (session.GameState, error)
	UsersSyncStateInGame(userID string) ([]session.UserState, error)
}

type Server struct {
	logger   *slog.Logger
	game     coordinator
	hub      *hub
	upgrader websocket.Upgrader

	handlers map[string]func(c *client, payload json.RawMessage) error
}

func New(logger *slog.Logger, game coordinator) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		game:   game,
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		handlers: make(map[string]func(*client, json.RawMessage) error),
	}

	server.handlers[actionLogin] = server.handleLogin
	server.handlers[actionLogout] = server.handleLogout
	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionLeaveRoom] = server.handleLeaveRoom
	server.handlers[actionReadyRoom] = server.handleReadyRoom
	server.handlers[actionReadyGame] = server.handleReadyGame
	server.handlers[actionAct] = server.handleAct
	server.handlers[actionThink] = server.handleThink

	return server
}

// Handler exposes the websocket endpoint for mounting and for tests.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)
	return mux
}

// Start - starts the websocket server and shuts it down when the context
// is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(conn)
	go c.writePump(that.logger)

	log.Info("connection established", "remote", conn.RemoteAddr().String())

	that.readLoop(c)
}

// readLoop dispatches inbound messages until the connection dies or a
// hard error terminates it.
func (that *Server) readLoop(c *client) {
	log := that.logger.With("method", "readLoop")

	defer func() {
		that.disconnect(c)
		c.shutdown()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Info("connection closed", "error", err)
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.sendError(c, "unknown action: "+message.Action)
			continue
		}

		if err = handler(c, message.Payload); err != nil {
			if errors.Is(err, apperror.ErrBadLogin) {
				// hard error: drop this connection, nothing else
				that.sendError(c, err.Error())
				return
			}

			log.Info("action rejected", "action", message.Action, "error", err)
			that.sendError(c, err.Error())
		}
	}
}

// disconnect is the transport-side "user left" signal: the user leaves
// their room, goes offline and the connection detaches from all channels.
func (that *Server) disconnect(c *client) {
	if c.userID == "" {
		that.hub.leaveAll(c)
		return
	}

	log := that.logger.With("method", "disconnect", "userID", c.userID)

	roomID, endedGame, err := that.game.LeaveRoom(c.userID)
	if err == nil {
		if endedGame != nil {
			that.hub.broadcast(gameChannel(endedGame.ID), newMessage(actionSyncGameState, endedGame), c)
			that.hub.clear(gameChannel(endedGame.ID))
		}
		that.syncRoom(c, roomID)
	} else if !errors.Is(err, apperror.ErrUserNotInRoom) {
		log.Error("failed to leave room", "error", err)
	}

	that.game.Offline(c.userID)
	that.hub.leaveAll(c)
	c.userID = ""

	log.Info("user disconnected")
}

func (that *Server) send(c *client, action string, payload interface{}) {
	if !c.enqueue(newMessage(action, payload)) {
		that.logger.Warn("client unreachable, dropping message", "action", action)
	}
}

func (that *Server) sendError(c *client, message string) {
	that.send(c, actionError, errorPayload{Error: message})
}

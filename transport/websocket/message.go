package websocket

import "encoding/json"

// Inbound and outbound traffic share one envelope: an action name plus a
// raw payload decoded per action.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	actionLogin      = "login"
	actionLogout     = "logout"
	actionCreateRoom = "createRoom"
	actionJoinRoom   = "joinRoom"
	actionLeaveRoom  = "leaveRoom"
	actionReadyRoom  = "readyRoom"
	actionReadyGame  = "readyGame"
	actionAct        = "act"
	actionThink      = "think"

	actionSyncUserState = "syncUserState"
	actionSyncRoomState = "syncRoomState"
	actionSyncGameState = "syncGameState"
	actionError         = "error"
)

type loginPayload struct {
	UserID   string `json:"userId"`
	NickName string `json:"nickName"`
}

type roomPayload struct {
	RoomID string `json:"roomId,omitempty"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func newMessage(action string, payload interface{}) []byte {
	return mustMarshal(Message{
		Action:  action,
		Payload: json.RawMessage(mustMarshal(payload)),
	})
}

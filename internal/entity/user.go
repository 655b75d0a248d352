package entity

const (
	UserOutsideRoom = "outsideRoom"
	UserInRoom      = "inRoom"
	UserInGame      = "inGame"
)

// User is a connected player's identity plus their coarse location in the
// session lifecycle. It holds no references to rooms or games; those links
// live in the coordinator's relation maps.
type User struct {
	ID       string `json:"userId"`
	NickName string `json:"nickName"`
	Status   string `json:"status"`
}

func NewUser(id, nickName string) *User {
	return &User{
		ID:       id,
		NickName: nickName,
		Status:   UserOutsideRoom,
	}
}

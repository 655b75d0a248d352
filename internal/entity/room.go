package entity

// RoomMember is a user's per-room role state, distinct from their identity.
type RoomMember struct {
	UserID  string `json:"userId"`
	IsReady bool   `json:"isReady"`
}

// Room is a pre-game lobby. Members are kept in join order; the slice is
// keyed by UserID, so re-joining resets the existing record instead of
// appending a duplicate.
type Room struct {
	ID         string        `json:"id"`
	MaxPlayers int           `json:"maxPlayers"`
	Members    []*RoomMember `json:"members"`
}

func NewRoom(id string, maxPlayers int) *Room {
	return &Room{
		ID:         id,
		MaxPlayers: maxPlayers,
	}
}

func (that *Room) Member(userID string) *RoomMember {
	for _, member := range that.Members {
		if member.UserID == userID {
			return member
		}
	}
	return nil
}

// AddMember inserts a fresh membership record. If the user is already a
// member their record is reset, readiness included.
func (that *Room) AddMember(userID string) {
	if member := that.Member(userID); member != nil {
		member.IsReady = false
		return
	}

	that.Members = append(that.Members, &RoomMember{UserID: userID})
}

// RemoveMember deletes the user's record; a no-op if they are not a member.
func (that *Room) RemoveMember(userID string) {
	for i, member := range that.Members {
		if member.UserID == userID {
			that.Members = append(that.Members[:i], that.Members[i+1:]...)
			return
		}
	}
}

func (that *Room) IsFull() bool {
	return len(that.Members) >= that.MaxPlayers
}

func (that *Room) IsEmpty() bool {
	return len(that.Members) == 0
}

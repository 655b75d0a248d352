package entity

const (
	GameWaiting = "waiting"
	GamePlaying = "playing"
	GameEnd     = "end"

	PieceX = "X"
	PieceO = "O"

	EmptyCell = ""
)

// BoardSize is fixed: this server only speaks the 3×3 two-player variant.
const BoardSize = 3

// GameMember is a user's per-game role state: assigned piece, readiness
// and whether it is currently their turn.
type GameMember struct {
	UserID  string `json:"userId"`
	Piece   string `json:"piece"`
	IsTurn  bool   `json:"isTurn"`
	IsReady bool   `json:"isReady"`
}

// Game is a single match instance. Members are in piece-assignment order
// and turns rotate through them; currentIndex is the turn cursor. While
// the game is playing, exactly the cursor's member has IsTurn set.
type Game struct {
	ID      string                       `json:"id"`
	Board   [BoardSize][BoardSize]string `json:"board"`
	Status  string                       `json:"status"`
	Members []*GameMember                `json:"members"`

	currentIndex int
}

// NewGame builds a game in waiting state with the turn cursor on the
// first member.
func NewGame(id string, members []*GameMember) *Game {
	game := &Game{
		ID:      id,
		Status:  GameWaiting,
		Members: members,
	}

	if len(members) > 0 {
		members[0].IsTurn = true
	}

	return game
}

func (that *Game) Member(userID string) *GameMember {
	for _, member := range that.Members {
		if member.UserID == userID {
			return member
		}
	}
	return nil
}

func (that *Game) CurrentMember() *GameMember {
	return that.Members[that.currentIndex]
}

func (that *Game) Cell(row, col int) string {
	return that.Board[row][col]
}

// SetPiece writes a piece into an empty cell. It reports false without
// touching the board if the cell is occupied.
func (that *Game) SetPiece(row, col int, piece string) bool {
	if that.Board[row][col] != EmptyCell {
		return false
	}

	that.Board[row][col] = piece

	return true
}

// AdvanceTurn moves the cursor to the next member in rotation order and
// moves IsTurn along with it.
func (that *Game) AdvanceTurn() {
	that.Members[that.currentIndex].IsTurn = false
	that.currentIndex = (that.currentIndex + 1) % len(that.Members)
	that.Members[that.currentIndex].IsTurn = true
}

func (that *Game) IsWaiting() bool {
	return that.Status == GameWaiting
}

func (that *Game) IsPlaying() bool {
	return that.Status == GamePlaying
}

func (that *Game) IsEnded() bool {
	return that.Status == GameEnd
}

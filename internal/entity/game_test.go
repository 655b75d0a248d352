package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTwoPlayerGame() *Game {
	return NewGame("g1", []*GameMember{
		{UserID: "u1", Piece: PieceX},
		{UserID: "u2", Piece: PieceO},
	})
}

func TestNewGame(t *testing.T) {
	// Given: a fresh game
	game := newTwoPlayerGame()

	// Then: it waits with an empty board and the turn on the first member
	assert.Equal(t, GameWaiting, game.Status)
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			assert.Equal(t, EmptyCell, game.Cell(row, col))
		}
	}
	assert.True(t, game.Members[0].IsTurn)
	assert.False(t, game.Members[1].IsTurn)
	assert.Equal(t, "u1", game.CurrentMember().UserID)
}

func TestGame_SetPiece(t *testing.T) {
	t.Run("Writes a piece into an empty cell", func(t *testing.T) {
		// Given: a fresh game
		game := newTwoPlayerGame()

		// When: a piece is placed
		ok := game.SetPiece(1, 1, PieceX)

		// Then: the cell holds it
		assert.True(t, ok)
		assert.Equal(t, PieceX, game.Cell(1, 1))
	})

	t.Run("Refuses an occupied cell without mutating it", func(t *testing.T) {
		// Given: a game with one occupied cell
		game := newTwoPlayerGame()
		require.True(t, game.SetPiece(1, 1, PieceX))

		// When: the other piece targets the same cell
		ok := game.SetPiece(1, 1, PieceO)

		// Then: the write is refused and the cell keeps the original piece
		assert.False(t, ok)
		assert.Equal(t, PieceX, game.Cell(1, 1))
	})
}

func TestGame_AdvanceTurn(t *testing.T) {
	// Given: a fresh game with the turn on the first member
	game := newTwoPlayerGame()

	// When: the turn advances
	game.AdvanceTurn()

	// Then: exactly the second member holds the turn
	assert.False(t, game.Members[0].IsTurn)
	assert.True(t, game.Members[1].IsTurn)
	assert.Equal(t, "u2", game.CurrentMember().UserID)

	// When: it advances again
	game.AdvanceTurn()

	// Then: it wraps back to the first member
	assert.True(t, game.Members[0].IsTurn)
	assert.False(t, game.Members[1].IsTurn)
	assert.Equal(t, "u1", game.CurrentMember().UserID)
}

func TestGameStatusMethods(t *testing.T) {
	t.Run("IsWaiting returns true for a fresh game", func(t *testing.T) {
		game := newTwoPlayerGame()
		assert.True(t, game.IsWaiting())
		assert.False(t, game.IsPlaying())
		assert.False(t, game.IsEnded())
	})

	t.Run("IsPlaying returns true while playing", func(t *testing.T) {
		game := newTwoPlayerGame()
		game.Status = GamePlaying
		assert.True(t, game.IsPlaying())
	})

	t.Run("IsEnded returns true after the end", func(t *testing.T) {
		game := newTwoPlayerGame()
		game.Status = GameEnd
		assert.True(t, game.IsEnded())
	})
}

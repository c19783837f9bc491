// Package game implements the Connect Four domain: bitboard positions,
// move generation, win detection and heuristic evaluation.
package game

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/yourusername/c4engine/internal/zobrist"
)

const (
	// Columns and Rows give the board dimensions.
	Columns = 7
	Rows    = 6

	// colBits is the bitboard stride per column. One bit above each
	// column stays empty so shift-based win detection cannot run across
	// column boundaries.
	colBits = Rows + 1

	// MaxMoves is the number of stones a finished game can hold.
	MaxMoves = Columns * Rows
)

var (
	ErrColumnFull    = errors.New("column is full")
	ErrInvalidColumn = errors.New("column out of range")
)

// Board is an immutable Connect Four position. The zero value is the
// empty board with player 0 to move. Play returns a new Board, so
// positions can be copied freely during search.
type Board struct {
	stones [2]uint64
	count  int
	hash   uint64
}

// moveOrder lists columns center-first; central stones join more
// four-in-a-row lines, so trying them first tightens alpha-beta windows
// sooner.
var moveOrder = [Columns]int{3, 2, 4, 1, 5, 0, 6}

// SideToMove returns the player (0 or 1) whose turn it is.
func (b Board) SideToMove() int { return b.count & 1 }

// MoveCount returns the number of stones on the board.
func (b Board) MoveCount() int { return b.count }

// Hash returns the position fingerprint, maintained incrementally.
func (b Board) Hash() uint64 { return b.hash }

func (b Board) height(col int) int {
	mask := (uint64(1)<<Rows - 1) << (col * colBits)
	return bits.OnesCount64((b.stones[0] | b.stones[1]) & mask)
}

// CanPlay reports whether a stone can be dropped into col.
func (b Board) CanPlay(col int) bool {
	return col >= 0 && col < Columns && b.height(col) < Rows
}

// Play drops the side to move's stone into col and returns the resulting
// position. The caller must check CanPlay first.
func (b Board) Play(col int) Board {
	p := b.SideToMove()
	cell := col*colBits + b.height(col)
	b.stones[p] |= 1 << cell
	b.hash = zobrist.Toggle(b.hash, p, cell)
	b.count++
	return b
}

// Moves returns the playable columns in center-first order.
func (b Board) Moves() []int {
	moves := make([]int, 0, Columns)
	for _, col := range moveOrder {
		if b.CanPlay(col) {
			moves = append(moves, col)
		}
	}
	return moves
}

// HasWon reports whether player p has four connected stones.
func (b Board) HasWon(p int) bool {
	return connected(b.stones[p])
}

// LastMoveWon reports whether the player who just moved has won. This is
// the only way a game ends with a winner, so the searcher checks it
// before expanding a node.
func (b Board) LastMoveWon() bool {
	if b.count == 0 {
		return false
	}
	return connected(b.stones[1-b.SideToMove()])
}

// Full reports whether the board is out of moves (a draw when no one has
// won).
func (b Board) Full() bool { return b.count == MaxMoves }

// connected detects four in a row by folding shifted copies of the
// bitboard: vertical (1), horizontal (colBits) and both diagonals.
func connected(bb uint64) bool {
	for _, dir := range [4]int{1, colBits, colBits - 1, colBits + 1} {
		m := bb & (bb >> dir)
		if m&(m>>(2*dir)) != 0 {
			return true
		}
	}
	return false
}

// FromMoves builds a position from a string of 1-based column digits, the
// common Connect Four game notation (e.g. "44352").
func FromMoves(s string) (Board, error) {
	var b Board
	for i, r := range s {
		if r < '1' || r > '7' {
			return Board{}, fmt.Errorf("move %d: %w: %q", i+1, ErrInvalidColumn, r)
		}
		col := int(r - '1')
		if !b.CanPlay(col) {
			return Board{}, fmt.Errorf("move %d: %w: column %d", i+1, ErrColumnFull, col+1)
		}
		if b.LastMoveWon() {
			return Board{}, fmt.Errorf("move %d: game already decided", i+1)
		}
		b = b.Play(col)
	}
	return b, nil
}

// String renders the board top row first, 'X' for player 0 and 'O' for
// player 1.
func (b Board) String() string {
	var sb strings.Builder
	for row := Rows - 1; row >= 0; row-- {
		for col := 0; col < Columns; col++ {
			bit := uint64(1) << (col*colBits + row)
			switch {
			case b.stones[0]&bit != 0:
				sb.WriteByte('X')
			case b.stones[1]&bit != 0:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

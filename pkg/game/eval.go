package game

import (
	"math/bits"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/c4engine/internal/ttable"
)

// windows holds the bitmask of every possible four-in-a-row line (69 of
// them), built once at startup.
var windows []uint64

func init() {
	addLine := func(cell, dir int) {
		var w uint64
		for i := 0; i < 4; i++ {
			w |= 1 << (cell + i*dir)
		}
		windows = append(windows, w)
	}
	for col := 0; col < Columns; col++ {
		for row := 0; row < Rows; row++ {
			cell := col*colBits + row
			if row+3 < Rows {
				addLine(cell, 1)
			}
			if col+3 < Columns {
				addLine(cell, colBits)
				if row+3 < Rows {
					addLine(cell, colBits+1)
				}
				if row-3 >= 0 {
					addLine(cell, colBits-1)
				}
			}
		}
	}
}

// centerMask covers the middle column, the cell set joining the most
// lines.
const centerMask = (uint64(1)<<Rows - 1) << (3 * colBits)

// evalWeights scores the feature vector produced by features: own and
// opponent center stones, open threes, open twos. Hand-tuned against
// shallow self-play; the scale keeps any heuristic total well inside
// (MinEval, MaxEval).
var evalWeights = []float64{6, -6, 40, -45, 8, -8}

// Evaluate scores a non-terminal position from the side to move's
// perspective.
func Evaluate(b Board) int {
	me := b.SideToMove()
	f := features(b, me)
	score := int(floats.Dot(evalWeights, f))
	if score > ttable.MaxEval {
		score = ttable.MaxEval
	}
	if score < ttable.MinEval {
		score = ttable.MinEval
	}
	return score
}

// features counts, for the given player: center stones (own, opponent),
// unblocked three-in-a-rows (own, opponent) and unblocked two-in-a-rows
// (own, opponent). A line counts only while the opponent has no stone in
// it.
func features(b Board, me int) []float64 {
	opp := 1 - me
	f := make([]float64, 6)
	f[0] = float64(bits.OnesCount64(b.stones[me] & centerMask))
	f[1] = float64(bits.OnesCount64(b.stones[opp] & centerMask))
	for _, w := range windows {
		mine := bits.OnesCount64(b.stones[me] & w)
		theirs := bits.OnesCount64(b.stones[opp] & w)
		switch {
		case theirs == 0 && mine == 3:
			f[2]++
		case mine == 0 && theirs == 3:
			f[3]++
		case theirs == 0 && mine == 2:
			f[4]++
		case mine == 0 && theirs == 2:
			f[5]++
		}
	}
	return f
}

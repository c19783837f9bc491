// Package search implements iterative-deepening alpha-beta search over
// Connect Four positions, using the transposition table to prune
// previously analyzed subtrees.
package search

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yourusername/c4engine/internal/ttable"
	"github.com/yourusername/c4engine/pkg/game"
)

// Info reports the state of a search after each completed depth.
type Info struct {
	Depth   int
	Score   int
	PV      []int // principal variation, 0-based columns
	Nodes   int64
	Elapsed time.Duration
	Load    float64 // transposition table fill for this search
}

// Result is the outcome of a search.
type Result struct {
	BestMove int // 0-based column, -1 if the position is terminal
	Score    int
	Depth    int
	PV       []int
	Nodes    int64
	Elapsed  time.Duration
}

// ProgressFunc receives an Info per completed depth. Returning false
// stops the search; the deepest completed result is still returned.
type ProgressFunc func(Info) bool

// Searcher runs searches against one shared transposition table. A
// Searcher may be reused across searches but runs one root search at a
// time; concurrency inside a search comes from SearchParallel's workers,
// which share the table lock-free. For concurrent root searches, give
// each its own Searcher over the same table: the node counter and stop
// flag here are per-search state.
type Searcher struct {
	tt    *ttable.Table
	nodes atomic.Int64
	stop  atomic.Bool
}

// New creates a Searcher probing and filling tt.
func New(tt *ttable.Table) *Searcher {
	return &Searcher{tt: tt}
}

// Table returns the searcher's transposition table.
func (s *Searcher) Table() *ttable.Table { return s.tt }

// Search runs a single-worker iterative-deepening search to maxDepth.
func (s *Searcher) Search(ctx context.Context, b game.Board, maxDepth int, progress ProgressFunc) Result {
	return s.SearchParallel(ctx, b, maxDepth, 1, progress)
}

// iterate is the deepening loop run by the primary worker.
func (s *Searcher) iterate(b game.Board, maxDepth int, progress ProgressFunc) Result {
	start := time.Now()
	result := Result{BestMove: -1}

	for depth := 1; depth <= maxDepth; depth++ {
		score, move := s.rootSearch(b, depth)
		if s.stop.Load() {
			break // partial iteration, keep the last completed one
		}

		pv := s.principalVariation(b, depth)
		if len(pv) == 0 && move >= 0 {
			// The table may have evicted the root entry already; the
			// chosen move is still known first-hand.
			pv = []int{move}
		}
		result.Score = score
		result.Depth = depth
		result.PV = pv
		result.BestMove = move
		result.Nodes = s.nodes.Load()
		result.Elapsed = time.Since(start)

		if progress != nil {
			ok := progress(Info{
				Depth:   depth,
				Score:   score,
				PV:      pv,
				Nodes:   result.Nodes,
				Elapsed: result.Elapsed,
				Load:    s.tt.Load(),
			})
			if !ok {
				break
			}
		}
		// A proven win or loss cannot be refined by searching deeper.
		if score > ttable.MaxEval || score < ttable.MinEval {
			break
		}
	}

	result.Nodes = s.nodes.Load()
	result.Elapsed = time.Since(start)
	return result
}

// rootSearch runs one full-window iteration at the root and returns the
// score with the chosen move (-1 on a terminal position). Interior nodes
// leave their best move in the table, but the table may evict any entry
// at any time, so the root's move is reported directly rather than read
// back.
func (s *Searcher) rootSearch(b game.Board, depth int) (int, int) {
	s.nodes.Add(1)

	if b.LastMoveWon() {
		return ttable.MinMate, -1
	}
	if b.Full() {
		return 0, -1
	}

	slot := s.tt.Read(b.Hash(), 0)
	moves := b.Moves()
	if slot.Found {
		orderFirst(moves, slot.Move)
	}

	alpha := ttable.MinMate
	bestScore := ttable.MinMate - 1
	bestMove := moves[0]
	for _, col := range moves {
		v := -s.alphaBeta(b.Play(col), depth-1, 1, ttable.MinMate, -alpha)
		if v > bestScore {
			bestScore, bestMove = v, col
		}
		if v > alpha {
			alpha = v
		}
	}

	if s.stop.Load() {
		return bestScore, bestMove
	}
	slot.Move = bestMove
	return s.tt.Write(slot, depth, bestScore, ttable.MinMate, ttable.MaxMate, 0, false), bestMove
}

// alphaBeta is a fail-soft negamax search. ply is the distance from the
// search root; every score is from the side to move's perspective.
func (s *Searcher) alphaBeta(b game.Board, depth, ply, alpha, beta int) int {
	if n := s.nodes.Add(1); n&1023 == 0 && s.stop.Load() {
		return alpha
	}

	// The previous move ended the game: the side to move is mated.
	if b.LastMoveWon() {
		return ttable.MinMate + ply
	}
	if b.Full() {
		return 0
	}

	slot := s.tt.Read(b.Hash(), ply)
	if slot.Found && slot.Depth >= depth {
		switch {
		case !slot.IsUpperBound && !slot.IsLowerBound:
			return slot.Score
		case slot.IsLowerBound:
			if slot.Score >= beta {
				return slot.Score
			}
			if slot.Score > alpha {
				alpha = slot.Score
			}
		case slot.IsUpperBound:
			if slot.Score <= alpha {
				return slot.Score
			}
			if slot.Score < beta {
				beta = slot.Score
			}
		}
	}

	if depth == 0 {
		// Write's return value stands in for the score when a proven
		// bound in the slot beats this heuristic result.
		return s.tt.Write(slot, 0, game.Evaluate(b), alpha, beta, ply, false)
	}

	moves := b.Moves()
	if slot.Found {
		orderFirst(moves, slot.Move)
	}

	alphaOrig := alpha
	bestScore := ttable.MinMate - 1
	bestMove := moves[0]
	for _, col := range moves {
		v := -s.alphaBeta(b.Play(col), depth-1, ply+1, -beta, -alpha)
		if v > bestScore {
			bestScore, bestMove = v, col
		}
		if v > alpha {
			alpha = v
		}
		if alpha >= beta {
			break
		}
	}

	if s.stop.Load() {
		// Aborted subtrees yield unreliable scores; keep them out of the
		// table.
		return bestScore
	}
	slot.Move = bestMove
	return s.tt.Write(slot, depth, bestScore, alphaOrig, beta, ply, false)
}

// orderFirst moves col to the front of moves if present.
func orderFirst(moves []int, col int) {
	for i, m := range moves {
		if m == col {
			copy(moves[1:i+1], moves[:i])
			moves[0] = col
			return
		}
	}
}

// principalVariation reconstructs the expected line by following stored
// best moves. The walk stops at the first miss, terminal position or
// implausible move; the table may have evicted any link of the chain.
func (s *Searcher) principalVariation(b game.Board, maxLen int) []int {
	pv := make([]int, 0, maxLen)
	cur := b
	for ply := 0; ply < maxLen; ply++ {
		if cur.LastMoveWon() || cur.Full() {
			break
		}
		slot := s.tt.Read(cur.Hash(), ply)
		if !slot.Found || !cur.CanPlay(slot.Move) {
			break
		}
		pv = append(pv, slot.Move)
		cur = cur.Play(slot.Move)
	}
	return pv
}

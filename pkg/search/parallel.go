package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/c4engine/internal/ttable"
	"github.com/yourusername/c4engine/pkg/game"
)

// SearchParallel runs an iterative-deepening search with the given number
// of workers. All workers share the transposition table without locks;
// helpers search the same root at staggered depths so their results seed
// the table for the primary worker (and occasionally the other way
// around). Only the primary worker reports progress and produces the
// result.
//
// The table's SetSize and ClearFast must not be called while a search is
// running; see the ttable package.
func (s *Searcher) SearchParallel(ctx context.Context, b game.Board, maxDepth, workers int, progress ProgressFunc) Result {
	if maxDepth < 1 {
		maxDepth = 1
	}
	if maxDepth > maxSearchDepth(b) {
		maxDepth = maxSearchDepth(b)
	}
	if workers < 1 {
		workers = 1
	}

	s.nodes.Store(0)
	s.stop.Store(false)
	s.tt.Tick()
	defer context.AfterFunc(ctx, func() { s.stop.Store(true) })()

	var g errgroup.Group
	for w := 1; w < workers; w++ {
		w := w
		g.Go(func() error {
			s.helper(b, maxDepth, w)
			return nil
		})
	}

	result := s.iterate(b, maxDepth, progress)

	s.stop.Store(true)
	g.Wait()
	return result
}

// helper deepens over the same root as the primary worker. The stagger
// keeps workers spread over different depths instead of racing through
// identical trees.
func (s *Searcher) helper(b game.Board, maxDepth, w int) {
	for depth := 1 + w%2; depth <= maxDepth && !s.stop.Load(); depth++ {
		s.alphaBeta(b, depth, 0, ttable.MinMate, ttable.MaxMate)
	}
}

// maxSearchDepth caps the depth at the table's recordable maximum and at
// the number of moves the board can still hold.
func maxSearchDepth(b game.Board) int {
	d := game.MaxMoves - b.MoveCount()
	if d > ttable.MaxDepth {
		d = ttable.MaxDepth
	}
	if d < 1 {
		d = 1
	}
	return d
}

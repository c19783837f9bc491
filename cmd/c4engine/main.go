// c4engine - a Connect Four analysis engine
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/yourusername/c4engine/internal/ttable"
	"github.com/yourusername/c4engine/pkg/game"
	"github.com/yourusername/c4engine/pkg/search"
)

func main() {
	moves := flag.String("moves", "", "Position as 1-based column digits, e.g. 4453 (empty = initial position)")
	depth := flag.Int("depth", 16, "Maximum search depth in plies")
	hashMB := flag.Int("hash", 64, "Transposition table size in megabytes")
	workers := flag.Int("workers", 1, "Parallel search workers")
	quiet := flag.Bool("quiet", false, "Suppress per-depth progress output")
	flag.Parse()

	if *depth < 1 || *depth > ttable.MaxDepth {
		fmt.Fprintf(os.Stderr, "Error: depth must be in 1..%d\n", ttable.MaxDepth)
		os.Exit(1)
	}
	if *hashMB < 1 || *hashMB > 1<<14 {
		fmt.Fprintln(os.Stderr, "Error: hash size must be in 1..16384 MB")
		os.Exit(1)
	}

	b, err := game.FromMoves(*moves)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(b)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := search.New(ttable.New(*hashMB << 20))

	var progress search.ProgressFunc
	if !*quiet {
		progress = func(info search.Info) bool {
			fmt.Printf("depth %2d  score %s  nodes %9d  time %8s  pv %s\n",
				info.Depth, formatScore(info.Score), info.Nodes,
				info.Elapsed.Round(time.Millisecond), formatPV(info.PV))
			return true
		}
	}

	r := s.SearchParallel(ctx, b, *depth, *workers, progress)

	fmt.Println()
	if r.BestMove < 0 {
		fmt.Println("Game over, no move to make.")
		return
	}
	fmt.Printf("Best move: column %d\n", r.BestMove+1)
	fmt.Printf("Score:     %s\n", formatScore(r.Score))
	fmt.Printf("Line:      %s\n", formatPV(r.PV))
	fmt.Printf("Searched:  %d nodes in %s (depth %d)\n",
		r.Nodes, r.Elapsed.Round(time.Millisecond), r.Depth)
}

// formatScore renders win/loss scores as "win in N" / "loss in N" and
// everything else as a signed number.
func formatScore(score int) string {
	switch {
	case score > ttable.MaxEval:
		return fmt.Sprintf("win in %d", ttable.MaxMate-score)
	case score < ttable.MinEval:
		return fmt.Sprintf("loss in %d", score-ttable.MinMate)
	}
	return fmt.Sprintf("%+d", score)
}

func formatPV(pv []int) string {
	var sb strings.Builder
	for i, col := range pv {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(byte('1' + col))
	}
	return sb.String()
}

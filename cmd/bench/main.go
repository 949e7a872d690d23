package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/gambitgo/gambit/internal/rules"
	"github.com/gambitgo/gambit/internal/search"
	"github.com/pkg/profile"
	"github.com/schollz/progressbar/v3"
)

var benchPositions = []string{
	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 4 3",
	"rnbqkb1r/pp2pppp/3p1n2/8/3NP3/2N5/PPP2PPP/R1BQKB1R b KQkq - 2 5",
	"r2q1rk1/ppp2ppp/2npbn2/2b1p3/2B1P3/2NP1N2/PPP2PPP/R1BQR1K1 w - - 8 8",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
}

func main() {
	depth := 3

	args := os.Args[1:]
	for _, arg := range args {
		if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
			depth = int(parsed)
		} else if arg == "profile" {
			p := profile.Start(profile.ProfilePath("data/bench"))
			defer p.Stop()
		} else if strings.HasPrefix(arg, "help") {
			fmt.Println("usage: bench [depth] [profile]")
			return
		}
	}

	bar := progressbar.Default(int64(len(benchPositions)), fmt.Sprintf("depth %v", depth))

	totalEvaluations := 0
	start := time.Now()

	for _, fen := range benchPositions {
		game, err := rules.NewGame(fen)
		if !IsNil(err) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		searcher := search.NewSearcher(&SilentLogger, game, game.SideToMove())
		result, err := searcher.Search(depth)
		if !IsNil(err) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		_ = bar.Add(1)
		move := "(none)"
		if result.Move.HasValue() {
			move = result.Move.Value().String()
		}
		fmt.Printf("\n%v -> %v (score %v, %v evals)\n",
			fen, move, result.Score, searcher.DebugTotalEvaluations)
		totalEvaluations += searcher.DebugTotalEvaluations
	}

	elapsed := time.Since(start)
	fmt.Printf("\n%v positions at depth %v in %v (%v evals, %.0f evals/s)\n",
		len(benchPositions), depth, elapsed.Round(time.Millisecond),
		totalEvaluations, float64(totalEvaluations)/elapsed.Seconds())
}

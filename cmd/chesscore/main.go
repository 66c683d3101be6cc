// Command chesscore analyses a position, counts perft nodes or runs as a
// UCI engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/game"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/uci"
)

var (
	fen        = flag.String("fen", board.StartFEN, "position to analyse")
	moves      = flag.String("moves", "", "space separated moves to play from -fen, e.g. \"e2e4 e7e5\"")
	depth      = flag.Int("depth", 0, "maximum search depth (0: level default)")
	moveTime   = flag.Duration("movetime", 0, "time budget for the search (0: level default)")
	nodes      = flag.Uint64("nodes", 0, "node budget for the search")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	noTable    = flag.Bool("notable", false, "search without a transposition table")
	threads    = flag.Int("threads", 1, "search threads")
	level      = flag.String("level", "medium", "difficulty preset: easy, medium or hard")
	perft      = flag.Int("perft", 0, "count leaf nodes to this depth instead of searching")
	divide     = flag.Bool("divide", false, "with -perft, print the count below each root move")
	ttdb       = flag.String("ttdb", "", "directory of the table snapshot database (\"default\" for the data dir)")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	verbose    = flag.Bool("v", false, "log every iteration")
	uciMode    = flag.Bool("uci", false, "speak UCI on stdin/stdout instead of analysing once")
	selfPlay   = flag.Int("selfplay", 0, "play the engine against itself from -fen for at most this many plies")
)

func main() {
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
	if *verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		logger.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("chesscore")
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run(logger zerolog.Logger) error {
	if *uciMode {
		u, err := uci.New(os.Stdout, logger)
		if err != nil {
			return err
		}
		return u.Run(context.Background(), os.Stdin)
	}

	g, err := game.FromFEN(*fen)
	if err != nil {
		return err
	}
	for _, s := range strings.Fields(*moves) {
		if err := g.PlayUCI(s); err != nil {
			return err
		}
	}
	pos := g.Position()

	opts := []engine.Option{
		engine.WithThreads(*threads),
		engine.WithHashMB(*hashMB),
		engine.WithLogger(logger),
	}
	if *noTable {
		opts = append(opts, engine.WithoutTT())
	}
	eng, err := engine.NewEngine(opts...)
	if err != nil {
		return err
	}

	if *perft > 0 {
		return runPerft(eng, pos)
	}

	if o := g.Outcome(); o.Status != game.InProgress {
		fmt.Printf("%s (%s)\n", o, o.Result())
		return nil
	}

	d, err := engine.ParseDifficulty(*level)
	if err != nil {
		return err
	}
	limits := engine.Preset(d)
	if *depth > 0 {
		limits.Depth = *depth
	}
	if *moveTime > 0 {
		limits.MoveTime = *moveTime
	}
	limits.Nodes = *nodes

	if *selfPlay > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		agent := &game.EngineAgent{Engine: eng, Limits: limits}
		o, err := game.Run(ctx, g, agent, agent, *selfPlay, logger)
		fmt.Printf("%s %s\n", strings.Join(g.SAN(), " "), o.Result())
		if err != nil {
			return err
		}
		fmt.Println(o)
		return nil
	}

	var store *storage.Store
	if *ttdb != "" && !*noTable {
		store, err = openStore(logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := eng.LoadTable(store, pos.Hash); err != nil && !errors.Is(err, storage.ErrSnapshotNotFound) {
			logger.Warn().Err(err).Msg("ignoring stored table")
		}
	}

	eng.OnInfo = func(info engine.SearchInfo) {
		fmt.Printf("depth %2d  %-9s  nodes %9s  nps %8s  time %6s  hashfull %4d  pv %s\n",
			info.Depth,
			engine.ScoreString(info.Score),
			humanize.Comma(int64(info.Nodes)),
			humanize.SIWithDigits(nps(info.Nodes, info.Time), 1, ""),
			info.Time.Round(time.Millisecond),
			info.HashFull,
			strings.Join(board.SANLine(pos, info.PV), " "),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res := eng.SearchLimits(ctx, pos, g.Hashes(), limits)

	fmt.Printf("bestmove %s (%s)  score %s  depth %d  nodes %s in %s\n",
		res.BestMove,
		res.BestMove.SAN(pos),
		engine.ScoreString(res.Score),
		res.Depth,
		humanize.Comma(int64(res.Nodes)),
		res.Duration.Round(time.Millisecond),
	)
	if res.Aborted {
		logger.Info().Int("depth", res.Depth).Msg("search stopped early; last complete depth reported")
	}

	if store != nil {
		if err := eng.SaveTable(store, pos.Hash); err != nil {
			return err
		}
		st := eng.Table().Stats()
		logger.Info().
			Str("table", humanize.IBytes(uint64(eng.Table().Size())*16)).
			Str("hitrate", fmt.Sprintf("%.1f%%", eng.Table().HitRate())).
			Uint64("collisions", st.Collisions).
			Msg("table saved")
	}
	return nil
}

func runPerft(eng *engine.Engine, pos *board.Position) error {
	start := time.Now()
	if *divide {
		counts := pos.Divide(*perft)
		keys := lo.Keys(counts)
		slices.Sort(keys)
		for _, m := range keys {
			fmt.Printf("%s: %s\n", m, humanize.Comma(int64(counts[m])))
		}
	}
	n := eng.Perft(pos, *perft)
	elapsed := time.Since(start)
	fmt.Printf("perft %d: %s nodes in %s (%s nps)\n",
		*perft,
		humanize.Comma(int64(n)),
		elapsed.Round(time.Millisecond),
		humanize.SIWithDigits(nps(n, elapsed), 1, ""),
	)
	return nil
}

func openStore(logger zerolog.Logger) (*storage.Store, error) {
	opt := storage.WithLogger(logger)
	if *ttdb == "default" {
		return storage.OpenDefault(opt)
	}
	return storage.Open(*ttdb, opt)
}

func nps(n uint64, d time.Duration) float64 {
	return float64(n) / max(d.Seconds(), 1e-3)
}

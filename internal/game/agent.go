package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// ErrNoLegalMove is returned by an Agent asked to move in a finished position.
var ErrNoLegalMove = errors.New("no legal move")

// Agent chooses the next move of a game.
type Agent interface {
	Move(ctx context.Context, g *Game) (board.Move, error)
}

// RandomAgent plays a uniformly random legal move.
type RandomAgent struct {
	rng *rand.Rand
}

// NewRandomAgent returns a RandomAgent whose choices are fixed by seed.
func NewRandomAgent(seed uint64) *RandomAgent {
	return &RandomAgent{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (a *RandomAgent) Move(_ context.Context, g *Game) (board.Move, error) {
	var ml board.MoveList
	g.pos.GenerateLegalMoves(&ml)
	if ml.Len() == 0 {
		return board.NoMove, ErrNoLegalMove
	}
	return ml.Get(a.rng.IntN(ml.Len())), nil
}

// EngineAgent plays the engine's best move under Limits.
type EngineAgent struct {
	Engine *engine.Engine
	Limits engine.Limits
}

func (a *EngineAgent) Move(ctx context.Context, g *Game) (board.Move, error) {
	res := a.Engine.SearchLimits(ctx, g.Position(), g.Hashes(), a.Limits)
	if res.BestMove == board.NoMove {
		if err := ctx.Err(); err != nil {
			return board.NoMove, err
		}
		return board.NoMove, ErrNoLegalMove
	}
	return res.BestMove, nil
}

// Run lets white and black alternate moves on g until the game ends.
// When maxPlies is positive and that many moves have been played without
// a result, the players agree a draw. Run returns early with ctx's error
// if ctx is cancelled between moves.
func Run(ctx context.Context, g *Game, white, black Agent, maxPlies int, log zerolog.Logger) (Outcome, error) {
	for plies := 0; ; plies++ {
		o := g.Outcome()
		if o.Status != InProgress {
			log.Debug().Str("result", o.Result()).Stringer("outcome", o).Msg("game over")
			return o, nil
		}
		if maxPlies > 0 && plies >= maxPlies {
			g.AgreeDraw()
			continue
		}
		if err := ctx.Err(); err != nil {
			return o, err
		}

		side := g.pos.SideToMove
		agent := white
		if side == board.Black {
			agent = black
		}
		m, err := agent.Move(ctx, g)
		if err != nil {
			return o, fmt.Errorf("%s to move: %w", side, err)
		}
		san := m.SAN(g.pos)
		if err := g.Play(m); err != nil {
			return o, fmt.Errorf("%s played %s: %w", side, m, err)
		}
		log.Debug().Int("ply", len(g.moves)).Str("move", san).Msg("played")
	}
}

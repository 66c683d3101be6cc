package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the engine settings fixed at construction.
type Config struct {
	MaxDepth      int           // iterative deepening stops after this depth
	MoveTime      time.Duration // per-search time budget, 0 for none
	Nodes         uint64        // per-search node budget, 0 for none
	TTEntries     int           // transposition table slots
	Threads       int           // root-split workers
	UseTT         bool
	QuiescenceCap int // extra plies quiescence may add
	Evaluator     EvaluatorFactory
	Logger        zerolog.Logger
}

// DefaultConfig returns the settings NewEngine starts from.
func DefaultConfig() Config {
	return Config{
		MaxDepth:      64,
		MoveTime:      5 * time.Second,
		TTEntries:     EntriesForMB(16),
		Threads:       1,
		UseTT:         true,
		QuiescenceCap: 32,
		Evaluator:     NewClassical,
		Logger:        zerolog.Nop(),
	}
}

// Option modifies a Config.
type Option func(*Config)

// WithThreads sets the number of search workers.
func WithThreads(n int) Option {
	return func(c *Config) { c.Threads = n }
}

// WithHashEntries sizes the transposition table in slots.
func WithHashEntries(n int) Option {
	return func(c *Config) { c.TTEntries = n }
}

// WithHashMB sizes the transposition table in megabytes.
func WithHashMB(mb int) Option {
	return func(c *Config) { c.TTEntries = EntriesForMB(mb) }
}

// WithMaxDepth caps the iterative deepening depth.
func WithMaxDepth(d int) Option {
	return func(c *Config) { c.MaxDepth = d }
}

// WithMoveTime sets the default time budget; 0 disables it.
func WithMoveTime(d time.Duration) Option {
	return func(c *Config) { c.MoveTime = d }
}

// WithNodeLimit sets the default node budget; 0 disables it.
func WithNodeLimit(n uint64) Option {
	return func(c *Config) { c.Nodes = n }
}

// WithoutTT disables the transposition table.
func WithoutTT() Option {
	return func(c *Config) { c.UseTT = false }
}

// WithEvaluator replaces the static evaluator.
func WithEvaluator(f EvaluatorFactory) Option {
	return func(c *Config) { c.Evaluator = f }
}

// WithLogger sets the logger used for per-iteration debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithQuiescenceCap bounds the quiescence search depth.
func WithQuiescenceCap(n int) Option {
	return func(c *Config) { c.QuiescenceCap = n }
}

func (c Config) validate() error {
	switch {
	case c.MaxDepth < 1 || c.MaxDepth >= MaxPly:
		return fmt.Errorf("max depth %d outside [1, %d]: %w", c.MaxDepth, MaxPly-1, ErrInvalidConfig)
	case c.MoveTime < 0:
		return fmt.Errorf("negative move time %v: %w", c.MoveTime, ErrInvalidConfig)
	case c.Threads < 1 || c.Threads > maxThreads:
		return fmt.Errorf("threads %d outside [1, %d]: %w", c.Threads, maxThreads, ErrInvalidConfig)
	case c.UseTT && c.TTEntries < 1:
		return fmt.Errorf("transposition table needs at least one entry, got %d: %w", c.TTEntries, ErrInvalidConfig)
	case c.QuiescenceCap < 0 || c.QuiescenceCap > MaxPly:
		return fmt.Errorf("quiescence cap %d outside [0, %d]: %w", c.QuiescenceCap, MaxPly, ErrInvalidConfig)
	case c.Evaluator == nil:
		return fmt.Errorf("no evaluator: %w", ErrInvalidConfig)
	}
	return nil
}

const maxThreads = 256

// Difficulty selects a canned set of search limits.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// Preset returns the limits for a difficulty level.
func Preset(d Difficulty) Limits {
	switch d {
	case Easy:
		return Limits{Depth: 3, MoveTime: 500 * time.Millisecond}
	case Hard:
		return Limits{Depth: 9, MoveTime: 5 * time.Second}
	}
	return Limits{Depth: 5, MoveTime: 2 * time.Second}
}

// ParseDifficulty maps "easy", "medium" or "hard" to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return 0, fmt.Errorf("unknown level %q: %w", s, ErrInvalidConfig)
}

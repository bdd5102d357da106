package config

import (
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/players"
)

const (
	EnvLogLevel = "TTT_LOG_LEVEL"
	EnvAddr     = "TTT_ADDR"
	EnvSeed     = "TTT_SEED"
)

type Config struct {
	LogLevel string
	Addr     string

	// Agent and Opponent are player factory configurations.
	Agent    string
	Opponent string

	TrainGames  int
	Rounds      int
	EvalGames   int
	ReportEvery int

	// Seed fixes every random source when non-zero.
	Seed uint64
}

func Default() Config {
	return Config{
		LogLevel:    "info",
		Addr:        "127.0.0.1:3000",
		Agent:       "q",
		Opponent:    "random",
		TrainGames:  20_000,
		Rounds:      1,
		EvalGames:   1_000,
		ReportEvery: 5_000,
	}
}

// Load registers the flags on fs, parses args and validates the result.
// Environment variables replace the defaults, flags replace both.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	c := Default()
	if err := c.fromEnv(); err != nil {
		return c, err
	}

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error (env "+EnvLogLevel+")")
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address (env "+EnvAddr+")")
	fs.StringVar(&c.Agent, "agent", c.Agent, "agent config, e.g. q:alpha=0.2")
	fs.StringVar(&c.Opponent, "opponent", c.Opponent, "opponent config, e.g. minimax or mcts:iterations=2000")
	fs.IntVar(&c.TrainGames, "train", c.TrainGames, "training games per round")
	fs.IntVar(&c.Rounds, "rounds", c.Rounds, "training rounds; with a learning opponent the learners take turns")
	fs.IntVar(&c.EvalGames, "eval", c.EvalGames, "evaluation games played with learning off")
	fs.IntVar(&c.ReportEvery, "report", c.ReportEvery, "log progress every n games, 0 disables")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random seed, 0 for time based (env "+EnvSeed+")")

	if err := fs.Parse(args); err != nil {
		return c, errors.Wrap(err, "parse flags")
	}

	return c, c.Validate()
}

func (c *Config) fromEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}

	if v, ok := os.LookupEnv(EnvAddr); ok {
		c.Addr = v
	}

	if v, ok := os.LookupEnv(EnvSeed); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "%s=%q", EnvSeed, v)
		}
		c.Seed = seed
	}

	return nil
}

func (c Config) Validate() error {
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return errors.Errorf("unknown log level %q", c.LogLevel)
	}

	if c.Addr == "" {
		return errors.New("listen address is empty")
	}

	for _, conf := range []string{c.Agent, c.Opponent} {
		if kind := players.Kind(conf); !isKind(kind) {
			return errors.Errorf("unknown agent kind %q in %q", kind, conf)
		}
	}

	if c.TrainGames < 0 || c.EvalGames < 0 || c.ReportEvery < 0 {
		return errors.Errorf("game counts must not be negative: train=%d eval=%d report=%d", c.TrainGames, c.EvalGames, c.ReportEvery)
	}

	if c.Rounds < 1 {
		return errors.Errorf("rounds must be at least 1, got %d", c.Rounds)
	}

	return nil
}

// Level is the parsed log level. Call after Validate.
func (c Config) Level() slog.Level {
	l, _ := logger.ParseLevel(c.LogLevel)
	return l
}

func isKind(kind string) bool {
	for _, k := range players.Kinds() {
		if k == kind {
			return true
		}
	}

	return false
}

// Package players builds agents from configuration strings.
//
// A configuration is the agent kind, optionally followed by a colon and a
// comma-separated list of parameters, e.g. "q:alpha=0.3,epsilon=0.5" or
// "mcts:iterations=5000". Parameters a kind does not know are an error.
package players

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/mcts"
	"github.com/Zarux/tttagents/pkg/minimax"
	"github.com/Zarux/tttagents/pkg/qlearn"
)

// DefaultConfig is used for an empty configuration string.
var DefaultConfig = "minimax"

type options struct {
	ctx context.Context
	in  io.Reader
	out io.Writer
	log *slog.Logger
}

type Option func(*options)

// WithIO sets where human players read moves from and write prompts to.
// Defaults to stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(o *options) {
		o.in = in
		o.out = out
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithContext bounds the search of agents that think for a while.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

type builder func(token string, params map[string]string, o *options) (agent.Agent, error)

var builders = map[string]builder{
	"random":  newRandom,
	"q":       newQ,
	"minimax": newMinimax,
	"mcts":    newMCTS,
	"human":   newHuman,
}

// Kinds lists the known agent kinds, sorted.
func Kinds() []string {
	return slices.Sorted(maps.Keys(builders))
}

// New creates an agent playing token from config.
func New(token, config string, opts ...Option) (agent.Agent, error) {
	o := &options{
		ctx: context.Background(),
		in:  os.Stdin,
		out: os.Stdout,
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if config == "" {
		config = DefaultConfig
	}

	kind, rest, _ := strings.Cut(config, ":")
	build, ok := builders[kind]
	if !ok {
		return nil, errors.Errorf("unknown agent kind %q, want one of %s", kind, strings.Join(Kinds(), ", "))
	}

	params := splitConfigString(rest)
	a, err := build(token, params, o)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create %q agent", kind)
	}

	if len(params) > 0 {
		return nil, errors.Errorf("unknown parameters for %q agent: %s", kind, strings.Join(slices.Sorted(maps.Keys(params)), ", "))
	}

	return a, nil
}

// Kind is the kind part of config.
func Kind(config string) string {
	if config == "" {
		config = DefaultConfig
	}

	kind, _, _ := strings.Cut(config, ":")
	return kind
}

func newRandom(token string, _ map[string]string, _ *options) (agent.Agent, error) {
	return agent.NewRandom(token)
}

func newQ(token string, params map[string]string, o *options) (agent.Agent, error) {
	cfg := qlearn.DefaultConfig()

	var err error
	for key, field := range map[string]*float64{
		"alpha":         &cfg.Alpha,
		"gamma":         &cfg.Gamma,
		"epsilon":       &cfg.Epsilon,
		"epsilon_min":   &cfg.EpsilonMin,
		"epsilon_decay": &cfg.EpsilonDecay,
	} {
		if *field, err = PopParamOr(params, key, *field); err != nil {
			return nil, err
		}
	}

	train, err := PopParamOr(params, "train", false)
	if err != nil {
		return nil, err
	}

	a, err := qlearn.New(token, cfg)
	if err != nil {
		return nil, err
	}
	a.Train(train)

	return a.WithLogger(o.log), nil
}

func newMinimax(token string, _ map[string]string, o *options) (agent.Agent, error) {
	a, err := minimax.New(token)
	if err != nil {
		return nil, err
	}

	return a.WithLogger(o.log), nil
}

func newMCTS(token string, params map[string]string, o *options) (agent.Agent, error) {
	iterations, err := PopParamOr(params, "iterations", 2000)
	if err != nil {
		return nil, err
	}
	if iterations <= 0 {
		return nil, errors.Errorf("iterations must be positive, got %d", iterations)
	}

	exploration, err := PopParamOr(params, "exploration", 1.414)
	if err != nil {
		return nil, err
	}

	thinkMs, err := PopParamOr(params, "think_ms", 1000)
	if err != nil {
		return nil, err
	}

	a, err := mcts.New(token, iterations)
	if err != nil {
		return nil, err
	}
	a.UpdateExplorationParam(exploration)
	a.UpdateThinkTime(time.Duration(thinkMs) * time.Millisecond)

	return a.WithContext(o.ctx).WithLogger(o.log), nil
}

func newHuman(token string, _ map[string]string, o *options) (agent.Agent, error) {
	return agent.NewHuman(token, o.in, o.out)
}

// splitConfigString splits "k1=v1,k2,k3=v3" into a map. A key without a
// value maps to "".
func splitConfigString(config string) map[string]string {
	params := make(map[string]string)
	if config == "" {
		return params
	}

	for _, part := range strings.Split(config, ",") {
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		params[key] = strings.TrimSpace(value)
	}

	return params
}

// GetParamOr parses params[key] as a T, or returns defaultValue if the key is
// missing. For bools a key without a value is true.
func GetParamOr[T interface{ bool | int | float64 }](params map[string]string, key string, defaultValue T) (T, error) {
	value, exists := params[key]
	if !exists {
		return defaultValue, nil
	}

	var parsed any
	switch any(defaultValue).(type) {
	case int:
		v, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue, errors.Wrapf(err, "failed to parse configuration %s=%q to int", key, value)
		}
		parsed = v
	case float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue, errors.Wrapf(err, "failed to parse configuration %s=%q to float", key, value)
		}
		parsed = v
	case bool:
		switch strings.ToLower(value) {
		case "", "true", "1":
			parsed = true
		case "false", "0":
			parsed = false
		default:
			return defaultValue, errors.Errorf("failed to parse configuration %s=%q to bool", key, value)
		}
	}

	return parsed.(T), nil
}

// PopParamOr is GetParamOr that also removes key from params.
func PopParamOr[T interface{ bool | int | float64 }](params map[string]string, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}

	delete(params, key)
	return value, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Zarux/tttagents/internal/config"
	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/services/game"
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.Seed != 0 {
		agent.SetSeedGeneratorFn(func() uint64 { return cfg.Seed })
	}

	// The terminal belongs to the TUI, so only warnings and errors get through.
	log := logger.NewWithLevel(max(cfg.Level(), slog.LevelWarn))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gameService := game.New(log.Logger)
	if err := gameService.Play(ctx); err != nil {
		log.Error("game failed", "err", err)
		os.Exit(1)
	}
}

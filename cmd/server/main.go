package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/Zarux/tttagents/internal/config"
	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/players"
	"github.com/Zarux/tttagents/services/play"
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

	log := logger.NewWithLevel(cfg.Level())

	svc := play.New(func(token, conf string) (agent.Agent, error) {
		return players.New(token, conf, players.WithLogger(log.Logger))
	}, cfg.Opponent)

	h := play.HTTPHandler(svc)
	handler := rootHandler("/game/v1", h)

	middlewares := []func(http.Handler) http.Handler{
		logger.NewMiddleware(log),
	}

	slices.Reverse(middlewares)

	for _, mw := range middlewares {
		handler = mw(handler)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "err", err)
		}
	}()

	log.Info("listening on", "addr", cfg.Addr, "opponent", cfg.Opponent)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func rootHandler(root string, h http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(root+"/", http.StripPrefix(root, h))
	return mux
}

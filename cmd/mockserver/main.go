package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/httplog/v2"
	"github.com/programme-lv/arena/arenafake"
	"github.com/programme-lv/arena/conf"
)

func main() {
	ctx := context.Background()

	cfg, err := conf.LoadServer(ctx, conf.GetSecretFromAWS)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	requestLogger := httplog.NewLogger("arena-mock", httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		RequestHeaders:   true,
		MessageFieldName: "message",
		Tags: map[string]string{
			"env": "dev",
		},
	})

	srv := arenafake.New(arenafake.Config{
		JwtKey:        cfg.JwtKey,
		AccessTTL:     cfg.AccessTTL,
		RequestLogger: requestLogger,
		Logger:        requestLogger.Logger,
	})
	if err := srv.LoadFixtures(cfg.FixturesPath); err != nil {
		slog.Error("failed to load fixtures", "path", cfg.FixturesPath, "error", err)
		os.Exit(1)
	}

	slog.Info("starting mock server", "address", cfg.Addr, "fixtures", cfg.FixturesPath)
	err = srv.Start(cfg.Addr)
	slog.Error("server stopped", "error", err)
}

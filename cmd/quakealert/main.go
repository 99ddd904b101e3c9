package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/5TUM8L3/quakealert/internal/config"
	"github.com/5TUM8L3/quakealert/internal/feed"
	"github.com/5TUM8L3/quakealert/internal/keepalive"
	"github.com/5TUM8L3/quakealert/internal/logger"
	"github.com/5TUM8L3/quakealert/internal/metrics"
	"github.com/5TUM8L3/quakealert/internal/monitor"
	"github.com/5TUM8L3/quakealert/internal/notify"
	"github.com/5TUM8L3/quakealert/internal/seen"
)

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer log.Sync()

	if cfg.HideConsole {
		hideConsoleWindow(log)
	}

	// Graceful shutdown on Ctrl+C / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tray {
		go startTray(stop, log)
	}

	store := openStore(ctx, cfg, log)
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("close seen-set", zap.Error(err))
		}
	}()
	metrics.SeenIDs.Set(float64(store.Len()))

	start := time.Now().Add(-cfg.Feed.Lookback)
	poller := feed.NewPoller(
		feed.NewClient(cfg.Feed.URL, cfg.Feed.Timeout),
		cfg.Feed.MinMagnitude,
		cfg.Feed.Overlap,
		start,
		log,
	)
	tg := notify.NewTelegram(notify.Options{
		APIURL:  cfg.Telegram.APIURL,
		Token:   cfg.Telegram.Token,
		ChatID:  cfg.Telegram.ChatID,
		Timeout: cfg.Telegram.Timeout,
		DryRun:  cfg.DryRun,
	}, log)

	log.Info("quakealert starting",
		zap.String("version", Version),
		zap.Float64("min_magnitude", cfg.Feed.MinMagnitude),
		zap.Duration("interval", cfg.PollInterval),
		zap.Duration("overlap", cfg.Feed.Overlap),
		zap.Duration("query_window", cfg.QueryWindow()),
		zap.String("seen_backend", cfg.Seen.Backend),
		zap.Bool("dry_run", cfg.DryRun),
	)

	if cfg.NotifyTest {
		msg := fmt.Sprintf("*[test]* quakealert started\n`%s`", time.Now().UTC().Format(time.RFC3339))
		if err := tg.Send(ctx, msg); err != nil {
			log.Warn("start-up test notification failed", zap.Error(err))
		}
	}

	if !cfg.KeepAlive.Disable {
		addr := net.JoinHostPort("", cfg.KeepAlive.Port)
		h := keepalive.Router(keepalive.Status{
			LastPoll: poller.Cursor,
			SeenIDs:  store.Len,
		})
		go func() {
			if err := keepalive.Serve(ctx, addr, h, log.Named("keepalive")); err != nil {
				log.Error("keep-alive server stopped", zap.Error(err))
			}
		}()
	}

	m := monitor.New(poller, store, tg, cfg.PollInterval, log)
	if err := m.Run(ctx); err != nil {
		log.Error("monitor stopped", zap.Error(err))
	}
	log.Info("shutting down")
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) seen.Store {
	l := log.Named("seen")
	if cfg.Seen.Backend != "sqlite" {
		return seen.LoadFile(cfg.Seen.File, l)
	}
	s := seen.OpenSQLite(cfg.Seen.DB, l)
	n, err := s.ImportFile(ctx, cfg.Seen.File)
	switch {
	case err != nil:
		l.Warn("import of JSON seen-set failed", zap.String("path", cfg.Seen.File), zap.Error(err))
	case n > 0:
		l.Info("imported JSON seen-set", zap.String("path", cfg.Seen.File), zap.Int("ids", n))
	}
	return s
}

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/example/sheetbot/internal/bot"
	"github.com/example/sheetbot/internal/catalog"
	"github.com/example/sheetbot/internal/config"
	"github.com/example/sheetbot/internal/database"
	"github.com/example/sheetbot/internal/eventlog"
	"github.com/example/sheetbot/internal/ledger"
	"github.com/example/sheetbot/internal/mirror"
	"github.com/example/sheetbot/internal/scheduler"
)

// flusher persists the ledger and pushes the snapshot to the remote
// mirror. It backs both the periodic job and the shutdown flush.
type flusher struct {
	store      *ledger.Store
	mirror     *mirror.Client
	remotePath string
}

func (f *flusher) Flush(ctx context.Context) error {
	if err := f.store.Persist(); err != nil {
		return err
	}
	if f.mirror == nil {
		return nil
	}
	return f.mirror.Push(ctx, f.store.Path(), f.remotePath)
}

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if err := database.Connect(cfg.DataDir); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	cat := catalog.New(cfg.Modules)

	events, err := eventlog.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to set up event logs: %v", err)
	}

	snapshotPath := filepath.Join(cfg.DataDir, cfg.SnapshotName)
	store := ledger.New(snapshotPath, cat, events)

	var mirrorClient *mirror.Client
	if cfg.MirrorEnabled() {
		mirrorClient = mirror.New(&mirror.TokenSource{
			AppKey:       cfg.DropboxAppKey,
			AppSecret:    cfg.DropboxAppSecret,
			RefreshToken: cfg.DropboxRefreshToken,
		})
		// Restore the latest snapshot before loading; a fresh deploy
		// has nothing remote yet, which is fine.
		pullCtx, pullCancel := context.WithTimeout(ctx, 2*time.Minute)
		if err := mirrorClient.Pull(pullCtx, "/"+cfg.SnapshotName, snapshotPath); err != nil {
			log.Printf("Could not restore snapshot from mirror: %v", err)
		}
		pullCancel()
	} else {
		log.Println("Remote mirror credentials not set, running local-only")
	}

	if err := store.Load(); err != nil {
		var corrupt *ledger.CorruptSnapshotError
		if !errors.As(err, &corrupt) {
			log.Fatalf("Failed to load ledger: %v", err)
		}
		// Explicit recovery policy: keep running, but make the data
		// loss loud and keep the broken file around for inspection.
		log.Printf("DATA LOSS: %v; starting from an empty ledger", corrupt)
		if renameErr := os.Rename(snapshotPath, snapshotPath+".corrupt"); renameErr != nil {
			log.Printf("Could not preserve corrupt snapshot: %v", renameErr)
		}
	}

	b, err := bot.New(bot.Deps{
		Token:   cfg.TelegramToken,
		Store:   store,
		Events:  events,
		Mirror:  mirrorClient,
		Catalog: cat,
		Users:   database.NewUserRepository(),
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	fl := &flusher{store: store, mirror: mirrorClient, remotePath: "/" + cfg.SnapshotName}
	sched := scheduler.New(fl, cfg.SaveInterval)
	sched.Start()

	done := make(chan struct{})

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		cancel()

		sched.Stop()
		b.Stop()

		// Final flush so nothing logged since the last periodic save
		// is lost.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer shutdownCancel()
		if err := fl.Flush(shutdownCtx); err != nil {
			log.Printf("Final flush failed: %v", err)
		}

		close(done)
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	go func() {
		if err := b.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Bot error: %v", err)
		}
	}()

	<-done
	log.Println("Bot stopped successfully")
}

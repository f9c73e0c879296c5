package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concerndesk/internal/auth"
	"concerndesk/internal/config"
	"concerndesk/internal/store"
)

// Worker prunes expired admin sessions on an interval. The auth guard
// already ignores expired rows; this keeps the table from growing forever.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	sessions := auth.NewSessions(db.Client, cfg.SessionTTL)

	log.Printf("session sweeper started, interval %s", cfg.SweepInterval)
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	sweep(ctx, sessions)
	for {
		select {
		case <-ctx.Done():
			log.Println("session sweeper stopped")
			return
		case <-ticker.C:
			sweep(ctx, sessions)
		}
	}
}

func sweep(ctx context.Context, sessions *auth.Sessions) {
	n, err := sessions.DeleteExpired(ctx)
	if err != nil {
		log.Printf("sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("pruned %d expired session(s)", n)
	}
}

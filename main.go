package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/config"
	"github.com/hoshichaam/crm_loyalty_go/internal/database"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories/memrepo"
	"github.com/hoshichaam/crm_loyalty_go/internal/router"
)

func main() {
	// 1) Load env (silent jika .env tidak ada) + fail-fast
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// 2) Storage: postgres (default) atau in-memory untuk dev
	var repos router.Repos
	switch cfg.Storage {
	case config.StorageMemory:
		log.Println("warning: STORAGE=memory, data hilang saat proses berhenti")
		store := memrepo.New()
		repos = router.Repos{
			Users:    store.Users(),
			Members:  store.Members(),
			Points:   store.Points(),
			Vouchers: store.Vouchers(),
			Redeems:  store.Redeems(),
			Tx:       store,
		}
	default:
		db, err := database.Connect(context.Background(), cfg.DSN)
		if err != nil {
			log.Fatalf("Database error: %v", err)
		}
		defer func() { _ = db.Close() }()
		repos = router.Repos{
			Users:    repositories.NewUserRepo(db),
			Members:  repositories.NewMemberRepo(db),
			Points:   repositories.NewPointRepo(db),
			Vouchers: repositories.NewVoucherRepo(db),
			Redeems:  repositories.NewRedeemRepo(db),
			Tx:       repositories.NewTransactor(db),
		}
	}

	// 3) Fiber app + routes
	app := router.New(cfg, repos, router.Options{AccessLog: true})

	// 4) Server start
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting server on %s (env: %s, storage: %s, CORS origins: %s)", addr, cfg.AppEnv, cfg.Storage, cfg.CORSOrigins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server listen error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully.")
}

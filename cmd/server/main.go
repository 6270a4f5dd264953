package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pointage-hq/pointage-backend-go/internal/config"
	"github.com/pointage-hq/pointage-backend-go/internal/domain/snapshot"
	appHTTP "github.com/pointage-hq/pointage-backend-go/internal/handler/http"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/database"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/events"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/jwt"
	"github.com/pointage-hq/pointage-backend-go/internal/pkg/scheduler"
	"github.com/pointage-hq/pointage-backend-go/internal/repository/filestore"
	"github.com/pointage-hq/pointage-backend-go/internal/repository/postgresql"
	"github.com/pointage-hq/pointage-backend-go/internal/service/directory"
	"github.com/pointage-hq/pointage-backend-go/internal/service/ledger"
	"github.com/pointage-hq/pointage-backend-go/internal/service/reconciler"
	"github.com/pointage-hq/pointage-backend-go/internal/transport/check"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logLevel := slog.LevelInfo
	if cfg.App.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	ctx := context.Background()

	var store snapshot.Store
	switch cfg.Store.Type {
	case "file":
		store = filestore.NewStore(cfg.Store.SnapshotFile)
	case "postgres":
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			log.Fatal("Failed to connect to database: ", err)
		}
		pgStore := postgresql.NewSnapshotStore(db)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Fatal("Failed to migrate snapshot schema: ", err)
		}
		store = pgStore
	default:
		log.Fatal("Unsupported store type: ", cfg.Store.Type)
	}

	hub := events.NewHub()
	dir := directory.NewService(hub)
	ledgerService := ledger.NewService(dir, hub)
	reconcilerService := reconciler.NewService(dir, hub)

	snap, err := store.Load(ctx)
	if err != nil {
		log.Fatal("Failed to load snapshot: ", err)
	}
	if snap != nil {
		if err := dir.Restore(ctx, snap); err != nil {
			log.Fatal("Failed to restore snapshot: ", err)
		}
		// Persisted balances may be days old; bring them current before
		// serving reads.
		if err := ledgerService.RecomputeAll(ctx); err != nil {
			slog.Warn("startup balance refresh failed", "error", err)
		}
	}

	checkServer := check.NewServer(reconcilerService, dir)
	if err := checkServer.Start(fmt.Sprintf(":%d", cfg.Check.Port)); err != nil {
		log.Fatal("Failed to start check transport: ", err)
	}

	// Autosave only writes when something actually changed since the last
	// save; the hub marks the directory dirty on every mutation.
	var dirty atomic.Bool
	mutations, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	go func() {
		for range mutations {
			dirty.Store(true)
		}
	}()

	sched := scheduler.NewScheduler()
	sched.AddDailyJob("ledger-refresh", ledgerService.RecomputeAll)
	if cfg.Store.AutosaveSeconds > 0 {
		sched.AddJob("snapshot-autosave", time.Duration(cfg.Store.AutosaveSeconds)*time.Second, func(ctx context.Context) error {
			if !dirty.Swap(false) {
				return nil
			}
			return store.Save(ctx, dir.Snapshot(ctx))
		})
	}
	sched.Start()

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	authHandler := appHTTP.NewAuthHandler(jwtService, cfg.Admin.APIKeyHash)
	employeeHandler := appHTTP.NewEmployeeHandler(dir, ledgerService, reconcilerService)
	router := appHTTP.NewRouter(jwtService, cfg.App.Env, authHandler, employeeHandler)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}
	go func() {
		fmt.Printf("Server running at http://localhost%s\n", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	checkServer.Stop()
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Println("HTTP shutdown error:", err)
	}

	// In-memory state stays authoritative even if this fails; the failure
	// is logged and the process still exits.
	if err := store.Save(ctx, dir.Snapshot(ctx)); err != nil {
		fmt.Println("Failed to save snapshot:", err)
	}
}

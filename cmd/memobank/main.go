package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"memobank/internal/app"
	"memobank/internal/config"
	"memobank/internal/server"
	"memobank/internal/util"
	"memobank/pkg/backup"
	"memobank/pkg/extract"
	"memobank/pkg/importer"
	"memobank/pkg/search"
	"memobank/pkg/storage"
	"memobank/pkg/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("MEMOBANK_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.CatalogPath), 0o755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	// In hosted mode the remote copy of the catalog is authoritative: pull it
	// before opening.
	var syncer *backup.RemoteSyncer
	if cfg.HostedMode {
		syncer, err = backup.NewRemoteSyncer(
			cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.CatalogSyncObject, cfg.MinioUseSSL,
			cfg.PushInterval(),
		)
		if err != nil {
			log.Fatalf("failed to init remote sync: %v", err)
		}
		pullCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		if err := syncer.Pull(pullCtx, cfg.CatalogPath); err != nil {
			cancel()
			log.Fatalf("failed to pull catalog: %v", err)
		}
		cancel()
	}

	catalog, err := store.Open(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to open catalog: %v", err)
	}
	if syncer != nil {
		catalog.SetCommitHook(func() { syncer.MaybePush(catalog) })
	}

	if cfg.AdminEmail != "" {
		created, err := catalog.EnsureAdmin(cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("failed to bootstrap admin: %v", err)
		}
		if created {
			slog.Info("bootstrap admin created", "email", cfg.AdminEmail)
		}
	}

	var blobs storage.BlobStore
	switch cfg.BlobBackend {
	case "s3":
		blobs, err = storage.NewMinioStore(
			cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL,
		)
	default:
		blobs, err = storage.NewLocalStore(cfg.BlobDir)
	}
	if err != nil {
		log.Fatalf("failed to init blob store: %v", err)
	}

	var sessions store.SessionStore
	switch cfg.SessionBackend {
	case "redis":
		sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL())
	default:
		sessions = store.NewJWTSessionStore(cfg.SessionSecret, cfg.SessionTTL())
	}

	indexer := extract.NewIndexer(catalog, extract.NewPDFExtractor())
	appCore := &app.App{Catalog: catalog, Blobs: blobs, Indexer: indexer, Sessions: sessions}

	backups, err := backup.NewManager(catalog, cfg.BackupDir, cfg.BackupRetention)
	if err != nil {
		log.Fatalf("failed to init backups: %v", err)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		Search:         search.NewService(catalog),
		Backups:        backups,
		Importer:       importer.New(catalog, blobs, indexer),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("memobank server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}

	// Final push so a hosted instance never loses writes made since the last
	// interval push.
	if syncer != nil {
		pushCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := syncer.Push(pushCtx, catalog); err != nil {
			logger.Error("final catalog push failed", "err", err)
		}
	}
}

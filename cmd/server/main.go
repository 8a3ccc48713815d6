package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"drivehub/internal/auth"
	"drivehub/internal/config"
	"drivehub/internal/domain/repositories"
	driveRepo "drivehub/internal/domain/repositories/drive"
	"drivehub/internal/handler"
	"drivehub/internal/middleware"
	"drivehub/internal/quotaplan"
	memoryDrive "drivehub/internal/repository/memory/drive"
	"drivehub/internal/repository/postgres"
	postgresDrive "drivehub/internal/repository/postgres/drive"
	serviceDrive "drivehub/internal/service/drive"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// storage bundles the selected persistence backend.
type storage struct {
	objects   driveRepo.FsObjectRepository
	states    driveRepo.StateRepository
	quotas    driveRepo.QuotaRepository
	txManager repositories.TransactionManager
	close     func()
}

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"table_prefix", cfg.TablePrefix,
	)

	// JWT verifier backed by the auth provider's JWKS endpoint
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.close()

	// Storage plan registry from embedded YAML
	planRegistry, err := quotaplan.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load storage plans: %v", err)
	}

	// Services
	hierarchy := serviceDrive.NewHierarchy(store.objects, store.states, config.MaxHierarchySearchDepth)
	fsObjectService := serviceDrive.NewFsObjectService(store.objects, store.states, store.quotas, hierarchy, store.txManager, logger)
	sharingService := serviceDrive.NewSharingService(store.objects, store.states, store.quotas, hierarchy, store.txManager, logger)
	trashService := serviceDrive.NewTrashService(store.objects, store.states, store.quotas, hierarchy, store.txManager, logger)
	quotaService := serviceDrive.NewQuotaService(store.quotas, planRegistry, logger)

	// Handlers
	fsObjectHandler := handler.NewFsObjectHandler(fsObjectService, logger)
	sharingHandler := handler.NewSharingHandler(sharingService, logger)
	trashHandler := handler.NewTrashHandler(trashService, logger)
	quotaHandler := handler.NewQuotaHandler(quotaService, planRegistry, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", fsObjectHandler.HealthCheck)

	// Drive views
	mux.HandleFunc("GET /api/drive/roots", fsObjectHandler.ListRoots)
	mux.HandleFunc("GET /api/drive/favorites", fsObjectHandler.ListFavorites)
	mux.HandleFunc("GET /api/drive/trash", trashHandler.ListTrash)

	// Object creation and metadata
	mux.HandleFunc("POST /api/files", fsObjectHandler.CreateFile)
	mux.HandleFunc("PATCH /api/files/{id}", fsObjectHandler.UpdateFile)
	mux.HandleFunc("POST /api/folders", fsObjectHandler.CreateFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", fsObjectHandler.UpdateFolder)
	mux.HandleFunc("GET /api/folders/{id}/children", fsObjectHandler.ListChildren)
	mux.HandleFunc("POST /api/shortcuts", fsObjectHandler.CreateShortcut)
	mux.HandleFunc("PATCH /api/shortcuts/{id}", fsObjectHandler.UpdateShortcut)

	// Type-agnostic object routes
	mux.HandleFunc("GET /api/objects/{id}", fsObjectHandler.GetObject)
	mux.HandleFunc("GET /api/objects/{id}/ancestors", fsObjectHandler.GetAncestors)
	mux.HandleFunc("PUT /api/objects/{id}/favorite", fsObjectHandler.SetFavorite)

	// Sharing
	mux.HandleFunc("GET /api/objects/{id}/collaborators", sharingHandler.ListCollaborators)
	mux.HandleFunc("POST /api/objects/{id}/share", sharingHandler.Share)
	mux.HandleFunc("PATCH /api/objects/{id}/share", sharingHandler.ChangePermission)
	mux.HandleFunc("DELETE /api/objects/{id}/share/{userId}", sharingHandler.Unshare)

	// Trash lifecycle
	mux.HandleFunc("POST /api/objects/{id}/trash", trashHandler.Trash)
	mux.HandleFunc("POST /api/objects/{id}/restore", trashHandler.Restore)
	mux.HandleFunc("DELETE /api/objects/{id}", trashHandler.Purge)

	// Quota
	mux.HandleFunc("GET /api/users/me/quota", quotaHandler.GetQuota)
	mux.HandleFunc("PUT /api/users/me/quota/plan", quotaHandler.SetPlan)
	mux.HandleFunc("GET /api/quota/plans", quotaHandler.ListPlans)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	root = middleware.Auth(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openStorage wires the repositories for the configured backend. The memory
// backend serves local development and tests; postgres is the default.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.StorageBackend == "memory" {
		logger.Warn("using in-memory storage: all data is lost on shutdown")
		store := memoryDrive.NewStore()
		return &storage{
			objects:   memoryDrive.NewFsObjectRepository(store),
			states:    memoryDrive.NewStateRepository(store),
			quotas:    memoryDrive.NewQuotaRepository(store),
			txManager: memoryDrive.NewTransactionManager(store),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	return &storage{
		objects:   postgresDrive.NewFsObjectRepository(repoConfig),
		states:    postgresDrive.NewStateRepository(repoConfig),
		quotas:    postgresDrive.NewQuotaRepository(repoConfig),
		txManager: postgres.NewTransactionManager(pool),
		close:     pool.Close,
	}, nil
}

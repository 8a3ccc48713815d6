package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"drivehub/internal/auth"
	"drivehub/internal/config"
	models "drivehub/internal/domain/models/drive"
	driveSvc "drivehub/internal/domain/services/drive"
	"drivehub/internal/repository/postgres"
	postgresDrive "drivehub/internal/repository/postgres/drive"
	serviceDrive "drivehub/internal/service/drive"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	if err := seedDemoData(ctx, pool, tables, logger); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
	log.Println("Seeding complete")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createFsObjects := `
		CREATE TABLE IF NOT EXISTS ` + tables.FsObjects + ` (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			parent_id UUID REFERENCES ` + tables.FsObjects + `(id) ON DELETE CASCADE,
			type TEXT NOT NULL CHECK (type IN ('file', 'folder', 'shortcut')),
			location_key TEXT,
			bucket TEXT,
			size_bytes BIGINT,
			is_public BOOLEAN,
			client_origin TEXT,
			ref_id UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createFsObjects); err != nil {
		return err
	}

	createStates := `
		CREATE TABLE IF NOT EXISTS ` + tables.States + ` (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			fs_object_id UUID NOT NULL REFERENCES ` + tables.FsObjects + `(id) ON DELETE CASCADE,
			permission TEXT NOT NULL CHECK (permission IN ('read', 'write', 'owner')),
			favorite BOOLEAN NOT NULL DEFAULT FALSE,
			trash BOOLEAN NOT NULL DEFAULT FALSE,
			trash_root BOOLEAN NOT NULL DEFAULT FALSE,
			root BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(fs_object_id, user_id)
		)
	`
	if _, err := pool.Exec(ctx, createStates); err != nil {
		return err
	}

	createQuotas := `
		CREATE TABLE IF NOT EXISTS ` + tables.Quotas + ` (
			user_id UUID PRIMARY KEY,
			limit_bytes BIGINT NOT NULL,
			used_bytes BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (used_bytes >= 0 AND used_bytes <= limit_bytes)
		)
	`
	if _, err := pool.Exec(ctx, createQuotas); err != nil {
		return err
	}

	indexes := []string{
		// Sibling names are unique under a real parent; root-level names are
		// a per-user namespace checked at the service layer.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `fs_objects_sibling_name ON ` + tables.FsObjects + `(parent_id, name) WHERE parent_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `fs_objects_parent ON ` + tables.FsObjects + `(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `fs_objects_ref ON ` + tables.FsObjects + `(ref_id) WHERE type = 'shortcut'`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `states_user ON ` + tables.States + `(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `states_object ON ` + tables.States + `(fs_object_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `states_user_root ON ` + tables.States + `(user_id) WHERE root = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `states_user_trash ON ` + tables.States + `(user_id) WHERE trash_root = TRUE`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Quotas,
		tables.States,
		tables.FsObjects,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}

	return nil
}

// seedDemoData builds a small two-user drive through the service layer so
// the seeded rows honor every invariant: a shared project folder, a few
// files, a shortcut, and one trashed document.
func seedDemoData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, logger *slog.Logger) error {
	ownerID := getEnv("SEED_OWNER_ID", "11111111-1111-4111-8111-111111111111")
	collaboratorID := getEnv("SEED_COLLABORATOR_ID", "22222222-2222-4222-8222-222222222222")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	objects := postgresDrive.NewFsObjectRepository(repoConfig)
	states := postgresDrive.NewStateRepository(repoConfig)
	quotas := postgresDrive.NewQuotaRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	hierarchy := serviceDrive.NewHierarchy(objects, states, config.MaxHierarchySearchDepth)
	fsObjects := serviceDrive.NewFsObjectService(objects, states, quotas, hierarchy, txManager, logger)
	sharing := serviceDrive.NewSharingService(objects, states, quotas, hierarchy, txManager, logger)
	trash := serviceDrive.NewTrashService(objects, states, quotas, hierarchy, txManager, logger)

	// When admin credentials are present, register the demo identities with
	// the auth provider so seeded tokens resolve to real users.
	ensureDemoUsers(ownerID, collaboratorID)

	log.Println("Seeding demo drive...")

	project, err := fsObjects.CreateFolder(ctx, ownerID, &driveSvc.CreateFolderRequest{Name: "Project Atlas"})
	if err != nil {
		return err
	}
	drafts, err := fsObjects.CreateFolder(ctx, ownerID, &driveSvc.CreateFolderRequest{
		Name:     "Drafts",
		ParentID: &project.Object.ID,
	})
	if err != nil {
		return err
	}

	spec, err := fsObjects.CreateFile(ctx, ownerID, &driveSvc.CreateFileRequest{
		Name:        "architecture.pdf",
		ParentID:    &project.Object.ID,
		LocationKey: "seed/architecture.pdf",
		Bucket:      "drivehub-demo",
		SizeBytes:   482_133,
	})
	if err != nil {
		return err
	}
	if _, err := fsObjects.CreateFile(ctx, ownerID, &driveSvc.CreateFileRequest{
		Name:        "notes.md",
		ParentID:    &drafts.Object.ID,
		LocationKey: "seed/notes.md",
		Bucket:      "drivehub-demo",
		SizeBytes:   2_048,
	}); err != nil {
		return err
	}

	if _, err := sharing.Share(ctx, ownerID, &driveSvc.ShareRequest{
		ObjectID:     project.Object.ID,
		TargetUserID: collaboratorID,
		Permission:   models.PermissionWrite,
	}); err != nil {
		return err
	}
	if _, err := fsObjects.CreateShortcut(ctx, collaboratorID, &driveSvc.CreateShortcutRequest{
		Name:  "architecture (link)",
		RefID: spec.Object.ID,
	}); err != nil {
		return err
	}

	scratch, err := fsObjects.CreateFile(ctx, ownerID, &driveSvc.CreateFileRequest{
		Name:        "scratch.txt",
		LocationKey: "seed/scratch.txt",
		Bucket:      "drivehub-demo",
		SizeBytes:   120,
	})
	if err != nil {
		return err
	}
	if err := trash.Trash(ctx, ownerID, scratch.Object.ID); err != nil {
		return err
	}

	log.Printf("  owner: %s", ownerID)
	log.Printf("  collaborator: %s", collaboratorID)
	return nil
}

// ensureDemoUsers creates the demo users through the Supabase Admin API.
// Skipped silently when no service credentials are configured; existing
// users are reported and ignored.
func ensureDemoUsers(userIDs ...string) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	serviceKey := os.Getenv("SUPABASE_SERVICE_KEY")
	if supabaseURL == "" || serviceKey == "" {
		log.Println("SUPABASE_URL / SUPABASE_SERVICE_KEY not set, skipping demo user creation")
		return
	}

	client := auth.NewAdminClient(supabaseURL, serviceKey)
	for i, id := range userIDs {
		created, err := client.CreateUser(auth.CreateUserRequest{
			Email:        getEnv("SEED_USER_EMAIL_PREFIX", "demo") + "+" + id[:8] + "@example.com",
			Password:     getEnv("SEED_USER_PASSWORD", "drivehub-demo"),
			EmailConfirm: true,
			UserMetadata: map[string]interface{}{"seed_slot": i},
		})
		if err != nil {
			log.Printf("  demo user %s not created: %v", id, err)
			continue
		}
		log.Printf("  demo user created: %s (%s)", created.Email, created.ID)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package drive

import (
	"context"
	"fmt"
	"log/slog"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"
	"drivehub/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresFsObjectRepository implements the FsObjectRepository interface
type PostgresFsObjectRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFsObjectRepository creates a new fs-object repository
func NewFsObjectRepository(config *postgres.RepositoryConfig) driveRepo.FsObjectRepository {
	return &PostgresFsObjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const fsObjectColumns = `id, name, parent_id, type, location_key, bucket, size_bytes, is_public, client_origin, ref_id, created_at, updated_at`

// scanFsObject maps one row onto the tagged union: the nullable variant
// columns are folded into the payload matching the type tag.
func scanFsObject(row interface{ Scan(...interface{}) error }) (*models.FsObject, error) {
	var obj models.FsObject
	var locationKey, bucket, clientOrigin, refID *string
	var sizeBytes *int64
	var isPublic *bool

	err := row.Scan(
		&obj.ID,
		&obj.Name,
		&obj.ParentID,
		&obj.Type,
		&locationKey,
		&bucket,
		&sizeBytes,
		&isPublic,
		&clientOrigin,
		&refID,
		&obj.CreatedAt,
		&obj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch obj.Type {
	case models.TypeFile:
		file := &models.FileAttrs{}
		if locationKey != nil {
			file.LocationKey = *locationKey
		}
		if bucket != nil {
			file.Bucket = *bucket
		}
		if sizeBytes != nil {
			file.SizeBytes = *sizeBytes
		}
		if isPublic != nil {
			file.IsPublic = *isPublic
		}
		if clientOrigin != nil {
			file.ClientOrigin = *clientOrigin
		}
		obj.File = file
	case models.TypeShortcut:
		shortcut := &models.ShortcutAttrs{}
		if refID != nil {
			shortcut.RefID = *refID
		}
		obj.Shortcut = shortcut
	}

	return &obj, nil
}

// variantColumns flattens the union payload back into nullable columns.
func variantColumns(obj *models.FsObject) (locationKey, bucket *string, sizeBytes *int64, isPublic *bool, clientOrigin, refID *string) {
	if obj.File != nil {
		locationKey = &obj.File.LocationKey
		bucket = &obj.File.Bucket
		sizeBytes = &obj.File.SizeBytes
		isPublic = &obj.File.IsPublic
		if obj.File.ClientOrigin != "" {
			clientOrigin = &obj.File.ClientOrigin
		}
	}
	if obj.Shortcut != nil {
		refID = &obj.Shortcut.RefID
	}
	return
}

// Create inserts a new object
func (r *PostgresFsObjectRepository) Create(ctx context.Context, obj *models.FsObject) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, parent_id, type, location_key, bucket, size_bytes, is_public, client_origin, ref_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.tables.FsObjects)

	locationKey, bucket, sizeBytes, isPublic, clientOrigin, refID := variantColumns(obj)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		obj.ID,
		obj.Name,
		obj.ParentID,
		obj.Type,
		locationKey,
		bucket,
		sizeBytes,
		isPublic,
		clientOrigin,
		refID,
		obj.CreatedAt,
		obj.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("an object named %q already exists in this location", obj.Name),
				ResourceType: string(obj.Type),
			}
		}
		return fmt.Errorf("create fs object: %w", err)
	}

	return nil
}

// GetByID retrieves an object by id
func (r *PostgresFsObjectRepository) GetByID(ctx context.Context, id string) (*models.FsObject, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = $1
	`, fsObjectColumns, r.tables.FsObjects)

	executor := postgres.GetExecutor(ctx, r.pool)
	obj, err := scanFsObject(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("fs object %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get fs object: %w", err)
	}

	return obj, nil
}

// GetByIDs retrieves the objects for the given ids
func (r *PostgresFsObjectRepository) GetByIDs(ctx context.Context, ids []string) ([]models.FsObject, error) {
	if len(ids) == 0 {
		return []models.FsObject{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = ANY($1)
	`, fsObjectColumns, r.tables.FsObjects)

	return r.queryMany(ctx, query, ids)
}

// ListByParent lists the immediate children of a folder (nil = root level)
func (r *PostgresFsObjectRepository) ListByParent(ctx context.Context, parentID *string) ([]models.FsObject, error) {
	var query string
	var args []interface{}

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s WHERE parent_id IS NULL ORDER BY name ASC
		`, fsObjectColumns, r.tables.FsObjects)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s WHERE parent_id = $1 ORDER BY name ASC
		`, fsObjectColumns, r.tables.FsObjects)
		args = append(args, *parentID)
	}

	return r.queryMany(ctx, query, args...)
}

// ListShortcutsByRef lists every shortcut whose ref falls in refIDs
func (r *PostgresFsObjectRepository) ListShortcutsByRef(ctx context.Context, refIDs []string) ([]models.FsObject, error) {
	if len(refIDs) == 0 {
		return []models.FsObject{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE type = $1 AND ref_id = ANY($2)
	`, fsObjectColumns, r.tables.FsObjects)

	return r.queryMany(ctx, query, models.TypeShortcut, refIDs)
}

// Update rewrites the object's mutable fields
func (r *PostgresFsObjectRepository) Update(ctx context.Context, obj *models.FsObject) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, parent_id = $2, location_key = $3, bucket = $4,
		    size_bytes = $5, is_public = $6, client_origin = $7, ref_id = $8,
		    updated_at = $9
		WHERE id = $10
	`, r.tables.FsObjects)

	locationKey, bucket, sizeBytes, isPublic, clientOrigin, refID := variantColumns(obj)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		obj.Name,
		obj.ParentID,
		locationKey,
		bucket,
		sizeBytes,
		isPublic,
		clientOrigin,
		refID,
		obj.UpdatedAt,
		obj.ID,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("an object named %q already exists in this location", obj.Name),
				ResourceType: string(obj.Type),
			}
		}
		return fmt.Errorf("update fs object: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("fs object %s: %w", obj.ID, domain.ErrNotFound)
	}

	return nil
}

// DeleteByIDs removes exactly the given rows
func (r *PostgresFsObjectRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s WHERE id = ANY($1)
	`, r.tables.FsObjects)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("delete fs objects: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListSubtreeEdges returns the flat edge rows of rootID and its transitive
// children via a depth-bounded recursive CTE. The depth column both defends
// against parent-pointer cycles in a corrupted store and lets us detect a
// truncated (too deep) result, which is reported as a broken hierarchy.
func (r *PostgresFsObjectRepository) ListSubtreeEdges(ctx context.Context, rootID string, maxDepth int) ([]models.Edge, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT id, parent_id, type, 0 AS depth
			FROM %s
			WHERE id = $1
			UNION ALL
			SELECT o.id, o.parent_id, o.type, s.depth + 1
			FROM %s o
			JOIN subtree s ON o.parent_id = s.id
			WHERE s.depth < $2
		)
		SELECT id, parent_id, type, depth FROM subtree
	`, r.tables.FsObjects, r.tables.FsObjects)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, rootID, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("list subtree edges: %w", err)
	}
	defer rows.Close()

	var edges []models.Edge
	deepest := 0
	for rows.Next() {
		var edge models.Edge
		var depth int
		if err := rows.Scan(&edge.ID, &edge.ParentID, &edge.Type, &depth); err != nil {
			return nil, fmt.Errorf("scan subtree edge: %w", err)
		}
		if depth > deepest {
			deepest = depth
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtree edges: %w", err)
	}

	// Rows at the bound mean the closure was cut off: either an absurdly deep
	// tree or a parent-pointer cycle. Refuse rather than return a partial set.
	if deepest >= maxDepth {
		return nil, fmt.Errorf("subtree of %s exceeds depth %d: %w", rootID, maxDepth, domain.ErrBrokenHierarchy)
	}

	if edges == nil {
		edges = []models.Edge{}
	}

	return edges, nil
}

func (r *PostgresFsObjectRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]models.FsObject, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fs objects: %w", err)
	}
	defer rows.Close()

	var objects []models.FsObject
	for rows.Next() {
		obj, err := scanFsObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fs object: %w", err)
		}
		objects = append(objects, *obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fs objects: %w", err)
	}

	// Return empty slice instead of nil
	if objects == nil {
		objects = []models.FsObject{}
	}

	return objects, nil
}

package drive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"drivehub/internal/domain"
	models "drivehub/internal/domain/models/drive"
	driveRepo "drivehub/internal/domain/repositories/drive"
	"drivehub/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStateRepository implements the StateRepository interface
type PostgresStateRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewStateRepository creates a new state repository
func NewStateRepository(config *postgres.RepositoryConfig) driveRepo.StateRepository {
	return &PostgresStateRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const stateColumns = `id, user_id, fs_object_id, permission, favorite, trash, trash_root, root, created_at, updated_at`

// buildWhere translates a StateFilter into a WHERE clause. Argument
// placeholders continue from startIndex so patch arguments can precede them.
func buildWhere(f driveRepo.StateFilter, startIndex int) (string, []interface{}) {
	var conds []string
	var args []interface{}
	idx := startIndex

	add := func(cond string, value interface{}) {
		conds = append(conds, fmt.Sprintf(cond, idx))
		args = append(args, value)
		idx++
	}

	if f.ID != "" {
		add("id = $%d", f.ID)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.FsObjectID != "" {
		add("fs_object_id = $%d", f.FsObjectID)
	}
	if f.FsObjectIDs != nil {
		add("fs_object_id = ANY($%d)", f.FsObjectIDs)
	}
	if f.Root != nil {
		add("root = $%d", *f.Root)
	}
	if f.Trash != nil {
		add("trash = $%d", *f.Trash)
	}
	if f.TrashRoot != nil {
		add("trash_root = $%d", *f.TrashRoot)
	}
	if f.Favorite != nil {
		add("favorite = $%d", *f.Favorite)
	}
	if f.Permission != nil {
		add("permission = $%d", *f.Permission)
	}

	if len(conds) == 0 {
		// An empty filter would touch every row; refuse at the SQL level.
		return "WHERE false", nil
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// buildSet translates a StatePatch into a SET clause starting at placeholder 1.
func buildSet(p driveRepo.StatePatch) (string, []interface{}) {
	var sets []string
	var args []interface{}
	idx := 1

	add := func(col string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, value)
		idx++
	}

	if p.Permission != nil {
		add("permission", *p.Permission)
	}
	if p.Favorite != nil {
		add("favorite", *p.Favorite)
	}
	if p.Trash != nil {
		add("trash", *p.Trash)
	}
	if p.TrashRoot != nil {
		add("trash_root", *p.TrashRoot)
	}
	if p.Root != nil {
		add("root", *p.Root)
	}
	add("updated_at", time.Now())

	return "SET " + strings.Join(sets, ", "), args
}

func scanState(row interface{ Scan(...interface{}) error }) (*models.State, error) {
	var st models.State
	err := row.Scan(
		&st.ID,
		&st.UserID,
		&st.FsObjectID,
		&st.Permission,
		&st.Favorite,
		&st.Trash,
		&st.TrashRoot,
		&st.Root,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Create inserts a state with upsert semantics on (fs_object_id, user_id):
// a concurrent duplicate never surfaces as a duplicate-key fault, the second
// writer reads back the first writer's row.
func (r *PostgresStateRepository) Create(ctx context.Context, st *models.State) error {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (fs_object_id, user_id)
		DO UPDATE SET fs_object_id = EXCLUDED.fs_object_id
		RETURNING %s
	`, r.tables.States, stateColumns, stateColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	row, err := scanState(executor.QueryRow(ctx, query,
		st.ID,
		st.UserID,
		st.FsObjectID,
		st.Permission,
		st.Favorite,
		st.Trash,
		st.TrashRoot,
		st.Root,
		st.CreatedAt,
		st.UpdatedAt,
	))
	if err != nil {
		return fmt.Errorf("create state: %w", err)
	}

	*st = *row
	return nil
}

// GetOne returns the single state matching the filter
func (r *PostgresStateRepository) GetOne(ctx context.Context, f driveRepo.StateFilter) (*models.State, error) {
	where, args := buildWhere(f, 1)
	query := fmt.Sprintf(`SELECT %s FROM %s %s LIMIT 1`, stateColumns, r.tables.States, where)

	executor := postgres.GetExecutor(ctx, r.pool)
	st, err := scanState(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("state: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get state: %w", err)
	}

	return st, nil
}

// GetMany returns every state matching the filter
func (r *PostgresStateRepository) GetMany(ctx context.Context, f driveRepo.StateFilter) ([]models.State, error) {
	where, args := buildWhere(f, 1)
	query := fmt.Sprintf(`SELECT %s FROM %s %s`, stateColumns, r.tables.States, where)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	var states []models.State
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		states = append(states, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate states: %w", err)
	}

	// Return empty slice instead of nil
	if states == nil {
		states = []models.State{}
	}

	return states, nil
}

// UpdateOne patches the single state matching the filter
func (r *PostgresStateRepository) UpdateOne(ctx context.Context, f driveRepo.StateFilter, p driveRepo.StatePatch) (*models.State, error) {
	set, setArgs := buildSet(p)
	where, whereArgs := buildWhere(f, len(setArgs)+1)
	query := fmt.Sprintf(`
		UPDATE %s %s %s
		RETURNING %s
	`, r.tables.States, set, where, stateColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	st, err := scanState(executor.QueryRow(ctx, query, append(setArgs, whereArgs...)...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("state: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update state: %w", err)
	}

	return st, nil
}

// UpdateMany patches every matching state and returns the affected count
func (r *PostgresStateRepository) UpdateMany(ctx context.Context, f driveRepo.StateFilter, p driveRepo.StatePatch) (int64, error) {
	set, setArgs := buildSet(p)
	where, whereArgs := buildWhere(f, len(setArgs)+1)
	query := fmt.Sprintf(`UPDATE %s %s %s`, r.tables.States, set, where)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, append(setArgs, whereArgs...)...)
	if err != nil {
		return 0, fmt.Errorf("update states: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteOne removes the single state matching the filter
func (r *PostgresStateRepository) DeleteOne(ctx context.Context, f driveRepo.StateFilter) error {
	where, args := buildWhere(f, 1)
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE id IN (SELECT id FROM %s %s LIMIT 1)
	`, r.tables.States, r.tables.States, where)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete state: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("state: %w", domain.ErrNotFound)
	}

	return nil
}

// DeleteMany removes every matching state and returns the affected count
func (r *PostgresStateRepository) DeleteMany(ctx context.Context, f driveRepo.StateFilter) (int64, error) {
	where, args := buildWhere(f, 1)
	query := fmt.Sprintf(`DELETE FROM %s %s`, r.tables.States, where)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete states: %w", err)
	}

	return result.RowsAffected(), nil
}

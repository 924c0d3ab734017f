package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eleven-am/agentpool/internal/domain"
	"github.com/eleven-am/agentpool/internal/xjson"
)

const schema = `
CREATE TABLE IF NOT EXISTS interaction_patterns (
	id                  TEXT PRIMARY KEY,
	workspace_id        TEXT NOT NULL,
	user_id             TEXT NOT NULL DEFAULT '',
	query_intent        TEXT NOT NULL DEFAULT '',
	processing_strategy TEXT NOT NULL DEFAULT '',
	success             INTEGER NOT NULL,
	execution_time_ms   REAL NOT NULL DEFAULT 0,
	satisfaction        REAL,
	synthetic           INTEGER NOT NULL DEFAULT 0,
	created_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_patterns_workspace ON interaction_patterns (workspace_id, created_at);
CREATE INDEX IF NOT EXISTS idx_patterns_user ON interaction_patterns (user_id, created_at);

CREATE TABLE IF NOT EXISTS cold_start_solutions (
	id           TEXT PRIMARY KEY,
	workspace_id TEXT NOT NULL,
	user_id      TEXT NOT NULL DEFAULT '',
	data         TEXT NOT NULL,
	updated_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS workspaces (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL DEFAULT '',
	name            TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS workspace_connections (
	workspace_id    TEXT NOT NULL,
	connection_type TEXT NOT NULL,
	PRIMARY KEY (workspace_id, connection_type)
);
`

const patternColumns = "id, workspace_id, user_id, query_intent, processing_strategy, success, execution_time_ms, satisfaction, synthetic, created_at"

// Store keeps interaction patterns, cold start solutions and workspace
// metadata in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at config.Path and migrates the
// schema. InMemory uses a private in-memory database.
func Open(config domain.StorageConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := config.Path
	if config.InMemory {
		dsn = ":memory:"
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: sqlite storage requires a path or in_memory", domain.ErrInvalidConfig)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, domain.NewStorageError("open", dsn, err)
	}
	// each pooled connection to :memory: would see its own database
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, domain.NewStorageError("set WAL mode", dsn, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, domain.NewStorageError("migrate", dsn, err)
	}

	scoped := logger.With("component", "sqlite-store")
	scoped.Info("sqlite store opened", "path", dsn)
	return &Store{db: db, logger: scoped}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RecentPatterns(ctx context.Context, query domain.PatternQuery) ([]domain.InteractionPattern, error) {
	where, args := whereClause(query)
	stmt := "SELECT " + patternColumns + " FROM interaction_patterns" + where + " ORDER BY created_at DESC, id DESC"
	if query.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrapErr("query patterns", "", err)
	}
	defer rows.Close()

	patterns := make([]domain.InteractionPattern, 0)
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan pattern", "", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("query patterns", "", err)
	}
	return patterns, nil
}

func (s *Store) CountPatterns(ctx context.Context, query domain.PatternQuery) (int, error) {
	where, args := whereClause(query)

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM interaction_patterns"+where, args...).Scan(&count); err != nil {
		return 0, wrapErr("count patterns", "", err)
	}
	return count, nil
}

func (s *Store) AppendPatterns(ctx context.Context, patterns []domain.InteractionPattern) error {
	if len(patterns) == 0 {
		return ctx.Err()
	}
	for i := range patterns {
		if patterns[i].ID == "" || patterns[i].WorkspaceID == "" {
			return fmt.Errorf("%w: pattern requires id and workspace", domain.ErrInvalidInput)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin", "", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO interaction_patterns ("+patternColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return wrapErr("prepare insert", "", err)
	}
	defer stmt.Close()

	for i := range patterns {
		p := &patterns[i]
		var satisfaction sql.NullFloat64
		if p.UserSatisfactionScore != nil {
			satisfaction = sql.NullFloat64{Float64: *p.UserSatisfactionScore, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			p.ID, p.WorkspaceID, p.UserID, p.QueryIntent, p.ProcessingStrategy,
			boolToInt(p.Success), p.ExecutionTimeMs, satisfaction, boolToInt(p.Synthetic),
			p.CreatedAt.UnixNano())
		if err != nil {
			return wrapErr("insert pattern", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit", "", err)
	}
	s.logger.Debug("patterns appended", "count", len(patterns))
	return nil
}

func (s *Store) SaveSolution(ctx context.Context, solution *domain.ColdStartSolution) error {
	if solution == nil || solution.ID == "" {
		return fmt.Errorf("%w: solution id cannot be empty", domain.ErrInvalidInput)
	}

	data, err := xjson.Marshal(solution)
	if err != nil {
		return domain.NewStorageError("encode solution", solution.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cold_start_solutions (id, workspace_id, user_id, data, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		solution.ID, solution.WorkspaceID, solution.UserID, string(data), solution.UpdatedAt.UnixNano())
	if err != nil {
		return wrapErr("save solution", solution.ID, err)
	}
	return nil
}

func (s *Store) LoadSolution(ctx context.Context, id string) (*domain.ColdStartSolution, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM cold_start_solutions WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSolutionNotFound, id)
		}
		return nil, wrapErr("load solution", id, err)
	}

	var solution domain.ColdStartSolution
	if err := xjson.Unmarshal([]byte(data), &solution); err != nil {
		return nil, domain.NewStorageError("decode solution", id, err)
	}
	return &solution, nil
}

// PutWorkspace upserts workspace metadata and replaces its connection types.
func (s *Store) PutWorkspace(ctx context.Context, workspace domain.Workspace, connectionTypes ...string) error {
	if workspace.ID == "" {
		return fmt.Errorf("%w: workspace id cannot be empty", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin", workspace.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workspaces (id, organization_id, name, description) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET organization_id = excluded.organization_id, name = excluded.name, description = excluded.description`,
		workspace.ID, workspace.OrganizationID, workspace.Name, workspace.Description)
	if err != nil {
		return wrapErr("put workspace", workspace.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM workspace_connections WHERE workspace_id = ?", workspace.ID); err != nil {
		return wrapErr("clear connections", workspace.ID, err)
	}
	for _, ct := range connectionTypes {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO workspace_connections (workspace_id, connection_type) VALUES (?, ?)",
			workspace.ID, ct); err != nil {
			return wrapErr("put connection", workspace.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit", workspace.ID, err)
	}
	return nil
}

func (s *Store) GetWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := s.db.QueryRowContext(ctx,
		"SELECT id, organization_id, name, description FROM workspaces WHERE id = ?", id,
	).Scan(&ws.ID, &ws.OrganizationID, &ws.Name, &ws.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: workspace %s", domain.ErrNotFound, id)
		}
		return nil, wrapErr("get workspace", id, err)
	}
	return &ws, nil
}

func (s *Store) ListWorkspaces(ctx context.Context, excludeID string, limit int) ([]domain.Workspace, error) {
	stmt := "SELECT id, organization_id, name, description FROM workspaces WHERE id <> ? ORDER BY id"
	args := []any{excludeID}
	if limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrapErr("list workspaces", "", err)
	}
	defer rows.Close()

	workspaces := make([]domain.Workspace, 0)
	for rows.Next() {
		var ws domain.Workspace
		if err := rows.Scan(&ws.ID, &ws.OrganizationID, &ws.Name, &ws.Description); err != nil {
			return nil, domain.NewStorageError("scan workspace", "", err)
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

func (s *Store) ConnectionTypes(ctx context.Context, workspaceID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT connection_type FROM workspace_connections WHERE workspace_id = ? ORDER BY connection_type", workspaceID)
	if err != nil {
		return nil, wrapErr("connection types", workspaceID, err)
	}
	defer rows.Close()

	types := make([]string, 0)
	for rows.Next() {
		var ct string
		if err := rows.Scan(&ct); err != nil {
			return nil, domain.NewStorageError("scan connection type", workspaceID, err)
		}
		types = append(types, ct)
	}
	return types, rows.Err()
}

func whereClause(query domain.PatternQuery) (string, []any) {
	var conds []string
	var args []any

	if query.WorkspaceID != "" {
		conds = append(conds, "workspace_id = ?")
		args = append(args, query.WorkspaceID)
	}
	if query.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, query.UserID)
	}
	if query.ExcludeUserID != "" {
		conds = append(conds, "user_id <> ?")
		args = append(args, query.ExcludeUserID)
	}
	if query.QueryIntent != "" {
		conds = append(conds, "query_intent = ?")
		args = append(args, query.QueryIntent)
	}
	if query.SuccessOnly {
		conds = append(conds, "success = 1")
	}
	if query.RatedOnly {
		conds = append(conds, "satisfaction IS NOT NULL")
	}
	if !query.IncludeSynthetic {
		conds = append(conds, "synthetic = 0")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPattern(row scanner) (domain.InteractionPattern, error) {
	var p domain.InteractionPattern
	var success, synthetic int
	var satisfaction sql.NullFloat64
	var createdAt int64

	err := row.Scan(&p.ID, &p.WorkspaceID, &p.UserID, &p.QueryIntent, &p.ProcessingStrategy,
		&success, &p.ExecutionTimeMs, &satisfaction, &synthetic, &createdAt)
	if err != nil {
		return p, err
	}

	p.Success = success != 0
	p.Synthetic = synthetic != 0
	if satisfaction.Valid {
		score := satisfaction.Float64
		p.UserSatisfactionScore = &score
	}
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	return p, nil
}

func wrapErr(op, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.NewStorageError(op, key, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

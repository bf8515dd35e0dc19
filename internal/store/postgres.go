package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/syllabus-cli/internal/db"
	"github.com/sells-group/syllabus-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgInsertRun        = `INSERT INTO parse_runs (id, user_id, source_file_ref, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	pgMarkRunFailed    = `UPDATE parse_runs SET status = $1, error = $2, completed_at = $3, updated_at = $3 WHERE id = $4`
	pgMarkRunSucceeded = `UPDATE parse_runs SET status = $1, completed_at = $2, updated_at = $2 WHERE id = $3 AND status = $4`
	pgSelectRun        = `SELECT r.id, r.user_id, r.source_file_ref, r.status, r.error, r.commit_error, c.committed_at, r.created_at, r.completed_at, r.updated_at FROM parse_runs r LEFT JOIN parse_run_commits c ON c.parse_run_id = r.id`
	pgSelectStaging    = `SELECT id, parse_run_id, item_type, payload, confidence, position, created_at FROM staging_items`
	pgInsertMarker     = `INSERT INTO parse_run_commits (parse_run_id, user_id, committed_at) VALUES ($1, $2, $3) ON CONFLICT (parse_run_id) DO NOTHING`
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":           pgInsertRun,
	"mark_run_failed":      pgMarkRunFailed,
	"mark_run_succeeded":   pgMarkRunSucceeded,
	"get_run":              pgSelectRun + ` WHERE r.id = $1`,
	"list_staging":         pgSelectStaging + ` WHERE parse_run_id = $1 ORDER BY position`,
	"insert_commit_marker": pgInsertMarker,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS parse_runs (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id         TEXT NOT NULL,
	source_file_ref TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'succeeded', 'failed')),
	error           TEXT,
	commit_error    TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at    TIMESTAMPTZ,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS staging_items (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	parse_run_id TEXT NOT NULL REFERENCES parse_runs(id),
	item_type    TEXT NOT NULL CHECK (item_type IN ('course', 'class_schedule', 'office_hours', 'assignment')),
	payload      JSONB NOT NULL,
	confidence   DOUBLE PRECISION CHECK (confidence IS NULL OR (confidence >= 0 AND confidence <= 1)),
	position     INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS parse_run_commits (
	parse_run_id TEXT PRIMARY KEY REFERENCES parse_runs(id),
	user_id      TEXT NOT NULL,
	summary      JSONB,
	committed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id       TEXT NOT NULL,
	name          TEXT NOT NULL,
	professor     TEXT NOT NULL DEFAULT '',
	credits       DOUBLE PRECISION,
	grade_weights JSONB,
	timezone      TEXT NOT NULL,
	parse_run_id  TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS course_recurrences (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	course_id    TEXT NOT NULL REFERENCES courses(id),
	parse_run_id TEXT NOT NULL,
	kind         TEXT NOT NULL,
	weekday      SMALLINT NOT NULL CHECK (weekday BETWEEN 0 AND 6),
	start_time   TEXT NOT NULL,
	end_time     TEXT NOT NULL,
	location     TEXT NOT NULL DEFAULT '',
	timezone     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (course_id, kind, weekday, start_time, end_time)
);

CREATE TABLE IF NOT EXISTS calendar_events (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id       TEXT NOT NULL,
	course_id     TEXT NOT NULL REFERENCES courses(id),
	recurrence_id TEXT NOT NULL REFERENCES course_recurrences(id),
	parse_run_id  TEXT NOT NULL REFERENCES parse_runs(id),
	kind          TEXT NOT NULL,
	title         TEXT NOT NULL,
	starts_at     TIMESTAMPTZ NOT NULL,
	ends_at       TIMESTAMPTZ NOT NULL,
	location      TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (recurrence_id, parse_run_id, starts_at)
);

CREATE TABLE IF NOT EXISTS assignments (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id         TEXT NOT NULL,
	course_id       TEXT NOT NULL REFERENCES courses(id),
	parse_run_id    TEXT NOT NULL REFERENCES parse_runs(id),
	staging_item_id TEXT,
	title           TEXT NOT NULL,
	due_at          TIMESTAMPTZ,
	category        TEXT NOT NULL DEFAULT '',
	effort_hours    DOUBLE PRECISION,
	pages           INTEGER,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_parse_runs_user_status ON parse_runs(user_id, status);
CREATE INDEX IF NOT EXISTS idx_staging_items_run ON staging_items(parse_run_id, item_type);
CREATE INDEX IF NOT EXISTS idx_calendar_events_run ON calendar_events(parse_run_id);
CREATE INDEX IF NOT EXISTS idx_assignments_run ON assignments(parse_run_id);
CREATE INDEX IF NOT EXISTS idx_assignments_staging_item ON assignments(staging_item_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// -- parse runs --

func (s *PostgresStore) CreateParseRun(ctx context.Context, userID, sourceFileRef string) (*model.ParseRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, pgInsertRun,
		id, userID, sourceFileRef, string(model.ParseRunStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert parse run")
	}

	return &model.ParseRun{
		ID:            id,
		UserID:        userID,
		SourceFileRef: sourceFileRef,
		Status:        model.ParseRunStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *PostgresStore) MarkParseRunFailed(ctx context.Context, runID, message string) error {
	tag, err := s.pool.Exec(ctx, pgMarkRunFailed,
		string(model.ParseRunStatusFailed), message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark parse run failed %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "parse run %s", runID)
	}
	return nil
}

func (s *PostgresStore) MarkParseRunSucceeded(ctx context.Context, runID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, pgMarkRunSucceeded,
		string(model.ParseRunStatusSucceeded), time.Now().UTC(), runID, string(model.ParseRunStatusPending),
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: mark parse run succeeded %s", runID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetParseRun(ctx context.Context, runID string) (*model.ParseRun, error) {
	r, err := scanPgParseRun(s.pool.QueryRow(ctx, pgSelectRun+` WHERE r.id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "parse run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get parse run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListParseRuns(ctx context.Context, filter RunFilter) ([]model.ParseRun, error) {
	query := pgSelectRun + ` WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND r.user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND r.status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY r.created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list parse runs")
	}
	defer rows.Close()

	var runs []model.ParseRun
	for rows.Next() {
		r, err := scanPgParseRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan parse run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list parse runs iterate")
}

// -- staging items --

func (s *PostgresStore) PutStagingItems(ctx context.Context, runID string, items []model.StagingItem) error {
	stamped, err := stampStagingItems(runID, items, time.Now().UTC())
	if err != nil {
		return eris.Wrap(err, "postgres: put staging items")
	}

	rows := make([][]any, 0, len(stamped))
	for _, it := range stamped {
		rows = append(rows, []any{
			it.ID, it.ParseRunID, string(it.Type), []byte(it.Payload), it.Confidence, it.Position, it.CreatedAt,
		})
	}
	_, err = db.CopyFrom(ctx, s.pool, "staging_items", stagingColumns, rows)
	return eris.Wrap(err, "postgres: put staging items")
}

func (s *PostgresStore) ListStagingItems(ctx context.Context, runID string) ([]model.StagingItem, error) {
	return s.listStaging(ctx, pgSelectStaging+` WHERE parse_run_id = $1 ORDER BY position`, runID)
}

func (s *PostgresStore) ListStagingItemsByType(ctx context.Context, runID string, itemType model.ItemType) ([]model.StagingItem, error) {
	return s.listStaging(ctx, pgSelectStaging+` WHERE parse_run_id = $1 AND item_type = $2 ORDER BY position`, runID, string(itemType))
}

func (s *PostgresStore) listStaging(ctx context.Context, query string, args ...any) ([]model.StagingItem, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list staging items")
	}
	defer rows.Close()

	var items []model.StagingItem
	for rows.Next() {
		var it model.StagingItem
		var itemType string
		var payload []byte
		if err := rows.Scan(&it.ID, &it.ParseRunID, &itemType, &payload, &it.Confidence, &it.Position, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan staging item")
		}
		it.Type = model.ItemType(itemType)
		it.Payload = json.RawMessage(payload)
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list staging items iterate")
}

func (s *PostgresStore) DeleteStagingItems(ctx context.Context, runID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM staging_items WHERE parse_run_id = $1`, runID)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: delete staging items %s", runID)
	}
	return int(tag.RowsAffected()), nil
}

// -- commit / rollback --

func (s *PostgresStore) ApplyCommit(ctx context.Context, plan *model.CommitPlan) (*model.CommitSummary, error) {
	stampPlan(plan)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin commit")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The marker goes first: concurrent commits of the same run block on the
	// primary key and all but one see zero rows affected.
	tag, err := tx.Exec(ctx, pgInsertMarker, plan.ParseRunID, plan.UserID, plan.CommittedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert commit marker %s", plan.ParseRunID)
	}
	if tag.RowsAffected() == 0 {
		return nil, eris.Wrapf(ErrAlreadyCommitted, "parse run %s", plan.ParseRunID)
	}

	weights, err := marshalWeights(plan.Course.GradeWeights)
	if err != nil {
		return nil, eris.Wrap(err, "postgres")
	}

	var courseID string
	err = tx.QueryRow(ctx,
		`INSERT INTO courses (id, user_id, name, professor, credits, grade_weights, timezone, parse_run_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 ON CONFLICT (user_id, name) DO UPDATE SET
		   professor = EXCLUDED.professor, credits = EXCLUDED.credits, grade_weights = EXCLUDED.grade_weights,
		   timezone = EXCLUDED.timezone, updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		plan.Course.ID, plan.UserID, plan.Course.Name, plan.Course.Professor, plan.Course.Credits,
		weights, plan.Timezone, plan.ParseRunID, plan.CommittedAt,
	).Scan(&courseID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: upsert course")
	}

	var events [][]any
	for _, pr := range plan.Recurrences {
		r := pr.Recurrence
		var recID string
		err := tx.QueryRow(ctx,
			`INSERT INTO course_recurrences (id, course_id, parse_run_id, kind, weekday, start_time, end_time, location, timezone, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (course_id, kind, weekday, start_time, end_time) DO UPDATE SET
			   location = EXCLUDED.location, timezone = EXCLUDED.timezone
			 RETURNING id`,
			r.ID, courseID, plan.ParseRunID, string(r.Kind), int(r.Weekday), r.StartTime, r.EndTime,
			r.Location, plan.Timezone, plan.CommittedAt,
		).Scan(&recID)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: upsert recurrence %s %s", r.Weekday, r.StartTime)
		}
		events = append(events, eventRows(plan, courseID, recID, pr.Events)...)
	}

	if _, err := db.CopyFrom(ctx, tx, "calendar_events", eventColumns, events); err != nil {
		return nil, eris.Wrap(err, "postgres: insert calendar events")
	}
	if _, err := db.CopyFrom(ctx, tx, "assignments", assignmentColumns, assignmentRows(plan, courseID)); err != nil {
		return nil, eris.Wrap(err, "postgres: insert assignments")
	}

	summary := plan.Summarize(courseID)
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal commit summary")
	}
	if _, err := tx.Exec(ctx,
		`UPDATE parse_run_commits SET summary = $1 WHERE parse_run_id = $2`,
		summaryJSON, plan.ParseRunID,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: update commit marker")
	}
	if _, err := tx.Exec(ctx,
		`UPDATE parse_runs SET commit_error = NULL, updated_at = $1 WHERE id = $2`,
		plan.CommittedAt, plan.ParseRunID,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: clear commit error")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit")
	}
	return summary, nil
}

func (s *PostgresStore) RecordCommitFailure(ctx context.Context, runID, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE parse_runs SET commit_error = $1, updated_at = $2 WHERE id = $3`,
		message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: record commit failure %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "parse run %s", runID)
	}
	return nil
}

func (s *PostgresStore) ApplyRollback(ctx context.Context, runID string, opts model.RollbackOptions) (*model.RollbackSummary, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin rollback")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	sum := &model.RollbackSummary{ParseRunID: runID}

	tag, err := tx.Exec(ctx,
		`DELETE FROM assignments WHERE parse_run_id = $1
		 OR staging_item_id IN (SELECT id FROM staging_items WHERE parse_run_id = $1)`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: delete assignments")
	}
	sum.DeletedAssignments = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `DELETE FROM calendar_events WHERE parse_run_id = $1`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: delete calendar events")
	}
	sum.DeletedEvents = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `DELETE FROM parse_run_commits WHERE parse_run_id = $1`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: delete commit marker")
	}
	sum.ClearedMarker = tag.RowsAffected() > 0

	if opts.PurgeStaging {
		tag, err = tx.Exec(ctx, `DELETE FROM staging_items WHERE parse_run_id = $1`, runID)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: purge staging items")
		}
		sum.PurgedStagingItems = int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit rollback")
	}
	return sum, nil
}

// -- committed data --

func (s *PostgresStore) ListAssignmentsByRun(ctx context.Context, runID string) ([]model.Assignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, course_id, parse_run_id, staging_item_id, title, due_at, category, effort_hours, pages, created_at
		 FROM assignments WHERE parse_run_id = $1 ORDER BY due_at, title`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assignments")
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.CourseID, &a.ParseRunID, &a.StagingItemID, &a.Title, &a.DueAt,
			&a.Category, &a.EffortHours, &a.Pages, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan assignment")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list assignments iterate")
}

func (s *PostgresStore) ListEventsByRun(ctx context.Context, runID string) ([]model.CalendarEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, course_id, recurrence_id, parse_run_id, kind, title, starts_at, ends_at, location, created_at
		 FROM calendar_events WHERE parse_run_id = $1 ORDER BY starts_at`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list calendar events")
	}
	defer rows.Close()

	var out []model.CalendarEvent
	for rows.Next() {
		var e model.CalendarEvent
		var kind string
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.RecurrenceID, &e.ParseRunID, &kind, &e.Title,
			&e.StartsAt, &e.EndsAt, &e.Location, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan calendar event")
		}
		e.Kind = model.EventKind(kind)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list calendar events iterate")
}

func scanPgParseRun(row pgx.Row) (*model.ParseRun, error) {
	var r model.ParseRun
	var status string
	if err := row.Scan(&r.ID, &r.UserID, &r.SourceFileRef, &status, &r.Error, &r.CommitError,
		&r.CommittedAt, &r.CreatedAt, &r.CompletedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = model.ParseRunStatus(status)
	return &r, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/syllabus-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// The pool is limited to one connection so transactions serialize instead of
// failing with SQLITE_BUSY.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS parse_runs (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	source_file_ref TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'succeeded', 'failed')),
	error           TEXT,
	commit_error    TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at    DATETIME,
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS staging_items (
	id           TEXT PRIMARY KEY,
	parse_run_id TEXT NOT NULL REFERENCES parse_runs(id),
	item_type    TEXT NOT NULL CHECK (item_type IN ('course', 'class_schedule', 'office_hours', 'assignment')),
	payload      TEXT NOT NULL,
	confidence   REAL CHECK (confidence IS NULL OR (confidence >= 0 AND confidence <= 1)),
	position     INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS parse_run_commits (
	parse_run_id TEXT PRIMARY KEY REFERENCES parse_runs(id),
	user_id      TEXT NOT NULL,
	summary      TEXT,
	committed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	name          TEXT NOT NULL,
	professor     TEXT NOT NULL DEFAULT '',
	credits       REAL,
	grade_weights TEXT,
	timezone      TEXT NOT NULL,
	parse_run_id  TEXT NOT NULL,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS course_recurrences (
	id           TEXT PRIMARY KEY,
	course_id    TEXT NOT NULL REFERENCES courses(id),
	parse_run_id TEXT NOT NULL,
	kind         TEXT NOT NULL,
	weekday      INTEGER NOT NULL,
	start_time   TEXT NOT NULL,
	end_time     TEXT NOT NULL,
	location     TEXT NOT NULL DEFAULT '',
	timezone     TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	UNIQUE (course_id, kind, weekday, start_time, end_time)
);

CREATE TABLE IF NOT EXISTS calendar_events (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	course_id     TEXT NOT NULL REFERENCES courses(id),
	recurrence_id TEXT NOT NULL REFERENCES course_recurrences(id),
	parse_run_id  TEXT NOT NULL REFERENCES parse_runs(id),
	kind          TEXT NOT NULL,
	title         TEXT NOT NULL,
	starts_at     DATETIME NOT NULL,
	ends_at       DATETIME NOT NULL,
	location      TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	UNIQUE (recurrence_id, parse_run_id, starts_at)
);

CREATE TABLE IF NOT EXISTS assignments (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	course_id       TEXT NOT NULL REFERENCES courses(id),
	parse_run_id    TEXT NOT NULL REFERENCES parse_runs(id),
	staging_item_id TEXT,
	title           TEXT NOT NULL,
	due_at          DATETIME,
	category        TEXT NOT NULL DEFAULT '',
	effort_hours    REAL,
	pages           INTEGER,
	created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parse_runs_user_status ON parse_runs(user_id, status);
CREATE INDEX IF NOT EXISTS idx_staging_items_run ON staging_items(parse_run_id, item_type);
CREATE INDEX IF NOT EXISTS idx_calendar_events_run ON calendar_events(parse_run_id);
CREATE INDEX IF NOT EXISTS idx_assignments_run ON assignments(parse_run_id);
CREATE INDEX IF NOT EXISTS idx_assignments_staging_item ON assignments(staging_item_id);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// -- parse runs --

func (s *SQLiteStore) CreateParseRun(ctx context.Context, userID, sourceFileRef string) (*model.ParseRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parse_runs (id, user_id, source_file_ref, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, sourceFileRef, string(model.ParseRunStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert parse run")
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

func (s *SQLiteStore) MarkParseRunFailed(ctx context.Context, runID, message string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE parse_runs SET status = ?, error = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		string(model.ParseRunStatusFailed), message, now, now, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark parse run failed %s", runID)
	}
	return checkRowsAffected(res, "parse run", runID)
}

func (s *SQLiteStore) MarkParseRunSucceeded(ctx context.Context, runID string) (bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE parse_runs SET status = ?, completed_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(model.ParseRunStatusSucceeded), now, now, runID, string(model.ParseRunStatusPending),
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: mark parse run succeeded %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

const sqliteSelectRun = `SELECT r.id, r.user_id, r.source_file_ref, r.status, r.error, r.commit_error,
	c.committed_at, r.created_at, r.completed_at, r.updated_at
	FROM parse_runs r LEFT JOIN parse_run_commits c ON c.parse_run_id = r.id`

func (s *SQLiteStore) GetParseRun(ctx context.Context, runID string) (*model.ParseRun, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelectRun+` WHERE r.id = ?`, runID)
	r, err := scanParseRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "parse run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get parse run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListParseRuns(ctx context.Context, filter RunFilter) ([]model.ParseRun, error) {
	query := sqliteSelectRun + ` WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND r.user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND r.status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY r.created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list parse runs")
	}
	defer rows.Close()

	var runs []model.ParseRun
	for rows.Next() {
		r, err := scanParseRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan parse run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list parse runs iterate")
}

// -- staging items --

func (s *SQLiteStore) PutStagingItems(ctx context.Context, runID string, items []model.StagingItem) error {
	stamped, err := stampStagingItems(runID, items, time.Now().UTC())
	if err != nil {
		return eris.Wrap(err, "sqlite: put staging items")
	}
	if len(stamped) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin staging insert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO staging_items (id, parse_run_id, item_type, payload, confidence, position, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare staging insert")
	}
	defer stmt.Close()

	for _, it := range stamped {
		if _, err := stmt.ExecContext(ctx, it.ID, it.ParseRunID, string(it.Type), string(it.Payload), it.Confidence, it.Position, it.CreatedAt); err != nil {
			return eris.Wrapf(err, "sqlite: insert staging item %d", it.Position)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit staging insert")
}

func (s *SQLiteStore) ListStagingItems(ctx context.Context, runID string) ([]model.StagingItem, error) {
	return s.listStaging(ctx,
		`SELECT id, parse_run_id, item_type, payload, confidence, position, created_at
		 FROM staging_items WHERE parse_run_id = ? ORDER BY position`, runID)
}

func (s *SQLiteStore) ListStagingItemsByType(ctx context.Context, runID string, itemType model.ItemType) ([]model.StagingItem, error) {
	return s.listStaging(ctx,
		`SELECT id, parse_run_id, item_type, payload, confidence, position, created_at
		 FROM staging_items WHERE parse_run_id = ? AND item_type = ? ORDER BY position`, runID, string(itemType))
}

func (s *SQLiteStore) listStaging(ctx context.Context, query string, args ...any) ([]model.StagingItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list staging items")
	}
	defer rows.Close()

	var items []model.StagingItem
	for rows.Next() {
		var it model.StagingItem
		var payload string
		var conf sql.NullFloat64
		if err := rows.Scan(&it.ID, &it.ParseRunID, &it.Type, &payload, &conf, &it.Position, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan staging item")
		}
		it.Payload = json.RawMessage(payload)
		if conf.Valid {
			c := conf.Float64
			it.Confidence = &c
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list staging items iterate")
}

func (s *SQLiteStore) DeleteStagingItems(ctx context.Context, runID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM staging_items WHERE parse_run_id = ?`, runID)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete staging items %s", runID)
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// -- commit / rollback --

func (s *SQLiteStore) ApplyCommit(ctx context.Context, plan *model.CommitPlan) (*model.CommitSummary, error) {
	stampPlan(plan)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin commit")
	}
	defer tx.Rollback() //nolint:errcheck

	// The marker goes first: the primary key on parse_run_id is what makes a
	// second commit lose.
	res, err := tx.ExecContext(ctx,
		`INSERT INTO parse_run_commits (parse_run_id, user_id, committed_at) VALUES (?, ?, ?)
		 ON CONFLICT (parse_run_id) DO NOTHING`,
		plan.ParseRunID, plan.UserID, plan.CommittedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert commit marker %s", plan.ParseRunID)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, eris.Wrap(err, "sqlite: rows affected")
	} else if n == 0 {
		return nil, eris.Wrapf(ErrAlreadyCommitted, "parse run %s", plan.ParseRunID)
	}

	weights, err := marshalWeights(plan.Course.GradeWeights)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite")
	}

	var courseID string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO courses (id, user_id, name, professor, credits, grade_weights, timezone, parse_run_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, name) DO UPDATE SET
		   professor = excluded.professor, credits = excluded.credits, grade_weights = excluded.grade_weights,
		   timezone = excluded.timezone, updated_at = excluded.updated_at
		 RETURNING id`,
		plan.Course.ID, plan.UserID, plan.Course.Name, plan.Course.Professor, plan.Course.Credits,
		nullableText(weights), plan.Timezone, plan.ParseRunID, plan.CommittedAt, plan.CommittedAt,
	).Scan(&courseID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: upsert course")
	}

	eventStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO calendar_events (id, user_id, course_id, recurrence_id, parse_run_id, kind, title, starts_at, ends_at, location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare event insert")
	}
	defer eventStmt.Close()

	for _, pr := range plan.Recurrences {
		r := pr.Recurrence
		var recID string
		err := tx.QueryRowContext(ctx,
			`INSERT INTO course_recurrences (id, course_id, parse_run_id, kind, weekday, start_time, end_time, location, timezone, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (course_id, kind, weekday, start_time, end_time) DO UPDATE SET
			   location = excluded.location, timezone = excluded.timezone
			 RETURNING id`,
			r.ID, courseID, plan.ParseRunID, string(r.Kind), int(r.Weekday), r.StartTime, r.EndTime,
			r.Location, plan.Timezone, plan.CommittedAt,
		).Scan(&recID)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: upsert recurrence %s %s", r.Weekday, r.StartTime)
		}
		for _, row := range eventRows(plan, courseID, recID, pr.Events) {
			if _, err := eventStmt.ExecContext(ctx, row...); err != nil {
				return nil, eris.Wrap(err, "sqlite: insert calendar event")
			}
		}
	}

	if len(plan.Assignments) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO assignments (id, user_id, course_id, parse_run_id, staging_item_id, title, due_at, category, effort_hours, pages, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: prepare assignment insert")
		}
		defer stmt.Close()
		for _, row := range assignmentRows(plan, courseID) {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return nil, eris.Wrap(err, "sqlite: insert assignment")
			}
		}
	}

	summary := plan.Summarize(courseID)
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal commit summary")
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE parse_run_commits SET summary = ? WHERE parse_run_id = ?`,
		string(summaryJSON), plan.ParseRunID,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: update commit marker")
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE parse_runs SET commit_error = NULL, updated_at = ? WHERE id = ?`,
		plan.CommittedAt, plan.ParseRunID,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: clear commit error")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return summary, nil
}

func (s *SQLiteStore) RecordCommitFailure(ctx context.Context, runID, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE parse_runs SET commit_error = ?, updated_at = ? WHERE id = ?`,
		message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record commit failure %s", runID)
	}
	return checkRowsAffected(res, "parse run", runID)
}

func (s *SQLiteStore) ApplyRollback(ctx context.Context, runID string, opts model.RollbackOptions) (*model.RollbackSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin rollback")
	}
	defer tx.Rollback() //nolint:errcheck

	sum := &model.RollbackSummary{ParseRunID: runID}

	n, err := execCount(ctx, tx,
		`DELETE FROM assignments WHERE parse_run_id = ?
		 OR staging_item_id IN (SELECT id FROM staging_items WHERE parse_run_id = ?)`,
		runID, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: delete assignments")
	}
	sum.DeletedAssignments = n

	if sum.DeletedEvents, err = execCount(ctx, tx, `DELETE FROM calendar_events WHERE parse_run_id = ?`, runID); err != nil {
		return nil, eris.Wrap(err, "sqlite: delete calendar events")
	}

	cleared, err := execCount(ctx, tx, `DELETE FROM parse_run_commits WHERE parse_run_id = ?`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: delete commit marker")
	}
	sum.ClearedMarker = cleared > 0

	if opts.PurgeStaging {
		if sum.PurgedStagingItems, err = execCount(ctx, tx, `DELETE FROM staging_items WHERE parse_run_id = ?`, runID); err != nil {
			return nil, eris.Wrap(err, "sqlite: purge staging items")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit rollback")
	}
	return sum, nil
}

// -- committed data --

func (s *SQLiteStore) ListAssignmentsByRun(ctx context.Context, runID string) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, course_id, parse_run_id, staging_item_id, title, due_at, category, effort_hours, pages, created_at
		 FROM assignments WHERE parse_run_id = ? ORDER BY due_at, title`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assignments")
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		var itemID sql.NullString
		var due sql.NullTime
		var effort sql.NullFloat64
		var pages sql.NullInt64
		if err := rows.Scan(&a.ID, &a.UserID, &a.CourseID, &a.ParseRunID, &itemID, &a.Title, &due,
			&a.Category, &effort, &pages, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assignment")
		}
		if itemID.Valid {
			a.StagingItemID = &itemID.String
		}
		if due.Valid {
			a.DueAt = &due.Time
		}
		if effort.Valid {
			a.EffortHours = &effort.Float64
		}
		if pages.Valid {
			p := int(pages.Int64)
			a.Pages = &p
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list assignments iterate")
}

func (s *SQLiteStore) ListEventsByRun(ctx context.Context, runID string) ([]model.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, course_id, recurrence_id, parse_run_id, kind, title, starts_at, ends_at, location, created_at
		 FROM calendar_events WHERE parse_run_id = ? ORDER BY starts_at`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list calendar events")
	}
	defer rows.Close()

	var out []model.CalendarEvent
	for rows.Next() {
		var e model.CalendarEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.RecurrenceID, &e.ParseRunID, &e.Kind, &e.Title,
			&e.StartsAt, &e.EndsAt, &e.Location, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan calendar event")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list calendar events iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanParseRun(row scannable) (*model.ParseRun, error) {
	var r model.ParseRun
	var errMsg, commitErr sql.NullString
	var committedAt, completedAt sql.NullTime

	if err := row.Scan(&r.ID, &r.UserID, &r.SourceFileRef, &r.Status, &errMsg, &commitErr,
		&committedAt, &r.CreatedAt, &completedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		r.Error = &errMsg.String
	}
	if commitErr.Valid {
		r.CommitError = &commitErr.String
	}
	if committedAt.Valid {
		r.CommittedAt = &committedAt.Time
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	return &r, nil
}

// Package commit turns a reviewed parse run into system-of-record rows and
// reverses that by provenance.
package commit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/syllabus-cli/internal/model"
	"github.com/sells-group/syllabus-cli/internal/schedule"
	"github.com/sells-group/syllabus-cli/internal/store"
)

// Engine runs commits and rollbacks against a Store.
type Engine struct {
	store      store.Store
	defaultTZ  string
	now        func() time.Time
	horizon    time.Duration
	officeHour string
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultTimezone sets the zone used when a request names none.
func WithDefaultTimezone(tz string) Option {
	return func(e *Engine) {
		if tz != "" {
			e.defaultTZ = tz
		}
	}
}

// WithClock overrides the commit-time clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine.
func NewEngine(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      st,
		defaultTZ:  "UTC",
		now:        time.Now,
		horizon:    schedule.Horizon,
		officeHour: "Office Hours",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Commit validates req, materializes its schedule and writes everything in
// one transaction. A second commit of the same run returns an *Error of kind
// KindAlreadyCommitted.
func (e *Engine) Commit(ctx context.Context, req *Request) (*model.CommitSummary, error) {
	if req == nil {
		return nil, validationError(map[string]string{"request": "request is required"})
	}
	if req.Timezone == "" {
		req.Timezone = e.defaultTZ
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		return nil, validationError(map[string]string{"timezone": err.Error()})
	}

	log := zap.L().With(zap.String("parse_run_id", req.ParseRunID), zap.String("user_id", req.UserID))

	if _, err := e.authorize(ctx, req.ParseRunID, req.UserID, true); err != nil {
		return nil, err
	}
	if err := e.checkStagingLinks(ctx, req); err != nil {
		return nil, err
	}

	plan, err := e.buildPlan(req, loc)
	if err != nil {
		return nil, err
	}

	sum, err := e.store.ApplyCommit(ctx, plan)
	switch {
	case errors.Is(err, store.ErrAlreadyCommitted):
		log.Warn("commit rejected: already committed")
		return nil, newError(KindAlreadyCommitted, "parse run already committed", err)
	case err != nil:
		msg := fmt.Sprintf("commit failed: %v", err)
		if rerr := e.store.RecordCommitFailure(context.WithoutCancel(ctx), req.ParseRunID, msg); rerr != nil {
			log.Error("record commit failure", zap.Error(rerr))
		}
		log.Error("commit failed", zap.Error(err))
		return nil, newError(KindInternal, "commit failed", err)
	}

	log.Info("parse run committed",
		zap.String("course_id", sum.CourseID),
		zap.String("timezone", sum.Timezone),
		zap.Int("assignments", sum.AssignmentsCreated),
		zap.Int("class_events", sum.ClassEventsCreated),
		zap.Int("office_hour_events", sum.OfficeHourEventsCreated),
	)
	return sum, nil
}

// Rollback deletes every assignment and calendar event committed from the
// run and clears its commit marker. Rolling back a run with nothing
// committed reports zero deletions.
func (e *Engine) Rollback(ctx context.Context, runID, userID string, opts model.RollbackOptions) (*model.RollbackSummary, error) {
	fields := map[string]string{}
	if runID == "" {
		fields["parse_run_id"] = "parse_run_id is a required field"
	}
	if userID == "" {
		fields["user_id"] = "user_id is a required field"
	}
	if len(fields) > 0 {
		return nil, validationError(fields)
	}

	if _, err := e.authorize(ctx, runID, userID, false); err != nil {
		return nil, err
	}

	sum, err := e.store.ApplyRollback(ctx, runID, opts)
	if err != nil {
		zap.L().Error("rollback failed", zap.String("parse_run_id", runID), zap.Error(err))
		return nil, newError(KindInternal, "rollback failed", err)
	}

	zap.L().Info("parse run rolled back",
		zap.String("parse_run_id", runID),
		zap.String("user_id", userID),
		zap.Int("deleted_assignments", sum.DeletedAssignments),
		zap.Int("deleted_events", sum.DeletedEvents),
		zap.Int("purged_staging_items", sum.PurgedStagingItems),
		zap.Bool("cleared_marker", sum.ClearedMarker),
	)
	return sum, nil
}

func (e *Engine) authorize(ctx context.Context, runID, userID string, requireStaged bool) (*model.ParseRun, error) {
	run, err := e.store.GetParseRun(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "parse run not found", err)
	}
	if err != nil {
		return nil, newError(KindInternal, "load parse run", err)
	}
	if !run.OwnedBy(userID) {
		return nil, newError(KindForbidden, "parse run belongs to another user", nil)
	}
	if requireStaged && run.Status != model.ParseRunStatusSucceeded {
		return nil, newError(KindNotReady, fmt.Sprintf("parse run is %s, not ready to commit", run.Status), nil)
	}
	return run, nil
}

// checkStagingLinks verifies that every staging item an assignment claims to
// come from belongs to the run being committed.
func (e *Engine) checkStagingLinks(ctx context.Context, req *Request) error {
	linked := false
	for _, a := range req.Assignments {
		if a.StagingItemID != "" {
			linked = true
			break
		}
	}
	if !linked {
		return nil
	}

	items, err := e.store.ListStagingItemsByType(ctx, req.ParseRunID, model.ItemTypeAssignment)
	if err != nil {
		return newError(KindInternal, "load staging items", err)
	}
	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}

	fields := map[string]string{}
	for i, a := range req.Assignments {
		if a.StagingItemID != "" && !known[a.StagingItemID] {
			fields[fmt.Sprintf("assignments[%d].staging_item_id", i)] = "staging_item_id is not an assignment of this parse run"
		}
	}
	if len(fields) > 0 {
		return validationError(fields)
	}
	return nil
}

func (e *Engine) buildPlan(req *Request, loc *time.Location) (*model.CommitPlan, error) {
	now := e.now()
	fields := map[string]string{}

	plan := &model.CommitPlan{
		ParseRunID:  req.ParseRunID,
		UserID:      req.UserID,
		Timezone:    loc.String(),
		CommittedAt: now.UTC(),
		Course: model.Course{
			UserID:       req.UserID,
			Name:         req.Course.Name,
			Professor:    req.Course.Professor,
			Credits:      req.Course.Credits,
			GradeWeights: req.Course.GradeWeights,
			Timezone:     loc.String(),
			ParseRunID:   req.ParseRunID,
		},
	}

	addMeetings := func(field string, kind model.EventKind, title string, in []MeetingInput) {
		defs := make([]schedule.Definition, 0, len(in))
		for i, m := range in {
			def, err := toDefinition(m)
			if err != nil {
				fields[fmt.Sprintf("%s[%d]", field, i)] = err.Error()
				continue
			}
			defs = append(defs, def)
		}
		for _, def := range schedule.Dedupe(defs) {
			pr := model.PlannedRecurrence{Recurrence: model.Recurrence{
				ParseRunID: req.ParseRunID,
				Kind:       kind,
				Weekday:    def.Weekday,
				StartTime:  def.Start.String(),
				EndTime:    def.End.String(),
				Location:   def.Location,
				Timezone:   loc.String(),
			}}
			for _, occ := range schedule.Expand(def, loc, now, e.horizon) {
				pr.Events = append(pr.Events, model.CalendarEvent{
					UserID:     req.UserID,
					ParseRunID: req.ParseRunID,
					Kind:       kind,
					Title:      title,
					StartsAt:   occ.Start,
					EndsAt:     occ.End,
					Location:   def.Location,
				})
			}
			plan.Recurrences = append(plan.Recurrences, pr)
		}
	}
	addMeetings("schedule", model.EventKindClass, req.Course.Name, req.Schedule)
	addMeetings("office_hours", model.EventKindOfficeHours, req.Course.Name+" "+e.officeHour, req.OfficeHours)

	for i, a := range req.Assignments {
		asg := model.Assignment{
			UserID:      req.UserID,
			ParseRunID:  req.ParseRunID,
			Title:       a.Title,
			Category:    a.Category,
			EffortHours: a.EffortHours,
			Pages:       a.Pages,
		}
		if a.StagingItemID != "" {
			id := a.StagingItemID
			asg.StagingItemID = &id
		}
		if a.DueDate != "" {
			due, err := parseDueDate(a.DueDate, loc)
			if err != nil {
				fields[fmt.Sprintf("assignments[%d].due_date", i)] = err.Error()
				continue
			}
			asg.DueAt = &due
		}
		plan.Assignments = append(plan.Assignments, asg)
	}

	if len(fields) > 0 {
		return nil, validationError(fields)
	}
	return plan, nil
}

func toDefinition(m MeetingInput) (schedule.Definition, error) {
	day, err := schedule.ParseWeekday(m.Day)
	if err != nil {
		return schedule.Definition{}, err
	}
	start, err := schedule.ParseClock(m.Start)
	if err != nil {
		return schedule.Definition{}, err
	}
	end, err := schedule.ParseClock(m.End)
	if err != nil {
		return schedule.Definition{}, err
	}
	if start == end {
		return schedule.Definition{}, fmt.Errorf("start and end are both %s", start)
	}
	return schedule.Definition{Weekday: day, Start: start, End: end, Location: m.Location}, nil
}

package commit

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/syllabus-cli/internal/model"
	"github.com/sells-group/syllabus-cli/internal/store"
)

// Saturday 2026-10-17 12:00 UTC.
var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "commit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestEngine(st store.Store) *Engine {
	return NewEngine(st, WithClock(func() time.Time { return fixedNow }))
}

func stagedRun(t *testing.T, st store.Store, userID string) (*model.ParseRun, []model.StagingItem) {
	t.Helper()
	ctx := context.Background()
	run, err := st.CreateParseRun(ctx, userID, "uploads/calc.pdf")
	require.NoError(t, err)
	c := 0.4
	require.NoError(t, st.PutStagingItems(ctx, run.ID, []model.StagingItem{
		{Type: model.ItemTypeCourse, Payload: json.RawMessage(`{"name":"Calculus I"}`)},
		{Type: model.ItemTypeAssignment, Payload: json.RawMessage(`{"title":"Midterm","category":"exam"}`), Confidence: &c},
	}))
	ok, err := st.MarkParseRunSucceeded(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	items, err := st.ListStagingItemsByType(ctx, run.ID, model.ItemTypeAssignment)
	require.NoError(t, err)
	return run, items
}

func requestFor(run *model.ParseRun) *Request {
	req := validRequest()
	req.ParseRunID = run.ID
	req.UserID = run.UserID
	return req
}

func TestCommit_CreatesRowsWithProvenance(t *testing.T) {
	st := newTestStore(t)
	eng := newTestEngine(st)
	ctx := context.Background()
	run, items := stagedRun(t, st, "user-1")

	req := requestFor(run)
	req.OfficeHours = []MeetingInput{{Day: "Thu", Start: "2pm", End: "3pm", Location: "Office 3B"}}
	req.Assignments[0].StagingItemID = items[0].ID

	sum, err := eng.Commit(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, run.ID, sum.ParseRunID)
	assert.NotEmpty(t, sum.CourseID)
	assert.Equal(t, "America/Chicago", sum.Timezone)
	assert.Equal(t, 1, sum.AssignmentsCreated)
	assert.Equal(t, 1, sum.ScheduleSaved)
	assert.Equal(t, 1, sum.OfficeHoursSaved)
	assert.Equal(t, 2, sum.ClassEventsCreated)
	assert.Equal(t, 2, sum.OfficeHourEventsCreated)

	events, err := st.ListEventsByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, events, 4)
	for _, ev := range events {
		assert.Equal(t, run.ID, ev.ParseRunID)
		assert.Equal(t, "user-1", ev.UserID)
	}
	assert.True(t, events[0].StartsAt.Equal(time.Date(2026, 10, 20, 14, 0, 0, 0, time.UTC)),
		"first class starts at %s", events[0].StartsAt)
	assert.Equal(t, "Calculus I", events[0].Title)

	asgs, err := st.ListAssignmentsByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, asgs, 1)
	require.NotNil(t, asgs[0].DueAt)
	assert.True(t, asgs[0].DueAt.Equal(time.Date(2026, 10, 31, 4, 59, 0, 0, time.UTC)),
		"due at %s", asgs[0].DueAt)
	require.NotNil(t, asgs[0].StagingItemID)
	assert.Equal(t, items[0].ID, *asgs[0].StagingItemID)

	got, err := st.GetParseRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, got.Committed())
	assert.Equal(t, model.ParseRunStatusSucceeded, got.Status)
}

func TestCommit_NoAssignments(t *testing.T) {
	st := newTestStore(t)
	eng := newTestEngine(st)
	run, _ := stagedRun(t, st, "user-1")

	req := requestFor(run)
	req.Assignments = nil

	sum, err := eng.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.AssignmentsCreated)
	assert.Equal(t, 2, sum.ClassEventsCreated)
	assert.Equal(t, 0, sum.OfficeHourEventsCreated)
}

func TestCommit_DuplicateMeetingsCollapse(t *testing.T) {
	st := newTestStore(t)
	eng := newTestEngine(st)
	run, _ := stagedRun(t, st, "user-1")

	req := requestFor(run)
	req.Schedule = append(req.Schedule, MeetingInput{Day: "tue", Start: "9:00am", End: "10:15 am", Location: "Annex"})

	sum, err := eng.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.ScheduleSaved)
	assert.Equal(t, 2, sum.ClassEventsCreated)
}

func TestCommit_DefaultTimezone(t *testing.T) {
	st := newTestStore(t)
	eng := NewEngine(st, WithClock(func() time.Time { return fixedNow }), WithDefaultTimezone("America/New_York"))
	run, _ := stagedRun(t, st, "user-1")

	req := requestFor(run)
	req.Timezone = ""

	sum, err := eng.Commit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", sum.Timezone)
}

func TestCommit_ValidationLeavesRunUntouched(t *testing.T) {
	st := newTestStore(t)
	eng := newTestEngine(st)
	ctx := context.Background()
	run, _ := stagedRun(t, st, "user-1")

	req := requestFor(run)
	req.Course.Name = ""
	_, err := eng.Commit(ctx, req)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	got, err := st.GetParseRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ParseRunStatusSucceeded, got.Status)
	assert.False(t, got.Committed())
	assert.Nil(t, got.CommitError)

	events, err := st.ListEventsByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	// The run is still committable once the request is fixed.
	_, err = eng.Commit(ctx, requestFor(run))
	require.NoError(t, err)
}

func TestCommit_ZeroLengthMeeting(t *testing.T) {
	st := newTestStore(t)
	eng := newTestEngine(st)
	run, _ := stagedRun(t, st, "user-1")

	req := requestFor(run)
	req.Schedule = []MeetingInput{{Day: "Mon", Start: "09:00", End: "9am"}}

	_, err := eng.Commit(context.Background(), req)
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "schedule[0]")
}

func TestCommit_UnknownStagingItem(t *testing.T) {
	st := newTestStore(t)
	eng := newTestEngine(st)
	run, _ := stagedRun(t, st, "user-1")
	other, otherItems := stagedRun(t, st, "user-1")
	require.NotEqual(t, run.ID, other.ID)

	req := requestFor(run)
	req.Assignments[0].StagingItemID = otherItems[0].ID

	_, err := eng.Commit(context.Background(), req)
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "assignments[0].staging_item_id")
}

func TestCommit_SecondCommitRejected(t *testing.T) {
	st := newTestStore(t)
	eng := newTestEngine(st)
	ctx := context.Background()
	run, _ := stagedRun(t, st, "user-1")

	_, err := eng.Commit(ctx, requestFor(run))
	require.NoError(t, err)

	_, err = eng.Commit(ctx, requestFor(run))
	require.Error(t, err)
	assert.Equal(t, KindAlreadyCommitted, KindOf(err))
	assert.ErrorIs(t, err, store.ErrAlreadyCommitted)

	events, err := st.ListEventsByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCommit_Preconditions(t *testing.T) {
	st := newTestStore(t)
	eng := newTestEngine(st)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		req := validRequest()
		req.ParseRunID = "missing"
		_, err := eng.Commit(ctx, req)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("Forbidden", func(t *testing.T) {
		run, _ := stagedRun(t, st, "owner")
		req := requestFor(run)
		req.UserID = "intruder"
		_, err := eng.Commit(ctx, req)
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("Pending", func(t *testing.T) {
		run, err := st.CreateParseRun(ctx, "user-1", "uploads/x.pdf")
		require.NoError(t, err)
		_, err = eng.Commit(ctx, requestFor(run))
		assert.Equal(t, KindNotReady, KindOf(err))
	})

	t.Run("Failed", func(t *testing.T) {
		run, err := st.CreateParseRun(ctx, "user-1", "uploads/y.pdf")
		require.NoError(t, err)
		require.NoError(t, st.MarkParseRunFailed(ctx, run.ID, "staging failed: timeout"))
		_, err = eng.Commit(ctx, requestFor(run))
		assert.Equal(t, KindNotReady, KindOf(err))
	})
}

type failingStore struct {
	store.Store
}

func (failingStore) ApplyCommit(context.Context, *model.CommitPlan) (*model.CommitSummary, error) {
	return nil, eris.New("sqlite: insert calendar event: disk I/O error")
}

func TestCommit_FailureIsRecorded(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	run, _ := stagedRun(t, st, "user-1")

	eng := NewEngine(failingStore{st}, WithClock(func() time.Time { return fixedNow }))
	_, err := eng.Commit(ctx, requestFor(run))
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))

	got, err := st.GetParseRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CommitError)
	assert.Contains(t, *got.CommitError, "commit failed:")
	assert.Contains(t, *got.CommitError, "disk I/O error")
	assert.Equal(t, model.ParseRunStatusSucceeded, got.Status)
	assert.False(t, got.Committed())

	// A later successful commit clears the recorded failure.
	_, err = newTestEngine(st).Commit(ctx, requestFor(run))
	require.NoError(t, err)
	got, err = st.GetParseRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CommitError)
}

func TestRollback(t *testing.T) {
	st := newTestStore(t)
	eng := newTestEngine(st)
	ctx := context.Background()
	run, items := stagedRun(t, st, "user-1")

	req := requestFor(run)
	req.Assignments[0].StagingItemID = items[0].ID
	req.Assignments = append(req.Assignments, AssignmentInput{Title: "Reading 1"})
	sum, err := eng.Commit(ctx, req)
	require.NoError(t, err)

	t.Run("Forbidden", func(t *testing.T) {
		_, err := eng.Rollback(ctx, run.ID, "intruder", model.RollbackOptions{})
		assert.Equal(t, KindForbidden, KindOf(err))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := eng.Rollback(ctx, "missing", "user-1", model.RollbackOptions{})
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("MissingIDs", func(t *testing.T) {
		_, err := eng.Rollback(ctx, "", "", model.RollbackOptions{})
		fields := fieldsOf(t, err)
		assert.Len(t, fields, 2)
	})

	rb, err := eng.Rollback(ctx, run.ID, "user-1", model.RollbackOptions{})
	require.NoError(t, err)
	assert.Equal(t, sum.AssignmentsCreated, rb.DeletedAssignments)
	assert.Equal(t, sum.ClassEventsCreated+sum.OfficeHourEventsCreated, rb.DeletedEvents)
	assert.True(t, rb.ClearedMarker)

	again, err := eng.Rollback(ctx, run.ID, "user-1", model.RollbackOptions{})
	require.NoError(t, err)
	assert.Zero(t, again.DeletedAssignments)
	assert.Zero(t, again.DeletedEvents)
	assert.False(t, again.ClearedMarker)

	// Staging survived, so the run can be committed again.
	resum, err := eng.Commit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, sum.CourseID, resum.CourseID)
	assert.Equal(t, sum.ClassEventsCreated, resum.ClassEventsCreated)
}

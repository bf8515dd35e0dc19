package staging

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/syllabus-cli/internal/extract"
	"github.com/sells-group/syllabus-cli/internal/model"
	"github.com/sells-group/syllabus-cli/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "staging.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func score(v float64) *float64 { return &v }

func item(t model.ItemType, payload string, confidence *float64) model.StagingItem {
	return model.StagingItem{Type: t, Payload: json.RawMessage(payload), Confidence: confidence}
}

func fullSyllabus() []model.StagingItem {
	return []model.StagingItem{
		item(model.ItemTypeCourse, `{"name":"Calculus I"}`, score(0.95)),
		item(model.ItemTypeClassSchedule, `{"day":"Tuesday","start":"09:00","end":"10:15"}`, score(0.9)),
		item(model.ItemTypeOfficeHours, `{"day":"Wednesday","start":"14:00","end":"15:00"}`, nil),
		item(model.ItemTypeAssignment, `{"title":"Midterm","category":"Midterm Exam"}`, score(0.4)),
		item(model.ItemTypeAssignment, `{"title":"Reading 1","category":"reading"}`, score(0.9)),
	}
}

func staticItems(items []model.StagingItem) extract.Extractor {
	return extract.Func(func(context.Context, extract.Document) ([]model.StagingItem, error) {
		return items, nil
	})
}

var doc = extract.Document{SourceFileRef: "uploads/calc.pdf", Text: "MATH 101"}

func TestIngest_Succeeds(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, staticItems(fullSyllabus()), time.Second)

	run, err := svc.Ingest(context.Background(), "user-1", doc)
	require.NoError(t, err)
	assert.Equal(t, model.ParseRunStatusSucceeded, run.Status)
	assert.Equal(t, "uploads/calc.pdf", run.SourceFileRef)
	assert.NotNil(t, run.CompletedAt)

	items, err := st.ListStagingItems(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestIngest_NoCourse(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, staticItems(fullSyllabus()[1:]), time.Second)

	run, err := svc.Ingest(context.Background(), "user-1", doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStagingFailed)
	require.NotNil(t, run)
	assert.Equal(t, model.ParseRunStatusFailed, run.Status)
	assert.Equal(t, NoCourseMessage, run.ErrorMessage())

	items, err := st.ListStagingItems(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestIngest_ExtractorError(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, extract.Func(func(context.Context, extract.Document) ([]model.StagingItem, error) {
		return nil, errors.New("model unavailable")
	}), time.Second)

	run, err := svc.Ingest(context.Background(), "user-1", doc)
	assert.ErrorIs(t, err, ErrStagingFailed)
	require.NotNil(t, run)
	assert.Equal(t, model.ParseRunStatusFailed, run.Status)
	assert.Contains(t, run.ErrorMessage(), "extraction failed: model unavailable")
}

func TestIngest_Timeout(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, extract.Func(func(ctx context.Context, _ extract.Document) ([]model.StagingItem, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), 20*time.Millisecond)

	run, err := svc.Ingest(context.Background(), "user-1", doc)
	assert.ErrorIs(t, err, ErrStagingFailed)
	require.NotNil(t, run)
	assert.Equal(t, model.ParseRunStatusFailed, run.Status)
	assert.Contains(t, run.ErrorMessage(), "timed out")
}

func TestIngest_CallerCancelledStillMarksFailed(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	svc := NewService(st, extract.Func(func(context.Context, extract.Document) ([]model.StagingItem, error) {
		cancel()
		return nil, context.Canceled
	}), time.Second)

	run, err := svc.Ingest(ctx, "user-1", doc)
	assert.ErrorIs(t, err, ErrStagingFailed)
	require.NotNil(t, run)

	got, err := st.GetParseRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ParseRunStatusFailed, got.Status)
}

func TestIngest_BadConfidenceIsStagingFailure(t *testing.T) {
	st := newTestStore(t)
	items := fullSyllabus()
	items[1].Confidence = score(1.5)
	svc := NewService(st, staticItems(items), time.Second)

	run, err := svc.Ingest(context.Background(), "user-1", doc)
	assert.ErrorIs(t, err, ErrStagingFailed)
	require.NotNil(t, run)
	assert.Equal(t, model.ParseRunStatusFailed, run.Status)

	staged, err := st.ListStagingItems(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestIngest_RequiresUser(t *testing.T) {
	svc := NewService(newTestStore(t), staticItems(fullSyllabus()), time.Second)
	_, err := svc.Ingest(context.Background(), "", doc)
	assert.Error(t, err)
}

func TestReview(t *testing.T) {
	st := newTestStore(t)
	svc := NewService(st, staticItems(fullSyllabus()), time.Second)
	ctx := context.Background()

	run, err := svc.Ingest(ctx, "user-1", doc)
	require.NoError(t, err)

	rv, err := svc.Review(ctx, run.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, rv.Run.ID)
	assert.Equal(t, model.ItemTypeCourse, rv.Course.Type)
	assert.Len(t, rv.Schedule, 1)
	assert.Len(t, rv.OfficeHours, 1)
	assert.Len(t, rv.Assignments, 2)

	require.NotNil(t, rv.Triage)
	require.Len(t, rv.Triage.HighStakes, 1)
	assert.Equal(t, rv.Assignments[0].ID, rv.Triage.HighStakes[0].Item.ID)
	require.Len(t, rv.Triage.LowConfidence, 1)
	assert.Len(t, rv.Triage.Routine, 1)
}

func TestReview_Errors(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		svc := NewService(st, staticItems(fullSyllabus()), time.Second)
		_, err := svc.Review(ctx, "missing", "user-1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc := NewService(st, staticItems(fullSyllabus()), time.Second)
		run, err := svc.Ingest(ctx, "owner", doc)
		require.NoError(t, err)
		_, err = svc.Review(ctx, run.ID, "someone-else")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("FailedRun", func(t *testing.T) {
		svc := NewService(st, staticItems(nil), time.Second)
		run, err := svc.Ingest(ctx, "user-1", doc)
		require.Error(t, err)
		_, err = svc.Review(ctx, run.ID, "user-1")
		assert.ErrorIs(t, err, ErrNothingToReview)
		assert.Contains(t, err.Error(), NoCourseMessage)
	})

	t.Run("PendingRun", func(t *testing.T) {
		svc := NewService(st, staticItems(nil), time.Second)
		run, err := st.CreateParseRun(ctx, "user-1", "uploads/orphan.pdf")
		require.NoError(t, err)
		_, err = svc.Review(ctx, run.ID, "user-1")
		assert.ErrorIs(t, err, ErrNothingToReview)
	})

	t.Run("MissingCourse", func(t *testing.T) {
		svc := NewService(st, staticItems(nil), time.Second)
		run, err := st.CreateParseRun(ctx, "user-1", "uploads/odd.pdf")
		require.NoError(t, err)
		require.NoError(t, st.PutStagingItems(ctx, run.ID, fullSyllabus()[1:]))
		ok, err := st.MarkParseRunSucceeded(ctx, run.ID)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = svc.Review(ctx, run.ID, "user-1")
		assert.ErrorIs(t, err, ErrMissingCourse)
	})
}

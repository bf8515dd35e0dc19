// Package staging runs extraction into the staging area and assembles the
// review view of a staged parse run.
package staging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/syllabus-cli/internal/extract"
	"github.com/sells-group/syllabus-cli/internal/model"
	"github.com/sells-group/syllabus-cli/internal/store"
	"github.com/sells-group/syllabus-cli/internal/triage"
)

var (
	// ErrStagingFailed is returned when ingestion ends with the run marked failed.
	ErrStagingFailed = errors.New("staging failed")
	// ErrNothingToReview is returned for runs that did not stage successfully.
	ErrNothingToReview = errors.New("nothing to review")
	// ErrMissingCourse is returned for a succeeded run with no course item.
	ErrMissingCourse = errors.New("staged run has no course")
	// ErrForbidden is returned when the caller does not own the run.
	ErrForbidden = errors.New("parse run belongs to another user")
)

// NoCourseMessage is recorded on runs whose extraction found no course.
const NoCourseMessage = "no course found in syllabus"

// DefaultExtractTimeout bounds a single extractor invocation.
const DefaultExtractTimeout = 120 * time.Second

// Service stages extractor output and serves it back for review.
type Service struct {
	store     store.Store
	extractor extract.Extractor
	timeout   time.Duration
}

// NewService creates a staging service. A non-positive timeout uses
// DefaultExtractTimeout.
func NewService(st store.Store, ex extract.Extractor, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	return &Service{store: st, extractor: ex, timeout: timeout}
}

// Ingest creates a parse run for doc, runs the extractor and stages its
// output. The returned run reflects the final status. When staging fails the
// run is marked failed and the error wraps ErrStagingFailed.
func (s *Service) Ingest(ctx context.Context, userID string, doc extract.Document) (*model.ParseRun, error) {
	if userID == "" {
		return nil, eris.New("staging: user id is required")
	}

	run, err := s.store.CreateParseRun(ctx, userID, doc.SourceFileRef)
	if err != nil {
		return nil, eris.Wrap(err, "staging: create parse run")
	}
	log := zap.L().With(zap.String("parse_run_id", run.ID), zap.String("user_id", userID))
	log.Info("parse run started", zap.String("source_file_ref", doc.SourceFileRef))

	items, err := s.extract(ctx, doc)
	if err != nil {
		return s.fail(ctx, run, fmt.Sprintf("extraction failed: %v", err), err)
	}
	if len(model.FilterItems(items, model.ItemTypeCourse)) == 0 {
		return s.fail(ctx, run, NoCourseMessage, nil)
	}
	if err := s.store.PutStagingItems(ctx, run.ID, items); err != nil {
		return s.fail(ctx, run, fmt.Sprintf("staging items rejected: %v", err), err)
	}

	ok, err := s.store.MarkParseRunSucceeded(ctx, run.ID)
	if err != nil {
		return s.fail(ctx, run, fmt.Sprintf("mark succeeded: %v", err), err)
	}
	if !ok {
		// Someone else already settled the run; report whatever it is now.
		log.Warn("parse run was no longer pending")
	}

	final, err := s.store.GetParseRun(ctx, run.ID)
	if err != nil {
		return nil, eris.Wrap(err, "staging: reload parse run")
	}
	log.Info("parse run staged", zap.Int("items", len(items)), zap.String("status", string(final.Status)))
	return final, nil
}

func (s *Service) extract(ctx context.Context, doc extract.Document) ([]model.StagingItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, eris.Wrapf(err, "timed out after %s", s.timeout)
		}
		return nil, err
	}
	return items, nil
}

// fail records message on the run. Marking uses a context that outlives the
// caller's so a cancelled request still leaves the run settled.
func (s *Service) fail(ctx context.Context, run *model.ParseRun, message string, cause error) (*model.ParseRun, error) {
	log := zap.L().With(zap.String("parse_run_id", run.ID), zap.String("user_id", run.UserID))
	if err := s.store.MarkParseRunFailed(context.WithoutCancel(ctx), run.ID, message); err != nil {
		log.Error("mark parse run failed", zap.Error(err))
		return nil, eris.Wrap(err, "staging: mark parse run failed")
	}
	log.Warn("parse run failed", zap.String("reason", message), zap.Error(cause))

	final, err := s.store.GetParseRun(context.WithoutCancel(ctx), run.ID)
	if err != nil {
		final = run
	}
	return final, eris.Wrap(ErrStagingFailed, message)
}

// Review is everything a reviewer needs to edit a staged run.
type Review struct {
	Run         *model.ParseRun     `json:"run"`
	Course      model.StagingItem   `json:"course"`
	Schedule    []model.StagingItem `json:"schedule"`
	OfficeHours []model.StagingItem `json:"office_hours"`
	Assignments []model.StagingItem `json:"assignments"`
	Triage      *triage.Result      `json:"triage"`
}

// Review loads a succeeded run owned by userID with its staged items
// grouped by type and its assignments triaged.
func (s *Service) Review(ctx context.Context, runID, userID string) (*Review, error) {
	run, err := s.store.GetParseRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	if run.Status != model.ParseRunStatusSucceeded {
		msg := fmt.Sprintf("parse run is %s", run.Status)
		if e := run.ErrorMessage(); e != "" {
			msg += ": " + e
		}
		return nil, eris.Wrap(ErrNothingToReview, msg)
	}

	items, err := s.store.ListStagingItems(ctx, runID)
	if err != nil {
		return nil, eris.Wrap(err, "staging: list staging items")
	}
	courses := model.FilterItems(items, model.ItemTypeCourse)
	if len(courses) == 0 {
		return nil, eris.Wrapf(ErrMissingCourse, "parse run %s", runID)
	}

	return &Review{
		Run:         run,
		Course:      courses[0],
		Schedule:    model.FilterItems(items, model.ItemTypeClassSchedule),
		OfficeHours: model.FilterItems(items, model.ItemTypeOfficeHours),
		Assignments: model.FilterItems(items, model.ItemTypeAssignment),
		Triage:      triage.Triage(items),
	}, nil
}

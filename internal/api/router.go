// Package api exposes parse-run ingestion, review, commit and rollback over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/syllabus-cli/internal/commit"
	"github.com/sells-group/syllabus-cli/internal/extract"
	"github.com/sells-group/syllabus-cli/internal/model"
	"github.com/sells-group/syllabus-cli/internal/staging"
	"github.com/sells-group/syllabus-cli/internal/store"
)

// UserHeader carries the caller identity set by the upstream identity provider.
const UserHeader = "X-User-ID"

const maxBodyBytes = 10 << 20

type ctxKey struct{}

// Server holds the handlers' dependencies.
type Server struct {
	store   store.Store
	staging *staging.Service
	engine  *commit.Engine
	origins []string
}

// NewServer creates a Server. An empty origins list allows any origin.
func NewServer(st store.Store, svc *staging.Service, engine *commit.Engine, origins []string) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{store: st, staging: svc, engine: engine, origins: origins}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", UserHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/v1/parse-runs", func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/", s.ingest)
		r.Get("/", s.listRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Get("/review", s.review)
			r.Post("/commit", s.commit)
			r.Post("/rollback", s.rollback)
		})
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get(UserHeader)
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserHeader+" header", "", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, uid)))
	})
}

func userID(r *http.Request) string {
	uid, _ := r.Context().Value(ctxKey{}).(string)
	return uid
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ingestRequest struct {
	SourceFileRef string `json:"source_file_ref"`
	Text          string `json:"text"`
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SourceFileRef == "" {
		writeError(w, http.StatusBadRequest, "source_file_ref is required", "", nil)
		return
	}

	run, err := s.staging.Ingest(r.Context(), userID(r), extract.Document{SourceFileRef: req.SourceFileRef, Text: req.Text})
	switch {
	case errors.Is(err, staging.ErrStagingFailed):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     err.Error(),
			"kind":      "staging_failed",
			"parse_run": run,
		})
	case err != nil:
		internalError(w, "ingest", err)
	default:
		writeJSON(w, http.StatusCreated, run)
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		UserID: userID(r),
		Status: model.ParseRunStatus(q.Get("status")),
		Limit:  queryInt(q.Get("limit"), 50),
		Offset: queryInt(q.Get("offset"), 0),
	}
	switch filter.Status {
	case "", model.ParseRunStatusPending, model.ParseRunStatusSucceeded, model.ParseRunStatusFailed:
	default:
		writeError(w, http.StatusBadRequest, "unknown status "+string(filter.Status), "", nil)
		return
	}

	runs, err := s.store.ListParseRuns(r.Context(), filter)
	if err != nil {
		internalError(w, "list parse runs", err)
		return
	}
	if runs == nil {
		runs = []model.ParseRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetParseRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "parse run not found", string(commit.KindNotFound), nil)
		return
	}
	if err != nil {
		internalError(w, "get parse run", err)
		return
	}
	if !run.OwnedBy(userID(r)) {
		writeError(w, http.StatusForbidden, "parse run belongs to another user", string(commit.KindForbidden), nil)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) review(w http.ResponseWriter, r *http.Request) {
	rv, err := s.staging.Review(r.Context(), chi.URLParam(r, "id"), userID(r))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "parse run not found", string(commit.KindNotFound), nil)
	case errors.Is(err, staging.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error(), string(commit.KindForbidden), nil)
	case errors.Is(err, staging.ErrNothingToReview), errors.Is(err, staging.ErrMissingCourse):
		writeError(w, http.StatusConflict, err.Error(), string(commit.KindNotReady), nil)
	case err != nil:
		internalError(w, "review", err)
	default:
		writeJSON(w, http.StatusOK, rv)
	}
}

func (s *Server) commit(w http.ResponseWriter, r *http.Request) {
	var req commit.Request
	if !decodeBody(w, r, &req) {
		return
	}
	req.ParseRunID = chi.URLParam(r, "id")
	req.UserID = userID(r)

	sum, err := s.engine.Commit(r.Context(), &req)
	if err != nil {
		writeCommitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type rollbackRequest struct {
	PurgeStaging bool `json:"purge_staging"`
}

func (s *Server) rollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	sum, err := s.engine.Rollback(r.Context(), chi.URLParam(r, "id"), userID(r),
		model.RollbackOptions{PurgeStaging: req.PurgeStaging})
	if err != nil {
		writeCommitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func writeCommitError(w http.ResponseWriter, err error) {
	kind := commit.KindOf(err)
	var ce *commit.Error
	if !errors.As(err, &ce) || kind == commit.KindInternal {
		internalError(w, "commit engine", err)
		return
	}
	writeError(w, kind.HTTPStatus(), ce.Msg, string(kind), ce.Fields)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "", nil)
		return false
	}
	return true
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

type errorBody struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, kind string, fields map[string]string) {
	writeJSON(w, status, errorBody{Error: msg, Kind: kind, Fields: fields})
}

func internalError(w http.ResponseWriter, op string, err error) {
	zap.L().Error("api: "+op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error", string(commit.KindInternal), nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

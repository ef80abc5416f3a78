package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"keyword_studio/generator"
	"keyword_studio/publisher"
	"keyword_studio/workflow"
)

// Server exposes workflow sessions over JSON HTTP. Each session owns one
// workflow.Controller.
type Server struct {
	stages    workflow.Stages
	publisher *publisher.Publisher
	store     *sessionStore
	logger    *zap.Logger
}

const (
	maxSessions = 1024
	// sessionIdleTTL bounds how long an untouched session is kept.
	sessionIdleTTL = 12 * time.Hour
)

// sessionStore keeps the most recently used sessions; idle or overflowing
// ones are evicted and answer 404 afterwards.
type sessionStore struct {
	cache *expirable.LRU[string, *workflow.Controller]
}

func newStore(size int, ttl time.Duration) *sessionStore {
	return &sessionStore{cache: expirable.NewLRU[string, *workflow.Controller](size, nil, ttl)}
}

func (s *sessionStore) set(id string, c *workflow.Controller) {
	s.cache.Add(id, c)
}

// get renews the session's idle deadline on every hit.
func (s *sessionStore) get(id string) (*workflow.Controller, bool) {
	c, ok := s.cache.Get(id)
	if ok {
		s.cache.Add(id, c)
	}
	return c, ok
}

// New builds a Server. pub may be nil, in which case exports are rejected.
func New(stages workflow.Stages, pub *publisher.Publisher, logger *zap.Logger) (*Server, error) {
	if stages == nil {
		return nil, errors.New("stage service required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		stages:    stages,
		publisher: pub,
		store:     newStore(maxSessions, sessionIdleTTL),
		logger:    logger.Named("server"),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.session(s.handleSnapshot))
	mux.HandleFunc("POST /api/sessions/{id}/niche", s.session(s.handleNiche))
	mux.HandleFunc("POST /api/sessions/{id}/main-keyword", s.session(s.handleMainKeyword))
	mux.HandleFunc("POST /api/sessions/{id}/seed-keyword", s.session(s.handleSeedKeyword))
	mux.HandleFunc("POST /api/sessions/{id}/selection", s.session(s.handleSelection))
	mux.HandleFunc("POST /api/sessions/{id}/article", s.session(s.handleArticle))
	mux.HandleFunc("POST /api/sessions/{id}/retry", s.session(s.handleRetry))
	mux.HandleFunc("POST /api/sessions/{id}/dismiss", s.session(s.handleDismiss))
	mux.HandleFunc("POST /api/sessions/{id}/reset", s.session(s.handleReset))
	mux.HandleFunc("GET /api/sessions/{id}/article.html", s.session(s.handleArticleHTML))
	mux.HandleFunc("GET /api/sessions/{id}/outline", s.session(s.handleOutline))
	mux.HandleFunc("POST /api/sessions/{id}/export", s.session(s.handleExport))
	return logMiddleware(s.logger, mux)
}

// --- Handlers ---

type sessionResp struct {
	SessionID string         `json:"session_id"`
	State     workflow.State `json:"state"`
}

type errorResp struct {
	Error string          `json:"error"`
	State *workflow.State `json:"state,omitempty"`
}

type nicheReq struct {
	Niche string `json:"niche"`
}

type keywordReq struct {
	Keyword string `json:"keyword"`
}

type articleReq struct {
	Country string `json:"country"`
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, id string, c *workflow.Controller)

// session resolves the {id} path value to its controller.
func (s *Server) session(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		c, ok := s.store.get(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResp{Error: "session not found"})
			return
		}
		h(w, r, id, c)
	}
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	c := workflow.NewController(s.stages, s.logger.With(zap.String("session", id)))
	s.store.set(id, c)
	writeJSON(w, http.StatusCreated, sessionResp{SessionID: id, State: c.Snapshot()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request, id string, c *workflow.Controller) {
	writeJSON(w, http.StatusOK, sessionResp{SessionID: id, State: c.Snapshot()})
}

func (s *Server) handleNiche(w http.ResponseWriter, r *http.Request, id string, c *workflow.Controller) {
	var req nicheReq
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, id, c, c.SubmitNiche(r.Context(), req.Niche))
}

func (s *Server) handleMainKeyword(w http.ResponseWriter, r *http.Request, id string, c *workflow.Controller) {
	var req keywordReq
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, id, c, c.SelectMainKeyword(r.Context(), req.Keyword))
}

func (s *Server) handleSeedKeyword(w http.ResponseWriter, r *http.Request, id string, c *workflow.Controller) {
	var req keywordReq
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, id, c, c.SelectSeedKeyword(r.Context(), req.Keyword))
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request, id string, c *workflow.Controller) {
	var req generator.SectionSelection
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, id, c, c.ConfirmSelection(req))
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request, id string, c *workflow.Controller) {
	var req articleReq
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, id, c, c.ComposeArticle(r.Context(), req.Country))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request, id string, c *workflow.Controller) {
	s.respond(w, id, c, c.Retry(r.Context()))
}

func (s *Server) handleDismiss(w http.ResponseWriter, _ *http.Request, id string, c *workflow.Controller) {
	c.DismissError()
	s.respond(w, id, c, nil)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request, id string, c *workflow.Controller) {
	c.StartOver()
	s.respond(w, id, c, nil)
}

func (s *Server) handleArticleHTML(w http.ResponseWriter, _ *http.Request, _ string, c *workflow.Controller) {
	st := c.Snapshot()
	if st.Article.Empty() {
		writeJSON(w, http.StatusConflict, errorResp{Error: "no article has been composed yet"})
		return
	}
	page, err := publisher.Document(st.Article)
	if err != nil {
		s.logger.Error("render article", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "could not render article"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleOutline(w http.ResponseWriter, _ *http.Request, _ string, c *workflow.Controller) {
	st := c.Snapshot()
	if st.Article.Empty() {
		writeJSON(w, http.StatusConflict, errorResp{Error: "no article has been composed yet"})
		return
	}
	writeJSON(w, http.StatusOK, publisher.BuildOutline(st.Article.Body))
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request, _ string, c *workflow.Controller) {
	if s.publisher == nil {
		writeJSON(w, http.StatusNotImplemented, errorResp{Error: "export is not configured"})
		return
	}
	st := c.Snapshot()
	if st.Article.Empty() || st.SeedKeyword == nil {
		writeJSON(w, http.StatusConflict, errorResp{Error: "no article has been composed yet"})
		return
	}
	res, err := s.publisher.Export(st.Article, publisher.ExportMeta{
		Keyword: st.SeedKeyword.Keyword,
		Country: st.Country,
	})
	if err != nil {
		s.logger.Error("export article", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "could not export article"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// respond writes the session snapshot, or the error with the status it maps to.
func (s *Server) respond(w http.ResponseWriter, id string, c *workflow.Controller, err error) {
	st := c.Snapshot()
	if err == nil {
		writeJSON(w, http.StatusOK, sessionResp{SessionID: id, State: st})
		return
	}
	status, msg := statusFor(err)
	writeJSON(w, status, errorResp{Error: msg, State: &st})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrMissingPrerequisite),
		errors.Is(err, workflow.ErrNothingToRetry),
		errors.Is(err, workflow.ErrDiscarded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, workflow.ErrEmptyInput),
		errors.Is(err, workflow.ErrUnknownKeyword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, generator.ErrSchemaMismatch):
		return http.StatusBadGateway, workflow.GenericFormatMessage
	case errors.Is(err, generator.ErrGenerationFailure):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// --- Helpers ---

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

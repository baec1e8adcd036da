package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/liamcoop/scid/internal/config"
	"github.com/liamcoop/scid/internal/logger"
	"github.com/liamcoop/scid/rules"
	"github.com/liamcoop/scid/sandcontrol"
)

// maxRequestBody caps POST bodies; an observation set is a few hundred bytes
const maxRequestBody = 64 << 10

type Server struct {
	assessor *Assessor
	router   *chi.Mux
}

func NewServer(assessor *Assessor) *Server {
	s := &Server{assessor: assessor}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)

	// Assessment
	r.Post("/api/v1/recommend", s.handleRecommend)
	r.Post("/api/v1/factors/{factor}/evaluate", s.handleEvaluateFactor)

	// Rule management
	r.Route("/api/v1/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleCreateRule)
		r.Post("/reload", s.handleReloadRules)

		r.Route("/{ruleId}", func(r chi.Router) {
			r.Get("/", s.handleGetRule)
			r.Put("/", s.handleUpdateRule)
			r.Delete("/", s.handleDeleteRule)
			r.Post("/evaluate", s.handleEvaluateRule)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs each request through internal/logger
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"requestId", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	active, err := s.assessor.Rules()
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unhealthy",
			Details: err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Engine:   s.assessor.Name(),
		Variant:  string(s.assessor.Policy().Variant),
		Rules:    len(active),
		Counters: logger.Counters(),
	})
}

// decodeBody decodes a size-limited JSON body into v, rejecting unknown fields
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Recommendation handler
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := s.assessor.Assess(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid observations", err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// List rules handler
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	active, err := s.assessor.Rules()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}

	respondJSON(w, http.StatusOK, newRulesListResponse(active))
}

// Evaluate factor handler
func (s *Server) handleEvaluateFactor(w http.ResponseWriter, r *http.Request) {
	factor := sandcontrol.Factor(chi.URLParam(r, "factor"))
	if !factor.Valid() {
		respondError(w, http.StatusNotFound, "factor not found", fmt.Errorf("unknown factor %q", factor))
		return
	}

	var req RecommendRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	indicated, err := s.assessor.EvaluateFactor(factor, req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid observations", err)
		return
	}

	respondJSON(w, http.StatusOK, FactorResponse{Factor: factor, Indicated: indicated})
}

// Create rule handler
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := req.Rule()
	if err := s.assessor.AddRule(rule); err != nil {
		respondError(w, ruleErrorStatus(err), "failed to add rule", err)
		return
	}

	respondJSON(w, http.StatusCreated, newRuleResponse(rule))
}

// Get rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.assessor.Rule(chi.URLParam(r, "ruleId"))
	if err != nil {
		respondError(w, ruleErrorStatus(err), "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, newRuleResponse(rule))
}

// Update rule handler
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req UpdateRuleRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	existing, err := s.assessor.Rule(chi.URLParam(r, "ruleId"))
	if err != nil {
		respondError(w, ruleErrorStatus(err), "rule not found", err)
		return
	}

	rule := req.Apply(existing)
	if err := s.assessor.UpdateRule(rule); err != nil {
		respondError(w, ruleErrorStatus(err), "failed to update rule", err)
		return
	}

	respondJSON(w, http.StatusOK, newRuleResponse(rule))
}

// Delete rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.assessor.DeleteRule(chi.URLParam(r, "ruleId")); err != nil {
		respondError(w, ruleErrorStatus(err), "failed to delete rule", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Evaluate rule handler. A rule that fails at runtime is reported in the
// result, not as an HTTP error.
func (s *Server) handleEvaluateRule(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := s.assessor.EvaluateRule(chi.URLParam(r, "ruleId"), req)
	if result == nil {
		respondError(w, ruleErrorStatus(err), "failed to evaluate rule", err)
		return
	}

	respondJSON(w, http.StatusOK, newRuleResultResponse(result))
}

// ruleErrorStatus maps rule store errors to HTTP statuses
func ruleErrorStatus(err error) int {
	switch {
	case errors.Is(err, rules.ErrRuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, rules.ErrRuleExists):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// Reload rules handler
func (s *Server) handleReloadRules(w http.ResponseWriter, r *http.Request) {
	n, err := s.assessor.Reload()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "failed to reload rules", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"reloaded": n,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	switch {
	case status >= 500:
		logger.ErrorHttp5xx()
		logger.Error(message, "status", status, "error", err)
	case status >= 400:
		logger.WarnHttp4xx(status)
	}

	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}

// Serve runs the HTTP adapter until ctx is cancelled, then shuts down
// gracefully
func Serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
		IdleTimeout:  cfg.GetIdleTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

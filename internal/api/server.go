// Package api exposes the dedup engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/dedup"
	"github.com/sells-group/leadscope/internal/model"
	"github.com/sells-group/leadscope/internal/store"
)

// Server handles HTTP requests against a lead store and dedup engine.
type Server struct {
	store     store.LeadStore
	scanner   *dedup.Scanner
	merger    *dedup.Merger
	processor *dedup.Processor
}

// New creates a Server.
func New(s store.LeadStore, scanner *dedup.Scanner, merger *dedup.Merger, processor *dedup.Processor) *Server {
	return &Server{store: s, scanner: scanner, merger: merger, processor: processor}
}

// Routes returns the chi router for the API.
func (s *Server) Routes(allowedOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/accounts/{accountID}", func(r chi.Router) {
		r.Get("/leads", s.handleListLeads)
		r.Get("/duplicates", s.handleScanAccount)
		r.Get("/leads/{leadID}/duplicates", s.handleScanLead)
		r.Post("/merges", s.handleMerge)
		r.Post("/batch", s.handleBatch)
		r.Get("/events", s.handleListEvents)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	leads, err := s.store.ListLeads(r.Context(), accountID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (s *Server) handleScanAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	candidates, err := s.scanner.ScanAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (s *Server) handleScanLead(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	leadID := chi.URLParam(r, "leadID")
	candidates, err := s.scanner.FindDuplicatesForLead(r.Context(), accountID, leadID)
	if err != nil {
		if eris.Is(err, dedup.ErrLeadNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

type mergeRequest struct {
	SurvivingLeadID string            `json:"surviving_lead_id"`
	RemovedLeadID   string            `json:"removed_lead_id"`
	Strategies      map[string]string `json:"strategies,omitempty"`
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return
	}
	if req.SurvivingLeadID == "" || req.RemovedLeadID == "" {
		writeError(w, http.StatusBadRequest, eris.New("surviving_lead_id and removed_lead_id are required"))
		return
	}

	var overrides map[model.Field]dedup.Strategy
	if len(req.Strategies) > 0 {
		overrides = make(map[model.Field]dedup.Strategy, len(req.Strategies))
		for f, st := range req.Strategies {
			overrides[model.Field(f)] = dedup.Strategy(st)
		}
	}

	merged, err := s.merger.Merge(r.Context(), accountID, req.SurvivingLeadID, req.RemovedLeadID, overrides)
	if err != nil {
		switch {
		case eris.Is(err, dedup.ErrLeadNotFound):
			writeError(w, http.StatusNotFound, err)
		case eris.Is(err, dedup.ErrMergeConflict):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lead": merged})
}

type batchRequest struct {
	AutoResolve bool `json:"auto_resolve"`
}

// handleBatch kicks off a batch run asynchronously and returns 202. Results
// land in the merge event trail and the logs.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	var req batchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
			return
		}
	}

	// The run outlives the request; detach from the request context so
	// the client disconnecting does not cancel the batch.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		result, err := s.processor.ProcessBatch(ctx, accountID, req.AutoResolve)
		if err != nil {
			zap.L().Error("api: batch failed",
				zap.String("account_id", accountID),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("api: batch finished",
			zap.String("account_id", accountID),
			zap.Int("processed", result.Processed),
			zap.Int("resolved", result.Resolved),
			zap.Int("errors", len(result.Errors)),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"account_id":   accountID,
		"auto_resolve": req.AutoResolve,
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	events, err := s.store.ListMergeEvents(r.Context(), accountID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": eris.Cause(err).Error()})
}

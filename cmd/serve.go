package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/nomenclature"
	"github.com/gardenscape/plant-import/internal/store"
)

var servePort int

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer env.Close()
		defer logCost(env.Tracker)

		srv := newAPIServer(ctx, env.Importer, env.Store, env.Normalizer, env.Registry)
		err = startServer(ctx, srv.routes(), resolvePort(servePort, cfg.Server.Port))
		srv.wait()
		return err
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// plantService is the part of the importer the HTTP API drives.
type plantService interface {
	Search(ctx context.Context, kind model.Source, query string) ([]model.Candidate, error)
	ImportQuery(ctx context.Context, kind model.Source, query string, limit int) (*model.ImportRun, error)
}

// importTimeout bounds an async import, which outlives shutdown signals.
const importTimeout = 30 * time.Minute

type apiServer struct {
	ctx      context.Context
	svc      plantService
	store    store.Store
	norm     *nomenclature.Normalizer
	gatherer prometheus.Gatherer

	imports sync.WaitGroup
}

func newAPIServer(ctx context.Context, svc plantService, st store.Store, norm *nomenclature.Normalizer, gatherer prometheus.Gatherer) *apiServer {
	if norm == nil {
		norm = nomenclature.New(nil)
	}
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}
	return &apiServer{ctx: ctx, svc: svc, store: st, norm: norm, gatherer: gatherer}
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/plants", s.handleListPlants)
		r.Get("/plants/search", s.handleSearch)
		r.Post("/plants/normalize", s.handleNormalize)
		r.Post("/plants/import", s.handleImport)
		r.Get("/runs", s.handleListRuns)
	})
	return r
}

// wait blocks until accepted imports have finished.
func (s *apiServer) wait() {
	s.imports.Wait()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleListPlants(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	q := r.URL.Query()
	filter := store.PlantFilter{
		Query:  q.Get("q"),
		Family: q.Get("family"),
		Limit:  queryInt(q.Get("limit"), 50),
		Offset: queryInt(q.Get("offset"), 0),
	}
	if src := q.Get("source"); src != "" {
		kind, ok := model.ParseSource(src)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", src))
			return
		}
		filter.Source = kind
	}

	plants, err := s.store.ListPlants(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list plants", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list plants failed")
		return
	}
	total, err := s.store.CountPlants(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: count plants", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "count plants failed")
		return
	}
	if plants == nil {
		plants = []model.Plant{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"plants": plants, "total": total})
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	kind, ok := parseAPISource(q.Get("source"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", q.Get("source")))
		return
	}

	cands, err := s.svc.Search(r.Context(), kind, query)
	if err != nil {
		zap.L().Warn("api: search", zap.String("source", string(kind)), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if cands == nil {
		cands = []model.Candidate{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"source": kind, "candidates": cands})
}

type normalizeRequest struct {
	Names []string `json:"names"`
}

func (s *apiServer) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Names) == 0 {
		writeError(w, http.StatusBadRequest, "names is required")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"rules_version": s.norm.RulesVersion(),
		"results":       normalizeNames(s.norm, req.Names),
	})
}

type importRequest struct {
	Source string `json:"source"`
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
}

func (s *apiServer) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	kind, ok := parseAPISource(req.Source)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", req.Source))
		return
	}

	s.imports.Add(1)
	go func() {
		defer s.imports.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), importTimeout)
		defer cancel()
		run, err := s.svc.ImportQuery(ctx, kind, req.Query, req.Limit)
		if err != nil {
			zap.L().Error("api: import failed",
				zap.String("source", string(kind)),
				zap.String("query", req.Query),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("api: import complete",
			zap.String("run_id", run.ID),
			zap.Int("imported", run.Imported),
			zap.Int("skipped", run.Skipped),
			zap.Int("failed", run.Failed),
		)
	}()

	writeJSONResponse(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"source": string(kind),
		"query":  req.Query,
	})
}

func (s *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Limit:  queryInt(q.Get("limit"), 50),
		Offset: queryInt(q.Get("offset"), 0),
	}
	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []model.ImportRun{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// parseAPISource defaults an empty source to Perenual and rejects manual.
func parseAPISource(s string) (model.Source, bool) {
	if s == "" {
		return model.SourcePerenual, true
	}
	kind, ok := model.ParseSource(s)
	if !ok || kind == model.SourceManual {
		return "", false
	}
	return kind, true
}

func queryInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONResponse(w, status, map[string]string{"error": msg})
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler on port until ctx is done, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- eris.Wrap(err, "server listen")
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return <-errCh
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
)

const maxProfileBytes = 1 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for starting and inspecting runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer env.Close()

		api := newAPIServer(ctx, env.Store, env.Pipeline, cfg)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
		})

		err = g.Wait()
		api.wait()
		return err
	},
}

// runner starts pipeline runs. *pipeline.Pipeline satisfies it.
type runner interface {
	Prepare(ctx context.Context, prof config.Profile) (*pipeline.Stages, error)
	Start(ctx context.Context, prof config.Profile) (*model.Run, error)
	Execute(ctx context.Context, runID string, prof config.Profile, stages *pipeline.Stages) (*model.RunResult, error)
}

// apiServer serves the run API. Runs accepted over HTTP execute in the
// background under ctx.
type apiServer struct {
	ctx    context.Context
	store  store.Store
	runner runner
	cfg    *config.Config
	wg     sync.WaitGroup
}

func newAPIServer(ctx context.Context, st store.Store, r runner, c *config.Config) *apiServer {
	if c == nil {
		c = &config.Config{}
	}
	return &apiServer{ctx: ctx, store: st, runner: r, cfg: c}
}

// wait blocks until background runs finish.
func (s *apiServer) wait() {
	s.wg.Wait()
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Post("/", s.handleStartRun)
		r.Get("/{id}", s.handleGetRun)
		r.Get("/{id}/records", s.handleListRecords)
		r.Get("/{id}/export.xlsx", s.handleExport)
	})
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	runs, err := s.store.ListRuns(r.Context(), store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Limit:  parseIntParam(r, "limit", 50, 500),
		Offset: parseIntParam(r, "offset", 0, 0),
	})
	if err != nil {
		zap.L().Error("api: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *apiServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *apiServer) handleListRecords(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	recs, err := s.store.ListRecords(r.Context(), run.ID)
	if err != nil {
		zap.L().Error("api: list records", zap.String("run_id", run.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	recs, err := s.store.ListRecords(r.Context(), run.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leads-%s.xlsx"`, truncateID(run.ID)))
	if err := export.WriteXLSXTo(w, recs); err != nil {
		zap.L().Error("api: export", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (s *apiServer) handleStartRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProfileBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prof, err := config.ParseProfile(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile")
		return
	}
	prof = prof.WithFallbackKeys(s.cfg)
	if err := prof.Validate(s.cfg.Strategy.Provider, s.cfg.Anthropic.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not configured")
		return
	}

	stages, err := s.runner.Prepare(r.Context(), prof)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	run, err := s.runner.Start(r.Context(), prof)
	if err != nil {
		zap.L().Error("api: start run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start run")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := s.runner.Execute(s.ctx, run.ID, prof, stages)
		if err != nil {
			zap.L().Error("api: run failed", zap.String("run_id", run.ID), zap.Error(err))
			return
		}
		zap.L().Info("api: run finished",
			zap.String("run_id", run.ID),
			zap.Int("records", len(result.Records)),
			zap.String("error", result.Error),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": run.ID,
		"status": string(run.Status),
	})
}

// lookupRun fetches the run named in the URL, writing an error response when
// it cannot.
func (s *apiServer) lookupRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return nil, false
	}
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		zap.L().Error("api: get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return nil, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

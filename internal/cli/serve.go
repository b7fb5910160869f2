package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taskplan/pkg/errors"
	"github.com/matzehuels/taskplan/pkg/observability"
	"github.com/matzehuels/taskplan/pkg/pipeline"
	"github.com/matzehuels/taskplan/pkg/store"
)

const (
	// maxGraphBytes bounds the request body of POST /v1/solve.
	maxGraphBytes = 8 << 20

	// defaultRunsLimit is the page size of GET /v1/runs.
	defaultRunsLimit = 50

	shutdownTimeout = 10 * time.Second
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduler over HTTP",
		Long: `Serve the scheduler over HTTP.

Endpoints:
  POST   /v1/solve?processors=N[&algorithm=..&threads=..&budget=..&timeout=..]
         body: DOT text, or a JSON graph with Content-Type application/json
  GET    /v1/runs[?limit=N]
  GET    /v1/runs/{id}
  DELETE /v1/runs/{id}
  GET    /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()
			return serve(ctx, addr, newServer(runner, c.Config, c.Logger), c.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the solve cache")

	return cmd
}

// serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func serve(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Server
// =============================================================================

// server holds the HTTP handlers. A Runner without a Store cannot serve the
// runs endpoints. Search settings missing from a request fall back to cfg.
type server struct {
	runner *pipeline.Runner
	cfg    Config
	logger *log.Logger
}

// newServer builds the API router around runner.
func newServer(runner *pipeline.Runner, cfg Config, logger *log.Logger) http.Handler {
	s := &server{runner: runner, cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
	})
	return r
}

// observe reports every request to the HTTP hooks.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, routePattern(r), status, time.Since(start))
	})
}

// routePattern returns the matched chi pattern, so run IDs do not end up in
// per-path metrics.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// solveResponse is the body of a successful POST /v1/solve.
type solveResponse struct {
	Run *store.Run `json:"run"`
	DOT string     `json:"dot"`
}

func (s *server) handleSolve(w http.ResponseWriter, r *http.Request) {
	opts, err := solveRequestOptions(r, s.cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Logger = s.logger

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxGraphBytes))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body"))
		return
	}
	if len(body) == 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "request body must contain a task graph"))
		return
	}
	opts.Source = body
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	switch {
	case result == nil || result.Search.Solution == nil:
		if err == nil {
			err = errors.New(errors.ErrCodeInternal, "search returned no schedule")
		}
		writeError(w, err)
		return
	case err != nil && !errors.Is(err, errors.ErrCodeTimeout):
		writeError(w, err)
		return
	}

	run := result.Run
	if run == nil {
		// Runner without a store; still answer with the schedule.
		run = store.NewRun()
		run.Processors = opts.Processors
		run.Algorithm = opts.Algorithm
		run.Status = result.Search.Status.String()
		run.Makespan = result.Search.Solution.Makespan
		run.Solution = result.Search.Solution
		run.Stats = result.Search.Stats
	} else {
		w.Header().Set("Location", "/v1/runs/"+run.ID)
	}
	writeJSON(w, http.StatusCreated, solveResponse{
		Run: run,
		DOT: string(result.Artifacts[pipeline.FormatDOT]),
	})
}

// solveRequestOptions reads solve options from the query string and the
// Content-Type header. Query parameters override the configured defaults.
func solveRequestOptions(r *http.Request, cfg Config) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		InputFormat: pipeline.InputDOT,
		Algorithm:   cfg.Algorithm,
		Timeout:     cfg.Timeout.Duration,
		Formats:     []string{pipeline.FormatDOT},
		Name:        q.Get("name"),
		Refresh:     q.Get("refresh") == "true",
	}
	if a := q.Get("algorithm"); a != "" {
		opts.Algorithm = a
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt == "application/json" {
			opts.InputFormat = pipeline.InputJSON
		}
	}

	var err error
	if opts.Processors, err = intParam(q.Get("processors"), "processors", 0); err != nil {
		return opts, err
	}
	if opts.Threads, err = intParam(q.Get("threads"), "threads", cfg.Threads); err != nil {
		return opts, err
	}
	if opts.NodeBudget, err = intParam(q.Get("budget"), "budget", cfg.NodeBudget); err != nil {
		return opts, err
	}
	if t := q.Get("timeout"); t != "" {
		if opts.Timeout, err = time.ParseDuration(t); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid timeout %q", t)
		}
	}
	return opts, nil
}

func intParam(v, name string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a number, got %q", name, v)
	}
	return n, nil
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store(w)
	if !ok {
		return
	}
	limit, err := intParam(r.URL.Query().Get("limit"), "limit", defaultRunsLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	runs, err := st.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store(w)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	run, err := st.Get(r.Context(), id)
	if err != nil {
		writeError(w, runError(id, err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store(w)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if !store.ValidID(id) {
		writeError(w, runError(id, store.ErrNotFound))
		return
	}
	if err := st.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) store(w http.ResponseWriter) (store.Store, bool) {
	if s.runner.Store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "run history is disabled"))
		return nil, false
	}
	return s.runner.Store, true
}

func runError(id string, err error) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.Wrap(errors.ErrCodeRunNotFound, err, "run %s not found", id)
	}
	return err
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	body.Error.Message = errors.UserMessage(err)
	writeJSON(w, errors.HTTPStatus(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/cors"

	"github.com/sajal1123/curio/internal/config"
	"github.com/sajal1123/curio/pkg/aggregate"
	"github.com/sajal1123/curio/pkg/geo"
	"github.com/sajal1123/curio/pkg/layer"
	"github.com/sajal1123/curio/pkg/linkerr"
	"github.com/sajal1123/curio/pkg/loader"
	"github.com/sajal1123/curio/pkg/resolve"
	"github.com/sajal1123/curio/pkg/scene"
	"github.com/sajal1123/curio/pkg/scene2d"
	"github.com/sajal1123/curio/pkg/spec"
	"github.com/sajal1123/curio/pkg/validation"
)

// Server is the local development server for the browser renderer.
type Server struct {
	projectPath string
	cfg         config.Config
	logger      *slog.Logger

	mu       sync.RWMutex
	project  *loader.Project
	resolver *resolve.Resolver
	gen      uint64
	results  *lru.Cache[string, cachedResult]

	// sceneMu serializes assembly, which sets the filter on shared meshes.
	sceneMu sync.Mutex
}

// New creates a server for the given project directory and loads it.
func New(ctx context.Context, projectPath string, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cache, err := lru.New[string, cachedResult](cfg.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}

	s := &Server{
		projectPath: projectPath,
		cfg:         cfg,
		logger:      logger,
		results:     cache,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload reopens the project from disk and drops every cached result.
// The previous project stays in place when loading fails.
func (s *Server) Reload(ctx context.Context) error {
	p, err := loader.OpenProject(ctx, s.projectPath, s.cfg.ProjectOptions(s.logger))
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}

	s.mu.Lock()
	s.project = p
	s.resolver = resolve.New(p.Registry, resolve.WithLogger(s.logger))
	s.gen++
	s.results.Purge()
	s.mu.Unlock()
	return nil
}

// snapshot is one loaded project generation. Results resolved against a
// snapshot are only cached and reused within the same generation.
type snapshot struct {
	project  *loader.Project
	resolver *resolve.Resolver
	gen      uint64
}

type cachedResult struct {
	gen uint64
	res *resolve.Result
}

func (s *Server) state() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{project: s.project, resolver: s.resolver, gen: s.gen}
}

// remember caches res unless a reload replaced the project it came from.
func (s *Server) remember(st snapshot, id string, res *resolve.Result) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen == st.gen {
		s.results.Add(id, cachedResult{gen: st.gen, res: res})
	}
}

// Handler returns the API routes wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/layers", s.handleLayers)
	mux.HandleFunc("GET /api/knots", s.handleKnots)
	mux.HandleFunc("GET /api/knots/{id}", s.handleKnot)
	mux.HandleFunc("POST /api/resolve", s.handleResolve)
	mux.HandleFunc("GET /api/scene", s.handleScene)
	mux.HandleFunc("GET /api/plan", s.handlePlan)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("GET /", s.handleIndex)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.logRequests(mux))
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("curio server starting", "addr", "http://localhost"+srv.Addr, "project", s.projectPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "err", err)
	}
}

var errKnotNotFound = errors.New("knot not found")

type errorBody struct {
	Error string       `json:"error"`
	Kind  linkerr.Kind `json:"kind,omitempty"`
	Step  *int         `json:"step,omitempty"`
}

// writeError maps resolution failures onto status codes: a missing knot,
// layer or join is 404, other linkage problems are 422 and unclassified
// errors are 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error(), Kind: linkerr.KindOf(err)}
	var le *linkerr.Error
	if errors.As(err, &le) && le.Step >= 0 {
		step := le.Step
		body.Step = &step
	}

	status := http.StatusUnprocessableEntity
	switch {
	case body.Kind == linkerr.KindNotFound, errors.Is(err, errKnotNotFound):
		status = http.StatusNotFound
	case body.Kind == "":
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>curio</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>curio</h1>
<p>Renderer not embedded. Point the renderer at <code>/api/scene</code>.</p>
</div>
</body></html>`)
}

func (s *Server) handleLayers(w http.ResponseWriter, _ *http.Request) {
	p := s.state().project
	out := make([]layer.Summary, 0, p.Registry.Len())
	for _, l := range p.Registry.All() {
		out = append(out, layer.Summarize(l))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type knotInfo struct {
	ID       string `json:"id"`
	Layer    string `json:"layer"`
	External bool   `json:"external,omitempty"`
	Links    int    `json:"links,omitempty"`
}

func (s *Server) handleKnots(w http.ResponseWriter, _ *http.Request) {
	p := s.state().project
	out := make([]knotInfo, 0, len(p.Grammar.Knots)+len(p.Grammar.ExKnots))
	for _, k := range p.Grammar.Knots {
		out = append(out, knotInfo{ID: k.ID, Layer: k.PhysicalLayer().Name, Links: len(k.IntegrationScheme)})
	}
	for _, ex := range p.Grammar.ExKnots {
		out = append(out, knotInfo{ID: ex.ID, Layer: ex.OutName, External: true})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// resolveByID resolves a knot or ex_knot of the snapshot's grammar, through
// the cache.
func (s *Server) resolveByID(st snapshot, id string) (*resolve.Result, error) {
	if c, ok := s.results.Get(id); ok && c.gen == st.gen {
		return c.res, nil
	}

	p, r := st.project, st.resolver
	var (
		res *resolve.Result
		err error
	)
	if k := p.Grammar.KnotByID(id); k != nil {
		res, err = r.ResolveKnot(*k)
	} else {
		err = fmt.Errorf("%w: %q", errKnotNotFound, id)
		for _, ex := range p.Grammar.ExKnots {
			if ex.ID == id {
				res, err = r.ResolveExKnot(ex)
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}
	s.remember(st, id, res)
	return res, nil
}

func (s *Server) handleKnot(w http.ResponseWriter, r *http.Request) {
	res, err := s.resolveByID(s.state(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// resolveRequest carries an ad hoc join chain.
type resolveRequest struct {
	Chain []spec.LinkDescription `json:"integration_scheme"`
}

type resolveResponse struct {
	Values aggregate.Matrix `json:"values"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("decoding request: %v", err)})
		return
	}

	m, err := s.state().resolver.Resolve(req.Chain)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resolveResponse{Values: m})
}

// buildScene resolves every knot through the cache and assembles the
// scene. It writes the error response itself and returns ok=false.
func (s *Server) buildScene(w http.ResponseWriter, r *http.Request) (*loader.Project, *scene.Scene, bool) {
	bbox, err := geo.ParseBBox2D(r.URL.Query().Get("bbox"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return nil, nil, false
	}

	st := s.state()
	p := st.project
	ids := make([]string, 0, len(p.Grammar.Knots)+len(p.Grammar.ExKnots))
	for _, k := range p.Grammar.Knots {
		ids = append(ids, k.ID)
	}
	for _, ex := range p.Grammar.ExKnots {
		ids = append(ids, ex.ID)
	}

	results := make([]*resolve.Result, 0, len(ids))
	for _, id := range ids {
		res, err := s.resolveByID(st, id)
		if err != nil {
			s.writeError(w, fmt.Errorf("knot %q: %w", id, err))
			return nil, nil, false
		}
		results = append(results, res)
	}

	s.sceneMu.Lock()
	sc, err := scene.Assemble(p.Registry, p.Grammar, results, scene.Options{Filter: bbox})
	s.sceneMu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return nil, nil, false
	}
	return p, sc, true
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if _, sc, ok := s.buildScene(w, r); ok {
		s.writeJSON(w, http.StatusOK, sc)
	}
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	timestep := 0
	if raw := r.URL.Query().Get("t"); raw != "" {
		t, err := strconv.Atoi(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("t: %v", err)})
			return
		}
		timestep = t
	}

	p, sc, ok := s.buildScene(w, r)
	if !ok {
		return
	}
	plan, err := scene2d.Assemble2D(p.Registry, sc, timestep)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	p := s.state().project
	s.writeJSON(w, http.StatusOK, validation.ValidateProject(p.Grammar, p.Registry))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	p := s.state().project
	s.writeJSON(w, http.StatusOK, map[string]any{"layers": p.Registry.Len(), "knots": len(p.Grammar.Knots)})
}

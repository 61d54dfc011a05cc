// Package server exposes the persisted reconciled table over a read-only
// HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tunitech/specrecon/internal/model"
	"github.com/tunitech/specrecon/internal/store"
)

// Server serves listings, brand summaries and run reports.
type Server struct {
	store   store.Store
	router  chi.Router
	limiter *rate.Limiter
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit throttles the /v1 routes to rps requests per second with
// the given burst. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a Server reading from st.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{store: st}
	for _, o := range opts {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.throttle)
		r.Get("/listings", s.handleListings)
		r.Get("/brands", s.handleBrands)
		r.Get("/stats", s.handleStats)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{runID}", s.handleRun)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListingView is the API shape of a reconciled listing.
type ListingView struct {
	Name       string                         `json:"name"`
	Brand      string                         `json:"brand"`
	Price      *float64                       `json:"price,omitempty"`
	Source     string                         `json:"source"`
	URL        string                         `json:"url,omitempty"`
	Key        string                         `json:"canonical_key,omitempty"`
	Specs      map[model.Field]string         `json:"specs"`
	Is5G       *bool                          `json:"is_5g,omitempty"`
	FilledFrom map[model.Field]model.FillTier `json:"filled_from,omitempty"`
}

func viewOf(rl model.ReconciledListing) ListingView {
	v := ListingView{
		Name:   rl.Listing.Name,
		Brand:  rl.Listing.Brand,
		Price:  rl.Listing.Price,
		Source: rl.Listing.Source,
		URL:    rl.Listing.URL,
		Key:    rl.Key,
		Specs:  rl.Specs,
	}
	if is5G, ok := rl.Is5G(); ok {
		v.Is5G = &is5G
	}
	for f, p := range rl.Provenance {
		if p.Tier == model.TierOriginal {
			continue
		}
		if v.FilledFrom == nil {
			v.FilledFrom = make(map[model.Field]model.FillTier)
		}
		v.FilledFrom[f] = p.Tier
	}
	return v
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseListingFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}
	listings, err := s.store.ListListings(r.Context(), run.ID, filter)
	if err != nil {
		s.internalError(w, "list listings", err)
		return
	}
	views := make([]ListingView, len(listings))
	for i, rl := range listings {
		views[i] = viewOf(rl)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":   run.ID,
		"count":    len(views),
		"listings": views,
	})
}

func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}
	brands, err := s.store.Brands(r.Context(), run.ID)
	if err != nil {
		s.internalError(w, "brands", err)
		return
	}
	if brands == nil {
		brands = []store.BrandSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": run.ID,
		"brands": brands,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	run, ok := s.resolveRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run.Report)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{Status: model.RunStatus(q.Get("status"))}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit: "+err.Error())
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset: "+err.Error())
		return
	}
	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		s.internalError(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.storeError(w, "get run", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// resolveRun picks the run named by ?run_id= or the latest complete run.
// It writes the error response itself when no run can be served.
func (s *Server) resolveRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	var (
		run *model.Run
		err error
	)
	if id := r.URL.Query().Get("run_id"); id != "" {
		run, err = s.store.GetRun(r.Context(), id)
	} else {
		run, err = s.store.LatestRun(r.Context())
	}
	if err != nil {
		s.storeError(w, "resolve run", err)
		return nil, false
	}
	if run.Status != model.RunStatusComplete {
		writeError(w, http.StatusConflict, "run "+run.ID+" is "+string(run.Status))
		return nil, false
	}
	return run, true
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.internalError(w, op, err)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	zap.L().Error("server: "+op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// ParseListingFilter reads listing filters from query parameters.
func ParseListingFilter(q map[string][]string) (store.ListingFilter, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	f := store.ListingFilter{
		Brand:  get("brand"),
		Source: get("source"),
	}
	floats := []struct {
		name string
		dst  **float64
	}{
		{"min_price", &f.MinPrice},
		{"max_price", &f.MaxPrice},
		{"min_ram", &f.MinRAM},
		{"min_storage", &f.MinStorage},
		{"min_battery", &f.MinBattery},
		{"min_camera", &f.MinCamera},
	}
	for _, p := range floats {
		raw := get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return f, eris.Errorf("%s must be a non-negative number, got %q", p.name, raw)
		}
		*p.dst = &v
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, eris.New("min_price exceeds max_price")
	}

	if raw := get("requires_5g"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, eris.Errorf("requires_5g must be a boolean, got %q", raw)
		}
		f.Requires5G = b
	}

	var err error
	if f.Limit, err = intParam(get("limit")); err != nil {
		return f, eris.Wrap(err, "limit")
	}
	if f.Offset, err = intParam(get("offset")); err != nil {
		return f, eris.Wrap(err, "offset")
	}
	return f, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, eris.Errorf("must be a non-negative integer, got %q", raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

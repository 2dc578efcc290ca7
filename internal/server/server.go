// Package server exposes the batch engine's admin HTTP surface (spec.md
// §6): triggering and polling batch runs, and a handful of narrower
// maintenance triggers, following the teacher's chi-router-plus-handler-
// factory convention from cmd/tradernet-sdk.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/aristath/sentinel/internal/database"
	"github.com/aristath/sentinel/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// AdminAuth authenticates an inbound admin request. The spec leaves the
// scheme unspecified, so internal/server accepts it as a seam: a nil
// AdminAuth disables the check entirely (suitable for a trusted internal
// network), matching the teacher's own admin endpoints which carry no auth
// middleware of their own.
type AdminAuth func(*http.Request) bool

// BatchRunner is the subset of *orchestrator.Service the HTTP surface
// drives, narrowed to an interface the same way the teacher's SDKClient
// wraps its SDK client "for dependency injection in tests".
type BatchRunner interface {
	RunDaily(ctx context.Context, triggeredBy string) error
	RunForceRerun(ctx context.Context, start, end time.Time, portfolioID *string, triggeredBy string) error
	RunCorrelationsOnly(ctx context.Context, portfolioID *string, date time.Time) error
}

// RunTracker is the subset of *orchestrator.Tracker the HTTP surface reads.
type RunTracker interface {
	Current() (domain.BatchRun, bool)
}

// PlaceholderCleaner is the subset of *snapshot.Service the cleanup
// endpoint drives.
type PlaceholderCleaner interface {
	CleanupAbandonedPlaceholders(ctx context.Context) (int64, error)
}

// BarCache is the subset of *marketdata.PriceCache the market-data trigger
// drives.
type BarCache interface {
	Prefetch(ctx context.Context, symbols []string, from, to time.Time) map[string]error
}

// TradingCalendar is the subset of *calendar.Calendar the HTTP surface
// needs to pick a processing date for ad-hoc triggers.
type TradingCalendar interface {
	MostRecentTradingDay() time.Time
}

// SymbolSource lists every symbol the batch engine currently tracks, used
// to scope the market-data and company-profile warm-up triggers to the
// book's actual holdings instead of a hardcoded list.
type SymbolSource interface {
	ActiveSymbols(ctx context.Context) ([]string, error)
}

// ProfileWarmer refreshes company_profiles (internal/companyprofile) for a
// set of symbols from the market-data provider chain, backing the
// trigger/company-profiles endpoint's full refresh.
type ProfileWarmer interface {
	RefreshAll(ctx context.Context, symbols []string) (int, error)
}

// SectorRestorer refreshes company_profiles only for symbols currently
// missing a sector tag, backing the narrower restore-sector-tags repair
// endpoint.
type SectorRestorer interface {
	RefreshMissing(ctx context.Context, symbols []string) (int, error)
}

// Server wires the orchestrator, tracker and supporting collaborators to
// the HTTP surface described in spec.md §6.
type Server struct {
	orchestrator BatchRunner
	tracker      RunTracker
	snapshots    PlaceholderCleaner
	cache        BarCache
	symbols      SymbolSource
	calendar     TradingCalendar
	profiles     ProfileWarmer
	sectors      SectorRestorer

	databases map[string]*database.DB

	auth AdminAuth
	log  zerolog.Logger
}

// New wires a Server. databases maps a short name ("core", "marketdata",
// "analytics", "jobs") to its handle, for the /health endpoint. auth may be
// nil.
func New(
	orch BatchRunner,
	tracker RunTracker,
	snapshots PlaceholderCleaner,
	cache BarCache,
	symbols SymbolSource,
	cal TradingCalendar,
	profiles ProfileWarmer,
	sectors SectorRestorer,
	databases map[string]*database.DB,
	auth AdminAuth,
	log zerolog.Logger,
) *Server {
	return &Server{
		orchestrator: orch,
		tracker:      tracker,
		snapshots:    snapshots,
		cache:        cache,
		symbols:      symbols,
		calendar:     cal,
		profiles:     profiles,
		sectors:      sectors,
		databases:    databases,
		auth:         auth,
		log:          log,
	}
}

// Router builds the chi mux. It is exported separately from a Listen
// method so callers (cmd/server, and tests via httptest) can drive it
// directly.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)

	r.Route("/admin/batch", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/run", s.runBatchHandler)
		r.Get("/run/current", s.currentRunHandler)
		r.Post("/trigger/market-data", s.triggerMarketDataHandler)
		r.Post("/trigger/correlations", s.triggerCorrelationsHandler)
		r.Post("/trigger/company-profiles", s.triggerCompanyProfilesHandler)
		r.Post("/restore-sector-tags", s.restoreSectorTagsHandler)
		r.Post("/cleanup-incomplete", s.cleanupIncompleteHandler)
	})

	return r
}

// requireAdmin rejects the request before it reaches the handler when auth
// is configured and fails. A nil auth seam passes everything through.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth != nil && !s.auth(r) {
			writeError(w, http.StatusUnauthorized, "admin authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

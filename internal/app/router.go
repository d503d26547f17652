package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	dashboardhttp "github.com/soule-smart/dashboard/internal/dashboard/http"
	"github.com/soule-smart/dashboard/internal/observability"
	"github.com/soule-smart/dashboard/internal/platform/httpx"
	"github.com/soule-smart/dashboard/internal/view"
	"github.com/soule-smart/dashboard/jobs"
	"github.com/soule-smart/dashboard/report"
	"github.com/soule-smart/dashboard/web"
)

// ReadinessCheck probes one dependency for /readyz.
type ReadinessCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	DashboardHandler *dashboardhttp.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	Readiness        map[string]ReadinessCheck
}

// NewRouter constructs the chi.Router with dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Logger, params.Readiness))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		target := "/dashboard"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})

	if params.DashboardHandler != nil {
		params.DashboardHandler.MountRoutes(r)
	}
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		err := params.Templates.RenderStatus(w, http.StatusNotFound, "pages/error.html", view.TemplateData{
			Title:       "Soule Smart Dashboard",
			CurrentPath: r.URL.Path,
			Now:         time.Now(),
			Data:        view.ErrorPage{Status: http.StatusNotFound, Message: "Seite nicht gefunden"},
		})
		if err != nil {
			http.NotFound(w, r)
		}
	})

	return r
}

// readinessHandler runs every check concurrently and reports each result.
func readinessHandler(logger *slog.Logger, checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		errs := make(map[string]error, len(checks))
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		outcomes := make([]error, len(names))

		var g errgroup.Group
		for i, name := range names {
			check := checks[name]
			g.Go(func() error {
				outcomes[i] = check(ctx)
				return nil
			})
		}
		_ = g.Wait()

		status := http.StatusOK
		for i, name := range names {
			if outcomes[i] != nil {
				status = http.StatusServiceUnavailable
				results[name] = "unavailable"
				errs[name] = outcomes[i]
				continue
			}
			results[name] = "ok"
		}
		if logger != nil {
			for name, err := range errs {
				logger.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
			}
		}
		httpx.JSON(w, status, results)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for 1 hour in browser.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

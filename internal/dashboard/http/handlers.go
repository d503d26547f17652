package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/export"
	"github.com/soule-smart/dashboard/internal/dashboard/ui"
	"github.com/soule-smart/dashboard/internal/platform/httpx"
	"github.com/soule-smart/dashboard/internal/view"
)

const (
	requestTimeout     = 5 * time.Second
	defaultExportLimit = 10
	pageTitle          = "Soule Smart Dashboard"
	pageSubtitle       = "KPI-Visualisierung & Reporting"
)

// DashboardService defines the snapshot contract used by the handler.
type DashboardService interface {
	Snapshot(ctx context.Context, state dashboard.State) (dashboard.Snapshot, error)
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, vm ui.DashboardViewModel) ([]byte, error)
}

// Handler coordinates HTTP requests for the KPI dashboard.
type Handler struct {
	logger      *slog.Logger
	service     DashboardService
	templates   *view.Engine
	builder     ui.Builder
	pdf         PDFService
	exportLimit int
	builds      singleflight.Group
	csvPool     sync.Pool
	now         func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, templates *view.Engine, area ui.AreaRenderer, bar ui.BarRenderer, pie ui.PieRenderer, pdf PDFService) *Handler {
	h := &Handler{
		logger:      logger,
		service:     service,
		templates:   templates,
		builder:     ui.Builder{Area: area, Bar: bar, Pie: pie},
		pdf:         pdf,
		exportLimit: defaultExportLimit,
		now:         time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// WithExportLimit sets the per-client export requests allowed per minute.
func (h *Handler) WithExportLimit(n int) {
	if n > 0 {
		h.exportLimit = n
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state, err := parseState(r)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.loadSnapshot(ctx, state)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}

	vm, err := h.builder.Build(snap, h.now().Year())
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}

	viewData := view.TemplateData{
		Title:       pageTitle,
		Subtitle:    pageSubtitle,
		CurrentPath: r.URL.Path,
		Now:         h.now(),
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.handleServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}

	state, err := parseState(r)
	if err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.loadSnapshot(ctx, state)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	vm, err := h.builder.Build(snap, h.now().Year())
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}

	pdfBytes, err := h.pdf.RenderDashboard(ctx, vm)
	if err != nil {
		h.logError("render pdf", err)
		http.Error(w, "PDF-Export derzeit nicht verfügbar", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportFilename(state, h.now(), "pdf")))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	state, err := parseState(r)
	if err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.loadSnapshot(ctx, state)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteSnapshotCSV(buf, snap); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportFilename(state, h.now(), "csv")))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

// loadSnapshot collapses concurrent requests for the same state into one build.
func (h *Handler) loadSnapshot(ctx context.Context, state dashboard.State) (dashboard.Snapshot, error) {
	key := string(state.Range) + "|" + string(state.Segment)
	resultChan := h.builds.DoChan(key, func() (interface{}, error) {
		// The shared build must outlive the caller that started it.
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()
		return h.service.Snapshot(buildCtx, state)
	})
	select {
	case <-ctx.Done():
		return dashboard.Snapshot{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return dashboard.Snapshot{}, res.Err
		}
		return res.Val.(dashboard.Snapshot), nil
	}
}

// parseState applies the query selections to a fresh dashboard state.
func parseState(r *http.Request) (dashboard.State, error) {
	q := r.URL.Query()
	rng, err := dashboard.ParseRange(q.Get("range"))
	if err != nil {
		return dashboard.State{}, validationError{field: "range", err: err}
	}
	seg, err := dashboard.ParseSegment(q.Get("segment"))
	if err != nil {
		return dashboard.State{}, validationError{field: "segment", err: err}
	}
	state, err := dashboard.Reduce(dashboard.DefaultState(), dashboard.SelectRange{Range: rng}, dashboard.SelectSegment{Segment: seg})
	if err != nil {
		return dashboard.State{}, validationError{field: "state", err: err}
	}
	return state, nil
}

func exportFilename(state dashboard.State, now time.Time, ext string) string {
	segment := strings.ToLower(strings.ReplaceAll(string(state.Segment), " ", "-"))
	return fmt.Sprintf("soule-dashboard-%s-%s-%s.%s", state.Range, segment, now.Format("2006-01-02"), ext)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, dashboard.ErrUnknownRange):
		return "Unbekannter Zeitraum"
	case errors.Is(err, dashboard.ErrUnknownSegment):
		return "Unbekanntes Segment"
	default:
		return "Parameter ungültig"
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	err := h.templates.RenderStatus(w, status, "pages/error.html", view.TemplateData{
		Title:       pageTitle,
		CurrentPath: r.URL.Path,
		Now:         h.now(),
		Data:        view.ErrorPage{Status: status, Message: message},
	})
	if err != nil {
		h.logError("render error page", err)
		http.Error(w, message, status)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
	err   error
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", v.field, v.err)
}

func (v validationError) Unwrap() []error {
	return []error{v.err, httpx.ErrValidation}
}

// HandleDashboardForTest exposes the dashboard handler for tests.
func (h *Handler) HandleDashboardForTest(w http.ResponseWriter, r *http.Request) {
	h.handleDashboard(w, r)
}

// HandlePDFForTest exposes the PDF handler for tests.
func (h *Handler) HandlePDFForTest(w http.ResponseWriter, r *http.Request) { h.handlePDF(w, r) }

// HandleCSVForTest exposes the CSV handler for tests.
func (h *Handler) HandleCSVForTest(w http.ResponseWriter, r *http.Request) { h.handleCSV(w, r) }

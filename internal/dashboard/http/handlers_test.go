package dashboardhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/svg"
	"github.com/soule-smart/dashboard/internal/dashboard/ui"
	"github.com/soule-smart/dashboard/internal/platform/httpx"
	"github.com/soule-smart/dashboard/internal/view"
)

type stubService struct {
	data  dashboard.Dataset
	err   error
	calls atomic.Int32
	gate  chan struct{}
	last  dashboard.State
	mu    sync.Mutex
}

func (s *stubService) Snapshot(ctx context.Context, state dashboard.State) (dashboard.Snapshot, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.last = state
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return dashboard.Snapshot{}, s.err
	}
	return dashboard.Derive(state, s.data), nil
}

type stubPDF struct {
	data []byte
	err  error
	last ui.DashboardViewModel
}

func (s *stubPDF) RenderDashboard(ctx context.Context, vm ui.DashboardViewModel) ([]byte, error) {
	s.last = vm
	if s.data == nil {
		content := bytes.Repeat([]byte("PDF"), 400)
		s.data = append([]byte("%PDF-1.4\n"), content...)
	}
	return s.data, s.err
}

type areaAdapter func(width, height int, labels []string, series []svg.Series, opts svg.AreaOpts) (template.HTML, error)

type barAdapter func(width, height int, labels []string, series []svg.Series, opts svg.BarOpts) (template.HTML, error)

type pieAdapter func(width, height int, slices []svg.Slice, opts svg.PieOpts) (template.HTML, error)

func (a areaAdapter) Area(width, height int, labels []string, series []svg.Series, opts svg.AreaOpts) (template.HTML, error) {
	return a(width, height, labels, series, opts)
}

func (a barAdapter) Bars(width, height int, labels []string, series []svg.Series, opts svg.BarOpts) (template.HTML, error) {
	return a(width, height, labels, series, opts)
}

func (a pieAdapter) Pie(width, height int, slices []svg.Slice, opts svg.PieOpts) (template.HTML, error) {
	return a(width, height, slices, opts)
}

func testDataset() dashboard.Dataset {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return dashboard.Dataset{
		Revenue: []dashboard.RevenuePoint{
			{Period: "2025-05", MRR: 17580, NewMRR: 5220, ChurnMRR: -840},
			{Period: "2025-06", MRR: 18910, NewMRR: 5510, ChurnMRR: -820},
			{Period: "2025-07", MRR: 20150, NewMRR: 5740, ChurnMRR: -940},
			{Period: "2025-08", MRR: 21590, NewMRR: 6030, ChurnMRR: -790},
			{Period: "2025-09", MRR: 22940, NewMRR: 6420, ChurnMRR: -870},
		},
		Channels: []dashboard.ChannelPoint{
			{Channel: "SEO", Leads: 840, Signups: 210, Revenue: 48000},
			{Channel: "Ads", Leads: 610, Signups: 130, Revenue: 35500},
			{Channel: "Affiliate", Leads: 320, Signups: 95, Revenue: 22700},
			{Channel: "Social", Leads: 540, Signups: 120, Revenue: 23900},
			{Channel: "Events", Leads: 180, Signups: 60, Revenue: 15400},
		},
		Segments: []dashboard.SegmentPoint{{Name: "SMB", Value: 45}, {Name: "Mid-Market", Value: 35}, {Name: "Enterprise", Value: 20}},
		Events: []dashboard.EventRow{
			{ID: "e1", Date: day("2025-09-05"), Event: "Pricing A/B Test rolled out", KPI: "+3.4% MRR", Impact: dashboard.ImpactPositive},
			{ID: "e3", Date: day("2025-08-28"), Event: "Outage (45m)", KPI: "+0.3% Refunds", Impact: dashboard.ImpactNegative},
		},
	}
}

func newTestHandler(t *testing.T, service DashboardService) *Handler {
	t.Helper()
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	handler := NewHandler(nil, service, templates, areaAdapter(svg.Area), barAdapter(svg.Bars), pieAdapter(svg.Pie), &stubPDF{})
	handler.WithNow(func() time.Time { return time.Date(2025, 9, 30, 12, 0, 0, 0, time.UTC) })
	return handler
}

func TestDashboardSuccess(t *testing.T) {
	handler := newTestHandler(t, &stubService{data: testDataset()})
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Soule Smart Dashboard",
		"KPI-Visualisierung &amp; Reporting",
		"22.940\u00a0€",
		"275.280\u00a0€",
		"+6.3%",
		"vs Vormonat",
		"24.7%",
		"3.65%",
		"Letzte Ereignisse",
		"5.9.2025",
		"© 2025 Soulé Smart Business",
		`<option value="6m" selected>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in response: %s", want, body)
		}
	}
}

func TestDashboardPlaceholders(t *testing.T) {
	data := testDataset()
	data.Revenue = data.Revenue[:1]
	data.Channels = nil
	handler := newTestHandler(t, &stubService{data: data})
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with placeholders, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, ui.ReasonNoLeads) {
		t.Fatalf("expected no-leads placeholder")
	}
	if !strings.Contains(body, ui.ReasonInsufficientHistory) {
		t.Fatalf("expected insufficient-history note")
	}
	if strings.Contains(body, "NaN") {
		t.Fatalf("placeholder rendering leaked NaN")
	}
}

func TestDashboardAppliesSelections(t *testing.T) {
	service := &stubService{data: testDataset()}
	handler := newTestHandler(t, service)
	req := httptest.NewRequest(http.MethodGet, "/dashboard?range=3m&segment=enterprise", nil)
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, dashboard.State{Range: dashboard.Range3M, Segment: dashboard.SegmentEnterprise}, service.last)
	assert.Contains(t, rr.Body.String(), `<option value="Enterprise" selected>`)
	assert.Contains(t, rr.Body.String(), "/dashboard/export.csv?range=3m&amp;segment=Enterprise")
}

func TestInvalidFilterReturnsBadRequest(t *testing.T) {
	handler := newTestHandler(t, &stubService{data: testDataset()})
	for _, target := range []string{"/dashboard?range=2y", "/dashboard?segment=Startup"} {
		rr := httptest.NewRecorder()
		handler.handleDashboard(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", target, rr.Code)
		}
	}
}

func TestDashboardServiceError(t *testing.T) {
	handler := newTestHandler(t, &stubService{err: errors.New("db down")})
	rr := httptest.NewRecorder()
	handler.handleDashboard(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "db down") {
		t.Fatalf("internal error leaked to client")
	}
}

func TestCSVExport(t *testing.T) {
	handler := newTestHandler(t, &stubService{data: testDataset()})
	req := httptest.NewRequest(http.MethodGet, "/dashboard/export.csv?range=3m", nil)
	rr := httptest.NewRecorder()
	handler.handleCSV(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "soule-dashboard-3m-all-2025-09-30.csv") {
		t.Fatalf("unexpected disposition %s", cd)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Metric,Value,Delta") {
		t.Fatalf("expected KPI section in CSV")
	}
	if strings.Contains(body, "2025-06,") {
		t.Fatalf("expected revenue section to honour the range")
	}
	if !strings.Contains(body, "2025-07,20150.00") {
		t.Fatalf("expected windowed revenue rows: %s", body)
	}
}

func TestPDFExport(t *testing.T) {
	pdf := &stubPDF{}
	handler := newTestHandler(t, &stubService{data: testDataset()})
	handler.pdf = pdf
	req := httptest.NewRequest(http.MethodGet, "/dashboard/export.pdf", nil)
	rr := httptest.NewRecorder()
	handler.handlePDF(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if rr.Body.Len() <= 1024 {
		t.Fatalf("expected pdf body >1KB, got %d bytes", rr.Body.Len())
	}
	if len(pdf.last.KPIs) != 4 {
		t.Fatalf("expected view model to include KPI cards")
	}
}

func TestPDFExportUpstreamFailure(t *testing.T) {
	handler := newTestHandler(t, &stubService{data: testDataset()})
	handler.pdf = &stubPDF{err: errors.New("gotenberg unavailable")}
	rr := httptest.NewRecorder()
	handler.handlePDF(rr, httptest.NewRequest(http.MethodGet, "/dashboard/export.pdf", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestAPIReturnsSnapshot(t *testing.T) {
	handler := newTestHandler(t, &stubService{data: testDataset()})
	rr := httptest.NewRecorder()
	handler.handleAPI(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard?range=3m&segment=SMB", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var payload snapshotPayload
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
	assert.Equal(t, dashboard.Range3M, payload.State.Range)
	require.Len(t, payload.KPIs, 4)
	assert.Equal(t, "22.940\u00a0€", payload.KPIs[0].Value)
	assert.Equal(t, "+6.3%", payload.KPIs[0].DeltaLabel)
	assert.Len(t, payload.Revenue, 3)
	assert.Equal(t, 2490, payload.Totals.Leads)
	require.Len(t, payload.Segments, 3)
	assert.True(t, payload.Segments[0].Selected)
	assert.False(t, payload.Segments[1].Selected)
}

func TestAPIErrorCodes(t *testing.T) {
	handler := newTestHandler(t, &stubService{data: dashboard.Dataset{}})
	rr := httptest.NewRecorder()
	handler.handleAPI(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var payload snapshotPayload
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
	assert.Equal(t, "insufficient_history", payload.KPIs[0].Error)
	assert.Equal(t, "no_leads", payload.KPIs[2].Error)
	assert.Equal(t, dashboard.Placeholder, payload.KPIs[2].Value)
}

func TestAPIValidationProblem(t *testing.T) {
	handler := newTestHandler(t, &stubService{data: testDataset()})
	rr := httptest.NewRecorder()
	handler.handleAPI(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard?range=1y", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var problem httpx.ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
	assert.Equal(t, "Validation Failed", problem.Title)
	assert.Contains(t, problem.Detail, "range")
}

func TestLoadSnapshotSharesConcurrentBuilds(t *testing.T) {
	service := &stubService{data: testDataset(), gate: make(chan struct{})}
	handler := newTestHandler(t, service)

	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = handler.loadSnapshot(context.Background(), dashboard.DefaultState())
		}(i)
	}
	require.Eventually(t, func() bool { return service.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(service.gate)
	wg.Wait()

	for _, err := range results {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), service.calls.Load())
}

func TestRoutesRateLimitExports(t *testing.T) {
	handler := newTestHandler(t, &stubService{data: testDataset()})
	handler.WithExportLimit(2)
	router := chi.NewRouter()
	handler.MountRoutes(router)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/export.csv", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "api is not export limited")
}

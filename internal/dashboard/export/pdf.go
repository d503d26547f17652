package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/soule-smart/dashboard/internal/dashboard/ui"
)

// HTMLRenderer converts an HTML document to PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFExporter renders the dashboard view model as a printable report.
type PDFExporter struct {
	renderer HTMLRenderer
}

// NewPDFExporter wires a PDF exporter to a Gotenberg-compatible renderer.
func NewPDFExporter(renderer HTMLRenderer) *PDFExporter {
	return &PDFExporter{renderer: renderer}
}

// RenderDashboard prints vm to PDF.
func (p *PDFExporter) RenderDashboard(ctx context.Context, vm ui.DashboardViewModel) ([]byte, error) {
	if p == nil || p.renderer == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	html, err := BuildHTML(vm)
	if err != nil {
		return nil, err
	}
	return p.renderer.RenderHTML(ctx, html)
}

// BuildHTML renders the standalone report document.
func BuildHTML(vm ui.DashboardViewModel) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, vm); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html lang="de"><head><meta charset="utf-8"><title>Soule Smart Dashboard</title>
<style>
body{font-family:sans-serif;margin:24px;color:#0f172a}
h1{font-size:20px;margin:0}
h2{font-size:15px;margin:24px 0 8px}
.sub{color:#64748b;font-size:12px}
.kpis{display:flex;gap:12px;margin-top:16px}
.kpi{flex:1;border:1px solid #e2e8f0;border-radius:8px;padding:10px}
.kpi .label{font-size:11px;color:#64748b}
.kpi .value{font-size:18px;font-weight:600}
.up{color:#059669}.down{color:#e11d48}
table{width:100%;border-collapse:collapse;font-size:12px}
th,td{border-bottom:1px solid #e2e8f0;padding:4px 6px;text-align:right}
th:first-child,td:first-child{text-align:left}
svg{max-width:100%}
</style></head><body>
<h1>Soule Smart Dashboard</h1>
<div class="sub">KPI-Visualisierung &amp; Reporting · Zeitraum {{.Filters.Range}} · Segment {{.Filters.Segment}}</div>
<div class="kpis">
{{- range .KPIs}}
<div class="kpi"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div>
{{- if .HasDelta}}<div class="{{.Tone}}">{{.Delta}} {{$.DeltaCaption}}</div>{{else if .Reason}}<div class="sub">{{.Reason}}</div>{{end}}</div>
{{- end}}
</div>
<h2>Revenue Trend</h2>
{{if .RevenueSVG}}{{.RevenueSVG}}{{else}}<p class="sub">Keine Daten</p>{{end}}
<table><thead><tr><th>Periode</th><th>MRR</th><th>New MRR</th><th>Churn</th></tr></thead><tbody>
{{- range .Revenue}}<tr><td>{{.Period}}</td><td>{{.MRR}}</td><td>{{.NewMRR}}</td><td>{{.Churn}}</td></tr>{{end}}
</tbody></table>
<h2>Channel Performance</h2>
<table><thead><tr><th>Channel</th><th>Leads</th><th>Signups</th><th>Revenue</th></tr></thead><tbody>
{{- range .Channels}}<tr><td>{{.Channel}}</td><td>{{.Leads}}</td><td>{{.Signups}}</td><td>{{.Revenue}}</td></tr>{{end}}
<tr><th>{{.Totals.Channel}}</th><th>{{.Totals.Leads}}</th><th>{{.Totals.Signups}}</th><th>{{.Totals.Revenue}}</th></tr>
</tbody></table>
<h2>Customer Segments</h2>
{{if .SegmentSVG}}{{.SegmentSVG}}{{end}}
<h2>Letzte Ereignisse</h2>
<table><thead><tr><th>Datum</th><th>Ereignis</th><th>KPI-Impact</th></tr></thead><tbody>
{{- range .Events}}<tr><td>{{.Date}}</td><td>{{.Event}}</td><td class="{{.ImpactClass}}">{{.KPI}}</td></tr>{{end}}
</tbody></table>
<p class="sub">© {{.Year}} Soulé Smart Business</p>
</body></html>`))

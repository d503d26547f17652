package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/svg"
	"github.com/soule-smart/dashboard/internal/dashboard/ui"
)

func testSnapshot() dashboard.Snapshot {
	data := dashboard.Dataset{
		Revenue: []dashboard.RevenuePoint{
			{Period: "2025-08", MRR: 21590, NewMRR: 6030, ChurnMRR: -790},
			{Period: "2025-09", MRR: 22940, NewMRR: 6420, ChurnMRR: -870},
		},
		Channels: []dashboard.ChannelPoint{{Channel: "SEO", Leads: 840, Signups: 210, Revenue: 48000}},
		Segments: []dashboard.SegmentPoint{{Name: "SMB", Value: 45}, {Name: "Enterprise", Value: 20}},
		Events: []dashboard.EventRow{{
			ID: "e1", Date: time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
			Event: "Pricing <A/B> Test", KPI: "+3.4% MRR", Impact: dashboard.ImpactPositive,
		}},
	}
	return dashboard.Derive(dashboard.State{Range: dashboard.Range6M, Segment: dashboard.SegmentSMB}, data)
}

func TestWriteKPICSV(t *testing.T) {
	snap := testSnapshot()
	buf := &bytes.Buffer{}
	require.NoError(t, WriteKPICSV(buf, snap.KPIs, snap.State))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, []string{"Range", "6m", ""}, records[1])
	assert.Equal(t, []string{"MRR", "22.940\u00a0€", "+6.3%"}, records[3])
	assert.Equal(t, []string{"Churn", "3.65%", ""}, records[6])
}

func TestWriteSnapshotCSVSections(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteSnapshotCSV(buf, testSnapshot()))
	out := buf.String()

	for _, header := range []string{"Metric,Value,Delta", "Period,MRR,New MRR,Churn MRR", "Channel,Leads,Signups,Revenue", "Segment,Share,Selected", "Date,Event,KPI Impact,Impact"} {
		assert.Contains(t, out, header)
	}
	assert.Contains(t, out, "2025-09,22940.00,6420.00,-870.00")
	assert.Contains(t, out, "SMB,45.00,true")
	assert.Contains(t, out, "Enterprise,20.00,false")
	assert.Contains(t, out, "2025-09-05,Pricing <A/B> Test,+3.4% MRR,positive")
	assert.Equal(t, 4, strings.Count(out, "\n\n"))
}

type stubRenderer struct {
	html string
	err  error
}

func (s *stubRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	s.html = html
	if s.err != nil {
		return nil, s.err
	}
	return []byte("PDF"), nil
}

func TestPDFExporterRender(t *testing.T) {
	builder := ui.Builder{Area: svg.Renderer{}, Bar: svg.Renderer{}, Pie: svg.Renderer{}}
	vm, err := builder.Build(testSnapshot(), 2025)
	require.NoError(t, err)

	renderer := &stubRenderer{}
	data, err := NewPDFExporter(renderer).RenderDashboard(context.Background(), vm)
	require.NoError(t, err)
	assert.Equal(t, "PDF", string(data))

	assert.Contains(t, renderer.html, "<html lang=\"de\">")
	assert.Contains(t, renderer.html, "22.940\u00a0€")
	assert.Contains(t, renderer.html, "+6.3% vs Vormonat")
	assert.Contains(t, renderer.html, "Pricing &lt;A/B&gt; Test")
	assert.Contains(t, renderer.html, "<svg")
	assert.Contains(t, renderer.html, "© 2025 Soulé Smart Business")
}

func TestPDFExporterErrors(t *testing.T) {
	var nilExporter *PDFExporter
	_, err := nilExporter.RenderDashboard(context.Background(), ui.DashboardViewModel{})
	assert.Error(t, err)

	boom := errors.New("gotenberg down")
	_, err = NewPDFExporter(&stubRenderer{err: boom}).RenderDashboard(context.Background(), ui.DashboardViewModel{})
	assert.ErrorIs(t, err, boom)
}

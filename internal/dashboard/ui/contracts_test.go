package ui

import (
	"errors"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/svg"
)

type areaAdapter func(width, height int, labels []string, series []svg.Series, opts svg.AreaOpts) (template.HTML, error)

func (a areaAdapter) Area(width, height int, labels []string, series []svg.Series, opts svg.AreaOpts) (template.HTML, error) {
	return a(width, height, labels, series, opts)
}

type barAdapter func(width, height int, labels []string, series []svg.Series, opts svg.BarOpts) (template.HTML, error)

func (b barAdapter) Bars(width, height int, labels []string, series []svg.Series, opts svg.BarOpts) (template.HTML, error) {
	return b(width, height, labels, series, opts)
}

func testSnapshot() dashboard.Snapshot {
	data := dashboard.Dataset{
		Revenue: []dashboard.RevenuePoint{
			{Period: "2025-08", MRR: 21590, NewMRR: 6030, ChurnMRR: -790},
			{Period: "2025-09", MRR: 22940, NewMRR: 6420, ChurnMRR: -870},
		},
		Channels: []dashboard.ChannelPoint{
			{Channel: "SEO", Leads: 840, Signups: 210, Revenue: 48000},
			{Channel: "Ads", Leads: 610, Signups: 130, Revenue: 35500},
		},
		Segments: []dashboard.SegmentPoint{{Name: "SMB", Value: 45}, {Name: "Enterprise", Value: 20}},
		Events: []dashboard.EventRow{{
			ID: "e1", Date: time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
			Event: "Outage (45m)", KPI: "+0.3% Refunds", Impact: dashboard.ImpactNegative,
		}},
	}
	return dashboard.Derive(dashboard.State{Range: dashboard.Range3M, Segment: dashboard.SegmentSMB}, data)
}

func TestToKPICards(t *testing.T) {
	cards := ToKPICards(testSnapshot().KPIs)
	require.Len(t, cards, 4)

	assert.Equal(t, "22.940\u00a0€", cards[0].Value)
	assert.True(t, cards[0].HasDelta)
	assert.Equal(t, "+6.3%", cards[0].Delta)
	assert.Equal(t, "up", cards[0].Tone)
	assert.Equal(t, cards[0].Delta, cards[1].Delta)
	assert.False(t, cards[2].HasDelta)
	assert.False(t, cards[2].Placeholder())
}

func TestToKPICardsPlaceholders(t *testing.T) {
	cards := ToKPICards(dashboard.DeriveKPIs([]dashboard.RevenuePoint{{Period: "2025-09", MRR: 100}}, nil))
	require.Len(t, cards, 4)

	assert.Equal(t, ReasonInsufficientHistory, cards[0].Reason, "missing delta is explained")
	assert.False(t, cards[0].Placeholder())
	assert.True(t, cards[2].Placeholder())
	assert.Equal(t, ReasonNoLeads, cards[2].Reason)
}

func TestToKPICardsDownTone(t *testing.T) {
	cards := ToKPICards(dashboard.DeriveKPIs([]dashboard.RevenuePoint{
		{Period: "2025-08", MRR: 200},
		{Period: "2025-09", MRR: 150},
	}, nil))
	assert.Equal(t, "down", cards[0].Tone)
	assert.Equal(t, "-25.0%", cards[0].Delta)
}

func TestPlaceholderReason(t *testing.T) {
	assert.Equal(t, "", PlaceholderReason(nil))
	assert.Equal(t, ReasonNoRevenueBase, PlaceholderReason(dashboard.ErrNoRevenueBase))
	assert.Equal(t, "Nicht verfügbar", PlaceholderReason(errors.New("other")))
}

func TestToEventRowsKeepsOrder(t *testing.T) {
	day := time.Date(2025, 8, 21, 0, 0, 0, 0, time.UTC)
	rows := ToEventRows([]dashboard.EventRow{
		{ID: "b", Date: day, Event: "Second", Impact: dashboard.ImpactPositive},
		{ID: "a", Date: day.AddDate(0, 0, 10), Event: "First", Impact: dashboard.ImpactNeutral},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "Second", rows[0].Event)
	assert.Equal(t, "21.8.2025", rows[0].Date)
	assert.Equal(t, "impact-neutral", rows[1].ImpactClass)
}

func TestOptionsMarkSelection(t *testing.T) {
	ranges := RangeOptions(dashboard.Range12M)
	require.Len(t, ranges, 3)
	assert.True(t, ranges[2].Selected)
	assert.False(t, ranges[0].Selected)

	segments := SegmentOptions(dashboard.SegmentAll)
	require.Len(t, segments, 4)
	assert.Equal(t, "Alle Segmente", segments[0].Label)
	assert.True(t, segments[0].Selected)
}

func TestBuilderBuild(t *testing.T) {
	var labels []string
	builder := Builder{
		Area: areaAdapter(func(width, height int, l []string, series []svg.Series, opts svg.AreaOpts) (template.HTML, error) {
			labels = l
			return svg.Area(width, height, l, series, opts)
		}),
		Bar: svg.Renderer{},
		Pie: svg.Renderer{},
	}
	vm, err := builder.Build(testSnapshot(), 2025)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-08", "2025-09"}, labels)
	assert.True(t, strings.HasPrefix(string(vm.RevenueSVG), "<svg"))
	assert.Contains(t, string(vm.ChannelSVG), "Channel Performance")
	assert.Contains(t, string(vm.SegmentSVG), "Customer Segments")
	assert.Equal(t, "Gesamt", vm.Totals.Channel)
	assert.Equal(t, "1450", vm.Totals.Leads)
	assert.Equal(t, "83.500\u00a0€", vm.Totals.Revenue)
	assert.Equal(t, 2025, vm.Year)
	require.Len(t, vm.Events, 1)
	assert.Equal(t, "5.9.2025", vm.Events[0].Date)
}

func TestBuilderEmptySnapshot(t *testing.T) {
	builder := Builder{Area: svg.Renderer{}, Bar: svg.Renderer{}, Pie: svg.Renderer{}}
	vm, err := builder.Build(dashboard.Derive(dashboard.DefaultState(), dashboard.Dataset{}), 2025)
	require.NoError(t, err)
	assert.Empty(t, vm.RevenueSVG)
	assert.Empty(t, vm.ChannelSVG)
	assert.Empty(t, vm.SegmentSVG)
	for _, card := range vm.KPIs {
		assert.True(t, card.Placeholder(), card.ID)
	}
}

func TestBuilderRequiresRenderers(t *testing.T) {
	_, err := Builder{}.Build(testSnapshot(), 2025)
	assert.Error(t, err)
}

func TestChannelChartDescribesDrawnSeries(t *testing.T) {
	var (
		names []string
		desc  string
	)
	builder := Builder{
		Area: svg.Renderer{},
		Bar: barAdapter(func(width, height int, labels []string, series []svg.Series, opts svg.BarOpts) (template.HTML, error) {
			for _, s := range series {
				names = append(names, s.Name)
			}
			desc = opts.Description
			return svg.Bars(width, height, labels, series, opts)
		}),
		Pie: svg.Renderer{},
	}
	_, err := builder.Build(testSnapshot(), 2025)
	require.NoError(t, err)

	assert.Equal(t, []string{"Leads", "Signups"}, names)
	assert.Equal(t, strings.Join(names, " • "), desc)
}

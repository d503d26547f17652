package ui

import (
	"fmt"
	"html/template"

	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/svg"
)

const pieSize = 260

// Builder turns snapshots into view models, rendering charts through the
// injected renderers.
type Builder struct {
	Area AreaRenderer
	Bar  BarRenderer
	Pie  PieRenderer
}

// Build assembles the view model for snap. Charts are omitted when their data is
// empty; the template shows an empty-state note instead.
func (b Builder) Build(snap dashboard.Snapshot, year int) (DashboardViewModel, error) {
	if b.Area == nil || b.Bar == nil || b.Pie == nil {
		return DashboardViewModel{}, fmt.Errorf("svg renderer missing")
	}
	filters := DashboardFilters{Range: snap.State.Range, Segment: snap.State.Segment}
	vm := DashboardViewModel{
		Filters:        filters,
		RangeOptions:   RangeOptions(filters.Range),
		SegmentOptions: SegmentOptions(filters.Segment),
		KPIs:           ToKPICards(snap.KPIs),
		DeltaCaption:   DeltaCaption,
		Revenue:        ToRevenueRows(snap.Revenue),
		Channels:       ToChannelRows(snap.Channels),
		Totals:         ToTotalsRow(snap.Totals),
		Segments:       snap.Segments,
		Events:         ToEventRows(snap.Events),
		Year:           year,
	}

	var err error
	if vm.RevenueSVG, err = b.revenueChart(snap.Revenue); err != nil {
		return DashboardViewModel{}, fmt.Errorf("revenue chart: %w", err)
	}
	if vm.ChannelSVG, err = b.channelChart(snap.Channels); err != nil {
		return DashboardViewModel{}, fmt.Errorf("channel chart: %w", err)
	}
	if vm.SegmentSVG, err = b.segmentChart(snap.Segments); err != nil {
		return DashboardViewModel{}, fmt.Errorf("segment chart: %w", err)
	}
	return vm, nil
}

func (b Builder) revenueChart(points []dashboard.RevenuePoint) (template.HTML, error) {
	if len(points) == 0 {
		return "", nil
	}
	labels := make([]string, 0, len(points))
	mrr := make([]float64, 0, len(points))
	newMRR := make([]float64, 0, len(points))
	churn := make([]float64, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Period)
		mrr = append(mrr, p.MRR)
		newMRR = append(newMRR, p.NewMRR)
		churn = append(churn, p.ChurnMRR)
	}
	return b.Area.Area(svg.DefaultWidth, svg.DefaultHeight, labels, []svg.Series{
		{Name: "MRR", Values: mrr, Color: "#0f172a"},
		{Name: "New MRR", Values: newMRR, Color: "#10b981"},
		{Name: "Churn", Values: churn, Color: "#e11d48"},
	}, svg.AreaOpts{
		Title:       "Revenue Trend",
		Description: "MRR, New MRR, Churn",
		TickFormat:  dashboard.FormatThousands,
	})
}

func (b Builder) channelChart(channels []dashboard.ChannelPoint) (template.HTML, error) {
	if len(channels) == 0 {
		return "", nil
	}
	labels := make([]string, 0, len(channels))
	leads := make([]float64, 0, len(channels))
	signups := make([]float64, 0, len(channels))
	for _, c := range channels {
		labels = append(labels, c.Channel)
		leads = append(leads, float64(c.Leads))
		signups = append(signups, float64(c.Signups))
	}
	return b.Bar.Bars(svg.DefaultWidth, svg.DefaultHeight, labels, []svg.Series{
		{Name: "Leads", Values: leads, Color: "#0ea5e9"},
		{Name: "Signups", Values: signups, Color: "#f97316"},
	}, svg.BarOpts{
		Title:       "Channel Performance",
		Description: "Leads • Signups",
	})
}

func (b Builder) segmentChart(segments []dashboard.SegmentView) (template.HTML, error) {
	total := 0.0
	slices := make([]svg.Slice, 0, len(segments))
	for _, s := range segments {
		total += s.Value
		slices = append(slices, svg.Slice{Name: s.Name, Value: s.Value, Selected: s.Selected})
	}
	if total <= 0 {
		return "", nil
	}
	return b.Pie.Pie(pieSize, pieSize, slices, svg.PieOpts{
		Title:       "Customer Segments",
		Description: "Anteile nach Umsatz",
		ShowLabels:  true,
	})
}

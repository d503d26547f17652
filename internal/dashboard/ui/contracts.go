package ui

import (
	"errors"
	"html/template"
	"strconv"

	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/svg"
)

// Placeholder reasons shown under a KPI card that could not be derived.
const (
	ReasonInsufficientHistory = "Unzureichende Historie"
	ReasonNoLeads             = "Keine Leads"
	ReasonNoRevenueBase       = "Keine Umsatzbasis"
)

// DeltaCaption labels the MRR/ARR delta badge.
const DeltaCaption = "vs Vormonat"

// DashboardFilters represents sanitized query filters used by the dashboard.
type DashboardFilters struct {
	Range   dashboard.Range
	Segment dashboard.Segment
}

// Option is one entry of a selector control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// KPICard is a rendered headline metric.
type KPICard struct {
	ID       string
	Label    string
	Value    string
	Delta    string
	HasDelta bool
	Tone     string
	Reason   string
}

// Placeholder reports whether the card shows a placeholder value.
func (c KPICard) Placeholder() bool {
	return c.Reason != "" && c.Value == dashboard.Placeholder
}

// RevenueRow is one period of the revenue table.
type RevenueRow struct {
	Period string
	MRR    string
	NewMRR string
	Churn  string
}

// ChannelRow is one channel of the performance table.
type ChannelRow struct {
	Channel string
	Leads   string
	Signups string
	Revenue string
}

// EventRow is one entry of the recent events table.
type EventRow struct {
	Date        string
	Event       string
	KPI         string
	Impact      string
	ImpactClass string
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Filters        DashboardFilters
	RangeOptions   []Option
	SegmentOptions []Option
	KPIs           []KPICard
	DeltaCaption   string
	Revenue        []RevenueRow
	Channels       []ChannelRow
	Totals         ChannelRow
	Segments       []dashboard.SegmentView
	Events         []EventRow
	RevenueSVG     template.HTML
	ChannelSVG     template.HTML
	SegmentSVG     template.HTML
	Year           int
}

// AreaRenderer abstracts SVG area chart rendering for the dashboard.
type AreaRenderer interface {
	Area(width, height int, labels []string, series []svg.Series, opts svg.AreaOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, labels []string, series []svg.Series, opts svg.BarOpts) (template.HTML, error)
}

// PieRenderer abstracts SVG pie chart rendering for the dashboard.
type PieRenderer interface {
	Pie(width, height int, slices []svg.Slice, opts svg.PieOpts) (template.HTML, error)
}

// PlaceholderReason maps a derivation error onto its German caption.
func PlaceholderReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, dashboard.ErrInsufficientHistory):
		return ReasonInsufficientHistory
	case errors.Is(err, dashboard.ErrNoLeads):
		return ReasonNoLeads
	case errors.Is(err, dashboard.ErrNoRevenueBase):
		return ReasonNoRevenueBase
	default:
		return "Nicht verfügbar"
	}
}

// ToKPICards converts derived KPIs into cards.
func ToKPICards(kpis []dashboard.KPI) []KPICard {
	cards := make([]KPICard, 0, len(kpis))
	for _, k := range kpis {
		card := KPICard{ID: k.ID, Label: k.Label, Value: k.Value, Reason: PlaceholderReason(k.Err)}
		if k.HasDelta() {
			card.HasDelta = true
			card.Delta = dashboard.FormatDelta(*k.Delta)
			card.Tone = "up"
			if *k.Delta < 0 {
				card.Tone = "down"
			}
		} else if k.DeltaErr != nil && card.Reason == "" {
			card.Reason = PlaceholderReason(k.DeltaErr)
		}
		cards = append(cards, card)
	}
	return cards
}

// ToRevenueRows converts the windowed series into table rows.
func ToRevenueRows(points []dashboard.RevenuePoint) []RevenueRow {
	rows := make([]RevenueRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, RevenueRow{
			Period: p.Period,
			MRR:    dashboard.FormatCurrency(p.MRR),
			NewMRR: dashboard.FormatCurrency(p.NewMRR),
			Churn:  dashboard.FormatCurrency(p.ChurnMRR),
		})
	}
	return rows
}

// ToChannelRows converts the funnel into table rows.
func ToChannelRows(channels []dashboard.ChannelPoint) []ChannelRow {
	rows := make([]ChannelRow, 0, len(channels))
	for _, c := range channels {
		rows = append(rows, ChannelRow{
			Channel: c.Channel,
			Leads:   strconv.Itoa(c.Leads),
			Signups: strconv.Itoa(c.Signups),
			Revenue: dashboard.FormatCurrency(c.Revenue),
		})
	}
	return rows
}

// ToTotalsRow renders the funnel totals.
func ToTotalsRow(t dashboard.Totals) ChannelRow {
	return ChannelRow{
		Channel: "Gesamt",
		Leads:   strconv.Itoa(t.Leads),
		Signups: strconv.Itoa(t.Signups),
		Revenue: dashboard.FormatCurrency(t.Revenue),
	}
}

// ToEventRows converts the event log in its supplied order.
func ToEventRows(events []dashboard.EventRow) []EventRow {
	rows := make([]EventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, EventRow{
			Date:        dashboard.FormatDate(e.Date),
			Event:       e.Event,
			KPI:         e.KPI,
			Impact:      string(e.Impact),
			ImpactClass: "impact-" + string(e.Impact),
		})
	}
	return rows
}

// RangeOptions lists the range selector with the current choice marked.
func RangeOptions(current dashboard.Range) []Option {
	labels := map[dashboard.Range]string{
		dashboard.Range3M:  "3 Monate",
		dashboard.Range6M:  "6 Monate",
		dashboard.Range12M: "12 Monate",
	}
	opts := make([]Option, 0, len(dashboard.Ranges()))
	for _, r := range dashboard.Ranges() {
		opts = append(opts, Option{Value: string(r), Label: labels[r], Selected: r == current})
	}
	return opts
}

// SegmentOptions lists the segment selector with the current choice marked.
func SegmentOptions(current dashboard.Segment) []Option {
	opts := make([]Option, 0, len(dashboard.Segments()))
	for _, s := range dashboard.Segments() {
		label := string(s)
		if s == dashboard.SegmentAll {
			label = "Alle Segmente"
		}
		opts = append(opts, Option{Value: string(s), Label: label, Selected: s == current})
	}
	return opts
}

package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/soule-smart/dashboard/internal/dashboard"
)

// WriteKPICSV serialises the headline KPIs to CSV. Placeholder values are
// written as they are displayed.
func WriteKPICSV(w io.Writer, kpis []dashboard.KPI, state dashboard.State) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value", "Delta"}); err != nil {
		return err
	}
	meta := [][]string{
		{"Range", string(state.Range), ""},
		{"Segment", string(state.Segment), ""},
	}
	for _, record := range meta {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	for _, k := range kpis {
		delta := ""
		if k.HasDelta() {
			delta = dashboard.FormatDelta(*k.Delta)
		}
		if err := writer.Write([]string{k.Label, k.Value, delta}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRevenueCSV emits the windowed revenue series.
func WriteRevenueCSV(w io.Writer, points []dashboard.RevenuePoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Period", "MRR", "New MRR", "Churn MRR"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := writer.Write([]string{
			p.Period,
			formatFloat(p.MRR),
			formatFloat(p.NewMRR),
			formatFloat(p.ChurnMRR),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteChannelCSV emits the channel funnel.
func WriteChannelCSV(w io.Writer, channels []dashboard.ChannelPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Channel", "Leads", "Signups", "Revenue"}); err != nil {
		return err
	}
	for _, c := range channels {
		if err := writer.Write([]string{
			c.Channel,
			strconv.Itoa(c.Leads),
			strconv.Itoa(c.Signups),
			formatFloat(c.Revenue),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSegmentCSV emits cohort shares with their selection flag.
func WriteSegmentCSV(w io.Writer, segments []dashboard.SegmentView) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Segment", "Share", "Selected"}); err != nil {
		return err
	}
	for _, s := range segments {
		if err := writer.Write([]string{s.Name, formatFloat(s.Value), strconv.FormatBool(s.Selected)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteEventCSV emits the event log in its supplied order.
func WriteEventCSV(w io.Writer, events []dashboard.EventRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Date", "Event", "KPI Impact", "Impact"}); err != nil {
		return err
	}
	for _, e := range events {
		if err := writer.Write([]string{e.Date.Format("2006-01-02"), e.Event, e.KPI, string(e.Impact)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSnapshotCSV writes every section separated by blank lines.
func WriteSnapshotCSV(w io.Writer, snap dashboard.Snapshot) error {
	sections := []func(io.Writer) error{
		func(w io.Writer) error { return WriteKPICSV(w, snap.KPIs, snap.State) },
		func(w io.Writer) error { return WriteRevenueCSV(w, snap.Revenue) },
		func(w io.Writer) error { return WriteChannelCSV(w, snap.Channels) },
		func(w io.Writer) error { return WriteSegmentCSV(w, snap.Segments) },
		func(w io.Writer) error { return WriteEventCSV(w, snap.Events) },
	}
	for i, section := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := section(w); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

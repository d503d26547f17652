package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/dashboard/export"
	"github.com/soule-smart/dashboard/internal/dashboard/source"
)

// Output formats accepted by the kpi command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// KPIOptions defines available flags for the kpi command.
type KPIOptions struct {
	Fixture string
	Range   string
	Segment string
	Format  string
	Stdout  io.Writer
	Stderr  io.Writer
}

// KPISummary is the JSON form of one KPI line.
type KPISummary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
	Note  string `json:"note,omitempty"`
}

// KPICommand derives the headline KPIs from a fixture and prints them. It
// returns the process exit code.
func KPICommand(ctx context.Context, opts KPIOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	data, err := loadDataset(opts.Fixture)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "kpi: %v\n", err)
		return 1
	}
	state, err := parseState(opts.Range, opts.Segment)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "kpi: %v\n", err)
		return 2
	}

	snap, err := dashboard.NewService(source.NewStatic(data), nil).Snapshot(ctx, state)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "kpi: %v\n", err)
		return 1
	}

	switch opts.Format {
	case "", FormatTable:
		renderKPITable(opts.Stdout, snap)
	case FormatJSON:
		if err := json.NewEncoder(opts.Stdout).Encode(summarise(snap.KPIs)); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "kpi: encode json: %v\n", err)
			return 1
		}
	case FormatCSV:
		if err := export.WriteSnapshotCSV(opts.Stdout, snap); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "kpi: write csv: %v\n", err)
			return 1
		}
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "kpi: unknown format %q\n", opts.Format)
		return 2
	}
	return 0
}

func loadDataset(path string) (dashboard.Dataset, error) {
	if path == "" {
		return source.DefaultDataset()
	}
	return source.LoadFixtureFile(path)
}

func parseState(rawRange, rawSegment string) (dashboard.State, error) {
	rng, err := dashboard.ParseRange(rawRange)
	if err != nil {
		return dashboard.State{}, err
	}
	seg, err := dashboard.ParseSegment(rawSegment)
	if err != nil {
		return dashboard.State{}, err
	}
	return dashboard.Reduce(dashboard.DefaultState(), dashboard.SelectRange{Range: rng}, dashboard.SelectSegment{Segment: seg})
}

func summarise(kpis []dashboard.KPI) []KPISummary {
	out := make([]KPISummary, 0, len(kpis))
	for _, k := range kpis {
		s := KPISummary{ID: k.ID, Label: k.Label, Value: k.Value}
		if k.HasDelta() {
			s.Delta = dashboard.FormatDelta(*k.Delta)
		}
		switch {
		case k.Err != nil:
			s.Note = k.Err.Error()
		case k.DeltaErr != nil:
			s.Note = k.DeltaErr.Error()
		}
		out = append(out, s)
	}
	return out
}

func renderKPITable(w io.Writer, snap dashboard.Snapshot) {
	_, _ = fmt.Fprintf(w, "Range: %s  Segment: %s\n", snap.State.Range, snap.State.Segment)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KPI\tVALUE\tDELTA\tNOTE")
	for _, s := range summarise(snap.KPIs) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Label, s.Value, s.Delta, s.Note)
	}
	_ = tw.Flush()
}

package source

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/soule-smart/dashboard/internal/dashboard"
)

//go:embed fixtures/default.yaml
var defaultFixture []byte

type fixture struct {
	Revenue []struct {
		Period   string  `yaml:"period"`
		MRR      float64 `yaml:"mrr"`
		NewMRR   float64 `yaml:"new_mrr"`
		ChurnMRR float64 `yaml:"churn_mrr"`
	} `yaml:"revenue"`
	Channels []struct {
		Channel string  `yaml:"channel"`
		Leads   int     `yaml:"leads"`
		Signups int     `yaml:"signups"`
		Revenue float64 `yaml:"revenue"`
	} `yaml:"channels"`
	Segments []struct {
		Name  string  `yaml:"name"`
		Value float64 `yaml:"value"`
	} `yaml:"segments"`
	Events []struct {
		ID     string `yaml:"id"`
		Date   string `yaml:"date"`
		Event  string `yaml:"event"`
		KPI    string `yaml:"kpi"`
		Impact string `yaml:"impact"`
	} `yaml:"events"`
}

// ParseFixture decodes a YAML dataset and validates every record.
func ParseFixture(r io.Reader) (dashboard.Dataset, error) {
	var raw fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return dashboard.Dataset{}, fmt.Errorf("source: decode fixture: %w", err)
	}

	var data dashboard.Dataset
	for _, r := range raw.Revenue {
		p, err := dashboard.NewRevenuePoint(r.Period, r.MRR, r.NewMRR, r.ChurnMRR)
		if err != nil {
			return dashboard.Dataset{}, err
		}
		data.Revenue = append(data.Revenue, p)
	}
	for _, c := range raw.Channels {
		p, err := dashboard.NewChannelPoint(c.Channel, c.Leads, c.Signups, c.Revenue)
		if err != nil {
			return dashboard.Dataset{}, err
		}
		data.Channels = append(data.Channels, p)
	}
	for _, s := range raw.Segments {
		p, err := dashboard.NewSegmentPoint(s.Name, s.Value)
		if err != nil {
			return dashboard.Dataset{}, err
		}
		data.Segments = append(data.Segments, p)
	}
	for _, e := range raw.Events {
		row, err := dashboard.NewEventRow(e.ID, e.Date, e.Event, e.KPI, e.Impact)
		if err != nil {
			return dashboard.Dataset{}, err
		}
		data.Events = append(data.Events, row)
	}
	if err := data.Validate(); err != nil {
		return dashboard.Dataset{}, err
	}
	return data, nil
}

// DefaultDataset returns the embedded demo dataset.
func DefaultDataset() (dashboard.Dataset, error) {
	return ParseFixture(bytes.NewReader(defaultFixture))
}

// LoadFixtureFile reads a YAML dataset from disk.
func LoadFixtureFile(path string) (dashboard.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return dashboard.Dataset{}, fmt.Errorf("source: open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseFixture(f)
}

// Static serves a fixed in-memory dataset.
type Static struct {
	data dashboard.Dataset
	name string
}

// NewStatic wraps data as a Source.
func NewStatic(data dashboard.Dataset) *Static {
	return &Static{data: data, name: "static-" + Fingerprint(data)}
}

// Name identifies the source in cache keys. It carries the dataset fingerprint so
// processes sharing one Redis never read each other's fixtures.
func (s *Static) Name() string { return s.name }

// Fingerprint returns a short content hash of data.
func Fingerprint(data dashboard.Dataset) string {
	raw, err := json.Marshal(data)
	if err != nil {
		return "unhashed"
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:6])
}

// Revenue returns a copy of the revenue series.
func (s *Static) Revenue(ctx context.Context) ([]dashboard.RevenuePoint, error) {
	return append([]dashboard.RevenuePoint(nil), s.data.Revenue...), nil
}

// Channels returns a copy of the channel funnel.
func (s *Static) Channels(ctx context.Context) ([]dashboard.ChannelPoint, error) {
	return append([]dashboard.ChannelPoint(nil), s.data.Channels...), nil
}

// Segments returns a copy of the cohort shares.
func (s *Static) Segments(ctx context.Context) ([]dashboard.SegmentPoint, error) {
	return append([]dashboard.SegmentPoint(nil), s.data.Segments...), nil
}

// Events returns a copy of the event log in supplied order.
func (s *Static) Events(ctx context.Context) ([]dashboard.EventRow, error) {
	return append([]dashboard.EventRow(nil), s.data.Events...), nil
}

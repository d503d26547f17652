package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	periodLayout = "2006-01"
	dateLayout   = "2006-01-02"
)

var validate = validator.New()

// RevenuePoint is one reporting period's recurring-revenue snapshot.
type RevenuePoint struct {
	Period   string  `json:"period" validate:"required"`
	MRR      float64 `json:"mrr" validate:"gte=0"`
	NewMRR   float64 `json:"new_mrr" validate:"gte=0"`
	ChurnMRR float64 `json:"churn_mrr" validate:"lte=0"`
}

// NewRevenuePoint validates and returns a revenue snapshot.
func NewRevenuePoint(period string, mrr, newMRR, churnMRR float64) (RevenuePoint, error) {
	p := RevenuePoint{Period: strings.TrimSpace(period), MRR: mrr, NewMRR: newMRR, ChurnMRR: churnMRR}
	if err := p.Validate(); err != nil {
		return RevenuePoint{}, err
	}
	return p, nil
}

// Validate checks the record invariants.
func (p RevenuePoint) Validate() error {
	if err := validate.Struct(p); err != nil {
		return invalidRecord("revenue point", err)
	}
	if _, err := time.Parse(periodLayout, p.Period); err != nil {
		return fmt.Errorf("%w: revenue point period %q", ErrInvalidRecord, p.Period)
	}
	return nil
}

// ChannelPoint is one acquisition channel's funnel snapshot. Signups may exceed
// leads; the funnel source is trusted on that.
type ChannelPoint struct {
	Channel string  `json:"channel" validate:"required"`
	Leads   int     `json:"leads" validate:"gte=0"`
	Signups int     `json:"signups" validate:"gte=0"`
	Revenue float64 `json:"revenue" validate:"gte=0"`
}

// NewChannelPoint validates and returns a channel snapshot.
func NewChannelPoint(channel string, leads, signups int, revenue float64) (ChannelPoint, error) {
	c := ChannelPoint{Channel: strings.TrimSpace(channel), Leads: leads, Signups: signups, Revenue: revenue}
	if err := c.Validate(); err != nil {
		return ChannelPoint{}, err
	}
	return c, nil
}

// Validate checks the record invariants.
func (c ChannelPoint) Validate() error {
	if err := validate.Struct(c); err != nil {
		return invalidRecord("channel point", err)
	}
	return nil
}

// SegmentPoint is one customer cohort's share.
type SegmentPoint struct {
	Name  string  `json:"name" validate:"required"`
	Value float64 `json:"value" validate:"gte=0"`
}

// NewSegmentPoint validates and returns a cohort share.
func NewSegmentPoint(name string, value float64) (SegmentPoint, error) {
	s := SegmentPoint{Name: strings.TrimSpace(name), Value: value}
	if err := s.Validate(); err != nil {
		return SegmentPoint{}, err
	}
	return s, nil
}

// Validate checks the record invariants.
func (s SegmentPoint) Validate() error {
	if err := validate.Struct(s); err != nil {
		return invalidRecord("segment point", err)
	}
	return nil
}

// Impact is the polarity of an event's effect on a KPI.
type Impact string

// Impact values.
const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// ParseImpact maps a raw value onto the closed Impact set.
func ParseImpact(raw string) (Impact, error) {
	switch Impact(strings.ToLower(strings.TrimSpace(raw))) {
	case ImpactPositive:
		return ImpactPositive, nil
	case ImpactNegative:
		return ImpactNegative, nil
	case ImpactNeutral:
		return ImpactNeutral, nil
	}
	return "", fmt.Errorf("%w: impact %q", ErrInvalidRecord, raw)
}

// EventRow is a discrete business event annotated with its KPI impact.
type EventRow struct {
	ID     string    `json:"id" validate:"required"`
	Date   time.Time `json:"date" validate:"required"`
	Event  string    `json:"event" validate:"required"`
	KPI    string    `json:"kpi" validate:"required"`
	Impact Impact    `json:"impact" validate:"oneof=positive negative neutral"`
}

// NewEventRow parses an ISO date and impact label into an EventRow. An empty id
// is replaced with a random UUID.
func NewEventRow(id, date, event, kpi, impact string) (EventRow, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return EventRow{}, fmt.Errorf("%w: event date %q", ErrInvalidRecord, date)
	}
	polarity, err := ParseImpact(impact)
	if err != nil {
		return EventRow{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	row := EventRow{
		ID:     id,
		Date:   day,
		Event:  strings.TrimSpace(event),
		KPI:    strings.TrimSpace(kpi),
		Impact: polarity,
	}
	if err := row.Validate(); err != nil {
		return EventRow{}, err
	}
	return row, nil
}

// Validate checks the record invariants.
func (e EventRow) Validate() error {
	if err := validate.Struct(e); err != nil {
		return invalidRecord("event row", err)
	}
	return nil
}

// KPI is a derived headline metric. Value holds the display string; when Err is
// set the value is a placeholder. DeltaErr explains a missing delta on a KPI that
// normally carries one.
type KPI struct {
	ID       string
	Label    string
	Value    string
	Delta    *float64
	Err      error
	DeltaErr error
}

// HasDelta reports whether a numeric delta is available.
func (k KPI) HasDelta() bool {
	return k.Delta != nil
}

// Dataset bundles every collection the dashboard derives from.
type Dataset struct {
	Revenue  []RevenuePoint `json:"revenue"`
	Channels []ChannelPoint `json:"channels"`
	Segments []SegmentPoint `json:"segments"`
	Events   []EventRow     `json:"events"`
}

// Validate checks record invariants and collection ordering/uniqueness.
func (d Dataset) Validate() error {
	prev := ""
	for _, p := range d.Revenue {
		if err := p.Validate(); err != nil {
			return err
		}
		// YYYY-MM labels sort lexically in chronological order.
		if prev != "" && p.Period <= prev {
			return fmt.Errorf("%w: revenue period %s out of order after %s", ErrInvalidRecord, p.Period, prev)
		}
		prev = p.Period
	}
	channels := make(map[string]struct{}, len(d.Channels))
	for _, c := range d.Channels {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := channels[c.Channel]; dup {
			return fmt.Errorf("%w: duplicate channel %s", ErrInvalidRecord, c.Channel)
		}
		channels[c.Channel] = struct{}{}
	}
	for _, s := range d.Segments {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	events := make(map[string]struct{}, len(d.Events))
	for _, e := range d.Events {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, dup := events[e.ID]; dup {
			return fmt.Errorf("%w: duplicate event id %s", ErrInvalidRecord, e.ID)
		}
		events[e.ID] = struct{}{}
	}
	return nil
}

func invalidRecord(kind string, err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s field %s failed %s", ErrInvalidRecord, kind, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, kind, err)
}

package dashboard

import "fmt"

// State holds the two user selections. It is a value: reducers return new states.
type State struct {
	Range   Range   `json:"range"`
	Segment Segment `json:"segment"`
}

// DefaultState is the state of a fresh dashboard.
func DefaultState() State {
	return State{Range: DefaultRange, Segment: SegmentAll}
}

// Action is a user interaction on one of the dashboard controls.
type Action interface {
	apply(State) (State, error)
}

// SelectRange switches the revenue trend window.
type SelectRange struct {
	Range Range
}

func (a SelectRange) apply(s State) (State, error) {
	if a.Range.Window() == 0 {
		return s, fmt.Errorf("%w: %q", ErrUnknownRange, string(a.Range))
	}
	s.Range = a.Range
	return s, nil
}

// SelectSegment switches the cohort selector.
type SelectSegment struct {
	Segment Segment
}

func (a SelectSegment) apply(s State) (State, error) {
	for _, seg := range Segments() {
		if seg == a.Segment {
			s.Segment = a.Segment
			return s, nil
		}
	}
	return s, fmt.Errorf("%w: %q", ErrUnknownSegment, string(a.Segment))
}

// Reduce applies actions in order. On error the input state is returned
// unchanged together with the error.
func Reduce(s State, actions ...Action) (State, error) {
	next := s
	for _, a := range actions {
		if a == nil {
			continue
		}
		var err error
		next, err = a.apply(next)
		if err != nil {
			return s, err
		}
	}
	return next, nil
}

// Totals aggregates the channel funnel.
type Totals struct {
	Leads   int     `json:"leads"`
	Signups int     `json:"signups"`
	Revenue float64 `json:"revenue"`
}

// Snapshot is everything the presentation layer renders for one state.
type Snapshot struct {
	State    State          `json:"state"`
	KPIs     []KPI          `json:"-"`
	Revenue  []RevenuePoint `json:"revenue"`
	Channels []ChannelPoint `json:"channels"`
	Totals   Totals         `json:"totals"`
	Segments []SegmentView  `json:"segments"`
	Events   []EventRow     `json:"events"`
}

// Derive recomputes the snapshot for s. KPIs always use the full revenue series;
// only the trend is windowed.
func Derive(s State, data Dataset) Snapshot {
	snap := Snapshot{
		State:    s,
		KPIs:     DeriveKPIs(data.Revenue, data.Channels),
		Revenue:  FilterRange(data.Revenue, s.Range),
		Channels: append([]ChannelPoint(nil), data.Channels...),
		Segments: FilterSegments(data.Segments, s.Segment),
		Events:   append([]EventRow(nil), data.Events...),
	}
	for _, c := range data.Channels {
		snap.Totals.Leads += c.Leads
		snap.Totals.Signups += c.Signups
		snap.Totals.Revenue += c.Revenue
	}
	return snap
}

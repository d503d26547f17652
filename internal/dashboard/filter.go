package dashboard

import (
	"fmt"
	"strings"
)

// Range selects how many trailing periods the revenue trend shows.
type Range string

// Supported ranges.
const (
	Range3M  Range = "3m"
	Range6M  Range = "6m"
	Range12M Range = "12m"
)

// DefaultRange is the range shown before any selection.
const DefaultRange = Range6M

// Ranges lists the selectable ranges in display order.
func Ranges() []Range {
	return []Range{Range3M, Range6M, Range12M}
}

// ParseRange maps a query value onto the closed Range set. An empty value yields
// DefaultRange.
func ParseRange(raw string) (Range, error) {
	value := Range(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return DefaultRange, nil
	}
	for _, r := range Ranges() {
		if r == value {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, raw)
}

// Window returns the number of periods covered by the range.
func (r Range) Window() int {
	switch r {
	case Range3M:
		return 3
	case Range6M:
		return 6
	case Range12M:
		return 12
	default:
		return 0
	}
}

// TailWindow returns the last min(w, len(series)) points in original order. The
// result is a copy so callers cannot alias the source series.
func TailWindow(series []RevenuePoint, w int) []RevenuePoint {
	if w <= 0 {
		return []RevenuePoint{}
	}
	start := len(series) - w
	if start < 0 {
		start = 0
	}
	out := make([]RevenuePoint, len(series)-start)
	copy(out, series[start:])
	return out
}

// FilterRange returns the trailing points covered by r.
func FilterRange(series []RevenuePoint, r Range) []RevenuePoint {
	return TailWindow(series, r.Window())
}

// Segment names a customer cohort in the segment selector.
type Segment string

// Supported segments.
const (
	SegmentAll        Segment = "All"
	SegmentSMB        Segment = "SMB"
	SegmentMidMarket  Segment = "Mid-Market"
	SegmentEnterprise Segment = "Enterprise"
)

// Segments lists the selector options in display order.
func Segments() []Segment {
	return []Segment{SegmentAll, SegmentSMB, SegmentMidMarket, SegmentEnterprise}
}

// ParseSegment maps a query value onto the selector options, case-insensitively.
// An empty value yields SegmentAll.
func ParseSegment(raw string) (Segment, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return SegmentAll, nil
	}
	for _, s := range Segments() {
		if strings.EqualFold(string(s), value) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSegment, raw)
}

// SegmentView is a cohort share with its selection state.
type SegmentView struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Selected bool    `json:"selected"`
}

// FilterSegments marks the cohorts matched by seg. Every cohort is kept in its
// original order; SegmentAll selects all of them.
func FilterSegments(points []SegmentPoint, seg Segment) []SegmentView {
	views := make([]SegmentView, 0, len(points))
	for _, p := range points {
		views = append(views, SegmentView{
			Name:     p.Name,
			Value:    p.Value,
			Selected: seg == SegmentAll || strings.EqualFold(p.Name, string(seg)),
		})
	}
	return views
}

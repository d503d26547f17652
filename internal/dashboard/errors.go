package dashboard

import "errors"

var (
	// ErrInsufficientHistory indicates the revenue series is too short for the metric.
	ErrInsufficientHistory = errors.New("dashboard: insufficient history")
	// ErrNoLeads indicates a conversion rate over zero leads.
	ErrNoLeads = errors.New("dashboard: no leads")
	// ErrNoRevenueBase indicates a zero revenue denominator.
	ErrNoRevenueBase = errors.New("dashboard: no revenue base")
	// ErrInvalidRecord wraps record validation failures.
	ErrInvalidRecord = errors.New("dashboard: invalid record")
	// ErrUnknownRange is returned for range labels outside 3m/6m/12m.
	ErrUnknownRange = errors.New("dashboard: unknown range")
	// ErrUnknownSegment is returned for cohorts outside the segment selector.
	ErrUnknownSegment = errors.New("dashboard: unknown segment")
)

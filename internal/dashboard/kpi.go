package dashboard

import "math"

// KPI identifiers in display order.
const (
	KPIMRR        = "mrr"
	KPIARR        = "arr"
	KPIConversion = "conv"
	KPIChurn      = "churn"
)

// Placeholder is shown in place of a value that could not be derived.
const Placeholder = "—"

// LatestMRR returns the most recent period's recurring revenue.
func LatestMRR(series []RevenuePoint) (float64, error) {
	if len(series) == 0 {
		return 0, ErrInsufficientHistory
	}
	return series[len(series)-1].MRR, nil
}

// MRRDelta returns the period-over-period MRR change in percent.
func MRRDelta(series []RevenuePoint) (float64, error) {
	if len(series) < 2 {
		return 0, ErrInsufficientHistory
	}
	last := series[len(series)-1]
	prev := series[len(series)-2]
	if prev.MRR == 0 {
		return 0, ErrNoRevenueBase
	}
	return (last.MRR - prev.MRR) / prev.MRR * 100, nil
}

// ARR annualises the latest MRR.
func ARR(series []RevenuePoint) (float64, error) {
	mrr, err := LatestMRR(series)
	if err != nil {
		return 0, err
	}
	return mrr * 12, nil
}

// ConversionRate returns total signups over total leads in percent. The result
// does not depend on channel order.
func ConversionRate(channels []ChannelPoint) (float64, error) {
	leads, signups := 0, 0
	for _, c := range channels {
		leads += c.Leads
		signups += c.Signups
	}
	if leads == 0 {
		return 0, ErrNoLeads
	}
	return float64(signups) / float64(leads) * 100, nil
}

// ChurnRate returns the latest churned revenue as a share of the revenue base
// (MRR plus the churned amount) in percent.
func ChurnRate(series []RevenuePoint) (float64, error) {
	if len(series) == 0 {
		return 0, ErrInsufficientHistory
	}
	last := series[len(series)-1]
	churned := math.Abs(last.ChurnMRR)
	base := last.MRR + churned
	if base == 0 {
		return 0, ErrNoRevenueBase
	}
	return churned / base * 100, nil
}

// DeriveKPIs computes the four headline cards. ARR reuses the MRR delta. Failed
// computations produce placeholder cards instead of NaN values.
func DeriveKPIs(series []RevenuePoint, channels []ChannelPoint) []KPI {
	mrr := KPI{ID: KPIMRR, Label: "MRR", Value: Placeholder}
	arr := KPI{ID: KPIARR, Label: "ARR", Value: Placeholder}

	if latest, err := LatestMRR(series); err != nil {
		mrr.Err = err
		arr.Err = err
	} else {
		mrr.Value = FormatCurrency(latest)
		arr.Value = FormatCurrency(latest * 12)
	}

	if delta, err := MRRDelta(series); err != nil {
		mrr.DeltaErr = err
		arr.DeltaErr = err
	} else {
		d := delta
		mrr.Delta = &d
		arr.Delta = &d
	}

	conv := KPI{ID: KPIConversion, Label: "Conversion Rate", Value: Placeholder}
	if rate, err := ConversionRate(channels); err != nil {
		conv.Err = err
	} else {
		conv.Value = FormatPercent(rate, 1)
	}

	churn := KPI{ID: KPIChurn, Label: "Churn", Value: Placeholder}
	if rate, err := ChurnRate(series); err != nil {
		churn.Err = err
	} else {
		churn.Value = FormatPercent(rate, 2)
	}

	return []KPI{mrr, arr, conv, churn}
}

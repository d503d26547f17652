package dashboardhttp

import (
	"context"
	"errors"
	"net/http"

	"github.com/soule-smart/dashboard/internal/dashboard"
	"github.com/soule-smart/dashboard/internal/platform/httpx"
)

// kpiPayload is the JSON form of a KPI card. Value is the display string; Error
// carries a stable code when the value is a placeholder.
type kpiPayload struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Value      string   `json:"value"`
	Delta      *float64 `json:"delta,omitempty"`
	DeltaLabel string   `json:"delta_label,omitempty"`
	Error      string   `json:"error,omitempty"`
	DeltaError string   `json:"delta_error,omitempty"`
}

type snapshotPayload struct {
	State    dashboard.State          `json:"state"`
	KPIs     []kpiPayload             `json:"kpis"`
	Revenue  []dashboard.RevenuePoint `json:"revenue"`
	Channels []dashboard.ChannelPoint `json:"channels"`
	Totals   dashboard.Totals         `json:"totals"`
	Segments []dashboard.SegmentView  `json:"segments"`
	Events   []dashboard.EventRow     `json:"events"`
}

func (h *Handler) handleAPI(w http.ResponseWriter, r *http.Request) {
	state, err := parseState(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snap, err := h.loadSnapshot(ctx, state)
	if err != nil {
		h.logError("load dashboard", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(snap))
}

func toPayload(snap dashboard.Snapshot) snapshotPayload {
	kpis := make([]kpiPayload, 0, len(snap.KPIs))
	for _, k := range snap.KPIs {
		p := kpiPayload{ID: k.ID, Label: k.Label, Value: k.Value, Delta: k.Delta, Error: errorCode(k.Err), DeltaError: errorCode(k.DeltaErr)}
		if k.HasDelta() {
			p.DeltaLabel = dashboard.FormatDelta(*k.Delta)
		}
		kpis = append(kpis, p)
	}
	return snapshotPayload{
		State:    snap.State,
		KPIs:     kpis,
		Revenue:  snap.Revenue,
		Channels: snap.Channels,
		Totals:   snap.Totals,
		Segments: snap.Segments,
		Events:   snap.Events,
	}
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, dashboard.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, dashboard.ErrNoLeads):
		return "no_leads"
	case errors.Is(err, dashboard.ErrNoRevenueBase):
		return "no_revenue_base"
	default:
		return "unavailable"
	}
}

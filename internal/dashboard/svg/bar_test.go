package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(500, 220, []string{"SEO", "Ads"}, []Series{
		{Name: "Leads", Values: []float64{820, 640}},
		{Name: "Signups", Values: []float64{210, 160}},
	}, BarOpts{Title: "Channel Performance"})
	if err != nil {
		t.Fatalf("bar renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output")
	}
	if strings.Count(output, "<rect") < 4 {
		t.Fatalf("expected at least one rect per bar")
	}
	if !strings.Contains(output, "aria-label=\"Leads SEO\"") {
		t.Fatalf("expected labelled bars, got %s", output)
	}
}

func TestBarsValidation(t *testing.T) {
	if _, err := Bars(400, 200, []string{"a"}, nil, BarOpts{}); err == nil {
		t.Fatalf("expected error for missing series")
	}
	if _, err := Bars(400, 200, []string{"a"}, []Series{{Name: "x", Values: []float64{1, 2}}}, BarOpts{}); err == nil {
		t.Fatalf("expected error for mismatched lengths")
	}
}

func TestBarPositionNegative(t *testing.T) {
	y, h := barPosition(-10, 2, 100, 10, 150)
	if y != 100 || h != 20 {
		t.Fatalf("unexpected negative bar y=%v h=%v", y, h)
	}
	y, h = barPosition(-100, 2, 100, 10, 150)
	if y != 100 || h != 50 {
		t.Fatalf("expected clamp to bottom, got y=%v h=%v", y, h)
	}
	y, h = barPosition(100, 2, 100, 10, 150)
	if y != 10 || h != 90 {
		t.Fatalf("expected clamp to top, got y=%v h=%v", y, h)
	}
}

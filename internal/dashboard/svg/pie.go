package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Pie renders shares as a pie chart. Selected slices are drawn opaque and pulled
// out slightly; unselected slices are dimmed.
func Pie(width, height int, slices []Slice, opts PieOpts) (template.HTML, error) {
	if len(slices) == 0 {
		return "", fmt.Errorf("svg: slices required")
	}
	total := 0.0
	for _, s := range slices {
		if s.Value < 0 {
			return "", fmt.Errorf("svg: slice %q must not be negative", s.Name)
		}
		total += s.Value
	}
	if total <= 0 {
		return "", fmt.Errorf("svg: slices sum to zero")
	}
	if width <= 0 {
		width = DefaultHeight
	}
	if height <= 0 {
		height = DefaultHeight
	}

	cx := float64(width) / 2
	cy := float64(height) / 2
	radius := math.Min(cx, cy) * 0.7

	titleID := makeID(opts.Title, "pie-title")
	descID := makeID(opts.Title, "pie-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Pie chart"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share breakdown"))))

	start := -math.Pi / 2
	for i, s := range slices {
		color := palette[i%len(palette)]
		if i < len(opts.Colors) && opts.Colors[i] != "" {
			color = opts.Colors[i]
		}
		sweep := s.Value / total * 2 * math.Pi
		mid := start + sweep/2
		ox, oy := 0.0, 0.0
		opacity := "0.35"
		if s.Selected {
			opacity = "1"
			if len(slices) > 1 {
				ox, oy = math.Cos(mid)*4, math.Sin(mid)*4
			}
		}
		label := fmt.Sprintf("%s %s", s.Name, formatShare(s.Value/total*100))
		if len(slices) == 1 || almostEqual(sweep, 2*math.Pi) {
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" fill-opacity=\"%s\" aria-label=\"%s\"></circle>", cx, cy, radius, color, opacity, template.HTMLEscapeString(label)))
		} else if sweep > 0 {
			end := start + sweep
			large := 0
			if sweep > math.Pi {
				large = 1
			}
			x1, y1 := cx+ox+radius*math.Cos(start), cy+oy+radius*math.Sin(start)
			x2, y2 := cx+ox+radius*math.Cos(end), cy+oy+radius*math.Sin(end)
			b.WriteString(fmt.Sprintf("<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\" fill-opacity=\"%s\" stroke=\"#ffffff\" stroke-width=\"1\" aria-label=\"%s\"></path>",
				cx+ox, cy+oy, x1, y1, radius, radius, large, x2, y2, color, opacity, template.HTMLEscapeString(label)))
		}
		if opts.ShowLabels && sweep > 0 {
			lx := cx + (radius+14)*math.Cos(mid)
			ly := cy + (radius+14)*math.Sin(mid)
			anchor := "start"
			if math.Cos(mid) < 0 {
				anchor = "end"
			}
			b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"#334155\" font-size=\"10\" text-anchor=\"%s\">%s</text>", lx, ly+3, anchor, template.HTMLEscapeString(label)))
		}
		start += sweep
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func formatShare(pct float64) string {
	if almostEqual(pct, math.Round(pct)) {
		return fmt.Sprintf("%.0f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

package svg

// Series is one named data row of a chart.
type Series struct {
	Name   string
	Values []float64
	Color  string
}

// Slice is one share of a pie chart.
type Slice struct {
	Name     string
	Value    float64
	Selected bool
}

// AreaOpts customises the area chart renderer.
type AreaOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	ShowDots    bool
	TickFormat  func(float64) string
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	TickFormat  func(float64) string
}

// PieOpts customises the pie chart renderer.
type PieOpts struct {
	Title       string
	Description string
	Colors      []string
	ShowLabels  bool
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 260
	DefaultPadding = 32.0
	DefaultTicks   = 5
)

var palette = []string{"#0f172a", "#0ea5e9", "#f97316", "#10b981", "#a855f7", "#e11d48"}

func colorAt(i int, override string) string {
	if override != "" {
		return override
	}
	return palette[i%len(palette)]
}

package svg

import "html/template"

// Renderer exposes the package renderers as methods for dependency injection.
type Renderer struct{}

// Area delegates to the package Area renderer.
func (Renderer) Area(width, height int, labels []string, series []Series, opts AreaOpts) (template.HTML, error) {
	return Area(width, height, labels, series, opts)
}

// Bars delegates to the package Bars renderer.
func (Renderer) Bars(width, height int, labels []string, series []Series, opts BarOpts) (template.HTML, error) {
	return Bars(width, height, labels, series, opts)
}

// Pie delegates to the package Pie renderer.
func (Renderer) Pie(width, height int, slices []Slice, opts PieOpts) (template.HTML, error) {
	return Pie(width, height, slices, opts)
}

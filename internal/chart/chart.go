// Package chart renders the prior-vs-posterior comparison chart.
package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"aerial-triage/internal/fusion"
)

// Renderer writes two-bar SVG charts comparing the session prior with
// the computed posterior for a case.
type Renderer struct {
	outDir string
}

// NewRenderer writes charts into outDir ("" means the working directory).
func NewRenderer(outDir string) *Renderer {
	return &Renderer{outDir: outDir}
}

type barData struct {
	CaseName string
	Bars     []bar
}

type bar struct {
	Label string
	Value string
	X     int
	Y     int
	H     int
	Fill  string
}

const plotHeight = 220

var chartTmpl = template.Must(template.New("chart").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="360" height="300" viewBox="0 0 360 300">
  <rect width="360" height="300" fill="white"/>
  <text x="180" y="24" text-anchor="middle" font-family="sans-serif" font-size="14">Prior vs Posterior: {{.CaseName}}</text>
  <line x1="50" y1="260" x2="330" y2="260" stroke="black" stroke-width="1"/>
  <line x1="50" y1="40" x2="50" y2="260" stroke="black" stroke-width="1"/>
{{- range .Bars}}
  <rect x="{{.X}}" y="{{.Y}}" width="80" height="{{.H}}" fill="{{.Fill}}"/>
  <text x="{{.X}}" y="{{.Y}}" dx="40" dy="-6" text-anchor="middle" font-family="sans-serif" font-size="12">{{.Value}}</text>
  <text x="{{.X}}" y="280" dx="40" text-anchor="middle" font-family="sans-serif" font-size="12">{{.Label}}</text>
{{- end}}
</svg>
`))

// Render writes the chart for an assessment and returns the output path.
func (r *Renderer) Render(a fusion.Assessment) (string, error) {
	path := filepath.Join(r.outDir, "chart_"+sanitizeName(a.Case)+".svg")

	data := barData{
		CaseName: a.Case,
		Bars: []bar{
			makeBar("Prior NH", a.PriorNH, 90, "skyblue"),
			makeBar("Posterior NH", a.Posterior, 200, "orange"),
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := chartTmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return path, nil
}

func makeBar(label string, value float64, x int, fill string) bar {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	h := int(value * plotHeight)
	return bar{
		Label: label,
		Value: fmt.Sprintf("%.2f", value),
		X:     x,
		Y:     260 - h,
		H:     h,
		Fill:  fill,
	}
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	return name
}

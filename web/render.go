package web

import (
	"bytes"
	"fmt"
	"html/template"
	"image/color"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// systemColors are the Advantage and Advantage2 series colors.
var systemColors = [2]color.NRGBA{
	{R: 0x2a, G: 0x7d, B: 0xe1, A: 0xff},
	{R: 0xf3, G: 0x78, B: 0x20, A: 0xff},
}

var (
	bestColor    = color.NRGBA{R: 0xcc, A: 0xff}
	defectColor  = color.NRGBA{R: 0xd0, G: 0x30, B: 0x30, A: 0xff}
	sharedColor  = color.NRGBA{R: 0x8a, G: 0x8a, B: 0x8a, A: 0xff}
	translucence = uint8(0x99)
)

func hexColor(c color.NRGBA) string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

var funcMap = template.FuncMap{
	"percent": func(f float64) string { return fmt.Sprintf("%.1f%%", 100*f) },
	"energy":  func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"micros":  func(f float64) string { return fmt.Sprintf("%.2f µs", f) },
	"color":   func(i int) string { return hexColor(systemColors[i%2]) },
	"seed": func(p *int64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprint(*p)
	},
	"selected": func(a, b any) template.HTMLAttr {
		if fmt.Sprint(a) == fmt.Sprint(b) {
			return "selected"
		}
		return ""
	},
	"checked": func(ok bool) template.HTMLAttr {
		if ok {
			return "checked"
		}
		return ""
	},
}

// svgMarkup renders p as inline SVG tagged with class.
func svgMarkup(p *plot.Plot, w, h vg.Length, class string) (template.HTML, error) {
	c := vgsvg.NewWith(vgsvg.UseWH(w, h), vgsvg.EmbedFonts(false))
	p.Draw(draw.New(c))
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("render %s: %w", class, err)
	}
	out := buf.String()
	i := strings.Index(out, "<svg ")
	if i < 0 {
		return "", fmt.Errorf("render %s: no svg element in output", class)
	}
	return template.HTML(`<svg class="` + class + `" ` + out[i+len("<svg "):]), nil
}

// histogramSVG draws both systems' energy histograms over the shared bins,
// overlaid, with the best energy marked.
func histogramSVG(cmp *spinglass.ComparisonResult) (template.HTML, error) {
	h := cmp.Histogram
	bins := h.Bins()
	if bins <= 0 || h.MaxCount() == 0 {
		return "", nil
	}

	p := plot.New()
	p.X.Label.Text = "Energy"
	p.Y.Label.Text = "Reads"
	p.Legend.Top = true
	for sys, counts := range h.Counts {
		hist := &plotter.Histogram{
			Bins:      make([]plotter.HistogramBin, bins),
			Width:     h.Dividers[1] - h.Dividers[0],
			LineStyle: draw.LineStyle{Color: systemColors[sys], Width: vg.Points(0.5)},
		}
		fill := systemColors[sys]
		fill.A = translucence
		hist.FillColor = fill
		for i := range hist.Bins {
			hist.Bins[i] = plotter.HistogramBin{Min: h.Dividers[i], Max: h.Dividers[i+1], Weight: counts[i]}
		}
		p.Add(hist)
		p.Legend.Add(cmp.Systems[sys].Solver, hist)
	}

	best, err := plotter.NewLine(plotter.XYs{{X: cmp.BestEnergy, Y: 0}, {X: cmp.BestEnergy, Y: h.MaxCount()}})
	if err != nil {
		return "", fmt.Errorf("render histogram: %w", err)
	}
	best.LineStyle = draw.LineStyle{Color: bestColor, Width: vg.Points(1), Dashes: []vg.Length{vg.Points(4), vg.Points(3)}}
	p.Add(best)
	p.Legend.Add(fmt.Sprintf("best %.2f", cmp.BestEnergy), best)

	return svgMarkup(p, 7.5*vg.Inch, 3.5*vg.Inch, "histogram")
}

// graphPlotter draws a Chimera drawing in unit-cell coordinates. Rows grow
// downward so the first cell sits top left.
type graphPlotter struct {
	size  float64
	edges []styledEdge
	nodes []styledNode
}

type styledEdge struct {
	p, q  topology.Point
	style draw.LineStyle
}

type styledNode struct {
	p     topology.Point
	style draw.GlyphStyle
}

func (g *graphPlotter) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, e := range g.edges {
		c.StrokeLine2(e.style, trX(e.p.X), trY(-e.p.Y), trX(e.q.X), trY(-e.q.Y))
	}
	for _, n := range g.nodes {
		c.DrawGlyph(n.style, vg.Point{X: trX(n.p.X), Y: trY(-n.p.Y)})
	}
}

func (g *graphPlotter) DataRange() (xmin, xmax, ymin, ymax float64) {
	return 0, g.size, -g.size, 0
}

func latticePlot(title string, g *graphPlotter) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(g)
	return p
}

func layoutSide(size int) vg.Length {
	return vg.Length(float64(size)) * 0.4 * vg.Inch
}

func edgeStyle(c color.Color) draw.LineStyle {
	return draw.LineStyle{Color: c, Width: vg.Points(0.5)}
}

func nodeStyle(c color.Color) draw.GlyphStyle {
	return draw.GlyphStyle{Color: c, Radius: vg.Points(1.2), Shape: draw.CircleGlyph{}}
}

// chimeraSVG draws the intersection graph with one cross per unit cell.
func chimeraSVG(in *topology.Intersection) (template.HTML, error) {
	if in == nil || in.Graph.IsEmpty() {
		return "", nil
	}
	pos := topology.ChimeraLayout(in.Graph, in.Size, in.Tile)
	g := &graphPlotter{size: float64(in.Size)}
	for _, e := range in.Graph.Edges() {
		g.edges = append(g.edges, styledEdge{p: pos[e.U], q: pos[e.V], style: edgeStyle(sharedColor)})
	}
	for _, n := range in.Graph.Nodes() {
		g.nodes = append(g.nodes, styledNode{p: pos[n], style: nodeStyle(systemColors[0])})
	}
	title := fmt.Sprintf("C%d intersection", in.Size)
	side := layoutSide(in.Size)
	return svgMarkup(latticePlot(title, g), side, side, "layout")
}

// placementFigure is one system's view of the source lattice.
type placementFigure struct {
	Solver string
	Label  string
	SVG    template.HTML
}

// placementSVG overlays the full source lattice on hw through its placement:
// qubits and couplers that exist on hw take the system color, the rest are
// drawn as defects.
func placementSVG(in *topology.Intersection, hw *topology.Hardware, sys int) (placementFigure, error) {
	fig := placementFigure{Solver: hw.Solver}
	m, ok := in.Mappings[hw.Solver]
	if !ok {
		return fig, fmt.Errorf("render placement: no mapping for %s", hw.Solver)
	}
	fig.Label = m.Label
	src := topology.Chimera(in.Size, in.Size, in.Tile)
	pos := topology.ChimeraLayout(src, in.Size, in.Tile)
	g := &graphPlotter{size: float64(in.Size)}
	working := systemColors[sys%2]
	// defects are drawn last so working couplers never cover them
	var brokenEdges []styledEdge
	for _, e := range src.Edges() {
		se := styledEdge{p: pos[e.U], q: pos[e.V], style: edgeStyle(working)}
		if !hw.Graph.HasEdge(m.Map(e.U), m.Map(e.V)) {
			se.style = edgeStyle(defectColor)
			brokenEdges = append(brokenEdges, se)
			continue
		}
		g.edges = append(g.edges, se)
	}
	g.edges = append(g.edges, brokenEdges...)
	var brokenNodes []styledNode
	for _, n := range src.Nodes() {
		sn := styledNode{p: pos[n], style: nodeStyle(working)}
		if !hw.Graph.HasNode(m.Map(n)) {
			sn.style = nodeStyle(defectColor)
			brokenNodes = append(brokenNodes, sn)
			continue
		}
		g.nodes = append(g.nodes, sn)
	}
	g.nodes = append(g.nodes, brokenNodes...)
	side := layoutSide(in.Size)
	svg, err := svgMarkup(latticePlot(hw.Solver+" "+m.Label, g), side, side, "placement")
	if err != nil {
		return fig, err
	}
	fig.SVG = svg
	return fig, nil
}

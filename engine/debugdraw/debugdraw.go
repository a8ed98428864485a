// Package debugdraw renders blend spaces to PNG for inspecting authored parameter layouts.
package debugdraw

import (
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/animgraph"
	"github.com/gogpu/gg"
)

// BlendSpacePlot is the drawable state of a blend space in one graph instance.
type BlendSpacePlot struct {
	Name      string
	Points    [][2]float32
	Motions   []string
	Triangles []common.Triangle
	Edges     []common.Edge
	Sample    [2]float32
	Weights   []animgraph.BlendInfo
	// OneDimensional plots every point on the horizontal axis.
	OneDimensional bool
}

// FromBlendSpace2D captures a 2D blend space as evaluated by inst.
//
// Parameters:
//   - n: the blend space node
//   - inst: the instance that last updated it
//
// Returns:
//   - BlendSpacePlot: the plot data
func FromBlendSpace2D(n *animgraph.BlendSpace2DNode, inst *animgraph.GraphInstance) BlendSpacePlot {
	p := capture(n.Base().Name(), n.Motions)
	p.Triangles = n.Triangles(inst)
	p.Edges = n.OuterEdges(inst)
	p.Sample = n.CurrentPosition(inst)
	p.Weights = n.BlendInfos(inst)
	return p
}

// FromBlendSpace1D captures a 1D blend space as evaluated by inst.
func FromBlendSpace1D(n *animgraph.BlendSpace1DNode, inst *animgraph.GraphInstance) BlendSpacePlot {
	p := capture(n.Base().Name(), n.Motions)
	p.OneDimensional = true
	p.Sample = n.CurrentPosition(inst)
	p.Weights = n.BlendInfos(inst)
	for i := range p.Points {
		p.Points[i][1] = 0
	}
	p.Sample[1] = 0
	return p
}

func capture(name string, motions []animgraph.BlendSpaceMotion) BlendSpacePlot {
	p := BlendSpacePlot{Name: name}
	for _, m := range motions {
		p.Points = append(p.Points, m.Position)
		p.Motions = append(p.Motions, m.MotionID)
	}
	return p
}

// Find captures the blend space node called name.
//
// Parameters:
//   - inst: the instance whose graph holds the node
//   - name: the node name
//
// Returns:
//   - BlendSpacePlot: the plot data
//   - error: when no blend space has that name
func Find(inst *animgraph.GraphInstance, name string) (BlendSpacePlot, error) {
	switch n := inst.Graph().FindNode(name).(type) {
	case *animgraph.BlendSpace2DNode:
		return FromBlendSpace2D(n, inst), nil
	case *animgraph.BlendSpace1DNode:
		return FromBlendSpace1D(n, inst), nil
	default:
		return BlendSpacePlot{}, fmt.Errorf("debugdraw: %q is not a blend space", name)
	}
}

// viewport maps blend space coordinates to pixels, y up.
type viewport struct {
	minX, minY, scale float64
	margin, height    float64
}

func newViewport(p BlendSpacePlot, width, height int, margin float64) viewport {
	minX, minY := float64(p.Sample[0]), float64(p.Sample[1])
	maxX, maxY := minX, minY
	for _, pt := range p.Points {
		minX, maxX = min(minX, float64(pt[0])), max(maxX, float64(pt[0]))
		minY, maxY = min(minY, float64(pt[1])), max(maxY, float64(pt[1]))
	}
	spanX, spanY := max(maxX-minX, 1e-6), max(maxY-minY, 1e-6)
	scale := min((float64(width)-2*margin)/spanX, (float64(height)-2*margin)/spanY)
	if p.OneDimensional {
		scale = (float64(width) - 2*margin) / spanX
		minY = -(float64(height)/2 - margin) / scale
	}
	return viewport{minX: minX, minY: minY, scale: scale, margin: margin, height: float64(height)}
}

func (v viewport) project(pt [2]float32) (float64, float64) {
	x := v.margin + (float64(pt[0])-v.minX)*v.scale
	y := v.height - v.margin - (float64(pt[1])-v.minY)*v.scale
	return x, y
}

// Render draws p as a PNG into w. Triangles are light grey, outer edges dark grey, motions
// blue discs grown by their weight and the sample point red.
//
// Parameters:
//   - p: the plot data
//   - w: destination of the PNG bytes
//   - options: plot options
//
// Returns:
//   - error: drawing or encoding failure
func Render(p BlendSpacePlot, w io.Writer, options ...PlotBuilderOption) error {
	cfg := defaultPlotConfig()
	for _, option := range options {
		option(&cfg)
	}

	dc := gg.NewContext(cfg.width, cfg.height)
	defer dc.Close()
	dc.ClearWithColor(gg.RGBA{R: 1, G: 1, B: 1, A: 1})
	v := newViewport(p, cfg.width, cfg.height, cfg.margin)

	line := func(a, b [2]float32) error {
		x1, y1 := v.project(a)
		x2, y2 := v.project(b)
		dc.DrawLine(x1, y1, x2, y2)
		return dc.Stroke()
	}

	dc.SetLineWidth(1)
	dc.SetHexColor("#c8c8c8")
	for _, t := range p.Triangles {
		for _, e := range [][2]int{{t.A, t.B}, {t.B, t.C}, {t.C, t.A}} {
			if err := line(p.Points[e[0]], p.Points[e[1]]); err != nil {
				return err
			}
		}
	}

	dc.SetLineWidth(2)
	dc.SetHexColor("#505050")
	for _, e := range p.Edges {
		if err := line(p.Points[e.A], p.Points[e.B]); err != nil {
			return err
		}
	}
	if p.OneDimensional && len(p.Points) > 1 {
		lo, hi := p.Points[0], p.Points[0]
		for _, pt := range p.Points {
			if pt[0] < lo[0] {
				lo = pt
			}
			if pt[0] > hi[0] {
				hi = pt
			}
		}
		if err := line(lo, hi); err != nil {
			return err
		}
	}

	weights := make([]float32, len(p.Points))
	for _, bi := range p.Weights {
		if bi.MotionIndex >= 0 && bi.MotionIndex < len(weights) {
			weights[bi.MotionIndex] = bi.Weight
		}
	}
	dc.SetHexColor("#2060d0")
	for i, pt := range p.Points {
		x, y := v.project(pt)
		dc.DrawCircle(x, y, cfg.pointRadius*(1+float64(weights[i])))
		if err := dc.Fill(); err != nil {
			return err
		}
	}

	dc.SetHexColor("#e02020")
	x, y := v.project(p.Sample)
	dc.DrawCircle(x, y, cfg.pointRadius)
	if err := dc.Fill(); err != nil {
		return err
	}

	return dc.EncodePNG(w)
}

// SavePNG renders p into the file at path.
//
// Parameters:
//   - p: the plot data
//   - path: the output file
//   - options: plot options
//
// Returns:
//   - error: file or drawing failure
func SavePNG(p BlendSpacePlot, path string, options ...PlotBuilderOption) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(p, f, options...); err != nil {
		f.Close()
		return fmt.Errorf("failed to plot %q: %w", p.Name, err)
	}
	return f.Close()
}

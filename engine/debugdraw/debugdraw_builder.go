package debugdraw

type plotConfig struct {
	width, height int
	margin        float64
	pointRadius   float64
}

func defaultPlotConfig() plotConfig {
	return plotConfig{width: 512, height: 512, margin: 32, pointRadius: 5}
}

// PlotBuilderOption is a functional option for Render and SavePNG.
type PlotBuilderOption func(*plotConfig)

// WithSize sets the image size in pixels. Defaults to 512x512.
//
// Parameters:
//   - width: image width
//   - height: image height
//
// Returns:
//   - PlotBuilderOption: a function that applies the size
func WithSize(width, height int) PlotBuilderOption {
	return func(c *plotConfig) {
		c.width, c.height = max(width, 16), max(height, 16)
	}
}

// WithMargin sets the blank border around the plotted area in pixels.
func WithMargin(margin float64) PlotBuilderOption {
	return func(c *plotConfig) {
		c.margin = margin
	}
}

// WithPointRadius sets the radius of unweighted motion points and of the sample point.
func WithPointRadius(r float64) PlotBuilderOption {
	return func(c *plotConfig) {
		c.pointRadius = r
	}
}

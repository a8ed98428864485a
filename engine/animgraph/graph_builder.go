package animgraph

import "log/slog"

// GraphBuilderOption configures a Graph.
type GraphBuilderOption func(*Graph)

// WithGraphLogger sets the logger used for validation warnings.
func WithGraphLogger(l *slog.Logger) GraphBuilderOption {
	return func(g *Graph) {
		g.logger = l
	}
}

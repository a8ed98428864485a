package animgraph

import "log/slog"

// InstanceBuilderOption configures a GraphInstance.
type InstanceBuilderOption func(*GraphInstance)

// WithEventHandler registers an event handler at construction.
func WithEventHandler(h EventHandler) InstanceBuilderOption {
	return func(inst *GraphInstance) {
		inst.handlers = append(inst.handlers, h)
	}
}

// WithSeed seeds the instance's random source, used by random math operators and
// randomized time conditions.
func WithSeed(seed uint64) InstanceBuilderOption {
	return func(inst *GraphInstance) {
		inst.seed = seed
	}
}

// WithInstancePlaySpeed sets the global play speed multiplier.
func WithInstancePlaySpeed(speed float32) InstanceBuilderOption {
	return func(inst *GraphInstance) {
		inst.playSpeed = speed
	}
}

// WithInstanceLogger sets the logger used by the instance.
func WithInstanceLogger(l *slog.Logger) InstanceBuilderOption {
	return func(inst *GraphInstance) {
		inst.logger = l
	}
}

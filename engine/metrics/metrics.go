// Package metrics exposes the runtime's prometheus collectors. They are registered with the
// default registry, so promhttp.Handler serves them.
package metrics

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TickDuration tracks how long one scene update takes
	TickDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oxy_anim_tick_duration_seconds",
			Help:    "Wall time of one scene update",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"scene"},
	)

	// PosePoolInUse tracks the pooled poses still held after the last update
	PosePoolInUse = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oxy_anim_pose_pool_in_use",
			Help: "Pooled poses held across all graph instances of a scene",
		},
		[]string{"scene"},
	)

	// PosePoolPeak tracks the largest pose pool high-water mark of a scene
	PosePoolPeak = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oxy_anim_pose_pool_peak",
			Help: "Highest number of pooled poses held by one graph instance",
		},
		[]string{"scene"},
	)

	// ActiveTransitions tracks state machines currently blending between states
	ActiveTransitions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oxy_anim_active_transitions",
			Help: "State machine transitions in progress",
		},
		[]string{"scene"},
	)

	// Actors tracks the number of actors updated per tick
	Actors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oxy_anim_actors",
			Help: "Enabled actors updated by the last tick",
		},
		[]string{"scene"},
	)

	// TicksTotal tracks the number of scene updates
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxy_anim_ticks_total",
			Help: "Total number of scene updates",
		},
		[]string{"scene"},
	)

	// EventsTotal tracks motion and state events emitted by graph roots
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxy_anim_events_total",
			Help: "Total number of events reaching graph roots",
		},
		[]string{"scene"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(TickDuration)
	prometheus.MustRegister(PosePoolInUse)
	prometheus.MustRegister(PosePoolPeak)
	prometheus.MustRegister(ActiveTransitions)
	prometheus.MustRegister(Actors)
	prometheus.MustRegister(TicksTotal)
	prometheus.MustRegister(EventsTotal)
}

// Observe records the stats of one scene update.
//
// Parameters:
//   - sceneName: the label value
//   - stats: the update's stats
func Observe(sceneName string, stats scene.Stats) {
	TickDuration.WithLabelValues(sceneName).Observe(stats.Elapsed.Seconds())
	PosePoolInUse.WithLabelValues(sceneName).Set(float64(stats.PosePoolInUse))
	PosePoolPeak.WithLabelValues(sceneName).Set(float64(stats.PosePoolPeak))
	ActiveTransitions.WithLabelValues(sceneName).Set(float64(stats.ActiveTransitions))
	Actors.WithLabelValues(sceneName).Set(float64(stats.Actors))
	TicksTotal.WithLabelValues(sceneName).Inc()
	EventsTotal.WithLabelValues(sceneName).Add(float64(stats.Events))
}

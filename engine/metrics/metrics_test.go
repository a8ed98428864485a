package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/scene"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpdatesCollectors(t *testing.T) {
	stats := scene.Stats{Actors: 3, PosePoolInUse: 2, PosePoolPeak: 5, ActiveTransitions: 1, Events: 4, Elapsed: time.Millisecond}
	Observe("observe", stats)
	Observe("observe", stats)

	assert.Equal(t, float64(2), testutil.ToFloat64(TicksTotal.WithLabelValues("observe")))
	assert.Equal(t, float64(8), testutil.ToFloat64(EventsTotal.WithLabelValues("observe")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ActiveTransitions.WithLabelValues("observe")))
	assert.Equal(t, float64(5), testutil.ToFloat64(PosePoolPeak.WithLabelValues("observe")))
	assert.Equal(t, float64(3), testutil.ToFloat64(Actors.WithLabelValues("observe")))
}

func TestHandlerServesCollectors(t *testing.T) {
	Observe("served", scene.Stats{PosePoolInUse: 7})

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `oxy_anim_pose_pool_in_use{scene="served"} 7`), body)
	assert.Contains(t, body, "oxy_anim_tick_duration_seconds_bucket")
}

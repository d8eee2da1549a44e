package scheduler

import (
	"context"
	"runtime"

	"github.com/okian/spotrank/pkg/metrics"
)

// SystemMetricsJob samples runtime memory, goroutine and GC figures.
func SystemMetricsJob(spec string) Job {
	var lastPauseNs uint64
	return Job{
		Name: "system-metrics",
		Spec: spec,
		Run: func(context.Context) {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
			if m.PauseTotalNs > lastPauseNs {
				metrics.RecordSystemGCPauseTime(float64(m.PauseTotalNs-lastPauseNs) / 1e6)
				lastPauseNs = m.PauseTotalNs
			}
		},
	}
}

// Refresher publishes gauges that are computed on demand.
type Refresher interface {
	RefreshMetrics(ctx context.Context)
}

// RefreshJob calls r.RefreshMetrics on schedule.
func RefreshJob(spec string, r Refresher) Job {
	return Job{Name: "service-metrics", Spec: spec, Run: r.RefreshMetrics}
}

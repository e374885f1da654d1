package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	consumedLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jord_consumed_lines_total",
		Help: "The number of log lines consumed.",
	})

	acceptedPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jord_accepted_points_total",
		Help: "The number of hit points accepted by the spacing rule.",
	})

	rejectedPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jord_rejected_points_total",
		Help: "The number of hit points rejected as too close to an existing point.",
	})

	ingestedRays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jord_ingested_rays_total",
		Help: "The number of miss rays ingested.",
	})

	databaseSaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jord_database_saves_total",
		Help: "The number of database saves.",
	})
)

func instrumentLine() {
	consumedLines.Inc()
}

func instrumentFlush(accepted, rejected, rays int) {
	acceptedPoints.Add(float64(accepted))
	rejectedPoints.Add(float64(rejected))
	ingestedRays.Add(float64(rays))
}

func instrumentSave() {
	databaseSaves.Inc()
}

package carver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	carvedTriangles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jord_carved_triangles_total",
		Help: "The number of triangles removed by miss rays.",
	})
)

func instrumentCarvedTriangle() {
	carvedTriangles.Inc()
}

package metrics

import (
	"strconv"
	"time"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferry_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status"},
	)

	PipelineRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ferry_pipeline_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ferry_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"stage"},
	)

	RecordsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferry_records_dropped_total",
			Help: "Input records dropped, by reason",
		},
		[]string{"reason"},
	)

	Inconsistencies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferry_inconsistencies_total",
			Help: "Tolerated input inconsistencies, by kind",
		},
		[]string{"kind"},
	)

	Ambiguities = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferry_ambiguous_resolutions_total",
			Help: "Ambiguous resolutions settled by a tie-break, by kind",
		},
		[]string{"kind"},
	)

	SeasonsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ferry_seasons_skipped_total",
			Help: "Seasons skipped because their data was missing",
		},
	)

	EntitiesResolved = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ferry_entities_resolved",
			Help: "Entities produced by the latest successful run",
		},
		[]string{"entity"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ferry_http_requests_total",
			Help: "Total HTTP requests to the operations API",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ferry_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		PipelineRunsTotal,
		PipelineRunDuration,
		StageDuration,
		RecordsDropped,
		Inconsistencies,
		Ambiguities,
		SeasonsSkipped,
		EntitiesResolved,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, started time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// ObserveReport folds the counters of a finished run into the collectors.
func ObserveReport(r *models.Report) {
	for reason, n := range r.Dropped {
		RecordsDropped.WithLabelValues(reason).Add(float64(n))
	}
	for kind, n := range r.Inconsistent {
		Inconsistencies.WithLabelValues(kind).Add(float64(n))
	}
	for kind, n := range r.Ambiguous {
		Ambiguities.WithLabelValues(kind).Add(float64(n))
	}
	SeasonsSkipped.Add(float64(len(r.SkippedSeasons)))

	EntitiesResolved.WithLabelValues("seasons").Set(float64(r.Seasons))
	EntitiesResolved.WithLabelValues("listings").Set(float64(r.Listings))
	EntitiesResolved.WithLabelValues("courses").Set(float64(r.Courses))
	EntitiesResolved.WithLabelValues("professors").Set(float64(r.Professors))
	EntitiesResolved.WithLabelValues("same_course_groups").Set(float64(r.SameCourseGroups))
	EntitiesResolved.WithLabelValues("same_course_and_profs_groups").Set(float64(r.SameCourseProfs))

	PipelineRunDuration.Observe(float64(r.DurationMillis) / 1000)
}

// ObserveRun counts a finished run by outcome.
func ObserveRun(status models.RunStatus) {
	PipelineRunsTotal.WithLabelValues(string(status)).Inc()
}

// Handler exposes the default registry for gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Middleware records request counts and latencies per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts quiz activity. It satisfies app.Metrics.
type Collector struct {
	registry *prometheus.Registry

	uploads   *prometheus.CounterVec
	started   prometheus.Counter
	answers   *prometheus.CounterVec
	completed prometheus.Counter
	score     prometheus.Histogram
}

// New registers the quiz collectors on a fresh registry alongside the Go and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizmaster",
			Name:      "uploads_total",
			Help:      "Question set uploads by outcome.",
		}, []string{"outcome"}),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizmaster",
			Name:      "sessions_started_total",
			Help:      "Quiz sessions started, including retakes.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quizmaster",
			Name:      "answers_total",
			Help:      "Submitted answers by correctness.",
		}, []string{"correct"}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quizmaster",
			Name:      "sessions_completed_total",
			Help:      "Quiz sessions that reached the results screen.",
		}),
		score: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quizmaster",
			Name:      "result_percentage",
			Help:      "Distribution of completed quiz percentages.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
	}
	reg.MustRegister(
		c.uploads, c.started, c.answers, c.completed, c.score,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) UploadAccepted() { c.uploads.WithLabelValues("accepted").Inc() }
func (c *Collector) UploadRejected() { c.uploads.WithLabelValues("rejected").Inc() }
func (c *Collector) SessionStarted() { c.started.Inc() }

func (c *Collector) AnswerSubmitted(correct bool) {
	label := "false"
	if correct {
		label = "true"
	}
	c.answers.WithLabelValues(label).Inc()
}

func (c *Collector) SessionCompleted(percentage int) {
	c.completed.Inc()
	c.score.Observe(float64(percentage))
}

// Handler exposes the registry in the prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

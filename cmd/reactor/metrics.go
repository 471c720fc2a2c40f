package main

import (
	"strconv"

	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics holds the Prometheus metrics the server exports.
type serverMetrics struct {
	Steps          *prometheus.CounterVec
	Completions    *prometheus.CounterVec
	VolumeRequests *prometheus.CounterVec
	RequestErrors  *prometheus.CounterVec
}

// newMetrics creates the server metrics and registers them with
// reg.
func newMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)
	return &serverMetrics{
		Steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reactor_steps_total",
			Help: "Instructions consumed by session reactors",
		}, []string{"mode", "applied"}),
		Completions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reactor_procedures_completed_total",
			Help: "Procedures stepped through to the end",
		}, []string{"mode"}),
		VolumeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reactor_volume_requests_total",
			Help: "Stateless volume computations, by outcome",
		}, []string{"outcome"}),
		RequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reactor_request_errors_total",
			Help: "API requests answered with an error, by endpoint",
		}, []string{"endpoint"}),
	}
}

func (m *serverMetrics) recordStep(u *reactor.Update) {
	m.Steps.WithLabelValues(u.State.Mode, strconv.FormatBool(u.Applied)).Inc()
	if u.State.Done {
		m.Completions.WithLabelValues(u.State.Mode).Inc()
	}
}

func (m *serverMetrics) recordVolumes(err error) {
	if err != nil {
		m.VolumeRequests.WithLabelValues("error").Inc()
		return
	}
	m.VolumeRequests.WithLabelValues("ok").Inc()
}

func (m *serverMetrics) recordError(endpoint string) {
	m.RequestErrors.WithLabelValues(endpoint).Inc()
}

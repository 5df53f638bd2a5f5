package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boost_game_sessions_started_total",
			Help: "Boost game sessions that entered RUNNING",
		},
		[]string{"game_type"},
	)
	SessionResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boost_game_results_total",
			Help: "Terminal session results by category",
		},
		[]string{"game_type", "result"},
	)
	SubmissionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boost_game_submission_failures_total",
			Help: "Sessions that ended FAILED, by reason",
		},
		[]string{"reason"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "boost_game_active_sessions",
			Help: "Sessions opened and not yet closed",
		},
	)
	ConfigErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "boost_game_config_errors_total",
			Help: "Sessions that could not start because of invalid game parameters",
		},
	)
)

func init() {
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SessionResults)
	prometheus.MustRegister(SubmissionFailures)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(ConfigErrors)
}

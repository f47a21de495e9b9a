package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var prometheusHomeViewsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "home_views_total",
	Help: "Total number of homepage views",
})

var prometheusConnCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "conn_created_total",
	Help: "Total number of created connections",
})

var prometheusConnRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "conn_removed_total",
	Help: "Total number of removed connections",
})

var prometheusConnActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "conn_active",
	Help: "Total number of active connections",
})

var prometheusConnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "conn_duration_seconds",
	Help: "Duration of connections",
})

var prometheusConnActionsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "conn_actions_total",
	Help: "Total number of applied connection actions",
})

var prometheusConnActionsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "conn_actions_rejected_total",
	Help: "Total number of rejected connection actions",
})

var prometheusConnTransitionsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "conn_transitions_total",
	Help: "Total number of connection state transitions",
})

var prometheusWSConnTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ws_conn_total",
	Help: "Total number of opened websocket connections",
})

var prometheusWSConnActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "ws_conn_active",
	Help: "Total number of active websocket connections",
})

var prometheusWSConnErrTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ws_conn_err_total",
	Help: "Total number of errored out websocket connections",
})

var prometheusWSConnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "ws_conn_duration_seconds",
	Help: "Duration of websocket connections",
})

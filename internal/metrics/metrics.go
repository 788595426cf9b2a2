// Package metrics holds Prometheus instruments used across the site
// builder. All collectors are registered with the global registry, so
// importing this package is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DeploymentsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebuilder_deployments_submitted_total",
			Help: "Deployments accepted by the controller, by trigger.",
		}, []string{"trigger"})

	DeploymentsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebuilder_deployments_resolved_total",
			Help: "Deployments that reached a terminal status.",
		}, []string{"status"})

	DeploymentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebuilder_deployment_failures_total",
			Help: "Failed deployments, by error code.",
		}, []string{"code"})

	DeploymentsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitebuilder_deployments_in_flight",
			Help: "Deployments currently waiting on a hosting provider.",
		})

	DeploymentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitebuilder_deployment_duration_seconds",
			Help:    "Time from submit to resolution.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		})

	LateResultsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sitebuilder_deploy_late_results_dropped_total",
			Help: "Adapter results that arrived after the deployment timed out.",
		})

	DomainTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebuilder_domain_ssl_transitions_total",
			Help: "Custom domain SSL status changes.",
		}, []string{"status"})

	PreviewRenders = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sitebuilder_preview_renders_total",
			Help: "Preview trees rendered through the API.",
		})

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebuilder_http_requests_total",
			Help: "HTTP requests served, by method and status code.",
		}, []string{"method", "code"})
)

func init() {
	prometheus.MustRegister(
		DeploymentsSubmitted,
		DeploymentsResolved,
		DeploymentFailures,
		DeploymentsInFlight,
		DeploymentDuration,
		LateResultsDropped,
		DomainTransitions,
		PreviewRenders,
		HTTPRequests,
	)
}

// Package metrics exposes Prometheus counters for HTTP traffic and for the
// borrow lifecycle.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shelfwise/shelfwise/pkg/errcodes"
)

// Borrow transitions, used as the transition label.
const (
	TransitionBorrow  = "borrow"
	TransitionRequest = "request"
	TransitionApprove = "approve"
	TransitionReject  = "reject"
	TransitionReturn  = "return"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfwise_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shelfwise_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	borrowTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfwise_borrow_transitions_total",
		Help: "Borrow lifecycle transitions by transition and outcome",
	}, []string{"transition", "outcome"})

	finesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelfwise_fines_total",
		Help: "Sum of fines charged on returns",
	})
)

// RecordTransition counts a borrow transition. err decides the outcome label.
func RecordTransition(transition string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	borrowTransitionsTotal.WithLabelValues(transition, outcome).Inc()
}

// RecordFine adds a charged fine to the running total.
func RecordFine(amount float64) {
	if amount > 0 {
		finesTotal.Add(amount)
	}
}

// Middleware records the count and latency of every request. Routes are
// labeled by their registered path so that IDs don't explode cardinality.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request().Method

		timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(method, route))
		err := next(c)
		timer.ObserveDuration()

		status := c.Response().Status
		if err != nil {
			// The error handler hasn't written the response yet.
			status = statusFromError(err)
		}
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()

		return err
	}
}

func statusFromError(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	var e *errcodes.Error
	if errors.As(err, &e) {
		return e.HTTPCode
	}
	return http.StatusInternalServerError
}

// RegisterRoutes mounts the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

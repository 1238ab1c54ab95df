package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/example/ride-sharing/internal/models"
)

var (
	RidesCreated   = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "ride_sharing", Name: "rides_created_total", Help: "Rides linked to a driver and rider, by type"}, []string{"type"})
	RidesDiscarded = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_sharing", Name: "rides_discarded_total", Help: "Rides built without both a driver and a rider"})
	FareTotal      = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "ride_sharing", Name: "fare_total", Help: "Sum of fares of linked rides, by type"}, []string{"type"})
	DriversTotal   = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_sharing", Name: "drivers", Help: "Number of registered drivers"})
	RidersTotal    = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_sharing", Name: "riders", Help: "Number of registered riders"})
	RatingUpdates  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_sharing", Name: "driver_rating_updates_total", Help: "Accepted driver rating updates"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_sharing", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_sharing",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// RegistryMetrics turns registry events into the metrics above.
type RegistryMetrics struct{}

func (RegistryMetrics) Observe(e models.Event) {
	switch e.Kind {
	case models.EventDriverAdded:
		DriversTotal.Inc()
	case models.EventRiderAdded:
		RidersTotal.Inc()
	case models.EventDriverRated:
		RatingUpdates.Inc()
	case models.EventRideDiscarded:
		RidesDiscarded.Inc()
	case models.EventRideCreated:
		if e.Ride == nil {
			return
		}
		t := string(e.Ride.Type)
		RidesCreated.WithLabelValues(t).Inc()
		// Counters reject negative increments; negative distances are accepted upstream.
		if e.Ride.Fare > 0 {
			FareTotal.WithLabelValues(t).Add(e.Ride.Fare)
		}
	}
}

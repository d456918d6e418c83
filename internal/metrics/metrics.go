// Package metrics holds the Prometheus collectors for booking activity.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "game_tables"

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_created_total",
			Help:      "Count of booking rows created by status.",
		},
		[]string{"status"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings moved to Cancelled.",
		},
	)

	bookingConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_confirmed_total",
			Help:      "Count of bookings confirmed by administrators.",
		},
	)

	reservationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_rejected_total",
			Help:      "Count of reservation commits rejected by reason.",
		},
		[]string{"reason"},
	)
)

// Register registers metrics with the default registry (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingCancelled, bookingConfirmed, reservationRejected)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncBookingConfirmed() {
	bookingConfirmed.Inc()
}

func IncReservationRejected(reason string) {
	reservationRejected.WithLabelValues(reason).Inc()
}

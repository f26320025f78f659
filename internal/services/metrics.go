package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters, registered on the default registry alongside the HTTP
// middleware metrics.
var (
	ordersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_orders_placed_total",
		Help: "Orders successfully created.",
	})

	stockConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_stock_conflicts_total",
		Help: "Order attempts refused because stock ran out.",
	})

	notificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_notification_failures_total",
		Help: "Payment-confirmation notifications that could not be delivered.",
	})
)

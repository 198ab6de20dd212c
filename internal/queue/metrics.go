package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planit_audit_events_published_total",
		Help: "Audit events handed to the transport successfully.",
	})
	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planit_audit_events_dropped_total",
		Help: "Audit events that were lost, by reason.",
	}, []string{"reason"})
	eventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planit_audit_events_consumed_total",
		Help: "Audit events processed by the consumer, by outcome.",
	}, []string{"outcome"})
)

package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inboundSMSReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_reader",
			Name:      "inbound_messages_received_total",
			Help:      "Total number of inbound SMS events received, by source.",
		},
		[]string{"source"},
	)

	smsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_reader",
			Name:      "sms_processed_total",
			Help:      "Total number of payment SMS processed.",
		},
		[]string{"provider", "status"}, // status: success, error, skipped
	)

	amountReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_reader",
			Name:      "amount_received_taka_total",
			Help:      "Sum of parsed amounts in taka, by provider.",
		},
		[]string{"provider"},
	)

	webhookDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sms_reader",
			Name:      "webhook_duration_seconds",
			Help:      "Duration of webhook notifications.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	logStoreErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_reader",
			Name:      "log_store_errors_total",
			Help:      "Log store failures by operation.",
		},
		[]string{"op"}, // read, write, clear
	)
)

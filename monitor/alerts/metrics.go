package alerts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NewAlertUnredeemedTickets = func(rollup string) *prometheus.GaugeVec {
		return promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "alert",
			Subsystem:   "retryables",
			Name:        "unredeemed_tickets",
			Help:        "Shows retryable tickets which stay created but not redeemed on L2 for too long. Value is the ticket age in seconds.",
			ConstLabels: prometheus.Labels{"rollup_id": rollup},
		}, []string{"chain_id", "block_number", "tx_hash", "message_index", "creation_id"})
	}
	NewAlertFailedTicketCreations = func(rollup string) *prometheus.GaugeVec {
		return promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "alert",
			Subsystem:   "retryables",
			Name:        "failed_ticket_creations",
			Help:        "Shows L1 messages for which the retryable ticket creation has failed on L2.",
			ConstLabels: prometheus.Labels{"rollup_id": rollup},
		}, []string{"chain_id", "block_number", "tx_hash", "message_index", "creation_id"})
	}
)

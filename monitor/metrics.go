package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatestHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "retryables",
		Subsystem: "inbox",
		Name:      "latest_head_block",
		Help:      "Shows the latest confirmed L1 head block for the rollup inbox. Logs up to this block are waiting to be fetched.",
	}, []string{"rollup_id", "chain_id", "address"})
	LatestFetchedBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "retryables",
		Subsystem: "inbox",
		Name:      "latest_fetched_block",
		Help:      "Shows the latest block for which the rollup inbox logs were fetched.",
	}, []string{"rollup_id", "chain_id", "address"})
	LatestProcessedBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "retryables",
		Subsystem: "inbox",
		Name:      "latest_processed_block",
		Help:      "Shows the latest block for which the rollup inbox logs were turned into tickets.",
	}, []string{"rollup_id", "chain_id", "address"})
	SyncedInbox = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "retryables",
		Subsystem: "inbox",
		Name:      "synced",
		Help:      "Shows 1 if the rollup inbox is considered as synced up to chain head.",
	}, []string{"rollup_id", "chain_id", "address"})
	DiscoveredTickets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryables",
		Subsystem: "tickets",
		Name:      "discovered_total",
		Help:      "Number of retryable tickets found in L1 inbox transactions.",
	}, []string{"rollup_id"})
	TicketStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryables",
		Subsystem: "tickets",
		Name:      "status_transitions_total",
		Help:      "Number of observed ticket status changes.",
	}, []string{"rollup_id", "from", "to"})
	RedeemAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retryables",
		Subsystem: "tickets",
		Name:      "redeem_attempts_total",
		Help:      "Number of redeem transactions submitted by the auto-redeemer.",
	}, []string{"rollup_id", "result"})
)

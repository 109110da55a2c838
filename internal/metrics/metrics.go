// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuffersAllocated tracks currently allocated buffers per tier.
	BuffersAllocated = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netkit_buffers_allocated",
			Help: "Number of currently allocated packet buffers",
		},
		[]string{"tier"},
	)

	// BufferAllocFailures counts allocation attempts that failed because a
	// tier was exhausted.
	BufferAllocFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netkit_buffer_alloc_failures_total",
			Help: "Total number of failed buffer allocations",
		},
		[]string{"tier"},
	)

	// BufferUtilization tracks per-tier utilization in percent.
	BufferUtilization = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netkit_buffer_utilization_percent",
			Help: "Pool utilization per tier (allocated/total, 0-100)",
		},
		[]string{"tier"},
	)

	// UDPBindings tracks the number of registered UDP bindings.
	UDPBindings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netkit_udp_bindings",
			Help: "Number of registered UDP endpoint bindings",
		},
	)

	// UDPDatagramsDispatched counts inbound datagrams delivered to a binding.
	UDPDatagramsDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netkit_udp_datagrams_dispatched_total",
			Help: "Total inbound UDP datagrams matched to a binding",
		},
	)

	// UDPDatagramsUnmatched counts inbound datagrams that matched no binding.
	UDPDatagramsUnmatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netkit_udp_datagrams_unmatched_total",
			Help: "Total inbound UDP datagrams that matched no binding",
		},
	)

	// UDPReceiveDrops counts datagrams dropped because a binding's receive
	// queue was full.
	UDPReceiveDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netkit_udp_receive_drops_total",
			Help: "Total datagrams dropped due to a full binding receive queue",
		},
	)

	// LinkFramesIngested counts frames handed in by the link driver, by
	// outcome (dispatched, unmatched, skipped, malformed).
	LinkFramesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netkit_link_frames_ingested_total",
			Help: "Total link-layer frames processed by the ingest path",
		},
		[]string{"outcome"},
	)
)

package base

import (
	"github.com/VictoriaMetrics/metrics"
)

// Transport counters, exported through the default VictoriaMetrics set.
var (
	metricConnectAttempts = metrics.NewCounter(`dipc_connect_attempts_total`)
	metricConnectFailures = metrics.NewCounter(`dipc_connect_failures_total`)

	metricMessagesSent     = metrics.NewCounter(`dipc_messages_sent_total`)
	metricMessagesReceived = metrics.NewCounter(`dipc_messages_received_total`)
	metricBytesSent        = metrics.NewCounter(`dipc_bytes_sent_total`)
	metricBytesReceived    = metrics.NewCounter(`dipc_bytes_received_total`)

	// sends that never made it onto the wire: write failures and
	// fire-and-forget requests dropped during teardown
	metricSendFailures = metrics.NewCounter(`dipc_send_failures_total`)
)

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brokerclient/go-consumer/consumer"
)

var (
	consumerMsgsReceivedTotal *prometheus.CounterVec
	consumerBytesReceivedTotal *prometheus.CounterVec
	consumerAcksSentTotal     *prometheus.CounterVec
	consumerReceiveFailedTotal *prometheus.CounterVec
	consumerBatchReceiveFailedTotal *prometheus.CounterVec
)

func registerConsumerMetrics() {
	consumerMsgsReceivedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_received_total",
		Help: "Number of messages delivered to the application",
	}, []string{"subscription"})
	consumerBytesReceivedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_bytes_received_total",
		Help: "Payload bytes delivered to the application",
	}, []string{"subscription"})
	consumerAcksSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_acks_sent_total",
		Help: "Acknowledgements sent to the broker",
	}, []string{"subscription"})
	consumerReceiveFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_receive_failed_total",
		Help: "Receive calls that returned an error",
	}, []string{"subscription"})
	consumerBatchReceiveFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_batch_receive_failed_total",
		Help: "BatchReceive calls that returned an error",
	}, []string{"subscription"})
	prometheus.MustRegister(
		consumerMsgsReceivedTotal,
		consumerBytesReceivedTotal,
		consumerAcksSentTotal,
		consumerReceiveFailedTotal,
		consumerBatchReceiveFailedTotal,
	)
}

// ConsumerStatsRecorder implements consumer.StatsRecorder over the
// prometheus counters above, the domain-specific sibling of the gateway's
// opsTotal/errorsTotal counters in this same package.
type ConsumerStatsRecorder struct {
	subscription string
}

// NewConsumerStatsRecorder returns a recorder labelled with subscription; it
// registers nothing itself. The counters are registered once by Init when
// metrics are enabled, and every recorder method is a no-op otherwise.
func NewConsumerStatsRecorder(subscription string) *ConsumerStatsRecorder {
	return &ConsumerStatsRecorder{subscription: subscription}
}

func (r *ConsumerStatsRecorder) IncMsgsReceived(bytes int) {
	if !MetricsEnabled() {
		return
	}
	consumerMsgsReceivedTotal.WithLabelValues(r.subscription).Inc()
	consumerBytesReceivedTotal.WithLabelValues(r.subscription).Add(float64(bytes))
}

func (r *ConsumerStatsRecorder) IncAcksSent() {
	if !MetricsEnabled() {
		return
	}
	consumerAcksSentTotal.WithLabelValues(r.subscription).Inc()
}

func (r *ConsumerStatsRecorder) IncReceiveFailed() {
	if !MetricsEnabled() {
		return
	}
	consumerReceiveFailedTotal.WithLabelValues(r.subscription).Inc()
}

func (r *ConsumerStatsRecorder) IncBatchReceiveFailed() {
	if !MetricsEnabled() {
		return
	}
	consumerBatchReceiveFailedTotal.WithLabelValues(r.subscription).Inc()
}

var _ consumer.StatsRecorder = (*ConsumerStatsRecorder)(nil)

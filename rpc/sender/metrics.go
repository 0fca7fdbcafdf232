package sender

import (
	"github.com/VictoriaMetrics/metrics"
	"io"
)

// senderMetrics holds the counters of one sender. Every sender has its own
// metrics.Set, so several senders can live in one process.
type senderMetrics struct {
	set *metrics.Set

	submittedSend    *metrics.Counter
	submittedRequest *metrics.Counter
	rejected         *metrics.Counter

	serializeFailures *metrics.Counter
	connectFailures   *metrics.Counter
	sendFailures      *metrics.Counter
	requestFailures   *metrics.Counter

	responsesOk        *metrics.Counter
	responsesFailed    *metrics.Counter
	responsesMalformed *metrics.Counter

	retries      *metrics.Counter
	retryDropped *metrics.Counter
	retryCycles  *metrics.Counter
}

func newSenderMetrics() *senderMetrics {
	set := metrics.NewSet()
	return &senderMetrics{
		set: set,

		submittedSend:    set.NewCounter(`dsend_sender_submitted_total{kind="send"}`),
		submittedRequest: set.NewCounter(`dsend_sender_submitted_total{kind="request"}`),
		rejected:         set.NewCounter(`dsend_sender_rejected_total`),

		serializeFailures: set.NewCounter(`dsend_sender_serialize_failures_total`),
		connectFailures:   set.NewCounter(`dsend_sender_connect_failures_total`),
		sendFailures:      set.NewCounter(`dsend_sender_send_failures_total`),
		requestFailures:   set.NewCounter(`dsend_sender_request_failures_total`),

		responsesOk:        set.NewCounter(`dsend_sender_responses_total{result="ok"}`),
		responsesFailed:    set.NewCounter(`dsend_sender_responses_total{result="failed"}`),
		responsesMalformed: set.NewCounter(`dsend_sender_responses_total{result="malformed"}`),

		retries:      set.NewCounter(`dsend_sender_retries_total`),
		retryDropped: set.NewCounter(`dsend_sender_retry_dropped_total`),
		retryCycles:  set.NewCounter(`dsend_sender_retry_cycles_total`),
	}
}

// pipelineStats is the read side of the send pipeline
type pipelineStats interface {
	Len() int
	Dispatched() uint64
	Dropped() uint64
	Panics() uint64
	Abandoned() uint64
}

// registerGauges adds gauges that read the current queue lengths and pipeline counters
func (m *senderMetrics) registerGauges(pipeline pipelineStats, retryQueueLen func() int, connected func() bool) {
	m.set.NewGauge(`dsend_sender_pipeline_queue_length`, func() float64 {
		return float64(pipeline.Len())
	})
	for state, read := range map[string]func() uint64{
		"dispatched": pipeline.Dispatched,
		"dropped":    pipeline.Dropped,
		"panicked":   pipeline.Panics,
		"abandoned":  pipeline.Abandoned,
	} {
		state, read := state, read
		m.set.NewGauge(`dsend_sender_pipeline_items{state="`+state+`"}`, func() float64 {
			return float64(read())
		})
	}
	m.set.NewGauge(`dsend_sender_retry_queue_length`, func() float64 {
		return float64(retryQueueLen())
	})
	m.set.NewGauge(`dsend_sender_connected`, func() float64 {
		if connected() {
			return 1
		}
		return 0
	})
}

func (m *senderMetrics) writePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

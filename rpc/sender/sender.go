package sender

import (
	"fmt"
	"github.com/ValentinKolb/dSend/lib/executor"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/ValentinKolb/dSend/rpc/serializer"
	"github.com/ValentinKolb/dSend/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"sync"
)

var Logger = logger.GetLogger("sender")

// executorName is the name of the pipeline in log lines
const executorName = "dsend-data-executor"

// IDataSender accepts messages for a collector without ever blocking the caller.
// All methods are safe for concurrent use.
type IDataSender interface {
	// Send enqueues a fire-and-forget message.
	// It returns false if the pipeline is full or the sender is stopped.
	Send(msg *common.Message) bool
	// Request enqueues a message that expects a Result from the collector,
	// with the configured default retry budget.
	Request(msg *common.Message) bool
	// RequestWithRetry is Request with an explicit retry budget
	RequestWithRetry(msg *common.Message, retryCount int) bool
	// Stop stops the pipeline, closes the connection and releases the transport.
	// Messages still queued are abandoned. Stop is idempotent.
	Stop()
	// WriteMetrics writes the sender metrics in Prometheus text format
	WriteMetrics(w io.Writer)
}

// dataSender implements IDataSender
type dataSender struct {
	config     common.ClientConfig
	serializer serializer.IRPCSerializer
	conn       *connectionManager
	pipeline   *executor.AsyncQueueingExecutor[outboundMessage]
	retries    *retryScheduler
	metrics    *senderMetrics
	stopOnce   sync.Once
}

// NewDataSender creates a sender and connects it to config.Endpoint.
// Connecting never fails: if the synchronous attempts fail the sender keeps
// connecting in the background and accepts messages in the meantime.
// An error is only returned for an invalid configuration.
//
// Usage:
//
//	config := common.DefaultClientConfig("localhost:9994")
//	s, err := sender.NewDataSender(config, tcp.NewTCPClientTransport(config), serializer.NewBinarySerializer())
//	if err != nil {
//		panic(err)
//	}
//	defer s.Stop()
//
//	s.Send(common.NewSpanMessage("agent-1", span))
//	s.Request(common.NewAgentInfoMessage("agent-1", info))
func NewDataSender(config common.ClientConfig, t transport.IRPCClientTransport, s serializer.IRPCSerializer) (IDataSender, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sender config: %w", err)
	}
	if t == nil || s == nil {
		return nil, fmt.Errorf("transport and serializer must not be nil")
	}

	Logger.Debugf("creating data sender:%s", config.String())

	ds := &dataSender{
		config:     config,
		serializer: serializer.NewBoundedSerializer(s, config.MaxPacketSize),
		metrics:    newSenderMetrics(),
	}

	pipeline, err := executor.NewAsyncQueueingExecutor(executorName, config.QueueSize, ds.sendPacket)
	if err != nil {
		return nil, err
	}
	ds.pipeline = pipeline

	ds.conn = newConnectionManager(t, config.Endpoint, config.ConnectRetryCount, ds.metrics)
	ds.retries = newRetryScheduler(
		config.RetryDelay(),
		ds.conn.newTimeout,
		ds.doRequest,
		ds.metrics,
	)
	ds.metrics.registerGauges(ds.pipeline, ds.retries.queue.len, ds.conn.conn.IsConnected)

	ds.pipeline.Start()
	return ds, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see sender.IDataSender)
// --------------------------------------------------------------------------

func (ds *dataSender) Send(msg *common.Message) bool {
	if msg == nil {
		return false
	}
	return ds.enqueue(newSendMessage(msg), ds.metrics.submittedSend.Inc)
}

func (ds *dataSender) Request(msg *common.Message) bool {
	return ds.RequestWithRetry(msg, ds.config.RetryCount)
}

func (ds *dataSender) RequestWithRetry(msg *common.Message, retryCount int) bool {
	if msg == nil {
		return false
	}
	return ds.enqueue(newRequestMessage(msg, retryCount), ds.metrics.submittedRequest.Inc)
}

func (ds *dataSender) Stop() {
	ds.stopOnce.Do(func() {
		Logger.Infof("stopping data sender for %s", ds.config.Endpoint)
		ds.pipeline.Stop()
		ds.conn.close()

		if n := ds.retries.queue.len(); n > 0 {
			Logger.Infof("%d request(s) still waiting for a retry", n)
		}
	})
}

func (ds *dataSender) WriteMetrics(w io.Writer) {
	ds.metrics.writePrometheus(w)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (ds *dataSender) enqueue(m outboundMessage, onAccept func()) bool {
	if !ds.pipeline.Execute(m) {
		ds.metrics.rejected.Inc()
		return false
	}
	onAccept()
	return true
}

// sendPacket is the pipeline listener, it runs on the single consumer goroutine
func (ds *dataSender) sendPacket(m outboundMessage) {
	packet, err := ds.serializer.Serialize(*m.msg)
	if err != nil {
		ds.metrics.serializeFailures.Inc()
		Logger.Errorf("failed to serialize %s %s message, dropped: %v", m.msg.MsgType, m.kind, err)
		return
	}

	switch m.kind {
	case kindSend:
		ds.conn.sendAsync(packet)
	case kindRequest:
		ds.doRequest(packet, m.retryCount, m.msg.MsgType.String())
	}
}

// doRequest writes a request and hands failures to the retry scheduler.
// The listener runs on a transport goroutine (or inline if the request failed immediately).
func (ds *dataSender) doRequest(packet []byte, retryCount int, msgType string) {
	ds.conn.request(packet).OnComplete(func(f *transport.Future[[]byte]) {
		if !f.IsSuccess() {
			ds.metrics.requestFailures.Inc()
			Logger.Debugf("%s request failed: %v", msgType, f.Cause())
			ds.retries.retry(packet, retryCount, msgType)
			return
		}

		var resp common.Message
		if err := ds.serializer.Deserialize(f.Result(), &resp); err != nil {
			ds.metrics.responsesMalformed.Inc()
			Logger.Warningf("malformed response to %s request: %v", msgType, err)
			return
		}

		// anything but a Result points at a protocol problem a retry cannot fix
		if resp.MsgType != common.MsgTResult {
			ds.metrics.responsesMalformed.Inc()
			Logger.Warningf("unexpected %s response to %s request: %s", resp.MsgType, msgType, resp.Err)
			return
		}

		if resp.Ok {
			ds.metrics.responsesOk.Inc()
			Logger.Debugf("%s request succeeded", msgType)
			return
		}

		ds.metrics.responsesFailed.Inc()
		Logger.Infof("%s request rejected by collector (%s), %d retries left", msgType, resp.Err, retryCount)
		ds.retries.retry(packet, retryCount, msgType)
	})
}

package sender

import "github.com/ValentinKolb/dSend/rpc/common"

// outboundKind tells the pipeline consumer how to dispatch a message
type outboundKind uint8

const (
	kindSend    outboundKind = iota // fire-and-forget, never retried
	kindRequest                     // expects a Result, retried on failure
)

func (k outboundKind) String() string {
	if k == kindRequest {
		return "request"
	}
	return "send"
}

// outboundMessage is one item of the async queueing pipeline
type outboundMessage struct {
	kind       outboundKind
	msg        *common.Message
	retryCount int // only used for kindRequest
}

func newSendMessage(msg *common.Message) outboundMessage {
	return outboundMessage{kind: kindSend, msg: msg}
}

func newRequestMessage(msg *common.Message, retryCount int) outboundMessage {
	return outboundMessage{kind: kindRequest, msg: msg, retryCount: retryCount}
}

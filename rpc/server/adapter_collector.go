package server

import (
	"fmt"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/puzpuzpuz/xsync/v3"
	"sort"
	"strings"
	"sync/atomic"
)

// NewCollectorAdapter creates an adapter that accepts every data message and
// counts it per type. Requests are acknowledged with a successful Result,
// except every rejectEvery-th request which gets a failed Result (0 = never).
func NewCollectorAdapter(rejectEvery int) *CollectorAdapter {
	return &CollectorAdapter{
		rejectEvery: uint64(max(rejectEvery, 0)),
		received:    xsync.NewMapOf[common.MessageType, *xsync.Counter](),
	}
}

// CollectorAdapter implements IRPCServerAdapter for a collector of agent data
type CollectorAdapter struct {
	rejectEvery uint64
	requests    atomic.Uint64
	rejected    atomic.Uint64
	received    *xsync.MapOf[common.MessageType, *xsync.Counter]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see server.IRPCServerAdapter)
// --------------------------------------------------------------------------

func (a *CollectorAdapter) Handle(req *common.Message) *common.Message {
	if req.MsgType.IsResponse() || req.MsgType == common.MsgTUnknown {
		return common.NewErrorResponse(fmt.Sprintf("collector: unsupported message type: %s", req.MsgType))
	}

	n := a.requests.Add(1)
	if a.rejectEvery > 0 && n%a.rejectEvery == 0 {
		a.rejected.Add(1)
		Logger.Debugf("rejecting %s request #%d (key=%q)", req.MsgType, n, req.Key)
		return common.NewResultResponse(false, fmt.Errorf("request %d rejected", n))
	}

	a.count(req.MsgType)
	return common.NewResultResponse(true, nil)
}

func (a *CollectorAdapter) HandleOneway(msg *common.Message) {
	if msg.MsgType.IsResponse() || msg.MsgType == common.MsgTUnknown {
		Logger.Warningf("collector: ignoring oneway %s message", msg.MsgType)
		return
	}
	a.count(msg.MsgType)
}

// --------------------------------------------------------------------------
// Statistics
// --------------------------------------------------------------------------

// Received returns the number of accepted messages of the given type
func (a *CollectorAdapter) Received(t common.MessageType) int64 {
	if c, ok := a.received.Load(t); ok {
		return c.Value()
	}
	return 0
}

// Requests returns the number of requests handled (accepted and rejected)
func (a *CollectorAdapter) Requests() uint64 {
	return a.requests.Load()
}

// Rejected returns the number of requests answered with a failed Result
func (a *CollectorAdapter) Rejected() uint64 {
	return a.rejected.Load()
}

// String returns a one line summary like "span=10 stat=3 (requests=4, rejected=1)"
func (a *CollectorAdapter) String() string {
	var parts []string
	a.received.Range(func(t common.MessageType, c *xsync.Counter) bool {
		parts = append(parts, fmt.Sprintf("%s=%d", t, c.Value()))
		return true
	})
	sort.Strings(parts)
	return fmt.Sprintf("%s (requests=%d, rejected=%d)", strings.Join(parts, " "), a.Requests(), a.Rejected())
}

func (a *CollectorAdapter) count(t common.MessageType) {
	c, _ := a.received.LoadOrCompute(t, xsync.NewCounter)
	c.Inc()
}

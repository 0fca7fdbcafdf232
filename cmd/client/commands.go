package client

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"time"
)

var (
	sendCmd = &cobra.Command{
		Use:   "send [type] [value] [key]",
		Short: "Sends a fire-and-forget message (type: span, stat, agentInfo, metaData, custom)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := buildMessage(args)
			if err != nil {
				return err
			}
			if !dataSender.Send(msg) {
				return fmt.Errorf("message rejected, send queue is full")
			}
			fmt.Printf("%s message queued (key=%s)\n", msg.MsgType, msg.Key)
			return nil
		},
	}
	requestCmd = &cobra.Command{
		Use:   "request [type] [value] [key]",
		Short: "Sends a message that the collector acknowledges, failed requests are retried",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := buildMessage(args)
			if err != nil {
				return err
			}
			if !dataSender.Request(msg) {
				return fmt.Errorf("request rejected, send queue is full")
			}
			fmt.Printf("%s request queued (key=%s)\n", msg.MsgType, msg.Key)
			return nil
		},
	}
)

// buildMessage creates a message from [type] [value] [key]. A missing key is replaced by a random uuid.
func buildMessage(args []string) (*common.Message, error) {
	msgType, err := parseMessageType(args[0])
	if err != nil {
		return nil, err
	}

	key := uuid.NewString()
	if len(args) > 2 {
		key = args[2]
	}

	return &common.Message{
		MsgType:   msgType,
		Key:       key,
		Timestamp: uint64(time.Now().UnixMilli()),
		Value:     []byte(args[1]),
	}, nil
}

// parseMessageType accepts the names used in the json encoding of message types
func parseMessageType(name string) (common.MessageType, error) {
	var t common.MessageType
	quoted, _ := json.Marshal(name)
	if err := t.UnmarshalJSON(quoted); err != nil {
		return common.MsgTUnknown, err
	}
	if t == common.MsgTUnknown || t.IsResponse() {
		return common.MsgTUnknown, fmt.Errorf("%s messages can not be sent by a client", t)
	}
	return t, nil
}

package client

import (
	"fmt"
	"github.com/ValentinKolb/dSend/cmd/util"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/ValentinKolb/dSend/rpc/sender"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"time"
)

var (
	dataSender sender.IDataSender

	// ClientCommands represents the client command group
	ClientCommands = &cobra.Command{
		Use:                "client",
		Short:              "Send messages to a collector",
		Long:               `Build a data sender from flags and environment variables (DSEND_<flag>), submit messages, wait --linger seconds for queued messages and retries, then print the sender metrics.`,
		PersistentPreRunE:  setupSender,
		PersistentPostRunE: stopSender,
	}
)

func init() {
	// Add sender flags to the client command
	util.SetupSenderFlags(ClientCommands)

	key := "linger"
	ClientCommands.PersistentFlags().Int(key, -1, util.WrapString("Seconds to wait for queued messages and retries before the sender is stopped. A negative value waits long enough for every retry cycle: retries * (retry-delay + timeout) plus one second"))

	key = "metrics"
	ClientCommands.PersistentFlags().Bool(key, true, util.WrapString("Print the sender metrics after the sender is stopped"))

	// Add subcommands
	ClientCommands.AddCommand(sendCmd)
	ClientCommands.AddCommand(requestCmd)
	ClientCommands.AddCommand(perfTestCmd)
}

// setupSender creates the data sender used by all subcommands
func setupSender(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetClientConfig()
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return err
	}

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetClientTransport(config)
	if err != nil {
		return err
	}

	dataSender, err = sender.NewDataSender(config, t, s)
	return err
}

// stopSender lingers, stops the sender and prints its metrics
func stopSender(_ *cobra.Command, _ []string) error {
	if dataSender == nil {
		return nil
	}

	if linger := lingerDuration(viper.GetInt("linger"), util.GetClientConfig()); linger > 0 {
		time.Sleep(linger)
	}
	dataSender.Stop()

	if viper.GetBool("metrics") {
		fmt.Println()
		dataSender.WriteMetrics(os.Stdout)
	}
	return nil
}

// lingerDuration returns how long the client waits before stopping the sender.
// A negative linger is derived from the retry budget of a request.
func lingerDuration(linger int, config common.ClientConfig) time.Duration {
	if linger >= 0 {
		return time.Duration(linger) * time.Second
	}
	return time.Duration(config.RetryCount)*(config.RetryDelay()+config.Timeout()) + time.Second
}

package serve

import (
	"context"
	"fmt"
	cmdUtil "github.com/ValentinKolb/dSend/cmd/util"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/ValentinKolb/dSend/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start a dSend collector",
		Long:    `Start a collector that accepts the messages of data senders and counts them per type. The configuration can be set via command line flags or environment variables. The format of the environment variables is DSEND_<flag> (e.g. DSEND_REJECT_EVERY=3)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:9994", cmdUtil.WrapString("The address on which the collector will listen (e.g. localhost:9994, /tmp/dsend.sock, ...)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for writing a response"))

	key = "reject-every"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Answer every n-th request with a failed result so senders retry it (0 = never)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 4, cmdUtil.WrapString("Requests handled concurrently per connection"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("Size of the pooled read buffers (in KB)"))

	key = "stats-interval"
	ServeCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("Interval in seconds for printing the received message counts (0 = only on shutdown)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.RejectEvery = viper.GetInt("reject-every")
	serveCmdConfig.Transport.WorkersPerConn = viper.GetInt("workers-per-conn")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if serveCmdConfig.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if serveCmdConfig.RejectEvery < 0 {
		return fmt.Errorf("reject-every must not be negative")
	}

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the collector and blocks until it is interrupted
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport(viper.GetInt("buffer-size") * 1024)
	if err != nil {
		return err
	}

	adapter := server.NewCollectorAdapter(serveCmdConfig.RejectEvery)
	serv := server.NewRPCServer(*serveCmdConfig, t, s, adapter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if err := serv.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing collector: %v\n", err)
		}
	}()

	if interval := viper.GetInt("stats-interval"); interval > 0 {
		go printStats(ctx, adapter, time.Duration(interval)*time.Second)
	}

	if err := serv.Serve(); err != nil {
		return err
	}

	fmt.Printf("collector stopped: %s\n", adapter)
	return nil
}

func printStats(ctx context.Context, adapter *server.CollectorAdapter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Printf("received: %s\n", adapter)
		}
	}
}

package client

import (
	"context"
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dSend/cmd/util"
	"github.com/ValentinKolb/dSend/rpc/common"
	"github.com/google/uuid"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"os"
	"strconv"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dSend senders",
		Long:    "Submits messages from several goroutines as fast as possible (or at --rate) and reports how fast the sender accepts them and how many were rejected.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 10
	perfCount      = 10000
	perfRate       = 0
	perfValueSize  = 256
	perfMode       = "send"
)

func init() {
	// add flags
	key := "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines submitting messages"))
	key = "count"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Messages submitted per goroutine"))
	key = "rate"
	perfTestCmd.Flags().Int(key, 0, util.WrapString("Overall submit rate in messages per second (0 = unlimited)"))
	key = "value-size"
	perfTestCmd.Flags().Int(key, 256, util.WrapString("Size of the message payload (in bytes)"))
	key = "mode"
	perfTestCmd.Flags().String(key, "send", util.WrapString("What to submit: send (fire-and-forget spans), request (agent infos) or mixed (every 10th message is a request)"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfCount = viper.GetInt("count")
	perfRate = viper.GetInt("rate")
	perfValueSize = viper.GetInt("value-size")
	perfMode = viper.GetString("mode")

	switch perfMode {
	case "send", "request", "mixed":
	default:
		return fmt.Errorf("invalid mode %s (expected one of: send, request, mixed)", perfMode)
	}
	return nil
}

// perfResult holds the measurements of one perf run
type perfResult struct {
	submit   gometrics.Timer
	accepted gometrics.Meter
	rejected gometrics.Counter
	elapsed  time.Duration
}

func newPerfResult() *perfResult {
	return &perfResult{
		submit:   gometrics.NewTimer(),
		accepted: gometrics.NewMeter(),
		rejected: gometrics.NewCounter(),
	}
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for dSend senders")

	// Print configuration
	config := util.GetClientConfig()
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d, Messages per thread: %d, Mode: %s\n", perfNumThreads, perfCount, perfMode)
	fmt.Println()

	fmt.Println("starting test...")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if perfRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(perfRate), max(perfRate/10, 1))
	}

	result := newPerfResult()
	value := make([]byte, perfValueSize)
	agent := uuid.NewString()

	g, ctx := errgroup.WithContext(context.Background())
	start := time.Now()

	for i := 0; i < perfNumThreads; i++ {
		g.Go(func() error {
			for n := 0; n < perfCount; n++ {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}

				submitted := time.Now()
				var ok bool
				if perfMode == "request" || (perfMode == "mixed" && n%10 == 9) {
					ok = dataSender.Request(common.NewAgentInfoMessage(agent, value))
				} else {
					ok = dataSender.Send(common.NewSpanMessage(agent, value))
				}
				result.submit.UpdateSince(submitted)

				if ok {
					result.accepted.Mark(1)
				} else {
					result.rejected.Inc(1)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	result.elapsed = time.Since(start)
	result.accepted.Stop()

	printPerfResult(result)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, result, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// printPerfResult prints the result of a perf run in a formatted way
func printPerfResult(r *perfResult) {
	submit := r.submit.Snapshot()
	total := submit.Count()

	fmt.Println()
	fmt.Printf("%-20s%d in %s\n", "submitted", total, r.elapsed)
	fmt.Printf("%-20s%d (%.0f msg/sec)\n", "accepted", r.accepted.Count(), float64(r.accepted.Count())/max(r.elapsed.Seconds(), 1e-9))
	fmt.Printf("%-20s%d\n", "rejected", r.rejected.Count())
	fmt.Printf("%-20smean %s, p50 %s, p99 %s, max %s\n", "submit latency",
		time.Duration(submit.Mean()),
		time.Duration(submit.Percentile(0.5)),
		time.Duration(submit.Percentile(0.99)),
		time.Duration(submit.Max()))
}

// writeResultsToCSV writes the perf result to a CSV file
func writeResultsToCSV(csvPath string, r *perfResult, config common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Mode", "Submitted", "Accepted", "Rejected", "ElapsedMs", "MsgPerSec",
		"SubmitMeanNs", "SubmitP99Ns", "Endpoint", "QueueSize", "RetryCount",
		"Serializer", "Transport", "Threads", "Rate", "ValueSize",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	submit := r.submit.Snapshot()
	row := []string{
		perfMode,
		strconv.FormatInt(submit.Count(), 10),
		strconv.FormatInt(r.accepted.Count(), 10),
		strconv.FormatInt(r.rejected.Count(), 10),
		strconv.FormatInt(r.elapsed.Milliseconds(), 10),
		fmt.Sprintf("%.0f", float64(r.accepted.Count())/max(r.elapsed.Seconds(), 1e-9)),
		fmt.Sprintf("%.0f", submit.Mean()),
		fmt.Sprintf("%.0f", submit.Percentile(0.99)),
		config.Endpoint,
		strconv.Itoa(config.QueueSize),
		strconv.Itoa(config.RetryCount),
		viper.GetString("serializer"),
		viper.GetString("transport"),
		strconv.Itoa(perfNumThreads),
		strconv.Itoa(perfRate),
		strconv.Itoa(perfValueSize),
	}

	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write result row: %v", err)
	}

	return nil
}

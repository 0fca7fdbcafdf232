package cmd

import (
	"fmt"
	"github.com/ValentinKolb/dSend/cmd/client"
	"github.com/ValentinKolb/dSend/cmd/serve"
	"github.com/ValentinKolb/dSend/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dsend",
		Short: "asynchronous, fault-tolerant data sender",
		Long: fmt.Sprintf(`dSend (v%s)

An asynchronous data sender library written in Go. Agents hand messages to
a bounded queue and never block, a background pipeline serializes and writes
them to a collector over one persistent connection and retries failed
requests in batches.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dSend",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dSend v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(client.ClientCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package cmd implements the command-line interface of dSend. It provides a
// collector server and a client that drives a data sender, mainly for trying
// out and load testing the sender against a real collector.
//
// The package is organized into several subpackages:
//
//   - client: Commands that build a data sender and submit messages (send, request, perf)
//   - serve: Command for starting and configuring a collector
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as an environment variable DSEND_<flag> or in a
// .env / .env.local file.
//
// See dsend -help for a list of all commands.
package cmd

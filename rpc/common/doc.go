// Package common provides core data structures and utilities shared by the
// sender, the collector and the transports.
//
// The package focuses on:
//   - Message protocol definition between senders and collectors
//   - Configuration structures for sender (client) and collector (server)
//   - Custom logging implementation integrated with the Dragonboat logger facade
//
// Key Components:
//
//   - Message: Core data structure of all traffic. Data messages (span, stat,
//     agentInfo, metaData, custom) are sent by agents, Result and Error
//     messages are the collector's answers to requests.
//
//   - MessageType: Enumeration of all message types. It is encoded as a
//     string in JSON.
//
//   - ClientConfig: Parameters of a data sender (endpoint, timeouts, queue size,
//     retry budget and delay, max packet size, socket options), with defaults
//     and validation.
//
//   - ServerConfig: Parameters of a collector (endpoint, timeouts, workers per
//     connection, reject rate).
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's
//     logger facade, so every package logs through logger.GetLogger(name)
//     with consistent formatting.
package common

// Package config holds default harness parameters shared across binaries.
package config

import "time"

const (
	// Agent workflow defaults.
	DefaultIterations    = 20
	DefaultOperationWait = 100 * time.Millisecond
	IntraWorkflowWait    = 50 * time.Millisecond

	// Stress mode defaults.
	DefaultStressMessages = 200
	DefaultBurstSize      = 10
	InterBurstWait        = 10 * time.Millisecond
	StressProgressEvery   = 50

	// Server latency simulation bounds (milliseconds).
	DefaultToolCallMinLatencyMs = 10
	DefaultToolCallMaxLatencyMs = 50
	DefaultReadMinLatencyMs     = 10
	DefaultReadMaxLatencyMs     = 30

	// SSE server defaults.
	DefaultSSEPort         = 8080
	DefaultSSEIterations   = 10
	DefaultSSEDelay        = time.Second
	DefaultHeartbeatEvery  = 30 * time.Second
	DefaultShutdownTimeout = 5 * time.Second

	// Line transport limits.
	MaxLineBytes = 1024 * 1024
)

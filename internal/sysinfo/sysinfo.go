// Package sysinfo samples host and own-process statistics for the SSE
// server's health endpoint. Collection is best-effort: any probe that fails
// simply leaves its fields zero.
package sysinfo

import (
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats describes the host the harness runs on.
type HostStats struct {
	CPUPercent   float64 `json:"cpuPercent"`
	MemTotal     uint64  `json:"memTotal"`
	MemUsed      uint64  `json:"memUsed"`
	MemAvailable uint64  `json:"memAvailable"`
}

// ProcessStats describes the harness process itself.
type ProcessStats struct {
	PID        int     `json:"pid"`
	CPUPercent float64 `json:"cpuPercent"`
	MemRSS     uint64  `json:"memRss"`
	MemVMS     uint64  `json:"memVms"`
	NumThreads int     `json:"numThreads"`
	NumFDs     int     `json:"numFds"`
}

// Snapshot holds one sample of host and process stats.
type Snapshot struct {
	Host    *HostStats    `json:"host,omitempty"`
	Process *ProcessStats `json:"process,omitempty"`
}

// Collect samples the host and the current process. It never fails: probes
// that error are skipped.
func Collect() Snapshot {
	var snap Snapshot

	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		host := &HostStats{CPUPercent: cpuPercent[0]}
		if memInfo, err := mem.VirtualMemory(); err == nil && memInfo != nil {
			host.MemTotal = memInfo.Total
			host.MemUsed = memInfo.Used
			host.MemAvailable = memInfo.Available
		}
		snap.Host = host
	}

	pid := os.Getpid()
	if proc, err := process.NewProcess(int32(pid)); err == nil {
		stats := &ProcessStats{PID: pid}
		if cpuPct, err := proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpuPct
		}
		if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
			stats.MemRSS = memInfo.RSS
			stats.MemVMS = memInfo.VMS
		}
		if numThreads, err := proc.NumThreads(); err == nil {
			stats.NumThreads = int(numThreads)
		}
		// Unix only; the error is expected elsewhere.
		if numFDs, err := proc.NumFDs(); err == nil {
			stats.NumFDs = int(numFDs)
		}
		snap.Process = stats
	}

	return snap
}

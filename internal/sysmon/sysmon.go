// Package sysmon samples system-wide CPU and memory usage for the health
// endpoint and the interactive status command.
package sysmon

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 `json:"cpu_percent"` // 0.0 .. 100.0
	MemPercent float64 `json:"mem_percent"` // 0.0 .. 100.0
	NumCPU     int     `json:"num_cpu"`
}

// sampleTimeout bounds a single snapshot.
const sampleTimeout = 500 * time.Millisecond

// Sample collects a system-wide CPU and memory snapshot. CPU usage is the
// delta since the previous call (interval 0), so the first call in a process
// may report 0. Fields that cannot be read are left at zero.
func Sample(ctx context.Context) Stats {
	ctx, cancel := context.WithTimeout(ctx, sampleTimeout)
	defer cancel()

	var s Stats
	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = clamp(pcts[0])
	}
	if vmem, err := mem.VirtualMemoryWithContext(ctx); err == nil && vmem != nil {
		s.MemPercent = clamp(vmem.UsedPercent)
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.NumCPU = n
	}
	return s
}

func clamp(p float64) float64 {
	return min(max(p, 0), 100)
}

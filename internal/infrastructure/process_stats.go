package infrastructure

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessStats is a snapshot of process and host resource usage
type ProcessStats struct {
	PID             int32   `json:"pid"`
	Goroutines      int     `json:"goroutines"`
	HeapAllocBytes  uint64  `json:"heap_alloc_bytes"`
	RSSBytes        uint64  `json:"rss_bytes"`
	CPUPercent      float64 `json:"cpu_percent"`
	NumCPU          int     `json:"num_cpu"`
	HostMemUsedPct  float64 `json:"host_memory_used_percent"`
	HostMemAvailMB  uint64  `json:"host_memory_available_mb"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	CollectionError string  `json:"collection_error,omitempty"`
}

// CollectProcessStats gathers a snapshot for the current process. Partial
// failures are reported in CollectionError and the remaining fields are
// still filled in.
func CollectProcessStats(ctx context.Context, startTime time.Time) ProcessStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := ProcessStats{
		PID:            int32(os.Getpid()),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: ms.HeapAlloc,
		UptimeSeconds:  time.Since(startTime).Seconds(),
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.NumCPU = n
	} else {
		stats.NumCPU = runtime.NumCPU()
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.HostMemUsedPct = vm.UsedPercent
		stats.HostMemAvailMB = vm.Available / (1024 * 1024)
	} else {
		stats.CollectionError = err.Error()
	}

	proc, err := process.NewProcessWithContext(ctx, stats.PID)
	if err != nil {
		stats.CollectionError = err.Error()
		return stats
	}
	if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
		stats.RSSBytes = info.RSS
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = pct
	}

	return stats
}

package pluginhost

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is the device-health snapshot exposed to plugins through the
// host API and to control-API clients. Readings are best effort; a probe that
// fails leaves its field zero.
type SystemStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemUsedMB  uint64  `json:"mem_used_mb"`
	MemTotalMB uint64  `json:"mem_total_mb"`
	UptimeSec  uint64  `json:"uptime_sec"`
	Platform   string  `json:"platform"`
	NumCPU     int     `json:"num_cpu"`
}

// ReadSystemStats samples current device health.
func ReadSystemStats() SystemStats {
	stats := SystemStats{NumCPU: runtime.NumCPU()}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemUsedMB = vm.Used / 1024 / 1024
		stats.MemTotalMB = vm.Total / 1024 / 1024
	}
	if up, err := host.Uptime(); err == nil {
		stats.UptimeSec = up
	}
	if info, err := host.Info(); err == nil {
		stats.Platform = info.Platform
	}
	return stats
}

// Package health reports host metrics for the booth kiosk: a stuck CPU, a
// full photo disk or memory pressure usually explains a stalled session
// before anyone inspects the machine.
package health

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type Health struct {
	CPUPercent     float64   `json:"cpu_percent"`
	MemUsedPercent float64   `json:"mem_used_percent"`
	MemTotal       uint64    `json:"mem_total"`
	DiskPath       string    `json:"disk_path"`
	DiskFree       uint64    `json:"disk_free"`
	DiskPercent    float64   `json:"disk_used_percent"`
	CollectedAt    time.Time `json:"collected_at"`
}

// Collector samples host metrics. diskPath is the volume the booth writes
// photos to.
type Collector struct {
	diskPath string
}

func NewCollector(diskPath string) *Collector {
	if diskPath == "" {
		diskPath = "."
	}
	return &Collector{diskPath: diskPath}
}

// Snapshot gathers a single sample. Partial failures degrade to zero values
// rather than failing the whole report; only a total CPU failure errors.
func (c *Collector) Snapshot() (interface{}, error) {
	h := Health{DiskPath: c.diskPath, CollectedAt: time.Now()}

	percents, err := cpu.Percent(0, false)
	if err != nil {
		return nil, err
	}
	if len(percents) > 0 {
		h.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		h.MemUsedPercent = vm.UsedPercent
		h.MemTotal = vm.Total
	}

	if du, err := disk.Usage(c.diskPath); err == nil {
		h.DiskFree = du.Free
		h.DiskPercent = du.UsedPercent
	}

	return h, nil
}

// SPDX-License-Identifier: MPL-2.0

// Package metrics exposes host resource gauges next to the publish metrics, so a slow
// publish can be told apart from a starved host.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

type systemCollector struct {
	diskPath     string
	diskSpace    *prometheus.Desc
	memoryMetric *prometheus.Desc
	cpuUsage     *prometheus.Desc
}

func (collector *systemCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.diskSpace
	ch <- collector.memoryMetric
	ch <- collector.cpuUsage
}

func (collector *systemCollector) Collect(ch chan<- prometheus.Metric) {
	if usage, err := disk.Usage(collector.diskPath); err == nil {
		ch <- prometheus.MustNewConstMetric(collector.diskSpace, prometheus.GaugeValue, float64(usage.Total), collector.diskPath, "total")
		ch <- prometheus.MustNewConstMetric(collector.diskSpace, prometheus.GaugeValue, float64(usage.Used), collector.diskPath, "used")
	}

	if vmstat, err := mem.VirtualMemory(); err == nil {
		ch <- prometheus.MustNewConstMetric(collector.memoryMetric, prometheus.GaugeValue, float64(vmstat.Total), "total")
		ch <- prometheus.MustNewConstMetric(collector.memoryMetric, prometheus.GaugeValue, float64(vmstat.Available), "available")
		ch <- prometheus.MustNewConstMetric(collector.memoryMetric, prometheus.GaugeValue, float64(vmstat.Used), "used")
	}

	if cpuPercentage, err := cpu.Percent(0, false); err == nil && len(cpuPercentage) > 0 {
		ch <- prometheus.MustNewConstMetric(collector.cpuUsage, prometheus.GaugeValue, cpuPercentage[0])
	}
}

// NewSystemCollector reports disk usage of the filesystem holding diskPath, memory and CPU usage.
func NewSystemCollector(diskPath string) prometheus.Collector {
	if diskPath == "" {
		diskPath = "/"
	}
	return &systemCollector{
		diskPath: diskPath,
		diskSpace: prometheus.NewDesc(
			"hawkeye_system_disk_space_bytes",
			"Disk space of the filesystem holding the database, in bytes",
			[]string{"path", "type"},
			nil,
		),
		memoryMetric: prometheus.NewDesc(
			"hawkeye_system_memory_bytes",
			"System memory usage in bytes",
			[]string{"type"},
			nil,
		),
		cpuUsage: prometheus.NewDesc(
			"hawkeye_system_cpu_usage_percent",
			"Current CPU usage percentage",
			nil,
			nil,
		),
	}
}

func Register(reg prometheus.Registerer, diskPath string) error {
	return reg.Register(NewSystemCollector(diskPath))
}

package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"

	"mentorlink/contract"
)

// HealthWorker periodically logs process self-stats (RSS, CPU, goroutines,
// online session count). It replaces a metrics stack for a single-process
// deployment: the log stream is the operational signal.
type HealthWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	interval time.Duration
}

func NewHealthWorker(log *slog.Logger, registry contract.IRegistry, interval time.Duration) *HealthWorker {
	return &HealthWorker{log: log, registry: registry, interval: interval}
}

func (w *HealthWorker) Run(ctx context.Context) error {
	w.log.Info("Starting health worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			memInfo, err := p.MemoryInfo()
			if err != nil {
				w.log.Error("Failed to collect memory stats", "err", err)
				continue
			}
			cpuPercent, err := p.CPUPercent()
			if err != nil {
				w.log.Error("Failed to collect cpu stats", "err", err)
				continue
			}
			w.log.Info("health",
				"ram_bytes", memInfo.RSS,
				"cpu_percent", cpuPercent,
				"goroutines", runtime.NumGoroutine(),
				"online_users", len(w.registry.OnlineUsers()),
			)
		}
	}
}

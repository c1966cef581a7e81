package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"chat-client/contract"

	"github.com/shirou/gopsutil/process"
)

const keepaliveInterval = 30 * time.Second

// KeepaliveWorker pings the push channel on an interval so half-open
// connections are detected before the user notices, and logs the client's
// own resource footprint alongside each ping.
type KeepaliveWorker struct {
	log       *slog.Logger
	transport contract.Transport
	interval  time.Duration
}

func NewKeepaliveWorker(log *slog.Logger, transport contract.Transport, interval time.Duration) *KeepaliveWorker {
	if interval <= 0 {
		interval = keepaliveInterval
	}
	return &KeepaliveWorker{log: log, transport: transport, interval: interval}
}

func (w *KeepaliveWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
			} else {
				w.log.Debug("client stats", "ram_bytes", rss, "cpu_percent", cpu)
			}

			if err = w.transport.Ping(ctx); err != nil {
				// The transport redials on its own; the ping only surfaces
				// the dead connection earlier.
				w.log.Warn("keepalive ping failed", "err", err)
			}
		}
	}
}

// selfStats retrieves memory and CPU usage for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}

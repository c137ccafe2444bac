package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/adityakr/videotube-be/internal/models"
	"github.com/adityakr/videotube-be/internal/services"
)

const highCPUThreshold = 90.0

// StatUpdater periodically samples host resource usage and raises an
// event when CPU load stays high across consecutive samples.
type StatUpdater struct {
	eventSvc services.EventServiceProvider
	ticker   *time.Ticker
	done     chan bool

	mu           sync.RWMutex
	latest       models.SystemStats
	highCPUSince time.Time
	alerted      bool
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(eventSvc services.EventServiceProvider) *StatUpdater {
	return &StatUpdater{
		eventSvc: eventSvc,
		done:     make(chan bool),
	}
}

// Run starts the periodic sampling. Blocks until Stop is called.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(30 * time.Second)
	defer su.ticker.Stop()

	// Sample once immediately on start
	su.sample()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.sample()
		}
	}
}

// Stop halts the periodic sampling.
func (su *StatUpdater) Stop() {
	su.done <- true
}

// Latest returns the most recent snapshot.
func (su *StatUpdater) Latest() models.SystemStats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}

func (su *StatUpdater) sample() {
	stats := models.SystemStats{SampledAt: time.Now()}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	} else if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Failed to sample CPU")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemUsedBytes = vm.Used
		stats.MemTotalBytes = vm.Total
	} else {
		log.Warn().Err(err).Msg("StatUpdater: Failed to sample memory")
	}

	if du, err := disk.Usage("/"); err == nil {
		stats.DiskUsedBytes = du.Used
		stats.DiskFreeBytes = du.Free
	} else {
		log.Warn().Err(err).Msg("StatUpdater: Failed to sample disk")
	}

	su.mu.Lock()
	su.latest = stats
	su.mu.Unlock()

	su.checkHighCPU(stats)
}

// checkHighCPU raises a single event after two minutes of sustained
// high CPU, then stays quiet until load drops below the threshold.
func (su *StatUpdater) checkHighCPU(stats models.SystemStats) {
	su.mu.Lock()
	defer su.mu.Unlock()

	if stats.CPUPercent < highCPUThreshold {
		su.highCPUSince = time.Time{}
		su.alerted = false
		return
	}

	if su.highCPUSince.IsZero() {
		su.highCPUSince = stats.SampledAt
		return
	}

	if !su.alerted && stats.SampledAt.Sub(su.highCPUSince) >= 2*time.Minute {
		su.alerted = true
		if err := su.eventSvc.CreateEvent(context.Background(),
			"system.alert.cpu", "warn", "sustained high CPU usage on host", nil); err != nil {
			log.Warn().Err(err).Msg("StatUpdater: Failed to record CPU alert")
		}
	}
}

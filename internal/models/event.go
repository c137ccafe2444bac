package models

import "time"

// Event represents a loggable account or system action.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g. "user.login", "system.alert.cpu"
	Level     string    `json:"level"` // e.g. "info", "warn", "error"
	Message   string    `json:"message"`
	UserID    *string   `json:"userId,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}

// SystemStats is a point-in-time snapshot of host resource usage.
type SystemStats struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemUsedBytes  uint64    `json:"memUsedBytes"`
	MemTotalBytes uint64    `json:"memTotalBytes"`
	DiskUsedBytes uint64    `json:"diskUsedBytes"`
	DiskFreeBytes uint64    `json:"diskFreeBytes"`
	SampledAt     time.Time `json:"sampledAt"`
}

package handlers

import (
	"net/http"

	"github.com/adityakr/videotube-be/internal/monitoring"
)

// SystemHandler exposes host resource stats.
type SystemHandler struct {
	stats *monitoring.StatUpdater
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(stats *monitoring.StatUpdater) *SystemHandler {
	return &SystemHandler{stats: stats}
}

// GetStats returns the latest sampled host stats.
func (h *SystemHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "System stats fetched successfully", h.stats.Latest())
}

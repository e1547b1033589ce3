package handlers

import (
	"net/http"

	"lpg-backend/internal/monitoring"
	"lpg-backend/pkg/utils"
)

type MonitoringHandler struct {
	collector *monitoring.Collector
}

func NewMonitoringHandler(collector *monitoring.Collector) *MonitoringHandler {
	return &MonitoringHandler{collector: collector}
}

// SystemStats reports host cpu/memory/disk and database statistics.
func (h *MonitoringHandler) SystemStats(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.collector.Collect(r.Context()))
}

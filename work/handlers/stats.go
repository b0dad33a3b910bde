package handlers

import (
	"net/http"
	"runtime"
	"time"

	"tvrelay/work/config"
	"tvrelay/work/mapping"
	"tvrelay/work/sources"
	"tvrelay/work/utils"
)

// StatsResponse is a point-in-time view of the running relay.
type StatsResponse struct {
	TotalSources  int    `json:"totalSources"`
	TotalChannels int    `json:"totalChannels"`
	ProxyHandles  int    `json:"proxyHandles"`
	Uptime        string `json:"uptime"`
	MemoryUsage   string `json:"memoryUsage"`
	WorkerThreads int    `json:"workerThreads"`
	RelayOrigin   string `json:"relayOrigin"`
}

// HandleStats serves GET /api/stats.
func HandleStats(cfg *config.Config, reg *sources.Registry, table *mapping.Table, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := reg.List()
		channels := 0
		for _, src := range list {
			channels += len(src.Channels)
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		writeJSON(w, http.StatusOK, StatsResponse{
			TotalSources:  len(list),
			TotalChannels: channels,
			ProxyHandles:  table.Len(),
			Uptime:        utils.FormatDuration(time.Since(started)),
			MemoryUsage:   utils.FormatBytes(int64(m.Alloc)),
			WorkerThreads: cfg.WorkerThreads,
			RelayOrigin:   cfg.RelayOrigin,
		})
	}
}

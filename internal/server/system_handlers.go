package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mgalanis/folio/internal/database"
)

// SystemHandlers serves system monitoring endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	folioDB   *database.DB
	cacheDB   *database.DB
	startedAt time.Time
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(log zerolog.Logger, folioDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		folioDB:   folioDB,
		cacheDB:   cacheDB,
		startedAt: time.Now(),
	}
}

// HandleHealth reports process uptime, system load and database status
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()

	databases := map[string]string{}
	status := "ok"
	for _, db := range []*database.DB{h.folioDB, h.cacheDB} {
		if err := db.Conn().Ping(); err != nil {
			databases[db.Name()] = "unreachable"
			status = "degraded"
		} else {
			databases[db.Name()] = "ok"
		}
	}

	response := map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
		"databases":      databases,
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(response)
}

// systemStats samples CPU and RAM usage. The short CPU interval keeps the
// health endpoint fast at the cost of some sampling noise.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

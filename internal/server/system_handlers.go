package server

import (
	"errors"
	"net/http"
	"runtime"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/httputil"
	"github.com/aristath/sentinel-risk/internal/modules/snapshots"
)

// JobRunner triggers registered scheduler jobs by name.
type JobRunner interface {
	RunByName(name string) error
	JobNames() []string
}

// SnapshotSource reports the current snapshot.
type SnapshotSource interface {
	Current() (snapshots.Snapshot, error)
}

// SystemHandlers handles system-wide HTTP requests
type SystemHandlers struct {
	jobs        JobRunner
	snapshots   SnapshotSource
	startupTime time.Time
	out         *httputil.Writer
	log         zerolog.Logger

	// Overridable for tests
	systemStats func() (cpuPercent, memPercent float64)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(jobs JobRunner, snapshotSource SnapshotSource, log zerolog.Logger) *SystemHandlers {
	log = log.With().Str("handler", "system").Logger()
	h := &SystemHandlers{
		jobs:        jobs,
		snapshots:   snapshotSource,
		startupTime: time.Now(),
		out:         httputil.NewWriter(log),
		log:         log,
	}
	h.systemStats = h.getSystemStats
	return h
}

// RegisterRoutes registers system routes on a router mounted at /api
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Post("/jobs/{name}", h.HandleTriggerJob)
	})
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status          string   `json:"status"`
	UptimeSeconds   float64  `json:"uptime_seconds"`
	Goroutines      int      `json:"goroutines"`
	CPUPercent      float64  `json:"cpu_percent"`
	MemoryPercent   float64  `json:"memory_percent"`
	Jobs            []string `json:"jobs"`
	SnapshotLoaded  bool     `json:"snapshot_loaded"`
	SnapshotVersion uint64   `json:"snapshot_version,omitempty"`
}

// HandleSystemStatus returns process and service status.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()

	resp := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Jobs:          h.jobs.JobNames(),
	}

	snap, err := h.snapshots.Current()
	switch {
	case err == nil:
		resp.SnapshotLoaded = true
		resp.SnapshotVersion = snap.Version
	case !errors.Is(err, domain.ErrNotFound):
		h.log.Warn().Err(err).Msg("Failed to read snapshot")
	}

	h.out.Data(w, r, http.StatusOK, resp)
}

// HandleTriggerJob starts a registered job in the background.
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !slices.Contains(h.jobs.JobNames(), name) {
		h.out.Error(w, r, http.StatusNotFound, "job "+name+" not registered")
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run triggered")
	go func() {
		if err := h.jobs.RunByName(name); err != nil {
			h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		}
	}()

	h.out.Data(w, r, http.StatusAccepted, map[string]string{
		"status": "triggered",
		"job":    name,
	})
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms sample keeps the status call fast
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

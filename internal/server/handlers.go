package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/croplands/parcel-recon/internal/common"
	"github.com/croplands/parcel-recon/internal/export"
)

// Handlers is the HTTP command surface: data, export, clear, and automation
// control. It routes into the engine and collaborators and owns no state.
type Handlers struct {
	engine  Engine
	tracker Tracker
	sched   Automation
	logger  *slog.Logger
}

func NewHandlers(engine Engine, tr Tracker, sched Automation, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{engine: engine, tracker: tr, sched: sched, logger: logger}
}

// GetData returns every stored parcel in insertion order.
func (h *Handlers) GetData(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.engine.Parcels()})
}

// GetStatus returns current store sizes.
func (h *Handlers) GetStatus(c *gin.Context) {
	parcels, profiles := h.engine.Counts()
	c.JSON(http.StatusOK, gin.H{
		"parcels":          parcels,
		"profiles":         profiles,
		"pending_requests": h.tracker.Len(),
	})
}

// Export streams the dataset as CSV (default) or XLSX. An empty dataset is a
// user-visible error and performs no file side effect.
func (h *Handlers) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	parcels := h.engine.Parcels()

	var (
		blob        []byte
		err         error
		contentType string
		ext         string
	)
	switch format {
	case "csv":
		blob, err = export.CSV(parcels)
		contentType = "text/csv; charset=utf-8"
		ext = "csv"
	case "xlsx":
		blob, err = export.XLSX(parcels)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unknown format: " + format})
		return
	}

	if errors.Is(err, common.ErrEmptyDataset) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "message": "no parcels collected yet"})
		return
	}
	if err != nil {
		h.logger.Error("server.export.failed", "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "export failed"})
		return
	}

	filename := fmt.Sprintf("parcels-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, blob)
}

// Clear resets all state: parcels, dedup set, profiles, pending requests,
// and the persisted snapshot.
func (h *Handlers) Clear(c *gin.Context) {
	h.tracker.Clear()
	if err := h.engine.Clear(c.Request.Context()); err != nil {
		h.logger.Error("server.clear.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "clear failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// StartAutomation enables the interaction schedule.
func (h *Handlers) StartAutomation(c *gin.Context) {
	h.sched.Start()
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// StopAutomation disables the interaction schedule.
func (h *Handlers) StopAutomation(c *gin.Context) {
	h.sched.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// AutomationStatus reports whether the schedule is running.
func (h *Handlers) AutomationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": h.sched.Enabled()})
}

// Healthz is a liveness probe.
func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package server

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/croplands/parcel-recon/internal/entity"
)

// Engine is the slice of the correlation engine the command surface uses.
type Engine interface {
	Parcels() []entity.Parcel
	Counts() (parcels, profiles int)
	Clear(ctx context.Context) error
}

// Tracker is the slice of the request tracker the command surface uses.
type Tracker interface {
	Len() int
	Clear()
}

// Automation is the control contract of the automation scheduler.
type Automation interface {
	Start()
	Stop()
	Enabled() bool
}

// NewRouter wires the command routes.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/parcels", h.GetData)
		v1.GET("/status", h.GetStatus)
		v1.GET("/export", h.Export)
		v1.POST("/clear", h.Clear)

		auto := v1.Group("/automation")
		{
			auto.GET("", h.AutomationStatus)
			auto.POST("/start", h.StartAutomation)
			auto.POST("/stop", h.StopAutomation)
		}
	}
	return r
}

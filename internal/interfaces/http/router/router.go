package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar hangs a feature's endpoints off the versioned API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects registrars and mounts them under /api/<version>.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// NewRouter creates a router for the given API version, "v1" when empty.
func NewRouter(engine *gin.Engine, version string) *Router {
	if version == "" {
		version = "v1"
	}
	return &Router{
		engine:     engine,
		apiVersion: version,
	}
}

// Register queues a registrar for Setup.
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts every queued registrar on the versioned group.
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

package v1

import (
	"github.com/gin-gonic/gin"

	"clipvault/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	group.POST("/videos", r.handlers.Video.Upload)
	group.GET("/videos", r.handlers.Video.List)
	group.GET("/videos/:id", r.handlers.Video.Get)
	group.GET("/videos/:id/url", r.handlers.Video.AccessURL)
	group.GET("/videos/:id/content", r.handlers.Video.Stream)
	group.DELETE("/videos/:id", r.handlers.Video.Delete)
	group.GET("/access-url", r.handlers.Video.AccessURLByTarget)
}

package http

import "github.com/gin-gonic/gin"

// Register attaches account routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.upsert)
	rg.DELETE("/:id", h.delete)
}

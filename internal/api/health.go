package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/status", h.status)
	r.GET("/healthz", h.health)
}

func (h *HealthHandler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "DeFi Repertoire API"})
}

func (h *HealthHandler) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Ok"})
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package worker

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (w *Worker) HealthHandler() http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())

	// liveness: process is up
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// readiness: the run loop is draining the queue
	r.GET("/readyz", func(c *gin.Context) {
		w.readyMu.RLock()
		ready := w.ready
		w.readyMu.RUnlock()

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return r
}

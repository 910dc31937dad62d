package routes

import (
	"net/http"

	appErrors "Centavo/internal/errors"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.Engine.Snapshot())
}

func (h *Handler) GetBalance(c *gin.Context) {
	snap := h.Engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"totalBalance": snap.TotalBalance,
		"ready":        snap.Ready,
	})
}

func (h *Handler) GetProfile(c *gin.Context) {
	snap := h.Engine.Snapshot()
	if snap.Profile == nil {
		h.respondError(c, appErrors.ErrProfileNotFound)
		return
	}
	c.JSON(http.StatusOK, snap.Profile)
}

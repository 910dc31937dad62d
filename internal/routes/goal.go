package routes

import (
	"net/http"

	"Centavo/internal/contracts"
	appErrors "Centavo/internal/errors"
	"Centavo/internal/pkg"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateGoal(c *gin.Context) {
	var body contracts.GoalCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	if err := h.Engine.AddGoal(c.Request.Context(), &body); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contracts.MessageResponse{Message: "Meta criada com sucesso"})
}

func (h *Handler) UpdateGoal(c *gin.Context) {
	goalID, err := pkg.ParseULID(c.Param("id"))
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("id", "formato inválido"))
		return
	}

	var body contracts.GoalUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	if err := h.Engine.EditGoal(c.Request.Context(), goalID, &body); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Meta atualizada com sucesso"})
}

func (h *Handler) AddToGoal(c *gin.Context) {
	goalID, err := pkg.ParseULID(c.Param("id"))
	if err != nil {
		h.respondError(c, appErrors.NewValidationError("id", "formato inválido"))
		return
	}

	var body contracts.AddToGoalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	if err := h.Engine.AddToGoal(c.Request.Context(), goalID, body.Amount); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Valor adicionado à meta"})
}

func (h *Handler) ListGoals(c *gin.Context) {
	snap := h.Engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"goals":           snap.Goals,
		"completedGoals":  snap.CompletedGoals,
		"averageProgress": snap.AverageProgress,
		"ready":           snap.Ready,
	})
}

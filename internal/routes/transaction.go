package routes

import (
	"net/http"

	"Centavo/internal/contracts"
	appErrors "Centavo/internal/errors"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateTransaction(c *gin.Context) {
	var body contracts.TransactionCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	if err := h.Engine.AddTransaction(c.Request.Context(), &body); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contracts.MessageResponse{Message: "Transação registrada com sucesso"})
}

func (h *Handler) ListTransactions(c *gin.Context) {
	snap := h.Engine.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"transactions": snap.Transactions,
		"totalBalance": snap.TotalBalance,
		"ready":        snap.Ready,
	})
}

package routes

import (
	"errors"
	"net/http"

	"Centavo/internal/contracts"
	"Centavo/internal/engine"
	appErrors "Centavo/internal/errors"
	"Centavo/internal/identity"
	"Centavo/internal/logger"

	"github.com/gin-gonic/gin"
)

// Handler é o consumidor de referência do engine: não guarda estado
// próprio, apenas lê snapshots e encaminha mutações.
type Handler struct {
	Engine   *engine.Engine
	Sessions *identity.SessionProvider
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var incErr *appErrors.InconsistencyError
	if errors.As(err, &incErr) {
		c.JSON(http.StatusBadGateway, contracts.ErrorResponse{
			Code:    "INCONSISTENCY_WINDOW",
			Message: "Transação de poupança gravada mas o incremento da meta falhou",
			Details: map[string]interface{}{
				"goal_id":        incErr.GoalID,
				"transaction_id": incErr.TransactionID,
			},
		})
		return
	}

	appErr := appErrors.FromError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Erro interno ao atender requisição")
	}

	c.JSON(appErr.StatusCode, contracts.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

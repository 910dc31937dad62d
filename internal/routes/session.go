package routes

import (
	"net/http"

	"Centavo/internal/contracts"
	appErrors "Centavo/internal/errors"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SignIn(c *gin.Context) {
	var body contracts.SessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, appErrors.ParseValidationErrors(err))
		return
	}

	ident, err := h.Sessions.SignIn(body.AccessToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ident)
}

func (h *Handler) SignOut(c *gin.Context) {
	h.Sessions.SignOut()
	c.JSON(http.StatusOK, contracts.MessageResponse{Message: "Sessão encerrada"})
}

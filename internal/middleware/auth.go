package middleware

import (
	appErrors "Centavo/internal/errors"
	"Centavo/internal/identity"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware exige uma sessão ativa no identity provider e coloca a
// identidade no contexto da requisição.
func AuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := provider.Current()
		if !ok {
			appErr := appErrors.ErrNotAuthenticated
			c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			})
			return
		}

		c.Set("identity", ident)
		c.Next()
	}
}

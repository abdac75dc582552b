package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/scalade/scalade-api/config"
	"github.com/scalade/scalade-api/infra"
	"github.com/scalade/scalade-api/utils"
)

// AuthMiddleware guards the entities API. The token is validated against
// the external authorization service, then the local claims are parsed to
// resolve the calling account.
func AuthMiddleware(authService *infra.AuthorizationService, cfg *config.EnvConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := utils.ExtractToken(c)
		if tokenString == "" {
			utils.JSON401(c, "Unauthorized: missing access token")
			c.Abort()
			return
		}

		if err := authService.CheckAccessToken(tokenString); err != nil {
			utils.JSON401(c, "Unauthorized: invalid access token")
			c.Abort()
			return
		}

		token, err := utils.ParseToken(tokenString, cfg)
		if err != nil || !token.Valid {
			utils.JSON401(c, "Unauthorized: invalid access token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.JSON401(c, "Unauthorized: invalid token claims")
			c.Abort()
			return
		}
		if err := utils.InjectClaimsToContext(c, claims); err != nil {
			utils.JSON401(c, "Unauthorized: "+err.Error())
			c.Abort()
			return
		}

		c.Next()
	}
}

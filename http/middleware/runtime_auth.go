package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/scalade/scalade-api/config"
	"github.com/scalade/scalade-api/utils"
)

// RuntimeAuthMiddleware guards the runtime API. The bearer token binds a
// worker to exactly one function instance; any invalid token is rejected
// with 403, never 401, so callers cannot distinguish a bad signature from
// a token for an instance they do not own.
func RuntimeAuthMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := utils.ExtractToken(c)
		if tokenString == "" {
			utils.JSON403(c, "Forbidden")
			c.Abort()
			return
		}

		fiUUID, err := utils.ParseRuntimeToken(tokenString, cfg)
		if err != nil {
			utils.JSON403(c, "Forbidden")
			c.Abort()
			return
		}

		c.Set("fi_uuid", fiUUID)
		c.Next()
	}
}

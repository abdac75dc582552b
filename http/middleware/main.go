package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/scalade/scalade-api/http/controller"
)

type Middlewares struct {
	CORSMiddleware        gin.HandlerFunc
	AuthMiddleware        gin.HandlerFunc
	RuntimeAuthMiddleware gin.HandlerFunc
}

func NewMiddlewares(ctrl *controller.Controller) (*Middlewares, error) {
	cors := CORSMiddleware(ctrl.Config.EnvConfig)
	auth := AuthMiddleware(ctrl.Infra.AuthorizationService, ctrl.Config.EnvConfig)
	runtimeAuth := RuntimeAuthMiddleware(ctrl.Config.EnvConfig)

	return &Middlewares{
		CORSMiddleware:        cors,
		AuthMiddleware:        auth,
		RuntimeAuthMiddleware: runtimeAuth,
	}, nil
}

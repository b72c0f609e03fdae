package handlers

import (
	"github.com/averix/identity/middleware/bearer"
	"github.com/averix/identity/server"
	"github.com/averix/identity/services/tokens"
	"go.uber.org/fx"
)

// RegisterRoutes mounts the auth surface. Everything but /auth/me is
// reachable without a prior session.
func RegisterRoutes(srv *server.Server, handler *AuthHandler, issuer *tokens.Service) {
	group := srv.Group("/auth")

	group.POST("/register", handler.Register)
	group.POST("/login", handler.Login)
	group.POST("/verify-email", handler.VerifyEmail)
	group.POST("/forgot-password", handler.ForgotPassword)
	group.POST("/reset-password", handler.ResetPassword)
	group.POST("/refresh", handler.Refresh)
	group.GET("/me", handler.Me, bearer.RequireToken(issuer))
}

var Module = fx.Options(
	fx.Provide(NewAuthHandler),
	fx.Invoke(RegisterRoutes),
)

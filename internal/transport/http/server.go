package http

import (
	"github.com/gin-gonic/gin"

	appsvc "userhub/internal/app"
	"userhub/internal/bootstrap"
	"userhub/internal/repository"
	"userhub/internal/transport/http/handler"
	"userhub/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	// Unsupported verbs on known paths answer 405 instead of 404.
	router.HandleMethodNotAllowed = true

	userRepo := repository.NewUserRepository(app.DB)
	accountService := appsvc.NewAccountService(userRepo, app.UserCache, app.Publisher)
	accountHandler := handler.NewAccountHandler(accountService)
	healthHandler := handler.NewHealthHandler(userRepo)

	router.GET("/healthz", healthHandler.Check)
	router.POST("/signup", accountHandler.Signup)

	authed := router.Group("/", middleware.BasicAuth(accountService))
	authed.GET("/login", accountHandler.Login)
	authed.GET("/me", accountHandler.Me)
	authed.PUT("/me", accountHandler.UpdateMe)

	return router
}

// README: HTTP route registration.
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/zabiza830/Ethio-Safeguard/internal/auth"
	"github.com/zabiza830/Ethio-Safeguard/internal/http/handlers"
	"github.com/zabiza830/Ethio-Safeguard/internal/http/middleware"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/dispatch"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/notify"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/user"
	"github.com/zabiza830/Ethio-Safeguard/internal/ws"
)

type RouterDeps struct {
	Users         *user.Service
	Dispatch      *dispatch.Service
	Notify        *notify.Service
	WS            *ws.Handler
	Verifier      auth.TokenVerifier
	Redis         *redis.Client
	RatePerMinute int
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.RateLimit(deps.Redis, deps.RatePerMinute))

	regHandler := handlers.NewRegistrationHandler(deps.Users)
	aidHandler := handlers.NewAidHandler(deps.Dispatch, deps.Users)
	notificationHandler := handlers.NewNotificationHandler(deps.Notify)

	authRequired := middleware.RequireAuth(deps.Verifier)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", regHandler.Register)
		authGroup.POST("/login", regHandler.Login)
	}

	adminGroup := r.Group("/api/users", authRequired, middleware.RequireRole(string(user.RoleAdmin)))
	{
		adminGroup.GET("/registrations", regHandler.ListPending)
		adminGroup.PATCH("/registrations/:id", regHandler.SetStatus)
	}

	aidGroup := r.Group("/api/aid", authRequired)
	{
		aidGroup.POST("", middleware.RequireRole(string(user.RoleSender)), aidHandler.Create)
		aidGroup.GET("/available", middleware.RequireRole(string(user.RoleDriver)), aidHandler.ListAvailable)
		aidGroup.GET("/sender", middleware.RequireRole(string(user.RoleSender)), aidHandler.ListSender)
		aidGroup.GET("/driver", middleware.RequireRole(string(user.RoleDriver)), aidHandler.ListDriver)
		aidGroup.PATCH("/:id/status", aidHandler.UpdateStatus)
	}

	notificationGroup := r.Group("/api/notifications", authRequired)
	{
		notificationGroup.GET("", notificationHandler.List)
		notificationGroup.PATCH("/:id/read", notificationHandler.MarkRead)
		notificationGroup.DELETE("/:id", notificationHandler.Dismiss)
	}

	// Socket auth happens in the handler; tokens arrive as a query parameter.
	r.GET("/ws/fleet", deps.WS.Serve)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

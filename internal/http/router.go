package httpx

import (
	"github.com/gautamkumarcode/propmize-admin/internal/http/handlers"
	"github.com/gautamkumarcode/propmize-admin/internal/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildRouter wires the dashboard routes. Every route except /health runs
// inside a client session; notification and admin routes also need a
// signed-in user whose role is allowed by casbin.
func BuildRouter(
	ah *handlers.AuthHandlers,
	nh *handlers.NotificationHandlers,
	ph *handlers.PolicyHandlers,
	session *middleware.ClientSessionMW,
	cb *middleware.CasbinMW,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if logger != nil {
		r.Use(middleware.RequestLogger(logger))
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	client := r.Group("/", session.Handle())

	auth := client.Group("/auth")
	auth.GET("/session", ah.Session)
	auth.POST("/otp/open", ah.OpenOTP)
	auth.GET("/otp", ah.OTPState)
	auth.DELETE("/otp", ah.DismissOTP)
	auth.POST("/otp/send", ah.SendOTP)
	auth.POST("/otp/verify", ah.VerifyOTP)
	auth.POST("/otp/change-phone", ah.ChangePhone)
	auth.POST("/login", ah.Login)
	auth.POST("/logout", ah.Logout)

	n := client.Group("/notifications", middleware.RequireSession(), cb.Enforce())
	n.GET("", nh.List)
	n.GET("/unread-count", nh.UnreadCount)
	n.GET("/stream", nh.Stream)
	n.POST("/refresh", nh.Refresh)
	n.POST("/read-all", nh.MarkAllRead)
	n.POST("/:id/read", nh.MarkRead)
	n.POST("/:id/click", nh.Click)
	n.DELETE("/:id", nh.Delete)

	adm := client.Group("/admin", middleware.RequireSession(), cb.Enforce())
	adm.GET("/policies", ph.List)
	adm.POST("/policies", ph.Add)
	adm.DELETE("/policies", ph.Remove)

	return r
}

package server

import (
	"net/http"
	"strings"
	"time"

	"sigea-portal-svc/src/internal/dependency"
	"sigea-portal-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS(deps.Config.Security.AllowedOrigins))

	authMiddleware := middleware.NewAuthMiddleware(deps.SessionStore)

	setupHealthEndpoint(deps)

	api := router.Group("/api/v1",
		middleware.BrowserSession(&deps.Config.Session),
		authMiddleware.LoadSession(),
	)

	setupPublicRoutes(api, deps)
	setupAuthRoutes(api, deps)
	setupAttendanceRoutes(api, deps, authMiddleware)
	setupPaymentRoutes(api, deps, authMiddleware)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		log.Debug("Health check endpoint requested")

		components := gin.H{
			"session_store": cfg.Session.Store,
		}
		if deps.Redis != nil {
			components["redis"] = getStatus(deps.Redis.Client.Ping(c.Request.Context()).Err() == nil)
		}
		if deps.Mongodb != nil {
			components["mongodb"] = getStatus(deps.Mongodb.Client.Ping(c.Request.Context(), nil) == nil)
		}
		if deps.RabbitMQ != nil {
			components["rabbitmq"] = getStatus(!deps.RabbitMQ.Conn.IsClosed())
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"service":    cfg.App.Name,
			"version":    cfg.App.Version,
			"components": components,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func setupPublicRoutes(api *gin.RouterGroup, deps *dependency.Manager) {
	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     deps.Config.App.Name,
		})
	})

	api.GET("/actividades", setRouteName("listActivities"), deps.ActivityHandler.List)
	api.GET("/actividades/:id", setRouteName("getActivity"), deps.ActivityHandler.Get)
}

func setupAuthRoutes(api *gin.RouterGroup, deps *dependency.Manager) {
	handler := deps.AuthHandler

	auth := api.Group("/auth")
	{
		auth.POST("/login", setRouteName("login"), handler.Login)
		auth.POST("/logout", setRouteName("logout"), handler.Logout)
		auth.GET("/session", setRouteName("currentSession"), handler.CurrentSession)
	}
}

func setupAttendanceRoutes(api *gin.RouterGroup, deps *dependency.Manager, authMiddleware *middleware.AuthMiddleware) {
	handler := deps.AttendanceHandler

	attendance := api.Group("/asistencias", authMiddleware.RequireAuth())
	{
		attendance.GET("/dashboard",
			setRouteName("getAttendanceDashboard"),
			authMiddleware.RequireRoles(deps.Config.Security.DashboardRoles...),
			handler.GetDashboard)

		attendance.PUT("/actividades/:id",
			setRouteName("saveAttendance"),
			authMiddleware.RequireRoles(deps.Config.Security.DashboardRoles...),
			handler.SaveAttendance)

		attendance.POST("",
			setRouteName("markAttendance"),
			authMiddleware.RequireRoles(deps.Config.Security.DashboardRoles...),
			handler.MarkAttendance)
	}
}

func setupPaymentRoutes(api *gin.RouterGroup, deps *dependency.Manager, authMiddleware *middleware.AuthMiddleware) {
	api.POST("/pagos",
		setRouteName("createPayment"),
		authMiddleware.RequireAuth(),
		deps.PaymentHandler.Create)
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

// enableCORS answers cross-origin requests. Only origins in allowed get
// their origin echoed and may send the session cookie.
func enableCORS(allowed []string) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origins[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		c.Header("Vary", "Origin")
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := origins[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}

package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"stayquote/internal/infra/config"
	"stayquote/internal/infra/obs"
)

type RoomsHTTP interface {
	RoomGroups(c *gin.Context)
	Schedule(c *gin.Context)
	PropertyMonth(c *gin.Context)
	Search(c *gin.Context)
	PriceRange(c *gin.Context)
	Calendar(c *gin.Context)
}

type SessionHTTP interface {
	Start(c *gin.Context)
	Get(c *gin.Context)
	ChangeSearch(c *gin.Context)
	AddInstances(c *gin.Context)
	RemoveInstance(c *gin.Context)
	Clear(c *gin.Context)
	Quote(c *gin.Context)
	Checkout(c *gin.Context)
}

type Handlers struct {
	Rooms    RoomsHTTP
	Sessions SessionHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", obs.RequestIDHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	registerSwaggerRoutes(router)

	api := router.Group("/api/v1")
	api.Use(RateLimit(cfg.RateLimitPerMinute, obsMW.Logger))
	if h.Rooms != nil {
		api.GET("/properties/:id/room-groups", h.Rooms.RoomGroups)
		api.GET("/properties/:id/room-groups/:groupId/schedule", h.Rooms.Schedule)
		api.GET("/properties/:id/availability", h.Rooms.PropertyMonth)
		api.GET("/rooms/availability", h.Rooms.Search)
		api.GET("/rooms/price-range", h.Rooms.PriceRange)
		api.GET("/rooms/:id/calendar", h.Rooms.Calendar)
	}
	if h.Sessions != nil {
		sessions := api.Group("/sessions")
		sessions.POST("", h.Sessions.Start)
		sessions.GET("/:id", h.Sessions.Get)
		sessions.PUT("/:id/search", h.Sessions.ChangeSearch)
		sessions.POST("/:id/selection", h.Sessions.AddInstances)
		sessions.DELETE("/:id/selection", h.Sessions.Clear)
		sessions.DELETE("/:id/selection/:selectionId", h.Sessions.RemoveInstance)
		sessions.GET("/:id/quote", h.Sessions.Quote)
		sessions.POST("/:id/checkout", h.Sessions.Checkout)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

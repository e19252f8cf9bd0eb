package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/khadra/initiative-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
}

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	authH         Handler
	initiativeH   Handler
	reviewH       Handler
	notificationH Handler
	healthH       Handler
	config        Config
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH Handler,
	initiativeH Handler,
	reviewH Handler,
	notificationH Handler,
	healthH Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:        gin.New(),
		auth:          auth,
		authH:         authH,
		initiativeH:   initiativeH,
		reviewH:       reviewH,
		notificationH: notificationH,
		healthH:       healthH,
		config:        config,
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.Logger())

	if r.config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.config.RateLimit,
			Burst: r.config.RateBurst,
		})
		r.engine.Use(limiter.RateLimit())
	}
}

func (r *Router) setupRoutes() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.healthH.RegisterRoutes(&r.engine.RouterGroup)

	v1 := r.engine.Group("/api/v1")

	// Public endpoints.
	r.authH.RegisterRoutes(v1)

	// Everything else requires a valid token. Per-route manager checks live
	// with the handlers that need them.
	authed := v1.Group("")
	authed.Use(r.auth.Authenticate())
	r.initiativeH.RegisterRoutes(authed)
	r.reviewH.RegisterRoutes(authed)
	r.notificationH.RegisterRoutes(authed)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

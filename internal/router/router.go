package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ayurcare/clinic-api/internal/middleware"
)

// PublicHandler serves anonymous visitors. A valid bearer token, when
// present, is attached to the request.
type PublicHandler interface {
	RegisterPublicRoutes(*gin.RouterGroup)
}

// PatientHandler serves any signed-in user.
type PatientHandler interface {
	RegisterPatientRoutes(*gin.RouterGroup)
}

// AdminHandler serves the admin console.
type AdminHandler interface {
	RegisterAdminRoutes(*gin.RouterGroup)
}

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type MetricsHandler interface {
	Middleware() gin.HandlerFunc
}

type RouterConfig struct {
	CORSConfig     middleware.CORSConfig
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// RateLimiter throttles public writes. Nil disables throttling.
	RateLimiter *middleware.RateLimiter
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	health   Handler
	handlers []interface{}
	config   RouterConfig
}

// NewRouter builds the engine and its global middleware. Each handler is
// mounted under every group whose interface it implements.
func NewRouter(
	auth *middleware.AuthMiddleware,
	health Handler,
	metrics MetricsHandler,
	config RouterConfig,
	handlers ...interface{},
) *Router {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.ErrorHandler(),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}
	if config.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(config.RequestTimeout))
	}
	if config.MaxBodyBytes > 0 {
		engine.Use(middleware.SizeLimit(config.MaxBodyBytes))
	}

	return &Router{
		engine:   engine,
		auth:     auth,
		health:   health,
		handlers: handlers,
		config:   config,
	}
}

func (r *Router) Setup() *gin.Engine {
	api := r.engine.Group("/api/v1")

	if r.health != nil {
		r.health.RegisterRoutes(api)
	}

	public := api.Group("", r.auth.OptionalAuth())
	if r.config.RateLimiter != nil {
		public.Use(r.config.RateLimiter.LimitWrites())
	}

	patient := api.Group("",
		r.auth.Authenticate(),
		middleware.Cache(middleware.NoStoreCacheConfig()),
	)

	admin := api.Group("/admin",
		r.auth.Authenticate(),
		middleware.RequireAdmin(),
		middleware.Cache(middleware.NoStoreCacheConfig()),
	)

	for _, h := range r.handlers {
		if p, ok := h.(PublicHandler); ok {
			p.RegisterPublicRoutes(public)
		}
		if p, ok := h.(PatientHandler); ok {
			p.RegisterPatientRoutes(patient)
		}
		if a, ok := h.(AdminHandler); ok {
			a.RegisterAdminRoutes(admin)
		}
	}

	return r.engine
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

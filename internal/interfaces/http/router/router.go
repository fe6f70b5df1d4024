package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inventree/backend/internal/infrastructure/config"
	"github.com/inventree/backend/internal/infrastructure/logger"
	"github.com/inventree/backend/internal/infrastructure/telemetry"
	"github.com/inventree/backend/internal/interfaces/http/dto"
	"github.com/inventree/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineOption configures optional middleware of the engine
type EngineOption func(*engineOptions)

type engineOptions struct {
	tracingService string
}

// WithTracing adds request tracing under the given service name
func WithTracing(serviceName string) EngineOption {
	return func(o *engineOptions) {
		o.tracingService = serviceName
	}
}

// NewEngine builds a gin engine with the standard middleware chain:
// recovery, request logging, optional tracing, security headers, CORS,
// metrics, body limit and request timeout. Unknown routes answer with the
// standard error envelope.
func NewEngine(cfg config.HTTPConfig, log *zap.Logger, mp *telemetry.MeterProvider, opts ...EngineOption) (*gin.Engine, error) {
	var options engineOptions
	for _, opt := range opts {
		opt(&options)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	chain := []gin.HandlerFunc{
		logger.Recovery(log),
		logger.GinMiddleware(log),
	}
	if options.tracingService != "" {
		chain = append(chain, middleware.Tracing(options.tracingService)...)
	}
	chain = append(chain,
		middleware.Secure(),
		middleware.CORS(cfg.CORSOrigins...),
		middleware.HTTPMetrics(mp, log),
		middleware.BodyLimit(cfg.MaxBodySize),
		middleware.Timeout(cfg.RequestTimeout),
	)
	engine.Use(chain...)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	return engine, nil
}

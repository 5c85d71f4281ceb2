package handlers

import (
	_ "visiverse/docs"
	"visiverse/internal/logger"
	"visiverse/internal/metrics"
	"visiverse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	sessions sessions.Store
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// Option customizes a Handler.
type Option func(*Handler)

// WithSessions enables cookie sessions: sign-in stores the issued token in the
// session and protected routes accept it in place of a bearer header.
func WithSessions(store sessions.Store) Option {
	return func(h *Handler) { h.sessions = store }
}

// WithMetrics exposes m on GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)
	h.registerFileRoutes(router)

	// scan status stream, same port; browsers authenticate with the session cookie
	router.GET("/ws", h.userIdentity, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
		auth.POST("/sign-out", h.signOut)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdentity)
	{
		h.registerLibraryRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerLibraryRoutes(api *gin.RouterGroup) {
	api.GET("/media", h.listMedia)
	api.GET("/media/:id", h.getMedia)
	api.GET("/people/:id", h.getPerson)
	api.GET("/orgs/:id", h.getOrganization)
	api.GET("/collections/:id", h.getCollection)
	api.GET("/tags", h.listTags)

	library := api.Group("/library")
	{
		library.GET("/status", h.getScanState)
		library.POST("/scan", h.startScan)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	api.GET("/logs", h.getLogs)
}

func (h *Handler) registerFileRoutes(r *gin.Engine) {
	files := r.Group("/files", h.userIdentity)
	{
		files.GET("/media/:id", h.serveMedia)
		files.GET("/thumbs/:id", h.serveThumb)
	}
}

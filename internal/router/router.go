package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/campushub/backend/api/handler"
)

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	Deadline *apiHandler.DeadlineHandler
	Sync     *apiHandler.SyncHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	// Protected routes
	r.GET("/api/v1/deadlines", authMiddleware(handlers.Deadline.List))
	r.POST("/api/v1/deadlines/ingest", authMiddleware(handlers.Deadline.Ingest))
	r.POST("/api/v1/deadlines/{id}/complete", authMiddleware(handlers.Deadline.Complete))

	r.POST("/api/v1/sync/mirror", authMiddleware(handlers.Sync.TriggerMirror))
	r.POST("/api/v1/sync/plan", authMiddleware(handlers.Sync.TriggerStudyPlan))
	r.GET("/api/v1/sync/runs", authMiddleware(handlers.Sync.ListRuns))

	return r
}

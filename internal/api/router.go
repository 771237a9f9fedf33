package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/capture"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/service"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/web"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/ws"
)

type Dependencies struct {
	Session      *service.Session
	Loader       *service.ModelLoader
	Frames       capture.FrameSource
	Hub          *ws.Hub
	RateLimitMax int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	var state middleware.StateFunc
	if deps != nil && deps.Session != nil {
		state = deps.Session.State
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger, state),
		AppName:      "Rekko Kiosk",
		BodyLimit:    8 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var ready handler.ReadyChecker
	if r.deps != nil && r.deps.Loader != nil {
		ready = r.deps.Loader
	}
	healthHandler := handler.NewHealthHandler(ready)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")

	// Session routes
	sessionHandler := handler.NewSessionHandler(r.deps.Session)
	v1.Get("/session", sessionHandler.State)
	v1.Get("/session/users", sessionHandler.Users)

	// Rate limiting per client IP, flow endpoints only
	limiterConfig := middleware.DefaultRateLimiterConfig()
	if r.deps.RateLimitMax > 0 {
		limiterConfig.Max = r.deps.RateLimitMax
	}
	r.rateLimiter = middleware.NewRateLimiter(limiterConfig)
	v1.Post("/session/register", r.rateLimiter.Handler(), sessionHandler.Register)
	v1.Post("/session/recognize", r.rateLimiter.Handler(), sessionHandler.Recognize)

	// Capture routes
	captureHandler := handler.NewCaptureHandler(r.deps.Frames, r.logger)
	v1.Put("/capture/frame", captureHandler.PutFrame)
	v1.Get("/capture/frame", captureHandler.GetFrame)

	// WebSocket endpoint
	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)

		snapshot := func() interface{} { return r.deps.Session.State() }
		v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub, snapshot))
	}

	// Kiosk page
	r.app.Use("/", filesystem.New(filesystem.Config{
		Root:   web.FS(),
		Index:  "index.html",
		MaxAge: int((5 * time.Minute).Seconds()),
	}))
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop WebSocket hub
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}

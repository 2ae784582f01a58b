package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "marketChat/docs"
	"marketChat/internal/handlers"
	"marketChat/internal/logger"
	"marketChat/internal/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	JwtSecret       []byte
}

type HttpServer struct {
	config      Config
	router      *gin.Engine
	restHandler *handlers.RestHandler
	log         *zap.SugaredLogger
	onShutdown  []func()
}

func NewHttpServer(config Config, restHandler *handlers.RestHandler, log *zap.SugaredLogger) *HttpServer {
	if config.Port == 0 {
		config.Port = 8000
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	return &HttpServer{
		config:      config,
		restHandler: restHandler,
		log:         log,
	}
}

// OnShutdown registers fn to run after the listener has drained.
func (hs *HttpServer) OnShutdown(fn func()) {
	hs.onShutdown = append(hs.onShutdown, fn)
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (hs *HttpServer) Run() {
	server := hs.startServer()
	hs.waitForShutdown(server)
}

// Handler builds the router on first use.
func (hs *HttpServer) Handler() http.Handler {
	if hs.router == nil {
		hs.initializeGin()
		hs.setupRestfulRoutes()
	}
	return hs.router
}

func (hs *HttpServer) initializeGin() {
	hs.router = gin.New()
	hs.router.Use(gin.Recovery(), logger.GinMiddleware(hs.log))
}

func (hs *HttpServer) setupRestfulRoutes() {
	hs.router.GET("/healthz", hs.restHandler.Health)
	hs.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	hs.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := hs.router.Group("/api/v1", handlers.MustAuthenticateMiddleware(hs.config.JwtSecret))
	{
		api.POST("/conversations", hs.restHandler.CreateConversation)
		api.GET("/conversations", hs.restHandler.GetUserConversations)
		api.GET("/conversations/:id", hs.restHandler.GetConversation)
		api.GET("/conversations/:id/messages", hs.restHandler.GetMessagesByConversationID)

		api.POST("/messages", hs.restHandler.SaveMessage)
		api.GET("/messages/:id", hs.restHandler.GetMessage)

		api.GET("/notifications", hs.restHandler.GetNotifications)
		api.PATCH("/notifications/read", hs.restHandler.MarkNotificationsRead)
	}
}

func (hs *HttpServer) startServer() *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", hs.config.Port),
		Handler:      hs.Handler(),
		ReadTimeout:  hs.config.ReadTimeout,
		WriteTimeout: hs.config.WriteTimeout,
	}

	go func() {
		hs.log.Infow("HTTP server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hs.log.Fatalw("Failed to start server", "error", err)
		}
	}()

	return server
}

func (hs *HttpServer) waitForShutdown(server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	hs.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), hs.config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		hs.log.Errorw("Server forced to shutdown", "error", err)
	}

	for _, fn := range hs.onShutdown {
		fn()
	}
	hs.log.Info("Server exiting")
}

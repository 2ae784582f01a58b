package app

import (
	"context"
	"sync"

	"marketChat/configs"
	"marketChat/internal/cache"
	"marketChat/internal/handlers"
	"marketChat/internal/logger"
	"marketChat/internal/metrics"
	"marketChat/internal/queue"
	"marketChat/internal/repositories"
	"marketChat/internal/servers/database"
	"marketChat/internal/servers/http"
	"marketChat/internal/services"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	app  *App
	once sync.Once
)

var (
	_ services.ConversationStore = (*repositories.ChatRepository)(nil)
	_ services.MessageStore      = (*repositories.ChatRepository)(nil)
	_ services.NotificationStore = (*repositories.NotificationRepository)(nil)
	_ services.UserDirectory     = (*cache.UserCache)(nil)
	_ services.Dispatcher        = (*queue.Dispatcher)(nil)
	_ services.Dispatcher        = (*services.NotificationService)(nil)
)

type App struct {
	ctx     context.Context
	configs *configs.Config
	log     *zap.SugaredLogger
	redis   *redis.Client
}

func GetApp() *App {
	once.Do(func() {
		app = &App{}
	})
	return app
}

func (app *App) LetsGo() {
	app.ctx = context.Background()
	app.initializeConfigs()
	app.initializeLogger()
	defer func() { _ = app.log.Sync() }()
	app.initializeRedis()

	v := app.configs.Viper
	queryTimeout := v.GetDuration("database.query_timeout")

	db := database.GetDB(app.configs, app.log)
	chatRepo := repositories.NewChatRepository(db, queryTimeout)
	notificationRepo := repositories.NewNotificationRepository(db, queryTimeout)
	userRepo := repositories.NewUserRepository(db, queryTimeout)
	userCache := cache.NewUserCache(userRepo, app.redis, v.GetDuration("cache.user_ttl"), app.log)

	chatMetrics := metrics.New(prometheus.DefaultRegisterer)
	guard := services.NewMembershipGuard(chatRepo, app.log)
	notificationService := services.NewNotificationService(notificationRepo, nil, app.log)

	var dispatcher services.Dispatcher = notificationService
	var shutdownHooks []func()
	if v.GetBool("notifications.async") {
		redisOpt := asynq.RedisClientOpt{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		}
		queueName := v.GetString("notifications.queue")

		worker := queue.NewWorker(redisOpt, queueName, v.GetInt("asynq.concurrency"), notificationService, app.log)
		if err := worker.Start(); err != nil {
			app.log.Fatalw("Failed to start notification worker", "error", err)
		}
		queueDispatcher := queue.NewDispatcher(redisOpt, queueName, v.GetInt("notifications.max_retry"), app.log)
		dispatcher = queueDispatcher

		shutdownHooks = append(shutdownHooks, worker.Shutdown, func() {
			if err := queueDispatcher.Close(); err != nil {
				app.log.Warnw("Failed to close notification queue client", "error", err)
			}
		})
		app.log.Infow("Notifications dispatched through queue", "queue", queueName)
	}

	chatService := services.NewChatService(
		chatRepo,
		chatRepo,
		userCache,
		guard,
		dispatcher,
		chatMetrics,
		app.log,
		services.ChatServiceConfig{
			RecentWindow:     v.GetInt("chat.recent_window"),
			MaxMessageLength: v.GetInt("chat.max_message_length"),
		},
	)

	restHandler := handlers.NewRestHandler(chatService, notificationService, app.log)

	secret := v.GetString("jwt.secret")
	if secret == "" {
		app.log.Fatal("jwt.secret must be set")
	}

	server := http.NewHttpServer(http.Config{
		Port:            v.GetInt("server.port"),
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		JwtSecret:       []byte(secret),
	}, restHandler, app.log)
	for _, hook := range shutdownHooks {
		server.OnShutdown(hook)
	}
	server.OnShutdown(func() {
		if err := app.redis.Close(); err != nil {
			app.log.Warnw("Failed to close redis client", "error", err)
		}
	})

	server.Run()
}

func (app *App) initializeRedis() {
	v := app.configs.Viper
	app.redis = redis.NewClient(&redis.Options{
		Addr:     v.GetString("redis.addr"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	})
	if err := app.redis.Ping(app.ctx).Err(); err != nil {
		app.log.Warnw("Redis unavailable, user lookups will bypass the cache", "error", err)
	}
}

func (app *App) initializeConfigs() {
	app.configs = configs.GetConfig()
}

func (app *App) initializeLogger() {
	log, err := logger.New(logger.Config{Development: app.configs.Viper.GetBool("log.development")})
	if err != nil {
		panic(err)
	}
	app.log = log
}

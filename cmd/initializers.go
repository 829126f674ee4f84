package main

import (
	"fmt"
	"net/http"
	"time"

	"tripops/app/handler"
	"tripops/app/router"
	"tripops/internal/jobs"
	"tripops/internal/service"
	"tripops/pkg/breaker"
	"tripops/pkg/config"
	"tripops/pkg/logger"
	asynqqueue "tripops/pkg/queue/asynq"
	"tripops/pkg/schedule"
	mysqlstore "tripops/pkg/store/mysql"
	redisstore "tripops/pkg/store/redis"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.Sync()
		logger.InfoCtx(app.ctx, "Logging system has been closed")
	})
	return nil
}

// initMySQL initializes MySQL
func (app *Application) initMySQL() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		app.config.MySQL.User,
		app.config.MySQL.Password,
		app.config.MySQL.Host,
		app.config.MySQL.Port,
		app.config.MySQL.Database,
	)

	repo, err := mysqlstore.NewRepository(dsn)
	if err != nil {
		return err
	}

	app.mysqlRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})

	return nil
}

// initRedis initializes Redis
func (app *Application) initRedis() error {
	client, err := redisstore.NewRedisClient(app.config)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// initQueue initializes the queue client and inspector
func (app *Application) initQueue() error {
	manager := asynqqueue.NewManager(asynq.RedisClientOpt{
		Addr:     app.config.Redis.Addr,
		Password: app.config.Redis.Password,
		DB:       app.config.Redis.DB,
	})

	app.queueManager = manager
	app.registerCleanup(func() {
		manager.Close()
		logger.InfoCtx(app.ctx, "Queue manager has been closed")
	})

	return nil
}

// initRegistries initializes the breaker and schedule registries
func (app *Application) initRegistries() error {
	services := make([]string, 0, len(app.config.Probe.Services))
	for _, svc := range app.config.Probe.Services {
		services = append(services, svc.Name)
	}

	app.breakerRegistry = breaker.NewRegistry(
		app.redisClient.GetClient(),
		services,
		app.config.Breaker.FailureThreshold,
		time.Duration(app.config.Breaker.CooldownSeconds)*time.Second,
	)
	app.scheduleRegistry = schedule.NewRegistry()

	return nil
}

// initServices initializes the service layer
func (app *Application) initServices() error {
	app.operationsService = service.NewOperationsService(
		app.mysqlRepo.Job,
		app.queueManager,
		app.breakerRegistry,
		app.scheduleRegistry,
	)
	app.jobService = service.NewJobService(
		app.mysqlRepo.Job,
		app.queueManager,
		app.scheduleRegistry,
	)
	return nil
}

// initHandlers initializes the handler layer
func (app *Application) initHandlers() error {
	app.operationsHandler = handler.NewOperationsHandler(app.operationsService, app.breakerRegistry)
	app.jobHandler = handler.NewJobHandler(app.jobService)
	return nil
}

// initJobs initializes background tasks
func (app *Application) initJobs() error {
	app.jobsManager = jobs.NewManager(app.ctx)

	if len(app.config.Probe.Services) > 0 {
		app.jobsManager.Register(jobs.NewProbeJob(app.breakerRegistry, app.config.Probe))
	}

	return nil
}

// initHTTPServer initializes the HTTP server
func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.ginEngine = gin.New()
	router.NewRouter(app.operationsHandler, app.jobHandler).Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}

	return nil
}

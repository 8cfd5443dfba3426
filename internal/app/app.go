package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"course_authoring_backend/internal/config"
	"course_authoring_backend/internal/controller"
	"course_authoring_backend/internal/middleware"
	"course_authoring_backend/internal/repository"
	"course_authoring_backend/internal/service"
	"course_authoring_backend/pkg/configwatcher"
	"course_authoring_backend/pkg/database"
	"course_authoring_backend/pkg/logger"
	"course_authoring_backend/pkg/monitoring"
	"course_authoring_backend/pkg/security"
	"course_authoring_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	tracerProvider  *sdktrace.TracerProvider
	services        *services
	configCallbacks []configwatcher.OnReload
}

type repositories struct {
	user     *repository.UserRepository
	category *repository.CategoryRepository
	course   *repository.CourseRepository
}

type services struct {
	locator   service.MediaLocator
	durations *service.VideoDurationService
	category  *service.CategoryService
	course    *service.CourseService
}

type controllers struct {
	course *controller.CourseController
	video  *controller.VideoController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback configwatcher.OnReload) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		category: repository.NewCategoryRepository(db),
		course:   repository.NewCourseRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.locator = service.NewMediaLocator(&cfg.Storage)
	s.durations = service.NewVideoDurationService(cfg.YouTube)
	s.category = service.NewCategoryService(repos.category)

	// 未启用 Redis 时不做幂等重放
	var idempotency service.IdempotencyStore
	if rdb != nil {
		idempotency = service.NewRedisIdempotencyStore(rdb, cfg.Ingestion.IdempotencyTTL())
	}

	s.course = service.NewCourseService(
		db,
		repos.course,
		repos.user,
		s.category,
		service.NewLessonResourceMerger(cfg.Ingestion.DefaultVideoProvider, s.locator),
		s.durations,
		idempotency,
		cfg.Ingestion,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		course: controller.NewCourseController(s.course, s.category),
		video:  controller.NewVideoController(s.durations),
		health: controller.NewHealthController(db, rdb, s.locator),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.RequestID())
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, err
	}

	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app, nil
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}
	app.Redis = rdb

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("course-authoring", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracerProvider = tp
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 配置热更新时替换视频平台密钥
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.durations.SetAPIKey(newCfg.YouTube.APIKey)
	})

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app, nil
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.Config.FilePath != "" {
		go func() {
			if err := configwatcher.Watch(ctx, a.Config.FilePath, a.configCallbacks...); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}

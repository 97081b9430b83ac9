package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/h2gazer/internal/api/handlers"
	"github.com/langchou/h2gazer/internal/config"
	"github.com/langchou/h2gazer/internal/fixture"
	"github.com/langchou/h2gazer/internal/mapview"
	"github.com/langchou/h2gazer/internal/pipeline"
	"github.com/langchou/h2gazer/internal/repository"
	"github.com/langchou/h2gazer/internal/service"
	"github.com/langchou/h2gazer/internal/telemetry"
	"github.com/langchou/h2gazer/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting H2gazer",
		zap.String("port", cfg.ServerPort),
		zap.String("telemetry_backend", cfg.TelemetryBackend),
		zap.String("telemetry_path", cfg.TelemetryPath))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 静态数据与事件历史：有数据库时落库，否则使用内置车辆
	var (
		fixtures fixture.Store
		events   interface {
			service.EventRecorder
			service.EventHistory
		}
	)
	if cfg.DatabaseURL != "" {
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database migrated successfully")

		eventRepo := repository.NewEventRepository(db)
		store, err := fixture.Load(ctx, repository.NewVehicleRepository(db, eventRepo), cfg.DefaultVehicleID, logger)
		if err != nil {
			logger.Fatal("Failed to load fixtures", zap.Error(err))
		}
		fixtures, events = store, eventRepo
	} else {
		logger.Warn("DATABASE_URL not set, using built-in fleet and in-memory event log")
		store := fixture.NewStaticStore(fixture.Builtin(time.Now()), cfg.DefaultVehicleID)
		fixtures, events = store, service.NewMemoryEventLog(store, 0)
	}

	// 遥测源
	backend, err := telemetry.Open(ctx, telemetry.BackendConfig{
		Kind:          cfg.TelemetryBackend,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		NATSURL:       cfg.NATSURL,
		NATSKVBucket:  cfg.NATSKVBucket,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open telemetry source", zap.Error(err))
	}
	defer backend.Close()

	paths := telemetry.PathResolver{Template: cfg.TelemetryPath}

	// 内存模式下在进程内模拟传感器
	if cfg.TelemetryBackend == config.BackendMemory {
		sim := telemetry.NewSimulator(backend, simulatorPaths(paths, fixtures), cfg.SimulatorInterval, logger)
		go sim.Run(ctx)
	}

	// 订阅管理器
	assembler := pipeline.NewAssembler()
	assembler.LeakThreshold = cfg.LeakThreshold
	assembler.AmbientTemperature = cfg.AmbientTemperature

	monitor := service.NewMonitor(service.Options{
		Paths:        paths,
		SignalSource: service.SignalSource(cfg.SignalSource),
		Assembler:    assembler,
	}, logger, backend, fixtures, events)

	if err := monitor.Start(ctx); err != nil {
		logger.Fatal("Failed to start monitor", zap.Error(err))
	}

	// 地图客户端
	mapClient := mapview.NewClient(logger)
	if err := mapClient.Init(ctx, mapview.Options{}); err != nil {
		logger.Error("Failed to initialize map client", zap.Error(err))
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	wsHub.SetInitDataProvider(func() interface{} {
		return handlers.NewDashboardView(monitor.Dashboard(), time.Now())
	})
	go wsHub.Run(ctx)

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, monitor, fixtures, events, mapClient, wsHub)

	// 订阅看板更新并广播到 WebSocket
	go handler.ForwardDashboards(monitor.Subscribe())

	if cfg.InitialVehicleID != "" {
		if err := monitor.Select(ctx, cfg.InitialVehicleID); err != nil {
			logger.Error("Failed to select initial vehicle", zap.Error(err))
		}
	}

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止服务
	monitor.Stop()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// simulatorPaths 共享路径只写一份，否则每辆车一份
func simulatorPaths(paths telemetry.PathResolver, fixtures fixture.Store) []string {
	if paths.Shared() {
		return []string{paths.PathFor("")}
	}
	ids := fixtures.IDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, paths.PathFor(id))
	}
	return out
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saasadmin/internal/database"
	"saasadmin/internal/router"
	"saasadmin/internal/services"
	"saasadmin/pkg/config"
	"saasadmin/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Initialize(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting SaaS admin server...")

	// 初始化数据库
	if err := database.Initialize(cfg.Database); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		if err := database.CloseRedis(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	db := database.GetDB()
	if err := database.Migrate(db); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	agentService := services.NewAgentService(db, cfg.Hierarchy.MaxLevel)
	tenantService := services.NewTenantService(db)

	if err := seedData(agentService); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	redisQueue := database.InitializeRedis(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisQueue.Ping(pingCtx); err != nil {
		appLogger.Warnf("Redis unavailable, expiry notices will fail until it recovers: %v", err)
	}
	cancel()

	// 到期提醒调度器，失败不影响主服务启动
	if cfg.Notifier.Enabled {
		notifier := services.NewExpiryNotifier(agentService, tenantService, redisQueue, cfg.Notifier)
		if err := notifier.Start(); err != nil {
			appLogger.Errorf("Failed to start expiry notifier: %v", err)
		} else {
			defer notifier.Stop()
		}
	}

	r := router.SetupRouter(cfg, db, redisQueue)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}

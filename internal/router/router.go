package router

import (
	"saasadmin/internal/handlers"
	"saasadmin/internal/middleware"
	"saasadmin/internal/services"
	"saasadmin/internal/validation"
	"saasadmin/pkg/config"
	"saasadmin/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter 设置路由。notices 为 nil 时健康检查不探测 Redis，也不注册提醒接口
func SetupRouter(cfg *config.Config, db *gorm.DB, notices handlers.NoticeQueue) *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(middleware.Recover())
	router.Use(middleware.Trace())
	router.Use(middleware.SetupCORS(cfg.CORS))

	if err := validation.RegisterWithGin(); err != nil {
		logger.GetLogger().Warnf("注册校验规则失败: %v", err)
	}

	registerRoutes(router, cfg, db, notices)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine, cfg *config.Config, db *gorm.DB, notices handlers.NoticeQueue) {
	agentService := services.NewAgentService(db, cfg.Hierarchy.MaxLevel)
	tenantService := services.NewTenantService(db)

	agentHandler := handlers.NewAgentHandler(agentService)
	tenantHandler := handlers.NewTenantHandler(tenantService)
	appHandler := handlers.NewAppConfigHandler(services.NewAppConfigService(db))
	usageHandler := handlers.NewUsageHandler(services.NewUsageService(db))
	systemHandler := handlers.NewSystemHandler(db, notices)

	api := router.Group("/api/v1")
	api.GET("/health", systemHandler.Health)

	// 以下接口记录操作人
	api.Use(middleware.Operator())

	options := api.Group("/options")
	{
		options.GET("/statuses", systemHandler.StatusOptions)
		options.GET("/app-types", systemHandler.AppTypeOptions)
		options.GET("/user-types", systemHandler.UserTypeOptions)
	}

	agents := api.Group("/agents")
	{
		agents.GET("", agentHandler.List)
		agents.POST("", agentHandler.Create)
		agents.GET("/tree", agentHandler.Tree)
		agents.GET("/statistics", agentHandler.Statistics)
		agents.GET("/expiring", agentHandler.Expiring)
		agents.GET("/high-usage", agentHandler.HighUsage)
		agents.GET("/status-options", agentHandler.StatusOptions)
		agents.POST("/batch-status", agentHandler.BatchStatus)

		agents.GET("/:id", agentHandler.GetByID)
		agents.PUT("/:id", agentHandler.Update)
		agents.DELETE("/:id", agentHandler.Delete)
		agents.GET("/:id/scope", agentHandler.Scope)
		agents.POST("/:id/reset-quota", agentHandler.ResetQuota)
		agents.POST("/:id/adjust-quota", agentHandler.AdjustQuota)
	}

	tenants := api.Group("/tenants")
	{
		tenants.GET("", tenantHandler.List)
		tenants.POST("", tenantHandler.Create)
		tenants.GET("/statistics", tenantHandler.Statistics)
		tenants.GET("/expiring", tenantHandler.Expiring)
		tenants.GET("/high-usage", tenantHandler.HighUsage)
		tenants.GET("/status-options", tenantHandler.StatusOptions)
		tenants.POST("/batch-status", tenantHandler.BatchStatus)

		tenants.GET("/:id", tenantHandler.GetByID)
		tenants.PUT("/:id", tenantHandler.Update)
		tenants.DELETE("/:id", tenantHandler.Delete)
		tenants.POST("/:id/reset-quota", tenantHandler.ResetQuota)
		tenants.POST("/:id/adjust-quota", tenantHandler.AdjustQuota)

		// 应用配置
		tenants.GET("/:id/apps", appHandler.List)
		tenants.POST("/:id/apps", appHandler.Create)
		tenants.GET("/:id/apps/:app_id", appHandler.GetByID)
		tenants.PUT("/:id/apps/:app_id", appHandler.Update)
		tenants.DELETE("/:id/apps/:app_id", appHandler.Delete)
		tenants.PUT("/:id/apps/:app_id/status", appHandler.SetStatus)
		tenants.POST("/:id/apps/:app_id/reset-quota", appHandler.ResetQuota)

		// 使用记录
		tenants.POST("/:id/usage", usageHandler.Record)
		tenants.GET("/:id/usage", usageHandler.List)
		tenants.GET("/:id/usage/summary", usageHandler.Summary)
	}

	if notices != nil {
		noticeHandler := handlers.NewNoticeHandler(notices, cfg.Notifier.QueueName)
		api.GET("/notices", noticeHandler.Pull)
		api.GET("/notices/stats", noticeHandler.Stats)
	}
}

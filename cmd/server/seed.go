package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"saasadmin/internal/models"
	"saasadmin/internal/services"
	"saasadmin/pkg/errors"
	"saasadmin/pkg/logger"
)

const (
	headquartersCode  = "HQ"
	headquartersQuota = 1000000
)

// seedData 初始化种子数据
func seedData(agentService *services.AgentService) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	if err := createHeadquarters(agentService); err != nil {
		return fmt.Errorf("创建总部代理失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createHeadquarters 创建顶级总部代理及其管理员
func createHeadquarters(agentService *services.AgentService) error {
	_, err := agentService.FindByCode(headquartersCode)
	if err == nil {
		logger.GetLogger().Info("总部代理已存在，跳过创建")
		return nil
	}
	if !stderrors.Is(err, errors.ErrNotFound) {
		return err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "Admin@123"
	}
	quota := float64(headquartersQuota)

	hq, err := agentService.Create(0, &models.CreateAgentRequest{
		Name:        "总部",
		Code:        headquartersCode,
		ContactName: "系统管理员",
		Status:      models.StatusNormal,
		QuotaLimit:  &quota,
		AdminUser: &models.AdminUserRequest{
			Username: "admin",
			Password: password,
			Nickname: "系统管理员",
		},
	})
	if err != nil {
		return err
	}

	logger.GetLogger().WithField("agent_id", hq.ID).Info("总部代理创建成功")
	return nil
}

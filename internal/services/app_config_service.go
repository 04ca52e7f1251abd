package services

import (
	"time"

	"saasadmin/internal/models"
	"saasadmin/internal/repository"
	"saasadmin/pkg/errors"
	"saasadmin/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AppConfigService 租户AI应用配置服务
type AppConfigService struct {
	db      *gorm.DB
	apps    *repository.AppConfigRepository
	tenants *repository.TenantRepository
	log     *logrus.Logger

	now func() time.Time
}

func NewAppConfigService(db *gorm.DB) *AppConfigService {
	return &AppConfigService{
		db:      db,
		apps:    repository.NewAppConfigRepository(db),
		tenants: repository.NewTenantRepository(db),
		log:     logger.GetLogger(),
		now:     time.Now,
	}
}

// Create 为租户新增应用配置
func (s *AppConfigService) Create(operatorID, tenantID uint, req *models.CreateAppConfigRequest) (*models.TenantAppConfig, error) {
	if _, err := s.tenants.GetByID(tenantID); err != nil {
		return nil, err
	}

	cfg := &models.TenantAppConfig{
		TenantID: tenantID,
		AppType:  req.AppType,
		AppName:  req.AppName,
		Config:   req.Config,
		Status:   req.Status,
		Remark:   req.Remark,
	}
	if cfg.Status == 0 {
		cfg.Status = models.StatusNormal
	}
	if req.QuotaLimit != nil {
		cfg.QuotaLimit = *req.QuotaLimit
	}
	cfg.CreatedBy = operatorID
	cfg.UpdatedBy = operatorID

	if err := s.apps.Create(cfg); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"app_id":    cfg.ID,
		"app_type":  cfg.AppType,
	}).Info("应用配置创建成功")
	return cfg, nil
}

func (s *AppConfigService) Get(tenantID, id uint) (*models.TenantAppConfig, error) {
	return s.apps.Get(tenantID, id)
}

func (s *AppConfigService) List(tenantID uint) ([]models.TenantAppConfig, error) {
	return s.apps.ListByTenant(tenantID)
}

// Update 更新应用配置，config 与已有配置合并
func (s *AppConfigService) Update(operatorID, tenantID, id uint, req *models.UpdateAppConfigRequest) (*models.TenantAppConfig, error) {
	cfg, err := s.apps.Get(tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.AppName != "" {
		cfg.AppName = req.AppName
	}
	if len(req.Config) > 0 {
		cfg.MergeConfig(req.Config)
	}
	if req.Status != 0 {
		cfg.Status = req.Status
	}
	if req.QuotaLimit != nil {
		cfg.QuotaLimit = *req.QuotaLimit
	}
	if req.Remark != "" {
		cfg.Remark = req.Remark
	}
	cfg.UpdatedBy = operatorID

	if err := s.apps.Update(cfg); err != nil {
		return nil, err
	}
	return s.apps.Get(tenantID, id)
}

// SetStatus 启用或禁用应用配置
func (s *AppConfigService) SetStatus(operatorID, tenantID, id uint, status models.Status) (*models.TenantAppConfig, error) {
	if !status.Valid() {
		return nil, errors.ErrInvalidStatus
	}
	cfg, err := s.apps.Get(tenantID, id)
	if err != nil {
		return nil, err
	}
	cfg.Status = status
	cfg.UpdatedBy = operatorID
	if err := s.apps.Update(cfg); err != nil {
		return nil, err
	}
	return s.apps.Get(tenantID, id)
}

// ResetQuota 清零应用已用配额，newLimit 非空时同时重设限额
func (s *AppConfigService) ResetQuota(operatorID, tenantID, id uint, newLimit *float64) (*models.TenantAppConfig, error) {
	if newLimit != nil && *newLimit < 0 {
		return nil, errors.ErrInvalidQuota
	}

	var cfg *models.TenantAppConfig
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.apps.WithTx(tx)
		if _, err := repo.Get(tenantID, id); err != nil {
			return err
		}
		if err := repo.ResetQuota(id, newLimit, operatorID); err != nil {
			return err
		}
		var err error
		cfg, err = repo.Get(tenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Views 按所属租户当前状态计算应用配置的可用性
func (s *AppConfigService) Views(tenantID uint, cfgs ...models.TenantAppConfig) ([]models.AppConfigView, error) {
	tenant, err := s.tenants.GetByID(tenantID)
	if err != nil {
		return nil, err
	}
	return models.NewAppConfigViews(cfgs, tenant, s.now()), nil
}

// Delete 软删除应用配置
func (s *AppConfigService) Delete(tenantID, id uint) error {
	cfg, err := s.apps.Get(tenantID, id)
	if err != nil {
		return err
	}
	if err := s.apps.Delete(cfg); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"app_id":    id,
	}).Info("应用配置已删除")
	return nil
}

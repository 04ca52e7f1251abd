package services

import (
	stderrors "errors"
	"time"

	"saasadmin/internal/models"
	"saasadmin/internal/repository"
	"saasadmin/pkg/errors"
	"saasadmin/pkg/logger"
	"saasadmin/pkg/pagination"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TenantService 租户生命周期服务
type TenantService struct {
	db      *gorm.DB
	tenants *repository.TenantRepository
	agents  *repository.AgentRepository
	usage   *repository.UsageLogRepository
	apps    *repository.AppConfigRepository
	log     *logrus.Logger

	now     func() time.Time
	genCode CodeGenerator
}

// NewTenantService 创建租户服务
func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{
		db:      db,
		tenants: repository.NewTenantRepository(db),
		agents:  repository.NewAgentRepository(db),
		usage:   repository.NewUsageLogRepository(db),
		apps:    repository.NewAppConfigRepository(db),
		log:     logger.GetLogger(),
		now:     time.Now,
		genCode: DefaultCodeGenerator,
	}
}

func (s *TenantService) GetInfo(id uint) (*models.Tenant, error) {
	return s.tenants.GetByID(id)
}

func (s *TenantService) FindByCode(code string) (*models.Tenant, error) {
	return s.tenants.GetByCode(code)
}

// List 分页查询租户
func (s *TenantService) List(filter repository.TenantFilter, page *pagination.PageParams) ([]models.Tenant, int64, error) {
	return s.tenants.List(filter, page, s.now())
}

// Create 创建租户：校验归属代理、生成编码、可选创建管理员
func (s *TenantService) Create(operatorID uint, req *models.CreateTenantRequest) (*models.Tenant, error) {
	now := s.now()
	tenant := &models.Tenant{
		Name:          req.Name,
		ParentAgentID: req.ParentAgentID,
		ContactName:   req.ContactName,
		ContactPhone:  req.ContactPhone,
		ContactEmail:  req.ContactEmail,
		Status:        req.Status,
		AIConfig:      req.AIConfig,
		ExpireAt:      req.ExpireAt,
		Remark:        req.Remark,
	}
	if tenant.Status == 0 {
		tenant.Status = models.StatusNormal
	}
	if req.QuotaLimit != nil {
		tenant.QuotaLimit = *req.QuotaLimit
	}
	tenant.CreatedBy = operatorID
	tenant.UpdatedBy = operatorID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.tenants.WithTx(tx)

		if tenant.ParentAgentID != 0 {
			if err := s.checkAgent(tx, tenant.ParentAgentID, now); err != nil {
				return err
			}
		}

		err := createWithCode(tx, req.Code,
			func() string { return s.genCode(tenantCodePrefix, now) },
			repo.CodeExists,
			func(db *gorm.DB, code string) error {
				tenant.Code = code
				return db.Create(tenant).Error
			})
		if err != nil {
			return err
		}

		if req.AdminUser != nil {
			return s.createAdminUser(repo, tenant, req.AdminUser, operatorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"code":      tenant.Code,
		"agent_id":  tenant.ParentAgentID,
		"operator":  operatorID,
	}).Info("租户创建成功")
	return tenant, nil
}

// checkAgent 归属代理必须存在且可用
func (s *TenantService) checkAgent(tx *gorm.DB, agentID uint, now time.Time) error {
	agent, err := s.agents.WithTx(tx).GetByID(agentID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return errors.ErrAgentNotFound
	}
	if err != nil {
		return err
	}
	if !agent.IsAvailable(now) {
		return errors.ErrAgentUnavailable
	}
	return nil
}

// UpdateByID 更新租户；归属代理变化时重新校验
func (s *TenantService) UpdateByID(operatorID, id uint, req *models.UpdateTenantRequest) (*models.Tenant, error) {
	now := s.now()
	var tenant *models.Tenant

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.tenants.WithTx(tx)

		var err error
		if tenant, err = repo.GetByID(id); err != nil {
			return err
		}

		if req.ParentAgentID != nil && *req.ParentAgentID != tenant.ParentAgentID {
			if *req.ParentAgentID != 0 {
				if err := s.checkAgent(tx, *req.ParentAgentID, now); err != nil {
					return err
				}
			}
			tenant.ParentAgentID = *req.ParentAgentID
		}

		if req.Code != "" && req.Code != tenant.Code {
			taken, err := repo.CodeExists(req.Code)
			if err != nil {
				return err
			}
			if taken {
				return errors.ErrCodeExists
			}
			tenant.Code = req.Code
		}
		applyTenantUpdate(tenant, req)
		tenant.UpdatedBy = operatorID

		if err := repo.Update(tenant); err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.ErrCodeExists
			}
			return err
		}
		if tenant, err = repo.GetByID(id); err != nil {
			return err
		}

		if req.AdminUser != nil {
			return s.createAdminUser(repo, tenant, req.AdminUser, operatorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"operator":  operatorID,
	}).Info("租户更新成功")
	return tenant, nil
}

func applyTenantUpdate(tenant *models.Tenant, req *models.UpdateTenantRequest) {
	if req.Name != "" {
		tenant.Name = req.Name
	}
	if req.ContactName != "" {
		tenant.ContactName = req.ContactName
	}
	if req.ContactPhone != "" {
		tenant.ContactPhone = req.ContactPhone
	}
	if req.ContactEmail != "" {
		tenant.ContactEmail = req.ContactEmail
	}
	if req.Status != 0 {
		tenant.Status = req.Status
	}
	if req.AIConfig != nil {
		tenant.AIConfig = req.AIConfig
	}
	if req.QuotaLimit != nil {
		tenant.QuotaLimit = *req.QuotaLimit
	}
	if req.ExpireAt != nil {
		tenant.ExpireAt = req.ExpireAt
	}
	if req.Remark != "" {
		tenant.Remark = req.Remark
	}
}

// createAdminUser 创建租户管理员，个人配额默认继承租户限额
func (s *TenantService) createAdminUser(repo *repository.TenantRepository, tenant *models.Tenant,
	req *models.AdminUserRequest, operatorID uint) error {
	taken, err := repo.UsernameExists(tenant.ID, req.Username)
	if err != nil {
		return err
	}
	if taken {
		return errors.ErrUsernameExists
	}

	user := &models.TenantUser{
		TenantID: tenant.ID,
		Username: req.Username,
	}
	if err := fillAdminAccount(&user.Account, req); err != nil {
		return err
	}
	user.QuotaLimit = tenant.QuotaLimit
	if req.QuotaLimit != nil {
		user.QuotaLimit = *req.QuotaLimit
	}
	user.QuotaUsed = 0
	user.CreatedBy = operatorID
	user.UpdatedBy = operatorID

	if err := repo.CreateUser(user); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrUsernameExists
		}
		return err
	}
	return nil
}

// DeleteByID 删除租户，存在使用记录时拒绝
func (s *TenantService) DeleteByID(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.tenants.WithTx(tx)
		if _, err := repo.GetByID(id); err != nil {
			return err
		}

		used, err := s.usage.WithTx(tx).ExistsForTenant(id)
		if err != nil {
			return err
		}
		if used {
			return errors.ErrHasUsageRecords
		}

		return repo.Delete(id)
	})
	if err != nil {
		return err
	}

	s.log.WithField("tenant_id", id).Info("租户已删除")
	return nil
}

// GetDetail 租户详情：归属代理、用户与应用配置
func (s *TenantService) GetDetail(id uint) (*models.TenantDetail, error) {
	tenant, err := s.tenants.GetByID(id)
	if err != nil {
		return nil, err
	}

	detail := &models.TenantDetail{Tenant: tenant}
	if tenant.ParentAgentID != 0 {
		agent, err := s.agents.GetByID(tenant.ParentAgentID)
		if err != nil && !stderrors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		detail.Agent = agent
	}
	if detail.Users, err = s.tenants.Users(id); err != nil {
		return nil, err
	}
	if detail.AppConfigs, err = s.apps.ListByTenant(id); err != nil {
		return nil, err
	}
	return detail, nil
}

// ResetQuota 清零已用配额，newLimit 非空时同时重设限额
func (s *TenantService) ResetQuota(operatorID, id uint, newLimit *float64) (*models.Tenant, error) {
	if newLimit != nil && *newLimit < 0 {
		return nil, errors.ErrInvalidQuota
	}
	return s.mutateQuota(operatorID, id, func(repo *repository.TenantRepository, _ *models.Tenant) error {
		return repo.ResetQuota(id, newLimit, operatorID)
	})
}

// AdjustQuota 按 amount 增减限额，结果为负时拒绝；已用配额保持不变
func (s *TenantService) AdjustQuota(operatorID, id uint, amount float64) (*models.Tenant, error) {
	return s.mutateQuota(operatorID, id, func(repo *repository.TenantRepository, tenant *models.Tenant) error {
		if err := tenant.AdjustQuota(amount); err != nil {
			return err
		}
		return repo.AdjustQuota(id, amount, operatorID)
	})
}

// mutateQuota 在事务内执行配额写入并返回写入后的最新记录
func (s *TenantService) mutateQuota(operatorID, id uint, write func(*repository.TenantRepository, *models.Tenant) error) (*models.Tenant, error) {
	var tenant *models.Tenant
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.tenants.WithTx(tx)
		current, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if err := write(repo, current); err != nil {
			return err
		}
		tenant, err = repo.GetByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id":    id,
		"quota_limit": tenant.QuotaLimit,
		"quota_used":  tenant.QuotaUsed,
		"operator":    operatorID,
	}).Info("租户配额已调整")
	return tenant, nil
}

// GetStatistics 统计代理直属租户，agentID 为0时统计全部租户
func (s *TenantService) GetStatistics(agentID uint) (*models.Statistics, error) {
	return s.tenants.Statistics(agentID, s.now())
}

// GetExpiringTenants 状态正常且 days 天内到期的租户
func (s *TenantService) GetExpiringTenants(days int) ([]models.Tenant, error) {
	if days <= 0 {
		days = DefaultExpiringDays
	}
	return s.tenants.Expiring(s.now(), days)
}

// GetHighQuotaUsageTenants 状态正常且配额使用率不低于 threshold 的租户
func (s *TenantService) GetHighQuotaUsageTenants(threshold float64) ([]models.Tenant, error) {
	if threshold <= 0 {
		threshold = DefaultHighUsageThreshold
	}
	return s.tenants.HighUsage(threshold)
}

// BatchUpdateStatus 批量更新状态，返回受影响数量
func (s *TenantService) BatchUpdateStatus(operatorID uint, ids []uint, status models.Status) (int64, error) {
	if !status.Valid() {
		return 0, errors.ErrInvalidStatus
	}
	affected, err := s.tenants.BatchUpdateStatus(ids, status, operatorID)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{
		"ids":      ids,
		"status":   status,
		"affected": affected,
	}).Info("批量更新租户状态")
	return affected, nil
}

// StatusOptions 状态选项
func (s *TenantService) StatusOptions() []models.Option {
	return models.StatusOptions()
}

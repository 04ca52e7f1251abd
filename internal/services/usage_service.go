package services

import (
	"context"
	stderrors "errors"
	"time"

	"saasadmin/internal/models"
	"saasadmin/internal/quota"
	"saasadmin/internal/repository"
	"saasadmin/pkg/errors"
	"saasadmin/pkg/logger"
	"saasadmin/pkg/pagination"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UsageService 记录计费调用并扣减配额
type UsageService struct {
	db      *gorm.DB
	tenants *repository.TenantRepository
	apps    *repository.AppConfigRepository
	logs    *repository.UsageLogRepository
	log     *logrus.Logger

	now func() time.Time
}

func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{
		db:      db,
		tenants: repository.NewTenantRepository(db),
		apps:    repository.NewAppConfigRepository(db),
		logs:    repository.NewUsageLogRepository(db),
		log:     logger.GetLogger(),
		now:     time.Now,
	}
}

// Record 在一个事务内扣减租户、租户用户与应用配置的配额并写入使用日志。
// 任一扣减超限时整体回滚，返回 ErrQuotaExceeded。
func (s *UsageService) Record(ctx context.Context, tenantID uint, req *models.RecordUsageRequest) (*models.QuotaUsageLog, error) {
	now := s.now()
	entry := &models.QuotaUsageLog{
		TenantID:     tenantID,
		TenantUserID: req.TenantUserID,
		AppType:      req.AppType,
		ModelName:    req.ModelName,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		TotalTokens:  req.InputTokens + req.OutputTokens,
		Cost:         req.Cost,
		RequestID:    req.RequestID,
		RequestData:  req.RequestData,
		ResponseData: req.ResponseData,
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Remark:       req.Remark,
		CreatedAt:    now,
	}
	if entry.RequestID == "" {
		entry.RequestID = uuid.New().String()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenants := s.tenants.WithTx(tx)

		tenant, err := tenants.GetByID(tenantID)
		if err != nil {
			return err
		}
		if !tenant.IsAvailable(now) {
			return unavailable(tenant.Ledger, errors.ErrTenantUnavailable)
		}
		if err := tenants.AddUsage(tenantID, req.Cost); err != nil {
			return err
		}

		if req.TenantUserID != nil {
			user, err := tenants.GetUser(tenantID, *req.TenantUserID)
			if err != nil {
				return err
			}
			if !user.IsAvailable(tenant, now) {
				return unavailable(user.Ledger, errors.ErrTenantUnavailable.WithMessage("租户用户不可用"))
			}
			if err := tenants.AddUserUsage(user.ID, req.Cost); err != nil {
				return err
			}
		}

		apps := s.apps.WithTx(tx)
		cfg, err := apps.GetByAppType(tenantID, req.AppType)
		switch {
		case stderrors.Is(err, errors.ErrNotFound):
		case err != nil:
			return err
		default:
			if !cfg.IsAvailable(tenant, now) {
				return unavailable(cfg.Ledger, errors.ErrAppUnavailable)
			}
			if cfg.Models() != nil && !cfg.SupportsModel(req.ModelName) {
				return errors.ErrModelUnsupported
			}
			if err := apps.AddUsage(cfg.ID, req.Cost); err != nil {
				return err
			}
		}

		return s.logs.WithTx(tx).Create(entry)
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrQuotaExceeded) {
			s.log.WithFields(logrus.Fields{
				"tenant_id": tenantID,
				"app_type":  req.AppType,
				"cost":      req.Cost,
			}).Warn("配额不足，使用记录已拒绝")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"request_id": entry.RequestID,
		"model":      entry.ModelName,
		"tokens":     entry.TotalTokens,
		"cost":       entry.Cost,
	}).Debug("使用记录已写入")
	return entry, nil
}

// unavailable 配额已满时报告超限，否则返回停用错误
func unavailable(ledger quota.Ledger, disabled error) error {
	if ledger.IsQuotaExceeded() {
		return errors.ErrQuotaExceeded
	}
	return disabled
}

// List 分页查询租户使用日志
func (s *UsageService) List(tenantID uint, filter repository.UsageFilter, page *pagination.PageParams) ([]models.QuotaUsageLog, int64, error) {
	return s.logs.List(tenantID, filter, page)
}

// Summary 汇总租户在过滤范围内的调用次数、token 与费用
func (s *UsageService) Summary(tenantID uint, filter repository.UsageFilter) (*repository.UsageSummary, error) {
	if _, err := s.tenants.GetByID(tenantID); err != nil {
		return nil, err
	}
	return s.logs.Summary(tenantID, filter)
}

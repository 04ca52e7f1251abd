package repository

import (
	"time"

	"saasadmin/internal/models"
	"saasadmin/pkg/pagination"

	"gorm.io/gorm"
)

// ========== 应用配置 ==========

type AppConfigRepository struct {
	db *gorm.DB
}

func NewAppConfigRepository(db *gorm.DB) *AppConfigRepository {
	return &AppConfigRepository{db: db}
}

func (r *AppConfigRepository) WithTx(tx *gorm.DB) *AppConfigRepository {
	return &AppConfigRepository{db: tx}
}

func (r *AppConfigRepository) Create(cfg *models.TenantAppConfig) error {
	return r.db.Create(cfg).Error
}

// Update 写回可编辑字段，不覆盖已用配额
func (r *AppConfigRepository) Update(cfg *models.TenantAppConfig) error {
	return updateFields(r.db, cfg)
}

// Get 按租户与 id 查询
func (r *AppConfigRepository) Get(tenantID, id uint) (*models.TenantAppConfig, error) {
	var cfg models.TenantAppConfig
	if err := r.db.Where("tenant_id = ?", tenantID).First(&cfg, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &cfg, nil
}

// GetByAppType 租户下指定类型的首个应用配置
func (r *AppConfigRepository) GetByAppType(tenantID uint, appType models.AppType) (*models.TenantAppConfig, error) {
	var cfg models.TenantAppConfig
	err := r.db.Where("tenant_id = ? AND app_type = ?", tenantID, appType).Order("id ASC").First(&cfg).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &cfg, nil
}

func (r *AppConfigRepository) ListByTenant(tenantID uint) ([]models.TenantAppConfig, error) {
	var cfgs []models.TenantAppConfig
	err := r.db.Where("tenant_id = ?", tenantID).Order("id ASC").Find(&cfgs).Error
	return cfgs, err
}

func (r *AppConfigRepository) Delete(cfg *models.TenantAppConfig) error {
	return r.db.Delete(cfg).Error
}

// ResetQuota 清零应用已用配额，可同时重设限额
func (r *AppConfigRepository) ResetQuota(id uint, newLimit *float64, operatorID uint) error {
	return resetQuota(r.db, &models.TenantAppConfig{}, id, newLimit, operatorID)
}

// AddUsage 原子地增加应用已用配额
func (r *AppConfigRepository) AddUsage(id uint, amount float64) error {
	return addUsage(r.db, &models.TenantAppConfig{}, id, amount)
}

// ========== 使用日志 ==========

// UsageFilter 使用日志过滤条件
type UsageFilter struct {
	TenantUserID uint           `form:"tenant_user_id"`
	AppType      models.AppType `form:"app_type"`
	ModelName    string         `form:"model_name"`
	From         *time.Time     `form:"from" time_format:"2006-01-02"`
	To           *time.Time     `form:"to" time_format:"2006-01-02"`
}

func (f UsageFilter) scope(db *gorm.DB) *gorm.DB {
	if f.TenantUserID != 0 {
		db = db.Where("tenant_user_id = ?", f.TenantUserID)
	}
	if f.AppType != "" {
		db = db.Where("app_type = ?", f.AppType)
	}
	if f.ModelName != "" {
		db = db.Where("model_name = ?", f.ModelName)
	}
	if f.From != nil {
		db = db.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("created_at < ?", *f.To)
	}
	return db
}

// UsageSummary 使用汇总
type UsageSummary struct {
	Count        int64   `json:"count"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalTokens  int64   `json:"total_tokens"`
	Cost         float64 `json:"cost"`
}

type UsageLogRepository struct {
	db *gorm.DB
}

func NewUsageLogRepository(db *gorm.DB) *UsageLogRepository {
	return &UsageLogRepository{db: db}
}

func (r *UsageLogRepository) WithTx(tx *gorm.DB) *UsageLogRepository {
	return &UsageLogRepository{db: tx}
}

// Create 追加日志，日志不提供更新与删除
func (r *UsageLogRepository) Create(log *models.QuotaUsageLog) error {
	return r.db.Create(log).Error
}

func (r *UsageLogRepository) ExistsForTenant(tenantID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.QuotaUsageLog{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count > 0, err
}

func (r *UsageLogRepository) List(tenantID uint, filter UsageFilter, page *pagination.PageParams) ([]models.QuotaUsageLog, int64, error) {
	query := r.db.Model(&models.QuotaUsageLog{}).Where("tenant_id = ?", tenantID).Scopes(filter.scope)
	return paginate[models.QuotaUsageLog](query, page, "created_at DESC, id DESC")
}

func (r *UsageLogRepository) Summary(tenantID uint, filter UsageFilter) (*UsageSummary, error) {
	var summary UsageSummary
	err := r.db.Model(&models.QuotaUsageLog{}).
		Select("COUNT(*) AS count, COALESCE(SUM(input_tokens), 0) AS input_tokens, " +
			"COALESCE(SUM(output_tokens), 0) AS output_tokens, COALESCE(SUM(total_tokens), 0) AS total_tokens, " +
			"COALESCE(SUM(cost), 0) AS cost").
		Where("tenant_id = ?", tenantID).
		Scopes(filter.scope).
		Scan(&summary).Error
	return &summary, err
}

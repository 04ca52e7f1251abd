package repository

import (
	"time"

	"saasadmin/internal/models"
	"saasadmin/pkg/pagination"

	"gorm.io/gorm"
)

// TenantFilter 租户列表过滤条件
type TenantFilter struct {
	CommonFilter
	AgentID uint `form:"agent_id"`
}

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *TenantRepository) WithTx(tx *gorm.DB) *TenantRepository {
	return &TenantRepository{db: tx}
}

func (r *TenantRepository) Create(tenant *models.Tenant) error {
	return r.db.Create(tenant).Error
}

// Update 写回可编辑字段，不覆盖已用配额
func (r *TenantRepository) Update(tenant *models.Tenant) error {
	return updateFields(r.db, tenant)
}

func (r *TenantRepository) GetByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.First(&tenant, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tenant, nil
}

func (r *TenantRepository) GetByCode(code string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.Where("code = ?", code).First(&tenant).Error; err != nil {
		return nil, notFound(err)
	}
	return &tenant, nil
}

// CodeExists 编码是否已被占用（包含已软删除的记录）
func (r *TenantRepository) CodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.Tenant{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// ByAgents 归属于给定代理的租户
func (r *TenantRepository) ByAgents(agentIDs []uint) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if len(agentIDs) == 0 {
		return tenants, nil
	}
	err := r.db.Where("parent_agent_id IN ?", agentIDs).Order("id ASC").Find(&tenants).Error
	return tenants, err
}

// IDsByAgents 归属于给定代理的租户 id
func (r *TenantRepository) IDsByAgents(agentIDs []uint) ([]uint, error) {
	var ids []uint
	if len(agentIDs) == 0 {
		return ids, nil
	}
	err := r.db.Model(&models.Tenant{}).Where("parent_agent_id IN ?", agentIDs).
		Distinct().Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

func (r *TenantRepository) CountByAgent(agentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Tenant{}).Where("parent_agent_id = ?", agentID).Count(&count).Error
	return count, err
}

func (r *TenantRepository) List(filter TenantFilter, page *pagination.PageParams, now time.Time) ([]models.Tenant, int64, error) {
	query := r.db.Model(&models.Tenant{}).Scopes(filter.scope(now))
	if filter.AgentID != 0 {
		query = query.Where("parent_agent_id = ?", filter.AgentID)
	}
	return paginate[models.Tenant](query, page, "created_at DESC, id DESC")
}

// Statistics agentID 为0时统计全部租户，否则只统计该代理直属租户
func (r *TenantRepository) Statistics(agentID uint, now time.Time) (*models.Statistics, error) {
	return statistics(r.db, &models.Tenant{}, func(db *gorm.DB) *gorm.DB {
		if agentID != 0 {
			return db.Where("parent_agent_id = ?", agentID)
		}
		return db
	}, now)
}

func (r *TenantRepository) Expiring(now time.Time, days int) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := expiring(r.db, now, days).Order("expire_at ASC").Find(&tenants).Error
	return tenants, err
}

func (r *TenantRepository) HighUsage(threshold float64) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := highUsage(r.db, threshold).Order("id ASC").Find(&tenants).Error
	return tenants, err
}

// BatchUpdateStatus 批量更新状态，不存在的 id 忽略，返回受影响行数
func (r *TenantRepository) BatchUpdateStatus(ids []uint, status models.Status, operatorID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Tenant{}).Where("id IN ?", ids).Updates(map[string]interface{}{
		"status":     status,
		"updated_by": operatorID,
	})
	return result.RowsAffected, result.Error
}

// AddUsage 原子地增加租户已用配额
func (r *TenantRepository) AddUsage(id uint, amount float64) error {
	return addUsage(r.db, &models.Tenant{}, id, amount)
}

// AdjustQuota 原子地调整限额
func (r *TenantRepository) AdjustQuota(id uint, delta float64, operatorID uint) error {
	return adjustLimit(r.db, &models.Tenant{}, id, delta, operatorID)
}

// ResetQuota 清零已用配额，可同时重设限额
func (r *TenantRepository) ResetQuota(id uint, newLimit *float64, operatorID uint) error {
	return resetQuota(r.db, &models.Tenant{}, id, newLimit, operatorID)
}

func (r *TenantRepository) Delete(id uint) error {
	return r.db.Delete(&models.Tenant{}, id).Error
}

// ========== 租户用户 ==========

// UsernameExists 用户名在租户内唯一
func (r *TenantRepository) UsernameExists(tenantID uint, username string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.TenantUser{}).
		Where("tenant_id = ? AND username = ?", tenantID, username).
		Count(&count).Error
	return count > 0, err
}

func (r *TenantRepository) CreateUser(user *models.TenantUser) error {
	return r.db.Create(user).Error
}

func (r *TenantRepository) GetUser(tenantID, userID uint) (*models.TenantUser, error) {
	var user models.TenantUser
	if err := r.db.Where("tenant_id = ?", tenantID).First(&user, userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *TenantRepository) Users(tenantID uint) ([]models.TenantUser, error) {
	var users []models.TenantUser
	err := r.db.Where("tenant_id = ?", tenantID).Order("id ASC").Find(&users).Error
	return users, err
}

// AddUserUsage 原子地增加租户用户已用配额
func (r *TenantRepository) AddUserUsage(userID uint, amount float64) error {
	return addUsage(r.db, &models.TenantUser{}, userID, amount)
}

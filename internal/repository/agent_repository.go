package repository

import (
	"strconv"
	"time"

	"saasadmin/internal/models"
	"saasadmin/pkg/pagination"

	"gorm.io/gorm"
)

// AgentFilter 代理列表过滤条件
type AgentFilter struct {
	CommonFilter
	ParentID *uint `form:"parent_id"`
	Level    int   `form:"level"`
}

type AgentRepository struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *AgentRepository) WithTx(tx *gorm.DB) *AgentRepository {
	return &AgentRepository{db: tx}
}

func (r *AgentRepository) Create(agent *models.Agent) error {
	return r.db.Create(agent).Error
}

// Update 写回可编辑字段，不覆盖已用配额
func (r *AgentRepository) Update(agent *models.Agent) error {
	return updateFields(r.db, agent)
}

// UpdateHierarchy 只写回层级相关字段
func (r *AgentRepository) UpdateHierarchy(agent *models.Agent) error {
	return r.db.Model(agent).Select("parent_id", "level", "path").Updates(map[string]interface{}{
		"parent_id": agent.ParentID,
		"level":     agent.Level,
		"path":      agent.Path,
	}).Error
}

func (r *AgentRepository) GetByID(id uint) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.First(&agent, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &agent, nil
}

// GetByIDs 按 id 批量查询，缺失的 id 忽略
func (r *AgentRepository) GetByIDs(ids []uint) ([]*models.Agent, error) {
	var agents []*models.Agent
	if len(ids) == 0 {
		return agents, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&agents).Error
	return agents, err
}

func (r *AgentRepository) GetByCode(code string) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.Where("code = ?", code).First(&agent).Error; err != nil {
		return nil, notFound(err)
	}
	return &agent, nil
}

// CodeExists 编码是否已被占用（包含已软删除的记录，与唯一索引一致）
func (r *AgentRepository) CodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.Agent{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// Children 直接下级，按创建时间升序
func (r *AgentRepository) Children(parentID uint) ([]models.Agent, error) {
	var agents []models.Agent
	err := r.db.Where("parent_id = ?", parentID).Order("created_at ASC, id ASC").Find(&agents).Error
	return agents, err
}

func (r *AgentRepository) CountChildren(parentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Agent{}).Where("parent_id = ?", parentID).Count(&count).Error
	return count, err
}

// Subtree 按物化路径查询全部后代
func (r *AgentRepository) Subtree(agent *models.Agent) ([]*models.Agent, error) {
	prefix := strconv.FormatUint(uint64(agent.ID), 10)
	if agent.Path != "" {
		prefix = agent.Path + "," + prefix
	}
	var agents []*models.Agent
	err := r.db.Where("path = ? OR path LIKE ?", prefix, prefix+",%").
		Order("level ASC, created_at ASC, id ASC").
		Find(&agents).Error
	return agents, err
}

// All 全部代理
func (r *AgentRepository) All() ([]*models.Agent, error) {
	var agents []*models.Agent
	err := r.db.Order("level ASC, created_at ASC, id ASC").Find(&agents).Error
	return agents, err
}

func (r *AgentRepository) List(filter AgentFilter, page *pagination.PageParams, now time.Time) ([]models.Agent, int64, error) {
	query := r.db.Model(&models.Agent{}).Scopes(filter.scope(now))
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.Level > 0 {
		query = query.Where("level = ?", filter.Level)
	}
	return paginate[models.Agent](query, page, "created_at DESC, id DESC")
}

// Statistics parentID 为空时统计全部代理，否则只统计其直接下级
func (r *AgentRepository) Statistics(parentID *uint, now time.Time) (*models.Statistics, error) {
	return statistics(r.db, &models.Agent{}, func(db *gorm.DB) *gorm.DB {
		if parentID != nil {
			return db.Where("parent_id = ?", *parentID)
		}
		return db
	}, now)
}

func (r *AgentRepository) Expiring(now time.Time, days int) ([]models.Agent, error) {
	var agents []models.Agent
	err := expiring(r.db, now, days).Order("expire_at ASC").Find(&agents).Error
	return agents, err
}

func (r *AgentRepository) HighUsage(threshold float64) ([]models.Agent, error) {
	var agents []models.Agent
	err := highUsage(r.db, threshold).Order("id ASC").Find(&agents).Error
	return agents, err
}

// BatchUpdateStatus 批量更新状态，不存在的 id 忽略，返回受影响行数
func (r *AgentRepository) BatchUpdateStatus(ids []uint, status models.Status, operatorID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Agent{}).Where("id IN ?", ids).Updates(map[string]interface{}{
		"status":     status,
		"updated_by": operatorID,
	})
	return result.RowsAffected, result.Error
}

// AdjustQuota 原子地调整限额
func (r *AgentRepository) AdjustQuota(id uint, delta float64, operatorID uint) error {
	return adjustLimit(r.db, &models.Agent{}, id, delta, operatorID)
}

// ResetQuota 清零已用配额，可同时重设限额
func (r *AgentRepository) ResetQuota(id uint, newLimit *float64, operatorID uint) error {
	return resetQuota(r.db, &models.Agent{}, id, newLimit, operatorID)
}

func (r *AgentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Agent{}, id).Error
}

// ========== 代理用户 ==========

// UsernameExists 代理用户名全局唯一
func (r *AgentRepository) UsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.AgentUser{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *AgentRepository) CreateUser(user *models.AgentUser) error {
	return r.db.Create(user).Error
}

func (r *AgentRepository) Users(agentID uint) ([]models.AgentUser, error) {
	var users []models.AgentUser
	err := r.db.Where("agent_id = ?", agentID).Order("id ASC").Find(&users).Error
	return users, err
}

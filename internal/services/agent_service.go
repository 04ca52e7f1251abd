package services

import (
	stderrors "errors"
	"time"

	"saasadmin/internal/hierarchy"
	"saasadmin/internal/models"
	"saasadmin/internal/repository"
	"saasadmin/pkg/errors"
	"saasadmin/pkg/logger"
	"saasadmin/pkg/pagination"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultExpiringDays       = 7
	DefaultHighUsageThreshold = 0.8
)

// AgentService 代理生命周期服务
type AgentService struct {
	db       *gorm.DB
	agents   *repository.AgentRepository
	tenants  *repository.TenantRepository
	maxDepth int
	log      *logrus.Logger

	now     func() time.Time
	genCode CodeGenerator
}

// NewAgentService 创建代理服务，maxDepth <= 0 时使用默认层级上限
func NewAgentService(db *gorm.DB, maxDepth int) *AgentService {
	if maxDepth <= 0 {
		maxDepth = hierarchy.DefaultMaxDepth
	}
	return &AgentService{
		db:       db,
		agents:   repository.NewAgentRepository(db),
		tenants:  repository.NewTenantRepository(db),
		maxDepth: maxDepth,
		log:      logger.GetLogger(),
		now:      time.Now,
		genCode:  DefaultCodeGenerator,
	}
}

// MaxDepth 代理最大层级
func (s *AgentService) MaxDepth() int {
	return s.maxDepth
}

// GetInfo 按 id 获取代理
func (s *AgentService) GetInfo(id uint) (*models.Agent, error) {
	return s.agents.GetByID(id)
}

// FindByCode 按编码获取代理
func (s *AgentService) FindByCode(code string) (*models.Agent, error) {
	return s.agents.GetByCode(code)
}

// List 分页查询代理
func (s *AgentService) List(filter repository.AgentFilter, page *pagination.PageParams) ([]models.Agent, int64, error) {
	return s.agents.List(filter, page, s.now())
}

// Create 创建代理：生成编码、挂载到上级、可选创建管理员，整体在一个事务内完成
func (s *AgentService) Create(operatorID uint, req *models.CreateAgentRequest) (*models.Agent, error) {
	now := s.now()
	agent := &models.Agent{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Status:       req.Status,
		AIConfig:     req.AIConfig,
		ExpireAt:     req.ExpireAt,
		Remark:       req.Remark,
	}
	if agent.Status == 0 {
		agent.Status = models.StatusNormal
	}
	if req.CommissionRate != nil {
		agent.CommissionRate = *req.CommissionRate
	}
	if req.QuotaLimit != nil {
		agent.QuotaLimit = *req.QuotaLimit
	}
	agent.CreatedBy = operatorID
	agent.UpdatedBy = operatorID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.agents.WithTx(tx)

		var parentID *uint
		tree := hierarchy.New(s.maxDepth)
		if req.ParentID != nil && *req.ParentID != 0 {
			parentID = req.ParentID
			parent, err := repo.GetByID(*parentID)
			if err != nil && !stderrors.Is(err, errors.ErrNotFound) {
				return err
			}
			if parent != nil {
				tree.Add(parent)
			}
		}
		if err := tree.Attach(agent, parentID, now); err != nil {
			return err
		}

		err := createWithCode(tx, req.Code,
			func() string { return s.genCode(agentCodePrefix, now) },
			repo.CodeExists,
			func(db *gorm.DB, code string) error {
				agent.Code = code
				return db.Create(agent).Error
			})
		if err != nil {
			return err
		}

		if req.AdminUser != nil {
			return s.createAdminUser(repo, agent, req.AdminUser, operatorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"agent_id":  agent.ID,
		"code":      agent.Code,
		"parent_id": agent.ParentID,
		"level":     agent.Level,
		"operator":  operatorID,
	}).Info("代理创建成功")
	return agent, nil
}

// UpdateByID 更新代理；上级变化时校验并级联更新整棵子树的层级与路径
func (s *AgentService) UpdateByID(operatorID, id uint, req *models.UpdateAgentRequest) (*models.Agent, error) {
	now := s.now()
	var agent *models.Agent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.agents.WithTx(tx)

		var err error
		if agent, err = repo.GetByID(id); err != nil {
			return err
		}

		if req.ParentID != nil && *req.ParentID != 0 && !sameParent(agent.ParentID, *req.ParentID) {
			if err := s.reparent(repo, agent, *req.ParentID, now); err != nil {
				return err
			}
		}

		if req.Code != "" && req.Code != agent.Code {
			taken, err := repo.CodeExists(req.Code)
			if err != nil {
				return err
			}
			if taken {
				return errors.ErrCodeExists
			}
			agent.Code = req.Code
		}
		applyAgentUpdate(agent, req)
		agent.UpdatedBy = operatorID

		if err := repo.Update(agent); err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.ErrCodeExists
			}
			return err
		}
		if agent, err = repo.GetByID(id); err != nil {
			return err
		}

		if req.AdminUser != nil {
			return s.createAdminUser(repo, agent, req.AdminUser, operatorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"agent_id": agent.ID,
		"operator": operatorID,
	}).Info("代理更新成功")
	return agent, nil
}

// reparent 加载子树、候选上级及其祖先链到 arena 后执行移动，并写回所有变化的后代
func (s *AgentService) reparent(repo *repository.AgentRepository, agent *models.Agent, parentID uint, now time.Time) error {
	tree := hierarchy.New(s.maxDepth, agent)
	if parentID != agent.ID {
		subtree, err := repo.Subtree(agent)
		if err != nil {
			return err
		}
		tree.Add(subtree...)

		if _, ok := tree.Get(parentID); !ok {
			parent, err := repo.GetByID(parentID)
			if err != nil && !stderrors.Is(err, errors.ErrNotFound) {
				return err
			}
			if parent != nil {
				ancestors, err := repo.GetByIDs(hierarchy.PathIDs(parent.Path))
				if err != nil {
					return err
				}
				for _, a := range ancestors {
					if _, ok := tree.Get(a.ID); !ok {
						tree.Add(a)
					}
				}
				tree.Add(parent)
			}
		}
	}

	changed, err := tree.Reparent(agent, &parentID, now)
	if err != nil {
		return err
	}
	for _, d := range changed {
		if err := repo.UpdateHierarchy(d); err != nil {
			return err
		}
	}

	s.log.WithFields(logrus.Fields{
		"agent_id":    agent.ID,
		"parent_id":   parentID,
		"level":       agent.Level,
		"descendants": len(changed),
	}).Info("代理层级已调整")
	return nil
}

func sameParent(current *uint, next uint) bool {
	return current != nil && *current == next
}

func applyAgentUpdate(agent *models.Agent, req *models.UpdateAgentRequest) {
	if req.Name != "" {
		agent.Name = req.Name
	}
	if req.ContactName != "" {
		agent.ContactName = req.ContactName
	}
	if req.ContactPhone != "" {
		agent.ContactPhone = req.ContactPhone
	}
	if req.ContactEmail != "" {
		agent.ContactEmail = req.ContactEmail
	}
	if req.Status != 0 {
		agent.Status = req.Status
	}
	if req.CommissionRate != nil {
		agent.CommissionRate = *req.CommissionRate
	}
	if req.AIConfig != nil {
		agent.AIConfig = req.AIConfig
	}
	if req.QuotaLimit != nil {
		agent.QuotaLimit = *req.QuotaLimit
	}
	if req.ExpireAt != nil {
		agent.ExpireAt = req.ExpireAt
	}
	if req.Remark != "" {
		agent.Remark = req.Remark
	}
}

// createAdminUser 创建代理管理员，未指定密码时使用默认密码
func (s *AgentService) createAdminUser(repo *repository.AgentRepository, agent *models.Agent,
	req *models.AdminUserRequest, operatorID uint) error {
	taken, err := repo.UsernameExists(req.Username)
	if err != nil {
		return err
	}
	if taken {
		return errors.ErrUsernameExists
	}

	user := &models.AgentUser{
		AgentID:  agent.ID,
		Username: req.Username,
	}
	if err := fillAdminAccount(&user.Account, req); err != nil {
		return err
	}
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

// fillAdminAccount 管理员账号公共字段：类型为管理员、状态正常、密码哈希
func fillAdminAccount(account *models.Account, req *models.AdminUserRequest) error {
	account.Nickname = req.Nickname
	if account.Nickname == "" {
		account.Nickname = req.Username
	}
	account.Phone = req.Phone
	account.Email = req.Email
	account.UserType = models.UserTypeAdmin
	account.Status = models.StatusNormal

	password := req.Password
	if password == "" {
		password = models.DefaultPassword
	}
	return account.SetPassword(password)
}

// DeleteByID 删除代理，存在下级代理或租户时拒绝
func (s *AgentService) DeleteByID(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.agents.WithTx(tx)
		if _, err := repo.GetByID(id); err != nil {
			return err
		}

		children, err := repo.CountChildren(id)
		if err != nil {
			return err
		}
		if children > 0 {
			return errors.ErrHasChildren
		}

		tenants, err := s.tenants.WithTx(tx).CountByAgent(id)
		if err != nil {
			return err
		}
		if tenants > 0 {
			return errors.ErrHasTenants
		}

		return repo.Delete(id)
	})
	if err != nil {
		return err
	}

	s.log.WithField("agent_id", id).Info("代理已删除")
	return nil
}

// GetDetail 代理详情：上级、直接下级、直属租户与代理用户
func (s *AgentService) GetDetail(id uint) (*models.AgentDetail, error) {
	agent, err := s.agents.GetByID(id)
	if err != nil {
		return nil, err
	}

	detail := &models.AgentDetail{Agent: agent}
	if agent.ParentID != nil {
		parent, err := s.agents.GetByID(*agent.ParentID)
		if err != nil && !stderrors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		detail.Parent = parent
	}
	if detail.Children, err = s.agents.Children(id); err != nil {
		return nil, err
	}
	if detail.Tenants, err = s.tenants.ByAgents([]uint{id}); err != nil {
		return nil, err
	}
	if detail.Users, err = s.agents.Users(id); err != nil {
		return nil, err
	}
	return detail, nil
}

// ResetQuota 清零已用配额，newLimit 非空时同时重设限额
func (s *AgentService) ResetQuota(operatorID, id uint, newLimit *float64) (*models.Agent, error) {
	if newLimit != nil && *newLimit < 0 {
		return nil, errors.ErrInvalidQuota
	}
	return s.mutateQuota(operatorID, id, func(repo *repository.AgentRepository, _ *models.Agent) error {
		return repo.ResetQuota(id, newLimit, operatorID)
	})
}

// AdjustQuota 按 amount 增减限额，结果为负时拒绝；已用配额保持不变
func (s *AgentService) AdjustQuota(operatorID, id uint, amount float64) (*models.Agent, error) {
	return s.mutateQuota(operatorID, id, func(repo *repository.AgentRepository, agent *models.Agent) error {
		if err := agent.AdjustQuota(amount); err != nil {
			return err
		}
		return repo.AdjustQuota(id, amount, operatorID)
	})
}

// mutateQuota 在事务内执行配额写入并返回写入后的最新记录
func (s *AgentService) mutateQuota(operatorID, id uint, write func(*repository.AgentRepository, *models.Agent) error) (*models.Agent, error) {
	var agent *models.Agent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.agents.WithTx(tx)
		current, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if err := write(repo, current); err != nil {
			return err
		}
		agent, err = repo.GetByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"agent_id":    id,
		"quota_limit": agent.QuotaLimit,
		"quota_used":  agent.QuotaUsed,
		"operator":    operatorID,
	}).Info("代理配额已调整")
	return agent, nil
}

// GetTree 以 parentID 为根的代理树，nil 返回全部顶级代理组成的森林
func (s *AgentService) GetTree(parentID *uint) ([]*models.AgentTreeNode, error) {
	if parentID == nil {
		all, err := s.agents.All()
		if err != nil {
			return nil, err
		}
		return hierarchy.New(s.maxDepth, all...).BuildTree(nil), nil
	}

	parent, err := s.agents.GetByID(*parentID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return []*models.AgentTreeNode{}, nil
	}
	if err != nil {
		return nil, err
	}
	subtree, err := s.agents.Subtree(parent)
	if err != nil {
		return nil, err
	}
	tree := hierarchy.New(s.maxDepth, parent)
	tree.Add(subtree...)
	return tree.BuildTree(parentID), nil
}

// GetStatistics 统计 parentID 的直接下级，nil 时统计全部代理
func (s *AgentService) GetStatistics(parentID *uint) (*models.Statistics, error) {
	return s.agents.Statistics(parentID, s.now())
}

// GetExpiringAgents 状态正常且 days 天内到期的代理
func (s *AgentService) GetExpiringAgents(days int) ([]models.Agent, error) {
	if days <= 0 {
		days = DefaultExpiringDays
	}
	return s.agents.Expiring(s.now(), days)
}

// GetHighQuotaUsageAgents 状态正常且配额使用率不低于 threshold 的代理
func (s *AgentService) GetHighQuotaUsageAgents(threshold float64) ([]models.Agent, error) {
	if threshold <= 0 {
		threshold = DefaultHighUsageThreshold
	}
	return s.agents.HighUsage(threshold)
}

// GetManagementScope 代理可管理的全部下级代理与租户
func (s *AgentService) GetManagementScope(id uint) (*models.ManagementScope, error) {
	agent, err := s.agents.GetByID(id)
	if err != nil {
		return nil, err
	}
	subtree, err := s.agents.Subtree(agent)
	if err != nil {
		return nil, err
	}

	tree := hierarchy.New(s.maxDepth, agent)
	tree.Add(subtree...)
	scope := &models.ManagementScope{AgentID: id, SubAgentIDs: []uint{}}
	for d := range tree.Descendants(id) {
		scope.SubAgentIDs = append(scope.SubAgentIDs, d.ID)
	}

	owners := append([]uint{id}, scope.SubAgentIDs...)
	if scope.TenantIDs, err = s.tenants.IDsByAgents(owners); err != nil {
		return nil, err
	}
	if scope.TenantIDs == nil {
		scope.TenantIDs = []uint{}
	}
	return scope, nil
}

// BatchUpdateStatus 批量更新状态，返回受影响数量，不存在的 id 忽略
func (s *AgentService) BatchUpdateStatus(operatorID uint, ids []uint, status models.Status) (int64, error) {
	if !status.Valid() {
		return 0, errors.ErrInvalidStatus
	}
	affected, err := s.agents.BatchUpdateStatus(ids, status, operatorID)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{
		"ids":      ids,
		"status":   status,
		"affected": affected,
	}).Info("批量更新代理状态")
	return affected, nil
}

// StatusOptions 状态选项
func (s *AgentService) StatusOptions() []models.Option {
	return models.StatusOptions()
}

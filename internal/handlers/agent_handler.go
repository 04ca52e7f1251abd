package handlers

import (
	"time"

	"saasadmin/internal/middleware"
	"saasadmin/internal/models"
	"saasadmin/internal/repository"
	"saasadmin/internal/services"
	"saasadmin/internal/validation"
	"saasadmin/pkg/pagination"
	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

// AgentHandler 代理处理器
type AgentHandler struct {
	agentService *services.AgentService
}

// NewAgentHandler 创建代理处理器
func NewAgentHandler(agentService *services.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

// List 分页查询代理
func (h *AgentHandler) List(c *gin.Context) {
	var filter repository.AgentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}
	page, err := pagination.Bind(c)
	if err != nil {
		response.BindError(c, err)
		return
	}

	agents, total, err := h.agentService.List(filter, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithPage(c, models.NewAgentViews(agents, time.Now()), page.Info(total))
}

// Create 创建代理
func (h *AgentHandler) Create(c *gin.Context) {
	var req models.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	agent, err := h.agentService.Create(middleware.OperatorID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewAgentView(agent, time.Now()))
}

// GetByID 获取代理详情
func (h *AgentHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.agentService.GetDetail(id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewAgentDetailView(detail, time.Now()))
}

// Update 更新代理
func (h *AgentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	req.ID = id
	if err := validation.Struct(&req); err != nil {
		response.BindError(c, err)
		return
	}

	agent, err := h.agentService.UpdateByID(middleware.OperatorID(c), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewAgentView(agent, time.Now()))
}

// Delete 删除代理
func (h *AgentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.agentService.DeleteByID(id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// ResetQuota 重置配额
func (h *AgentHandler) ResetQuota(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.ResetQuotaRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	agent, err := h.agentService.ResetQuota(middleware.OperatorID(c), id, req.QuotaLimit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewAgentView(agent, time.Now()))
}

// AdjustQuota 调整配额
func (h *AgentHandler) AdjustQuota(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.AdjustQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	agent, err := h.agentService.AdjustQuota(middleware.OperatorID(c), id, *req.Amount)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewAgentView(agent, time.Now()))
}

// Tree 代理树，parent_id 为空时返回全部顶级代理
func (h *AgentHandler) Tree(c *gin.Context) {
	parentID, ok := optionalUintQuery(c, "parent_id")
	if !ok {
		return
	}

	tree, err := h.agentService.GetTree(parentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, tree)
}

// Statistics 统计直接下级代理
func (h *AgentHandler) Statistics(c *gin.Context) {
	parentID, ok := optionalUintQuery(c, "parent_id")
	if !ok {
		return
	}

	stats, err := h.agentService.GetStatistics(parentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, stats)
}

// Expiring 即将到期的代理
func (h *AgentHandler) Expiring(c *gin.Context) {
	agents, err := h.agentService.GetExpiringAgents(intQuery(c, "days", services.DefaultExpiringDays))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewAgentViews(agents, time.Now()))
}

// HighUsage 配额使用率过高的代理
func (h *AgentHandler) HighUsage(c *gin.Context) {
	agents, err := h.agentService.GetHighQuotaUsageAgents(floatQuery(c, "threshold", services.DefaultHighUsageThreshold))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewAgentViews(agents, time.Now()))
}

// Scope 代理的管理范围
func (h *AgentHandler) Scope(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	scope, err := h.agentService.GetManagementScope(id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, scope)
}

// BatchStatus 批量更新状态
func (h *AgentHandler) BatchStatus(c *gin.Context) {
	var req models.BatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	affected, err := h.agentService.BatchUpdateStatus(middleware.OperatorID(c), req.IDs, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"affected": affected})
}

// StatusOptions 状态选项
func (h *AgentHandler) StatusOptions(c *gin.Context) {
	response.Success(c, h.agentService.StatusOptions())
}

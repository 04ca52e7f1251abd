package handlers

import (
	"time"

	"saasadmin/internal/middleware"
	"saasadmin/internal/models"
	"saasadmin/internal/repository"
	"saasadmin/internal/services"
	"saasadmin/pkg/pagination"
	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

// TenantHandler 租户处理器
type TenantHandler struct {
	tenantService *services.TenantService
}

// NewTenantHandler 创建租户处理器
func NewTenantHandler(tenantService *services.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// List 分页查询租户，可按 agent_id 过滤
func (h *TenantHandler) List(c *gin.Context) {
	var filter repository.TenantFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}
	page, err := pagination.Bind(c)
	if err != nil {
		response.BindError(c, err)
		return
	}

	tenants, total, err := h.tenantService.List(filter, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithPage(c, models.NewTenantViews(tenants, time.Now()), page.Info(total))
}

func (h *TenantHandler) Create(c *gin.Context) {
	var req models.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	tenant, err := h.tenantService.Create(middleware.OperatorID(c), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewTenantView(tenant, time.Now()))
}

func (h *TenantHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.tenantService.GetDetail(id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewTenantDetailView(detail, time.Now()))
}

func (h *TenantHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	tenant, err := h.tenantService.UpdateByID(middleware.OperatorID(c), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewTenantView(tenant, time.Now()))
}

func (h *TenantHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.tenantService.DeleteByID(id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

func (h *TenantHandler) ResetQuota(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.ResetQuotaRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	tenant, err := h.tenantService.ResetQuota(middleware.OperatorID(c), id, req.QuotaLimit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewTenantView(tenant, time.Now()))
}

func (h *TenantHandler) AdjustQuota(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.AdjustQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	tenant, err := h.tenantService.AdjustQuota(middleware.OperatorID(c), id, *req.Amount)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewTenantView(tenant, time.Now()))
}

// Statistics 统计代理直属租户，agent_id 缺省时统计全部
func (h *TenantHandler) Statistics(c *gin.Context) {
	agentID, ok := optionalUintQuery(c, "agent_id")
	if !ok {
		return
	}
	var id uint
	if agentID != nil {
		id = *agentID
	}

	stats, err := h.tenantService.GetStatistics(id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *TenantHandler) Expiring(c *gin.Context) {
	tenants, err := h.tenantService.GetExpiringTenants(intQuery(c, "days", services.DefaultExpiringDays))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewTenantViews(tenants, time.Now()))
}

func (h *TenantHandler) HighUsage(c *gin.Context) {
	tenants, err := h.tenantService.GetHighQuotaUsageTenants(floatQuery(c, "threshold", services.DefaultHighUsageThreshold))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewTenantViews(tenants, time.Now()))
}

func (h *TenantHandler) BatchStatus(c *gin.Context) {
	var req models.BatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	affected, err := h.tenantService.BatchUpdateStatus(middleware.OperatorID(c), req.IDs, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"affected": affected})
}

func (h *TenantHandler) StatusOptions(c *gin.Context) {
	response.Success(c, h.tenantService.StatusOptions())
}

package handlers

import (
	"saasadmin/internal/middleware"
	"saasadmin/internal/models"
	"saasadmin/internal/services"
	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

// AppConfigHandler 租户应用配置处理器，路由形如 /tenants/:id/apps/:app_id
type AppConfigHandler struct {
	appConfigService *services.AppConfigService
}

func NewAppConfigHandler(appConfigService *services.AppConfigService) *AppConfigHandler {
	return &AppConfigHandler{appConfigService: appConfigService}
}

type appStatusRequest struct {
	Status models.Status `json:"status" binding:"required,oneof=1 2 3"`
}

func (h *AppConfigHandler) List(c *gin.Context) {
	tenantID, ok := parseID(c, "id")
	if !ok {
		return
	}

	apps, err := h.appConfigService.List(tenantID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	views, err := h.appConfigService.Views(tenantID, apps...)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, views)
}

func (h *AppConfigHandler) Create(c *gin.Context) {
	tenantID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.CreateAppConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	app, err := h.appConfigService.Create(middleware.OperatorID(c), tenantID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.respond(c, tenantID, app)
}

func (h *AppConfigHandler) GetByID(c *gin.Context) {
	tenantID, appID, ok := h.ids(c)
	if !ok {
		return
	}

	app, err := h.appConfigService.Get(tenantID, appID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.respond(c, tenantID, app)
}

// Update 更新应用配置，config 与已有配置合并
func (h *AppConfigHandler) Update(c *gin.Context) {
	tenantID, appID, ok := h.ids(c)
	if !ok {
		return
	}

	var req models.UpdateAppConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	app, err := h.appConfigService.Update(middleware.OperatorID(c), tenantID, appID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.respond(c, tenantID, app)
}

func (h *AppConfigHandler) SetStatus(c *gin.Context) {
	tenantID, appID, ok := h.ids(c)
	if !ok {
		return
	}

	var req appStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	app, err := h.appConfigService.SetStatus(middleware.OperatorID(c), tenantID, appID, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.respond(c, tenantID, app)
}

func (h *AppConfigHandler) ResetQuota(c *gin.Context) {
	tenantID, appID, ok := h.ids(c)
	if !ok {
		return
	}

	var req models.ResetQuotaRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	app, err := h.appConfigService.ResetQuota(middleware.OperatorID(c), tenantID, appID, req.QuotaLimit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	h.respond(c, tenantID, app)
}

func (h *AppConfigHandler) Delete(c *gin.Context) {
	tenantID, appID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.appConfigService.Delete(tenantID, appID); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

func (h *AppConfigHandler) ids(c *gin.Context) (tenantID, appID uint, ok bool) {
	if tenantID, ok = parseID(c, "id"); !ok {
		return
	}
	appID, ok = parseID(c, "app_id")
	return
}

// respond 返回带可用性与脱敏配置的应用视图
func (h *AppConfigHandler) respond(c *gin.Context, tenantID uint, app *models.TenantAppConfig) {
	views, err := h.appConfigService.Views(tenantID, *app)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, views[0])
}

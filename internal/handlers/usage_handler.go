package handlers

import (
	"saasadmin/internal/models"
	"saasadmin/internal/repository"
	"saasadmin/internal/services"
	"saasadmin/pkg/pagination"
	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

// UsageHandler 配额使用记录处理器
type UsageHandler struct {
	usageService *services.UsageService
}

func NewUsageHandler(usageService *services.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// Record 记录一次计费调用
func (h *UsageHandler) Record(c *gin.Context) {
	tenantID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	log, err := h.usageService.Record(c.Request.Context(), tenantID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, models.NewUsageLogView(log))
}

func (h *UsageHandler) List(c *gin.Context) {
	tenantID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var filter repository.UsageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}
	page, err := pagination.Bind(c)
	if err != nil {
		response.BindError(c, err)
		return
	}

	logs, total, err := h.usageService.List(tenantID, filter, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithPage(c, models.NewUsageLogViews(logs), page.Info(total))
}

func (h *UsageHandler) Summary(c *gin.Context) {
	tenantID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var filter repository.UsageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	summary, err := h.usageService.Summary(tenantID, filter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, summary)
}

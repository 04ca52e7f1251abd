// Package validation 请求结构体的跨字段校验，注册到 gin 的校验引擎
package validation

import (
	"fmt"
	"time"

	"saasadmin/internal/models"
	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	TagAdminQuota   = "admin_quota"
	TagParentSelf   = "parent_self"
	TagExpireFuture = "expire_future"
)

var tagMessages = map[string]string{
	TagAdminQuota:   "管理员配额不能超过租户配额",
	TagParentSelf:   "不能设置自己为上级代理",
	TagExpireFuture: "过期时间必须晚于当前时间",
}

// Register 向 v 注册跨字段规则，now 为空时使用 time.Now
func Register(v *validator.Validate, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	r := rules{now: now}
	v.RegisterStructValidation(r.createAgent, models.CreateAgentRequest{})
	v.RegisterStructValidation(r.updateAgent, models.UpdateAgentRequest{})
	v.RegisterStructValidation(r.createTenant, models.CreateTenantRequest{})
	v.RegisterStructValidation(r.updateTenant, models.UpdateTenantRequest{})
}

// RegisterWithGin 注册到 gin 默认校验引擎，并登记提示信息
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator/v10")
	}
	Register(v, nil)
	for tag, msg := range tagMessages {
		response.RegisterTagMessage(tag, msg)
	}
	return nil
}

// Struct 手动触发 gin 校验引擎，用于绑定后补充了字段的请求
func Struct(obj interface{}) error {
	return binding.Validator.ValidateStruct(obj)
}

type rules struct {
	now func() time.Time
}

func (r rules) createAgent(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.CreateAgentRequest)
	r.expireAt(sl, req.ExpireAt)
}

func (r rules) updateAgent(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.UpdateAgentRequest)
	if req.ID != 0 && req.ParentID != nil && *req.ParentID == req.ID {
		sl.ReportError(req.ParentID, "ParentID", "parent_id", TagParentSelf, "")
	}
	r.expireAt(sl, req.ExpireAt)
}

func (r rules) createTenant(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.CreateTenantRequest)
	adminQuota(sl, req.QuotaLimit, req.AdminUser)
	r.expireAt(sl, req.ExpireAt)
}

func (r rules) updateTenant(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.UpdateTenantRequest)
	adminQuota(sl, req.QuotaLimit, req.AdminUser)
	r.expireAt(sl, req.ExpireAt)
}

// adminQuota 同时给出租户配额与管理员配额时，管理员配额不能更大
func adminQuota(sl validator.StructLevel, tenantQuota *float64, admin *models.AdminUserRequest) {
	if tenantQuota == nil || admin == nil || admin.QuotaLimit == nil {
		return
	}
	if *admin.QuotaLimit > *tenantQuota {
		sl.ReportError(admin.QuotaLimit, "AdminUser.QuotaLimit", "quota_limit", TagAdminQuota, "")
	}
}

func (r rules) expireAt(sl validator.StructLevel, expireAt *time.Time) {
	if expireAt != nil && !expireAt.After(r.now()) {
		sl.ReportError(expireAt, "ExpireAt", "expire_at", TagExpireFuture, "")
	}
}

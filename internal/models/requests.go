package models

import "time"

// AdminUserRequest 随代理/租户一起创建的管理员账号
type AdminUserRequest struct {
	Username   string   `json:"username" binding:"required,max=50"`
	Password   string   `json:"password" binding:"omitempty,min=6,max=32"`
	Nickname   string   `json:"nickname" binding:"max=50"`
	Phone      string   `json:"phone" binding:"max=20"`
	Email      string   `json:"email" binding:"omitempty,email,max=100"`
	QuotaLimit *float64 `json:"quota_limit" binding:"omitempty,min=0"` // 仅租户管理员使用
}

// CreateAgentRequest 创建代理请求
type CreateAgentRequest struct {
	Name           string                 `json:"name" binding:"required,max=100"`
	Code           string                 `json:"code" binding:"omitempty,max=50"`
	ParentID       *uint                  `json:"parent_id"`
	ContactName    string                 `json:"contact_name" binding:"required,max=50"`
	ContactPhone   string                 `json:"contact_phone" binding:"max=20"`
	ContactEmail   string                 `json:"contact_email" binding:"omitempty,email,max=100"`
	Status         Status                 `json:"status" binding:"omitempty,oneof=1 2 3"`
	CommissionRate *float64               `json:"commission_rate" binding:"omitempty,min=0,max=1"`
	AIConfig       map[string]interface{} `json:"ai_config"`
	QuotaLimit     *float64               `json:"quota_limit" binding:"omitempty,min=0"`
	ExpireAt       *time.Time             `json:"expire_at"`
	Remark         string                 `json:"remark" binding:"max=500"`
	AdminUser      *AdminUserRequest      `json:"admin_user"`
}

// UpdateAgentRequest 更新代理请求，零值字段不修改
type UpdateAgentRequest struct {
	Name           string                 `json:"name" binding:"omitempty,max=100"`
	Code           string                 `json:"code" binding:"omitempty,max=50"`
	ParentID       *uint                  `json:"parent_id"`
	ContactName    string                 `json:"contact_name" binding:"omitempty,max=50"`
	ContactPhone   string                 `json:"contact_phone" binding:"max=20"`
	ContactEmail   string                 `json:"contact_email" binding:"omitempty,email,max=100"`
	Status         Status                 `json:"status" binding:"omitempty,oneof=1 2 3"`
	CommissionRate *float64               `json:"commission_rate" binding:"omitempty,min=0,max=1"`
	AIConfig       map[string]interface{} `json:"ai_config"`
	QuotaLimit     *float64               `json:"quota_limit" binding:"omitempty,min=0"`
	ExpireAt       *time.Time             `json:"expire_at"`
	Remark         string                 `json:"remark" binding:"max=500"`
	AdminUser      *AdminUserRequest      `json:"admin_user"`

	// 由路由参数填充，用于校验上级不能是自己
	ID uint `json:"-"`
}

// CreateTenantRequest 创建租户请求
type CreateTenantRequest struct {
	Name          string                 `json:"name" binding:"required,max=100"`
	Code          string                 `json:"code" binding:"omitempty,max=50"`
	ParentAgentID uint                   `json:"parent_agent_id"`
	ContactName   string                 `json:"contact_name" binding:"required,max=50"`
	ContactPhone  string                 `json:"contact_phone" binding:"max=20"`
	ContactEmail  string                 `json:"contact_email" binding:"omitempty,email,max=100"`
	Status        Status                 `json:"status" binding:"omitempty,oneof=1 2 3"`
	AIConfig      map[string]interface{} `json:"ai_config"`
	QuotaLimit    *float64               `json:"quota_limit" binding:"omitempty,min=0"`
	ExpireAt      *time.Time             `json:"expire_at"`
	Remark        string                 `json:"remark" binding:"max=500"`
	AdminUser     *AdminUserRequest      `json:"admin_user"`
}

// UpdateTenantRequest 更新租户请求，零值字段不修改；parent_agent_id 显式传0表示取消归属
type UpdateTenantRequest struct {
	Name          string                 `json:"name" binding:"omitempty,max=100"`
	Code          string                 `json:"code" binding:"omitempty,max=50"`
	ParentAgentID *uint                  `json:"parent_agent_id"`
	ContactName   string                 `json:"contact_name" binding:"omitempty,max=50"`
	ContactPhone  string                 `json:"contact_phone" binding:"max=20"`
	ContactEmail  string                 `json:"contact_email" binding:"omitempty,email,max=100"`
	Status        Status                 `json:"status" binding:"omitempty,oneof=1 2 3"`
	AIConfig      map[string]interface{} `json:"ai_config"`
	QuotaLimit    *float64               `json:"quota_limit" binding:"omitempty,min=0"`
	ExpireAt      *time.Time             `json:"expire_at"`
	Remark        string                 `json:"remark" binding:"max=500"`
	AdminUser     *AdminUserRequest      `json:"admin_user"`
}

// ResetQuotaRequest 重置配额请求
type ResetQuotaRequest struct {
	QuotaLimit *float64 `json:"quota_limit" binding:"omitempty,min=0"`
}

// AdjustQuotaRequest 调整配额请求，amount 可为负
type AdjustQuotaRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

// BatchStatusRequest 批量更新状态请求
type BatchStatusRequest struct {
	IDs    []uint `json:"ids" binding:"required,min=1"`
	Status Status `json:"status" binding:"required,oneof=1 2 3"`
}

// CreateAppConfigRequest 创建应用配置请求
type CreateAppConfigRequest struct {
	AppType    AppType                `json:"app_type" binding:"required,oneof=chat image audio video embedding completion"`
	AppName    string                 `json:"app_name" binding:"required,max=100"`
	Config     map[string]interface{} `json:"config"`
	Status     Status                 `json:"status" binding:"omitempty,oneof=1 2 3"`
	QuotaLimit *float64               `json:"quota_limit" binding:"omitempty,min=0"`
	Remark     string                 `json:"remark" binding:"max=255"`
}

// UpdateAppConfigRequest 更新应用配置请求，config 与原配置浅合并
type UpdateAppConfigRequest struct {
	AppName    string                 `json:"app_name" binding:"omitempty,max=100"`
	Config     map[string]interface{} `json:"config"`
	Status     Status                 `json:"status" binding:"omitempty,oneof=1 2 3"`
	QuotaLimit *float64               `json:"quota_limit" binding:"omitempty,min=0"`
	Remark     string                 `json:"remark" binding:"max=255"`
}

// RecordUsageRequest 记录一次计费调用
type RecordUsageRequest struct {
	TenantUserID *uint                  `json:"tenant_user_id"`
	AppType      AppType                `json:"app_type" binding:"required,oneof=chat image audio video embedding completion"`
	ModelName    string                 `json:"model_name" binding:"required,max=100"`
	InputTokens  int64                  `json:"input_tokens" binding:"min=0"`
	OutputTokens int64                  `json:"output_tokens" binding:"min=0"`
	Cost         float64                `json:"cost" binding:"min=0"`
	RequestID    string                 `json:"request_id" binding:"max=100"`
	RequestData  map[string]interface{} `json:"request_data"`
	ResponseData map[string]interface{} `json:"response_data"`
	Remark       string                 `json:"remark" binding:"max=255"`

	// 由请求上下文填充
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

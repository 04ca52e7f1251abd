package models

import (
	"time"

	"saasadmin/internal/quota"

	"gorm.io/datatypes"
)

// Tenant 租户，归属唯一代理（parent_agent_id 为0表示未分配）
type Tenant struct {
	BaseModel
	Name          string            `json:"name" gorm:"size:100;not null"`
	Code          string            `json:"code" gorm:"size:50;not null;uniqueIndex"`
	ParentAgentID uint              `json:"parent_agent_id" gorm:"default:0;index"`
	ContactName   string            `json:"contact_name" gorm:"size:50;default:''"`
	ContactPhone  string            `json:"contact_phone" gorm:"size:20;default:''"`
	ContactEmail  string            `json:"contact_email" gorm:"size:100;default:''"`
	Status        Status            `json:"status" gorm:"type:smallint;default:1;index"`
	AIConfig      datatypes.JSONMap `json:"ai_config" gorm:"type:json"`
	ExpireAt      *time.Time        `json:"expire_at"`
	Remark        string            `json:"remark" gorm:"size:500;default:''"`
	quota.Ledger
	AuditFields
	SoftDelete
}

// TableName 表名
func (Tenant) TableName() string {
	return "tenant"
}

// IsExpired 检查是否过期
func (t *Tenant) IsExpired(now time.Time) bool {
	return quota.IsExpired(t.ExpireAt, now)
}

// IsAvailable 状态正常、未过期且配额未超限
func (t *Tenant) IsAvailable(now time.Time) bool {
	return quota.IsAvailable(t.Status == StatusNormal, t.ExpireAt, t.Ledger, now)
}

// TenantDetail 租户详情
type TenantDetail struct {
	*Tenant
	Agent      *Agent            `json:"agent,omitempty"`
	Users      []TenantUser      `json:"users"`
	AppConfigs []TenantAppConfig `json:"app_configs"`
}

// TenantUser 租户用户，带个人配额
type TenantUser struct {
	BaseModel
	TenantID uint   `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_tenant_user_tenant_username,priority:1"`
	Username string `json:"username" gorm:"size:50;not null;uniqueIndex:idx_tenant_user_tenant_username,priority:2"`
	Account
	quota.Ledger
	AuditFields
	SoftDelete
}

// TableName 表名
func (TenantUser) TableName() string {
	return "tenant_user"
}

// IsAvailable 用户状态正常、个人配额未超限且所属租户可用
func (u *TenantUser) IsAvailable(tenant *Tenant, now time.Time) bool {
	return u.Status == StatusNormal && !u.IsQuotaExceeded() && tenant != nil && tenant.IsAvailable(now)
}

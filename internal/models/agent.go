package models

import (
	"time"

	"saasadmin/internal/quota"

	"gorm.io/datatypes"
)

// Agent 代理。树形结构只保存 parent_id，层级与路径由 hierarchy 包维护
type Agent struct {
	BaseModel
	Name           string            `json:"name" gorm:"size:100;not null"`
	Code           string            `json:"code" gorm:"size:50;not null;uniqueIndex"`
	ParentID       *uint             `json:"parent_id" gorm:"index"`
	Level          int               `json:"level" gorm:"default:1;index"`
	Path           string            `json:"path" gorm:"size:500;default:''"`
	ContactName    string            `json:"contact_name" gorm:"size:50;default:''"`
	ContactPhone   string            `json:"contact_phone" gorm:"size:20;default:''"`
	ContactEmail   string            `json:"contact_email" gorm:"size:100;default:''"`
	Status         Status            `json:"status" gorm:"type:smallint;default:1;index"`
	CommissionRate float64           `json:"commission_rate" gorm:"type:decimal(5,4);default:0"`
	AIConfig       datatypes.JSONMap `json:"ai_config" gorm:"type:json"`
	ExpireAt       *time.Time        `json:"expire_at"`
	Remark         string            `json:"remark" gorm:"size:500;default:''"`
	quota.Ledger
	AuditFields
	SoftDelete
}

// TableName 表名
func (Agent) TableName() string {
	return "agent"
}

// IsTopLevel 是否为顶级代理
func (a *Agent) IsTopLevel() bool {
	return a.ParentID == nil
}

// IsExpired 检查是否过期
func (a *Agent) IsExpired(now time.Time) bool {
	return quota.IsExpired(a.ExpireAt, now)
}

// IsAvailable 状态正常、未过期且配额未超限
func (a *Agent) IsAvailable(now time.Time) bool {
	return quota.IsAvailable(a.Status == StatusNormal, a.ExpireAt, a.Ledger, now)
}

// AgentTreeNode 代理树节点
type AgentTreeNode struct {
	ID       uint             `json:"id"`
	Name     string           `json:"name"`
	Code     string           `json:"code"`
	Level    int              `json:"level"`
	Status   Status           `json:"status"`
	Children []*AgentTreeNode `json:"children"`
}

// AgentDetail 代理详情，附带上级、下级、下属租户和代理用户
type AgentDetail struct {
	*Agent
	Parent   *Agent      `json:"parent,omitempty"`
	Children []Agent     `json:"children"`
	Tenants  []Tenant    `json:"tenants"`
	Users    []AgentUser `json:"users"`
}

// ManagementScope 代理的管理范围
type ManagementScope struct {
	AgentID     uint   `json:"agent_id"`
	SubAgentIDs []uint `json:"sub_agent_ids"`
	TenantIDs   []uint `json:"tenant_ids"`
}

// Statistics 代理/租户统计
type Statistics struct {
	Total         int64 `json:"total"`
	Active        int64 `json:"active"`
	Inactive      int64 `json:"inactive"`
	Expired       int64 `json:"expired"`
	QuotaExceeded int64 `json:"quota_exceeded"`
	Available     int64 `json:"available"`
}

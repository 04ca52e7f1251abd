package models

import (
	"strings"
	"time"

	"saasadmin/internal/quota"

	"gorm.io/datatypes"
)

// QuotaView 配额派生字段，随实体一起返回
type QuotaView struct {
	Remaining float64 `json:"remaining_quota"`
	Rate      float64 `json:"usage_rate"`
	Available bool    `json:"is_available"`
}

func newQuotaView(l quota.Ledger, available bool) QuotaView {
	return QuotaView{
		Remaining: l.RemainingQuota(),
		Rate:      l.UsageRate(),
		Available: available,
	}
}

// AgentView 代理响应
type AgentView struct {
	*Agent
	QuotaView
	TopLevel bool `json:"is_top_level"`
}

func NewAgentView(a *Agent, now time.Time) AgentView {
	return AgentView{
		Agent:     a,
		QuotaView: newQuotaView(a.Ledger, a.IsAvailable(now)),
		TopLevel:  a.IsTopLevel(),
	}
}

func NewAgentViews(agents []Agent, now time.Time) []AgentView {
	views := make([]AgentView, len(agents))
	for i := range agents {
		views[i] = NewAgentView(&agents[i], now)
	}
	return views
}

// TenantView 租户响应
type TenantView struct {
	*Tenant
	QuotaView
}

func NewTenantView(t *Tenant, now time.Time) TenantView {
	return TenantView{Tenant: t, QuotaView: newQuotaView(t.Ledger, t.IsAvailable(now))}
}

func NewTenantViews(tenants []Tenant, now time.Time) []TenantView {
	views := make([]TenantView, len(tenants))
	for i := range tenants {
		views[i] = NewTenantView(&tenants[i], now)
	}
	return views
}

// AgentUserView 代理用户响应
type AgentUserView struct {
	*AgentUser
	Admin     bool `json:"is_admin"`
	Available bool `json:"is_available"`
}

// TenantUserView 租户用户响应，可用性同时取决于所属租户
type TenantUserView struct {
	*TenantUser
	QuotaView
	Admin bool `json:"is_admin"`
}

// AppConfigView 应用配置响应，config 中的 api_key 已脱敏
type AppConfigView struct {
	*TenantAppConfig
	QuotaView
	Config    datatypes.JSONMap `json:"config"`
	Endpoint  string            `json:"api_endpoint,omitempty"`
	HasAPIKey bool              `json:"has_api_key"`
}

func NewAppConfigView(c *TenantAppConfig, tenant *Tenant, now time.Time) AppConfigView {
	view := AppConfigView{
		TenantAppConfig: c,
		QuotaView:       newQuotaView(c.Ledger, c.IsAvailable(tenant, now)),
		Config:          c.Config,
		Endpoint:        c.APIEndpoint(),
	}
	if key := c.APIKey(); key != "" {
		view.HasAPIKey = true
		masked := make(datatypes.JSONMap, len(c.Config))
		for k, v := range c.Config {
			masked[k] = v
		}
		masked["api_key"] = maskSecret(key)
		view.Config = masked
	}
	return view
}

func NewAppConfigViews(cfgs []TenantAppConfig, tenant *Tenant, now time.Time) []AppConfigView {
	views := make([]AppConfigView, len(cfgs))
	for i := range cfgs {
		views[i] = NewAppConfigView(&cfgs[i], tenant, now)
	}
	return views
}

// maskSecret 只保留末4位
func maskSecret(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}

// UsageLogView 使用日志响应，附带由快照计算的指标
type UsageLogView struct {
	*QuotaUsageLog
	Successful bool    `json:"is_successful"`
	Error      string  `json:"error_message,omitempty"`
	Efficiency float64 `json:"token_efficiency"`
	PerToken   float64 `json:"cost_per_token"`
	DurationMS *int64  `json:"duration_ms,omitempty"`
}

func NewUsageLogView(l *QuotaUsageLog) UsageLogView {
	view := UsageLogView{
		QuotaUsageLog: l,
		Successful:    l.IsSuccessful(),
		Error:         l.ErrorMessage(),
		Efficiency:    l.TokenEfficiency(),
		PerToken:      l.CostPerToken(),
	}
	if d, ok := l.Duration(); ok {
		view.DurationMS = &d
	}
	return view
}

func NewUsageLogViews(logs []QuotaUsageLog) []UsageLogView {
	views := make([]UsageLogView, len(logs))
	for i := range logs {
		views[i] = NewUsageLogView(&logs[i])
	}
	return views
}

// AgentDetailView 代理详情响应
type AgentDetailView struct {
	AgentView
	Parent   *AgentView      `json:"parent,omitempty"`
	Children []AgentView     `json:"children"`
	Tenants  []TenantView    `json:"tenants"`
	Users    []AgentUserView `json:"users"`
}

func NewAgentDetailView(d *AgentDetail, now time.Time) AgentDetailView {
	view := AgentDetailView{
		AgentView: NewAgentView(d.Agent, now),
		Children:  NewAgentViews(d.Children, now),
		Tenants:   NewTenantViews(d.Tenants, now),
		Users:     make([]AgentUserView, len(d.Users)),
	}
	if d.Parent != nil {
		parent := NewAgentView(d.Parent, now)
		view.Parent = &parent
	}
	for i := range d.Users {
		u := &d.Users[i]
		view.Users[i] = AgentUserView{AgentUser: u, Admin: u.IsAdmin(), Available: u.IsAvailable()}
	}
	return view
}

// TenantDetailView 租户详情响应
type TenantDetailView struct {
	TenantView
	Agent      *AgentView       `json:"agent,omitempty"`
	Users      []TenantUserView `json:"users"`
	AppConfigs []AppConfigView  `json:"app_configs"`
}

func NewTenantDetailView(d *TenantDetail, now time.Time) TenantDetailView {
	view := TenantDetailView{
		TenantView: NewTenantView(d.Tenant, now),
		Users:      make([]TenantUserView, len(d.Users)),
		AppConfigs: NewAppConfigViews(d.AppConfigs, d.Tenant, now),
	}
	if d.Agent != nil {
		agent := NewAgentView(d.Agent, now)
		view.Agent = &agent
	}
	for i := range d.Users {
		u := &d.Users[i]
		view.Users[i] = TenantUserView{
			TenantUser: u,
			QuotaView:  newQuotaView(u.Ledger, u.IsAvailable(d.Tenant, now)),
			Admin:      u.IsAdmin(),
		}
	}
	return view
}

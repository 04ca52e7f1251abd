package models

import (
	"time"

	"saasadmin/internal/quota"

	"gorm.io/datatypes"
)

// TenantAppConfig 租户AI应用配置，配额按应用单独计量
type TenantAppConfig struct {
	BaseModel
	TenantID uint              `json:"tenant_id" gorm:"not null;index"`
	AppType  AppType           `json:"app_type" gorm:"size:50;not null;index"`
	AppName  string            `json:"app_name" gorm:"size:100;not null"`
	Config   datatypes.JSONMap `json:"config" gorm:"type:json"`
	Status   Status            `json:"status" gorm:"type:smallint;default:1;index"`
	Remark   string            `json:"remark" gorm:"size:255;default:''"`
	quota.Ledger
	AuditFields
	SoftDelete
}

// TableName 表名
func (TenantAppConfig) TableName() string {
	return "tenant_app_config"
}

// IsAvailable 配置启用、配额未超限且所属租户可用
func (c *TenantAppConfig) IsAvailable(tenant *Tenant, now time.Time) bool {
	return c.Status == StatusNormal && !c.IsQuotaExceeded() && tenant != nil && tenant.IsAvailable(now)
}

// ConfigValue 按点分路径读取配置，如 "limits.rpm"
func (c *TenantAppConfig) ConfigValue(key string) (interface{}, bool) {
	return dataGet(c.Config, key)
}

// SetConfigValue 按点分路径写入配置，中间层不存在时自动创建
func (c *TenantAppConfig) SetConfigValue(key string, value interface{}) {
	if c.Config == nil {
		c.Config = datatypes.JSONMap{}
	}
	dataSet(c.Config, key, value)
}

// MergeConfig 合并配置，新值覆盖旧值；键为点分路径时只替换对应的嵌套值
func (c *TenantAppConfig) MergeConfig(newConfig map[string]interface{}) {
	for k, v := range newConfig {
		c.SetConfigValue(k, v)
	}
}

// APIKey 获取API密钥
func (c *TenantAppConfig) APIKey() string {
	return c.stringValue("api_key")
}

// APIEndpoint 获取API端点
func (c *TenantAppConfig) APIEndpoint() string {
	return c.stringValue("api_endpoint")
}

func (c *TenantAppConfig) stringValue(key string) string {
	v, ok := c.ConfigValue(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Models 可用模型配置，列表或以模型名为键的对象
func (c *TenantAppConfig) Models() interface{} {
	v, _ := c.ConfigValue("models")
	return v
}

// SupportsModel 检查是否支持指定模型
func (c *TenantAppConfig) SupportsModel(model string) bool {
	switch models := c.Models().(type) {
	case []interface{}:
		for _, m := range models {
			if s, ok := m.(string); ok && s == model {
				return true
			}
		}
	case []string:
		for _, m := range models {
			if m == model {
				return true
			}
		}
	case map[string]interface{}:
		_, ok := models[model]
		return ok
	}
	return false
}

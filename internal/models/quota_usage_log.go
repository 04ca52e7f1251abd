package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// QuotaUsageLog 配额使用日志，只追加，不修改、不删除
type QuotaUsageLog struct {
	ID           uint              `json:"id" gorm:"primarykey"`
	TenantID     uint              `json:"tenant_id" gorm:"not null;index"`
	TenantUserID *uint             `json:"tenant_user_id" gorm:"index"`
	AppType      AppType           `json:"app_type" gorm:"size:50;not null;index"`
	ModelName    string            `json:"model_name" gorm:"size:100;not null;default:''"`
	InputTokens  int64             `json:"input_tokens" gorm:"default:0"`
	OutputTokens int64             `json:"output_tokens" gorm:"default:0"`
	TotalTokens  int64             `json:"total_tokens" gorm:"default:0"`
	Cost         float64           `json:"cost" gorm:"type:decimal(15,6);default:0"`
	RequestID    string            `json:"request_id" gorm:"size:100;index"`
	RequestData  datatypes.JSONMap `json:"request_data" gorm:"type:json"`
	ResponseData datatypes.JSONMap `json:"response_data" gorm:"type:json"`
	IPAddress    string            `json:"ip_address" gorm:"size:45;default:''"`
	UserAgent    string            `json:"user_agent" gorm:"size:255;default:''"`
	Remark       string            `json:"remark" gorm:"size:255;default:''"`
	CreatedAt    time.Time         `json:"created_at" gorm:"index"`
}

// TableName 表名
func (QuotaUsageLog) TableName() string {
	return "quota_usage_log"
}

// RequestValue 读取请求快照中的值
func (l *QuotaUsageLog) RequestValue(key string) (interface{}, bool) {
	return dataGet(l.RequestData, key)
}

// ResponseValue 读取响应快照中的值
func (l *QuotaUsageLog) ResponseValue(key string) (interface{}, bool) {
	return dataGet(l.ResponseData, key)
}

// TokenEfficiency 输出/输入 token 比，保留两位小数
func (l *QuotaUsageLog) TokenEfficiency() float64 {
	if l.InputTokens == 0 {
		return 0
	}
	return round(float64(l.OutputTokens)/float64(l.InputTokens), 2)
}

// CostPerToken 每 token 成本，保留六位小数
func (l *QuotaUsageLog) CostPerToken() float64 {
	if l.TotalTokens == 0 {
		return 0
	}
	return round(l.Cost/float64(l.TotalTokens), 6)
}

// Duration 请求耗时，请求与响应快照都带 timestamp 时有效
func (l *QuotaUsageLog) Duration() (int64, bool) {
	start, ok1 := l.RequestValue("timestamp")
	end, ok2 := l.ResponseValue("timestamp")
	if !ok1 || !ok2 {
		return 0, false
	}
	s, ok1 := toInt64(start)
	e, ok2 := toInt64(end)
	if !ok1 || !ok2 {
		return 0, false
	}
	return e - s, true
}

// IsSuccessful 响应状态为 "success" 或 200
func (l *QuotaUsageLog) IsSuccessful() bool {
	status, ok := l.ResponseValue("status")
	if !ok {
		return false
	}
	if s, ok := status.(string); ok {
		return s == "success"
	}
	code, ok := toInt64(status)
	return ok && code == 200
}

// ErrorMessage 失败时的错误信息，成功返回空串
func (l *QuotaUsageLog) ErrorMessage() string {
	if l.IsSuccessful() {
		return ""
	}
	for _, key := range []string{"error.message", "error"} {
		if v, ok := l.ResponseValue(key); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return "未知错误"
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Package quota 配额账本：限额、已用、剩余、超限与可用性判断，
// 代理、租户、租户用户与应用配置共用同一套规则。
package quota

import (
	"time"

	"saasadmin/pkg/errors"
)

// Ledger 配额账本，嵌入到各实体模型中
type Ledger struct {
	QuotaLimit float64 `json:"quota_limit" gorm:"column:quota_limit;type:decimal(15,2);default:0"`
	QuotaUsed  float64 `json:"quota_used" gorm:"column:quota_used;type:decimal(15,2);default:0"`
}

// IsQuotaExceeded 已用 >= 限额
func (l Ledger) IsQuotaExceeded() bool {
	return l.QuotaUsed >= l.QuotaLimit
}

// RemainingQuota 剩余配额，不小于0
func (l Ledger) RemainingQuota() float64 {
	if rest := l.QuotaLimit - l.QuotaUsed; rest > 0 {
		return rest
	}
	return 0
}

// UsageRate 使用率，限额为0时返回0
func (l Ledger) UsageRate() float64 {
	if l.QuotaLimit <= 0 {
		return 0
	}
	return l.QuotaUsed / l.QuotaLimit
}

// AddUsage 增加使用量，超出限额时返回 ErrQuotaExceeded 且不修改状态
func (l *Ledger) AddUsage(amount float64) error {
	if l.QuotaUsed+amount > l.QuotaLimit {
		return errors.ErrQuotaExceeded
	}
	l.QuotaUsed += amount
	return nil
}

// ResetQuota 清零已用配额，newLimit 非空时同时设置限额。管理操作，不做校验
func (l *Ledger) ResetQuota(newLimit *float64) {
	l.QuotaUsed = 0
	if newLimit != nil {
		l.QuotaLimit = *newLimit
	}
}

// AdjustQuota 按 delta 调整限额，结果为负时返回 ErrInvalidQuota
func (l *Ledger) AdjustQuota(delta float64) error {
	next := l.QuotaLimit + delta
	if next < 0 {
		return errors.ErrInvalidQuota
	}
	l.QuotaLimit = next
	return nil
}

// IsExpired expireAt 非空且早于 now
func IsExpired(expireAt *time.Time, now time.Time) bool {
	return expireAt != nil && expireAt.Before(now)
}

// IsAvailable 状态正常、未过期且配额未超限
func IsAvailable(normal bool, expireAt *time.Time, ledger Ledger, now time.Time) bool {
	return normal && !IsExpired(expireAt, now) && !ledger.IsQuotaExceeded()
}

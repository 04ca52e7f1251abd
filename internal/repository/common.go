// Package repository 代理、租户、应用配置与使用日志的持久化访问
package repository

import (
	stderrors "errors"
	"fmt"
	"time"

	"saasadmin/internal/models"
	"saasadmin/pkg/errors"
	"saasadmin/pkg/pagination"

	"gorm.io/gorm"
)

// CommonFilter 代理与租户共用的列表过滤条件
type CommonFilter struct {
	Status        models.Status `form:"status"`
	Name          string        `form:"name"`
	Code          string        `form:"code"`
	ContactName   string        `form:"contact_name"`
	ContactPhone  string        `form:"contact_phone"`
	ContactEmail  string        `form:"contact_email"`
	IsExpired     *bool         `form:"is_expired"`
	QuotaExceeded *bool         `form:"quota_exceeded"`
	ExpireFrom    *time.Time    `form:"expire_from" time_format:"2006-01-02"`
	ExpireTo      *time.Time    `form:"expire_to" time_format:"2006-01-02"`
}

// scope 生成过滤条件
func (f CommonFilter) scope(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != 0 {
			db = db.Where("status = ?", f.Status)
		}
		if f.Name != "" {
			db = db.Where("name LIKE ?", like(f.Name))
		}
		if f.Code != "" {
			db = db.Where("code LIKE ?", like(f.Code))
		}
		if f.ContactName != "" {
			db = db.Where("contact_name LIKE ?", like(f.ContactName))
		}
		if f.ContactPhone != "" {
			db = db.Where("contact_phone = ?", f.ContactPhone)
		}
		if f.ContactEmail != "" {
			db = db.Where("contact_email = ?", f.ContactEmail)
		}
		if f.IsExpired != nil {
			if *f.IsExpired {
				db = db.Where("expire_at < ?", now)
			} else {
				db = db.Where("expire_at IS NULL OR expire_at >= ?", now)
			}
		}
		if f.QuotaExceeded != nil {
			if *f.QuotaExceeded {
				db = db.Where("quota_used >= quota_limit")
			} else {
				db = db.Where("quota_used < quota_limit")
			}
		}
		if f.ExpireFrom != nil {
			db = db.Where("expire_at >= ?", *f.ExpireFrom)
		}
		if f.ExpireTo != nil {
			db = db.Where("expire_at <= ?", *f.ExpireTo)
		}
		return db
	}
}

func like(keyword string) string {
	return fmt.Sprintf("%%%s%%", keyword)
}

// notFound 将 gorm.ErrRecordNotFound 转换为业务错误
func notFound(err error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrNotFound
	}
	return err
}

// paginate 统计总数并查询当前页
func paginate[T any](query *gorm.DB, page *pagination.PageParams, order string) ([]T, int64, error) {
	var (
		items []T
		total int64
	)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if order != "" {
		query = query.Order(order)
	}
	if page != nil {
		query = query.Scopes(page.Scope)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// statistics 在 scope 范围内分别统计各项数量，每项独立计数
func statistics(db *gorm.DB, model interface{}, scope func(*gorm.DB) *gorm.DB, now time.Time) (*models.Statistics, error) {
	stats := &models.Statistics{}
	counters := []struct {
		dst   *int64
		where string
		args  []interface{}
	}{
		{&stats.Total, "", nil},
		{&stats.Active, "status = ?", []interface{}{models.StatusNormal}},
		{&stats.Expired, "expire_at < ?", []interface{}{now}},
		{&stats.QuotaExceeded, "quota_used >= quota_limit", nil},
	}
	for _, c := range counters {
		query := db.Model(model).Scopes(scope)
		if c.where != "" {
			query = query.Where(c.where, c.args...)
		}
		if err := query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	stats.Inactive = stats.Total - stats.Active
	stats.Available = stats.Active - stats.Expired - stats.QuotaExceeded
	return stats, nil
}

// addUsage 原子地增加已用配额，仅当 quota_used + amount <= quota_limit 时生效
func addUsage(db *gorm.DB, model interface{}, id uint, amount float64) error {
	result := db.Model(model).
		Where("id = ? AND quota_used + ? <= quota_limit", id, amount).
		UpdateColumn("quota_used", gorm.Expr("quota_used + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.ErrQuotaExceeded
	}
	return nil
}

// expiring 状态正常且 expire_at 落在 [now, now+days] 内
func expiring(db *gorm.DB, now time.Time, days int) *gorm.DB {
	return db.Where("status = ?", models.StatusNormal).
		Where("expire_at BETWEEN ? AND ?", now, now.AddDate(0, 0, days))
}

// highUsage 状态正常、限额大于0且使用率不低于 threshold
func highUsage(db *gorm.DB, threshold float64) *gorm.DB {
	return db.Where("status = ?", models.StatusNormal).
		Where("quota_limit > 0 AND quota_used >= quota_limit * ?", threshold)
}

// updateFields 写回实体的可编辑字段。quota_used 只能由 addUsage 与 resetQuota 修改，
// 这里读出的旧值不能覆盖并发扣减的结果
func updateFields(db *gorm.DB, model interface{}) error {
	return db.Model(model).Select("*").
		Omit("id", "quota_used", "created_at", "created_by", "deleted_at").
		Updates(model).Error
}

// adjustLimit 原子地按 delta 调整限额，不触碰 quota_used；结果为负时返回 ErrInvalidQuota
func adjustLimit(db *gorm.DB, model interface{}, id uint, delta float64, operatorID uint) error {
	result := db.Model(model).
		Where("id = ? AND quota_limit + ? >= 0", id, delta).
		Updates(map[string]interface{}{
			"quota_limit": gorm.Expr("quota_limit + ?", delta),
			"updated_by":  operatorID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.ErrInvalidQuota
	}
	return nil
}

// resetQuota 清零已用配额，newLimit 非空时同时写入限额
func resetQuota(db *gorm.DB, model interface{}, id uint, newLimit *float64, operatorID uint) error {
	values := map[string]interface{}{
		"quota_used": 0,
		"updated_by": operatorID,
	}
	if newLimit != nil {
		values["quota_limit"] = *newLimit
	}
	return db.Model(model).Where("id = ?", id).Updates(values).Error
}

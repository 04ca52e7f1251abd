// Package pagination 列表接口的分页参数与分页信息
package pagination

import (
	"math"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageParams 分页参数，零值按默认值处理
type PageParams struct {
	Page     int `json:"page" form:"page" binding:"omitempty,min=1"`
	PageSize int `json:"page_size" form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PageInfo 分页信息
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Bind 从查询参数绑定分页参数，越界时返回校验错误
func Bind(c *gin.Context) (*PageParams, error) {
	var p PageParams
	if err := c.ShouldBindQuery(&p); err != nil {
		return nil, err
	}
	p.normalize()
	return &p, nil
}

func (p *PageParams) normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Scope gorm 分页条件，用于 db.Scopes(page.Scope)
func (p *PageParams) Scope(db *gorm.DB) *gorm.DB {
	p.normalize()
	return db.Offset((p.Page - 1) * p.PageSize).Limit(p.PageSize)
}

// Info 结合总数计算分页信息
func (p *PageParams) Info(total int64) PageInfo {
	p.normalize()
	totalPages := int(math.Ceil(float64(total) / float64(p.PageSize)))
	return PageInfo{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

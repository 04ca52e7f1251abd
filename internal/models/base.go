package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 基础模型
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditFields 操作人字段
type AuditFields struct {
	CreatedBy uint `json:"created_by" gorm:"default:0"`
	UpdatedBy uint `json:"updated_by" gorm:"default:0"`
}

// SoftDelete 软删除标记，普通查询自动排除
type SoftDelete struct {
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

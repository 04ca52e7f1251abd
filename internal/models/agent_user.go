package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// DefaultPassword 管理员账号未指定密码时使用的初始密码
const DefaultPassword = "123456"

// Account 代理用户与租户用户共用的账号字段（用户名的唯一约束随所属表定义）
type Account struct {
	Password    string            `json:"-" gorm:"size:100;not null"`
	Nickname    string            `json:"nickname" gorm:"size:50;default:''"`
	Phone       string            `json:"phone" gorm:"size:20;default:''"`
	Email       string            `json:"email" gorm:"size:100;default:''"`
	Avatar      string            `json:"avatar" gorm:"size:255;default:''"`
	UserType    UserType          `json:"user_type" gorm:"type:smallint;default:1"`
	Status      Status            `json:"status" gorm:"type:smallint;default:1;index"`
	LoginIP     string            `json:"login_ip" gorm:"size:45;default:'127.0.0.1'"`
	LoginTime   *time.Time        `json:"login_time"`
	UserSetting datatypes.JSONMap `json:"user_setting" gorm:"type:json"`
	Remark      string            `json:"remark" gorm:"size:255;default:''"`
}

// SetPassword 设置密码 - 保存bcrypt哈希
func (a *Account) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// VerifyPassword 验证密码
func (a *Account) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) == nil
}

// IsAdmin 是否为管理员
func (a *Account) IsAdmin() bool {
	return a.UserType == UserTypeAdmin
}

// AgentUser 代理用户
type AgentUser struct {
	BaseModel
	AgentID  uint   `json:"agent_id" gorm:"not null;index;uniqueIndex:idx_agent_user_agent_username,priority:1"`
	Username string `json:"username" gorm:"size:50;not null;uniqueIndex:idx_agent_user_agent_username,priority:2"`
	Account
	AuditFields
	SoftDelete
}

// TableName 表名
func (AgentUser) TableName() string {
	return "agent_user"
}

// IsAvailable 代理用户只看自身状态
func (u *AgentUser) IsAvailable() bool {
	return u.Status == StatusNormal
}

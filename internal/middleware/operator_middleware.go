package middleware

import (
	"strconv"

	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// OperatorIDHeader 上游网关注入的操作人ID
	OperatorIDHeader = "X-Operator-ID"
	// OperatorIDKey 操作人ID在 gin 上下文中的键名
	OperatorIDKey = "operator_id"
)

// Operator 读取操作人ID，缺省为0（系统），格式错误时拒绝请求
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		var operatorID uint
		if raw := c.GetHeader(OperatorIDHeader); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				response.BadRequest(c, "无效的操作人ID")
				c.Abort()
				return
			}
			operatorID = uint(id)
		}
		c.Set(OperatorIDKey, operatorID)
		c.Next()
	}
}

// OperatorID 当前请求的操作人ID
func OperatorID(c *gin.Context) uint {
	return c.GetUint(OperatorIDKey)
}

package middleware

import (
	"runtime/debug"

	"saasadmin/pkg/logger"
	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recover 捕获 panic，记录堆栈后返回统一错误
func Recover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithRequestID(c.GetString(logger.RequestIDKey)).WithFields(logrus.Fields{
					"path":  c.Request.URL.Path,
					"panic": err,
					"stack": string(debug.Stack()),
				}).Error("Panic recovered")
				response.ServerError(c, "服务器内部错误")
				c.Abort()
			}
		}()

		c.Next()
	}
}

package response

import (
	stderrors "errors"
	"net/http"

	"saasadmin/pkg/errors"
	"saasadmin/pkg/logger"
	"saasadmin/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Response 统一返回格式，失败时 kind 标识业务错误类型
type Response struct {
	Code    int         `json:"code"`
	Kind    errors.Kind `json:"kind,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ========== 基础返回方法 ==========

// Success 成功返回
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 成功返回（自定义消息）
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// SuccessWithPage 分页成功返回
func SuccessWithPage(c *gin.Context, data interface{}, pageInfo pagination.PageInfo) {
	c.JSON(http.StatusOK, gin.H{
		"code":      errors.CodeSuccess,
		"message":   "success",
		"data":      data,
		"page_info": pageInfo,
	})
}

// Error 通用错误返回
func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ========== HTTP错误快捷方法 ==========

func BadRequest(c *gin.Context, message string) {
	Error(c, errors.CodeInvalidParam, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, errors.CodeNotFound, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, errors.CodeServerError, message)
}

// ========== 错误映射 ==========

// FromError 业务错误按错误码返回，其余错误记录日志后返回服务器错误
func FromError(c *gin.Context, err error) {
	if biz, ok := errors.AsBizError(err); ok {
		c.JSON(http.StatusOK, Response{
			Code:    biz.Code,
			Kind:    biz.Kind,
			Message: biz.Message,
		})
		return
	}

	logger.WithRequestID(c.GetString(logger.RequestIDKey)).
		WithField("path", c.FullPath()).
		WithError(err).
		Error("请求处理失败")
	ServerError(c, "服务器内部错误")
}

// tagMessages 自定义校验标签对应的提示信息
var tagMessages = map[string]string{}

// RegisterTagMessage 注册校验标签的提示信息，启动时调用
func RegisterTagMessage(tag, message string) {
	tagMessages[tag] = message
}

// BindError 请求参数绑定或校验失败
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if msg, ok := tagMessages[fe.Tag()]; ok {
			BadRequest(c, msg)
			return
		}
		BadRequest(c, "参数错误: "+fe.Field()+" 不满足 "+fe.Tag()+" 校验")
		return
	}
	BadRequest(c, "参数错误: "+err.Error())
}

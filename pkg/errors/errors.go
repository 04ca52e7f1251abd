package errors

import (
	stderrors "errors"
)

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam        = 400
	CodeUnauthorized        = 401
	CodeForbidden           = 403
	CodeNotFound            = 404
	CodeConflict            = 409
	CodeUnprocessableEntity = 422
	CodeServerError         = 500
)

// ========== 业务错误 ==========

// Kind 业务错误类型，调用方据此映射协议层响应
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindParentNotFound    Kind = "ParentNotFound"
	KindAgentNotFound     Kind = "AgentNotFound"
	KindParentUnavailable Kind = "ParentUnavailable"
	KindAgentUnavailable  Kind = "AgentUnavailable"
	KindTenantUnavailable Kind = "TenantUnavailable"
	KindAppUnavailable    Kind = "AppUnavailable"
	KindModelUnsupported  Kind = "ModelUnsupported"
	KindDepthExceeded     Kind = "DepthExceeded"
	KindSelfReference     Kind = "SelfReference"
	KindCycleDetected     Kind = "CycleDetected"
	KindHasChildren       Kind = "HasChildren"
	KindHasTenants        Kind = "HasTenants"
	KindHasUsageRecords   Kind = "HasUsageRecords"
	KindQuotaExceeded     Kind = "QuotaExceeded"
	KindInvalidQuota      Kind = "InvalidQuota"
	KindUsernameExists    Kind = "UsernameExists"
	KindCodeExists        Kind = "CodeExists"
	KindInvalidStatus     Kind = "InvalidStatus"
)

// BizError 可恢复的业务错误（错误码 + 可读信息）
type BizError struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *BizError) Error() string {
	return e.Message
}

// Is 按Kind比较，使 errors.Is 对复制出的错误同样生效
func (e *BizError) Is(target error) bool {
	t, ok := target.(*BizError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithMessage 返回相同Kind但信息不同的错误
func (e *BizError) WithMessage(message string) *BizError {
	return &BizError{Code: e.Code, Kind: e.Kind, Message: message}
}

func newBizError(code int, kind Kind, message string) *BizError {
	return &BizError{Code: code, Kind: kind, Message: message}
}

var (
	ErrNotFound          = newBizError(CodeNotFound, KindNotFound, "记录不存在")
	ErrParentNotFound    = newBizError(CodeUnprocessableEntity, KindParentNotFound, "指定的上级代理不存在")
	ErrAgentNotFound     = newBizError(CodeUnprocessableEntity, KindAgentNotFound, "指定的代理不存在")
	ErrParentUnavailable = newBizError(CodeUnprocessableEntity, KindParentUnavailable, "指定的上级代理不可用")
	ErrAgentUnavailable  = newBizError(CodeUnprocessableEntity, KindAgentUnavailable, "指定的代理不可用")
	ErrTenantUnavailable = newBizError(CodeUnprocessableEntity, KindTenantUnavailable, "租户不可用")
	ErrAppUnavailable    = newBizError(CodeUnprocessableEntity, KindAppUnavailable, "应用配置不可用")
	ErrModelUnsupported  = newBizError(CodeUnprocessableEntity, KindModelUnsupported, "应用配置不支持该模型")
	ErrDepthExceeded     = newBizError(CodeUnprocessableEntity, KindDepthExceeded, "代理层级超过上限")
	ErrSelfReference     = newBizError(CodeUnprocessableEntity, KindSelfReference, "不能设置自己为上级代理")
	ErrCycleDetected     = newBizError(CodeUnprocessableEntity, KindCycleDetected, "不能设置下级代理为上级代理")
	ErrHasChildren       = newBizError(CodeUnprocessableEntity, KindHasChildren, "该代理存在下级代理，无法删除")
	ErrHasTenants        = newBizError(CodeUnprocessableEntity, KindHasTenants, "该代理存在关联的租户，无法删除")
	ErrHasUsageRecords   = newBizError(CodeUnprocessableEntity, KindHasUsageRecords, "该租户存在使用记录，无法删除")
	ErrQuotaExceeded     = newBizError(CodeUnprocessableEntity, KindQuotaExceeded, "配额不足")
	ErrInvalidQuota      = newBizError(CodeUnprocessableEntity, KindInvalidQuota, "配额不能为负数")
	ErrUsernameExists    = newBizError(CodeConflict, KindUsernameExists, "管理员用户名已存在")
	ErrCodeExists        = newBizError(CodeConflict, KindCodeExists, "编码已存在")
	ErrInvalidStatus     = newBizError(CodeInvalidParam, KindInvalidStatus, "无效的状态值")
)

// AsBizError 从错误链中取出业务错误
func AsBizError(err error) (*BizError, bool) {
	var biz *BizError
	if stderrors.As(err, &biz) {
		return biz, true
	}
	return nil, false
}

// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrRateLimitExceed = New(1007, "请求过于频繁")
	ErrConflict        = New(1008, "并发冲突，请重试")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrPermissionDenied = New(2003, "权限不足")
	ErrAccountDisabled  = New(2004, "账号已禁用")
	ErrPasswordError    = New(2005, "密码错误")
)

// 用户/店铺/骑手错误码 (3000-3999)
var (
	ErrCustomerNotFound = New(3000, "顾客不存在")
	ErrShopNotFound     = New(3001, "店铺不存在")
	ErrShopDisabled     = New(3002, "店铺已禁用")
	ErrRiderNotFound    = New(3003, "骑手不存在")
	ErrRiderDisabled    = New(3004, "骑手已禁用")
	ErrAdminNotFound    = New(3005, "管理员不存在")
)

// 订单错误码 (5000-5999)
var (
	ErrOrderNotFound          = New(5000, "订单不存在")
	ErrOrderIllegalTransition = New(5001, "订单状态不允许该操作")
	ErrOrderStatusConflict    = New(5002, "订单状态已变更，请刷新后重试")
	ErrOrderCannotCancel      = New(5003, "骑手已取货，订单无法取消")
	ErrOrderRiderRequired     = New(5004, "该操作需要先分配骑手")
	ErrOrderAmountInvalid     = New(5005, "订单金额无效")
	ErrDiscountExceedsMargin  = New(5006, "优惠金额超出平台佣金")
)

// 积分错误码 (6000-6999)
var (
	ErrPointsInvalid          = New(6000, "积分数量无效")
	ErrPointsInsufficient     = New(6001, "积分余额不足")
	ErrPointsExceedCommission = New(6002, "抵扣积分超出平台佣金")
	ErrReferralAlreadyGranted = New(6003, "邀请奖励已发放")
)

// 结算错误码 (7000-7999)
var (
	ErrPeriodNotFound        = New(7000, "结算周期不存在")
	ErrNoActivePeriod        = New(7001, "没有进行中的结算周期")
	ErrPeriodAlreadyClosed   = New(7002, "结算周期已关账")
	ErrPeriodCloseInProgress = New(7003, "关账操作正在进行中")
	ErrSettlementNotFound    = New(7004, "结算单不存在")
	ErrSettlementNotPending  = New(7005, "结算单不是待打款状态")
	ErrSettlementExists      = New(7006, "该周期的结算单已生成")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// Is 判断错误是否为指定的应用错误（按错误码比较）
func Is(err error, target *AppError) bool {
	appErr, ok := err.(*AppError)
	return ok && target != nil && appErr.Code == target.Code
}

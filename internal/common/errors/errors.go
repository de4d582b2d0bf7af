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
	ErrUnknown          = New(1000, "未知错误")
	ErrInvalidParams    = New(1001, "参数错误")
	ErrNotFound         = New(1002, "资源不存在")
	ErrAlreadyExists    = New(1003, "资源已存在")
	ErrDatabaseError    = New(1004, "数据库错误")
	ErrCacheError       = New(1005, "缓存错误")
	ErrInternalError    = New(1006, "内部错误")
	ErrExternalService  = New(1007, "外部服务错误")
	ErrRateLimitExceed  = New(1008, "请求过于频繁")
	ErrOperationFailed  = New(1009, "操作失败")
	ErrInvalidDateRange = New(1010, "无效的日期区间")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrTokenRefreshFail = New(2003, "刷新令牌失败")
	ErrPermissionDenied = New(2004, "权限不足")
	ErrAccountDisabled  = New(2005, "账号已禁用")
	ErrPasswordError    = New(2006, "密码错误")
	ErrNotTenant        = New(2007, "仅房东可执行此操作")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound = New(3000, "用户不存在")
	ErrUserExists   = New(3001, "用户已存在")
	ErrEmailExists  = New(3002, "邮箱已被注册")
	ErrEmailInvalid = New(3003, "无效的邮箱")
)

// 房源错误码 (4000-4999)
var (
	ErrPropertyNotFound  = New(4000, "房源不存在")
	ErrPropertyDisabled  = New(4001, "房源已下架")
	ErrNotPropertyOwner  = New(4002, "无权操作该房源")
	ErrPropertyHasOrders = New(4003, "房源存在未完成订单")
)

// 房型与库存错误码 (5000-5999)
var (
	ErrCategoryNotFound        = New(5000, "房型不存在")
	ErrCategoryTypeExists      = New(5001, "该房源下已存在同类型房型")
	ErrCategoryHasFutureOrders = New(5002, "房型存在未退房订单，无法删除")
	ErrRoomNotFound            = New(5003, "房间不存在")
	ErrRoomCountInvalid        = New(5004, "房间数量必须为非负整数")
	ErrInsufficientRemovable   = New(5005, "可移除房间数量不足")
	ErrPeakWindowIncomplete    = New(5006, "旺季价格窗口配置不完整")
	ErrPeakWindowInvalid       = New(5007, "旺季开始日期晚于结束日期")
	ErrRoomNotAvailable        = New(5008, "该时段无可用房间")
	ErrCategoryNotInProperty   = New(5009, "房型不属于该房源")
)

// 订单错误码 (6000-6999)
var (
	ErrOrderNotFound     = New(6000, "订单不存在")
	ErrOrderStatusError  = New(6001, "订单状态异常")
	ErrOrderExpired      = New(6002, "订单已过期")
	ErrOrderCancelled    = New(6003, "订单已取消")
	ErrOrderPaid         = New(6004, "订单已支付")
	ErrOrderCannotCancel = New(6005, "订单无法取消")
	ErrNotOrderOwner     = New(6006, "无权操作该订单")
	ErrOrderNotPaid      = New(6007, "订单未支付")
)

// 支付错误码 (7000-7999)
var (
	ErrPaymentNotFound = New(7000, "支付记录不存在")
	ErrPaymentFailed   = New(7001, "支付失败")
	ErrPaymentExpired  = New(7002, "支付已过期")
	ErrRefundFailed    = New(7003, "退款失败")
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

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
	ErrResourceNotFound = New(1010, "资源不存在")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized      = New(2000, "未登录")
	ErrTokenExpired      = New(2001, "登录已过期")
	ErrTokenInvalid      = New(2002, "无效的令牌")
	ErrTokenRefreshFail  = New(2003, "刷新令牌失败")
	ErrPermissionDenied  = New(2004, "权限不足")
	ErrAccountDisabled   = New(2005, "账号已禁用")
	ErrAccountInactive   = New(2006, "账号未激活")
	ErrPasswordError     = New(2007, "密码错误")
	ErrActivationInvalid = New(2008, "激活码无效")
	ErrActivationExpired = New(2009, "激活码已过期")
	ErrAPIKeyInvalid     = New(2010, "API密钥无效")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound     = New(3000, "用户不存在")
	ErrUserExists       = New(3001, "用户已存在")
	ErrUsernameExists   = New(3002, "用户名已被注册")
	ErrEmailExists      = New(3003, "邮箱已被注册")
	ErrEmailInvalid     = New(3004, "无效的邮箱")
	ErrNotAmbassador    = New(3005, "仅限大使账号操作")
	ErrProfileNotFound  = New(3006, "用户资料不存在")
	ErrWalletNotSet     = New(3007, "未设置钱包地址")
)

// 推广错误码 (4000-4999)
var (
	ErrReferralNotFound       = New(4000, "推荐关系不存在")
	ErrReferralExists         = New(4001, "推荐关系已存在")
	ErrReferralCodeInvalid    = New(4002, "推荐码无效")
	ErrReferralCodeInactive   = New(4003, "推荐码已停用")
	ErrSelfReferral           = New(4004, "不能推荐自己")
	ErrCommissionNotFound     = New(4005, "佣金记录不存在")
	ErrCommissionNotPending   = New(4006, "佣金不在待审核状态")
	ErrCommissionNotApproved  = New(4007, "佣金未审核通过")
	ErrCommissionFinalized    = New(4008, "佣金状态已终结")
	ErrCommissionRateInvalid  = New(4009, "佣金比例超出允许范围")
	ErrCommissionRateExists   = New(4010, "佣金比例配置已存在")
	ErrNoReferralForUser      = New(4011, "该用户没有推荐人")
)

// 结算错误码 (5000-5999)
var (
	ErrPayoutNotFound       = New(5000, "结算单不存在")
	ErrPayoutStatusError    = New(5001, "结算单状态异常")
	ErrPayoutBelowMinimum   = New(5002, "结算金额低于最低限额")
	ErrPayoutMethodInvalid  = New(5003, "不支持的结算方式")
	ErrPayoutEmptySelection = New(5004, "未选择任何佣金")
	ErrCommissionInPayout   = New(5005, "佣金已加入其他结算单")
	ErrCommissionNotOwned   = New(5006, "佣金不属于当前用户")
	ErrWithdrawalFailed     = New(5007, "提现请求失败")
)

// 白标站点错误码 (6000-6999)
var (
	ErrWhiteLabelNotFound   = New(6000, "白标站点不存在")
	ErrWhiteLabelLimit      = New(6001, "白标站点数量已达上限")
	ErrDomainExists         = New(6002, "域名已被使用")
	ErrDomainInvalid        = New(6003, "无效的域名")
	ErrCustomDomainNotSet   = New(6004, "未配置自定义域名")
	ErrDNSVerifyFailed      = New(6005, "DNS验证未通过")
	ErrBannerNotFound       = New(6006, "横幅不存在")
	ErrBannerLimit          = New(6007, "个人横幅数量已达上限")
	ErrBannerImageRequired  = New(6008, "个人横幅需要图片")
	ErrBannerHTMLRequired   = New(6009, "合作横幅需要HTML内容和联系邮箱")
)

// 通知错误码 (7000-7999)
var (
	ErrNotificationNotFound = New(7000, "通知不存在")
	ErrTelegramNotBound     = New(7001, "未绑定Telegram")
	ErrTelegramSendFailed   = New(7002, "Telegram发送失败")
)

// 支付回调错误码 (8000-8999)
var (
	ErrWebhookSignature    = New(8000, "回调签名验证失败")
	ErrWebhookPayload      = New(8001, "回调数据解析失败")
	ErrTransactionNotFound = New(8002, "交易记录不存在")
	ErrTransactionExists   = New(8003, "交易已处理")
	ErrPaymentGatewayError = New(8004, "支付网关错误")
)

// 对外接口错误码 (9000-9999)
var (
	ErrExternalAPIKeyMissing = New(9000, "缺少API密钥")
	ErrExternalSignupFailed  = New(9001, "外部注册失败")
	ErrSyncFailed            = New(9002, "数据同步失败")
	ErrUploadFailed          = New(9003, "文件上传失败")
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

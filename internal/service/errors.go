package service

import "errors"

// 硬配置错误：系统配置不对，必须显式抛给调用方
// 数据层面的脏数据（环、悬空父引用、歧义匹配）不走 error，降级为尽力而为的结果
var (
	// ErrMasterShopNotConfigured 未配置主站店铺
	ErrMasterShopNotConfigured = errors.New("master shop not configured")
	// ErrShopNotFound 目标店铺不存在
	ErrShopNotFound = errors.New("shop not found")
	// ErrMappingNotFound 映射行不存在
	ErrMappingNotFound = errors.New("mapping not found")
	// ErrShopCodeExists 店铺编码重复
	ErrShopCodeExists = errors.New("shop code already exists")
	// ErrMasterAlreadyExists 主站只允许一个
	ErrMasterAlreadyExists = errors.New("master shop already exists")
	// ErrMasterShopProtected 主站不允许删除
	ErrMasterShopProtected = errors.New("master shop cannot be deleted")

	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserDisabled 账号已停用
	ErrUserDisabled = errors.New("user disabled")
	// ErrInvalidToken Token 无效或类型不对
	ErrInvalidToken = errors.New("invalid token")

	// ErrAISuggestFailed AI 协作方调用失败（超时/响应不可解析），本批建议一条都不落库
	ErrAISuggestFailed = errors.New("ai suggestion call failed")
)

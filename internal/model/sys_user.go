package model

// ==================== SysUser 系统用户 ====================

// 用户角色
const (
	UserRoleAdmin    = "admin"
	UserRoleOperator = "operator"
)

// SysUser 后台用户
type SysUser struct {
	BaseModel
	Username     string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         string `gorm:"size:20;default:operator" json:"role"`
	Status       int    `gorm:"default:1" json:"status"`
}

func (SysUser) TableName() string {
	return "sys_users"
}

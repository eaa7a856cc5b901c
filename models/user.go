package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// 用户角色常量
const (
	RoleAdmin  = "admin"  // 管理员（总部/老板）
	RoleVendor = "vendor" // 门店商户
)

// 商户审批状态常量
const (
	ApprovalPending  = "pending"  // 待审批
	ApprovalApproved = "approved" // 已通过
	ApprovalRejected = "rejected" // 已拒绝
)

// User 用户模型
// 管理员和门店商户共用一张表，通过role区分
// 商户注册后需要管理员审批通过才能使用门店功能
type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`                 // 主键ID
	Name           string     `json:"name" gorm:"size:100"`                 // 姓名
	Email          string     `json:"email" gorm:"size:100;uniqueIndex"`    // 邮箱，登录用，唯一
	Password       string     `json:"-" gorm:"size:100"`                    // 密码，不返回给前端
	Role           string     `json:"role" gorm:"size:20;default:vendor"`   // 角色：admin管理员, vendor商户
	VendorName     string     `json:"vendorName" gorm:"size:100"`           // 商户名称，仅商户有
	BranchID       *uint      `json:"branchId" gorm:"index"`                // 所属门店ID，允许为空
	BranchName     string     `json:"branchName" gorm:"size:100"`           // 所属门店名称
	ApprovalStatus string     `json:"approvalStatus" gorm:"size:20"`        // 审批状态：pending待审批, approved已通过, rejected已拒绝（仅商户）
	Status         string     `json:"status" gorm:"size:20;default:active"` // 账号状态：active正常, disabled禁用
	LastLoginAt    *time.Time `json:"lastLoginAt"`                          // 最后登录时间
	CreatedAt      time.Time  `json:"createdAt" gorm:"autoCreateTime"`      // 创建时间
	UpdatedAt      time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`      // 更新时间
}

// TableName 返回表名
func (User) TableName() string {
	return "users"
}

// SetPassword 设置加密密码
func (u *User) SetPassword(plainPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plainPassword))
	return err == nil
}

// IsApprovedVendor 判断是否为已审批通过的商户
func (u *User) IsApprovedVendor() bool {
	return u.Role == RoleVendor && u.ApprovalStatus == ApprovalApproved
}

// UserToken 用户令牌模型
// 记录已签发的JWT令牌，支持多设备登录、令牌刷新和主动撤销
type UserToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`            // 主键ID
	UserID    uint      `json:"userId" gorm:"index"`             // 用户ID
	Token     string    `json:"-" gorm:"size:512;index"`         // JWT令牌
	UserAgent string    `json:"userAgent" gorm:"size:255"`       // 登录设备信息
	IP        string    `json:"ip" gorm:"size:50"`               // 登录IP
	ExpiredAt time.Time `json:"expiredAt"`                       // 过期时间
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"` // 创建时间
}

// TableName 返回表名
func (UserToken) TableName() string {
	return "user_tokens"
}

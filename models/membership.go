package models

import "time"

// 会籍状态常量
const (
	MembershipActive  = "active"  // 生效中
	MembershipUsed    = "used"    // 次数已用完
	MembershipExpired = "expired" // 已过期
)

// MembershipType 会籍套餐类型
// 套餐模板，定义总次数、价格、服务类别和有效期天数
type MembershipType struct {
	ID              uint      `json:"id" gorm:"primaryKey"`            // 主键ID
	Name            string    `json:"name" gorm:"size:100"`            // 套餐名称
	TotalCredits    int       `json:"totalCredits"`                    // 总次数
	Price           Money     `json:"price"`                           // 套餐价格
	ServiceCategory string    `json:"serviceCategory" gorm:"size:50"`  // 服务类别
	ValidityDays    int       `json:"validityDays"`                    // 有效期天数，0表示不限
	IsActive        bool      `json:"isActive" gorm:"default:true"`    // 是否在售
	CreatedAt       time.Time `json:"createdAt" gorm:"autoCreateTime"` // 创建时间
	UpdatedAt       time.Time `json:"updatedAt" gorm:"autoUpdateTime"` // 更新时间
}

// TableName 返回表名
func (MembershipType) TableName() string {
	return "membership_types"
}

// Membership 会籍记录
// 顾客在某个门店购买的次数套餐，核销只增不减
// 状态不由后台任务维护，每次读取时通过EffectiveStatus重新推导
// 数据库中的status字段仅在次数用完时随核销事务一起落盘
type Membership struct {
	ID               uint       `json:"id" gorm:"primaryKey"`               // 主键ID
	CustomerID       uint       `json:"customerId" gorm:"index"`            // 顾客ID
	MembershipTypeID *uint      `json:"membershipTypeId" gorm:"index"`      // 套餐类型ID，可空（自定义套餐）
	TypeName         string     `json:"typeName" gorm:"size:100"`           // 套餐名称
	TotalCredits     int        `json:"totalCredits"`                       // 总次数，至少为1
	UsedCredits      int        `json:"usedCredits"`                        // 已用次数
	SoldAtBranchID   uint       `json:"soldAtBranchId" gorm:"index"`        // 售出门店ID
	SoldAtBranch     string     `json:"soldAtBranch" gorm:"size:100"`       // 售出门店名称
	PurchaseDate     time.Time  `json:"purchaseDate"`                       // 购买日期
	ExpiryDate       *time.Time `json:"expiryDate"`                         // 到期日，可空
	Status           string     `json:"status" gorm:"size:20;default:active"` // 状态：active, used, expired
	PackagePrice     Money      `json:"packagePrice"`                       // 套餐价格
	DiscountAmount   Money      `json:"discountAmount"`                     // 折扣金额，0 ≤ 折扣 ≤ 价格
	CreatedAt        time.Time  `json:"createdAt" gorm:"autoCreateTime"`    // 创建时间
	UpdatedAt        time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`    // 更新时间
}

// TableName 返回表名
func (Membership) TableName() string {
	return "memberships"
}

// RemainingCredits 剩余次数
func (m *Membership) RemainingCredits() int {
	return m.TotalCredits - m.UsedCredits
}

// EffectiveStatus 推导会籍的当前状态
// 这是(usedCredits, totalCredits, expiryDate, now)的纯函数，
// 列表、详情、核销资格检查等所有读取位置必须统一走这里，
// 避免同一条会籍在不同视图下状态不一致
// 规则：次数用完为used；否则超过到期日为expired；否则为active
func (m *Membership) EffectiveStatus(now time.Time) string {
	if m.RemainingCredits() <= 0 {
		return MembershipUsed
	}
	if m.ExpiryDate != nil && now.After(*m.ExpiryDate) {
		return MembershipExpired
	}
	return MembershipActive
}

// MembershipQuery 会籍查询参数
type MembershipQuery struct {
	BranchID   uint   `json:"branchId" query:"branchId"`     // 售出门店筛选
	CustomerID uint   `json:"customerId" query:"customerId"` // 顾客筛选
	Status     string `json:"status" query:"status"`         // 状态筛选（按推导状态过滤）
	Page       int    `json:"page" query:"page"`             // 页码
	PageSize   int    `json:"pageSize" query:"pageSize"`     // 每页数量
}

// MembershipUsage 会籍核销记录
// 创建后不可变更，与父会籍的次数递增在同一个事务内落盘
// 跨门店核销（核销门店 ≠ 售出门店）必须填写服务明细
type MembershipUsage struct {
	ID             uint      `json:"id" gorm:"primaryKey"`            // 主键ID
	MembershipID   uint      `json:"membershipId" gorm:"index"`       // 会籍ID
	UsedAtBranchID uint      `json:"usedAtBranchId" gorm:"index"`     // 核销门店ID
	UsedAtBranch   string    `json:"usedAtBranch" gorm:"size:100"`    // 核销门店名称
	CreditsUsed    int       `json:"creditsUsed"`                     // 本次核销次数
	UsedByUserID   *uint     `json:"usedByUserId"`                    // 操作人ID
	UsedBy         string    `json:"usedBy" gorm:"size:100"`          // 操作人姓名
	ServiceDetails string    `json:"serviceDetails" gorm:"size:255"`  // 服务明细，跨门店核销必填
	Notes          string    `json:"notes" gorm:"type:text"`          // 备注
	UsedAt         time.Time `json:"usedAt"`                          // 核销时间
	CreatedAt      time.Time `json:"createdAt" gorm:"autoCreateTime"` // 创建时间
}

// TableName 返回表名
func (MembershipUsage) TableName() string {
	return "membership_usages"
}

package models

import "time"

// Customer 顾客模型
// 顾客归属于一个主门店，可选关联当前套餐信息
// 会员卡号由门店编码加序列号生成，全局唯一
type Customer struct {
	ID                    uint       `json:"id" gorm:"primaryKey"`                      // 主键ID
	Name                  string     `json:"name" gorm:"size:100"`                      // 姓名
	Phone                 string     `json:"phone" gorm:"size:20;index"`                // 电话
	Email                 string     `json:"email" gorm:"size:100"`                     // 邮箱
	MembershipCardID      string     `json:"membershipCardId" gorm:"size:30;uniqueIndex"` // 会员卡号，自动生成，唯一
	PrimaryBranchID       *uint      `json:"primaryBranchId" gorm:"index"`              // 主门店ID
	PrimaryBranch         string     `json:"primaryBranch" gorm:"size:100"`             // 主门店名称
	CustomerPackage       string     `json:"customerPackage" gorm:"size:100"`           // 当前套餐名称
	CustomerPackagePrice  Money      `json:"customerPackagePrice"`                      // 当前套餐价格
	CustomerPackageExpiry *time.Time `json:"customerPackageExpiry"`                     // 当前套餐到期日
	Notes                 string     `json:"notes" gorm:"type:text"`                    // 备注
	CreatedAt             time.Time  `json:"createdAt" gorm:"autoCreateTime"`           // 创建时间
	UpdatedAt             time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`           // 更新时间
}

// TableName 返回表名
func (Customer) TableName() string {
	return "customers"
}

// CustomerQuery 顾客查询参数
type CustomerQuery struct {
	Search   string `json:"search" query:"search"`     // 姓名或电话模糊搜索
	BranchID uint   `json:"branchId" query:"branchId"` // 主门店筛选
	Page     int    `json:"page" query:"page"`         // 页码
	PageSize int    `json:"pageSize" query:"pageSize"` // 每页数量
}

package models

import "time"

// LeadStatus 线索状态定义
// 线索漏斗的状态集合由管理员配置，带排序，停用即软删除
// 线索状态流转不限制方向，但目标状态必须是当前启用的状态之一
type LeadStatus struct {
	ID        uint      `json:"id" gorm:"primaryKey"`             // 主键ID
	Name      string    `json:"name" gorm:"size:50;uniqueIndex"`  // 状态名称，唯一
	SortOrder int       `json:"sortOrder" gorm:"default:0"`       // 排序值
	IsActive  bool      `json:"isActive" gorm:"default:true"`     // 是否启用
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`  // 创建时间
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`  // 更新时间
}

// TableName 返回表名
func (LeadStatus) TableName() string {
	return "lead_statuses"
}

// Lead 销售线索
// 潜在顾客，按门店归属，经过状态漏斗后转化为顾客/预约
type Lead struct {
	ID        uint           `json:"id" gorm:"primaryKey"`                    // 主键ID
	Name      string         `json:"name" gorm:"size:100"`                    // 姓名
	Phone     string         `json:"phone" gorm:"size:20"`                    // 电话
	Email     string         `json:"email" gorm:"size:100"`                   // 邮箱
	Source    string         `json:"source" gorm:"size:50"`                   // 线索来源
	BranchID  *uint          `json:"branchId" gorm:"index"`                   // 归属门店ID
	Branch    string         `json:"branch" gorm:"size:100"`                  // 归属门店名称
	Status    string         `json:"status" gorm:"size:50"`                   // 当前状态
	Notes     string         `json:"notes" gorm:"type:text"`                  // 备注
	FollowUps []LeadFollowUp `json:"followUps" gorm:"foreignKey:LeadID"`      // 跟进记录，只追加
	CreatedAt time.Time      `json:"createdAt" gorm:"autoCreateTime"`         // 创建时间
	UpdatedAt time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`         // 更新时间
}

// TableName 返回表名
func (Lead) TableName() string {
	return "leads"
}

// LeadFollowUp 线索跟进记录
// 只追加不修改
type LeadFollowUp struct {
	ID        uint      `json:"id" gorm:"primaryKey"`            // 主键ID
	LeadID    uint      `json:"leadId" gorm:"index"`             // 线索ID
	Note      string    `json:"note" gorm:"type:text"`           // 跟进内容
	ByUserID  *uint     `json:"byUserId"`                        // 跟进人ID
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"` // 跟进时间
}

// TableName 返回表名
func (LeadFollowUp) TableName() string {
	return "lead_follow_ups"
}

// LeadQuery 线索查询参数
type LeadQuery struct {
	BranchID uint   `json:"branchId" query:"branchId"` // 门店筛选
	Status   string `json:"status" query:"status"`     // 状态筛选
	Search   string `json:"search" query:"search"`     // 姓名或电话模糊搜索
	Page     int    `json:"page" query:"page"`         // 页码
	PageSize int    `json:"pageSize" query:"pageSize"` // 每页数量
}

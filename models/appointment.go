package models

import "time"

// 预约状态常量
const (
	AppointmentScheduled = "scheduled" // 已预约
	AppointmentCompleted = "completed" // 已完成
	AppointmentCancelled = "cancelled" // 已取消
	AppointmentNoShow    = "no-show"   // 爽约
)

// Service 服务项目
// 门店提供的服务目录，销售看板按服务类别汇总时引用
type Service struct {
	ID              uint      `json:"id" gorm:"primaryKey"`            // 主键ID
	Name            string    `json:"name" gorm:"size:100"`            // 服务名称
	Category        string    `json:"category" gorm:"size:50"`         // 服务类别
	BranchID        *uint     `json:"branchId" gorm:"index"`           // 所属门店ID，空表示全门店通用
	DurationMinutes int       `json:"durationMinutes"`                 // 服务时长（分钟）
	Price           Money     `json:"price"`                           // 价格
	IsActive        bool      `json:"isActive" gorm:"default:true"`    // 是否可预约
	CreatedAt       time.Time `json:"createdAt" gorm:"autoCreateTime"` // 创建时间
	UpdatedAt       time.Time `json:"updatedAt" gorm:"autoUpdateTime"` // 更新时间
}

// TableName 返回表名
func (Service) TableName() string {
	return "services"
}

// Appointment 预约记录
type Appointment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`                    // 主键ID
	CustomerID  uint      `json:"customerId" gorm:"index"`                 // 顾客ID
	BranchID    uint      `json:"branchId" gorm:"index"`                   // 门店ID
	Branch      string    `json:"branch" gorm:"size:100"`                  // 门店名称
	Staff       string    `json:"staff" gorm:"size:100"`                   // 服务人员
	ServiceID   *uint     `json:"serviceId"`                               // 服务项目ID
	ServiceName string    `json:"service" gorm:"size:100"`                 // 服务项目名称
	ScheduledAt time.Time `json:"scheduledAt" gorm:"index"`                // 预约时间
	Status      string    `json:"status" gorm:"size:20;default:scheduled"` // 状态：scheduled, completed, cancelled, no-show
	Notes       string    `json:"notes" gorm:"type:text"`                  // 备注
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`         // 创建时间
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`         // 更新时间
}

// TableName 返回表名
func (Appointment) TableName() string {
	return "appointments"
}

// AppointmentQuery 预约查询参数
type AppointmentQuery struct {
	BranchID   uint   `json:"branchId" query:"branchId"`     // 门店筛选
	CustomerID uint   `json:"customerId" query:"customerId"` // 顾客筛选
	Status     string `json:"status" query:"status"`         // 状态筛选
	From       string `json:"from" query:"from"`             // 起始日期
	To         string `json:"to" query:"to"`                 // 结束日期
	Page       int    `json:"page" query:"page"`             // 页码
	PageSize   int    `json:"pageSize" query:"pageSize"`     // 每页数量
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// 积分交易类型常量
const (
	LoyaltyEarn   = "earn"   // 获得积分
	LoyaltyRedeem = "redeem" // 兑换积分
)

// LoyaltyTransaction 积分交易记录
// 顾客的积分账户是隐式的：余额永远等于全部交易的有符号积分之和
// earn记正数，redeem记负数，余额不单独存储，不会与流水漂移
type LoyaltyTransaction struct {
	ID         uint      `json:"id" gorm:"primaryKey"`            // 主键ID
	CustomerID uint      `json:"customerId" gorm:"index"`         // 顾客ID
	Points     int       `json:"points"`                          // 有符号积分变动，earn为正，redeem为负
	Type       string    `json:"type" gorm:"size:20"`             // 类型：earn获得, redeem兑换
	Reason     string    `json:"reason" gorm:"size:255"`          // 事由
	BranchID   *uint     `json:"branchId"`                        // 发生门店ID
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"` // 交易时间
}

// TableName 返回表名
func (LoyaltyTransaction) TableName() string {
	return "loyalty_transactions"
}

// LoyaltyBalance 计算顾客的当前积分余额
// 余额派生自交易流水求和，所有读取位置统一走这里
func LoyaltyBalance(db *gorm.DB, customerID uint) (int, error) {
	var balance int64
	err := db.Model(&LoyaltyTransaction{}).
		Where("customer_id = ?", customerID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&balance).Error
	return int(balance), err
}

package models

import "time"

// Branch 门店模型
// 门店只做软删除（停用），不做物理删除
// 会员卡号、会籍售出门店、核销门店等都引用门店ID
type Branch struct {
	ID        uint      `json:"id" gorm:"primaryKey"`             // 主键ID
	Name      string    `json:"name" gorm:"size:100"`             // 门店名称
	Code      string    `json:"code" gorm:"size:20;uniqueIndex"`  // 门店编码，会员卡号前缀
	Address   string    `json:"address" gorm:"size:255"`          // 门店地址
	IsActive  bool      `json:"isActive" gorm:"default:true"`     // 是否启用，停用即软删除
	CardSeq   int       `json:"-" gorm:"default:0"`               // 会员卡号序列，发卡时事务内递增
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`  // 创建时间
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`  // 更新时间
}

// TableName 返回表名
func (Branch) TableName() string {
	return "branches"
}

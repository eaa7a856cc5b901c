package models

import (
	"time"

	"gorm.io/gorm"
)

// SystemSettings 系统全局配置
// 进程级单例，只有一行记录，只有管理员可以修改
// settlementPercentage是跨门店结算比例，revenuePercentage是营收分成比例
// 核销时读取当前值参与结算金额计算，作为依赖注入而非环境全局
type SystemSettings struct {
	ID                   uint      `json:"-" gorm:"primaryKey"`                  // 主键ID，恒为1
	RevenuePercentage    float64   `json:"revenuePercentage" gorm:"default:0"`   // 营收分成比例，0-100
	SettlementPercentage float64   `json:"settlementPercentage" gorm:"default:100"` // 跨门店结算比例，0-100
	UpdatedAt            time.Time `json:"-" gorm:"autoUpdateTime"`              // 更新时间
}

// TableName 返回表名
func (SystemSettings) TableName() string {
	return "system_settings"
}

// LoadSettings 加载系统配置
// 不存在时创建默认配置行，保证单例存在
func LoadSettings(db *gorm.DB) (SystemSettings, error) {
	var settings SystemSettings
	err := db.First(&settings, 1).Error
	if err == gorm.ErrRecordNotFound {
		settings = SystemSettings{ID: 1, RevenuePercentage: 0, SettlementPercentage: 100}
		if err := db.Create(&settings).Error; err != nil {
			return settings, err
		}
		return settings, nil
	}
	return settings, err
}

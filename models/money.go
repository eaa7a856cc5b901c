package models

import (
	"math"
	"strconv"
)

// Money 金额类型，内部以最小货币单位（分/派萨）的整数存储
// 对外的JSON接口交换普通的十进制金额，序列化时换算为元
// 结算账本要求至少两位小数精度，且多次部分核销累加不允许出现浮点误差
// 因此所有金额运算都在整数上完成，只在JSON边界做一次换算
type Money int64

// MoneyFromDecimal 将十进制金额（元）换算为Money
// 四舍五入到最小货币单位
func MoneyFromDecimal(amount float64) Money {
	return Money(math.Round(amount * 100))
}

// Decimal 返回十进制金额（元）
func (m Money) Decimal() float64 {
	return float64(m) / 100
}

// MarshalJSON 序列化为普通十进制数字
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Decimal(), 'f', -1, 64)), nil
}

// UnmarshalJSON 从普通十进制数字解析
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*m = MoneyFromDecimal(f)
	return nil
}

// SettlementAmount 计算跨门店核销应结算的金额
// 金额 = 套餐单次价值 × 核销次数 × 结算比例
// 其中单次价值 = 套餐价格 / 总次数
// 计算过程全部使用整数：比例换算为基点（万分之一），最后一次性四舍五入
// 套餐无价格时结算金额为0（结算记录仍会创建，仅作信息记录）
func SettlementAmount(packagePrice Money, totalCredits, creditsUsed int, settlementPercentage float64) Money {
	if packagePrice <= 0 || totalCredits <= 0 || creditsUsed <= 0 {
		return 0
	}
	// 比例换算为基点，例如12.5% -> 1250
	basisPoints := int64(math.Round(settlementPercentage * 100))
	if basisPoints <= 0 {
		return 0
	}
	numerator := int64(packagePrice) * int64(creditsUsed) * basisPoints
	denominator := int64(totalCredits) * 10000
	// 整数四舍五入除法
	return Money((numerator + denominator/2) / denominator)
}

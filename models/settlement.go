package models

import (
	"sort"
	"time"
)

// 结算状态常量
const (
	SettlementPending = "pending" // 待结算
	SettlementSettled = "settled" // 已结算
)

// Settlement 跨门店结算记录
// 会籍在非售出门店核销时，随核销事务自动创建且仅创建一条
// 方向约定：fromBranch（核销门店，欠款方）欠toBranch（售出门店，收款方）
// MembershipUsageID上的唯一索引保证每条核销至多产生一条结算
type Settlement struct {
	ID                uint      `json:"id" gorm:"primaryKey"`                  // 主键ID
	SettlementNo      string    `json:"settlementNo" gorm:"size:40;uniqueIndex"` // 结算单号
	MembershipUsageID *uint     `json:"membershipUsageId" gorm:"uniqueIndex"`  // 关联的核销记录ID，唯一，可空
	FromBranchID      uint      `json:"fromBranchId" gorm:"index"`             // 欠款门店ID（核销门店）
	FromBranch        string    `json:"fromBranch" gorm:"size:100"`            // 欠款门店名称
	ToBranchID        uint      `json:"toBranchId" gorm:"index"`               // 收款门店ID（售出门店）
	ToBranch          string    `json:"toBranch" gorm:"size:100"`              // 收款门店名称
	Amount            Money     `json:"amount"`                                // 结算金额
	Reason            string    `json:"reason" gorm:"size:255"`                // 结算事由
	Status            string    `json:"status" gorm:"size:20;default:pending"` // 状态：pending待结算, settled已结算
	CreatedAt         time.Time `json:"createdAt" gorm:"autoCreateTime"`       // 创建时间
	UpdatedAt         time.Time `json:"updatedAt" gorm:"autoUpdateTime"`       // 更新时间
}

// TableName 返回表名
func (Settlement) TableName() string {
	return "settlements"
}

// SettlementSummaryItem 结算汇总行
// 按(欠款门店, 收款门店)有序对分组的待结算金额合计
type SettlementSummaryItem struct {
	FromBranchID uint   `json:"fromBranchId"` // 欠款门店ID
	FromBranch   string `json:"fromBranch"`   // 欠款门店名称
	ToBranchID   uint   `json:"toBranchId"`   // 收款门店ID
	ToBranch     string `json:"toBranch"`     // 收款门店名称
	Amount       Money  `json:"amount"`       // 待结算金额合计
}

// SummarizeSettlements 汇总待结算金额
// 按(fromBranchId, toBranchId)有序对分组求和，每个非空对输出一行
// 方向对不做轧差：A欠B与B欠A是两行独立的汇总，永远不合并为一个净额
// 输出按金额降序排列，金额相同时按欠款门店名称升序
func SummarizeSettlements(settlements []Settlement) []SettlementSummaryItem {
	type pairKey struct {
		from uint
		to   uint
	}

	grouped := make(map[pairKey]*SettlementSummaryItem)
	order := make([]pairKey, 0)

	for _, s := range settlements {
		if s.Status != SettlementPending {
			continue
		}
		key := pairKey{from: s.FromBranchID, to: s.ToBranchID}
		item, ok := grouped[key]
		if !ok {
			item = &SettlementSummaryItem{
				FromBranchID: s.FromBranchID,
				FromBranch:   s.FromBranch,
				ToBranchID:   s.ToBranchID,
				ToBranch:     s.ToBranch,
			}
			grouped[key] = item
			order = append(order, key)
		}
		item.Amount += s.Amount
	}

	summary := make([]SettlementSummaryItem, 0, len(order))
	for _, key := range order {
		summary = append(summary, *grouped[key])
	}

	sort.SliceStable(summary, func(i, j int) bool {
		if summary[i].Amount != summary[j].Amount {
			return summary[i].Amount > summary[j].Amount
		}
		return summary[i].FromBranch < summary[j].FromBranch
	})

	return summary
}

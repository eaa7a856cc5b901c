package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizeSettlements(t *testing.T) {
	settlements := []Settlement{
		{FromBranchID: 1, FromBranch: "A店", ToBranchID: 2, ToBranch: "B店", Amount: MoneyFromDecimal(50), Status: SettlementPending},
		{FromBranchID: 1, FromBranch: "A店", ToBranchID: 2, ToBranch: "B店", Amount: MoneyFromDecimal(30), Status: SettlementPending},
		{FromBranchID: 2, FromBranch: "B店", ToBranchID: 1, ToBranch: "A店", Amount: MoneyFromDecimal(10), Status: SettlementPending},
	}

	summary := SummarizeSettlements(settlements)
	require.Len(t, summary, 2)

	// 方向对不轧差：A欠B与B欠A是两行独立汇总
	require.Equal(t, uint(1), summary[0].FromBranchID)
	require.Equal(t, uint(2), summary[0].ToBranchID)
	require.Equal(t, MoneyFromDecimal(80), summary[0].Amount)

	require.Equal(t, uint(2), summary[1].FromBranchID)
	require.Equal(t, uint(1), summary[1].ToBranchID)
	require.Equal(t, MoneyFromDecimal(10), summary[1].Amount)
}

func TestSummarizeSettlementsSkipsSettled(t *testing.T) {
	settlements := []Settlement{
		{FromBranchID: 1, FromBranch: "A店", ToBranchID: 2, ToBranch: "B店", Amount: MoneyFromDecimal(50), Status: SettlementSettled},
		{FromBranchID: 1, FromBranch: "A店", ToBranchID: 2, ToBranch: "B店", Amount: MoneyFromDecimal(30), Status: SettlementPending},
	}

	summary := SummarizeSettlements(settlements)
	require.Len(t, summary, 1)
	require.Equal(t, MoneyFromDecimal(30), summary[0].Amount)
}

func TestSummarizeSettlementsOrdering(t *testing.T) {
	settlements := []Settlement{
		{FromBranchID: 3, FromBranch: "C店", ToBranchID: 1, ToBranch: "A店", Amount: MoneyFromDecimal(20), Status: SettlementPending},
		{FromBranchID: 2, FromBranch: "B店", ToBranchID: 1, ToBranch: "A店", Amount: MoneyFromDecimal(20), Status: SettlementPending},
		{FromBranchID: 1, FromBranch: "A店", ToBranchID: 2, ToBranch: "B店", Amount: MoneyFromDecimal(100), Status: SettlementPending},
	}

	summary := SummarizeSettlements(settlements)
	require.Len(t, summary, 3)

	// 金额降序，金额相同时按欠款门店名称升序
	require.Equal(t, MoneyFromDecimal(100), summary[0].Amount)
	require.Equal(t, "B店", summary[1].FromBranch)
	require.Equal(t, "C店", summary[2].FromBranch)
}

func TestSummarizeSettlementsEmpty(t *testing.T) {
	require.Empty(t, SummarizeSettlements(nil))
	require.Empty(t, SummarizeSettlements([]Settlement{
		{FromBranchID: 1, ToBranchID: 2, Amount: 100, Status: SettlementSettled},
	}))
}

package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"salon_crm/database"
	"salon_crm/models"
)

// seedSettlement 直接在数据库里创建结算记录
func seedSettlement(t *testing.T, from, to *models.Branch, amount float64, status string) *models.Settlement {
	t.Helper()
	settlement := models.Settlement{
		SettlementNo: fmt.Sprintf("STL-%s-%d-%d-%f", status, from.ID, to.ID, amount),
		FromBranchID: from.ID,
		FromBranch:   from.Name,
		ToBranchID:   to.ID,
		ToBranch:     to.Name,
		Amount:       models.MoneyFromDecimal(amount),
		Status:       status,
	}
	require.NoError(t, database.GetDB().Create(&settlement).Error)
	return &settlement
}

func TestSettlementSummaryNeverNetted(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branchA := createBranch(t, "A店", "A")
	branchB := createBranch(t, "B店", "B")

	seedSettlement(t, branchA, branchB, 50, models.SettlementPending)
	seedSettlement(t, branchA, branchB, 30, models.SettlementPending)
	seedSettlement(t, branchB, branchA, 10, models.SettlementPending)

	resp, payload := doRequest(t, app, "GET", "/api/settlements/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A欠B与B欠A是两行独立汇总，不轧差为净额
	summary := payload["summary"].([]interface{})
	require.Len(t, summary, 2)

	first := summary[0].(map[string]interface{})
	require.Equal(t, float64(branchA.ID), first["fromBranchId"])
	require.Equal(t, float64(80), first["amount"])

	second := summary[1].(map[string]interface{})
	require.Equal(t, float64(branchB.ID), second["fromBranchId"])
	require.Equal(t, float64(10), second["amount"])
}

func TestSettleSettlement(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branchA := createBranch(t, "A店", "A")
	branchB := createBranch(t, "B店", "B")
	settlement := seedSettlement(t, branchA, branchB, 100, models.SettlementPending)
	settlePath := fmt.Sprintf("/api/settlements/%d/settle", settlement.ID)

	resp, payload := doRequest(t, app, "PATCH", settlePath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, models.SettlementSettled, payload["settlement"].(map[string]interface{})["status"])

	// 重复标记返回冲突
	resp, _ = doRequest(t, app, "PATCH", settlePath, token, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// 已结算的记录不再出现在待结算汇总中
	resp, payload = doRequest(t, app, "GET", "/api/settlements/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, payload["summary"].([]interface{}))
}

func TestSettlementListFilters(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branchA := createBranch(t, "A店", "A")
	branchB := createBranch(t, "B店", "B")
	branchC := createBranch(t, "C店", "C")

	seedSettlement(t, branchA, branchB, 50, models.SettlementPending)
	seedSettlement(t, branchB, branchA, 20, models.SettlementSettled)
	seedSettlement(t, branchC, branchB, 30, models.SettlementPending)

	// 状态筛选
	resp, payload := doRequest(t, app, "GET", "/api/settlements?status=pending", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, payload["settlements"].([]interface{}), 2)

	// 门店视角：欠款方或收款方命中都返回
	resp, payload = doRequest(t, app, "GET", fmt.Sprintf("/api/settlements?branchId=%d", branchA.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, payload["settlements"].([]interface{}), 2)

	// 无效状态被拒绝
	resp, _ = doRequest(t, app, "GET", "/api/settlements?status=bogus", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettlementsReport(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branchA := createBranch(t, "A店", "A")
	branchB := createBranch(t, "B店", "B")
	seedSettlement(t, branchA, branchB, 40, models.SettlementPending)
	seedSettlement(t, branchA, branchB, 60, models.SettlementSettled)

	resp, payload := doRequest(t, app, "GET", "/api/reports/settlements", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 明细包含全部记录，汇总只含待结算
	require.Len(t, payload["settlements"].([]interface{}), 2)
	summary := payload["settlementSummary"].([]interface{})
	require.Len(t, summary, 1)
	require.Equal(t, float64(40), summary[0].(map[string]interface{})["amount"])
}

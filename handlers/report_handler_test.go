package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"salon_crm/models"
)

func TestSalesDashboard(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch1 := createBranch(t, "一号店", "B1")
	branch2 := createBranch(t, "二号店", "B2")
	customer1 := createCustomer(t, "张三", branch1)
	customer2 := createCustomer(t, "李四", branch2)

	// 一号店售出500元套餐，折扣50；二号店售出300元套餐
	resp, _ := doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer1.ID,
		"totalCredits":   5,
		"soldAtBranchId": branch1.ID,
		"packagePrice":   500,
		"discountAmount": 50,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer2.ID,
		"totalCredits":   3,
		"soldAtBranchId": branch2.ID,
		"packagePrice":   300,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, payload := doRequest(t, app, "GET", "/api/reports/sales-dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 营收按净额（套餐价减折扣）统计：450 + 300
	require.Equal(t, float64(750), payload["totalRevenue"])
	require.Equal(t, float64(2), payload["totalMemberships"])

	byBranch := payload["byBranch"].([]interface{})
	require.Len(t, byBranch, 2)

	// 门店筛选
	resp, payload = doRequest(t, app, "GET", fmt.Sprintf("/api/reports/sales-dashboard?branchId=%d", branch1.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(450), payload["totalRevenue"])
	require.Equal(t, float64(1), payload["totalMemberships"])
}

func TestOwnerOverview(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch1 := createBranch(t, "一号店", "B1")
	branch2 := createBranch(t, "二号店", "B2")
	customer := createCustomer(t, "张三", branch1)

	resp, _ := doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer.ID,
		"totalCredits":   5,
		"soldAtBranchId": branch1.ID,
		"packagePrice":   500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	seedSettlement(t, branch2, branch1, 120, models.SettlementPending)

	resp, payload := doRequest(t, app, "GET", "/api/reports/owner-overview", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	overview := payload["overview"].([]interface{})
	require.Len(t, overview, 2)

	rowsByBranch := make(map[string]map[string]interface{})
	for _, row := range overview {
		r := row.(map[string]interface{})
		rowsByBranch[r["branch"].(string)] = r
	}
	require.Equal(t, float64(1), rowsByBranch["一号店"]["membershipsSold"])
	require.Equal(t, float64(500), rowsByBranch["一号店"]["revenue"])
	require.Equal(t, float64(0), rowsByBranch["二号店"]["membershipsSold"])

	summary := payload["settlementSummary"].([]interface{})
	require.Len(t, summary, 1)
	require.Equal(t, float64(120), summary[0].(map[string]interface{})["amount"])
}

func TestBranchDashboardRequiresBranch(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	// 管理员未指定门店时返回参数错误
	resp, _ := doRequest(t, app, "GET", "/api/reports/branch-dashboard", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	branch := createBranch(t, "一号店", "B1")
	createCustomer(t, "张三", branch)

	resp, payload := doRequest(t, app, "GET", fmt.Sprintf("/api/reports/branch-dashboard?branchId=%d", branch.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dashboard := payload["dashboard"].(map[string]interface{})
	require.Equal(t, float64(1), dashboard["customers"])
}

func TestAdminOnlyReports(t *testing.T) {
	app := setupApp(t)
	branch := createBranch(t, "一号店", "B1")
	_, vendorToken := createUser(t, models.RoleVendor, &branch.ID, models.ApprovalApproved)

	// 商户可以看本店看板
	resp, _ := doRequest(t, app, "GET", "/api/reports/branch-dashboard", vendorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 但销售看板和经营总览仅限管理员
	resp, _ = doRequest(t, app, "GET", "/api/reports/sales-dashboard", vendorToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doRequest(t, app, "GET", "/api/reports/owner-overview", vendorToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"salon_crm/database"
	"salon_crm/models"
)

func TestCreateCustomerGeneratesCardID(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "市中心店", "CTR")

	// 卡号 = 门店编码 + 序列号，按发卡顺序递增
	resp, payload := doRequest(t, app, "POST", "/api/customers", token, map[string]interface{}{
		"name":            "张三",
		"phone":           "13800000001",
		"primaryBranchId": branch.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := payload["customer"].(map[string]interface{})
	require.Equal(t, "CTR-0001", first["membershipCardId"])

	resp, payload = doRequest(t, app, "POST", "/api/customers", token, map[string]interface{}{
		"name":            "李四",
		"phone":           "13800000002",
		"primaryBranchId": branch.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := payload["customer"].(map[string]interface{})
	require.Equal(t, "CTR-0002", second["membershipCardId"])
}

func TestCreateCustomerValidation(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)
	branch := createBranch(t, "市中心店", "CTR")

	// 姓名必填
	resp, _ := doRequest(t, app, "POST", "/api/customers", token, map[string]interface{}{
		"phone":           "13800000001",
		"primaryBranchId": branch.ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 主门店必填
	resp, _ = doRequest(t, app, "POST", "/api/customers", token, map[string]interface{}{
		"name":  "张三",
		"phone": "13800000001",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 门店不存在
	resp, _ = doRequest(t, app, "POST", "/api/customers", token, map[string]interface{}{
		"name":            "张三",
		"phone":           "13800000001",
		"primaryBranchId": 99999,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCustomerSearchAndFilter(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch1 := createBranch(t, "一号店", "B1")
	branch2 := createBranch(t, "二号店", "B2")
	createCustomer(t, "张小美", branch1)
	createCustomer(t, "王大力", branch2)

	// 姓名模糊搜索
	resp, payload := doRequest(t, app, "GET", "/api/customers?search=小美", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	customers := payload["customers"].([]interface{})
	require.Len(t, customers, 1)
	require.Equal(t, "张小美", customers[0].(map[string]interface{})["name"])

	// 门店筛选
	resp, payload = doRequest(t, app, "GET", fmt.Sprintf("/api/customers?branchId=%d", branch2.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	customers = payload["customers"].([]interface{})
	require.Len(t, customers, 1)
	require.Equal(t, "王大力", customers[0].(map[string]interface{})["name"])
}

func TestBranchSoftDelete(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "老店", "OLD")

	resp, _ := doRequest(t, app, "DELETE", fmt.Sprintf("/api/branches/%d", branch.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 停用是软删除，默认列表不再返回
	resp, payload := doRequest(t, app, "GET", "/api/branches", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, payload["branches"].([]interface{}))

	// 停用门店不能再售出会籍
	customer := createCustomer(t, "张三", branch)
	resp, _ = doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer.ID,
		"totalCredits":   5,
		"soldAtBranchId": branch.ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCustomerVisitHistory(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "市中心店", "CTR")
	customer := createCustomer(t, "张三", branch)

	membership := models.Membership{
		CustomerID:     customer.ID,
		TotalCredits:   5,
		UsedCredits:    1,
		SoldAtBranchID: branch.ID,
		SoldAtBranch:   branch.Name,
		PurchaseDate:   time.Now().AddDate(0, 0, -10),
		PackagePrice:   models.MoneyFromDecimal(500),
	}
	require.NoError(t, database.GetDB().Create(&membership).Error)

	// 昨天核销一次，今天有一条预约
	usage := models.MembershipUsage{
		MembershipID:   membership.ID,
		UsedAtBranchID: branch.ID,
		UsedAtBranch:   branch.Name,
		CreditsUsed:    1,
		UsedAt:         time.Now().AddDate(0, 0, -1),
	}
	require.NoError(t, database.GetDB().Create(&usage).Error)

	appointment := models.Appointment{
		CustomerID:  customer.ID,
		BranchID:    branch.ID,
		Branch:      branch.Name,
		ServiceName: "剪发",
		ScheduledAt: time.Now(),
		Status:      models.AppointmentScheduled,
	}
	require.NoError(t, database.GetDB().Create(&appointment).Error)

	// 预约和核销合并为同一条时间线，按时间倒序
	resp, payload := doRequest(t, app, "GET",
		fmt.Sprintf("/api/customers/%d/visit-history", customer.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	history := payload["visitHistory"].([]interface{})
	require.Len(t, history, 2)
	require.Equal(t, "appointment", history[0].(map[string]interface{})["type"])
	require.Equal(t, "membershipUsage", history[1].(map[string]interface{})["type"])
}

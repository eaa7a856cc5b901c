package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"salon_crm/models"
)

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	// 首次读取自动创建默认配置行
	resp, payload := doRequest(t, app, "GET", "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settings := payload["settings"].(map[string]interface{})
	require.Equal(t, float64(100), settings["settlementPercentage"])
	require.Equal(t, float64(0), settings["revenuePercentage"])

	resp, payload = doRequest(t, app, "PATCH", "/api/settings", token, map[string]interface{}{
		"settlementPercentage": 75,
		"revenuePercentage":    20,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settings = payload["settings"].(map[string]interface{})
	require.Equal(t, float64(75), settings["settlementPercentage"])
	require.Equal(t, float64(20), settings["revenuePercentage"])
}

func TestSettingsValidation(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	// 比例超出[0,100]被拒绝
	resp, _ := doRequest(t, app, "PATCH", "/api/settings", token, map[string]interface{}{
		"settlementPercentage": 150,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, "PATCH", "/api/settings", token, map[string]interface{}{
		"revenuePercentage": -1,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 空更新被拒绝
	resp, _ = doRequest(t, app, "PATCH", "/api/settings", token, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettingsUpdateAdminOnly(t *testing.T) {
	app := setupApp(t)
	branch := createBranch(t, "一号店", "B1")
	_, vendorToken := createUser(t, models.RoleVendor, &branch.ID, models.ApprovalApproved)

	// 已审核商户可以读取配置
	resp, _ := doRequest(t, app, "GET", "/api/settings", vendorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 但不能修改
	resp, _ = doRequest(t, app, "PATCH", "/api/settings", vendorToken, map[string]interface{}{
		"settlementPercentage": 50,
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

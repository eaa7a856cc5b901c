package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"salon_crm/database"
	"salon_crm/models"
)

func TestLoyaltyEarnAndRedeem(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "一号店", "B1")
	customer := createCustomer(t, "张三", branch)
	pointsPath := "/api/loyalty/points"
	balancePath := fmt.Sprintf("/api/customers/%d/loyalty", customer.ID)

	// 发放30积分
	resp, payload := doRequest(t, app, "POST", pointsPath, token, map[string]interface{}{
		"customerId": customer.ID,
		"type":       models.LoyaltyEarn,
		"points":     30,
		"reason":     "到店消费",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, float64(30), payload["balance"])

	// 余额30时兑换50被拒绝，余额不变
	resp, payload = doRequest(t, app, "POST", pointsPath, token, map[string]interface{}{
		"customerId": customer.ID,
		"type":       models.LoyaltyRedeem,
		"points":     50,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, float64(30), payload["balance"])

	var txCount int64
	require.NoError(t, database.GetDB().Model(&models.LoyaltyTransaction{}).
		Where("customer_id = ?", customer.ID).Count(&txCount).Error)
	require.Equal(t, int64(1), txCount)

	// 再发放20积分，然后兑换40，最终余额为10
	resp, _ = doRequest(t, app, "POST", pointsPath, token, map[string]interface{}{
		"customerId": customer.ID,
		"type":       models.LoyaltyEarn,
		"points":     20,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, payload = doRequest(t, app, "POST", pointsPath, token, map[string]interface{}{
		"customerId": customer.ID,
		"type":       models.LoyaltyRedeem,
		"points":     40,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, float64(10), payload["balance"])

	// 余额派生自流水求和
	resp, payload = doRequest(t, app, "GET", balancePath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(10), payload["balance"])
	require.Len(t, payload["transactions"].([]interface{}), 3)

	// 查询参数形式返回同样的结果
	resp, payload = doRequest(t, app, "GET", fmt.Sprintf("%s?customerId=%d", pointsPath, customer.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(10), payload["balance"])
}

func TestLoyaltyValidation(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "一号店", "B1")
	customer := createCustomer(t, "李四", branch)

	// 积分数量必须为正
	resp, _ := doRequest(t, app, "POST", "/api/loyalty/points", token, map[string]interface{}{
		"customerId": customer.ID,
		"type":       models.LoyaltyEarn,
		"points":     -5,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 类型只接受earn或redeem
	resp, _ = doRequest(t, app, "POST", "/api/loyalty/points", token, map[string]interface{}{
		"customerId": customer.ID,
		"type":       "gift",
		"points":     10,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 顾客不存在
	resp, _ = doRequest(t, app, "POST", "/api/loyalty/points", token, map[string]interface{}{
		"customerId": 99999,
		"type":       models.LoyaltyEarn,
		"points":     10,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

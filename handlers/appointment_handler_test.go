package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"salon_crm/models"
)

func TestAppointmentLifecycle(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "一号店", "B1")
	customer := createCustomer(t, "张三", branch)

	resp, payload := doRequest(t, app, "POST", "/api/appointments", token, map[string]interface{}{
		"customerId":  customer.ID,
		"branchId":    branch.ID,
		"staff":       "Tony",
		"service":     "剪发",
		"scheduledAt": time.Now().AddDate(0, 0, 1).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	appointment := payload["appointment"].(map[string]interface{})
	require.Equal(t, models.AppointmentScheduled, appointment["status"])
	appointmentID := uint(appointment["id"].(float64))
	path := fmt.Sprintf("/api/appointments/%d", appointmentID)

	// 完成预约
	resp, payload = doRequest(t, app, "PATCH", path, token, map[string]interface{}{
		"status": models.AppointmentCompleted,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, models.AppointmentCompleted, payload["appointment"].(map[string]interface{})["status"])

	// 终态预约不能再改状态
	resp, _ = doRequest(t, app, "PATCH", path, token, map[string]interface{}{
		"status": models.AppointmentCancelled,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// 无效状态被拒绝
	resp, _ = doRequest(t, app, "GET", "/api/appointments?status=bogus", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 状态筛选
	resp, payload = doRequest(t, app, "GET", fmt.Sprintf("/api/appointments?status=%s", models.AppointmentCompleted), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, payload["appointments"].([]interface{}), 1)
}

func TestAppointmentValidation(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)
	branch := createBranch(t, "一号店", "B1")

	// 顾客必填
	resp, _ := doRequest(t, app, "POST", "/api/appointments", token, map[string]interface{}{
		"branchId":    branch.ID,
		"scheduledAt": "2026-09-01",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 顾客不存在
	resp, _ = doRequest(t, app, "POST", "/api/appointments", token, map[string]interface{}{
		"customerId":  99999,
		"branchId":    branch.ID,
		"scheduledAt": "2026-09-01",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// 预约时间必填
	customer := createCustomer(t, "张三", branch)
	resp, _ = doRequest(t, app, "POST", "/api/appointments", token, map[string]interface{}{
		"customerId": customer.ID,
		"branchId":   branch.ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

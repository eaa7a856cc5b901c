package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeadStatusTransition(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)
	branch := createBranch(t, "一号店", "B1")

	// 管理员配置线索状态集合
	for i, name := range []string{"新线索", "已联系", "booked"} {
		resp, _ := doRequest(t, app, "POST", "/api/lead-statuses", token, map[string]interface{}{
			"name":      name,
			"sortOrder": i,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, payload := doRequest(t, app, "POST", "/api/leads", token, map[string]interface{}{
		"name":     "意向顾客",
		"phone":    "13900000001",
		"source":   "小红书",
		"branchId": branch.ID,
		"status":   "新线索",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	leadID := uint(payload["lead"].(map[string]interface{})["id"].(float64))
	leadPath := fmt.Sprintf("/api/leads/%d", leadID)

	// 状态流转不限制方向，但目标必须是启用状态之一
	resp, _ = doRequest(t, app, "PATCH", leadPath, token, map[string]interface{}{
		"status": "booked",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, "PATCH", leadPath, token, map[string]interface{}{
		"status": "不存在的状态",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 停用状态后不能再流转进入
	resp, payload = doRequest(t, app, "GET", "/api/lead-statuses", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	statuses := payload["leadStatuses"].([]interface{})
	require.Len(t, statuses, 3)
	var contactedID uint
	for _, s := range statuses {
		status := s.(map[string]interface{})
		if status["name"] == "已联系" {
			contactedID = uint(status["id"].(float64))
		}
	}
	require.NotZero(t, contactedID)

	resp, _ = doRequest(t, app, "PATCH", fmt.Sprintf("/api/lead-statuses/%d", contactedID), token, map[string]interface{}{
		"isActive": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, "PATCH", leadPath, token, map[string]interface{}{
		"status": "已联系",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLeadFollowUpsAppendOnly(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)
	branch := createBranch(t, "一号店", "B1")

	resp, payload := doRequest(t, app, "POST", "/api/leads", token, map[string]interface{}{
		"name":     "意向顾客",
		"source":   "朋友推荐",
		"branchId": branch.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	leadID := uint(payload["lead"].(map[string]interface{})["id"].(float64))
	followUpPath := fmt.Sprintf("/api/leads/%d/follow-ups", leadID)

	// 跟进内容不能为空
	resp, _ = doRequest(t, app, "POST", followUpPath, token, map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, "POST", followUpPath, token, map[string]interface{}{
		"note": "电话沟通，约周六到店",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doRequest(t, app, "POST", followUpPath, token, map[string]interface{}{
		"note": "已到店体验",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// 线索列表附带全部跟进记录
	resp, payload = doRequest(t, app, "GET", "/api/leads", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	leads := payload["leads"].([]interface{})
	require.Len(t, leads, 1)
	followUps := leads[0].(map[string]interface{})["followUps"].([]interface{})
	require.Len(t, followUps, 2)
}

func TestLeadListPagination(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)
	branch := createBranch(t, "一号店", "B1")

	resp, _ := doRequest(t, app, "POST", "/api/lead-statuses", token, map[string]interface{}{
		"name": "新线索",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for i := 0; i < 3; i++ {
		resp, _ := doRequest(t, app, "POST", "/api/leads", token, map[string]interface{}{
			"name":     fmt.Sprintf("顾客%d", i+1),
			"phone":    fmt.Sprintf("1390000000%d", i),
			"source":   "小红书",
			"branchId": branch.ID,
			"status":   "新线索",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// 每页2条时第一页返回2条，总数不受分页影响
	resp, payload := doRequest(t, app, "GET", "/api/leads?page=1&pageSize=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(3), payload["total"])
	require.Len(t, payload["leads"].([]interface{}), 2)

	resp, payload = doRequest(t, app, "GET", "/api/leads?page=2&pageSize=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, payload["leads"].([]interface{}), 1)
}

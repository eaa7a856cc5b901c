package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"salon_crm/database"
	"salon_crm/models"
	"salon_crm/routes"
	"salon_crm/utils"
)

// setupApp 为单个测试准备独立的内存数据库和Fiber应用
// 每个测试使用独立命名的内存库，避免测试间互相干扰
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateOn(db))
	database.SetDB(db)

	app := fiber.New()
	routes.SetupRoutes(app)
	return app
}

// createUser 直接在数据库里创建用户并签发会话令牌
func createUser(t *testing.T, role string, branchID *uint, approval string) (*models.User, string) {
	t.Helper()

	user := models.User{
		Name:           "测试用户",
		Email:          fmt.Sprintf("%s-%d@test.local", t.Name(), time.Now().UnixNano()),
		Role:           role,
		BranchID:       branchID,
		ApprovalStatus: approval,
		Status:         "active",
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, database.GetDB().Create(&user).Error)

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, time.Hour)
	require.NoError(t, err)
	require.NoError(t, database.GetDB().Create(&models.UserToken{
		UserID:    user.ID,
		Token:     token,
		ExpiredAt: time.Now().Add(time.Hour),
	}).Error)

	return &user, token
}

// createAdmin 创建管理员并返回其令牌
func createAdmin(t *testing.T) string {
	t.Helper()
	_, token := createUser(t, models.RoleAdmin, nil, "")
	return token
}

// createBranch 直接在数据库里创建门店
func createBranch(t *testing.T, name, code string) *models.Branch {
	t.Helper()
	branch := models.Branch{Name: name, Code: code, IsActive: true}
	require.NoError(t, database.GetDB().Create(&branch).Error)
	return &branch
}

// createCustomer 直接在数据库里创建顾客
func createCustomer(t *testing.T, name string, branch *models.Branch) *models.Customer {
	t.Helper()
	customer := models.Customer{
		Name:             name,
		Phone:            "13800000000",
		MembershipCardID: fmt.Sprintf("TST-%d", time.Now().UnixNano()),
		PrimaryBranchID:  &branch.ID,
		PrimaryBranch:    branch.Name,
	}
	require.NoError(t, database.GetDB().Create(&customer).Error)
	return &customer
}

// doRequest 发起一次JSON请求并解析响应体
func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

func TestAuthRequiresToken(t *testing.T) {
	app := setupApp(t)

	resp, payload := doRequest(t, app, "GET", "/api/customers", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, false, payload["success"])
}

func TestVendorApprovalFlow(t *testing.T) {
	app := setupApp(t)
	adminToken := createAdmin(t)
	branch := createBranch(t, "市中心店", "CTR")

	// 商户自助注册，初始为待审批
	email := fmt.Sprintf("vendor-%d@test.local", time.Now().UnixNano())
	resp, payload := doRequest(t, app, "POST", "/api/auth/register", "", map[string]interface{}{
		"name":       "小王",
		"email":      email,
		"password":   "secret123",
		"role":       models.RoleVendor,
		"vendorName": "小王美发",
		"branchId":   branch.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := payload["user"].(map[string]interface{})
	require.Equal(t, models.ApprovalPending, user["approvalStatus"])
	vendorID := uint(user["id"].(float64))

	// 待审批商户可以登录
	resp, payload = doRequest(t, app, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	vendorToken := payload["token"].(string)

	// 但无法访问门店功能
	resp, _ = doRequest(t, app, "GET", "/api/customers", vendorToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// 商户审批仅限管理员
	resp, _ = doRequest(t, app, "PATCH", fmt.Sprintf("/api/vendors/%d/approve", vendorID), vendorToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// 管理员审批通过
	resp, payload = doRequest(t, app, "PATCH", fmt.Sprintf("/api/vendors/%d/approve", vendorID), adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, payload["success"])

	// 审批通过后即可访问门店功能，无需重新登录
	resp, _ = doRequest(t, app, "GET", "/api/customers", vendorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 重复审批返回冲突
	resp, _ = doRequest(t, app, "PATCH", fmt.Sprintf("/api/vendors/%d/approve", vendorID), adminToken, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	app := setupApp(t)
	user, _ := createUser(t, models.RoleAdmin, nil, "")

	resp, payload := doRequest(t, app, "POST", "/api/auth/login", "", map[string]interface{}{
		"email":    user.Email,
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, false, payload["success"])
}

func TestLogoutInvalidatesToken(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	resp, _ := doRequest(t, app, "GET", "/api/branches", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, "POST", "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 登出后令牌立即失效
	resp, _ = doRequest(t, app, "GET", "/api/branches", token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

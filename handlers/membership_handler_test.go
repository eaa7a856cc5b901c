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

func TestMembershipUsageLifecycle(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch1 := createBranch(t, "一号店", "B1")
	branch2 := createBranch(t, "二号店", "B2")
	customer := createCustomer(t, "张三", branch1)

	// 售出5次套餐，价格500
	resp, payload := doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer.ID,
		"totalCredits":   5,
		"soldAtBranchId": branch1.ID,
		"packagePrice":   500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	membership := payload["membership"].(map[string]interface{})
	require.Equal(t, models.MembershipActive, membership["status"])
	require.Equal(t, float64(5), membership["remainingCredits"])
	membershipID := uint(membership["id"].(float64))
	usePath := fmt.Sprintf("/api/memberships/%d/use", membershipID)

	// 本店核销2次：剩余3次，状态仍为active，不产生结算
	resp, payload = doRequest(t, app, "POST", usePath, token, map[string]interface{}{
		"usedAtBranchId": branch1.ID,
		"creditsUsed":    2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	membership = payload["membership"].(map[string]interface{})
	require.Equal(t, float64(3), membership["remainingCredits"])
	require.Equal(t, models.MembershipActive, membership["status"])
	require.NotContains(t, payload, "settlement")

	var settlementCount int64
	require.NoError(t, database.GetDB().Model(&models.Settlement{}).Count(&settlementCount).Error)
	require.Equal(t, int64(0), settlementCount)

	// 跨门店核销未填服务明细被拒绝，状态不变
	resp, _ = doRequest(t, app, "POST", usePath, token, map[string]interface{}{
		"usedAtBranchId": branch2.ID,
		"creditsUsed":    3,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var unchanged models.Membership
	require.NoError(t, database.GetDB().First(&unchanged, membershipID).Error)
	require.Equal(t, 2, unchanged.UsedCredits)

	// 跨门店核销3次：次数用完，状态落为used，生成唯一一条结算
	resp, payload = doRequest(t, app, "POST", usePath, token, map[string]interface{}{
		"usedAtBranchId": branch2.ID,
		"creditsUsed":    3,
		"serviceDetails": "剪发",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	membership = payload["membership"].(map[string]interface{})
	require.Equal(t, float64(0), membership["remainingCredits"])
	require.Equal(t, models.MembershipUsed, membership["status"])

	// 结算方向：核销门店（欠款方）欠售出门店（收款方）
	// 金额 = (500/5) × 3 × 100% = 300
	settlement := payload["settlement"].(map[string]interface{})
	require.Equal(t, float64(branch2.ID), settlement["fromBranchId"])
	require.Equal(t, float64(branch1.ID), settlement["toBranchId"])
	require.Equal(t, float64(300), settlement["amount"])
	require.Equal(t, models.SettlementPending, settlement["status"])
	require.NotEmpty(t, settlement["settlementNo"])

	require.NoError(t, database.GetDB().Model(&models.Settlement{}).Count(&settlementCount).Error)
	require.Equal(t, int64(1), settlementCount)

	// 用完的会籍不可再核销
	resp, _ = doRequest(t, app, "POST", usePath, token, map[string]interface{}{
		"usedAtBranchId": branch1.ID,
		"creditsUsed":    1,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// 核销历史按时间倒序
	resp, payload = doRequest(t, app, "GET", fmt.Sprintf("/api/memberships/%d", membershipID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := payload["usageHistory"].([]interface{})
	require.Len(t, history, 2)
}

func TestMembershipUsageOverConsumption(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "一号店", "B1")
	customer := createCustomer(t, "李四", branch)

	resp, payload := doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer.ID,
		"totalCredits":   5,
		"soldAtBranchId": branch.ID,
		"packagePrice":   500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	membershipID := uint(payload["membership"].(map[string]interface{})["id"].(float64))
	usePath := fmt.Sprintf("/api/memberships/%d/use", membershipID)

	resp, _ = doRequest(t, app, "POST", usePath, token, map[string]interface{}{
		"usedAtBranchId": branch.ID,
		"creditsUsed":    4,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 剩余1次时申请核销2次被拒绝，状态不发生任何变化
	resp, _ = doRequest(t, app, "POST", usePath, token, map[string]interface{}{
		"usedAtBranchId": branch.ID,
		"creditsUsed":    2,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var membership models.Membership
	require.NoError(t, database.GetDB().First(&membership, membershipID).Error)
	require.Equal(t, 4, membership.UsedCredits)
	require.Equal(t, membership.TotalCredits, membership.UsedCredits+membership.RemainingCredits())

	var usageCount int64
	require.NoError(t, database.GetDB().Model(&models.MembershipUsage{}).
		Where("membership_id = ?", membershipID).Count(&usageCount).Error)
	require.Equal(t, int64(1), usageCount)
}

func TestMembershipUsageCreditsValidation(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "一号店", "B1")
	customer := createCustomer(t, "李四", branch)

	resp, payload := doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer.ID,
		"totalCredits":   5,
		"soldAtBranchId": branch.ID,
		"packagePrice":   500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	membershipID := uint(payload["membership"].(map[string]interface{})["id"].(float64))
	usePath := fmt.Sprintf("/api/memberships/%d/use", membershipID)

	// 显式传入0次被拒绝，不落任何核销记录
	resp, _ = doRequest(t, app, "POST", usePath, token, map[string]interface{}{
		"usedAtBranchId": branch.ID,
		"creditsUsed":    0,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 负数同样被拒绝
	resp, _ = doRequest(t, app, "POST", usePath, token, map[string]interface{}{
		"usedAtBranchId": branch.ID,
		"creditsUsed":    -1,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var membership models.Membership
	require.NoError(t, database.GetDB().First(&membership, membershipID).Error)
	require.Equal(t, 0, membership.UsedCredits)

	var usageCount int64
	require.NoError(t, database.GetDB().Model(&models.MembershipUsage{}).
		Where("membership_id = ?", membershipID).Count(&usageCount).Error)
	require.Equal(t, int64(0), usageCount)

	// 不传次数时默认核销1次
	resp, payload = doRequest(t, app, "POST", usePath, token, map[string]interface{}{
		"usedAtBranchId": branch.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(4), payload["membership"].(map[string]interface{})["remainingCredits"])
}

func TestMembershipUsageRejectsExpired(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "一号店", "B1")
	customer := createCustomer(t, "赵六", branch)

	// 到期日已过但次数未用完，推导状态为expired
	expiry := time.Now().AddDate(0, 0, -1)
	membership := models.Membership{
		CustomerID:     customer.ID,
		TotalCredits:   5,
		UsedCredits:    1,
		SoldAtBranchID: branch.ID,
		SoldAtBranch:   branch.Name,
		PurchaseDate:   time.Now().AddDate(0, -1, 0),
		ExpiryDate:     &expiry,
		Status:         models.MembershipActive,
		PackagePrice:   models.MoneyFromDecimal(500),
	}
	require.NoError(t, database.GetDB().Create(&membership).Error)

	resp, payload := doRequest(t, app, "POST",
		fmt.Sprintf("/api/memberships/%d/use", membership.ID), token, map[string]interface{}{
			"usedAtBranchId": branch.ID,
			"creditsUsed":    1,
		})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, models.MembershipExpired, payload["status"])

	var unchanged models.Membership
	require.NoError(t, database.GetDB().First(&unchanged, membership.ID).Error)
	require.Equal(t, 1, unchanged.UsedCredits)

	var usageCount int64
	require.NoError(t, database.GetDB().Model(&models.MembershipUsage{}).
		Where("membership_id = ?", membership.ID).Count(&usageCount).Error)
	require.Equal(t, int64(0), usageCount)
}

func TestMembershipUsageAppliesSettlementPercentage(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch1 := createBranch(t, "一号店", "B1")
	branch2 := createBranch(t, "二号店", "B2")
	customer := createCustomer(t, "王五", branch1)

	// 结算比例调整为50%
	resp, _ := doRequest(t, app, "PATCH", "/api/settings", token, map[string]interface{}{
		"settlementPercentage": 50,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, payload := doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer.ID,
		"totalCredits":   5,
		"soldAtBranchId": branch1.ID,
		"packagePrice":   500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	membershipID := uint(payload["membership"].(map[string]interface{})["id"].(float64))

	resp, payload = doRequest(t, app, "POST", fmt.Sprintf("/api/memberships/%d/use", membershipID), token, map[string]interface{}{
		"usedAtBranchId": branch2.ID,
		"creditsUsed":    3,
		"serviceDetails": "染发",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 金额 = (500/5) × 3 × 50% = 150
	settlement := payload["settlement"].(map[string]interface{})
	require.Equal(t, float64(150), settlement["amount"])
}

func TestMembershipCreateValidation(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "一号店", "B1")
	customer := createCustomer(t, "赵六", branch)

	// 总次数必须至少为1
	resp, _ := doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer.ID,
		"totalCredits":   0,
		"soldAtBranchId": branch.ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 折扣不能超过套餐价格
	resp, _ = doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer.ID,
		"totalCredits":   5,
		"soldAtBranchId": branch.ID,
		"packagePrice":   100,
		"discountAmount": 200,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// 顾客不存在
	resp, _ = doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     99999,
		"totalCredits":   5,
		"soldAtBranchId": branch.ID,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestZeroPriceMembershipStillCreatesSettlement(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch1 := createBranch(t, "一号店", "B1")
	branch2 := createBranch(t, "二号店", "B2")
	customer := createCustomer(t, "钱七", branch1)

	resp, payload := doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
		"customerId":     customer.ID,
		"totalCredits":   3,
		"soldAtBranchId": branch1.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	membershipID := uint(payload["membership"].(map[string]interface{})["id"].(float64))

	resp, payload = doRequest(t, app, "POST", fmt.Sprintf("/api/memberships/%d/use", membershipID), token, map[string]interface{}{
		"usedAtBranchId": branch2.ID,
		"creditsUsed":    1,
		"serviceDetails": "修眉",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 无价格套餐的跨门店核销仍创建结算记录，金额为0
	settlement := payload["settlement"].(map[string]interface{})
	require.Equal(t, float64(0), settlement["amount"])
}

func TestMembershipListPagination(t *testing.T) {
	app := setupApp(t)
	token := createAdmin(t)

	branch := createBranch(t, "一号店", "B1")
	customer := createCustomer(t, "孙七", branch)

	for i := 0; i < 3; i++ {
		resp, _ := doRequest(t, app, "POST", "/api/memberships", token, map[string]interface{}{
			"customerId":     customer.ID,
			"totalCredits":   5,
			"soldAtBranchId": branch.ID,
			"packagePrice":   500,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// 分页作用在状态推导过滤之后的结果上
	resp, payload := doRequest(t, app, "GET", "/api/memberships?page=1&pageSize=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(3), payload["total"])
	require.Len(t, payload["memberships"].([]interface{}), 2)

	resp, payload = doRequest(t, app, "GET", "/api/memberships?page=2&pageSize=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, payload["memberships"].([]interface{}), 1)

	// 超出范围的页码返回空列表而不是报错
	resp, payload = doRequest(t, app, "GET", "/api/memberships?page=9&pageSize=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, payload["memberships"].([]interface{}))
}

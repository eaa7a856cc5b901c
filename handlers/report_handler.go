package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"salon_crm/database"
	"salon_crm/models"
)

// branchStat 销售看板的门店汇总行
type branchStat struct {
	BranchID    uint         `json:"branchId"`
	Branch      string       `json:"branch"`
	Revenue     models.Money `json:"revenue"`
	Memberships int          `json:"memberships"`
}

// serviceStat 销售看板的服务类别汇总行
type serviceStat struct {
	Category    string       `json:"category"`
	Revenue     models.Money `json:"revenue"`
	Memberships int          `json:"memberships"`
}

// membershipRevenue 会籍净收入（套餐价减折扣）
func membershipRevenue(m models.Membership) models.Money {
	return m.PackagePrice - m.DiscountAmount
}

// dashboardDateRange 解析看板的日期筛选区间
// 结束日期按当天末尾计算
func dashboardDateRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	from, err := parseDateOrNil(c.Query("from"))
	if err != nil {
		return nil, nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "起始日期格式错误",
		})
	}
	to, err := parseDateOrNil(c.Query("to"))
	if err != nil {
		return nil, nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "结束日期格式错误",
		})
	}
	if to != nil {
		end := to.Add(24 * time.Hour)
		to = &end
	}
	return from, to, nil
}

// GetSalesDashboard 销售看板
// 统计区间内售出会籍的净收入（套餐价减折扣），按门店和服务类别分组
func GetSalesDashboard(c *fiber.Ctx) error {
	from, to, errResp := dashboardDateRange(c)
	if errResp != nil {
		return errResp
	}

	db := database.GetDB().Model(&models.Membership{})
	if from != nil {
		db = db.Where("purchase_date >= ?", *from)
	}
	if to != nil {
		db = db.Where("purchase_date < ?", *to)
	}
	if branchID := c.Query("branchId"); branchID != "" {
		db = db.Where("sold_at_branch_id = ?", branchID)
	}

	var memberships []models.Membership
	if err := db.Find(&memberships).Error; err != nil {
		log.Printf("获取会籍销售数据失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询会籍销售数据失败",
		})
	}

	// 服务类别来自套餐类型，自定义套餐归入"未分类"
	var membershipTypes []models.MembershipType
	if err := database.GetDB().Find(&membershipTypes).Error; err != nil {
		log.Printf("获取套餐类型失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询套餐类型失败",
		})
	}
	categoryByType := make(map[uint]string, len(membershipTypes))
	for _, t := range membershipTypes {
		categoryByType[t.ID] = t.ServiceCategory
	}

	categoryOf := func(m models.Membership) string {
		if m.MembershipTypeID != nil {
			if category := categoryByType[*m.MembershipTypeID]; category != "" {
				return category
			}
		}
		return "未分类"
	}

	categoryFilter := c.Query("serviceCategory")

	var totalRevenue models.Money
	totalMemberships := 0
	byBranch := make(map[uint]*branchStat)
	branchOrder := make([]uint, 0)
	byService := make(map[string]*serviceStat)
	serviceOrder := make([]string, 0)

	for _, m := range memberships {
		category := categoryOf(m)
		if categoryFilter != "" && category != categoryFilter {
			continue
		}

		revenue := membershipRevenue(m)
		totalRevenue += revenue
		totalMemberships++

		bs, ok := byBranch[m.SoldAtBranchID]
		if !ok {
			bs = &branchStat{BranchID: m.SoldAtBranchID, Branch: m.SoldAtBranch}
			byBranch[m.SoldAtBranchID] = bs
			branchOrder = append(branchOrder, m.SoldAtBranchID)
		}
		bs.Revenue += revenue
		bs.Memberships++

		ss, ok := byService[category]
		if !ok {
			ss = &serviceStat{Category: category}
			byService[category] = ss
			serviceOrder = append(serviceOrder, category)
		}
		ss.Revenue += revenue
		ss.Memberships++
	}

	branchStats := make([]branchStat, 0, len(branchOrder))
	for _, id := range branchOrder {
		branchStats = append(branchStats, *byBranch[id])
	}
	serviceStats := make([]serviceStat, 0, len(serviceOrder))
	for _, category := range serviceOrder {
		serviceStats = append(serviceStats, *byService[category])
	}

	var branches []models.Branch
	if err := database.GetDB().Where("is_active = ?", true).Order("name ASC").Find(&branches).Error; err != nil {
		log.Printf("获取门店列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询门店失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"totalRevenue":     totalRevenue,
		"totalMemberships": totalMemberships,
		"byBranch":         branchStats,
		"byService":        serviceStats,
		"branches":         branches,
	})
}

// GetBranchDashboard 门店看板
// 供门店端查看本店的顾客、会籍、核销、预约和待结算概况
// 管理员可通过branchId查看任意门店
func GetBranchDashboard(c *fiber.Ctx) error {
	var branchID uint
	if userBranchID, ok := c.Locals("user_branch_id").(uint); ok {
		branchID = userBranchID
	}
	if role, _ := c.Locals("user_role").(string); role == models.RoleAdmin {
		if param := c.QueryInt("branchId"); param > 0 {
			branchID = uint(param)
		}
	}
	if branchID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "未指定门店",
		})
	}

	db := database.GetDB()

	var customerCount int64
	if err := db.Model(&models.Customer{}).
		Where("primary_branch_id = ?", branchID).
		Count(&customerCount).Error; err != nil {
		log.Printf("统计顾客数失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "统计顾客数失败",
		})
	}

	var memberships []models.Membership
	if err := db.Where("sold_at_branch_id = ?", branchID).Find(&memberships).Error; err != nil {
		log.Printf("获取会籍数据失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询会籍数据失败",
		})
	}
	var totalRevenue models.Money
	activeMemberships := 0
	now := time.Now()
	for _, m := range memberships {
		totalRevenue += membershipRevenue(m)
		if m.EffectiveStatus(now) == models.MembershipActive {
			activeMemberships++
		}
	}

	var usageCount int64
	if err := db.Model(&models.MembershipUsage{}).
		Where("used_at_branch_id = ?", branchID).
		Count(&usageCount).Error; err != nil {
		log.Printf("统计核销数失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "统计核销数失败",
		})
	}

	start := monthStart(now)
	var appointmentsThisMonth int64
	if err := db.Model(&models.Appointment{}).
		Where("branch_id = ? AND scheduled_at >= ?", branchID, start).
		Count(&appointmentsThisMonth).Error; err != nil {
		log.Printf("统计预约数失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "统计预约数失败",
		})
	}

	// 待结算金额：应付（本店核销他店会籍）与应收（他店核销本店会籍）
	var payable, receivable models.Money
	if err := db.Model(&models.Settlement{}).
		Where("from_branch_id = ? AND status = ?", branchID, models.SettlementPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&payable).Error; err != nil {
		log.Printf("统计应付结算失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "统计结算金额失败",
		})
	}
	if err := db.Model(&models.Settlement{}).
		Where("to_branch_id = ? AND status = ?", branchID, models.SettlementPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&receivable).Error; err != nil {
		log.Printf("统计应收结算失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "统计结算金额失败",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"dashboard": fiber.Map{
			"branchId":              branchID,
			"customers":             customerCount,
			"membershipsSold":       len(memberships),
			"activeMemberships":     activeMemberships,
			"totalRevenue":          totalRevenue,
			"usages":                usageCount,
			"appointmentsThisMonth": appointmentsThisMonth,
			"pendingPayable":        payable,
			"pendingReceivable":     receivable,
		},
	})
}

// ownerBranchRow 经营总览的门店行
type ownerBranchRow struct {
	BranchID              uint         `json:"branchId"`
	Branch                string       `json:"branch"`
	MembershipsSold       int          `json:"membershipsSold"`
	Revenue               models.Money `json:"revenue"`
	Leads                 int          `json:"leads"`
	LeadsBooked           int          `json:"leadsBooked"`
	AppointmentsThisMonth int          `json:"appointmentsThisMonth"`
	AppointmentsCompleted int          `json:"appointmentsCompleted"`
}

// GetOwnerOverview 经营总览
// 全部门店（含停用）逐店汇总会籍销售、线索和预约数据，附待结算汇总
func GetOwnerOverview(c *fiber.Ctx) error {
	db := database.GetDB()

	var branches []models.Branch
	if err := db.Order("name ASC").Find(&branches).Error; err != nil {
		log.Printf("获取门店列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询门店失败",
		})
	}

	rows := make([]*ownerBranchRow, 0, len(branches))
	rowByBranch := make(map[uint]*ownerBranchRow, len(branches))
	for _, b := range branches {
		row := &ownerBranchRow{BranchID: b.ID, Branch: b.Name}
		rows = append(rows, row)
		rowByBranch[b.ID] = row
	}

	var memberships []models.Membership
	if err := db.Find(&memberships).Error; err != nil {
		log.Printf("获取会籍数据失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询会籍数据失败",
		})
	}
	for _, m := range memberships {
		if row, ok := rowByBranch[m.SoldAtBranchID]; ok {
			row.MembershipsSold++
			row.Revenue += membershipRevenue(m)
		}
	}

	var leads []models.Lead
	if err := db.Find(&leads).Error; err != nil {
		log.Printf("获取线索数据失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询线索数据失败",
		})
	}
	for _, lead := range leads {
		if lead.BranchID == nil {
			continue
		}
		if row, ok := rowByBranch[*lead.BranchID]; ok {
			row.Leads++
			if strings.EqualFold(lead.Status, "booked") {
				row.LeadsBooked++
			}
		}
	}

	start := monthStart(time.Now())
	var appointments []models.Appointment
	if err := db.Find(&appointments).Error; err != nil {
		log.Printf("获取预约数据失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询预约数据失败",
		})
	}
	for _, a := range appointments {
		row, ok := rowByBranch[a.BranchID]
		if !ok {
			continue
		}
		if !a.ScheduledAt.Before(start) {
			row.AppointmentsThisMonth++
		}
		if a.Status == models.AppointmentCompleted {
			row.AppointmentsCompleted++
		}
	}

	var pendingSettlements []models.Settlement
	if err := db.Where("status = ?", models.SettlementPending).Find(&pendingSettlements).Error; err != nil {
		log.Printf("获取待结算单失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询结算单失败",
		})
	}

	overview := make([]ownerBranchRow, 0, len(rows))
	for _, row := range rows {
		overview = append(overview, *row)
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"overview":          overview,
		"branches":          branches,
		"settlementSummary": models.SummarizeSettlements(pendingSettlements),
	})
}

// GetSettlementsReport 结算报表
// 结算单明细加逐方向对的待结算汇总，一次返回
func GetSettlementsReport(c *fiber.Ctx) error {
	db, errResp := settlementListQuery(c)
	if db == nil {
		return errResp
	}

	var settlements []models.Settlement
	if err := db.Order("created_at DESC, id DESC").Find(&settlements).Error; err != nil {
		log.Printf("获取结算单列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询结算单失败",
		})
	}

	var pending []models.Settlement
	if err := database.GetDB().
		Where("status = ?", models.SettlementPending).
		Find(&pending).Error; err != nil {
		log.Printf("获取待结算单失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询结算单失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"settlements":       settlements,
		"settlementSummary": models.SummarizeSettlements(pending),
	})
}

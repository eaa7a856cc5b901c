package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salon_crm/database"
	"salon_crm/models"
	"salon_crm/utils"
)

// membershipPayload 构建会籍的返回结构
// 状态永远使用推导状态，剩余次数随同返回
// 所有读取位置统一走这里，避免同一条会籍在不同视图下状态不一致
func membershipPayload(m *models.Membership, now time.Time) fiber.Map {
	return fiber.Map{
		"id":               m.ID,
		"customerId":       m.CustomerID,
		"membershipTypeId": m.MembershipTypeID,
		"typeName":         m.TypeName,
		"totalCredits":     m.TotalCredits,
		"usedCredits":      m.UsedCredits,
		"remainingCredits": m.RemainingCredits(),
		"soldAtBranchId":   m.SoldAtBranchID,
		"soldAtBranch":     m.SoldAtBranch,
		"purchaseDate":     m.PurchaseDate,
		"expiryDate":       m.ExpiryDate,
		"status":           m.EffectiveStatus(now),
		"packagePrice":     m.PackagePrice,
		"discountAmount":   m.DiscountAmount,
		"createdAt":        m.CreatedAt,
	}
}

// CreateMembership 创建会籍
// 顾客在某门店购买次数套餐，初始已用次数为0，状态为active
// 校验：总次数至少为1，折扣不为负且不超过套餐价格
// 创建本身不产生任何结算记录
func CreateMembership(c *fiber.Ctx) error {
	// 解析请求体
	var requestData struct {
		CustomerID       uint    `json:"customerId"`
		MembershipTypeID *uint   `json:"membershipTypeId"`
		TotalCredits     int     `json:"totalCredits"`
		SoldAtBranchID   uint    `json:"soldAtBranchId"`
		ExpiryDate       string  `json:"expiryDate"`
		PackagePrice     float64 `json:"packagePrice"`
		DiscountAmount   float64 `json:"discountAmount"`
	}

	if err := c.BodyParser(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	// 验证必填字段
	if requestData.CustomerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "必须指定顾客",
		})
	}
	if requestData.SoldAtBranchID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "必须指定售出门店",
		})
	}

	// 总次数至少为1
	if requestData.TotalCredits < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "总次数至少为1",
		})
	}

	// 折扣校验：0 ≤ 折扣 ≤ 套餐价格
	packagePrice := models.MoneyFromDecimal(requestData.PackagePrice)
	discountAmount := models.MoneyFromDecimal(requestData.DiscountAmount)
	if discountAmount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "折扣金额不能为负数",
		})
	}
	if discountAmount > packagePrice {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "折扣金额不能超过套餐价格",
		})
	}

	// 解析到期日
	expiryDate, err := parseDateOrNil(requestData.ExpiryDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的到期日格式",
		})
	}

	// 验证顾客存在
	var customer models.Customer
	if err := database.GetDB().First(&customer, requestData.CustomerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "顾客不存在",
			})
		}
		log.Printf("查询顾客失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询顾客失败",
		})
	}

	// 验证售出门店存在且启用
	var branch models.Branch
	if err := database.GetDB().First(&branch, requestData.SoldAtBranchID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "售出门店不存在",
			})
		}
		log.Printf("查询门店失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询门店失败",
		})
	}
	if !branch.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "售出门店已停用",
		})
	}

	membership := models.Membership{
		CustomerID:       requestData.CustomerID,
		MembershipTypeID: requestData.MembershipTypeID,
		TotalCredits:     requestData.TotalCredits,
		UsedCredits:      0,
		SoldAtBranchID:   requestData.SoldAtBranchID,
		SoldAtBranch:     branch.Name,
		PurchaseDate:     time.Now(),
		ExpiryDate:       expiryDate,
		Status:           models.MembershipActive,
		PackagePrice:     packagePrice,
		DiscountAmount:   discountAmount,
	}

	// 指定了套餐类型时冗余套餐名称，并在未显式给到期日时按有效期天数推算
	if requestData.MembershipTypeID != nil {
		var membershipType models.MembershipType
		if err := database.GetDB().First(&membershipType, *requestData.MembershipTypeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false,
					"message": "套餐类型不存在",
				})
			}
			log.Printf("查询套餐类型失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "查询套餐类型失败",
			})
		}
		membership.TypeName = membershipType.Name
		if membership.ExpiryDate == nil && membershipType.ValidityDays > 0 {
			expiry := time.Now().AddDate(0, 0, membershipType.ValidityDays)
			membership.ExpiryDate = &expiry
		}
	}

	// 保存会籍记录
	if err := database.GetDB().Create(&membership).Error; err != nil {
		log.Printf("创建会籍失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建会籍失败: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"message":    "会籍创建成功",
		"membership": membershipPayload(&membership, time.Now()),
	})
}

// GetAllMemberships 获取会籍列表
// 支持售出门店、顾客和状态筛选
// 状态筛选按推导状态过滤，而不是数据库中的存储值，
// 所以分页在推导过滤之后的结果上进行
func GetAllMemberships(c *fiber.Ctx) error {
	// 解析查询参数
	var query models.MembershipQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "查询参数解析失败: " + err.Error(),
		})
	}

	// 设置默认分页参数
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	// 构建查询
	db := database.GetDB().Model(&models.Membership{})

	if query.BranchID != 0 {
		db = db.Where("sold_at_branch_id = ?", query.BranchID)
	}
	if query.CustomerID != 0 {
		db = db.Where("customer_id = ?", query.CustomerID)
	}

	var memberships []models.Membership
	if err := db.Order("created_at DESC").Find(&memberships).Error; err != nil {
		log.Printf("获取会籍列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询会籍失败",
		})
	}

	now := time.Now()
	payload := make([]fiber.Map, 0, len(memberships))
	for i := range memberships {
		// 状态筛选在推导之后进行
		if query.Status != "" && memberships[i].EffectiveStatus(now) != query.Status {
			continue
		}
		payload = append(payload, membershipPayload(&memberships[i], now))
	}

	// 对过滤后的结果分页
	total := len(payload)
	offset := (query.Page - 1) * query.PageSize
	if offset > total {
		offset = total
	}
	end := offset + query.PageSize
	if end > total {
		end = total
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"total":       total,
		"page":        query.Page,
		"pageSize":    query.PageSize,
		"memberships": payload[offset:end],
	})
}

// GetMembership 获取单个会籍详情
// 返回会籍信息和核销历史，核销历史按核销时间倒序
// 同一时间的核销按插入ID升序稳定排列
func GetMembership(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的会籍ID",
		})
	}

	var membership models.Membership
	if err := database.GetDB().First(&membership, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "会籍不存在",
			})
		}
		log.Printf("获取会籍失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取会籍失败",
		})
	}

	// 查询核销历史
	var usages []models.MembershipUsage
	if err := database.GetDB().
		Where("membership_id = ?", membership.ID).
		Order("used_at DESC, id ASC").
		Find(&usages).Error; err != nil {
		log.Printf("查询核销历史失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询核销历史失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"membership":   membershipPayload(&membership, time.Now()),
		"usageHistory": usages,
	})
}

// UpdateMembership 更新会籍
// 仅允许调整到期日和备注性字段，核销必须走RecordMembershipUsage
func UpdateMembership(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的会籍ID",
		})
	}

	var membership models.Membership
	if err := database.GetDB().First(&membership, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "会籍不存在",
			})
		}
		log.Printf("查询会籍失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询会籍失败",
		})
	}

	var updateData struct {
		ExpiryDate *string `json:"expiryDate"`
		TypeName   *string `json:"typeName"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	updates := make(map[string]interface{})

	if updateData.ExpiryDate != nil {
		expiry, err := parseDateOrNil(*updateData.ExpiryDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "无效的到期日格式",
			})
		}
		updates["expiry_date"] = expiry
	}
	if updateData.TypeName != nil {
		updates["type_name"] = *updateData.TypeName
	}

	if err := database.GetDB().Model(&membership).Updates(updates).Error; err != nil {
		log.Printf("更新会籍失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新会籍失败: " + err.Error(),
		})
	}

	if err := database.GetDB().First(&membership, id).Error; err != nil {
		log.Printf("获取更新后的会籍失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的会籍失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "会籍更新成功",
		"membership": membershipPayload(&membership, time.Now()),
	})
}

// RecordMembershipUsage 核销会籍次数
// 这是次数账本的核心写入路径，处理流程:
//  1. 锁定并加载会籍，不存在返回404
//  2. 检查推导状态，非active（已用完或已过期）返回409
//  3. 校验核销次数：至少为1且不超过剩余次数
//  4. 跨门店核销（核销门店 ≠ 售出门店）必须填写服务明细
//  5. 事务内：插入核销记录、递增已用次数、次数用完时状态落为used
//  6. 跨门店核销时在同一事务内创建唯一一条结算记录，
//     金额 = 套餐单次价值 × 核销次数 × 结算比例（欠款方为核销门店）
//  7. 返回更新后的会籍和按时间倒序的核销历史
//
// 核销不做幂等去重：相同参数调用两次就是两次核销，由调用方自行防重
// 会籍行使用SELECT FOR UPDATE锁定，并发核销串行化，
// 防止两个请求都用过期的剩余次数通过校验造成超扣
func RecordMembershipUsage(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的会籍ID",
		})
	}

	// 解析请求体
	var usageData struct {
		UsedAtBranchID uint   `json:"usedAtBranchId"`
		CreditsUsed    *int   `json:"creditsUsed"`
		ServiceDetails string `json:"serviceDetails"`
		Notes          string `json:"notes"`
	}

	if err := c.BodyParser(&usageData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	// 核销次数缺省为1；显式传入的0或负数直接拒绝
	creditsUsed := 1
	if usageData.CreditsUsed != nil {
		creditsUsed = *usageData.CreditsUsed
	}
	if creditsUsed < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "核销次数至少为1",
		})
	}

	// 操作人信息来自认证上下文
	var operatorID *uint
	if uid, ok := c.Locals("user_id").(uint); ok {
		operatorID = &uid
	}
	operatorName, _ := c.Locals("user_name").(string)

	// 核销门店未指定时默认为操作人所属门店
	if usageData.UsedAtBranchID == 0 {
		if branchID, ok := c.Locals("user_branch_id").(uint); ok {
			usageData.UsedAtBranchID = branchID
		}
	}
	if usageData.UsedAtBranchID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "必须指定核销门店",
		})
	}

	// 验证核销门店存在且启用
	var usedAtBranch models.Branch
	if err := database.GetDB().First(&usedAtBranch, usageData.UsedAtBranchID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "核销门店不存在",
			})
		}
		log.Printf("查询门店失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询门店失败",
		})
	}
	if !usedAtBranch.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "核销门店已停用",
		})
	}

	// 读取当前结算比例
	// 全局配置作为核销时注入的依赖，而不是写死的环境值
	settings, err := models.LoadSettings(database.GetDB())
	if err != nil {
		log.Printf("加载系统配置失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "加载系统配置失败",
		})
	}

	now := time.Now()

	// 开始事务
	// 核销记录、次数递增、状态落盘和结算创建必须一起提交，不允许出现部分状态
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Printf("开始事务失败: %v", tx.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "核销失败，请稍后重试",
		})
	}

	// 锁定会籍行，并发核销在这里串行化
	var membership models.Membership
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&membership, id).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "会籍不存在",
			})
		}
		log.Printf("查询会籍失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询会籍失败",
		})
	}

	// 检查推导状态，懒惰过期判定与读取在同一事务内完成
	status := membership.EffectiveStatus(now)
	if status != models.MembershipActive {
		tx.Rollback()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "会籍当前不可核销（已用完或已过期）",
			"status":  status,
		})
	}

	// 校验核销次数不超过剩余次数
	remaining := membership.RemainingCredits()
	if creditsUsed > remaining {
		tx.Rollback()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"message":   "核销次数超过剩余次数",
			"remaining": remaining,
		})
	}

	// 跨门店核销必须填写服务明细
	crossBranch := usageData.UsedAtBranchID != membership.SoldAtBranchID
	if crossBranch && usageData.ServiceDetails == "" {
		tx.Rollback()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "跨门店核销必须填写服务明细",
		})
	}

	// 插入核销记录
	usage := models.MembershipUsage{
		MembershipID:   membership.ID,
		UsedAtBranchID: usageData.UsedAtBranchID,
		UsedAtBranch:   usedAtBranch.Name,
		CreditsUsed:    creditsUsed,
		UsedByUserID:   operatorID,
		UsedBy:         operatorName,
		ServiceDetails: usageData.ServiceDetails,
		Notes:          usageData.Notes,
		UsedAt:         now,
	}

	if err := tx.Create(&usage).Error; err != nil {
		tx.Rollback()
		log.Printf("创建核销记录失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "核销失败，请稍后重试",
		})
	}

	// 递增已用次数，次数用完时状态落为used
	updates := map[string]interface{}{
		"used_credits": gorm.Expr("used_credits + ?", creditsUsed),
	}
	if membership.UsedCredits+creditsUsed >= membership.TotalCredits {
		updates["status"] = models.MembershipUsed
	}
	if err := tx.Model(&models.Membership{}).Where("id = ?", membership.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		log.Printf("更新会籍次数失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "核销失败，请稍后重试",
		})
	}

	// 跨门店核销时创建结算记录
	// 方向约定：核销门店（欠款方）欠售出门店（收款方）
	// 套餐无价格时金额为0，记录仍然创建
	var settlement *models.Settlement
	if crossBranch {
		amount := models.SettlementAmount(
			membership.PackagePrice,
			membership.TotalCredits,
			creditsUsed,
			settings.SettlementPercentage,
		)
		settlement = &models.Settlement{
			SettlementNo:      utils.GenerateSettlementNo(),
			MembershipUsageID: &usage.ID,
			FromBranchID:      usedAtBranch.ID,
			FromBranch:        usedAtBranch.Name,
			ToBranchID:        membership.SoldAtBranchID,
			ToBranch:          membership.SoldAtBranch,
			Amount:            amount,
			Reason:            "跨门店核销会籍次数",
			Status:            models.SettlementPending,
		}
		if err := tx.Create(settlement).Error; err != nil {
			tx.Rollback()
			log.Printf("创建结算记录失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "核销失败，请稍后重试",
			})
		}
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		log.Printf("提交事务失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "核销失败，请稍后重试",
		})
	}

	// 重新读取会籍和核销历史
	if err := database.GetDB().First(&membership, membership.ID).Error; err != nil {
		log.Printf("获取更新后的会籍失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的会籍失败",
		})
	}

	var usages []models.MembershipUsage
	if err := database.GetDB().
		Where("membership_id = ?", membership.ID).
		Order("used_at DESC, id ASC").
		Find(&usages).Error; err != nil {
		log.Printf("查询核销历史失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询核销历史失败",
		})
	}

	response := fiber.Map{
		"success":      true,
		"message":      "核销成功",
		"membership":   membershipPayload(&membership, now),
		"usage":        usage,
		"usageHistory": usages,
	}
	if settlement != nil {
		response["settlement"] = settlement
	}

	return c.JSON(response)
}

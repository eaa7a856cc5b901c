package handlers

import (
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salon_crm/database"
	"salon_crm/models"
	"salon_crm/utils"
)

// CreateCustomer 创建新顾客
// 接收顾客的基本信息，自动生成会员卡号并保存到数据库
// 会员卡号 = 主门店编码 + 序列号，序列号在事务内从门店记录递增取得
func CreateCustomer(c *fiber.Ctx) error {
	// 解析请求体中的顾客数据
	var requestData struct {
		Name                  string  `json:"name"`
		Phone                 string  `json:"phone"`
		Email                 string  `json:"email"`
		PrimaryBranchID       *uint   `json:"primaryBranchId"`
		CustomerPackage       string  `json:"customerPackage"`
		CustomerPackagePrice  float64 `json:"customerPackagePrice"`
		CustomerPackageExpiry string  `json:"customerPackageExpiry"`
		Notes                 string  `json:"notes"`
	}

	if err := c.BodyParser(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	// 验证必填字段
	if requestData.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "顾客姓名不能为空",
		})
	}
	if requestData.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "顾客电话不能为空",
		})
	}
	if requestData.PrimaryBranchID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "必须指定主门店",
		})
	}

	// 解析套餐到期日
	packageExpiry, err := parseDateOrNil(requestData.CustomerPackageExpiry)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的套餐到期日格式",
		})
	}

	// 开始事务
	// 卡号序列递增和顾客创建必须一起落盘，保证卡号唯一
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Printf("开始事务失败: %v", tx.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建顾客失败，请稍后重试",
		})
	}

	// 锁定门店行并验证门店有效
	var branch models.Branch
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&branch, *requestData.PrimaryBranchID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "门店不存在",
			})
		}
		log.Printf("查询门店失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询门店失败",
		})
	}
	if !branch.IsActive {
		tx.Rollback()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "门店已停用",
		})
	}

	// 递增门店卡号序列
	seq := branch.CardSeq + 1
	if err := tx.Model(&branch).UpdateColumn("card_seq", gorm.Expr("card_seq + ?", 1)).Error; err != nil {
		tx.Rollback()
		log.Printf("递增卡号序列失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "生成会员卡号失败",
		})
	}

	customer := models.Customer{
		Name:                  requestData.Name,
		Phone:                 requestData.Phone,
		Email:                 requestData.Email,
		MembershipCardID:      utils.GenerateCardID(branch.Code, branch.ID, seq),
		PrimaryBranchID:       requestData.PrimaryBranchID,
		PrimaryBranch:         branch.Name,
		CustomerPackage:       requestData.CustomerPackage,
		CustomerPackagePrice:  models.MoneyFromDecimal(requestData.CustomerPackagePrice),
		CustomerPackageExpiry: packageExpiry,
		Notes:                 requestData.Notes,
	}

	if err := tx.Create(&customer).Error; err != nil {
		tx.Rollback()
		log.Printf("创建顾客失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建顾客失败: " + err.Error(),
		})
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		log.Printf("提交事务失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建顾客失败，请稍后重试",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "顾客创建成功",
		"customer": customer,
	})
}

// GetAllCustomers 获取顾客列表
// 支持姓名/电话模糊搜索、门店筛选和分页
func GetAllCustomers(c *fiber.Ctx) error {
	// 解析查询参数
	var query models.CustomerQuery
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
	db := database.GetDB().Model(&models.Customer{})

	// 应用筛选条件
	if query.Search != "" {
		like := "%" + query.Search + "%"
		db = db.Where("name LIKE ? OR phone LIKE ? OR membership_card_id LIKE ?", like, like, like)
	}
	if query.BranchID != 0 {
		db = db.Where("primary_branch_id = ?", query.BranchID)
	}

	// 计算总数
	var total int64
	if err := db.Count(&total).Error; err != nil {
		log.Printf("计算顾客总数失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询顾客失败",
		})
	}

	// 获取分页数据
	var customers []models.Customer
	offset := (query.Page - 1) * query.PageSize
	if err := db.Order("created_at DESC").Offset(offset).Limit(query.PageSize).Find(&customers).Error; err != nil {
		log.Printf("获取顾客列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询顾客失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"total":     total,
		"page":      query.Page,
		"pageSize":  query.PageSize,
		"customers": customers,
	})
}

// GetCustomer 获取单个顾客信息
func GetCustomer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的顾客ID",
		})
	}

	var customer models.Customer
	if err := database.GetDB().First(&customer, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "顾客不存在",
			})
		}
		log.Printf("获取顾客失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取顾客失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"customer": customer,
	})
}

// UpdateCustomer 更新顾客信息
// 会员卡号不允许修改
func UpdateCustomer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的顾客ID",
		})
	}

	// 查询顾客是否存在
	var customer models.Customer
	if err := database.GetDB().First(&customer, id).Error; err != nil {
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

	// 解析请求体
	var updateData struct {
		Name                  *string  `json:"name"`
		Phone                 *string  `json:"phone"`
		Email                 *string  `json:"email"`
		PrimaryBranchID       *uint    `json:"primaryBranchId"`
		CustomerPackage       *string  `json:"customerPackage"`
		CustomerPackagePrice  *float64 `json:"customerPackagePrice"`
		CustomerPackageExpiry *string  `json:"customerPackageExpiry"`
		Notes                 *string  `json:"notes"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	// 更新字段
	updates := make(map[string]interface{})

	if updateData.Name != nil && *updateData.Name != "" {
		updates["name"] = *updateData.Name
	}
	if updateData.Phone != nil && *updateData.Phone != "" {
		updates["phone"] = *updateData.Phone
	}
	if updateData.Email != nil {
		updates["email"] = *updateData.Email
	}
	if updateData.CustomerPackage != nil {
		updates["customer_package"] = *updateData.CustomerPackage
	}
	if updateData.CustomerPackagePrice != nil {
		updates["customer_package_price"] = models.MoneyFromDecimal(*updateData.CustomerPackagePrice)
	}
	if updateData.CustomerPackageExpiry != nil {
		expiry, err := parseDateOrNil(*updateData.CustomerPackageExpiry)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "无效的套餐到期日格式",
			})
		}
		updates["customer_package_expiry"] = expiry
	}
	if updateData.Notes != nil {
		updates["notes"] = *updateData.Notes
	}

	// 更换主门店时同步冗余的门店名称
	if updateData.PrimaryBranchID != nil {
		var branch models.Branch
		if err := database.GetDB().First(&branch, *updateData.PrimaryBranchID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false,
					"message": "门店不存在",
				})
			}
			log.Printf("查询门店失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "查询门店失败",
			})
		}
		updates["primary_branch_id"] = *updateData.PrimaryBranchID
		updates["primary_branch"] = branch.Name
	}

	// 执行更新
	if err := database.GetDB().Model(&customer).Updates(updates).Error; err != nil {
		log.Printf("更新顾客失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新顾客失败: " + err.Error(),
		})
	}

	// 重新获取更新后的顾客信息
	if err := database.GetDB().First(&customer, id).Error; err != nil {
		log.Printf("获取更新后的顾客信息失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的顾客信息失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "顾客信息更新成功",
		"customer": customer,
	})
}

// GetCustomerVisitHistory 获取顾客的到店历史
// 合并预约记录和会籍核销记录，按时间倒序返回统一的时间线
func GetCustomerVisitHistory(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的顾客ID",
		})
	}

	// 验证顾客存在
	var customer models.Customer
	if err := database.GetDB().First(&customer, id).Error; err != nil {
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

	// 查询预约记录
	var appointments []models.Appointment
	if err := database.GetDB().Where("customer_id = ?", id).Find(&appointments).Error; err != nil {
		log.Printf("查询预约记录失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询到店历史失败",
		})
	}

	// 查询该顾客所有会籍的核销记录
	var usages []models.MembershipUsage
	if err := database.GetDB().
		Joins("JOIN memberships ON memberships.id = membership_usages.membership_id").
		Where("memberships.customer_id = ?", id).
		Find(&usages).Error; err != nil {
		log.Printf("查询核销记录失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询到店历史失败",
		})
	}

	// 合并为统一时间线
	type visitEntry struct {
		payload fiber.Map
		at      time.Time
	}
	entries := make([]visitEntry, 0, len(appointments)+len(usages))

	for _, a := range appointments {
		entries = append(entries, visitEntry{
			at: a.ScheduledAt,
			payload: fiber.Map{
				"type":    "appointment",
				"id":      a.ID,
				"branch":  a.Branch,
				"staff":   a.Staff,
				"service": a.ServiceName,
				"status":  a.Status,
				"notes":   a.Notes,
				"at":      a.ScheduledAt,
			},
		})
	}
	for _, u := range usages {
		entries = append(entries, visitEntry{
			at: u.UsedAt,
			payload: fiber.Map{
				"type":           "membershipUsage",
				"id":             u.ID,
				"branch":         u.UsedAtBranch,
				"creditsUsed":    u.CreditsUsed,
				"serviceDetails": u.ServiceDetails,
				"notes":          u.Notes,
				"at":             u.UsedAt,
			},
		})
	}

	// 按时间倒序
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.After(entries[j].at)
	})

	history := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		history = append(history, e.payload)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"visitHistory": history,
	})
}

package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salon_crm/database"
	"salon_crm/models"
)

// loadLoyaltyCustomer 加载积分操作目标顾客
func loadLoyaltyCustomer(c *fiber.Ctx, customerID uint) (*models.Customer, error) {
	var customer models.Customer
	if err := database.GetDB().First(&customer, customerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "顾客不存在",
			})
		}
		log.Printf("查询顾客失败: %v", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询顾客失败",
		})
	}
	return &customer, nil
}

// CreateLoyaltyTransaction 记录积分交易
// type为earn时发放积分，为redeem时兑换积分
// 兑换在事务内锁定顾客行后校验余额，余额不足时拒绝且不产生任何变更
func CreateLoyaltyTransaction(c *fiber.Ctx) error {
	var requestData struct {
		CustomerID uint   `json:"customerId"`
		Type       string `json:"type"`
		Points     int    `json:"points"`
		Reason     string `json:"reason"`
		BranchID   *uint  `json:"branchId"`
	}

	if err := c.BodyParser(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	if requestData.CustomerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "顾客ID不能为空",
		})
	}
	if requestData.Type != models.LoyaltyEarn && requestData.Type != models.LoyaltyRedeem {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "积分交易类型必须是earn或redeem",
		})
	}
	if requestData.Points <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "积分数量必须大于0",
		})
	}

	customer, errResp := loadLoyaltyCustomer(c, requestData.CustomerID)
	if customer == nil {
		return errResp
	}

	branchID := requestData.BranchID
	if branchID == nil {
		if userBranchID, ok := c.Locals("user_branch_id").(uint); ok {
			branchID = &userBranchID
		}
	}

	transaction := models.LoyaltyTransaction{
		CustomerID: customer.ID,
		Type:       requestData.Type,
		Reason:     requestData.Reason,
		BranchID:   branchID,
	}

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Printf("开启事务失败: %v", tx.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "开启事务失败",
		})
	}

	if requestData.Type == models.LoyaltyEarn {
		transaction.Points = requestData.Points
	} else {
		// 兑换前先锁定顾客行再求和余额
		// 快照读不加锁，两个并发兑换会同时通过校验把余额扣成负数
		var locked models.Customer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, customer.ID).Error; err != nil {
			tx.Rollback()
			log.Printf("锁定顾客失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "兑换失败，请稍后重试",
			})
		}
		balance, err := models.LoyaltyBalance(tx, customer.ID)
		if err != nil {
			tx.Rollback()
			log.Printf("计算积分余额失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "计算积分余额失败",
			})
		}
		if requestData.Points > balance {
			tx.Rollback()
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "积分余额不足",
				"balance": balance,
			})
		}
		transaction.Points = -requestData.Points
	}

	if err := tx.Create(&transaction).Error; err != nil {
		tx.Rollback()
		log.Printf("创建积分交易失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建积分交易失败: " + err.Error(),
		})
	}

	if err := tx.Commit().Error; err != nil {
		log.Printf("提交事务失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "提交事务失败",
		})
	}

	balance, err := models.LoyaltyBalance(database.GetDB(), customer.ID)
	if err != nil {
		log.Printf("计算积分余额失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "计算积分余额失败",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "积分交易已记录",
		"transaction": transaction,
		"balance":     balance,
	})
}

// GetCustomerLoyalty 获取顾客积分余额和交易流水
// 支持路径参数/api/customers/:id/loyalty和查询参数/api/loyalty/points?customerId=两种形式
func GetCustomerLoyalty(c *fiber.Ctx) error {
	raw := c.Params("id")
	if raw == "" {
		raw = c.Query("customerId")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的顾客ID",
		})
	}

	customer, errResp := loadLoyaltyCustomer(c, uint(id))
	if customer == nil {
		return errResp
	}

	balance, err := models.LoyaltyBalance(database.GetDB(), customer.ID)
	if err != nil {
		log.Printf("计算积分余额失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "计算积分余额失败",
		})
	}

	var transactions []models.LoyaltyTransaction
	if err := database.GetDB().
		Where("customer_id = ?", customer.ID).
		Order("created_at DESC, id DESC").
		Find(&transactions).Error; err != nil {
		log.Printf("获取积分流水失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询积分流水失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"balance":      balance,
		"transactions": transactions,
	})
}

// GetLoyaltyInsights 积分洞察
// 汇总累计发放、累计兑换和按余额排序的顾客榜单
func GetLoyaltyInsights(c *fiber.Ctx) error {
	db := database.GetDB()

	var totalEarned, totalRedeemed int64
	if err := db.Model(&models.LoyaltyTransaction{}).
		Where("type = ?", models.LoyaltyEarn).
		Select("COALESCE(SUM(points), 0)").
		Scan(&totalEarned).Error; err != nil {
		log.Printf("统计发放积分失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "统计积分失败",
		})
	}
	if err := db.Model(&models.LoyaltyTransaction{}).
		Where("type = ?", models.LoyaltyRedeem).
		Select("COALESCE(SUM(-points), 0)").
		Scan(&totalRedeemed).Error; err != nil {
		log.Printf("统计兑换积分失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "统计积分失败",
		})
	}

	// 余额榜单，取前10名
	type customerBalance struct {
		CustomerID   uint   `json:"customerId"`
		CustomerName string `json:"customerName"`
		Balance      int    `json:"balance"`
	}
	var topCustomers []customerBalance
	if err := db.Model(&models.LoyaltyTransaction{}).
		Select("loyalty_transactions.customer_id, customers.name AS customer_name, COALESCE(SUM(loyalty_transactions.points), 0) AS balance").
		Joins("JOIN customers ON customers.id = loyalty_transactions.customer_id").
		Group("loyalty_transactions.customer_id, customers.name").
		Order("balance DESC").
		Limit(10).
		Scan(&topCustomers).Error; err != nil {
		log.Printf("统计积分榜单失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "统计积分榜单失败",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"insights": fiber.Map{
			"totalEarned":   totalEarned,
			"totalRedeemed": totalRedeemed,
			"outstanding":   totalEarned - totalRedeemed,
			"topCustomers":  topCustomers,
		},
	})
}

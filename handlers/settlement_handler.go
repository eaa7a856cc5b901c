package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"salon_crm/database"
	"salon_crm/models"
)

// settlementListQuery 解析结算单列表的公共筛选条件
func settlementListQuery(c *fiber.Ctx) (*gorm.DB, error) {
	db := database.GetDB().Model(&models.Settlement{})

	if status := c.Query("status"); status != "" {
		if status != models.SettlementPending && status != models.SettlementSettled {
			return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "无效的结算状态",
			})
		}
		db = db.Where("status = ?", status)
	}
	if branchID := c.Query("branchId"); branchID != "" {
		// 门店视角：作为欠款方或收款方的结算单都算
		db = db.Where("from_branch_id = ? OR to_branch_id = ?", branchID, branchID)
	}
	if from := c.Query("from"); from != "" {
		fromDate, err := parseDate(from)
		if err != nil {
			return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "起始日期格式错误",
			})
		}
		db = db.Where("created_at >= ?", fromDate)
	}
	if to := c.Query("to"); to != "" {
		toDate, err := parseDate(to)
		if err != nil {
			return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "结束日期格式错误",
			})
		}
		db = db.Where("created_at < ?", toDate.Add(24*time.Hour))
	}

	return db, nil
}

// GetAllSettlements 获取结算单列表
// 支持状态、门店和日期区间筛选
func GetAllSettlements(c *fiber.Ctx) error {
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

	return c.JSON(fiber.Map{
		"success":     true,
		"settlements": settlements,
	})
}

// GetSettlementSummary 获取待结算汇总
// 按(欠款门店, 收款门店)方向对分组求和，方向对之间不轧差
func GetSettlementSummary(c *fiber.Ctx) error {
	var settlements []models.Settlement
	if err := database.GetDB().
		Where("status = ?", models.SettlementPending).
		Find(&settlements).Error; err != nil {
		log.Printf("获取待结算单失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询结算单失败",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"summary": models.SummarizeSettlements(settlements),
	})
}

// SettleSettlement 标记结算单为已结算
// 已结算的单子重复标记返回冲突
func SettleSettlement(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的结算单ID",
		})
	}

	var settlement models.Settlement
	if err := database.GetDB().First(&settlement, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "结算单不存在",
			})
		}
		log.Printf("查询结算单失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询结算单失败",
		})
	}

	if settlement.Status == models.SettlementSettled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "结算单已结算，不能重复操作",
		})
	}

	if err := database.GetDB().Model(&settlement).
		Update("status", models.SettlementSettled).Error; err != nil {
		log.Printf("更新结算单失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新结算单失败: " + err.Error(),
		})
	}

	if err := database.GetDB().First(&settlement, id).Error; err != nil {
		log.Printf("获取更新后的结算单失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的结算单失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "结算单已标记为已结算",
		"settlement": settlement,
	})
}

package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"salon_crm/database"
	"salon_crm/models"
)

// GetSettings 获取系统配置
func GetSettings(c *fiber.Ctx) error {
	settings, err := models.LoadSettings(database.GetDB())
	if err != nil {
		log.Printf("加载系统配置失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "加载系统配置失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"settings": settings,
	})
}

// UpdateSettings 更新系统配置
// 比例取值范围[0,100]，更新立即对后续核销生效，不回溯已生成的结算单
func UpdateSettings(c *fiber.Ctx) error {
	settings, err := models.LoadSettings(database.GetDB())
	if err != nil {
		log.Printf("加载系统配置失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "加载系统配置失败",
		})
	}

	var updateData struct {
		RevenuePercentage    *float64 `json:"revenuePercentage"`
		SettlementPercentage *float64 `json:"settlementPercentage"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	updates := make(map[string]interface{})

	if updateData.RevenuePercentage != nil {
		if *updateData.RevenuePercentage < 0 || *updateData.RevenuePercentage > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "营收分成比例必须在0到100之间",
			})
		}
		updates["revenue_percentage"] = *updateData.RevenuePercentage
	}
	if updateData.SettlementPercentage != nil {
		if *updateData.SettlementPercentage < 0 || *updateData.SettlementPercentage > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "结算比例必须在0到100之间",
			})
		}
		updates["settlement_percentage"] = *updateData.SettlementPercentage
	}

	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "没有需要更新的配置项",
		})
	}

	if err := database.GetDB().Model(&settings).Updates(updates).Error; err != nil {
		log.Printf("更新系统配置失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新系统配置失败: " + err.Error(),
		})
	}

	settings, err = models.LoadSettings(database.GetDB())
	if err != nil {
		log.Printf("加载系统配置失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "加载系统配置失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "系统配置已更新",
		"settings": settings,
	})
}

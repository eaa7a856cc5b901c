package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"salon_crm/database"
	"salon_crm/models"
)

// CreateMembershipType 创建套餐类型
func CreateMembershipType(c *fiber.Ctx) error {
	var requestData struct {
		Name            string  `json:"name"`
		TotalCredits    int     `json:"totalCredits"`
		Price           float64 `json:"price"`
		ServiceCategory string  `json:"serviceCategory"`
		ValidityDays    int     `json:"validityDays"`
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
			"message": "套餐名称不能为空",
		})
	}
	if requestData.TotalCredits < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "总次数至少为1",
		})
	}
	if requestData.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "套餐价格不能为负数",
		})
	}

	membershipType := models.MembershipType{
		Name:            requestData.Name,
		TotalCredits:    requestData.TotalCredits,
		Price:           models.MoneyFromDecimal(requestData.Price),
		ServiceCategory: requestData.ServiceCategory,
		ValidityDays:    requestData.ValidityDays,
		IsActive:        true,
	}

	if err := database.GetDB().Create(&membershipType).Error; err != nil {
		log.Printf("创建套餐类型失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建套餐类型失败: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":        true,
		"message":        "套餐类型创建成功",
		"membershipType": membershipType,
	})
}

// GetAllMembershipTypes 获取套餐类型列表
// 默认只返回在售套餐，includeInactive=true时返回全部
func GetAllMembershipTypes(c *fiber.Ctx) error {
	db := database.GetDB().Model(&models.MembershipType{})

	if c.Query("includeInactive") != "true" {
		db = db.Where("is_active = ?", true)
	}

	var membershipTypes []models.MembershipType
	if err := db.Order("created_at DESC").Find(&membershipTypes).Error; err != nil {
		log.Printf("获取套餐类型列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询套餐类型失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"membershipTypes": membershipTypes,
	})
}

// UpdateMembershipType 更新套餐类型
// 修改套餐模板不影响已售出的会籍
func UpdateMembershipType(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的套餐类型ID",
		})
	}

	var membershipType models.MembershipType
	if err := database.GetDB().First(&membershipType, id).Error; err != nil {
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

	var updateData struct {
		Name            *string  `json:"name"`
		TotalCredits    *int     `json:"totalCredits"`
		Price           *float64 `json:"price"`
		ServiceCategory *string  `json:"serviceCategory"`
		ValidityDays    *int     `json:"validityDays"`
		IsActive        *bool    `json:"isActive"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	updates := make(map[string]interface{})

	if updateData.Name != nil && *updateData.Name != "" {
		updates["name"] = *updateData.Name
	}
	if updateData.TotalCredits != nil {
		if *updateData.TotalCredits < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "总次数至少为1",
			})
		}
		updates["total_credits"] = *updateData.TotalCredits
	}
	if updateData.Price != nil {
		if *updateData.Price < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "套餐价格不能为负数",
			})
		}
		updates["price"] = models.MoneyFromDecimal(*updateData.Price)
	}
	if updateData.ServiceCategory != nil {
		updates["service_category"] = *updateData.ServiceCategory
	}
	if updateData.ValidityDays != nil {
		updates["validity_days"] = *updateData.ValidityDays
	}
	if updateData.IsActive != nil {
		updates["is_active"] = *updateData.IsActive
	}

	if err := database.GetDB().Model(&membershipType).Updates(updates).Error; err != nil {
		log.Printf("更新套餐类型失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新套餐类型失败: " + err.Error(),
		})
	}

	if err := database.GetDB().First(&membershipType, id).Error; err != nil {
		log.Printf("获取更新后的套餐类型失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的套餐类型失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "套餐类型更新成功",
		"membershipType": membershipType,
	})
}

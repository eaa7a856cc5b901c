package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"salon_crm/database"
	"salon_crm/models"
)

// CreateBranch 创建门店
func CreateBranch(c *fiber.Ctx) error {
	var requestData struct {
		Name    string `json:"name"`
		Code    string `json:"code"`
		Address string `json:"address"`
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
			"message": "门店名称不能为空",
		})
	}

	// 验证门店编码唯一
	if requestData.Code != "" {
		var existing models.Branch
		result := database.GetDB().Where("code = ?", requestData.Code).First(&existing)
		if result.Error == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "门店编码已存在",
			})
		} else if result.Error != gorm.ErrRecordNotFound {
			log.Printf("查询门店失败: %v", result.Error)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "查询门店失败",
			})
		}
	}

	branch := models.Branch{
		Name:     requestData.Name,
		Code:     requestData.Code,
		Address:  requestData.Address,
		IsActive: true,
	}

	if err := database.GetDB().Create(&branch).Error; err != nil {
		log.Printf("创建门店失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建门店失败: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "门店创建成功",
		"branch":  branch,
	})
}

// GetAllBranches 获取门店列表
// 默认只返回启用的门店，includeInactive=true时返回全部
func GetAllBranches(c *fiber.Ctx) error {
	db := database.GetDB().Model(&models.Branch{})

	if c.Query("includeInactive") != "true" {
		db = db.Where("is_active = ?", true)
	}

	var branches []models.Branch
	if err := db.Order("name ASC").Find(&branches).Error; err != nil {
		log.Printf("获取门店列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询门店失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"branches": branches,
	})
}

// UpdateBranch 更新门店信息
func UpdateBranch(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的门店ID",
		})
	}

	var branch models.Branch
	if err := database.GetDB().First(&branch, id).Error; err != nil {
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

	var updateData struct {
		Name     *string `json:"name"`
		Code     *string `json:"code"`
		Address  *string `json:"address"`
		IsActive *bool   `json:"isActive"`
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
	if updateData.Code != nil {
		updates["code"] = *updateData.Code
	}
	if updateData.Address != nil {
		updates["address"] = *updateData.Address
	}
	if updateData.IsActive != nil {
		updates["is_active"] = *updateData.IsActive
	}

	if err := database.GetDB().Model(&branch).Updates(updates).Error; err != nil {
		log.Printf("更新门店失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新门店失败: " + err.Error(),
		})
	}

	// 门店改名时同步冗余的门店名称
	if name, ok := updates["name"]; ok {
		if err := database.GetDB().Model(&models.Customer{}).Where("primary_branch_id = ?", branch.ID).
			Update("primary_branch", name).Error; err != nil {
			log.Printf("同步顾客门店名称失败: %v", err)
		}
		if err := database.GetDB().Model(&models.User{}).Where("branch_id = ?", branch.ID).
			Update("branch_name", name).Error; err != nil {
			log.Printf("同步用户门店名称失败: %v", err)
		}
	}

	if err := database.GetDB().First(&branch, id).Error; err != nil {
		log.Printf("获取更新后的门店失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的门店失败",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "门店更新成功",
		"branch":  branch,
	})
}

// DeleteBranch 停用门店
// 门店只做软删除：置为停用状态，历史引用全部保留
func DeleteBranch(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的门店ID",
		})
	}

	var branch models.Branch
	if err := database.GetDB().First(&branch, id).Error; err != nil {
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

	if err := database.GetDB().Model(&branch).Update("is_active", false).Error; err != nil {
		log.Printf("停用门店失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "停用门店失败",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "门店已停用",
	})
}

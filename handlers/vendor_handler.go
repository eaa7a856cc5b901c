package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"salon_crm/database"
	"salon_crm/models"
)

// GetAllVendors 获取商户列表
// 支持按审批状态筛选，仅管理员可访问
func GetAllVendors(c *fiber.Ctx) error {
	db := database.GetDB().Model(&models.User{}).Where("role = ?", models.RoleVendor)

	// 按审批状态筛选
	if status := c.Query("status"); status != "" {
		if status != models.ApprovalPending && status != models.ApprovalApproved && status != models.ApprovalRejected {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "无效的审批状态",
			})
		}
		db = db.Where("approval_status = ?", status)
	}

	var vendors []models.User
	if err := db.Order("created_at DESC").Find(&vendors).Error; err != nil {
		log.Printf("获取商户列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询商户失败",
		})
	}

	payload := make([]fiber.Map, 0, len(vendors))
	for i := range vendors {
		payload = append(payload, userPayload(&vendors[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"vendors": payload,
	})
}

// loadVendor 按ID加载商户，带统一的错误响应
func loadVendor(c *fiber.Ctx) (*models.User, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的商户ID",
		})
	}

	var vendor models.User
	if err := database.GetDB().Where("id = ? AND role = ?", id, models.RoleVendor).First(&vendor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "商户不存在",
			})
		}
		log.Printf("查询商户失败: %v", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询商户失败",
		})
	}

	return &vendor, nil
}

// UpdateVendor 更新商户信息
// 管理员可以为商户分配门店、修改商户名称
func UpdateVendor(c *fiber.Ctx) error {
	vendor, errResp := loadVendor(c)
	if vendor == nil {
		return errResp
	}

	var updateData struct {
		VendorName *string `json:"vendorName"`
		BranchID   *uint   `json:"branchId"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	updates := make(map[string]interface{})

	if updateData.VendorName != nil {
		updates["vendor_name"] = *updateData.VendorName
	}

	// 分配门店时验证门店并冗余门店名称
	if updateData.BranchID != nil {
		var branch models.Branch
		if err := database.GetDB().First(&branch, *updateData.BranchID).Error; err != nil {
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
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "门店已停用",
			})
		}
		updates["branch_id"] = *updateData.BranchID
		updates["branch_name"] = branch.Name
	}

	if err := database.GetDB().Model(vendor).Updates(updates).Error; err != nil {
		log.Printf("更新商户失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新商户失败: " + err.Error(),
		})
	}

	if err := database.GetDB().First(vendor, vendor.ID).Error; err != nil {
		log.Printf("获取更新后的商户失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的商户失败",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "商户更新成功",
		"vendor":  userPayload(vendor),
	})
}

// ApproveVendor 审批通过商户
// 状态流转：pending → approved，仅管理员可操作
func ApproveVendor(c *fiber.Ctx) error {
	vendor, errResp := loadVendor(c)
	if vendor == nil {
		return errResp
	}

	if vendor.ApprovalStatus == models.ApprovalApproved {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "商户已审批通过",
		})
	}

	if err := database.GetDB().Model(vendor).Update("approval_status", models.ApprovalApproved).Error; err != nil {
		log.Printf("审批商户失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "审批失败，请稍后重试",
		})
	}

	vendor.ApprovalStatus = models.ApprovalApproved
	return c.JSON(fiber.Map{
		"success": true,
		"message": "商户审批通过",
		"vendor":  userPayload(vendor),
	})
}

// RejectVendor 拒绝商户
// 状态流转：pending → rejected，仅管理员可操作
func RejectVendor(c *fiber.Ctx) error {
	vendor, errResp := loadVendor(c)
	if vendor == nil {
		return errResp
	}

	if vendor.ApprovalStatus == models.ApprovalRejected {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "商户已被拒绝",
		})
	}

	if err := database.GetDB().Model(vendor).Update("approval_status", models.ApprovalRejected).Error; err != nil {
		log.Printf("拒绝商户失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "操作失败，请稍后重试",
		})
	}

	vendor.ApprovalStatus = models.ApprovalRejected
	return c.JSON(fiber.Map{
		"success": true,
		"message": "商户已拒绝",
		"vendor":  userPayload(vendor),
	})
}

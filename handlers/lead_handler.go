package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"salon_crm/database"
	"salon_crm/models"
)

// CreateLeadStatus 创建线索状态
// 线索漏斗的状态集合由管理员配置
func CreateLeadStatus(c *fiber.Ctx) error {
	var requestData struct {
		Name      string `json:"name"`
		SortOrder int    `json:"sortOrder"`
	}

	if err := c.BodyParser(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	if requestData.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "状态名称不能为空",
		})
	}

	// 验证名称唯一
	var existing models.LeadStatus
	result := database.GetDB().Where("name = ?", requestData.Name).First(&existing)
	if result.Error == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "状态名称已存在",
		})
	} else if result.Error != gorm.ErrRecordNotFound {
		log.Printf("查询线索状态失败: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询线索状态失败",
		})
	}

	leadStatus := models.LeadStatus{
		Name:      requestData.Name,
		SortOrder: requestData.SortOrder,
		IsActive:  true,
	}

	if err := database.GetDB().Create(&leadStatus).Error; err != nil {
		log.Printf("创建线索状态失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建线索状态失败: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"message":    "线索状态创建成功",
		"leadStatus": leadStatus,
	})
}

// GetAllLeadStatuses 获取线索状态列表
// 按排序值升序返回，默认只返回启用的状态
func GetAllLeadStatuses(c *fiber.Ctx) error {
	db := database.GetDB().Model(&models.LeadStatus{})

	if c.Query("includeInactive") != "true" {
		db = db.Where("is_active = ?", true)
	}

	var leadStatuses []models.LeadStatus
	if err := db.Order("sort_order ASC, id ASC").Find(&leadStatuses).Error; err != nil {
		log.Printf("获取线索状态列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询线索状态失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"leadStatuses": leadStatuses,
	})
}

// UpdateLeadStatus 更新线索状态定义
// 停用即软删除，已使用该状态的线索不受影响
func UpdateLeadStatus(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的状态ID",
		})
	}

	var leadStatus models.LeadStatus
	if err := database.GetDB().First(&leadStatus, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "线索状态不存在",
			})
		}
		log.Printf("查询线索状态失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询线索状态失败",
		})
	}

	var updateData struct {
		Name      *string `json:"name"`
		SortOrder *int    `json:"sortOrder"`
		IsActive  *bool   `json:"isActive"`
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
	if updateData.SortOrder != nil {
		updates["sort_order"] = *updateData.SortOrder
	}
	if updateData.IsActive != nil {
		updates["is_active"] = *updateData.IsActive
	}

	if err := database.GetDB().Model(&leadStatus).Updates(updates).Error; err != nil {
		log.Printf("更新线索状态失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新线索状态失败: " + err.Error(),
		})
	}

	if err := database.GetDB().First(&leadStatus, id).Error; err != nil {
		log.Printf("获取更新后的线索状态失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的线索状态失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "线索状态更新成功",
		"leadStatus": leadStatus,
	})
}

// validateLeadStatusName 验证状态名称是当前启用的线索状态之一
// 线索状态流转不限制方向，但目标状态必须在启用集合内
func validateLeadStatusName(name string) (bool, error) {
	var count int64
	err := database.GetDB().Model(&models.LeadStatus{}).
		Where("name = ? AND is_active = ?", name, true).
		Count(&count).Error
	return count > 0, err
}

// CreateLead 创建线索
func CreateLead(c *fiber.Ctx) error {
	var requestData struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Email    string `json:"email"`
		Source   string `json:"source"`
		BranchID *uint  `json:"branchId"`
		Status   string `json:"status"`
		Notes    string `json:"notes"`
	}

	if err := c.BodyParser(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	if requestData.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "线索姓名不能为空",
		})
	}
	if requestData.Source == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "线索来源不能为空",
		})
	}

	// 验证初始状态
	if requestData.Status != "" {
		ok, err := validateLeadStatusName(requestData.Status)
		if err != nil {
			log.Printf("验证线索状态失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "验证线索状态失败",
			})
		}
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "无效的线索状态",
			})
		}
	}

	lead := models.Lead{
		Name:   requestData.Name,
		Phone:  requestData.Phone,
		Email:  requestData.Email,
		Source: requestData.Source,
		Status: requestData.Status,
		Notes:  requestData.Notes,
	}

	// 归属门店：未指定时默认为操作人所属门店
	if requestData.BranchID != nil {
		lead.BranchID = requestData.BranchID
	} else if branchID, ok := c.Locals("user_branch_id").(uint); ok {
		lead.BranchID = &branchID
	}
	if lead.BranchID != nil {
		var branch models.Branch
		if err := database.GetDB().First(&branch, *lead.BranchID).Error; err != nil {
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
		lead.Branch = branch.Name
	}

	if err := database.GetDB().Create(&lead).Error; err != nil {
		log.Printf("创建线索失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建线索失败: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "线索创建成功",
		"lead":    lead,
	})
}

// GetAllLeads 获取线索列表
// 支持门店、状态筛选和姓名/电话模糊搜索，附带跟进记录
func GetAllLeads(c *fiber.Ctx) error {
	var query models.LeadQuery
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

	db := database.GetDB().Model(&models.Lead{})

	if query.BranchID != 0 {
		db = db.Where("branch_id = ?", query.BranchID)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.Search != "" {
		like := "%" + query.Search + "%"
		db = db.Where("name LIKE ? OR phone LIKE ?", like, like)
	}

	// 计算总数
	var total int64
	if err := db.Count(&total).Error; err != nil {
		log.Printf("计算线索总数失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询线索失败",
		})
	}

	var leads []models.Lead
	offset := (query.Page - 1) * query.PageSize
	if err := db.Preload("FollowUps").Order("created_at DESC").
		Offset(offset).Limit(query.PageSize).Find(&leads).Error; err != nil {
		log.Printf("获取线索列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询线索失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"total":    total,
		"page":     query.Page,
		"pageSize": query.PageSize,
		"leads":    leads,
	})
}

// UpdateLead 更新线索
// 状态流转不限制方向，但目标状态必须是当前启用的状态之一
func UpdateLead(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的线索ID",
		})
	}

	var lead models.Lead
	if err := database.GetDB().First(&lead, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "线索不存在",
			})
		}
		log.Printf("查询线索失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询线索失败",
		})
	}

	var updateData struct {
		Name   *string `json:"name"`
		Phone  *string `json:"phone"`
		Email  *string `json:"email"`
		Source *string `json:"source"`
		Status *string `json:"status"`
		Notes  *string `json:"notes"`
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
	if updateData.Phone != nil {
		updates["phone"] = *updateData.Phone
	}
	if updateData.Email != nil {
		updates["email"] = *updateData.Email
	}
	if updateData.Source != nil && *updateData.Source != "" {
		updates["source"] = *updateData.Source
	}
	if updateData.Notes != nil {
		updates["notes"] = *updateData.Notes
	}

	// 状态流转校验
	if updateData.Status != nil && *updateData.Status != lead.Status {
		ok, err := validateLeadStatusName(*updateData.Status)
		if err != nil {
			log.Printf("验证线索状态失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "验证线索状态失败",
			})
		}
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "无效的线索状态",
			})
		}
		updates["status"] = *updateData.Status
	}

	if err := database.GetDB().Model(&lead).Updates(updates).Error; err != nil {
		log.Printf("更新线索失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新线索失败: " + err.Error(),
		})
	}

	if err := database.GetDB().Preload("FollowUps").First(&lead, id).Error; err != nil {
		log.Printf("获取更新后的线索失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的线索失败",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "线索更新成功",
		"lead":    lead,
	})
}

// AddLeadFollowUp 添加线索跟进记录
// 跟进记录只追加不修改
func AddLeadFollowUp(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的线索ID",
		})
	}

	var lead models.Lead
	if err := database.GetDB().First(&lead, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "线索不存在",
			})
		}
		log.Printf("查询线索失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询线索失败",
		})
	}

	var requestData struct {
		Note string `json:"note"`
	}

	if err := c.BodyParser(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	if requestData.Note == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "跟进内容不能为空",
		})
	}

	followUp := models.LeadFollowUp{
		LeadID: lead.ID,
		Note:   requestData.Note,
	}
	if operatorID, ok := c.Locals("user_id").(uint); ok {
		followUp.ByUserID = &operatorID
	}

	if err := database.GetDB().Create(&followUp).Error; err != nil {
		log.Printf("创建跟进记录失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建跟进记录失败: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "跟进记录已添加",
		"followUp": followUp,
	})
}

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

// 预约状态合法值
var validAppointmentStatuses = map[string]bool{
	models.AppointmentScheduled: true,
	models.AppointmentCompleted: true,
	models.AppointmentCancelled: true,
	models.AppointmentNoShow:    true,
}

// CreateService 创建服务项目
func CreateService(c *fiber.Ctx) error {
	var requestData struct {
		Name            string  `json:"name"`
		Category        string  `json:"category"`
		BranchID        *uint   `json:"branchId"`
		DurationMinutes int     `json:"durationMinutes"`
		Price           float64 `json:"price"`
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
			"message": "服务名称不能为空",
		})
	}
	if requestData.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "服务价格不能为负数",
		})
	}

	service := models.Service{
		Name:            requestData.Name,
		Category:        requestData.Category,
		BranchID:        requestData.BranchID,
		DurationMinutes: requestData.DurationMinutes,
		Price:           models.MoneyFromDecimal(requestData.Price),
		IsActive:        true,
	}

	if err := database.GetDB().Create(&service).Error; err != nil {
		log.Printf("创建服务项目失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建服务项目失败: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "服务项目创建成功",
		"service": service,
	})
}

// GetAllServices 获取服务项目列表
// 默认只返回可预约的服务，支持按门店和类别筛选
func GetAllServices(c *fiber.Ctx) error {
	db := database.GetDB().Model(&models.Service{})

	if c.Query("includeInactive") != "true" {
		db = db.Where("is_active = ?", true)
	}
	if branchID := c.Query("branchId"); branchID != "" {
		// 门店专属服务与全门店通用服务一并返回
		db = db.Where("branch_id = ? OR branch_id IS NULL", branchID)
	}
	if category := c.Query("category"); category != "" {
		db = db.Where("category = ?", category)
	}

	var services []models.Service
	if err := db.Order("category ASC, name ASC").Find(&services).Error; err != nil {
		log.Printf("获取服务项目列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询服务项目失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"services": services,
	})
}

// UpdateService 更新服务项目
func UpdateService(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的服务ID",
		})
	}

	var service models.Service
	if err := database.GetDB().First(&service, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "服务项目不存在",
			})
		}
		log.Printf("查询服务项目失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询服务项目失败",
		})
	}

	var updateData struct {
		Name            *string  `json:"name"`
		Category        *string  `json:"category"`
		DurationMinutes *int     `json:"durationMinutes"`
		Price           *float64 `json:"price"`
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
	if updateData.Category != nil {
		updates["category"] = *updateData.Category
	}
	if updateData.DurationMinutes != nil {
		updates["duration_minutes"] = *updateData.DurationMinutes
	}
	if updateData.Price != nil {
		if *updateData.Price < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "服务价格不能为负数",
			})
		}
		updates["price"] = models.MoneyFromDecimal(*updateData.Price)
	}
	if updateData.IsActive != nil {
		updates["is_active"] = *updateData.IsActive
	}

	if err := database.GetDB().Model(&service).Updates(updates).Error; err != nil {
		log.Printf("更新服务项目失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新服务项目失败: " + err.Error(),
		})
	}

	if err := database.GetDB().First(&service, id).Error; err != nil {
		log.Printf("获取更新后的服务项目失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的服务项目失败",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "服务项目更新成功",
		"service": service,
	})
}

// CreateAppointment 创建预约
// 预约时间可以在过去，用于补录历史到店记录
func CreateAppointment(c *fiber.Ctx) error {
	var requestData struct {
		CustomerID  uint   `json:"customerId"`
		BranchID    uint   `json:"branchId"`
		Staff       string `json:"staff"`
		ServiceID   *uint  `json:"serviceId"`
		ServiceName string `json:"service"`
		ScheduledAt string `json:"scheduledAt"`
		Notes       string `json:"notes"`
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
	if requestData.ScheduledAt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "预约时间不能为空",
		})
	}

	scheduledAt, err := parseDate(requestData.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "预约时间格式错误",
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

	// 预约门店：未指定时默认为操作人所属门店
	branchID := requestData.BranchID
	if branchID == 0 {
		if userBranchID, ok := c.Locals("user_branch_id").(uint); ok {
			branchID = userBranchID
		}
	}
	if branchID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "门店ID不能为空",
		})
	}

	var branch models.Branch
	if err := database.GetDB().First(&branch, branchID).Error; err != nil {
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
			"message": "门店已停用，无法预约",
		})
	}

	appointment := models.Appointment{
		CustomerID:  requestData.CustomerID,
		BranchID:    branch.ID,
		Branch:      branch.Name,
		Staff:       requestData.Staff,
		ServiceID:   requestData.ServiceID,
		ServiceName: requestData.ServiceName,
		ScheduledAt: scheduledAt,
		Status:      models.AppointmentScheduled,
		Notes:       requestData.Notes,
	}

	// 指定服务项目时冗余服务名称
	if requestData.ServiceID != nil {
		var service models.Service
		if err := database.GetDB().First(&service, *requestData.ServiceID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false,
					"message": "服务项目不存在",
				})
			}
			log.Printf("查询服务项目失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "查询服务项目失败",
			})
		}
		appointment.ServiceName = service.Name
	}

	if err := database.GetDB().Create(&appointment).Error; err != nil {
		log.Printf("创建预约失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "创建预约失败: " + err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "预约创建成功",
		"appointment": appointment,
	})
}

// GetAllAppointments 获取预约列表
// 支持门店、顾客、状态和日期区间筛选
func GetAllAppointments(c *fiber.Ctx) error {
	var query models.AppointmentQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "查询参数解析失败: " + err.Error(),
		})
	}

	db := database.GetDB().Model(&models.Appointment{})

	if query.BranchID != 0 {
		db = db.Where("branch_id = ?", query.BranchID)
	}
	if query.CustomerID != 0 {
		db = db.Where("customer_id = ?", query.CustomerID)
	}
	if query.Status != "" {
		if !validAppointmentStatuses[query.Status] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "无效的预约状态",
			})
		}
		db = db.Where("status = ?", query.Status)
	}
	if query.From != "" {
		from, err := parseDate(query.From)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "起始日期格式错误",
			})
		}
		db = db.Where("scheduled_at >= ?", from)
	}
	if query.To != "" {
		to, err := parseDate(query.To)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "结束日期格式错误",
			})
		}
		// 结束日期按当天末尾计算
		db = db.Where("scheduled_at < ?", to.Add(24*time.Hour))
	}

	var appointments []models.Appointment
	if err := db.Order("scheduled_at DESC").Find(&appointments).Error; err != nil {
		log.Printf("获取预约列表失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询预约失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"appointments": appointments,
	})
}

// UpdateAppointment 更新预约
// 终态（completed/cancelled/no-show）的预约不允许再改状态
func UpdateAppointment(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的预约ID",
		})
	}

	var appointment models.Appointment
	if err := database.GetDB().First(&appointment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "预约不存在",
			})
		}
		log.Printf("查询预约失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询预约失败",
		})
	}

	var updateData struct {
		Staff       *string `json:"staff"`
		ServiceName *string `json:"service"`
		ScheduledAt *string `json:"scheduledAt"`
		Status      *string `json:"status"`
		Notes       *string `json:"notes"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	updates := make(map[string]interface{})
	if updateData.Staff != nil {
		updates["staff"] = *updateData.Staff
	}
	if updateData.ServiceName != nil {
		updates["service_name"] = *updateData.ServiceName
	}
	if updateData.Notes != nil {
		updates["notes"] = *updateData.Notes
	}
	if updateData.ScheduledAt != nil {
		scheduledAt, err := parseDate(*updateData.ScheduledAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "预约时间格式错误",
			})
		}
		updates["scheduled_at"] = scheduledAt
	}

	if updateData.Status != nil && *updateData.Status != appointment.Status {
		if !validAppointmentStatuses[*updateData.Status] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "无效的预约状态",
			})
		}
		if appointment.Status != models.AppointmentScheduled {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "预约已结束，不能再变更状态",
			})
		}
		updates["status"] = *updateData.Status
	}

	if err := database.GetDB().Model(&appointment).Updates(updates).Error; err != nil {
		log.Printf("更新预约失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "更新预约失败: " + err.Error(),
		})
	}

	if err := database.GetDB().First(&appointment, id).Error; err != nil {
		log.Printf("获取更新后的预约失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "获取更新后的预约失败",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "预约更新成功",
		"appointment": appointment,
	})
}

package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterAppointmentRoutes 设置预约和服务项目相关路由
func RegisterAppointmentRoutes(api fiber.Router) {
	appointments := api.Group("/appointments", middleware.AuthMiddleware(), middleware.ApprovedOnly())

	appointments.Post("/", handlers.CreateAppointment)    // 创建预约
	appointments.Get("/", handlers.GetAllAppointments)    // 获取预约列表
	appointments.Patch("/:id", handlers.UpdateAppointment) // 更新预约（含状态流转）

	// 服务项目路由
	services := api.Group("/services", middleware.AuthMiddleware(), middleware.ApprovedOnly())
	services.Get("/", handlers.GetAllServices) // 获取服务项目列表

	adminServices := services.Group("/", middleware.AdminOnly())
	adminServices.Post("/", handlers.CreateService)     // 创建服务项目
	adminServices.Patch("/:id", handlers.UpdateService) // 更新服务项目
}

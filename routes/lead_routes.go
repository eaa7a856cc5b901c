package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterLeadRoutes 设置线索相关路由
// 线索状态集合由管理员配置，线索本身开放给已审核用户
func RegisterLeadRoutes(api fiber.Router) {
	leads := api.Group("/leads", middleware.AuthMiddleware(), middleware.ApprovedOnly())

	leads.Post("/", handlers.CreateLead)                   // 创建线索
	leads.Get("/", handlers.GetAllLeads)                   // 获取线索列表
	leads.Patch("/:id", handlers.UpdateLead)               // 更新线索（含状态流转）
	leads.Post("/:id/follow-ups", handlers.AddLeadFollowUp) // 追加跟进记录

	// 线索状态定义路由
	leadStatuses := api.Group("/lead-statuses", middleware.AuthMiddleware(), middleware.ApprovedOnly())
	leadStatuses.Get("/", handlers.GetAllLeadStatuses) // 获取线索状态列表

	adminStatuses := leadStatuses.Group("/", middleware.AdminOnly())
	adminStatuses.Post("/", handlers.CreateLeadStatus)     // 创建线索状态
	adminStatuses.Patch("/:id", handlers.UpdateLeadStatus) // 更新线索状态
}

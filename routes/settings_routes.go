package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterSettingsRoutes 设置系统配置相关路由
// 配置读取开放给已审核用户（核销预览需要结算比例），修改仅限管理员
func RegisterSettingsRoutes(api fiber.Router) {
	settings := api.Group("/settings", middleware.AuthMiddleware(), middleware.ApprovedOnly())

	settings.Get("/", handlers.GetSettings)                              // 获取系统配置
	settings.Patch("/", middleware.AdminOnly(), handlers.UpdateSettings) // 更新系统配置
}

package routes

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes 设置所有API路由
// 调用各个模块的路由注册函数
// 认证中间件由各模块自行挂载，避免拦截登录注册等公开路由
func SetupRoutes(app *fiber.App) {
	// API路由组
	api := app.Group("/api")

	// 设置认证路由
	SetupAuthRoutes(app)

	// 设置各模块路由
	RegisterBranchRoutes(api)
	RegisterCustomerRoutes(api)
	RegisterMembershipRoutes(api)
	RegisterSettlementRoutes(api)
	RegisterLeadRoutes(api)
	RegisterAppointmentRoutes(api)
	RegisterLoyaltyRoutes(api)
	RegisterVendorRoutes(api)
	RegisterReportRoutes(api)
	RegisterSettingsRoutes(api)
}

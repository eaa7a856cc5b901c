package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterReportRoutes 设置报表相关路由
// 门店看板开放给已审核商户，其余看板仅限管理员
func RegisterReportRoutes(api fiber.Router) {
	reports := api.Group("/reports", middleware.AuthMiddleware(), middleware.ApprovedOnly())

	reports.Get("/branch-dashboard", handlers.GetBranchDashboard) // 门店看板

	adminReports := reports.Group("/", middleware.AdminOnly())
	adminReports.Get("/sales-dashboard", handlers.GetSalesDashboard) // 销售看板
	adminReports.Get("/owner-overview", handlers.GetOwnerOverview)   // 经营总览
	adminReports.Get("/settlements", handlers.GetSettlementsReport)  // 结算报表
}

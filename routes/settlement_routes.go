package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterSettlementRoutes 设置结算相关路由
// 结算单由核销自动生成，这里只提供查询、汇总和标记已结算
func RegisterSettlementRoutes(api fiber.Router) {
	settlements := api.Group("/settlements", middleware.AuthMiddleware(), middleware.ApprovedOnly())

	settlements.Get("/", handlers.GetAllSettlements)        // 获取结算单列表
	settlements.Get("/summary", handlers.GetSettlementSummary) // 获取待结算汇总

	// 标记已结算仅限管理员
	settlements.Patch("/:id/settle", middleware.AdminOnly(), handlers.SettleSettlement)
}

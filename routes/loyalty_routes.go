package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterLoyaltyRoutes 设置积分相关路由
func RegisterLoyaltyRoutes(api fiber.Router) {
	loyalty := api.Group("/loyalty", middleware.AuthMiddleware(), middleware.ApprovedOnly())

	loyalty.Post("/points", handlers.CreateLoyaltyTransaction) // 记录积分交易（发放/兑换）
	loyalty.Get("/points", handlers.GetCustomerLoyalty)        // 按customerId查询积分余额和流水
	loyalty.Get("/insights", handlers.GetLoyaltyInsights)      // 积分洞察
}

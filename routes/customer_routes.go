package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterCustomerRoutes 设置顾客相关路由
func RegisterCustomerRoutes(api fiber.Router) {
	customers := api.Group("/customers", middleware.AuthMiddleware(), middleware.ApprovedOnly())

	customers.Post("/", handlers.CreateCustomer)                    // 创建顾客（自动分配会员卡号）
	customers.Get("/", handlers.GetAllCustomers)                    // 获取顾客列表
	customers.Get("/:id", handlers.GetCustomer)                     // 获取单个顾客
	customers.Patch("/:id", handlers.UpdateCustomer)                // 更新顾客
	customers.Get("/:id/visit-history", handlers.GetCustomerVisitHistory) // 获取顾客到店历史
	customers.Get("/:id/loyalty", handlers.GetCustomerLoyalty)            // 获取顾客积分余额和流水
}

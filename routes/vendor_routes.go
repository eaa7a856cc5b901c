package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterVendorRoutes 设置商户管理相关路由
// 商户审批仅限管理员
func RegisterVendorRoutes(api fiber.Router) {
	vendors := api.Group("/vendors", middleware.AuthMiddleware(), middleware.AdminOnly())

	vendors.Get("/", handlers.GetAllVendors)               // 获取商户列表
	vendors.Patch("/:id", handlers.UpdateVendor)           // 更新商户（门店分配）
	vendors.Patch("/:id/approve", handlers.ApproveVendor)  // 审核通过
	vendors.Patch("/:id/reject", handlers.RejectVendor)    // 审核拒绝
}

package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterMembershipRoutes 设置会籍相关路由
// 核销是核心操作：扣减次数、必要时生成跨门店结算单，全部在一个事务内完成
func RegisterMembershipRoutes(api fiber.Router) {
	memberships := api.Group("/memberships", middleware.AuthMiddleware(), middleware.ApprovedOnly())

	memberships.Post("/", handlers.CreateMembership)          // 售出会籍
	memberships.Get("/", handlers.GetAllMemberships)          // 获取会籍列表
	memberships.Get("/:id", handlers.GetMembership)           // 获取单个会籍（含核销历史）
	memberships.Patch("/:id", handlers.UpdateMembership)      // 更新会籍
	memberships.Post("/:id/use", handlers.RecordMembershipUsage) // 核销次数

	// 套餐类型路由
	membershipTypes := api.Group("/membership-types", middleware.AuthMiddleware(), middleware.ApprovedOnly())
	membershipTypes.Get("/", handlers.GetAllMembershipTypes) // 获取套餐类型列表

	adminTypes := membershipTypes.Group("/", middleware.AdminOnly())
	adminTypes.Post("/", handlers.CreateMembershipType)     // 创建套餐类型
	adminTypes.Patch("/:id", handlers.UpdateMembershipType) // 更新套餐类型
}

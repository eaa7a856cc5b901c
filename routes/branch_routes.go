package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// RegisterBranchRoutes 设置门店相关路由
// 查询开放给已审核用户，创建、修改、停用仅限管理员
func RegisterBranchRoutes(api fiber.Router) {
	branches := api.Group("/branches", middleware.AuthMiddleware(), middleware.ApprovedOnly())

	branches.Get("/", handlers.GetAllBranches) // 获取门店列表

	adminBranches := branches.Group("/", middleware.AdminOnly())
	adminBranches.Post("/", handlers.CreateBranch)      // 创建门店
	adminBranches.Patch("/:id", handlers.UpdateBranch)  // 更新门店
	adminBranches.Delete("/:id", handlers.DeleteBranch) // 停用门店
}

package routes

import (
	"github.com/gofiber/fiber/v2"

	"salon_crm/handlers"
	"salon_crm/middleware"
)

// SetupAuthRoutes 设置认证相关路由
// 注册、登录、刷新令牌不需要认证中间件
// 商户注册后处于待审核状态，审核通过前仅能登录查看自己的账号信息
func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/api/auth")

	// 注册路由 - 商户自助注册，注册后等待管理员审核
	// POST /api/auth/register
	auth.Post("/register", handlers.Register)

	// 登录路由 - 邮箱加密码登录
	// POST /api/auth/login
	// 成功返回JWT令牌、过期时间和用户信息
	auth.Post("/login", handlers.Login)

	// 刷新令牌路由 - 用当前令牌换取新令牌，延长登录有效期
	// POST /api/auth/refresh
	// 不需要认证中间件，令牌临近过期时仍可用于刷新
	auth.Post("/refresh", handlers.RefreshToken)

	// 登出路由 - 使当前会话的令牌失效
	// POST /api/auth/logout
	auth.Post("/logout", middleware.AuthMiddleware(), handlers.Logout)

	// 获取登录设备列表路由 - 查询当前用户的所有登录会话
	// GET /api/auth/devices
	auth.Get("/devices", middleware.AuthMiddleware(), handlers.GetLoginDevices)

	// 登出特定设备路由 - 使指定设备的登录会话失效
	// DELETE /api/auth/devices/:id
	auth.Delete("/devices/:id", middleware.AuthMiddleware(), handlers.LogoutDevice)
}

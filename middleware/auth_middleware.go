package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"salon_crm/database"
	"salon_crm/models"
	"salon_crm/utils"
)

// AuthMiddleware 验证用户身份的中间件
// 该中间件负责处理所有需要身份验证的路由请求
// 认证方式为Authorization头的Bearer JWT令牌，缺失凭证时不做任何匿名回退
//
// 认证成功后，会将用户信息存储在请求上下文中，供后续处理函数使用
// 认证失败则会返回相应的错误信息和状态码
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 从请求头获取Authorization
		// 检查是否提供了Bearer令牌
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "未提供有效的认证令牌",
			})
		}

		// 从Authorization头中提取令牌
		// 去掉"Bearer "前缀，获取实际的JWT令牌字符串
		tokenString := authHeader[7:]

		// 解析令牌
		// 验证JWT令牌的签名并提取声明信息
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "无效的认证令牌",
			})
		}

		// 检查令牌是否存在于数据库
		// 确保令牌未被撤销且仍然有效
		var token models.UserToken
		if err := database.GetDB().Where("token = ?", tokenString).First(&token).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"message": "认证令牌不存在",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "验证认证令牌失败",
			})
		}

		// 检查令牌是否已过期
		// 即使JWT本身未过期，也需检查数据库中的过期时间
		if time.Now().After(token.ExpiredAt) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "认证令牌已过期，请重新登录",
			})
		}

		// 查询用户信息
		// 验证用户是否存在且状态为正常
		var user models.User
		if err := database.GetDB().Where("id = ? AND status = ?", claims.UserID, "active").First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"message": "用户不存在或已被禁用",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "验证用户身份失败",
			})
		}

		// 将用户信息存储在上下文中，供后续处理函数使用
		// 这些信息可以通过c.Locals()在后续处理函数中获取
		c.Locals("user_id", user.ID)
		c.Locals("user_name", user.Name)
		c.Locals("user_role", user.Role)
		c.Locals("user_approval", user.ApprovalStatus)
		if user.BranchID != nil {
			c.Locals("user_branch_id", *user.BranchID)
		}

		// 继续处理请求
		// 认证成功，允许请求继续传递到下一个处理函数
		return c.Next()
	}
}

// AdminOnly 仅允许管理员访问的中间件
// 必须在AuthMiddleware之后使用
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "需要管理员权限",
			})
		}
		return c.Next()
	}
}

// ApprovedOnly 要求商户已通过审批的中间件
// 管理员直接放行；商户必须处于approved状态才能使用门店功能
// 必须在AuthMiddleware之后使用
func ApprovedOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role == models.RoleAdmin {
			return c.Next()
		}
		approval, _ := c.Locals("user_approval").(string)
		if approval != models.ApprovalApproved {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "商户账号尚未通过审批",
			})
		}
		return c.Next()
	}
}

package handlers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"salon_crm/database"
	"salon_crm/models"
	"salon_crm/utils"
)

// userPayload 构建返回给前端的用户信息
// 密码等敏感字段不外泄
func userPayload(user *models.User) fiber.Map {
	return fiber.Map{
		"id":             user.ID,
		"name":           user.Name,
		"email":          user.Email,
		"role":           user.Role,
		"vendorName":     user.VendorName,
		"branchId":       user.BranchID,
		"branchName":     user.BranchName,
		"approvalStatus": user.ApprovalStatus,
	}
}

// Register 用户注册
// 商户注册后进入pending状态，需管理员审批通过后才能使用门店功能
// 管理员账号注册后直接可用
func Register(c *fiber.Ctx) error {
	// 解析请求体中的注册数据
	var registerData struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		Role       string `json:"role"`
		VendorName string `json:"vendorName"`
		BranchID   *uint  `json:"branchId"`
	}

	if err := c.BodyParser(&registerData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败: " + err.Error(),
		})
	}

	// 验证必填字段
	if registerData.Name == "" || registerData.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "姓名和邮箱不能为空",
		})
	}
	if registerData.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "密码不能为空",
		})
	}

	// 角色默认为商户，只接受admin或vendor
	role := registerData.Role
	if role == "" {
		role = models.RoleVendor
	}
	if role != models.RoleAdmin && role != models.RoleVendor {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的角色",
		})
	}

	// 验证邮箱是否已注册
	var existing models.User
	result := database.GetDB().Where("email = ?", registerData.Email).First(&existing)
	if result.Error == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "该邮箱已注册",
		})
	} else if result.Error != gorm.ErrRecordNotFound {
		log.Printf("查询用户失败: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询用户失败",
		})
	}

	user := models.User{
		Name:       registerData.Name,
		Email:      registerData.Email,
		Role:       role,
		VendorName: registerData.VendorName,
		BranchID:   registerData.BranchID,
		Status:     "active",
	}

	// 商户注册默认待审批
	if role == models.RoleVendor {
		user.ApprovalStatus = models.ApprovalPending
	}

	// 门店存在时冗余门店名称
	if user.BranchID != nil {
		var branch models.Branch
		if err := database.GetDB().First(&branch, *user.BranchID).Error; err == nil {
			user.BranchName = branch.Name
		}
	}

	// 设置加密密码
	if err := user.SetPassword(registerData.Password); err != nil {
		log.Printf("密码加密失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "密码加密失败",
		})
	}

	// 保存用户记录
	if err := database.GetDB().Create(&user).Error; err != nil {
		log.Printf("创建用户失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "注册失败，请稍后重试",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "注册成功",
		"user":    userPayload(&user),
	})
}

// handleLoginFailure 处理登录失败响应
func handleLoginFailure(c *fiber.Ctx, email string, reason string) error {
	// 记录失败的登录尝试
	isLocked, minutes := utils.DefaultLoginLimiter.RecordFailedLogin(email)

	log.Printf("登录失败，原因: %s, 邮箱: %s", reason, email)

	if isLocked {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"message": "登录尝试次数过多，账号已被临时锁定",
			"minutes": minutes,
		})
	}

	remainingAttempts := utils.DefaultLoginLimiter.GetRemainingAttempts(email)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success":            false,
		"message":            "邮箱或密码错误",
		"remaining_attempts": remainingAttempts,
	})
}

// Login 用户登录
// 验证凭证后签发JWT令牌并记录会话
// 商户即使待审批也允许登录，前端根据approvalStatus控制面板访问
func Login(c *fiber.Ctx) error {
	// 解析请求数据
	var loginData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&loginData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "参数解析失败，请检查输入格式",
		})
	}

	// 验证必填字段
	if loginData.Email == "" || loginData.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "邮箱和密码不能为空",
		})
	}

	// 检查登录尝试次数限制
	isLocked, remainingMinutes := utils.DefaultLoginLimiter.IsLocked(loginData.Email)
	if isLocked {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"message": "登录尝试次数过多，账号已被临时锁定",
			"minutes": remainingMinutes,
		})
	}

	// 查询用户信息
	var user models.User
	if err := database.GetDB().Where("email = ?", loginData.Email).First(&user).Error; err != nil {
		// 不要泄露用户是否存在的信息，统一返回邮箱或密码错误
		return handleLoginFailure(c, loginData.Email, "用户不存在")
	}

	// 验证密码
	if !user.CheckPassword(loginData.Password) {
		return handleLoginFailure(c, loginData.Email, "密码错误")
	}

	// 检查账号状态
	if user.Status != "active" {
		log.Printf("登录失败，账号已被禁用: %s", loginData.Email)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "账号已被禁用，请联系管理员",
		})
	}

	// 重置登录尝试次数
	utils.DefaultLoginLimiter.ResetAttempts(loginData.Email)

	// 懒惰删除：清理该用户的过期令牌
	if err := database.GetDB().Where("user_id = ? AND expired_at < ?", user.ID, time.Now()).Delete(&models.UserToken{}).Error; err != nil {
		log.Printf("删除过期令牌失败: %v", err)
		// 不返回错误，继续处理
	}

	// 生成JWT令牌，有效期24小时
	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, 24*time.Hour)
	if err != nil {
		log.Printf("生成令牌失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "登录失败，请稍后重试",
		})
	}

	// 定义过期时间
	expireTime := time.Now().Add(24 * time.Hour)

	// 存储令牌到数据库
	userToken := models.UserToken{
		UserID:    user.ID,
		Token:     token,
		UserAgent: c.Get("User-Agent"),
		IP:        c.IP(),
		ExpiredAt: expireTime,
	}

	if err := database.GetDB().Create(&userToken).Error; err != nil {
		log.Printf("存储令牌失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "登录失败，请稍后重试",
		})
	}

	// 更新最后登录时间
	now := time.Now()
	if err := database.GetDB().Model(&user).Update("last_login_at", now).Error; err != nil {
		log.Printf("更新最后登录时间失败: %v", err)
	}

	log.Printf("用户登录成功: %s, ID: %d", user.Email, user.ID)

	// 返回登录成功信息和令牌
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "登录成功",
		"token":     token,
		"expiresAt": expireTime.Unix(),
		"user":      userPayload(&user),
	})
}

// Logout 用户登出
// 使当前会话的令牌立即失效
func Logout(c *fiber.Ctx) error {
	// 从请求头获取令牌
	authHeader := c.Get("Authorization")
	if authHeader == "" || len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "未提供有效的认证令牌",
		})
	}

	tokenString := authHeader[7:]

	// 将令牌从数据库中删除
	// 使令牌立即失效，防止后续使用
	if err := database.GetDB().Where("token = ?", tokenString).Delete(&models.UserToken{}).Error; err != nil {
		log.Printf("删除令牌失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "登出失败，请稍后重试",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "登出成功",
	})
}

// RefreshToken 刷新认证令牌
// 该处理函数用于延长用户会话，通过验证现有令牌并签发新令牌
// 处理流程:
//  1. 从请求头提取当前令牌
//  2. 验证令牌的有效性和存在性
//  3. 检查令牌是否过期
//  4. 验证关联用户的状态
//  5. 生成新令牌并存储到数据库
//  6. 删除旧令牌
func RefreshToken(c *fiber.Ctx) error {
	// 从请求头获取令牌
	authHeader := c.Get("Authorization")
	if authHeader == "" || len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "未提供有效的认证令牌",
		})
	}

	tokenString := authHeader[7:]

	// 解析令牌
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
	if time.Now().After(token.ExpiredAt) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "认证令牌已过期",
		})
	}

	// 查询用户信息
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

	// 生成新的JWT令牌，有效期24小时
	newToken, err := utils.GenerateToken(user.ID, user.Email, user.Role, 24*time.Hour)
	if err != nil {
		log.Printf("生成令牌失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "刷新令牌失败，请稍后重试",
		})
	}

	expireTime := time.Now().Add(24 * time.Hour)

	// 删除旧令牌
	// 确保旧令牌不能再被使用，防止令牌重放攻击
	if err := database.GetDB().Delete(&token).Error; err != nil {
		log.Printf("删除旧令牌失败: %v", err)
		// 不返回错误，继续处理
	}

	// 存储新令牌到数据库
	newUserToken := models.UserToken{
		UserID:    user.ID,
		Token:     newToken,
		UserAgent: token.UserAgent, // 保持原有的设备信息
		IP:        c.IP(),          // 更新IP地址
		ExpiredAt: expireTime,
	}

	if err := database.GetDB().Create(&newUserToken).Error; err != nil {
		log.Printf("存储新令牌失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "刷新令牌失败，请稍后重试",
		})
	}

	// 返回新令牌
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "刷新令牌成功",
		"token":     newToken,
		"expiresAt": expireTime.Unix(),
	})
}

// GetLoginDevices 获取登录设备列表
// 返回当前用户的所有活跃登录会话
func GetLoginDevices(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(uint)

	// 查询该用户的所有未过期令牌
	var tokens []models.UserToken
	if err := database.GetDB().Where("user_id = ? AND expired_at > ?", userID, time.Now()).Find(&tokens).Error; err != nil {
		log.Printf("查询登录设备失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "查询登录设备失败，请稍后重试",
		})
	}

	// 转换为前端友好的格式，包含必要的设备信息
	devices := make([]fiber.Map, 0, len(tokens))
	for _, token := range tokens {
		devices = append(devices, fiber.Map{
			"id":        token.ID,
			"userAgent": token.UserAgent,
			"ip":        token.IP,
			"createdAt": token.CreatedAt,
			"expiredAt": token.ExpiredAt,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"devices": devices,
	})
}

// LogoutDevice 登出特定设备
// 使特定设备的会话令牌失效，只能操作自己的设备
func LogoutDevice(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(uint)

	// 从URL参数中提取目标设备ID
	deviceID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "无效的设备ID",
		})
	}

	// 删除特定设备的令牌
	// 确保只删除属于当前用户的设备令牌
	result := database.GetDB().Where("id = ? AND user_id = ?", deviceID, userID).Delete(&models.UserToken{})
	if result.Error != nil {
		log.Printf("登出设备失败: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "登出设备失败，请稍后重试",
		})
	}

	// 检查是否找到并删除了记录
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "设备不存在或不属于当前用户",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "设备登出成功",
	})
}

package main

import (
	"salon_crm/config"
)

// main 应用程序入口
// 初始化数据库和配置后启动HTTP服务器
func main() {
	// 初始化应用程序（数据库连接、迁移）
	config.InitApp()

	// 创建并配置Fiber应用
	app := config.SetupApp()

	// 启动服务器并处理优雅关闭
	config.StartServer(app)
}

// cmd/server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Corphon/VisualMediaTool/internal/app"
	"github.com/Corphon/VisualMediaTool/internal/config"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

func main() {
	logger := utils.GetLogger()
	logger.Info("启动 VisualMediaTool 服务器...", nil)

	// 1. 加载基础配置
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("加载配置失败", map[string]interface{}{"error": err.Error()})
	}

	// 2. 创建必要的目录并初始化日志文件
	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatal("创建目录失败", map[string]interface{}{"error": err.Error()})
	}
	if err := utils.InitLogger(cfg.LogDir); err != nil {
		logger.Warn("日志文件初始化失败，仅输出到终端", map[string]interface{}{"error": err.Error()})
	}
	defer logger.Close()
	if cfg.DebugMode {
		logger.SetLogLevel(utils.DEBUG)
	}
	logger.Info("配置加载完成", map[string]interface{}{
		"port":        cfg.Port,
		"ai_enabled":  cfg.AIEnabled,
		"ai_provider": cfg.AIProvider,
	})

	// 3. 等待中断信号以进行优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. 初始化所有服务
	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("初始化服务失败", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer application.Close()

	// 5. 启动服务器
	if err := application.Run(ctx); err != nil {
		logger.Error("服务器异常退出", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

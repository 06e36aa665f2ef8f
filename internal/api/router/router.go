package router

import (
	"context"

	"resume-coach-go/internal/api/handler"
	"resume-coach-go/internal/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册API路由。
// Server.APIKey非空时对/api/v1分组启用X-API-Key鉴权，健康检查始终开放。
func RegisterRoutes(h *server.Hertz, cfg *config.Config, coachHandler *handler.CoachHandler) {
	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")

	if cfg.Server.APIKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:X-API-Key", ""),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return key == cfg.Server.APIKey, nil
			}),
			keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
				c.JSON(consts.StatusUnauthorized, utils.H{"error": "无效或缺失的API密钥"})
				c.Abort()
			}),
		))
	}

	api.POST("/upload_resume", coachHandler.UploadResume)
	api.POST("/chat", coachHandler.Chat)
}

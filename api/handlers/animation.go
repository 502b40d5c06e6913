package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/api"
	"github.com/BaSui01/assetflow/generation/animation"
)

// =============================================================================
// 🎬 动画 Handler
// =============================================================================

// AnimationHandler 同步返回动画片段
type AnimationHandler struct {
	debug  bool
	logger *zap.Logger
}

// NewAnimationHandler 创建动画处理器
func NewAnimationHandler(debug bool, logger *zap.Logger) *AnimationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnimationHandler{debug: debug, logger: logger}
}

// HandlePlay 播放动作并返回片段描述
// @Summary 播放动画
// @Description 按动作名称生成动画片段
// @Tags 动画
// @Accept json
// @Produce json
// @Param request body api.AnimationRequest true "动画请求"
// @Success 200 {object} types.Asset "动画片段"
// @Failure 400 {object} Response "无效请求"
// @Security BearerAuth
// @Router /v1/animations/play [post]
func (h *AnimationHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var req api.AnimationRequest
	if !DecodeRequest(w, r, &req, h.logger) {
		return
	}

	player := animation.NewPlayer(animation.Options{Loop: req.Loop, Debug: h.debug, Logger: h.logger})
	clip, err := animation.Named(player, req.Action).Clip()
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	WriteSuccess(w, clip)
}

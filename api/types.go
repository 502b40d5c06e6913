package api

import (
	"strings"
	"time"

	"github.com/BaSui01/assetflow/types"
)

// =============================================================================
// 生成请求类型
// =============================================================================

// GenerateRequest 提交一次 3D 资产生成任务。
// @Description 3D 生成请求结构
type GenerateRequest struct {
	// 流水线模态：text-to-3d、image-to-3d、text-to-voxel
	Modality string `json:"modality" example:"text-to-3d" binding:"required"`
	// 提示词
	Prompt string `json:"prompt" example:"a castle" binding:"required"`
	// 输出宽度，0 表示默认 256
	Width int `json:"width,omitempty" example:"256"`
	// 输出高度，0 表示默认 256
	Height int `json:"height,omitempty" example:"256"`
	// 网格格式：glb、gltf、obj、fbx、usdz、ply
	Format string `json:"format,omitempty" example:"glb"`
}

// Params 转换为推理参数，零尺寸取默认分辨率。
func (r GenerateRequest) Params() (types.InferParams, error) {
	width, height := r.Width, r.Height
	if width == 0 && height == 0 {
		width, height = types.DefaultResolution.Width, types.DefaultResolution.Height
	}
	return types.NewInferParams(width, height, r.Format)
}

// TextureRequest 提交一次纹理生成任务。
// @Description 纹理生成请求结构
type TextureRequest struct {
	// 提示词
	Prompt string `json:"prompt" example:"mossy stone" binding:"required"`
	// 纹理宽度，0 表示使用服务端配置
	Width int `json:"width,omitempty" example:"1024"`
	// 纹理高度，0 表示使用服务端配置
	Height int `json:"height,omitempty" example:"1024"`
	// PBR 通道，为空时生成全部通道
	Channels []string `json:"channels,omitempty" example:"albedo,normal"`
}

// Params 转换为纹理参数。宽高同时为零时交给流水线取默认值。
func (r TextureRequest) Params() (types.TextureParams, error) {
	p := types.TextureParams{Resolution: types.Resolution{Width: r.Width, Height: r.Height}}
	for _, ch := range r.Channels {
		p.Channels = append(p.Channels, types.Channel(strings.ToLower(strings.TrimSpace(ch))))
	}
	return p, p.Validate()
}

// AnimationRequest 播放一个动画动作。
// @Description 动画请求结构
type AnimationRequest struct {
	// 动作名称：walk、idle、attack 或自定义动作
	Action string `json:"action" example:"walk" binding:"required"`
	// 是否循环播放
	Loop bool `json:"loop,omitempty" example:"true"`
}

// =============================================================================
// 认证类型
// =============================================================================

// LoginRequest 用 API Key 换取访问令牌。
// @Description 登录请求结构
type LoginRequest struct {
	// 用户标识，写入令牌 sub
	UserID string `json:"user_id" example:"user-1" binding:"required"`
	// 预分配的 API Key
	APIKey string `json:"api_key" example:"ak-xxxx" binding:"required"`
}

// LoginResponse 签发的访问令牌。
// @Description 登录响应结构
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type" example:"Bearer"`
	ExpiresAt time.Time `json:"expires_at"`
}

// =============================================================================
// 资产响应类型
// =============================================================================

// AssetResponse 已完成任务产出的资产。
// @Description 资产响应结构
type AssetResponse struct {
	ID    string      `json:"id"`
	Asset types.Asset `json:"asset"`
}

package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/api"
	"github.com/BaSui01/assetflow/generation/pipeline"
	"github.com/BaSui01/assetflow/types"
	"github.com/BaSui01/assetflow/worker"
)

// =============================================================================
// 🏗️ 生成任务 Handler
// =============================================================================

// JobService 异步任务服务，*worker.Worker 实现该接口
type JobService interface {
	Submit(ctx context.Context, req worker.Request) (worker.Job, error)
	Status(id string) (worker.Job, error)
	StoredAsset(id string) (worker.StoredAsset, error)
}

// GenerationHandler 生成任务处理器
type GenerationHandler struct {
	jobs   JobService
	logger *zap.Logger
}

// NewGenerationHandler 创建生成任务处理器
func NewGenerationHandler(jobs JobService, logger *zap.Logger) *GenerationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationHandler{
		jobs:   jobs,
		logger: logger.With(zap.String("component", "generation_handler")),
	}
}

// HandleGenerate 提交 3D 生成任务
// @Summary 生成 3D 资产
// @Description 提交异步 3D 生成任务，返回任务快照
// @Tags 生成
// @Accept json
// @Produce json
// @Param request body api.GenerateRequest true "生成请求"
// @Success 202 {object} worker.Job "已排队的任务"
// @Failure 400 {object} Response "无效请求"
// @Failure 422 {object} Response "不支持的模态"
// @Failure 429 {object} Response "队列已满"
// @Security BearerAuth
// @Router /v1/models/generate [post]
func (h *GenerationHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if !DecodeRequest(w, r, &req, h.logger) {
		return
	}

	modality, err := pipeline.ParseModality(req.Modality)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	if modality == pipeline.TextToTexture {
		WriteError(w, types.NewError(types.ErrInvalidRequest,
			"text-to-texture is served by /v1/textures/generate"), h.logger)
		return
	}

	params, err := req.Params()
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.submit(w, r, worker.Request{Modality: modality, Prompt: req.Prompt, Params: params})
}

// HandleGenerateTexture 提交纹理生成任务
// @Summary 生成纹理
// @Description 提交异步纹理生成任务，返回任务快照
// @Tags 生成
// @Accept json
// @Produce json
// @Param request body api.TextureRequest true "纹理请求"
// @Success 202 {object} worker.Job "已排队的任务"
// @Failure 400 {object} Response "无效请求"
// @Failure 429 {object} Response "队列已满"
// @Security BearerAuth
// @Router /v1/textures/generate [post]
func (h *GenerationHandler) HandleGenerateTexture(w http.ResponseWriter, r *http.Request) {
	var req api.TextureRequest
	if !DecodeRequest(w, r, &req, h.logger) {
		return
	}

	params, err := req.Params()
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.submit(w, r, worker.Request{Modality: pipeline.TextToTexture, Prompt: req.Prompt, Params: params})
}

func (h *GenerationHandler) submit(w http.ResponseWriter, r *http.Request, req worker.Request) {
	if strings.TrimSpace(req.Prompt) == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "prompt is required"), h.logger)
		return
	}
	req.UserID, _ = types.UserID(r.Context())

	job, err := h.jobs.Submit(r.Context(), req)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	w.Header().Set("Location", "/v1/jobs/"+job.ID)
	WriteAccepted(w, job)
}

// HandleGetJob 查询任务状态
// @Summary 查询任务
// @Description 返回任务的当前快照
// @Tags 任务
// @Produce json
// @Param id path string true "任务 ID"
// @Success 200 {object} worker.Job "任务快照"
// @Failure 404 {object} Response "任务不存在"
// @Security BearerAuth
// @Router /v1/jobs/{id} [get]
func (h *GenerationHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "job id is required"), h.logger)
		return
	}

	job, err := h.jobs.Status(id)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	if !h.visible(r, job.UserID) {
		WriteError(w, types.NewError(types.ErrNotFound, "job not found"), h.logger)
		return
	}
	WriteSuccess(w, job)
}

// HandleGetAsset 获取已完成任务的资产
// @Summary 获取资产
// @Description 返回任务产出的资产
// @Tags 任务
// @Produce json
// @Param id path string true "资产 ID"
// @Success 200 {object} api.AssetResponse "资产"
// @Failure 404 {object} Response "资产不存在"
// @Security BearerAuth
// @Router /v1/assets/{id} [get]
func (h *GenerationHandler) HandleGetAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "asset id is required"), h.logger)
		return
	}

	stored, err := h.jobs.StoredAsset(id)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	if !h.visible(r, stored.UserID) {
		WriteError(w, types.NewError(types.ErrNotFound, "asset not found"), h.logger)
		return
	}
	WriteSuccess(w, api.AssetResponse{ID: id, Asset: stored.Asset})
}

// visible 认证用户只能看到自己提交的任务及其资产
func (h *GenerationHandler) visible(r *http.Request, owner string) bool {
	userID, ok := types.UserID(r.Context())
	return !ok || owner == "" || owner == userID
}

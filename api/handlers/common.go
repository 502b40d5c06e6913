package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/types"
)

// =============================================================================
// 📦 通用响应结构
// =============================================================================

// Response 统一 API 响应信封
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo 错误信息
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// statusByCode 错误码到 HTTP 状态码，未列出的按 500 处理
var statusByCode = map[types.ErrorCode]int{
	types.ErrInvalidRequest:      http.StatusBadRequest,
	types.ErrConfiguration:       http.StatusBadRequest,
	types.ErrUnsupportedModality: http.StatusUnprocessableEntity,
	types.ErrUnauthorized:        http.StatusUnauthorized,
	types.ErrNotFound:            http.StatusNotFound,
	types.ErrInvalidState:        http.StatusConflict,
	types.ErrRateLimited:         http.StatusTooManyRequests,
	types.ErrTimeout:             http.StatusGatewayTimeout,
	types.ErrInternalError:       http.StatusInternalServerError,
}

// StatusFor 返回错误应使用的 HTTP 状态码；显式设置的 HTTPStatus 优先
func StatusFor(err *types.Error) int {
	if err.HTTPStatus != 0 {
		return err.HTTPStatus
	}
	if status, ok := statusByCode[err.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// =============================================================================
// 🎯 响应辅助函数
// =============================================================================

// WriteJSON 写入任意 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// 响应头已写出，编码失败无法再改状态码
	_ = json.NewEncoder(w).Encode(body)
}

func envelope(w http.ResponseWriter, status int, data any, info *ErrorInfo) {
	WriteJSON(w, status, Response{
		Success:   info == nil,
		Data:      data,
		Error:     info,
		Timestamp: time.Now().UTC(),
		RequestID: w.Header().Get("X-Request-ID"),
	})
}

// WriteSuccess 200 + 数据信封
func WriteSuccess(w http.ResponseWriter, data any) {
	envelope(w, http.StatusOK, data, nil)
}

// WriteAccepted 202 + 数据信封，用于异步任务提交
func WriteAccepted(w http.ResponseWriter, data any) {
	envelope(w, http.StatusAccepted, data, nil)
}

// WriteError 写入结构化错误。4xx 记 warn，5xx 记 error；logger 可为 nil。
func WriteError(w http.ResponseWriter, err *types.Error, logger *zap.Logger) {
	status := StatusFor(err)
	if logger != nil {
		fields := []zap.Field{
			zap.String("code", string(err.Code)),
			zap.Int("status", status),
			zap.String("request_id", w.Header().Get("X-Request-ID")),
		}
		if err.Cause != nil {
			fields = append(fields, zap.Error(err.Cause))
		}
		if status >= http.StatusInternalServerError {
			logger.Error(err.Message, fields...)
		} else {
			logger.Warn(err.Message, fields...)
		}
	}
	envelope(w, status, nil, &ErrorInfo{
		Code:      string(err.Code),
		Message:   err.Message,
		Retryable: err.Retryable,
	})
}

// WriteAnyError 写入任意错误；非 *types.Error 统一视为内部错误，原因不外泄
func WriteAnyError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if typed, ok := types.AsError(err); ok {
		WriteError(w, typed, logger)
		return
	}
	WriteError(w, types.NewError(types.ErrInternalError, "internal error").WithCause(err), logger)
}

// =============================================================================
// 🛡️ 请求解码
// =============================================================================

// maxBodyBytes 请求体大小上限
const maxBodyBytes = 1 << 20

// DecodeRequest 校验 Content-Type 并以严格模式解码 JSON 请求体到 dst。
// 失败时已写出 400 响应，调用方直接返回即可。
func DecodeRequest(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "Content-Type must be application/json"), logger)
		return false
	}

	body := r.Body
	if body == nil {
		body = http.NoBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid JSON body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
		}
		WriteError(w, types.NewError(types.ErrInvalidRequest, msg).WithCause(err), logger)
		return false
	}
	return true
}

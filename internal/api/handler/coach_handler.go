package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"resume-coach-go/internal/coach"
	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
)

// CoachHandler 简历教练HTTP处理器
type CoachHandler struct {
	ingest *coach.IngestService
	chat   *coach.ChatService
}

// NewCoachHandler 创建教练处理器
func NewCoachHandler(ingest *coach.IngestService, chat *coach.ChatService) *CoachHandler {
	return &CoachHandler{
		ingest: ingest,
		chat:   chat,
	}
}

// UploadResume 处理 POST /api/v1/upload_resume。
// multipart表单的file字段携带PDF；分类不通过返回422，提取失败返回400。
func (h *CoachHandler) UploadResume(ctx context.Context, c *app.RequestContext) {
	requestID := uuid.NewString()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "缺少file字段或文件未找到"})
		return
	}

	fileBytes, err := readMultipartFile(fileHeader)
	if err != nil {
		logger.Error().Err(err).Str("request_id", requestID).Msg("读取上传文件失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "读取上传文件失败"})
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		c.JSON(consts.StatusUnprocessableEntity, utils.H{
			"error": "只接受PDF格式的简历，请上传PDF文件",
		})
		return
	}

	result, err := h.ingest.Ingest(ctx, fileBytes, fileHeader.Filename)
	if err != nil {
		h.writeUploadError(c, requestID, fileHeader.Filename, err)
		return
	}

	logger.Info().
		Str("request_id", requestID).
		Str("file_id", result.FileID).
		Bool("cache_hit", result.CacheHit).
		Msg("简历上传处理成功")

	c.JSON(consts.StatusOK, result)
}

// writeUploadError 把管线错误映射到HTTP状态码
func (h *CoachHandler) writeUploadError(c *app.RequestContext, requestID, filename string, err error) {
	switch {
	case errors.Is(err, coach.ErrNotAResume):
		logger.Info().
			Str("request_id", requestID).
			Str("filename", filename).
			Msg("上传文件未通过简历分类")
		c.JSON(consts.StatusUnprocessableEntity, utils.H{
			"error": "I could not detect this file as a proper resume. Please upload a clear resume PDF for best results.",
		})
	case errors.Is(err, coach.ErrExtractionFailed):
		logger.Warn().
			Err(err).
			Str("request_id", requestID).
			Str("filename", filename).
			Msg("上传文件文本提取失败")
		c.JSON(consts.StatusBadRequest, utils.H{
			"error": "无法从上传的文件中提取文本，请确认文件是有效的PDF",
		})
	default:
		logger.Error().
			Err(err).
			Str("request_id", requestID).
			Str("filename", filename).
			Msg("简历上传管线失败")
		c.JSON(consts.StatusInternalServerError, utils.H{
			"error": "处理简历时出现内部错误，请稍后重试",
		})
	}
}

// Chat 处理 POST /api/v1/chat
func (h *CoachHandler) Chat(ctx context.Context, c *app.RequestContext) {
	requestID := uuid.NewString()

	var req types.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法的JSON"})
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "user_message不能为空"})
		return
	}

	reply, err := h.chat.Reply(ctx, req.FileID, req.UserMessage)
	if err != nil {
		logger.Error().
			Err(err).
			Str("request_id", requestID).
			Str("file_id", req.FileID).
			Msg("生成教练回复失败")
		c.JSON(consts.StatusInternalServerError, utils.H{
			"error": "生成回复时出现内部错误，请稍后重试",
		})
		return
	}

	c.JSON(consts.StatusOK, types.ChatResponse{Response: reply})
}

// readMultipartFile 读出multipart文件的全部字节
func readMultipartFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	return data, nil
}

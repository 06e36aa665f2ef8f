package coach

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrExtractionFailed  = errors.New("提取简历文本失败")
	ErrNotAResume        = errors.New("文件不是有效的简历")
	ErrGenerationFailed  = errors.New("生成简历分析失败")
	ErrIndexingFailed    = errors.New("索引简历分块失败")
	ErrSessionSaveFailed = errors.New("写入会话失败")
	ErrChatFailed        = errors.New("生成教练回复失败")
)

// PipelineError 带上下文的管线错误
type PipelineError struct {
	FileID  string
	Op      string
	BaseErr error
	Detail  string
}

func (e *PipelineError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, FileID:%s): %s", e.BaseErr, e.Op, e.FileID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, FileID:%s)", e.BaseErr, e.Op, e.FileID)
}

func (e *PipelineError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewExtractionError(fileID, detail string) error {
	return &PipelineError{
		FileID:  fileID,
		Op:      "extract",
		BaseErr: ErrExtractionFailed,
		Detail:  detail,
	}
}

func NewNotAResumeError(fileID, detail string) error {
	return &PipelineError{
		FileID:  fileID,
		Op:      "classify",
		BaseErr: ErrNotAResume,
		Detail:  detail,
	}
}

func NewGenerationError(fileID, detail string) error {
	return &PipelineError{
		FileID:  fileID,
		Op:      "generate",
		BaseErr: ErrGenerationFailed,
		Detail:  detail,
	}
}

func NewIndexingError(fileID, detail string) error {
	return &PipelineError{
		FileID:  fileID,
		Op:      "index",
		BaseErr: ErrIndexingFailed,
		Detail:  detail,
	}
}

func NewSessionSaveError(fileID, detail string) error {
	return &PipelineError{
		FileID:  fileID,
		Op:      "session",
		BaseErr: ErrSessionSaveFailed,
		Detail:  detail,
	}
}

func NewChatError(fileID, detail string) error {
	return &PipelineError{
		FileID:  fileID,
		Op:      "chat",
		BaseErr: ErrChatFailed,
		Detail:  detail,
	}
}

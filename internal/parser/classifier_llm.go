package parser

import (
	"context"
	"fmt"
	"strings"

	"resume-coach-go/internal/logger"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const resumeClassifierSystemPrompt = `You are a strict document classifier. Your ONLY job is to decide whether the given text is a personal resume / CV.

A resume typically contains things like: work experience, education, skills, projects, contact information.
It is NOT a resume if the text is: an article, a book excerpt, a manual, an invoice, random notes, source code, a legal document, or anything else.

Output EXACTLY one word:
YES - if the text is a resume
NO - if the text is not a resume`

// LLMResumeClassifier 判断一段文本是否为简历。
// 先做长度硬过滤，再把(必要时截断的)文本交给LLM做 YES/NO 判定；
// 任何无法确定的情况一律按非简历处理。
type LLMResumeClassifier struct {
	chatModel model.ChatModel
	minChars  int
	maxChars  int
	headChars int
	tailChars int
}

// NewLLMResumeClassifier 创建简历分类器
func NewLLMResumeClassifier(chatModel model.ChatModel, minChars, maxChars, headChars, tailChars int) (*LLMResumeClassifier, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("聊天模型不能为空")
	}
	if minChars <= 0 {
		minChars = 300
	}
	if maxChars <= 0 {
		maxChars = 60000
	}
	if headChars <= 0 {
		headChars = 8000
	}
	if tailChars <= 0 {
		tailChars = 4000
	}
	return &LLMResumeClassifier{
		chatModel: chatModel,
		minChars:  minChars,
		maxChars:  maxChars,
		headChars: headChars,
		tailChars: tailChars,
	}, nil
}

// IsResume 判断文本是否为简历
func (c *LLMResumeClassifier) IsResume(ctx context.Context, text string) (bool, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, nil
	}

	runes := []rune(trimmed)
	if len(runes) < c.minChars {
		logger.Debug().Int("chars", len(runes)).Msg("文本过短，直接判定非简历")
		return false, nil
	}
	if len(runes) > c.maxChars {
		logger.Debug().Int("chars", len(runes)).Msg("文本过长，直接判定非简历")
		return false, nil
	}

	// 超出首尾预算的中段对判定贡献有限，截断以控制token
	sample := trimmed
	if len(runes) > c.headChars+c.tailChars {
		sample = string(runes[:c.headChars]) +
			"\n\n... [TRUNCATED] ...\n\n" +
			string(runes[len(runes)-c.tailChars:])
	}

	messages := []*schema.Message{
		schema.SystemMessage(resumeClassifierSystemPrompt),
		schema.UserMessage(sample),
	}

	resp, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return false, fmt.Errorf("简历分类LLM调用失败: %w", err)
	}

	verdict := strings.ToUpper(strings.TrimSpace(resp.Content))

	// 只有明确的YES才放行，模型输出含混时保守拒绝
	isResume := strings.Contains(verdict, "YES") && !strings.Contains(verdict, "NO")

	logger.Debug().
		Str("verdict", verdict).
		Bool("is_resume", isResume).
		Msg("简历分类完成")

	return isResume, nil
}

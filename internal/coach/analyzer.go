package coach

import (
	"context"
	"fmt"
	"strings"

	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const analysisPromptTemplate = `You are a senior career coach and resume expert.

Analyse the candidate's resume and return a SINGLE JSON object only.
DO NOT include any explanation, markdown, or backticks. ONLY raw JSON.

The JSON MUST have exactly this structure (field NAMES must match):

{
  "overall_score": <integer 0-100>,
  "score_label": "<short human label, e.g. 'Strong IC, interview-ready'>",
  "top_skills": ["Skill1", "Skill2", "Skill3", "..."],

  "role_fit": [
    {"role": "<job title 1>", "score": 0.0},
    {"role": "<job title 2>", "score": 0.0},
    {"role": "<job title 3>", "score": 0.0}
  ],

  "experience_level": "<string like 'Junior', 'Mid-level (2-4 years)'>",
  "years_experience": <float number of years>,
  "project_count": <int>,
  "companies_count": <int>,

  "gaps": [
    "Short bullet about a weakness or missing element.",
    "Another realistic gap."
  ],

  "quick_wins": [
    "Actionable suggestion that can be done in 1-2 days.",
    "Another quick improvement."
  ]
}

- Use these exact field names (snake_case) in the JSON.
- 'role_fit' should contain AT LEAST 5 realistic job titles, each with a 'score' in [0.0, 1.0].
- If something is not mentioned in the resume, use a reasonable default (0, 0.0, empty list, or "Unknown").
- Be honest but encouraging. Keep bullets short.

RESUME TEXT:
"""%s"""`

// Analyzer 调用LLM生成固定schema的简历分析
type Analyzer struct {
	chatModel model.ChatModel
}

// NewAnalyzer 创建分析生成器
func NewAnalyzer(chatModel model.ChatModel) (*Analyzer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("聊天模型不能为空")
	}
	return &Analyzer{chatModel: chatModel}, nil
}

// Generate 对简历文本生成结构化分析。
// 模型输出无法解析成完整schema时整体失败，不返回半成品。
func (a *Analyzer) Generate(ctx context.Context, text string) (*types.ResumeAnalysis, error) {
	prompt := fmt.Sprintf(analysisPromptTemplate, text)

	resp, err := a.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return nil, NewGenerationError("", fmt.Sprintf("LLM调用失败: %v", err))
	}

	raw := strings.TrimSpace(resp.Content)
	if raw == "" {
		return nil, NewGenerationError("", "模型返回了空内容")
	}

	// 剥离模型偶尔附带的说明文字或代码块标记，只保留最外层JSON对象
	jsonText := isolateJSONObject(raw)

	analysis, err := types.UnmarshalAnalysis([]byte(jsonText))
	if err != nil {
		logger.Warn().
			Err(err).
			Int("raw_length", len(raw)).
			Msg("分析JSON解析失败")
		return nil, NewGenerationError("", fmt.Sprintf("模型输出不符合分析schema: %v", err))
	}

	return analysis, nil
}

// isolateJSONObject 截取首个'{'到末尾'}'之间的内容，找不到时原样返回
func isolateJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}

package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// RoleFit 单个目标岗位的匹配度
type RoleFit struct {
	Role  string  `json:"role"`
	Score float64 `json:"score"` // [0,1]
}

// ResumeAnalysis 简历结构化分析结果，前端侧边栏的固定schema
type ResumeAnalysis struct {
	OverallScore    int       `json:"overall_score"` // [0,100]
	ScoreLabel      string    `json:"score_label"`
	TopSkills       []string  `json:"top_skills"`
	RoleFit         []RoleFit `json:"role_fit"`
	ExperienceLevel string    `json:"experience_level"`
	YearsExperience float64   `json:"years_experience"`
	ProjectCount    int       `json:"project_count"`
	CompaniesCount  int       `json:"companies_count"`
	Gaps            []string  `json:"gaps"`
	QuickWins       []string  `json:"quick_wins"`
}

// analysisWire 宽松的中间结构，数值统一按浮点接收，避免模型输出87.0时整型解析失败
type analysisWire struct {
	OverallScore    *float64  `json:"overall_score"`
	ScoreLabel      string    `json:"score_label"`
	TopSkills       []string  `json:"top_skills"`
	RoleFit         []RoleFit `json:"role_fit"`
	ExperienceLevel string    `json:"experience_level"`
	YearsExperience *float64  `json:"years_experience"`
	ProjectCount    *float64  `json:"project_count"`
	CompaniesCount  *float64  `json:"companies_count"`
	Gaps            []string  `json:"gaps"`
	QuickWins       []string  `json:"quick_wins"`
}

// analysisKeyAliases 模型偶尔返回camelCase键，统一折算回snake_case
var analysisKeyAliases = map[string]string{
	"overallScore":    "overall_score",
	"scoreLabel":      "score_label",
	"topSkills":       "top_skills",
	"roleFit":         "role_fit",
	"experienceLevel": "experience_level",
	"yearsExperience": "years_experience",
	"projectCount":    "project_count",
	"companiesCount":  "companies_count",
	"quickWins":       "quick_wins",
}

// UnmarshalAnalysis 解析模型输出的分析JSON。
// snake_case与camelCase键都接受；缺失字段取零值；解析失败返回错误。
func UnmarshalAnalysis(data []byte) (*ResumeAnalysis, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("分析结果不是合法的JSON对象: %w", err)
	}

	for camel, snake := range analysisKeyAliases {
		if v, ok := raw[camel]; ok {
			if _, exists := raw[snake]; !exists {
				raw[snake] = v
			}
		}
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("归一化分析JSON失败: %w", err)
	}

	var wire analysisWire
	if err := json.Unmarshal(normalized, &wire); err != nil {
		return nil, fmt.Errorf("分析JSON与既定schema不符: %w", err)
	}

	analysis := &ResumeAnalysis{
		ScoreLabel:      wire.ScoreLabel,
		TopSkills:       wire.TopSkills,
		RoleFit:         wire.RoleFit,
		ExperienceLevel: wire.ExperienceLevel,
		Gaps:            wire.Gaps,
		QuickWins:       wire.QuickWins,
	}
	if wire.OverallScore != nil {
		analysis.OverallScore = int(math.Round(*wire.OverallScore))
	}
	if wire.YearsExperience != nil {
		analysis.YearsExperience = *wire.YearsExperience
	}
	if wire.ProjectCount != nil {
		analysis.ProjectCount = int(math.Round(*wire.ProjectCount))
	}
	if wire.CompaniesCount != nil {
		analysis.CompaniesCount = int(math.Round(*wire.CompaniesCount))
	}

	analysis.Sanitize()
	return analysis, nil
}

// Sanitize 把分数收敛到约定区间，并把nil切片换成空切片，保证下游序列化后字段齐全
func (a *ResumeAnalysis) Sanitize() {
	if a.OverallScore < 0 {
		a.OverallScore = 0
	}
	if a.OverallScore > 100 {
		a.OverallScore = 100
	}
	for i := range a.RoleFit {
		if a.RoleFit[i].Score < 0 {
			a.RoleFit[i].Score = 0
		}
		if a.RoleFit[i].Score > 1 {
			a.RoleFit[i].Score = 1
		}
	}
	if a.YearsExperience < 0 {
		a.YearsExperience = 0
	}
	if a.ProjectCount < 0 {
		a.ProjectCount = 0
	}
	if a.CompaniesCount < 0 {
		a.CompaniesCount = 0
	}
	if a.TopSkills == nil {
		a.TopSkills = []string{}
	}
	if a.RoleFit == nil {
		a.RoleFit = []RoleFit{}
	}
	if a.Gaps == nil {
		a.Gaps = []string{}
	}
	if a.QuickWins == nil {
		a.QuickWins = []string{}
	}
}

// UploadResult 一次简历上传的完整结果
type UploadResult struct {
	FileID   string          `json:"file_id"`
	Greeting string          `json:"greeting"`
	Analysis *ResumeAnalysis `json:"analysis"`
	CacheHit bool            `json:"-"` // 仅用于日志与测试断言，不下发给前端
}

// ChatRequest 聊天请求体
type ChatRequest struct {
	FileID      string `json:"file_id"`
	UserMessage string `json:"user_message"`
}

// ChatResponse 聊天响应体
type ChatResponse struct {
	Response string `json:"response"`
}

package parser

import (
	"strings"

	"resume-coach-go/internal/constants"
)

// maxNameLength 超过该长度的首行更可能是标题或地址，不当作姓名
const maxNameLength = 80

// HeuristicNameExtractor 从简历文本猜测候选人姓名。
// 约定俗成：简历首个非空行几乎总是姓名，取不到时回退默认称呼。
type HeuristicNameExtractor struct{}

// NewHeuristicNameExtractor 创建姓名提取器
func NewHeuristicNameExtractor() *HeuristicNameExtractor {
	return &HeuristicNameExtractor{}
}

// ExtractName 返回首个非空行作为姓名，失败时返回默认称呼
func (e *HeuristicNameExtractor) ExtractName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		candidate := strings.TrimSpace(line)
		if candidate == "" {
			continue
		}
		if len([]rune(candidate)) > maxNameLength {
			break
		}
		return candidate
	}
	return constants.DefaultDisplayName
}

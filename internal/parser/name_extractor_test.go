package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExtractNameFirstLine 首个非空行应被当作姓名
func TestExtractNameFirstLine(t *testing.T) {
	extractor := NewHeuristicNameExtractor()

	text := "Jane Doe\nSoftware Engineer\njane@example.com"
	assert.Equal(t, "Jane Doe", extractor.ExtractName(text), "首行应被提取为姓名")
}

// TestExtractNameSkipsLeadingBlankLines 前导空行应被跳过
func TestExtractNameSkipsLeadingBlankLines(t *testing.T) {
	extractor := NewHeuristicNameExtractor()

	text := "\n\n   \nLi Ming\nBackend Developer"
	assert.Equal(t, "Li Ming", extractor.ExtractName(text), "应跳过空行找到首个非空行")
}

// TestExtractNameTrimsWhitespace 姓名两侧空白应被去除
func TestExtractNameTrimsWhitespace(t *testing.T) {
	extractor := NewHeuristicNameExtractor()

	assert.Equal(t, "Alex Chen", extractor.ExtractName("   Alex Chen   \nresume body"))
}

// TestExtractNameFallback 提取失败时回退到默认称呼
func TestExtractNameFallback(t *testing.T) {
	extractor := NewHeuristicNameExtractor()

	assert.Equal(t, "there", extractor.ExtractName(""), "空文本应回退到默认称呼")
	assert.Equal(t, "there", extractor.ExtractName("\n\n  \n"), "纯空白文本应回退到默认称呼")

	// 首行过长更像标题或乱码，不当作姓名
	longLine := strings.Repeat("x", 120) + "\nReal Name"
	assert.Equal(t, "there", extractor.ExtractName(longLine), "超长首行应触发默认称呼")
}

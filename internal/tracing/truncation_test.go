package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSafeAttributeValueMasksPII 名称含敏感关键字的属性值应被掩码
func TestSafeAttributeValueMasksPII(t *testing.T) {
	masked := SafeAttributeValue("user_name", "Jane Doe", DefaultMaxLength)
	assert.NotEqual(t, "Jane Doe", masked, "姓名类属性应被掩码")
	assert.Contains(t, masked, "*", "掩码结果应包含星号")

	masked = SafeAttributeValue("contact_email", "myemail@example.com", DefaultMaxLength)
	assert.Equal(t, "my"+strings.Repeat("*", 15)+"om", masked, "邮箱应保留首尾各2字符")
}

// TestSafeAttributeValueTruncates 非敏感属性超长时截断
func TestSafeAttributeValueTruncates(t *testing.T) {
	long := strings.Repeat("a", 500)
	safe := SafeAttributeValue("search.top_hit_preview", long, MaxQdrantLength)

	assert.LessOrEqual(t, len([]rune(safe)), MaxQdrantLength, "截断结果不应超过上限")
	assert.Contains(t, safe, "...", "截断结果应包含省略号")

	short := "short value"
	assert.Equal(t, short, SafeAttributeValue("search.top_hit_preview", short, MaxQdrantLength), "短值应原样保留")
}

// TestMaskPIIShortValues 短值掩码的边界情况
func TestMaskPIIShortValues(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("张"))
	assert.Equal(t, "张*", MaskPII("张三"))
	assert.Equal(t, "王*明", MaskPII("王小明"))
	assert.Equal(t, "13*******78", MaskPII("13812345678"))
}

// TestTruncateString 截断保留首尾并用省略号连接
func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 100), "未超长的字符串应原样返回")

	long := strings.Repeat("x", 50)
	truncated := TruncateString(long, 23)
	assert.Equal(t, strings.Repeat("x", 10)+"..."+strings.Repeat("x", 10), truncated)

	// maxLength过小时只保留前缀
	assert.Equal(t, "xxx", TruncateString(long, 3))
}

// TestSafeRedisKey Redis键按专用上限截断
func TestSafeRedisKey(t *testing.T) {
	key := "app:coach:analysis:" + strings.Repeat("f", 200)
	safe := SafeRedisKey(key)

	assert.LessOrEqual(t, len([]rune(safe)), MaxRedisLength)
	assert.True(t, strings.HasPrefix(safe, "app:coach:analysis:"), "键前缀应被保留")
}

// TestSafeResumeContent 简历内容按专用上限截断
func TestSafeResumeContent(t *testing.T) {
	content := strings.Repeat("resume text ", 100)
	safe := SafeResumeContent(content)

	assert.LessOrEqual(t, len([]rune(safe)), MaxResumeLength)
	assert.Contains(t, safe, "...")
}

// TestSafeSQL SQL语句按专用上限截断
func TestSafeSQL(t *testing.T) {
	sql := "SELECT * FROM sessions WHERE file_id IN (" + strings.Repeat("'x',", 300) + "'x')"
	safe := SafeSQL(sql)

	assert.LessOrEqual(t, len([]rune(safe)), MaxSQLLength)
	assert.True(t, strings.HasPrefix(safe, "SELECT * FROM sessions"), "语句开头应被保留")
}

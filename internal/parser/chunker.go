package parser

// FixedSizeChunker 定长滑窗分块器。
// 按字符(rune)切分，相邻块首尾重叠，保证跨块的句子在检索时至少完整出现一次。
type FixedSizeChunker struct {
	chunkSize int
	overlap   int
}

// NewFixedSizeChunker 创建定长分块器。
// 非法参数回退到 500/50；overlap大于等于chunkSize时按0处理，避免窗口不前进。
func NewFixedSizeChunker(chunkSize, overlap int) *FixedSizeChunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &FixedSizeChunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Chunk 把文本切成重叠的定长块
func (c *FixedSizeChunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return []string{}
	}

	chunks := make([]string, 0, len(runes)/(c.chunkSize-c.overlap)+1)
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
		start = start + c.chunkSize - c.overlap
	}
	return chunks
}

package coach

import (
	"context"
	"fmt"
	"os"
	"strings"

	"resume-coach-go/internal/constants"
	"resume-coach-go/internal/logger"
)

// coachQAChunker 把知识库文件按空行切成条目，条目内换行压成空格。
// 每条Q&A是独立的检索单元，不走定长滑窗。
type coachQAChunker struct{}

func (coachQAChunker) Chunk(text string) []string {
	blocks := strings.Split(text, "\n\n")
	chunks := make([]string, 0, len(blocks))
	for _, block := range blocks {
		entry := strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
		if entry != "" {
			chunks = append(chunks, entry)
		}
	}
	return chunks
}

// SeedCoachQA 启动时播种教练知识库。
// 向量库里已有coach_qa分块时跳过；种子文件缺失只记警告，服务照常启动。
func SeedCoachQA(ctx context.Context, vectors VectorStore, indexer *Indexer, qaPath string) error {
	if vectors == nil || indexer == nil {
		return fmt.Errorf("向量存储与索引器不能为空")
	}

	count, err := vectors.CountChunksByDocType(ctx, constants.DocTypeCoachQA)
	if err != nil {
		return fmt.Errorf("统计教练知识库分块失败: %w", err)
	}
	if count > 0 {
		logger.Info().Int64("chunk_count", count).Msg("教练知识库已存在，跳过播种")
		return nil
	}

	data, err := os.ReadFile(qaPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", qaPath).Msg("教练知识库种子文件不存在，跳过播种")
			return nil
		}
		return fmt.Errorf("读取教练知识库种子文件失败: %w", err)
	}

	seedIndexer, err := NewIndexer(coachQAChunker{}, indexer.embedder, indexer.vectors)
	if err != nil {
		return err
	}

	chunkCount, err := seedIndexer.Index(ctx, constants.CoachSeedFileID, constants.DocTypeCoachQA, string(data))
	if err != nil {
		return fmt.Errorf("播种教练知识库失败: %w", err)
	}

	logger.Info().Int("chunk_count", chunkCount).Str("path", qaPath).Msg("教练知识库播种完成")
	return nil
}

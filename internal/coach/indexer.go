package coach

import (
	"context"
	"fmt"

	"resume-coach-go/internal/logger"

	"github.com/cloudwego/eino/components/embedding"
)

// Indexer 分块、向量化并写入向量库。
// 写入前先清掉同file_id的旧分块，配合确定性point ID，重复索引是幂等的。
type Indexer struct {
	chunker  Chunker
	embedder embedding.Embedder
	vectors  VectorStore
}

// NewIndexer 创建分块索引器
func NewIndexer(chunker Chunker, embedder embedding.Embedder, vectors VectorStore) (*Indexer, error) {
	if chunker == nil {
		return nil, fmt.Errorf("分块器不能为空")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder不能为空")
	}
	if vectors == nil {
		return nil, fmt.Errorf("向量存储不能为空")
	}
	return &Indexer{
		chunker:  chunker,
		embedder: embedder,
		vectors:  vectors,
	}, nil
}

// Index 把文本索引到向量库，返回写入的分块数
func (idx *Indexer) Index(ctx context.Context, fileID, docType, text string) (int, error) {
	chunks := idx.chunker.Chunk(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings, err := idx.embedder.EmbedStrings(ctx, chunks)
	if err != nil {
		return 0, NewIndexingError(fileID, fmt.Sprintf("文本向量化失败: %v", err))
	}
	if len(embeddings) != len(chunks) {
		return 0, NewIndexingError(fileID, fmt.Sprintf("向量数量(%d)与分块数量(%d)不符", len(embeddings), len(chunks)))
	}

	if err := idx.vectors.DeleteChunksByFileID(ctx, fileID); err != nil {
		return 0, NewIndexingError(fileID, fmt.Sprintf("清理旧分块失败: %v", err))
	}

	count, err := idx.vectors.UpsertChunks(ctx, fileID, docType, chunks, embeddings)
	if err != nil {
		return 0, NewIndexingError(fileID, fmt.Sprintf("写入向量库失败: %v", err))
	}

	logger.Info().
		Str("file_id", fileID).
		Str("doc_type", docType).
		Int("chunk_count", count).
		Msg("分块索引完成")

	return count, nil
}

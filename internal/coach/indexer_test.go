package coach

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIndexWritesChunks 正常路径：分块、向量化并写入
func TestIndexWritesChunks(t *testing.T) {
	vectors := newFakeVectorStore()
	indexer, err := NewIndexer(lineChunker{}, &fakeEmbedder{}, vectors)
	require.NoError(t, err)

	count, err := indexer.Index(context.Background(), "file-1", "resume_chunk", "line one\nline two\nline three")
	require.NoError(t, err)

	assert.Equal(t, 3, count, "应写入3个分块")
	assert.Equal(t, []string{"line one", "line two", "line three"}, vectors.upsertedChunks["file-1"])
}

// TestIndexDeleteBeforeUpsert 写入前必须先清理同file_id的旧分块
func TestIndexDeleteBeforeUpsert(t *testing.T) {
	vectors := newFakeVectorStore()
	indexer, err := NewIndexer(lineChunker{}, &fakeEmbedder{}, vectors)
	require.NoError(t, err)

	_, err = indexer.Index(context.Background(), "file-1", "resume_chunk", "chunk")
	require.NoError(t, err)

	require.Equal(t, []string{"delete", "upsert"}, vectors.callOrder, "清理必须发生在写入之前")
}

// TestIndexEmptyText 空文本不产生分块也不触达向量库
func TestIndexEmptyText(t *testing.T) {
	vectors := newFakeVectorStore()
	embedder := &fakeEmbedder{}
	indexer, err := NewIndexer(lineChunker{}, embedder, vectors)
	require.NoError(t, err)

	count, err := indexer.Index(context.Background(), "file-1", "resume_chunk", "")
	require.NoError(t, err)

	assert.Equal(t, 0, count)
	assert.Equal(t, 0, embedder.callCount, "无分块时不应调用embedder")
	assert.Empty(t, vectors.callOrder, "无分块时不应触达向量库")
}

// TestIndexVectorCountMismatch 向量数量与分块数量不符应失败
func TestIndexVectorCountMismatch(t *testing.T) {
	vectors := newFakeVectorStore()
	indexer, err := NewIndexer(lineChunker{}, &fakeEmbedder{shortBy: 1}, vectors)
	require.NoError(t, err)

	_, err = indexer.Index(context.Background(), "file-1", "resume_chunk", "one\ntwo\nthree")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexingFailed)
	assert.Empty(t, vectors.upsertedChunks, "数量不符时不应写入任何分块")
}

// TestIndexEmbedderError 向量化失败应归类为索引失败
func TestIndexEmbedderError(t *testing.T) {
	vectors := newFakeVectorStore()
	indexer, err := NewIndexer(lineChunker{}, &fakeEmbedder{err: errStub("embedding接口超时")}, vectors)
	require.NoError(t, err)

	_, err = indexer.Index(context.Background(), "file-1", "resume_chunk", "chunk")
	assert.ErrorIs(t, err, ErrIndexingFailed)
}

// TestIndexUpsertError 写入失败应归类为索引失败
func TestIndexUpsertError(t *testing.T) {
	vectors := newFakeVectorStore()
	vectors.upsertErr = errStub("qdrant不可用")
	indexer, err := NewIndexer(lineChunker{}, &fakeEmbedder{}, vectors)
	require.NoError(t, err)

	_, err = indexer.Index(context.Background(), "file-1", "resume_chunk", "chunk")
	assert.ErrorIs(t, err, ErrIndexingFailed)
}

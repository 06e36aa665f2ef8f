package coach

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResumeText = `Jane Doe
Software Engineer

Experience:
Built a payment service in Go handling 2k req/s.
Led migration of legacy jobs to Kubernetes.

Skills: Go, MySQL, Docker, Kubernetes`

type ingestFixture struct {
	svc       *IngestService
	extractor *fakeExtractor
	chatMock  *fakeChatModel
	vectors   *fakeVectorStore
	db        *fakeRelationalStore
	kv        *fakeCacheStore
	archive   *fakeArchive
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	extractor := &fakeExtractor{text: sampleResumeText}
	chatMock := &fakeChatModel{reply: validAnalysisJSON}
	vectors := newFakeVectorStore()
	db := newFakeRelationalStore()
	kv := newFakeCacheStore()
	archive := newFakeArchive()

	cache, err := NewFingerprintCache(db, kv, "test-model")
	require.NoError(t, err)
	analyzer, err := NewAnalyzer(chatMock)
	require.NoError(t, err)
	indexer, err := NewIndexer(lineChunker{}, &fakeEmbedder{}, vectors)
	require.NoError(t, err)

	svc, err := NewIngestService(
		extractor, &fakeClassifier{resume: true}, firstLineNameExtractor{},
		cache, analyzer, indexer,
		db, kv, archive,
	)
	require.NoError(t, err)

	return &ingestFixture{
		svc:       svc,
		extractor: extractor,
		chatMock:  chatMock,
		vectors:   vectors,
		db:        db,
		kv:        kv,
		archive:   archive,
	}
}

// TestIngestHappyPath 合法简历：返回file_id、欢迎语与分析，并写入会话
func TestIngestHappyPath(t *testing.T) {
	f := newIngestFixture(t)

	result, err := f.svc.Ingest(context.Background(), []byte("%PDF-fake"), "jane_doe.pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, result.FileID, "file_id不应为空")
	assert.Contains(t, result.Greeting, "Jane Doe", "欢迎语应包含候选人姓名")
	require.NotNil(t, result.Analysis)
	assert.Equal(t, 82, result.Analysis.OverallScore)
	assert.False(t, result.CacheHit, "首次上传应为缓存未命中")

	// 会话与分块应已落库
	assert.Equal(t, "Jane Doe", f.db.sessions[result.FileID], "会话应以首行姓名写入")
	assert.NotEmpty(t, f.vectors.upsertedChunks[result.FileID], "简历分块应被索引")
	assert.Equal(t, "Jane Doe", f.kv.names[result.FileID], "会话名应被缓存")
	assert.Contains(t, f.archive.archived, result.FileID, "原始文件应被归档")
}

// TestIngestNotAResume 分类不通过：报错且不写会话、不写分析、不索引
func TestIngestNotAResume(t *testing.T) {
	f := newIngestFixture(t)
	f.svc.classifier = &fakeClassifier{resume: false}

	_, err := f.svc.Ingest(context.Background(), []byte("%PDF-novel"), "novel.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAResume, "分类不通过应返回专用错误")

	assert.Equal(t, 0, f.db.saveSessionCalls, "非简历不应写会话")
	assert.Equal(t, 0, f.db.saveAnalysisCalls, "非简历不应写分析缓存")
	assert.Empty(t, f.vectors.callOrder, "非简历不应触达向量库")
	assert.Equal(t, 0, f.chatMock.callCount, "非简历不应调用分析模型")
}

// TestIngestDuplicateUpload 同一简历第二次上传：新file_id、共享分析缓存
func TestIngestDuplicateUpload(t *testing.T) {
	f := newIngestFixture(t)

	first, err := f.svc.Ingest(context.Background(), []byte("%PDF-fake"), "jane_doe.pdf")
	require.NoError(t, err)
	second, err := f.svc.Ingest(context.Background(), []byte("%PDF-fake"), "jane_doe.pdf")
	require.NoError(t, err)

	assert.NotEqual(t, first.FileID, second.FileID, "每次上传应生成独立的file_id")
	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit, "第二次上传应命中分析缓存")
	assert.Equal(t, 1, f.chatMock.callCount, "分析只应生成一次")
	assert.Equal(t, 1, f.db.saveAnalysisCalls, "分析缓存只应落库一次")

	// 两个会话各自独立存在且可检索
	assert.Contains(t, f.db.sessions, first.FileID)
	assert.Contains(t, f.db.sessions, second.FileID)
	assert.NotEmpty(t, f.vectors.upsertedChunks[first.FileID])
	assert.NotEmpty(t, f.vectors.upsertedChunks[second.FileID])
}

// TestIngestExtractionFailure 提取失败应返回专用错误
func TestIngestExtractionFailure(t *testing.T) {
	f := newIngestFixture(t)
	f.svc.extractor = &fakeExtractor{err: errStub("损坏的PDF")}

	_, err := f.svc.Ingest(context.Background(), []byte("garbage"), "broken.pdf")
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, 0, f.db.saveSessionCalls)
}

// TestIngestEmptyExtraction 提取结果为空文本同样按提取失败处理
func TestIngestEmptyExtraction(t *testing.T) {
	f := newIngestFixture(t)
	f.svc.extractor = &fakeExtractor{text: "   \n  "}

	_, err := f.svc.Ingest(context.Background(), []byte("%PDF-blank"), "blank.pdf")
	assert.ErrorIs(t, err, ErrExtractionFailed, "空文本应按提取失败处理")
}

// TestIngestClassifierError 分类调用失败应向上传递而非静默拒绝
func TestIngestClassifierError(t *testing.T) {
	f := newIngestFixture(t)
	f.svc.classifier = &fakeClassifier{err: errStub("分类模型超时")}

	_, err := f.svc.Ingest(context.Background(), []byte("%PDF-fake"), "jane_doe.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAResume, "调用失败不应伪装成分类不通过")
}

// TestIngestSessionAfterIndexing 索引失败时不应写会话
func TestIngestSessionAfterIndexing(t *testing.T) {
	f := newIngestFixture(t)
	f.vectors.upsertErr = errStub("qdrant不可用")

	_, err := f.svc.Ingest(context.Background(), []byte("%PDF-fake"), "jane_doe.pdf")
	assert.ErrorIs(t, err, ErrIndexingFailed)
	assert.Equal(t, 0, f.db.saveSessionCalls, "索引失败不应写会话")
}

// TestIngestSessionSaveFailure 会话写入失败应返回专用错误
func TestIngestSessionSaveFailure(t *testing.T) {
	f := newIngestFixture(t)
	f.db.saveSessionErr = errStub("mysql只读")

	_, err := f.svc.Ingest(context.Background(), []byte("%PDF-fake"), "jane_doe.pdf")
	assert.ErrorIs(t, err, ErrSessionSaveFailed)
}

// TestIngestArchiveFailureNonFatal 归档失败不阻塞管线
func TestIngestArchiveFailureNonFatal(t *testing.T) {
	f := newIngestFixture(t)
	f.archive.err = errStub("minio不可用")
	f.svc.archive = f.archive

	result, err := f.svc.Ingest(context.Background(), []byte("%PDF-fake"), "jane_doe.pdf")
	require.NoError(t, err, "归档失败不应导致上传失败")
	assert.NotEmpty(t, result.FileID)
}

// TestBuildGreeting 欢迎语应嵌入姓名
func TestBuildGreeting(t *testing.T) {
	greeting := buildGreeting("Jane Doe")
	assert.Contains(t, greeting, "Hi Jane Doe!")
	assert.Contains(t, greeting, "career coach")
}

package coach

import (
	"context"

	"resume-coach-go/internal/storage"
	"resume-coach-go/internal/storage/models"
)

// TextExtractor 从上传的文件字节中提取纯文本
type TextExtractor interface {
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, error)
}

// TextClassifier 判断文本是否为简历
type TextClassifier interface {
	IsResume(ctx context.Context, text string) (bool, error)
}

// NameExtractor 从简历文本提取候选人姓名
type NameExtractor interface {
	ExtractName(text string) string
}

// Chunker 把长文本切成可检索的分块
type Chunker interface {
	Chunk(text string) []string
}

// VectorStore 分块向量的写入与检索
type VectorStore interface {
	UpsertChunks(ctx context.Context, fileID, docType string, chunks []string, vectors [][]float64) (int, error)
	SearchChunks(ctx context.Context, queryVector []float64, limit int, docType, fileID string) ([]storage.SearchResult, error)
	DeleteChunksByFileID(ctx context.Context, fileID string) error
	CountChunksByDocType(ctx context.Context, docType string) (int64, error)
}

// RelationalStore 会话与分析缓存的关系存储
type RelationalStore interface {
	SaveSession(ctx context.Context, fileID, userName string) error
	GetUserName(ctx context.Context, fileID string) (string, error)
	GetAnalysisByHash(ctx context.Context, resumeHash string) (*models.ResumeAnalysisRecord, error)
	SaveAnalysis(ctx context.Context, record *models.ResumeAnalysisRecord) error
}

// CacheStore 分析缓存快路径与会话名缓存，可缺省
type CacheStore interface {
	CacheAnalysis(ctx context.Context, resumeHash string, analysisJSON string) error
	GetCachedAnalysis(ctx context.Context, resumeHash string) (string, error)
	CacheSessionName(ctx context.Context, fileID, userName string) error
	GetSessionName(ctx context.Context, fileID string) (string, error)
}

// FileArchive 原始文件归档，可缺省
type FileArchive interface {
	ArchiveResumeFile(ctx context.Context, fileID string, data []byte) (string, error)
}

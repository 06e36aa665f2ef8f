package coach

import (
	"context"
	"fmt"
	"strings"

	"resume-coach-go/internal/constants"
	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/types"

	"github.com/gofrs/uuid/v5"
)

// IngestService 简历上传管线。
// 单次上传内的阶段顺序固定: 提取 → 分类 → 指纹缓存/生成 → 索引 → 会话写入，
// 会话只有在分块全部落库后才算就绪。
type IngestService struct {
	extractor     TextExtractor
	classifier    TextClassifier
	nameExtractor NameExtractor
	cache         *FingerprintCache
	analyzer      *Analyzer
	indexer       *Indexer
	db            RelationalStore
	kv            CacheStore  // 可为nil
	archive       FileArchive // 可为nil
}

// NewIngestService 创建上传管线
func NewIngestService(
	extractor TextExtractor,
	classifier TextClassifier,
	nameExtractor NameExtractor,
	cache *FingerprintCache,
	analyzer *Analyzer,
	indexer *Indexer,
	db RelationalStore,
	kv CacheStore,
	archive FileArchive,
) (*IngestService, error) {
	if extractor == nil {
		return nil, fmt.Errorf("文本提取器不能为空")
	}
	if classifier == nil {
		return nil, fmt.Errorf("简历分类器不能为空")
	}
	if nameExtractor == nil {
		return nil, fmt.Errorf("姓名提取器不能为空")
	}
	if cache == nil {
		return nil, fmt.Errorf("指纹缓存不能为空")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("分析生成器不能为空")
	}
	if indexer == nil {
		return nil, fmt.Errorf("索引器不能为空")
	}
	if db == nil {
		return nil, fmt.Errorf("关系存储不能为空")
	}
	return &IngestService{
		extractor:     extractor,
		classifier:    classifier,
		nameExtractor: nameExtractor,
		cache:         cache,
		analyzer:      analyzer,
		indexer:       indexer,
		db:            db,
		kv:            kv,
		archive:       archive,
	}, nil
}

// Ingest 处理一次简历上传。
// 分类不通过返回 ErrNotAResume，此时不写会话、不写分析缓存、不索引。
func (s *IngestService) Ingest(ctx context.Context, fileBytes []byte, filename string) (*types.UploadResult, error) {
	fileID, err := newFileID()
	if err != nil {
		return nil, fmt.Errorf("生成file_id失败: %w", err)
	}

	log := logger.Info().Str("file_id", fileID).Str("filename", filename)

	// 原件归档尽力而为，失败不阻塞管线
	if s.archive != nil {
		if _, aerr := s.archive.ArchiveResumeFile(ctx, fileID, fileBytes); aerr != nil {
			logger.Warn().Err(aerr).Str("file_id", fileID).Msg("归档原始文件失败")
		}
	}

	text, err := s.extractor.ExtractTextFromBytes(ctx, fileBytes, filename)
	if err != nil {
		return nil, NewExtractionError(fileID, err.Error())
	}
	if strings.TrimSpace(text) == "" {
		return nil, NewExtractionError(fileID, "提取结果为空文本")
	}

	isResume, err := s.classifier.IsResume(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("简历分类调用失败 (FileID:%s): %w", fileID, err)
	}
	if !isResume {
		return nil, NewNotAResumeError(fileID, filename)
	}

	analysis, cacheHit, err := s.cache.GetOrCreate(ctx, text, s.analyzer.Generate)
	if err != nil {
		return nil, err
	}

	chunkCount, err := s.indexer.Index(ctx, fileID, constants.DocTypeResumeChunk, text)
	if err != nil {
		return nil, err
	}
	if chunkCount == 0 {
		return nil, NewIndexingError(fileID, "没有产生任何可索引的分块")
	}

	// 索引成功后才写会话，保证会话存在即可检索
	userName := s.nameExtractor.ExtractName(text)
	if userName == "" {
		userName = constants.DefaultDisplayName
	}
	if err := s.db.SaveSession(ctx, fileID, userName); err != nil {
		return nil, NewSessionSaveError(fileID, err.Error())
	}
	if s.kv != nil {
		if cerr := s.kv.CacheSessionName(ctx, fileID, userName); cerr != nil {
			logger.Warn().Err(cerr).Str("file_id", fileID).Msg("缓存会话名失败")
		}
	}

	log.
		Bool("cache_hit", cacheHit).
		Int("chunk_count", chunkCount).
		Str("user_name", userName).
		Msg("简历上传管线完成")

	return &types.UploadResult{
		FileID:   fileID,
		Greeting: buildGreeting(userName),
		Analysis: analysis,
		CacheHit: cacheHit,
	}, nil
}

// newFileID 生成会话标识。
// UUIDv7按时间有序，方便日志与数据库里按上传时间排查。
func newFileID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// buildGreeting 生成上传成功的欢迎语
func buildGreeting(userName string) string {
	return fmt.Sprintf("Hi %s! I've analyzed your resume. "+
		"Ask me anything: STAR stories, interview prep, project explanations, LinkedIn summary. "+
		"I'm your personal career coach now.", userName)
}

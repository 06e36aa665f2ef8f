package coach

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-coach-go/internal/constants"
	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/storage"
	"resume-coach-go/internal/storage/models"
	"resume-coach-go/internal/types"
)

// Fingerprint 计算简历文本的内容指纹。
// 指纹只依赖文本内容，同一份简历不管上传多少次都映射到同一条分析缓存。
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// GenerateFunc 缓存未命中时生成分析结果的回调
type GenerateFunc func(ctx context.Context, text string) (*types.ResumeAnalysis, error)

// FingerprintCache 按内容指纹缓存分析结果。
// 读路径: Redis快路径 → MySQL → 生成；写路径: MySQL先落库，Redis回填尽力而为。
// 并发上传同一指纹允许重复生成，落库时先写入者胜出。
type FingerprintCache struct {
	db        RelationalStore
	kv        CacheStore // 可为nil，降级为纯MySQL
	modelName string
}

// NewFingerprintCache 创建指纹缓存
func NewFingerprintCache(db RelationalStore, kv CacheStore, modelName string) (*FingerprintCache, error) {
	if db == nil {
		return nil, fmt.Errorf("关系存储不能为空")
	}
	if modelName == "" {
		modelName = constants.AnalysisModelTag
	}
	return &FingerprintCache{
		db:        db,
		kv:        kv,
		modelName: modelName,
	}, nil
}

// GetOrCreate 返回文本对应的分析结果。
// 命中缓存时generate不会被调用；未命中时调用generate并持久化结果。
func (f *FingerprintCache) GetOrCreate(ctx context.Context, text string, generate GenerateFunc) (*types.ResumeAnalysis, bool, error) {
	resumeHash := Fingerprint(text)

	// Redis快路径
	if f.kv != nil {
		cached, err := f.kv.GetCachedAnalysis(ctx, resumeHash)
		if err == nil && cached != "" {
			analysis, perr := types.UnmarshalAnalysis([]byte(cached))
			if perr == nil {
				logger.Debug().Str("resume_hash", resumeHash).Msg("分析缓存Redis命中")
				return analysis, true, nil
			}
			logger.Warn().Err(perr).Str("resume_hash", resumeHash).Msg("Redis缓存内容损坏，回落到MySQL")
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.Warn().Err(err).Str("resume_hash", resumeHash).Msg("读取Redis分析缓存失败，回落到MySQL")
		}
	}

	// MySQL权威缓存
	record, err := f.db.GetAnalysisByHash(ctx, resumeHash)
	if err != nil {
		return nil, false, fmt.Errorf("查询分析缓存失败: %w", err)
	}
	if record != nil {
		var analysis types.ResumeAnalysis
		if derr := record.DecodeAnalysis(&analysis); derr != nil {
			return nil, false, fmt.Errorf("解码缓存的分析结果失败: %w", derr)
		}
		analysis.Sanitize()
		f.backfillKV(ctx, resumeHash, &analysis)
		logger.Info().Str("resume_hash", resumeHash).Msg("分析缓存MySQL命中")
		return &analysis, true, nil
	}

	// 未命中，生成新分析
	analysis, err := generate(ctx, text)
	if err != nil {
		return nil, false, err
	}

	newRecord := &models.ResumeAnalysisRecord{
		ResumeHash: resumeHash,
		ModelName:  f.modelName,
		CreatedAt:  time.Now(),
	}
	if err := newRecord.EncodeAnalysis(analysis); err != nil {
		return nil, false, fmt.Errorf("序列化分析结果失败: %w", err)
	}
	if err := f.db.SaveAnalysis(ctx, newRecord); err != nil {
		return nil, false, fmt.Errorf("持久化分析结果失败: %w", err)
	}

	f.backfillKV(ctx, resumeHash, analysis)
	logger.Info().Str("resume_hash", resumeHash).Msg("生成并缓存了新的分析结果")
	return analysis, false, nil
}

// backfillKV 回填Redis快路径，失败只记警告
func (f *FingerprintCache) backfillKV(ctx context.Context, resumeHash string, analysis *types.ResumeAnalysis) {
	if f.kv == nil {
		return
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		logger.Warn().Err(err).Msg("序列化分析结果用于Redis回填失败")
		return
	}
	if err := f.kv.CacheAnalysis(ctx, resumeHash, string(data)); err != nil {
		logger.Warn().Err(err).Str("resume_hash", resumeHash).Msg("回填Redis分析缓存失败")
	}
}

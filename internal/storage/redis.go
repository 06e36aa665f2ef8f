package storage

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"resume-coach-go/internal/config"
	"resume-coach-go/internal/constants"
	"resume-coach-go/internal/tracing"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound key不存在时返回，封装底层的redis.Nil
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-coach-go/storage/redis")

// Redis操作按key前缀的采样率配置
var redisKeySamplingRates = map[string]float64{
	constants.AppPrefix + ":" + constants.CoachModulePrefix + ":" + constants.EntityAnalysis + ":": 0.25,
	constants.AppPrefix + ":" + constants.CoachModulePrefix + ":" + constants.EntitySession + ":":  0.05,
}

var (
	rnd      *rand.Rand
	rndMutex sync.Mutex
)

func init() {
	source := rand.NewSource(time.Now().UnixNano())
	rnd = rand.New(source)
}

// shouldSampleRedisOp 根据key前缀决定是否创建span
func shouldSampleRedisOp(key string) bool {
	if key == "" {
		return false
	}
	for prefix, rate := range redisKeySamplingRates {
		if strings.HasPrefix(key, prefix) {
			return randFloat() < rate
		}
	}
	return randFloat() < 0.05
}

func randFloat() float64 {
	rndMutex.Lock()
	defer rndMutex.Unlock()
	return rnd.Float64()
}

// Redis 封装go-redis客户端，提供分析缓存快路径与会话名缓存
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
	}

	client := redis.NewClient(opt)

	// OpenTelemetry钩子，记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("为Redis注册OpenTelemetry钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis失败 %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查Redis连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// analysisCacheExpire 分析缓存快路径的TTL，0表示不过期
func (r *Redis) analysisCacheExpire() time.Duration {
	days := r.config.AnalysisCacheExpireDays
	if days <= 0 {
		return 0
	}
	return time.Duration(days) * 24 * time.Hour
}

// sessionNameExpire 会话名缓存的TTL
func (r *Redis) sessionNameExpire() time.Duration {
	minutes := r.config.SessionNameExpireMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

// CacheAnalysis 按内容指纹写入分析JSON快路径缓存
func (r *Redis) CacheAnalysis(ctx context.Context, resumeHash string, analysisJSON string) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeyAnalysisCache, resumeHash)
	return r.set(ctx, key, analysisJSON, r.analysisCacheExpire())
}

// GetCachedAnalysis 按内容指纹读取分析JSON，未命中返回ErrNotFound
func (r *Redis) GetCachedAnalysis(ctx context.Context, resumeHash string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeyAnalysisCache, resumeHash)
	return r.get(ctx, key)
}

// CacheSessionName 缓存会话展示名
func (r *Redis) CacheSessionName(ctx context.Context, fileID, userName string) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeySessionName, fileID)
	return r.set(ctx, key, userName, r.sessionNameExpire())
}

// GetSessionName 读取会话展示名，未命中返回ErrNotFound
func (r *Redis) GetSessionName(ctx context.Context, fileID string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeySessionName, fileID)
	return r.get(ctx, key)
}

// get 带采样追踪的GET
func (r *Redis) get(ctx context.Context, key string) (string, error) {
	var span trace.Span
	if shouldSampleRedisOp(key) {
		ctx, span = redisTracer.Start(ctx, "Redis.GET",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemRedis,
				attribute.String("db.operation", "GET"),
				attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
			))
		defer span.End()
	}

	val, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if span != nil {
			if err == redis.Nil {
				span.SetAttributes(attribute.Bool("db.redis.hit", false))
				span.SetStatus(codes.Ok, "key not found")
			} else {
				tracing.RecordError(span, err, tracing.ErrorTypeRedis)
			}
		}
		return "", err
	}

	if span != nil {
		span.SetAttributes(attribute.Bool("db.redis.hit", true))
		span.SetStatus(codes.Ok, "")
	}
	return val, nil
}

// set 带采样追踪的SET
func (r *Redis) set(ctx context.Context, key, value string, expiration time.Duration) error {
	var span trace.Span
	if shouldSampleRedisOp(key) {
		ctx, span = redisTracer.Start(ctx, "Redis.SET",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemRedis,
				attribute.String("db.operation", "SET"),
				attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
			))
		defer span.End()
	}

	err := r.Client.Set(ctx, key, value, expiration).Err()
	if span != nil {
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
	return err
}

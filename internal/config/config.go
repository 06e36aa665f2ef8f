package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用程序配置，启动时构建一次，只读传递给各组件
type Config struct {
	Aliyun struct {
		APIKey     string            `yaml:"api_key"`
		APIURL     string            `yaml:"api_url"`
		Model      string            `yaml:"model"`
		TaskModels map[string]string `yaml:"task_models"` // 任务专用模型，如 classifier / analyzer / chat
		Embedding  EmbeddingConfig   `yaml:"embedding"`
	} `yaml:"aliyun"`

	Qdrant struct {
		Endpoint           string `yaml:"endpoint"`
		Collection         string `yaml:"collection"`
		Dimension          int    `yaml:"dimension"`
		APIKey             string `yaml:"api_key,omitempty"`
		DefaultSearchLimit int    `yaml:"default_search_limit"`
	} `yaml:"qdrant"`

	MinIO MinIOConfig `yaml:"minio"`

	MySQL MySQLConfig `yaml:"mysql"`

	Redis RedisConfig `yaml:"redis"`

	Server ServerConfig `yaml:"server"`

	Coach CoachConfig `yaml:"coach"`

	Logger LoggerConfig `yaml:"logger"`

	Tracing TracingConfig `yaml:"tracing"`
}

// EmbeddingConfig Embedding接口配置
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
}

// MinIOConfig MinIO配置结构
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	OriginalsBucket string `yaml:"originalsBucket"` // 原始简历存储桶
	Location        string `yaml:"location"`
	// 原始文件过期天数，0表示永久保留
	OriginalFileExpireDays int `yaml:"original_file_expire_days"`
}

// MySQLConfig MySQL配置结构
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// 连接池设置
	MaxIdleConns int `yaml:"max_idle_conns"`
	MaxOpenConns int `yaml:"max_open_conns"`
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"`
	// 超时设置
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`
	// GORM日志级别(1-4)
	LogLevel int `yaml:"log_level"`
}

// RedisConfig Redis配置结构
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	// 重试设置
	MaxRetries        int `yaml:"max_retries"`
	MinRetryBackoffMS int `yaml:"min_retry_backoff_ms"`
	MaxRetryBackoffMS int `yaml:"max_retry_backoff_ms"`
	// 分析缓存快路径的过期时间(天)，0表示不过期
	AnalysisCacheExpireDays int `yaml:"analysis_cache_expire_days"`
	// 会话名缓存的过期时间(分钟)
	SessionNameExpireMinutes int `yaml:"session_name_expire_minutes"`
}

// ServerConfig HTTP服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8080"
	// APIKey 非空时对 /api/v1 分组启用keyauth鉴权
	APIKey string `yaml:"api_key,omitempty"`
}

// CoachConfig 简历教练管线配置
type CoachConfig struct {
	// 分块策略
	ChunkSize    int `yaml:"chunk_size"`    // 单块字符数
	ChunkOverlap int `yaml:"chunk_overlap"` // 相邻块重叠字符数
	// 检索数量
	ResumeTopK int `yaml:"resume_top_k"` // 简历块检索数
	CoachTopK  int `yaml:"coach_top_k"`  // 教练知识库检索数
	// 分类器硬性过滤
	ClassifierMinChars  int `yaml:"classifier_min_chars"`  // 短于该长度直接判非简历
	ClassifierMaxChars  int `yaml:"classifier_max_chars"`  // 长于该长度直接判非简历
	ClassifierHeadChars int `yaml:"classifier_head_chars"` // 截断时保留的开头字符数
	ClassifierTailChars int `yaml:"classifier_tail_chars"` // 截断时保留的结尾字符数
	// 教练知识库种子文件路径
	CoachQAPath string `yaml:"coach_qa_path"`
	// 单次LLM调用超时，如 "60s"
	LLMTimeout string `yaml:"llm_timeout"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	TimeFormat   string `yaml:"time_format"`
	ReportCaller bool   `yaml:"report_caller"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"` // 例如 "localhost:4317"
	ServiceName  string `yaml:"service_name"`
}

// LoadConfig 从文件加载配置，支持环境变量覆盖敏感项。
// 存在.env文件时先加载，便于本地开发注入密钥。
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".resume-coach", "config.yaml"),
		}

		execPath, err := os.Executable()
		if err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths, filepath.Join(execDir, "config.yaml"))
			searchPaths = append(searchPaths, filepath.Join(execDir, "..", "config.yaml"))
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		if configPath == "" {
			if inTestRun() {
				return createDefaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	if _, err := os.Stat(configPath); err != nil {
		if inTestRun() {
			return createDefaultConfig(), nil
		}
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)

	return &config, nil
}

// inTestRun 检测当前进程是否由 go test 拉起
func inTestRun() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}

func applyEnvOverrides(config *Config) {
	if envKey := os.Getenv("ALIYUN_API_KEY"); envKey != "" {
		config.Aliyun.APIKey = envKey
	}
	if envURL := os.Getenv("ALIYUN_API_URL"); envURL != "" {
		config.Aliyun.APIURL = envURL
	}
	if envModel := os.Getenv("ALIYUN_MODEL"); envModel != "" {
		config.Aliyun.Model = envModel
	}
	if envKey := os.Getenv("QDRANT_API_KEY"); envKey != "" {
		config.Qdrant.APIKey = envKey
	}
	if envKey := os.Getenv("SERVER_API_KEY"); envKey != "" {
		config.Server.APIKey = envKey
	}
}

func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Aliyun.Embedding.Model == "" {
		config.Aliyun.Embedding.Model = "text-embedding-v3"
	}
	if config.Aliyun.Embedding.Dimensions == 0 {
		config.Aliyun.Embedding.Dimensions = 1024
	}
	if config.Aliyun.Embedding.BaseURL == "" {
		config.Aliyun.Embedding.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
	}
	if config.Qdrant.Dimension == 0 {
		config.Qdrant.Dimension = config.Aliyun.Embedding.Dimensions
	}
	if config.Coach.ChunkSize == 0 {
		config.Coach.ChunkSize = 500
	}
	if config.Coach.ChunkOverlap == 0 {
		config.Coach.ChunkOverlap = 50
	}
	if config.Coach.ResumeTopK == 0 {
		config.Coach.ResumeTopK = 5
	}
	if config.Coach.CoachTopK == 0 {
		config.Coach.CoachTopK = 3
	}
	if config.Coach.ClassifierMinChars == 0 {
		config.Coach.ClassifierMinChars = 300
	}
	if config.Coach.ClassifierMaxChars == 0 {
		config.Coach.ClassifierMaxChars = 60000
	}
	if config.Coach.ClassifierHeadChars == 0 {
		config.Coach.ClassifierHeadChars = 8000
	}
	if config.Coach.ClassifierTailChars == 0 {
		config.Coach.ClassifierTailChars = 4000
	}
	if config.Coach.CoachQAPath == "" {
		config.Coach.CoachQAPath = "data/coach_qa.txt"
	}
	if config.Coach.LLMTimeout == "" {
		config.Coach.LLMTimeout = "60s"
	}
}

// createDefaultConfig 构造测试环境下的默认配置
func createDefaultConfig() *Config {
	config := &Config{}

	config.Aliyun.APIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	config.Aliyun.Model = "qwen-plus"
	config.Aliyun.TaskModels = map[string]string{
		"classifier": "qwen-turbo",
		"analyzer":   "qwen-plus",
		"chat":       "qwen-plus",
	}

	config.Qdrant.Endpoint = "http://localhost:6333"
	config.Qdrant.Collection = "resume_coach"
	config.Qdrant.Dimension = 1024
	config.Qdrant.DefaultSearchLimit = 10

	config.MinIO.Endpoint = "localhost:9000"
	config.MinIO.AccessKeyID = "minioadmin"
	config.MinIO.SecretAccessKey = "minioadmin123"
	config.MinIO.UseSSL = false
	config.MinIO.OriginalsBucket = "resume-originals"
	config.MinIO.OriginalFileExpireDays = 1095

	config.MySQL.Host = "localhost"
	config.MySQL.Port = 3306
	config.MySQL.Username = "root"
	config.MySQL.Password = "password"
	config.MySQL.Database = "resume_coach"
	config.MySQL.MaxIdleConns = 10
	config.MySQL.MaxOpenConns = 100
	config.MySQL.ConnMaxLifetimeMinutes = 60
	config.MySQL.ConnMaxIdleTimeMinutes = 30
	config.MySQL.ConnectTimeoutSeconds = 10
	config.MySQL.ReadTimeoutSeconds = 30
	config.MySQL.WriteTimeoutSeconds = 30
	config.MySQL.LogLevel = 4

	config.Redis.Address = "localhost:6379"
	config.Redis.DB = 0
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3
	config.Redis.MaxRetries = 3
	config.Redis.MinRetryBackoffMS = 8
	config.Redis.MaxRetryBackoffMS = 512
	config.Redis.AnalysisCacheExpireDays = 0
	config.Redis.SessionNameExpireMinutes = 60

	config.Logger.Level = "info"
	config.Logger.Format = "pretty"
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = true

	config.Tracing.Enabled = false
	config.Tracing.OTLPEndpoint = "localhost:4317"
	config.Tracing.ServiceName = "resume-coach-go"

	if envKey := os.Getenv("ALIYUN_API_KEY"); envKey != "" {
		config.Aliyun.APIKey = envKey
	} else {
		config.Aliyun.APIKey = "test_api_key"
	}

	applyDefaults(config)

	return config
}

// GetModelForTask 根据任务名称获取模型，任务专用模型优先于默认模型
func (c *Config) GetModelForTask(taskName string) string {
	if c.Aliyun.TaskModels != nil {
		if model, ok := c.Aliyun.TaskModels[taskName]; ok && model != "" {
			return model
		}
	}
	return c.Aliyun.Model
}

// GetDuration 解析配置中的时长字符串，失败时回退默认值
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}

// LLMTimeout 单次LLM调用超时
func (c *Config) LLMTimeout() time.Duration {
	return GetDuration(c.Coach.LLMTimeout, 60*time.Second)
}

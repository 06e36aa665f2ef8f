package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-coach-go/internal/agent"
	"resume-coach-go/internal/api/handler"
	"resume-coach-go/internal/api/router"
	"resume-coach-go/internal/coach"
	"resume-coach-go/internal/config"
	"resume-coach-go/internal/constants"
	appCoreLogger "resume-coach-go/internal/logger"
	"resume-coach-go/internal/parser"
	"resume-coach-go/internal/storage"
	"resume-coach-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 链路追踪可选，按配置开启
	if cfg.Tracing.Enabled {
		serviceName := cfg.Tracing.ServiceName
		if serviceName == "" {
			serviceName = "resume-coach-go"
		}
		shutdownTracer, terr := tracing.InitTracerProvider(ctx, serviceName, cfg.Tracing.OTLPEndpoint)
		if terr != nil {
			glog.Fatalf("初始化链路追踪失败: %v", terr)
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdownTracer(shutdownCtx); err != nil {
				glog.Warnf("关闭链路追踪失败: %v", err)
			}
		}()
		glog.Info("链路追踪初始化成功")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	if storageManager.MySQL == nil || storageManager.Qdrant == nil {
		glog.Fatal("MySQL与Qdrant是必需组件，初始化失败无法继续")
	}
	glog.Info("存储服务初始化成功")

	llmTimeout := cfg.LLMTimeout()

	aliyunEmbedder, err := parser.NewAliyunEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding, llmTimeout)
	if err != nil {
		glog.Fatalf("初始化阿里云Embedder失败: %v", err)
	}
	glog.Info("阿里云Embedder初始化成功")

	baseModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.Aliyun.Model, cfg.Aliyun.APIURL, llmTimeout)
	if err != nil {
		glog.Fatalf("初始化通义千问模型失败: %v", err)
	}
	classifierModel := baseModel.WithModelName(cfg.GetModelForTask("classifier"))
	analyzerModel := baseModel.WithModelName(cfg.GetModelForTask("analyzer"))
	chatModel := baseModel.WithModelName(cfg.GetModelForTask("chat"))
	glog.Info("通义千问模型初始化成功")

	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx)
	if err != nil {
		glog.Fatalf("创建Eino PDF提取器失败: %v", err)
	}
	glog.Info("使用Eino PDF解析器")

	classifier, err := parser.NewLLMResumeClassifier(classifierModel,
		cfg.Coach.ClassifierMinChars, cfg.Coach.ClassifierMaxChars,
		cfg.Coach.ClassifierHeadChars, cfg.Coach.ClassifierTailChars)
	if err != nil {
		glog.Fatalf("初始化简历分类器失败: %v", err)
	}

	chunker := parser.NewFixedSizeChunker(cfg.Coach.ChunkSize, cfg.Coach.ChunkOverlap)
	nameExtractor := parser.NewHeuristicNameExtractor()

	// Redis与MinIO缺席时传nil，管线自动降级
	var cacheStore coach.CacheStore
	if storageManager.Redis != nil {
		cacheStore = storageManager.Redis
	}
	var fileArchive coach.FileArchive
	if storageManager.MinIO != nil {
		fileArchive = storageManager.MinIO
	}

	fingerprintCache, err := coach.NewFingerprintCache(storageManager.MySQL, cacheStore, constants.AnalysisModelTag)
	if err != nil {
		glog.Fatalf("初始化指纹缓存失败: %v", err)
	}

	analyzer, err := coach.NewAnalyzer(analyzerModel)
	if err != nil {
		glog.Fatalf("初始化分析生成器失败: %v", err)
	}

	indexer, err := coach.NewIndexer(chunker, aliyunEmbedder, storageManager.Qdrant)
	if err != nil {
		glog.Fatalf("初始化分块索引器失败: %v", err)
	}

	ingestService, err := coach.NewIngestService(
		pdfExtractor, classifier, nameExtractor,
		fingerprintCache, analyzer, indexer,
		storageManager.MySQL, cacheStore, fileArchive,
	)
	if err != nil {
		glog.Fatalf("初始化上传管线失败: %v", err)
	}

	chatService, err := coach.NewChatService(
		chatModel, aliyunEmbedder, storageManager.Qdrant,
		storageManager.MySQL, cacheStore,
		cfg.Coach.ResumeTopK, cfg.Coach.CoachTopK,
	)
	if err != nil {
		glog.Fatalf("初始化对话服务失败: %v", err)
	}
	glog.Info("教练服务初始化成功")

	// 启动时播种教练知识库
	if err := coach.SeedCoachQA(ctx, storageManager.Qdrant, indexer, cfg.Coach.CoachQAPath); err != nil {
		glog.Fatalf("播种教练知识库失败: %v", err)
	}

	coachHandler := handler.NewCoachHandler(ingestService, chatService)

	serverOpts := []hertzconfig.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	}
	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled {
		tracer, tcfg := hertztracing.NewServerTracer()
		serverOpts = append(serverOpts, tracer)
		tracerCfg = tcfg
	}

	h := server.New(serverOpts...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, cfg, coachHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger(cfg *config.Config) {
	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
}

package coach

import (
	"context"
	"strings"

	"resume-coach-go/internal/storage"
	"resume-coach-go/internal/storage/models"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeChatModel 按脚本返回固定内容的模型桩
type fakeChatModel struct {
	reply      string
	err        error
	callCount  int
	lastPrompt string
}

func (m *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.callCount++
	if len(input) > 0 {
		m.lastPrompt = input[len(input)-1].Content
	}
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.reply}, nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errStub("流式未实现")
}

func (m *fakeChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// fakeEmbedder 为每段文本返回固定维度的向量
type fakeEmbedder struct {
	err       error
	callCount int
	// shortBy 大于0时少返回相应数量的向量，用于模拟数量不符
	shortBy int
}

func (e *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	e.callCount++
	if e.err != nil {
		return nil, e.err
	}
	n := len(texts) - e.shortBy
	if n < 0 {
		n = 0
	}
	vectors := make([][]float64, n)
	for i := range vectors {
		vectors[i] = []float64{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

// fakeVectorStore 记录调用顺序与写入内容的向量库桩
type fakeVectorStore struct {
	upsertedChunks map[string][]string // fileID -> chunks
	callOrder      []string
	searchResults  map[string][]storage.SearchResult // docType -> results
	searchFilters  []string                          // 每次检索传入的fileID
	searchErr      map[string]error                  // docType -> error
	upsertErr      error
	deleteErr      error
	countByDocType map[string]int64
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{
		upsertedChunks: make(map[string][]string),
		searchResults:  make(map[string][]storage.SearchResult),
		searchErr:      make(map[string]error),
		countByDocType: make(map[string]int64),
	}
}

func (v *fakeVectorStore) UpsertChunks(ctx context.Context, fileID, docType string, chunks []string, vectors [][]float64) (int, error) {
	v.callOrder = append(v.callOrder, "upsert")
	if v.upsertErr != nil {
		return 0, v.upsertErr
	}
	v.upsertedChunks[fileID] = chunks
	return len(chunks), nil
}

func (v *fakeVectorStore) SearchChunks(ctx context.Context, queryVector []float64, limit int, docType, fileID string) ([]storage.SearchResult, error) {
	v.callOrder = append(v.callOrder, "search:"+docType)
	v.searchFilters = append(v.searchFilters, fileID)
	if err := v.searchErr[docType]; err != nil {
		return nil, err
	}
	return v.searchResults[docType], nil
}

func (v *fakeVectorStore) DeleteChunksByFileID(ctx context.Context, fileID string) error {
	v.callOrder = append(v.callOrder, "delete")
	if v.deleteErr != nil {
		return v.deleteErr
	}
	delete(v.upsertedChunks, fileID)
	return nil
}

func (v *fakeVectorStore) CountChunksByDocType(ctx context.Context, docType string) (int64, error) {
	return v.countByDocType[docType], nil
}

// fakeRelationalStore 内存版会话与分析存储
type fakeRelationalStore struct {
	sessions          map[string]string
	analyses          map[string]*models.ResumeAnalysisRecord
	saveSessionCalls  int
	saveAnalysisCalls int
	getUserNameErr    error
	saveSessionErr    error
}

func newFakeRelationalStore() *fakeRelationalStore {
	return &fakeRelationalStore{
		sessions: make(map[string]string),
		analyses: make(map[string]*models.ResumeAnalysisRecord),
	}
}

func (s *fakeRelationalStore) SaveSession(ctx context.Context, fileID, userName string) error {
	s.saveSessionCalls++
	if s.saveSessionErr != nil {
		return s.saveSessionErr
	}
	s.sessions[fileID] = userName
	return nil
}

func (s *fakeRelationalStore) GetUserName(ctx context.Context, fileID string) (string, error) {
	if s.getUserNameErr != nil {
		return "", s.getUserNameErr
	}
	return s.sessions[fileID], nil
}

func (s *fakeRelationalStore) GetAnalysisByHash(ctx context.Context, resumeHash string) (*models.ResumeAnalysisRecord, error) {
	return s.analyses[resumeHash], nil
}

func (s *fakeRelationalStore) SaveAnalysis(ctx context.Context, record *models.ResumeAnalysisRecord) error {
	s.saveAnalysisCalls++
	// 先写入者胜出
	if _, exists := s.analyses[record.ResumeHash]; !exists {
		s.analyses[record.ResumeHash] = record
	}
	return nil
}

// fakeCacheStore 内存版Redis桩
type fakeCacheStore struct {
	analyses       map[string]string
	names          map[string]string
	getAnalysisErr error
	nameLookups    int
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{
		analyses: make(map[string]string),
		names:    make(map[string]string),
	}
}

func (c *fakeCacheStore) CacheAnalysis(ctx context.Context, resumeHash string, analysisJSON string) error {
	c.analyses[resumeHash] = analysisJSON
	return nil
}

func (c *fakeCacheStore) GetCachedAnalysis(ctx context.Context, resumeHash string) (string, error) {
	if c.getAnalysisErr != nil {
		return "", c.getAnalysisErr
	}
	cached, ok := c.analyses[resumeHash]
	if !ok {
		return "", storage.ErrNotFound
	}
	return cached, nil
}

func (c *fakeCacheStore) CacheSessionName(ctx context.Context, fileID, userName string) error {
	c.names[fileID] = userName
	return nil
}

func (c *fakeCacheStore) GetSessionName(ctx context.Context, fileID string) (string, error) {
	c.nameLookups++
	name, ok := c.names[fileID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return name, nil
}

// fakeExtractor 返回固定文本的提取器桩
type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

// fakeClassifier 返回固定判定的分类器桩
type fakeClassifier struct {
	resume bool
	err    error
}

func (c *fakeClassifier) IsResume(ctx context.Context, text string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.resume, nil
}

// firstLineNameExtractor 取首行为姓名
type firstLineNameExtractor struct{}

func (firstLineNameExtractor) ExtractName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// lineChunker 按行切分，空行忽略
type lineChunker struct{}

func (lineChunker) Chunk(text string) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

// fakeArchive 记录归档调用
type fakeArchive struct {
	archived map[string][]byte
	err      error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{archived: make(map[string][]byte)}
}

func (a *fakeArchive) ArchiveResumeFile(ctx context.Context, fileID string, data []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.archived[fileID] = data
	return "resume/" + fileID + "/original.pdf", nil
}

// errStub 测试用的简单错误类型
type errStub string

func (e errStub) Error() string { return string(e) }

// validAnalysisJSON 一份满足schema的分析JSON样例
const validAnalysisJSON = `{
	"overall_score": 82,
	"score_label": "Strong mid-level",
	"top_skills": ["Go", "Docker"],
	"role_fit": [
		{"role": "Backend Engineer", "score": 0.9},
		{"role": "Platform Engineer", "score": 0.8},
		{"role": "SRE", "score": 0.6},
		{"role": "DevOps Engineer", "score": 0.6},
		{"role": "Cloud Engineer", "score": 0.5}
	],
	"experience_level": "Mid-level (2-4 years)",
	"years_experience": 3,
	"project_count": 4,
	"companies_count": 2,
	"gaps": ["No leadership examples"],
	"quick_wins": ["Quantify project impact"]
}`

package coach

import (
	"context"
	"testing"

	"resume-coach-go/internal/constants"
	"resume-coach-go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkResult(text string) storage.SearchResult {
	return storage.SearchResult{
		ID:      "p-" + text,
		Score:   0.9,
		Payload: map[string]interface{}{"text": text, "doc_type": constants.DocTypeResumeChunk},
	}
}

func newChatFixture(t *testing.T) (*ChatService, *fakeChatModel, *fakeVectorStore, *fakeRelationalStore, *fakeCacheStore) {
	t.Helper()
	mock := &fakeChatModel{reply: "COACH ANSWER"}
	vectors := newFakeVectorStore()
	db := newFakeRelationalStore()
	kv := newFakeCacheStore()
	svc, err := NewChatService(mock, &fakeEmbedder{}, vectors, db, kv, 5, 3)
	require.NoError(t, err)
	return svc, mock, vectors, db, kv
}

// TestReplyEmptyFileID 未上传任何文件时返回引导回复
func TestReplyEmptyFileID(t *testing.T) {
	svc, mock, _, _, _ := newChatFixture(t)

	reply, err := svc.Reply(context.Background(), "  ", "hello")
	require.NoError(t, err)

	assert.Equal(t, uploadFirstReply, reply, "空file_id应返回先上传的引导回复")
	assert.Equal(t, 0, mock.callCount, "引导回复不应触发LLM调用")
}

// TestReplyNoResumeChunks 会话下无简历分块时返回引导回复而非报错
func TestReplyNoResumeChunks(t *testing.T) {
	svc, mock, _, _, _ := newChatFixture(t)

	reply, err := svc.Reply(context.Background(), "unknown-file-id", "what are my strengths?")
	require.NoError(t, err, "未知file_id不应报错")

	assert.Equal(t, noResumeContextReply, reply)
	assert.Equal(t, 0, mock.callCount, "无简历上下文时不应触发LLM调用")
}

// TestReplyHappyPath 完整RAG路径：双路检索、拼装提示词、生成回复
func TestReplyHappyPath(t *testing.T) {
	svc, mock, vectors, db, _ := newChatFixture(t)
	db.sessions["file-1"] = "Jane Doe"
	vectors.searchResults[constants.DocTypeResumeChunk] = []storage.SearchResult{
		chunkResult("Led migration to Kubernetes"),
		chunkResult("Built payment service in Go"),
	}
	vectors.searchResults[constants.DocTypeCoachQA] = []storage.SearchResult{
		chunkResult("Q: What is the STAR method? A: Situation, Task, Action, Result."),
	}

	reply, err := svc.Reply(context.Background(), "file-1", "help me with a STAR story")
	require.NoError(t, err)

	assert.Equal(t, "COACH ANSWER", reply)
	assert.Equal(t, 1, mock.callCount)

	// 提示词应包含双路上下文、会话名与用户消息
	assert.Contains(t, mock.lastPrompt, "Jane Doe", "提示词应包含会话名")
	assert.Contains(t, mock.lastPrompt, "Led migration to Kubernetes", "提示词应包含简历分块")
	assert.Contains(t, mock.lastPrompt, "STAR method", "提示词应包含教练知识分块")
	assert.Contains(t, mock.lastPrompt, "help me with a STAR story", "提示词应包含用户消息")

	// 简历检索必须带file_id过滤，知识库检索必须不过滤
	require.Len(t, vectors.searchFilters, 2)
	assert.Equal(t, "file-1", vectors.searchFilters[0], "简历检索应按file_id过滤")
	assert.Equal(t, "", vectors.searchFilters[1], "知识库检索不应按file_id过滤")
}

// TestReplyCoachSearchFailureDegrades 知识库检索失败降级为纯简历上下文
func TestReplyCoachSearchFailureDegrades(t *testing.T) {
	svc, mock, vectors, db, _ := newChatFixture(t)
	db.sessions["file-1"] = "Jane Doe"
	vectors.searchResults[constants.DocTypeResumeChunk] = []storage.SearchResult{
		chunkResult("Built payment service in Go"),
	}
	vectors.searchErr[constants.DocTypeCoachQA] = errStub("qdrant超时")

	reply, err := svc.Reply(context.Background(), "file-1", "question")
	require.NoError(t, err, "知识库检索失败不应导致整体失败")

	assert.Equal(t, "COACH ANSWER", reply)
	assert.Contains(t, mock.lastPrompt, "No coach Q&A context found.", "降级时应使用空知识库占位文本")
}

// TestReplyResumeSearchError 简历检索失败应报错
func TestReplyResumeSearchError(t *testing.T) {
	svc, _, vectors, _, _ := newChatFixture(t)
	vectors.searchErr[constants.DocTypeResumeChunk] = errStub("qdrant不可用")

	_, err := svc.Reply(context.Background(), "file-1", "question")
	assert.ErrorIs(t, err, ErrChatFailed, "简历检索失败应归类为对话失败")
}

// TestReplyNameFallback 会话名缺失时使用默认称呼
func TestReplyNameFallback(t *testing.T) {
	svc, mock, vectors, _, _ := newChatFixture(t)
	vectors.searchResults[constants.DocTypeResumeChunk] = []storage.SearchResult{
		chunkResult("resume content"),
	}

	_, err := svc.Reply(context.Background(), "file-1", "question")
	require.NoError(t, err)

	assert.Contains(t, mock.lastPrompt, "candidate named "+constants.DefaultChatName, "查不到会话名时应使用默认称呼")
}

// TestReplyNameCacheBackfill MySQL命中的会话名应回填Redis
func TestReplyNameCacheBackfill(t *testing.T) {
	svc, _, vectors, db, kv := newChatFixture(t)
	db.sessions["file-1"] = "Jane Doe"
	vectors.searchResults[constants.DocTypeResumeChunk] = []storage.SearchResult{
		chunkResult("resume content"),
	}

	_, err := svc.Reply(context.Background(), "file-1", "question")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", kv.names["file-1"], "MySQL命中的会话名应回填Redis")

	// 第二次对话走Redis
	lookupsBefore := kv.nameLookups
	_, err = svc.Reply(context.Background(), "file-1", "another question")
	require.NoError(t, err)
	assert.Equal(t, lookupsBefore+1, kv.nameLookups, "第二次应先查Redis")
}

// TestReplyModelError 回复生成失败应归类为对话失败
func TestReplyModelError(t *testing.T) {
	svc, mock, vectors, _, _ := newChatFixture(t)
	mock.err = errStub("上游限流")
	vectors.searchResults[constants.DocTypeResumeChunk] = []storage.SearchResult{
		chunkResult("resume content"),
	}

	_, err := svc.Reply(context.Background(), "file-1", "question")
	assert.ErrorIs(t, err, ErrChatFailed)
}

// TestBuildReplyPromptPlaceholders 上下文为空时使用占位文本
func TestBuildReplyPromptPlaceholders(t *testing.T) {
	prompt := buildReplyPrompt("msg", nil, nil, "friend")

	assert.Contains(t, prompt, "No resume context found.")
	assert.Contains(t, prompt, "No coach Q&A context found.")
	assert.Contains(t, prompt, `"""msg"""`)
}

// TestExtractChunkTextsSkipsBadPayloads payload缺失或非法时跳过
func TestExtractChunkTextsSkipsBadPayloads(t *testing.T) {
	results := []storage.SearchResult{
		chunkResult("good chunk"),
		{ID: "no-payload"},
		{ID: "wrong-type", Payload: map[string]interface{}{"text": 42}},
		{ID: "empty-text", Payload: map[string]interface{}{"text": ""}},
	}

	texts := extractChunkTexts(results)
	assert.Equal(t, []string{"good chunk"}, texts, "非法payload应被跳过")
}

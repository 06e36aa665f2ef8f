package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-coach-go/internal/constants"
	"resume-coach-go/internal/logger"
	"resume-coach-go/internal/storage"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// uploadFirstReply file_id为空时的回复，用户还没上传任何文件
const uploadFirstReply = "Please upload a valid resume in PDF format before we start chatting. 🙂"

// noResumeContextReply 会话下检索不到任何简历分块时的引导回复。
// 未知file_id与分类失败的上传统一走这条降级路径，不报错。
const noResumeContextReply = "I couldn't find any valid resume content linked to this chat.\n\n" +
	"👉 Please upload your actual resume in PDF format and then try asking your question again.\n" +
	"Right now it looks like you might have uploaded a random or non-resume PDF. 🙂"

const coachSystemPromptTemplate = `You are a professional, friendly CAREER COACH.

You are talking to a candidate named %s.
Your job is to:
- Help them explain their experience in very simple language.
- Help with STAR stories, interview answers, LinkedIn About, and resume bullets.
- Always stay on-topic: careers, interviews, communication, resumes, projects.

CRITICAL:
- You have access to their resume text.
- You must base your answers on their actual resume whenever relevant.
- Do NOT invent fake companies, projects, or tools that are not in the resume.`

const coachReplyPromptTemplate = `SYSTEM INSTRUCTIONS:
%s

<resume>
This is the candidate's resume content. Use this to understand their background,
projects, skills, and impact:

%s
</resume>

<coach_qa>
This is some general interview and career coaching knowledge you can use
for structure and best practices (STAR, 'Tell me about yourself', etc.):

%s
</coach_qa>

USER MESSAGE:
"""%s"""

Now respond as their personal career coach.

Rules:
- Refer to specific things from their resume whenever possible.
- If they ask about their strengths, projects, STAR stories, etc., use resume details.
- If something is not in the resume, say you don't see it instead of guessing.
- Use simple, clear language, like a good communicator.

You MUST follow ALL of these rules:

1) Default: Provide a concise, medium-length answer only
   - About 2-4 short paragraphs or 5-8 bullet points.
   - Do NOT generate long, extended, or deeply detailed answers
     unless the user explicitly asks for a "long answer",
     "detailed answer", or "step-by-step explanation".

2) RESPONSE FORMAT RULES (VERY IMPORTANT):

- NEVER write paragraph-style answers.
- ALWAYS break the entire answer into clear bullet points or numbered lists.
- Every idea must be a separate bullet point. No long chunks of text.
- Structure your response like this:

TITLE (ALL CAPS)

a) SECTION HEADER
- Bullet point 1
- Bullet point 2
- Bullet point 3

b) SECTION HEADER
- Bullet point 1
- Bullet point 2

c) SECTION HEADER
- Bullet point 1

- Do NOT write paragraphs.
- Do NOT write long-form narrative text.
- Keep every bullet point short, crisp, and direct.
- Do NOT use markdown symbols like **bold**, ## headings, or backticks.
- Use plain text only with hyphen bullets and numbered sections.


3) Absolutely NEVER:
   - Dump a big wall of text.
   - Ignore headings or bullet points.`

// ChatService 每轮对话的RAG服务：检索简历分块与教练知识库，拼装提示词并生成回复
type ChatService struct {
	chatModel  model.ChatModel
	embedder   embedding.Embedder
	vectors    VectorStore
	db         RelationalStore
	kv         CacheStore // 可为nil
	resumeTopK int
	coachTopK  int
}

// NewChatService 创建教练对话服务
func NewChatService(chatModel model.ChatModel, embedder embedding.Embedder, vectors VectorStore, db RelationalStore, kv CacheStore, resumeTopK, coachTopK int) (*ChatService, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("聊天模型不能为空")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder不能为空")
	}
	if vectors == nil {
		return nil, fmt.Errorf("向量存储不能为空")
	}
	if db == nil {
		return nil, fmt.Errorf("关系存储不能为空")
	}
	if resumeTopK <= 0 {
		resumeTopK = 5
	}
	if coachTopK <= 0 {
		coachTopK = 3
	}
	return &ChatService{
		chatModel:  chatModel,
		embedder:   embedder,
		vectors:    vectors,
		db:         db,
		kv:         kv,
		resumeTopK: resumeTopK,
		coachTopK:  coachTopK,
	}, nil
}

// Reply 对一条用户消息生成教练回复
func (s *ChatService) Reply(ctx context.Context, fileID, userMessage string) (string, error) {
	if strings.TrimSpace(fileID) == "" {
		return uploadFirstReply, nil
	}

	queryVectors, err := s.embedder.EmbedStrings(ctx, []string{userMessage})
	if err != nil {
		return "", NewChatError(fileID, fmt.Sprintf("消息向量化失败: %v", err))
	}
	if len(queryVectors) == 0 {
		return "", NewChatError(fileID, "消息向量化返回空结果")
	}
	queryVector := queryVectors[0]

	// 简历分块严格按file_id过滤，不允许跨会话兜底
	resumeResults, err := s.vectors.SearchChunks(ctx, queryVector, s.resumeTopK, constants.DocTypeResumeChunk, fileID)
	if err != nil {
		return "", NewChatError(fileID, fmt.Sprintf("检索简历分块失败: %v", err))
	}
	resumeChunks := extractChunkTexts(resumeResults)

	if len(resumeChunks) == 0 {
		logger.Info().Str("file_id", fileID).Msg("会话下没有简历分块，返回引导回复")
		return noResumeContextReply, nil
	}

	// 教练知识库全局共享，不过滤file_id
	coachResults, err := s.vectors.SearchChunks(ctx, queryVector, s.coachTopK, constants.DocTypeCoachQA, "")
	if err != nil {
		// 知识库检索失败降级为纯简历上下文
		logger.Warn().Err(err).Str("file_id", fileID).Msg("检索教练知识库失败，按空上下文继续")
		coachResults = nil
	}
	coachChunks := extractChunkTexts(coachResults)

	userName := s.lookupUserName(ctx, fileID)

	prompt := buildReplyPrompt(userMessage, resumeChunks, coachChunks, userName)

	resp, err := s.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", NewChatError(fileID, fmt.Sprintf("LLM调用失败: %v", err))
	}

	logger.Info().
		Str("file_id", fileID).
		Int("resume_chunks", len(resumeChunks)).
		Int("coach_chunks", len(coachChunks)).
		Msg("教练回复生成完成")

	return resp.Content, nil
}

// lookupUserName 读会话展示名: Redis → MySQL → 默认称呼
func (s *ChatService) lookupUserName(ctx context.Context, fileID string) string {
	if s.kv != nil {
		name, err := s.kv.GetSessionName(ctx, fileID)
		if err == nil && name != "" {
			return name
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.Warn().Err(err).Str("file_id", fileID).Msg("读取Redis会话名失败")
		}
	}

	name, err := s.db.GetUserName(ctx, fileID)
	if err != nil {
		logger.Warn().Err(err).Str("file_id", fileID).Msg("读取会话名失败，使用默认称呼")
		return constants.DefaultChatName
	}
	if name == "" {
		return constants.DefaultChatName
	}

	if s.kv != nil {
		if cerr := s.kv.CacheSessionName(ctx, fileID, name); cerr != nil {
			logger.Warn().Err(cerr).Str("file_id", fileID).Msg("回填Redis会话名失败")
		}
	}
	return name
}

// buildReplyPrompt 拼装完整的对话提示词
func buildReplyPrompt(userMessage string, resumeChunks, coachChunks []string, userName string) string {
	resumeContext := "No resume context found."
	if len(resumeChunks) > 0 {
		resumeContext = strings.Join(resumeChunks, "\n\n")
	}
	coachContext := "No coach Q&A context found."
	if len(coachChunks) > 0 {
		coachContext = strings.Join(coachChunks, "\n\n")
	}

	systemPrompt := fmt.Sprintf(coachSystemPromptTemplate, userName)
	return fmt.Sprintf(coachReplyPromptTemplate, systemPrompt, resumeContext, coachContext, userMessage)
}

// extractChunkTexts 从检索结果的payload中取出分块文本
func extractChunkTexts(results []storage.SearchResult) []string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Payload == nil {
			continue
		}
		if text, ok := r.Payload["text"].(string); ok && text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

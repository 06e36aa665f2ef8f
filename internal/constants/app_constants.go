package constants

const (
	// DocTypeResumeChunk 简历切块在向量库中的doc_type标记
	DocTypeResumeChunk = "resume_chunk"
	// DocTypeCoachQA 教练知识库条目在向量库中的doc_type标记
	DocTypeCoachQA = "coach_qa"

	// CoachSeedFileID 教练知识库条目共享的file_id标记
	CoachSeedFileID = "coach_seed"

	// DefaultDisplayName 无法从简历中取到姓名时的问候占位
	DefaultDisplayName = "there"
	// DefaultChatName 聊天阶段查不到会话姓名时的称呼
	DefaultChatName = "friend"

	// AnalysisModelTag 写入resumes表的生成模型标记
	AnalysisModelTag = "resume-coach-llm"
)

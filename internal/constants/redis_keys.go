package constants

// Redis Key 前缀和格式常量
// 统一命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// CoachModulePrefix 教练模块
	CoachModulePrefix = "coach"

	// EntityAnalysis 简历分析缓存实体
	EntityAnalysis = "analysis"
	// EntitySession 会话实体
	EntitySession = "session"

	// KeyAnalysisCache 按内容指纹缓存的分析结果 (STRING, JSON)
	// 格式: app:coach:analysis:{resume_hash}
	KeyAnalysisCache = AppPrefix + ":" + CoachModulePrefix + ":" + EntityAnalysis + ":%s"

	// KeySessionName 会话到展示名的缓存 (STRING)
	// 格式: app:coach:session:{file_id}
	KeySessionName = AppPrefix + ":" + CoachModulePrefix + ":" + EntitySession + ":%s"
)

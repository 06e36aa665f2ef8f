package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Session 一次上传事件的会话记录。
// file_id 在上传时生成（UUIDv7），与简历内容指纹解耦：
// 同一份简历上传两次会得到两个会话，但共享同一条分析缓存。
type Session struct {
	FileID   string `gorm:"column:file_id;type:char(36);primaryKey"`
	UserName string `gorm:"column:user_name;type:varchar(255)"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}

// ResumeAnalysisRecord 按内容指纹缓存的结构化分析结果。
// resume_hash 为简历文本的SHA-256十六进制摘要；每个唯一指纹只生成一次，之后不再变更。
type ResumeAnalysisRecord struct {
	ResumeHash   string         `gorm:"column:resume_hash;type:char(64);primaryKey"`
	AnalysisJSON datatypes.JSON `gorm:"column:analysis_json;type:json"`
	ModelName    string         `gorm:"column:model_name;type:varchar(128)"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

// TableName 指定表名
func (ResumeAnalysisRecord) TableName() string {
	return "resumes"
}

// DecodeAnalysis 把analysis_json列反序列化到目标结构
func (r *ResumeAnalysisRecord) DecodeAnalysis(dest interface{}) error {
	if len(r.AnalysisJSON) == 0 {
		return fmt.Errorf("analysis_json为空")
	}
	return json.Unmarshal(r.AnalysisJSON, dest)
}

// EncodeAnalysis 把结构化分析序列化进analysis_json列
func (r *ResumeAnalysisRecord) EncodeAnalysis(src interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("序列化分析结果失败: %w", err)
	}
	r.AnalysisJSON = datatypes.JSON(data)
	return nil
}

// internal/models/export.go
package models

import (
	"time"
)

// 导出格式
const (
	ExportCSV      = "csv"
	ExportJSON     = "json"
	ExportShotlist = "shotlist"
)

// ExportResult 导出结果
type ExportResult struct {
	SessionID   string    `json:"session_id,omitempty"`
	Format      string    `json:"format"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	RowCount    int       `json:"row_count"`
	GeneratedAt time.Time `json:"generated_at"`
	RemoteURL   string    `json:"remote_url,omitempty"` // 上传到对象存储后的位置
}

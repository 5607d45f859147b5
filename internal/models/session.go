// internal/models/session.go
package models

import "time"

// Session 应用保存的工作快照，字段按原样读写
type Session struct {
	Text      string                 `json:"text"`
	Queries   []string               `json:"queries"`
	Selected  map[string]MediaResult `json:"selected"`
	MediaType MediaKind              `json:"media_type"`
}

// Normalize 补齐空集合与默认媒体类型
func (s *Session) Normalize() {
	if s.Queries == nil {
		s.Queries = []string{}
	}
	if s.Selected == nil {
		s.Selected = map[string]MediaResult{}
	}
	if s.MediaType == "" {
		s.MediaType = MediaPhoto
	}
}

// StoredSession 会话在存储中的包装
type StoredSession struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Session   Session   `json:"session"`
}

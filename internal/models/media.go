// internal/models/media.go
package models

import "strings"

// MediaKind 照片或视频
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// ParseMediaKind 未知值一律视为照片
func ParseMediaKind(s string) MediaKind {
	if strings.EqualFold(strings.TrimSpace(s), string(MediaVideo)) {
		return MediaVideo
	}
	return MediaPhoto
}

// MediaFile 视频的一个可下载版本
type MediaFile struct {
	Quality  string `json:"quality,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Link     string `json:"link"`
	FileType string `json:"file_type,omitempty"`
}

// MediaResult 各提供商统一后的搜索结果
type MediaResult struct {
	Provider string      `json:"provider"`
	Query    string      `json:"query"`
	Title    string      `json:"title"`
	URL      string      `json:"url"`
	Thumb    string      `json:"thumb"`
	Author   string      `json:"author,omitempty"`
	License  string      `json:"license,omitempty"`
	ID       string      `json:"id,omitempty"`
	Duration int         `json:"duration,omitempty"`
	Files    []MediaFile `json:"files,omitempty"`
	Error    bool        `json:"error,omitempty"`
}
